package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prairiefire/wildfire-evacs/internal/enrich"
	"github.com/prairiefire/wildfire-evacs/internal/evac"
	"github.com/prairiefire/wildfire-evacs/internal/match"
	"github.com/prairiefire/wildfire-evacs/internal/scraper"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// SourceSummary is the per-source slice of a run summary.
type SourceSummary struct {
	Name       string                 `json:"name"`
	URL        string                 `json:"url"`
	Extract    scraper.ExtractSummary `json:"extract"`
	NewRecords int                    `json:"new_records"`
}

// OutputResult is the run summary written to stdout.
type OutputResult struct {
	RunID      string            `json:"run_id"`
	CheckedAt  time.Time         `json:"checked_at"`
	Sources    []SourceSummary   `json:"sources"`
	Clean      evac.CleanSummary `json:"clean"`
	Match      *match.Report     `json:"match"`
	Enrichment enrich.Summary    `json:"enrichment"`
	NewRecords []*evac.Record    `json:"new_records"`
	OutDir     string            `json:"out_dir"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	for _, src := range result.Sources {
		fmt.Fprintf(w, "%s: %d tables, %d matched, %d rows extracted\n",
			src.Name, src.Extract.TablesFound, src.Extract.TablesMatched, src.Extract.RowsExtracted)
	}

	fmt.Fprintf(w, "Records: %d in, %d section rows dropped, %d authorities filled, %d dates parsed (%d failed)\n",
		result.Clean.InputRecords, result.Clean.SectionRowsDropped,
		result.Clean.AuthoritiesFilled, result.Clean.DatesParsed, result.Clean.DatesFailed)

	if result.Match != nil {
		fmt.Fprintf(w, "Authorities: %d/%d matched (%.1f%%), records enriched: %d/%d\n",
			result.Match.Matched, result.Match.TotalAuthorities, result.Match.MatchRate(),
			result.Enrichment.Enriched, result.Enrichment.TotalRecords)
	}

	if len(result.NewRecords) == 0 {
		fmt.Fprintln(w, "No new records since last run.")
	} else {
		fmt.Fprintf(w, "\n%d new records since last run:\n", len(result.NewRecords))
		for _, rec := range result.NewRecords {
			fmt.Fprintf(w, "  NEW: %s | %s\n", rec.Authority, rec.DateText)
			if verbose {
				fmt.Fprintf(w, "       ID: %s\n", rec.EventID)
				fmt.Fprintf(w, "       Source: %s\n", rec.SourceName)
			}
		}
	}

	fmt.Fprintf(w, "\nArtifacts written to %s\n", result.OutDir)
	return nil
}
