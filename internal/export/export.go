// Package export writes the pipeline's output artifacts: the enriched
// record CSV, the authority matching QA files, the plain-text match report,
// and per-source raw text dumps.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/prairiefire/wildfire-evacs/internal/enrich"
	"github.com/prairiefire/wildfire-evacs/internal/match"
)

// Output artifact file names.
const (
	FileEnrichedRecords = "enriched_records.csv"
	FileAuthorityMap    = "authority_mapping.csv"
	FileUnmatched       = "unmatched_authorities.csv"
	FileLowConfidence   = "low_confidence_matches.csv"
	FileMatchReport     = "match_report.txt"
)

// Writer writes artifacts under a single output directory.
type Writer struct {
	outDir string
}

// NewWriter creates the output directory if needed.
func NewWriter(outDir string) (*Writer, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{outDir: outDir}, nil
}

// Dir returns the output directory path.
func (w *Writer) Dir() string {
	return w.outDir
}

// WriteAuthorityMapping writes one row per distinct authority, matched or
// not, sorted by authority name.
func (w *Writer) WriteAuthorityMapping(results map[string]*match.Result) error {
	rows := make([]*match.Result, 0, len(results))
	for _, res := range results {
		rows = append(rows, res)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Authority < rows[j].Authority })
	return w.writeResultCSV(FileAuthorityMap, rows)
}

// WriteUnmatched writes the authorities that resolved to no geography.
func (w *Writer) WriteUnmatched(rows []*match.Result) error {
	return w.writeResultCSV(FileUnmatched, rows)
}

// WriteLowConfidence writes accepted matches that scored below the
// review threshold.
func (w *Writer) WriteLowConfidence(rows []*match.Result) error {
	return w.writeResultCSV(FileLowConfidence, rows)
}

func (w *Writer) writeResultCSV(name string, rows []*match.Result) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(w.outDir, name), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WriteMatchReport writes the rendered text report.
func (w *Writer) WriteMatchReport(report *match.Report) error {
	path := filepath.Join(w.outDir, FileMatchReport)
	if err := os.WriteFile(path, []byte(report.Render()), 0644); err != nil {
		return fmt.Errorf("writing match report: %w", err)
	}
	return nil
}

// WriteRawText dumps the visible page text captured for a source, for
// manual inspection when the table schema drifts.
func (w *Writer) WriteRawText(source, text string) error {
	name := fmt.Sprintf("raw_%s.txt", slugify(source))
	if err := os.WriteFile(filepath.Join(w.outDir, name), []byte(text), 0644); err != nil {
		return fmt.Errorf("writing raw text for %s: %w", source, err)
	}
	return nil
}

// Enriched record columns are assembled by hand because the passthrough
// column set varies with whatever the source table carried: a fixed
// identity prefix, then the original table columns (sorted, unioned across
// records), then the enrichment columns.
var identityColumns = []string{
	"event_id", "source_name", "source_url", "run_id", "scraped_at",
	"authority", "date",
}

var enrichmentColumns = []string{
	"geo_id", "matched_name", "match_score", "match_type",
	"population", "indigenous_population", "indigenous_share",
}

// WriteEnrichedRecords writes the final joined dataset. Every input record
// produces exactly one row; enrichment cells are empty when null.
func (w *Writer) WriteEnrichedRecords(records []*enrich.Record) error {
	f, err := os.Create(filepath.Join(w.outDir, FileEnrichedRecords))
	if err != nil {
		return fmt.Errorf("creating %s: %w", FileEnrichedRecords, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	passthrough := passthroughColumns(records)

	header := make([]string, 0, len(identityColumns)+len(passthrough)+len(enrichmentColumns))
	header = append(header, identityColumns...)
	header = append(header, passthrough...)
	header = append(header, enrichmentColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing %s header: %w", FileEnrichedRecords, err)
	}

	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row,
			rec.EventID,
			rec.SourceName,
			rec.SourceURL,
			rec.RunID,
			rec.ScrapedAt.UTC().Format(time.RFC3339),
			rec.Authority,
			formatDate(rec.Date),
		)
		for _, col := range passthrough {
			row = append(row, rec.Columns[col])
		}
		row = append(row,
			rec.GeoID,
			rec.MatchedName,
			strconv.Itoa(rec.MatchScore),
			rec.MatchType,
			formatCount(rec.Population),
			formatCount(rec.IndigenousPopulation),
			formatShare(rec.IndigenousShare),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s row: %w", FileEnrichedRecords, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", FileEnrichedRecords, err)
	}
	return f.Close()
}

// passthroughColumns is the sorted union of every record's table columns.
func passthroughColumns(records []*enrich.Record) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for name := range rec.Columns {
			seen[name] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatCount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatShare(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
