package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prairiefire/wildfire-evacs/internal/census"
	"github.com/prairiefire/wildfire-evacs/internal/config"
	"github.com/prairiefire/wildfire-evacs/internal/enrich"
	"github.com/prairiefire/wildfire-evacs/internal/evac"
	"github.com/prairiefire/wildfire-evacs/internal/export"
	"github.com/prairiefire/wildfire-evacs/internal/logger"
	"github.com/prairiefire/wildfire-evacs/internal/match"
	"github.com/prairiefire/wildfire-evacs/internal/scraper"
	"github.com/prairiefire/wildfire-evacs/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitNewRecords = 2
)

var (
	flagConfig           string
	flagCensus           string
	flagCutoff           int
	flagOutDir           string
	flagDataDir          string
	flagFormat           string
	flagFromFile         string
	flagDesignatedPlaces bool
	flagVerbose          bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wildfire-evacs",
		Short: "Scrape wildfire evacuation notices and join them to census demographics",
		Long: `A pipeline that scrapes provincial wildfire evacuation pages, cleans the
extracted table rows, fuzzy-matches local authority names against census
subdivisions, and writes an enriched dataset plus matching QA artifacts.
Tracks records across runs and exits with code 2 when new records appear.`,
		RunE: runPipeline,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&flagCensus, "census", "", "Census profile CSV path or URL (overrides config)")
	cmd.Flags().IntVar(&flagCutoff, "cutoff", match.DefaultCutoff, "Minimum accepted match score (0-100)")
	cmd.Flags().StringVar(&flagOutDir, "out-dir", "", "Directory for output artifacts (overrides config)")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Data directory for snapshots (overrides config)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Parse a saved HTML file instead of fetching the first source")
	cmd.Flags().BoolVar(&flagDesignatedPlaces, "designated-places", true, "Try GNBC designated places for unmatched authorities")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	return cmd
}

// runPipeline is the main command logic
func runPipeline(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	level := logger.LevelInfo
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	if cfg.Match.Cutoff < 0 || cfg.Match.Cutoff > 100 {
		return fmt.Errorf("cutoff %d out of range 0-100", cfg.Match.Cutoff)
	}

	runID := uuid.NewString()
	logger.Info("starting run", logger.Fields{
		"run_id":  runID,
		"sources": len(cfg.Sources),
	})

	result := &OutputResult{
		RunID:     runID,
		CheckedAt: time.Now().UTC(),
	}

	// Scrape every source, keeping per-source results for raw text and
	// snapshot diffing.
	done := logger.StartStage("scrape")
	sourceResults := make(map[string]*scraper.SourceResult, len(cfg.Sources))
	var rawRecords []*evac.Record
	sc := scraper.New()

	for i, src := range cfg.Sources {
		var (
			res *scraper.SourceResult
			err error
		)
		if flagFromFile != "" && i == 0 {
			res, err = parseFile(flagFromFile, src, runID)
		} else {
			res, err = sc.ScrapeSource(src.Name, src.URL, runID)
		}
		if err != nil {
			// One bad source should not sink the run; the failure is
			// visible in the log and in the missing source summary.
			logger.Error("source failed", logger.Fields{"source": src.Name}, err)
			continue
		}

		sourceResults[src.Name] = res
		rawRecords = append(rawRecords, res.Records...)
		result.Sources = append(result.Sources, SourceSummary{
			Name:    src.Name,
			URL:     src.URL,
			Extract: res.Summary,
		})
		logger.Info("source scraped", logger.Fields{
			"source":         src.Name,
			"tables_found":   res.Summary.TablesFound,
			"tables_matched": res.Summary.TablesMatched,
			"rows":           res.Summary.RowsExtracted,
		})
	}
	done()

	if len(sourceResults) == 0 {
		return fmt.Errorf("all %d sources failed", len(cfg.Sources))
	}

	done = logger.StartStage("clean")
	records, cleanSummary := evac.Clean(rawRecords)
	result.Clean = cleanSummary
	if cleanSummary.DuplicateEventIDs > 0 {
		logger.Warn("duplicate event ids", logger.Fields{
			"count": cleanSummary.DuplicateEventIDs,
		})
	}
	done()

	done = logger.StartStage("census")
	ref, censusSummary, err := census.Load(cfg.Census.Source)
	if err != nil {
		return fmt.Errorf("loading census reference: %w", err)
	}
	logger.Info("census reference loaded", logger.Fields{
		"source":       censusSummary.Source,
		"subdivisions": censusSummary.Subdivisions,
		"fallback":     censusSummary.UsedFallback,
	})
	done()

	done = logger.StartStage("match")
	authorities := evac.DistinctAuthorities(records)
	results := match.Authorities(authorities, ref, cfg.Match.Cutoff)

	var places *census.Reference
	if cfg.Match.DesignatedPlaces {
		var gnbcSummary census.GNBCSummary
		places, gnbcSummary = census.LoadDesignatedPlaces(&http.Client{Timeout: scraper.Timeout})
		upgraded := match.DesignatedPlaces(results, places)
		logger.Info("designated places pass", logger.Fields{
			"places":   gnbcSummary.Places,
			"fallback": gnbcSummary.UsedFallback,
			"upgraded": upgraded,
		})
	}
	done()

	done = logger.StartStage("enrich")
	enriched, enrichSummary := enrich.Enrich(records, results, ref, places)
	result.Enrichment = enrichSummary

	report := match.NewReport(results)
	report.SetEnrichment(enrichSummary.Enriched, enrichSummary.TotalRecords)
	result.Match = report
	done()

	done = logger.StartStage("export")
	if err := writeArtifacts(cfg.OutDir, enriched, results, report, sourceResults); err != nil {
		return err
	}
	result.OutDir = cfg.OutDir
	done()

	// Diff each source against its previous snapshot, then save the new one.
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	for _, src := range cfg.Sources {
		if _, ok := sourceResults[src.Name]; !ok {
			continue
		}

		previous, err := store.LoadSnapshot(src.Name)
		if err != nil {
			// A corrupt snapshot means every current record reads as new;
			// the next save replaces it.
			logger.Warn("snapshot unreadable, treating as empty", logger.Fields{
				"source": src.Name, "error": err.Error(),
			})
			previous = evac.NewSnapshot()
		}

		current := recordsForSource(records, src.Name)
		diff := evac.Diff(previous, current)
		result.NewRecords = append(result.NewRecords, diff.NewRecords...)

		for i := range result.Sources {
			if result.Sources[i].Name == src.Name {
				result.Sources[i].NewRecords = len(diff.NewRecords)
			}
		}

		if err := store.CreateSnapshotFromRecords(current, src.Name); err != nil {
			return fmt.Errorf("saving snapshot for %s: %w", src.Name, err)
		}
	}

	if err := WriteOutput(os.Stdout, result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if len(result.NewRecords) > 0 {
		os.Exit(ExitNewRecords)
	}
	os.Exit(ExitSuccess)
	return nil
}

// applyFlags layers explicitly-set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if flagCensus != "" {
		cfg.Census.Source = flagCensus
	}
	if cmd.Flags().Changed("cutoff") {
		cfg.Match.Cutoff = flagCutoff
	}
	if flagOutDir != "" {
		cfg.OutDir = flagOutDir
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if cmd.Flags().Changed("designated-places") {
		cfg.Match.DesignatedPlaces = flagDesignatedPlaces
	}
}

// parseFile replays a saved HTML page through the extraction pipeline.
func parseFile(path string, src config.Source, runID string) (*scraper.SourceResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return scraper.ParseSource(f, src.Name, src.URL, runID, time.Now().UTC())
}

func writeArtifacts(outDir string, enriched []*enrich.Record, results map[string]*match.Result, report *match.Report, sources map[string]*scraper.SourceResult) error {
	writer, err := export.NewWriter(outDir)
	if err != nil {
		return err
	}

	if err := writer.WriteEnrichedRecords(enriched); err != nil {
		return err
	}
	if err := writer.WriteAuthorityMapping(results); err != nil {
		return err
	}
	if err := writer.WriteUnmatched(report.Unmatched); err != nil {
		return err
	}
	if err := writer.WriteLowConfidence(report.LowConfidence); err != nil {
		return err
	}
	if err := writer.WriteMatchReport(report); err != nil {
		return err
	}
	for name, res := range sources {
		if err := writer.WriteRawText(name, res.RawText); err != nil {
			return err
		}
	}
	return nil
}

func recordsForSource(records []*evac.Record, source string) []*evac.Record {
	out := make([]*evac.Record, 0, len(records))
	for _, rec := range records {
		if rec.SourceName == source {
			out = append(out, rec)
		}
	}
	return out
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
