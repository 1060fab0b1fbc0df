package evac

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Column names the provincial evacuation tables are required to carry.
// Tables missing either header are rejected during extraction.
const (
	ColumnAuthority = "Local Authority"
	ColumnDate      = "Date Evacuation Initiated"
)

// Record represents one evacuation table row plus provenance.
type Record struct {
	EventID    string            `json:"event_id"`
	Authority  string            `json:"authority"` // empty until forward-filled; may remain empty
	DateText   string            `json:"date_text"`
	Date       time.Time         `json:"date,omitempty"` // zero when DateText is unparseable
	Columns    map[string]string `json:"columns"`        // all table columns, verbatim
	SourceName string            `json:"source_name"`
	SourceURL  string            `json:"source_url"`
	RunID      string            `json:"run_id"`
	ScrapedAt  time.Time         `json:"scraped_at"`
}

// NewRecord builds a Record from a reconstructed table row. The authority
// and date cells are lifted out of the column map for convenience; the map
// keeps every column verbatim for passthrough export.
func NewRecord(columns map[string]string, sourceName, sourceURL, runID string, scrapedAt time.Time) *Record {
	return &Record{
		Authority:  strings.TrimSpace(columns[ColumnAuthority]),
		DateText:   strings.TrimSpace(columns[ColumnDate]),
		Columns:    columns,
		SourceName: sourceName,
		SourceURL:  sourceURL,
		RunID:      runID,
		ScrapedAt:  scrapedAt,
	}
}

// DeriveEventID builds the stable per-event identifier
// {source}_{authority}_{yyyymmdd}, lowercased, with spaces in the authority
// replaced by underscores and "unknown" standing in for missing components.
// Duplicate ids are possible and are surfaced by Clean, never deduplicated.
func DeriveEventID(sourceName, authority string, date time.Time) string {
	source := sourceName
	if source == "" {
		source = "unknown"
	}

	auth := "unknown"
	if authority != "" {
		auth = strings.ReplaceAll(authority, " ", "_")
	}

	day := "unknown"
	if !date.IsZero() {
		day = date.Format("20060102")
	}

	return strings.ToLower(source + "_" + auth + "_" + day)
}

// SnapshotKey returns a deterministic SHA1 key for run-over-run diffing.
// It hashes the raw row content rather than the event id so that rows with
// duplicate event ids are still tracked individually.
func (r *Record) SnapshotKey() string {
	parts := make([]string, 0, len(r.Columns)+1)
	parts = append(parts, r.SourceName)
	for _, name := range sortedColumnNames(r.Columns) {
		parts = append(parts, name+"="+r.Columns[name])
	}

	h := sha1.New()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))
}
