package evac

import (
	"sort"
	"strings"
)

// nonGeographicLabels mark section-header rows ("Evacuation Lifted" etc.)
// that the source tables interleave with real community rows. Compared
// case-insensitively against the authority column.
var nonGeographicLabels = map[string]struct{}{
	"evacuation lifted": {},
	"reopened":          {},
	"closed":            {},
	"evacuation order":  {},
	"evacuation alert":  {},
}

// CleanSummary reports what the cleaning pass did. It is returned alongside
// the cleaned records; nothing here halts the pipeline.
type CleanSummary struct {
	InputRecords       int `json:"input_records"`
	SectionRowsDropped int `json:"section_rows_dropped"`
	AuthoritiesFilled  int `json:"authorities_filled"`
	DatesParsed        int `json:"dates_parsed"`
	DatesFailed        int `json:"dates_failed"`
	UniqueEventIDs     int `json:"unique_event_ids"`
	DuplicateEventIDs  int `json:"duplicate_event_ids"`
}

// Clean runs the cleaning pass over extracted records in original order:
// drop section-header rows, parse dates, forward-fill missing authorities
// for date-bearing rows, and derive event ids. Records are mutated in place
// and returned with a summary of quality signals.
func Clean(records []*Record) ([]*Record, CleanSummary) {
	summary := CleanSummary{InputRecords: len(records)}

	cleaned := make([]*Record, 0, len(records))
	for _, rec := range records {
		if isSectionRow(rec.Authority) {
			summary.SectionRowsDropped++
			continue
		}
		cleaned = append(cleaned, rec)
	}

	// Parse dates before forward-filling: the fill is gated on a valid
	// parsed date so an authority name never propagates across an
	// undated section boundary.
	for _, rec := range cleaned {
		rec.Date = ParseDate(rec.DateText)
		if rec.Date.IsZero() {
			summary.DatesFailed++
		} else {
			summary.DatesParsed++
		}
	}

	lastAuthority := ""
	for _, rec := range cleaned {
		if rec.Authority != "" {
			lastAuthority = rec.Authority
			continue
		}
		if rec.Date.IsZero() || lastAuthority == "" {
			continue // retained with empty authority, excluded from matching
		}
		rec.Authority = lastAuthority
		rec.Columns[ColumnAuthority] = lastAuthority
		summary.AuthoritiesFilled++
	}

	seen := make(map[string]int)
	for _, rec := range cleaned {
		rec.EventID = DeriveEventID(rec.SourceName, rec.Authority, rec.Date)
		seen[rec.EventID]++
	}
	summary.UniqueEventIDs = len(seen)
	summary.DuplicateEventIDs = len(cleaned) - len(seen)

	return cleaned, summary
}

// isSectionRow reports whether an authority cell holds a section header
// rather than a community name.
func isSectionRow(authority string) bool {
	_, ok := nonGeographicLabels[strings.ToLower(strings.TrimSpace(authority))]
	return ok
}

// DistinctAuthorities returns the distinct non-empty authority names in
// first-appearance order. Matching operates on this list rather than on
// every record.
func DistinctAuthorities(records []*Record) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, rec := range records {
		if rec.Authority == "" {
			continue
		}
		if _, ok := seen[rec.Authority]; ok {
			continue
		}
		seen[rec.Authority] = struct{}{}
		names = append(names, rec.Authority)
	}
	return names
}

// sortedColumnNames returns a record's column names in stable order.
func sortedColumnNames(columns map[string]string) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
