package evac

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. The Manitoba page mostly uses long-form
// dates ("May 28, 2025") but older table revisions carried ISO and slash
// forms as well.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2 January 2006",
}

// ParseDate attempts to parse a raw evacuation date cell.
// Returns time.Time{} (zero value) if parsing fails; unparseable dates are
// a counted quality signal, never an error.
func ParseDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}

	return time.Time{}
}
