package scraper

import (
	"time"

	"github.com/prairiefire/wildfire-evacs/internal/evac"
)

// spanState tracks a merged cell that still owes its value to rows below.
type spanState struct {
	value    string
	rowsLeft int
}

// Provenance is stamped onto every record a table contributes.
type Provenance struct {
	SourceName string
	SourceURL  string
	RunID      string
	ScrapedAt  time.Time
}

// Reconstruct turns a raw table into logical records, propagating merged
// cells. It returns nil and false when the header row does not contain
// every required header (a schema mismatch, not an error: the table is
// simply skipped).
//
// Rowspan bookkeeping: a cell spanning c columns and r rows registers its
// pending value only on the leftmost of the c columns, matching the layout
// of the source tables, where wide cells never also span rows in the
// trailing columns.
func Reconstruct(table Table, required []string, prov Provenance) ([]*evac.Record, bool) {
	if !hasHeaders(table.Headers, required) {
		return nil, false
	}

	records := make([]*evac.Record, 0, len(table.Rows))
	active := make(map[int]*spanState)

	for _, cells := range table.Rows {
		// Rows with no cells are skipped entirely: no record, and no
		// span consumption.
		if len(cells) == 0 {
			continue
		}

		values := make([]string, 0, len(table.Headers))
		col := 0

		// Consume leading contiguous span-covered columns before this
		// row's own cells.
		for {
			state, ok := active[col]
			if !ok {
				break
			}
			values = append(values, state.value)
			state.rowsLeft--
			if state.rowsLeft == 0 {
				delete(active, col)
			}
			col++
		}

		for _, cell := range cells {
			for i := 0; i < cell.ColSpan; i++ {
				values = append(values, cell.Text)
				if cell.RowSpan > 1 && i == 0 {
					active[col] = &spanState{value: cell.Text, rowsLeft: cell.RowSpan - 1}
				}
				col++
			}
		}

		// Square the row off against the header count.
		for len(values) < len(table.Headers) {
			values = append(values, "")
		}
		values = values[:len(table.Headers)]

		columns := make(map[string]string, len(table.Headers))
		for i, name := range table.Headers {
			columns[name] = values[i]
		}

		records = append(records, evac.NewRecord(columns, prov.SourceName, prov.SourceURL, prov.RunID, prov.ScrapedAt))
	}

	return records, true
}

// hasHeaders reports whether every required header appears in the table's
// header row.
func hasHeaders(headers, required []string) bool {
	for _, want := range required {
		found := false
		for _, h := range headers {
			if h == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
