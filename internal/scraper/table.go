package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Cell is one <td>/<th> with its span attributes. Spans default to 1 when
// the attribute is absent or malformed.
type Cell struct {
	Text    string
	ColSpan int
	RowSpan int
}

// Table is a raw HTML table: a header row followed by data rows of cells.
type Table struct {
	Headers []string
	Rows    [][]Cell
}

// parseTables extracts every table on the page into the raw Table model.
// The first row of each table is treated as its header row.
func parseTables(doc *goquery.Document) []Table {
	tables := make([]Table, 0)

	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		rows := tbl.Find("tr")
		if rows.Length() == 0 {
			return
		}

		var table Table
		rows.Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
					table.Headers = append(table.Headers, cleanText(cell.Text()))
				})
				return
			}

			cells := make([]Cell, 0)
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, Cell{
					Text:    cleanText(td.Text()),
					ColSpan: spanAttr(td, "colspan"),
					RowSpan: spanAttr(td, "rowspan"),
				})
			})
			table.Rows = append(table.Rows, cells)
		})

		tables = append(tables, table)
	})

	return tables
}

// spanAttr reads a span attribute, defaulting to 1.
func spanAttr(sel *goquery.Selection, name string) int {
	val, ok := sel.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// cleanText trims a cell's text and collapses internal whitespace runs,
// matching how browsers render the source tables.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
