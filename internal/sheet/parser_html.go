package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML extracts the first table from a Google Sheets "publish to web"
// page (.../pubhtml). The first table row is the header. Sheets prepends a
// row-number column to published tables; it is dropped when present.
func ParseHTML(r io.Reader) (*RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("malformed HTML payload: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table in HTML payload")
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}

	if hasRowNumberColumn(rows) {
		for i := range rows {
			rows[i] = rows[i][1:]
		}
	}

	return &RawTable{Header: rows[0], Rows: rows[1:]}, nil
}

// Published sheets render a gutter column whose header cell is empty and
// whose data cells count 1, 2, 3...
func hasRowNumberColumn(rows [][]string) bool {
	if len(rows) < 2 || len(rows[0]) == 0 {
		return false
	}
	if rows[0][0] != "" {
		return false
	}
	for i, row := range rows[1:] {
		if len(row) == 0 || row[0] != fmt.Sprintf("%d", i+1) {
			return false
		}
	}
	return true
}
