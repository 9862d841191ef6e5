// Package extract parses the legacy export's HTML into raw row records.
package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crimson-sun/tread/internal/model"
)

// ErrNoTable means the page contained no table structure at all: the
// content is not the expected export (an error page, a redirect stub).
// A table with zero data rows is NOT this error; that's a valid empty page.
var ErrNoTable = errors.New("extract: no table found in document")

// Options controls extraction leniency.
type Options struct {
	// DropRagged skips data rows whose cell count differs from the header
	// count (merged or malformed cells). When false, short rows are zipped
	// against the header prefix and long rows are truncated.
	DropRagged bool
}

// Rows locates the first table in the HTML document and returns its data
// rows zipped positionally against the header row. Cell text is trimmed
// with internal whitespace runs collapsed; the export is rendered HTML and
// carries no meaningful formatting inside cells.
func Rows(html string, opts Options) ([]model.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	trs := table.Find("tr")
	if trs.Length() == 0 {
		return nil, ErrNoTable
	}

	headers, dataStart := headerRow(trs)
	if len(headers) == 0 {
		return nil, ErrNoTable
	}

	rows := make([]model.RawRow, 0, trs.Length()-dataStart)
	trs.Each(func(i int, tr *goquery.Selection) {
		if i < dataStart {
			return
		}
		cells := cellTexts(tr.Find("td"))
		if len(cells) == 0 {
			return
		}
		if len(cells) != len(headers) {
			if opts.DropRagged {
				return
			}
			if len(cells) > len(headers) {
				cells = cells[:len(headers)]
			}
		}
		row := make(model.RawRow, len(headers))
		for j, h := range headers {
			if j < len(cells) {
				row[h] = cells[j]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	})
	return rows, nil
}

// headerRow derives the header list from the first row carrying <th> cells,
// falling back to the first row's <td> text when the export omits <th>.
// Returns the headers and the index of the first data row.
func headerRow(trs *goquery.Selection) ([]string, int) {
	first := trs.First()
	if ths := first.Find("th"); ths.Length() > 0 {
		return cellTexts(ths), 1
	}
	return cellTexts(first.Find("td")), 1
}

func cellTexts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, condense(s.Text()))
	})
	return out
}

// condense trims and collapses internal whitespace runs to single spaces.
func condense(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
