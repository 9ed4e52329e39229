package scrape

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/mfkit/pkg/models"
)

// Return cells are direct children of the row carrying the period returns as
// data attributes.
const (
	regularReturnSelector = "td.text-right.period-return-reg"
	directReturnSelector  = "td.text-right.period-return-dir"
)

// PerformanceParser reads a daily fund performance table. Columns 0-3 are the
// scheme name, benchmark and the regular and direct NAVs; returns come from
// the data-1y, data-3y and data-5y attributes of the return cells.
type PerformanceParser struct{}

var _ TableParser[models.PerformanceRow] = PerformanceParser{}

// Parse implements TableParser. A row that does not match the layout fails
// the whole table with ErrTableShape.
func (PerformanceParser) Parse(doc *goquery.Document) ([]models.PerformanceRow, error) {
	rows := Rows(doc)
	out := make([]models.PerformanceRow, 0, rows.Length())
	var parseErr error

	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		row, err := parsePerformanceRow(tr)
		if err != nil {
			parseErr = fmt.Errorf("row %d: %w", i, err)
			return false
		}
		out = append(out, row)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}

func parsePerformanceRow(tr *goquery.Selection) (models.PerformanceRow, error) {
	var fixed [4]string
	for i := range fixed {
		text, ok := CellText(tr, i)
		if !ok {
			return models.PerformanceRow{}, fmt.Errorf("%w: missing cell %d", ErrTableShape, i)
		}
		fixed[i] = text
	}

	reg := tr.ChildrenFiltered(regularReturnSelector).First()
	dir := tr.ChildrenFiltered(directReturnSelector).First()
	if reg.Length() == 0 || dir.Length() == 0 {
		return models.PerformanceRow{}, fmt.Errorf("%w: missing return cells", ErrTableShape)
	}

	var r [3][2]string
	for p, attr := range []string{"data-1y", "data-3y", "data-5y"} {
		regVal, ok := reg.Attr(attr)
		if !ok {
			return models.PerformanceRow{}, fmt.Errorf("%w: regular cell has no %s", ErrTableShape, attr)
		}
		dirVal, ok := dir.Attr(attr)
		if !ok {
			return models.PerformanceRow{}, fmt.Errorf("%w: direct cell has no %s", ErrTableShape, attr)
		}
		r[p] = [2]string{regVal, dirVal}
	}

	return models.PerformanceRow{
		SchemeName:      fixed[0],
		Benchmark:       fixed[1],
		NAVRegular:      fixed[2],
		NAVDirect:       fixed[3],
		Return1YRegular: r[0][0],
		Return1YDirect:  r[0][1],
		Return3YRegular: r[1][0],
		Return3YDirect:  r[1][1],
		Return5YRegular: r[2][0],
		Return5YDirect:  r[2][1],
	}, nil
}

// AumParser reads the average AUM table. Cell 0 is a serial number; cells
// 1-3 are the fund house and its overseas and domestic AAUM. Rows with fewer
// than four cells (headers, totals) are skipped.
type AumParser struct{}

var _ TableParser[models.AumRow] = AumParser{}

// Parse implements TableParser.
func (AumParser) Parse(doc *goquery.Document) ([]models.AumRow, error) {
	out := []models.AumRow{}
	Rows(doc).Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() < 4 {
			return
		}
		name, _ := CellText(tr, 1)
		overseas, _ := CellText(tr, 2)
		domestic, _ := CellText(tr, 3)
		out = append(out, models.AumRow{FundName: name, AAUMOverseas: overseas, AAUMDomestic: domestic})
	})
	return out, nil
}
