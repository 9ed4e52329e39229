// Package scrape holds the HTML table contract shared by the report
// scrapers: a document loader and row parsers for the performance, AMC
// profile and average AUM tables.
package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RowSelector selects the data rows of every report table.
const RowSelector = "table tbody tr"

// ErrTableShape is returned when a table does not have the expected cells or
// attributes.
var ErrTableShape = errors.New("unexpected table shape")

// TableParser turns a report page into typed rows.
type TableParser[T any] interface {
	Parse(doc *goquery.Document) ([]T, error)
}

// NewDocument parses an HTML body.
func NewDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Rows returns the table body rows of doc.
func Rows(doc *goquery.Document) *goquery.Selection {
	return doc.Find(RowSelector)
}

// CellText returns the trimmed text of the i-th descendant td of row.
func CellText(row *goquery.Selection, i int) (string, bool) {
	cells := row.Find("td")
	if i >= cells.Length() {
		return "", false
	}
	return strings.TrimSpace(cells.Eq(i).Text()), true
}

// KeyValue is one row of a two-column field/value table.
type KeyValue struct {
	Key   string
	Value string
}

// KeyValueParser reads rows with at least two cells as key/value pairs.
// Shorter rows are skipped.
type KeyValueParser struct{}

// Parse implements TableParser.
func (KeyValueParser) Parse(doc *goquery.Document) ([]KeyValue, error) {
	var out []KeyValue
	Rows(doc).Each(func(_ int, row *goquery.Selection) {
		if row.Find("td").Length() < 2 {
			return
		}
		key, _ := CellText(row, 0)
		val, _ := CellText(row, 1)
		out = append(out, KeyValue{Key: key, Value: val})
	})
	return out, nil
}
