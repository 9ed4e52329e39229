// Package scheme fetches scheme metadata and NAV series from the scheme
// document API and derives year/range windows, balance values and one-day
// changes from them.
package scheme

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/pkg/models"
	"github.com/seenimoa/mfkit/pkg/utils"
)

// Validator answers code validity against the registry snapshot.
type Validator interface {
	IsValidCode(code string) bool
}

// QuoteSource returns the latest feed quote for a code.
type QuoteSource interface {
	Quote(ctx context.Context, code string) (*models.SchemeQuote, error)
}

// Fetcher serves all scheme-scoped operations. Every operation checks the
// code against the registry before any network I/O.
type Fetcher struct {
	http    *infra.Client
	baseURL string
	codes   Validator
	quotes  QuoteSource
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher for the scheme document API at baseURL (the
// code is appended).
func NewFetcher(c *infra.Client, baseURL string, codes Validator, quotes QuoteSource, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		http:    c,
		baseURL: baseURL,
		codes:   codes,
		quotes:  quotes,
		logger:  logger,
	}
}

// flexString accepts both JSON strings and numbers; the API sends
// scheme_code as a number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type schemeDocument struct {
	Meta struct {
		FundHouse      string     `json:"fund_house"`
		SchemeType     string     `json:"scheme_type"`
		SchemeCategory string     `json:"scheme_category"`
		SchemeCode     flexString `json:"scheme_code"`
		SchemeName     string     `json:"scheme_name"`
	} `json:"meta"`
	Data []models.NavRecord `json:"data"`
}

func (d *schemeDocument) detail() models.SchemeDetail {
	det := models.SchemeDetail{
		FundHouse:      d.Meta.FundHouse,
		SchemeType:     d.Meta.SchemeType,
		SchemeCategory: d.Meta.SchemeCategory,
		SchemeCode:     string(d.Meta.SchemeCode),
		SchemeName:     d.Meta.SchemeName,
	}
	if n := len(d.Data); n > 0 {
		start := d.Data[n-1]
		det.SchemeStartDate = &start
	}
	return det
}

func (f *Fetcher) validate(code string) error {
	if !f.codes.IsValidCode(code) {
		return fmt.Errorf("%w: %q", models.ErrInvalidCode, code)
	}
	return nil
}

// fetchDocument downloads and decodes the scheme document of a valid code.
func (f *Fetcher) fetchDocument(ctx context.Context, code string) (*schemeDocument, error) {
	if err := f.validate(code); err != nil {
		return nil, err
	}
	body, err := f.http.Get(ctx, f.baseURL+code, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch scheme %s: %w", code, err)
	}
	var doc schemeDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode scheme %s: %w", code, err)
	}
	return &doc, nil
}

// GetQuote returns the latest feed quote of code.
func (f *Fetcher) GetQuote(ctx context.Context, code string) (*models.SchemeQuote, error) {
	if err := f.validate(code); err != nil {
		return nil, err
	}
	return f.quotes.Quote(ctx, code)
}

// GetDetail returns the scheme metadata and its oldest NAV record.
func (f *Fetcher) GetDetail(ctx context.Context, code string) (*models.SchemeDetail, error) {
	doc, err := f.fetchDocument(ctx, code)
	if err != nil {
		return nil, err
	}
	det := doc.detail()
	return &det, nil
}

// GetHistory returns the metadata and the full NAV series, newest first.
func (f *Fetcher) GetHistory(ctx context.Context, code string) (*models.SchemeHistory, error) {
	doc, err := f.fetchDocument(ctx, code)
	if err != nil {
		return nil, err
	}
	h := models.SchemeHistory{SchemeDetail: doc.detail()}.WithData(doc.Data)
	if !h.Found {
		f.logger.Warn().Str("code", code).Msg("scheme has no NAV records")
	}
	return &h, nil
}

// GetHistoryForYear returns the history restricted to records of year.
func (f *Fetcher) GetHistoryForYear(ctx context.Context, code string, year int) (*models.SchemeHistory, error) {
	h, err := f.GetHistory(ctx, code)
	if err != nil {
		return nil, err
	}
	out := h.WithData(FilterByYear(h.Data, year))
	return &out, nil
}

// GetHistoryForRange returns the history restricted to records between
// start and end inclusive, both DD-MM-YYYY.
func (f *Fetcher) GetHistoryForRange(ctx context.Context, code, start, end string) (*models.SchemeHistory, error) {
	if err := f.validate(code); err != nil {
		return nil, err
	}
	from, to, err := ParseRange(start, end)
	if err != nil {
		return nil, err
	}
	h, err := f.GetHistory(ctx, code)
	if err != nil {
		return nil, err
	}
	out := h.WithData(FilterByRange(h.Data, from, to))
	return &out, nil
}

// GetBalanceValue returns the latest quote with the market value of units
// set in BalanceUnitsValue.
func (f *Fetcher) GetBalanceValue(ctx context.Context, code, units string) (*models.SchemeQuote, error) {
	if err := f.validate(code); err != nil {
		return nil, err
	}
	u, err := utils.ParseUnits(units)
	if err != nil {
		return nil, fmt.Errorf("%w: units %q", models.ErrValueConversion, units)
	}
	q, err := f.quotes.Quote(ctx, code)
	if err != nil {
		return nil, err
	}
	nav, err := q.NAVValue()
	if err != nil {
		return nil, err
	}
	q.BalanceUnitsValue = BalanceValue(nav, u)
	return q, nil
}

// GetOneDayChange returns the difference between the two newest NAVs,
// rounded to four places.
func (f *Fetcher) GetOneDayChange(ctx context.Context, code string) (decimal.Decimal, error) {
	h, err := f.GetHistory(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return OneDayChange(h.Data)
}

// ParseRange parses a DD-MM-YYYY date pair.
func ParseRange(start, end string) (from, to time.Time, err error) {
	from, err = utils.ParseNavDate(strings.TrimSpace(start))
	if err != nil {
		return from, to, fmt.Errorf("%w: start date %q (want DD-MM-YYYY)", models.ErrValueConversion, start)
	}
	to, err = utils.ParseNavDate(strings.TrimSpace(end))
	if err != nil {
		return from, to, fmt.Errorf("%w: end date %q (want DD-MM-YYYY)", models.ErrValueConversion, end)
	}
	return from, to, nil
}
