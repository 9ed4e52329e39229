package scheme

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/pkg/models"
)

const schemeJSON = `{
  "meta": {
    "fund_house": "Aditya Birla Sun Life Mutual Fund",
    "scheme_type": "Open Ended Schemes",
    "scheme_category": "Debt Scheme - Banking and PSU Fund",
    "scheme_code": 119551,
    "scheme_name": "Aditya Birla Sun Life Banking & PSU Debt Fund - DIRECT - IDCW"
  },
  "data": [
    {"date": "16-10-2026", "nav": "105.00000"},
    {"date": "15-10-2026", "nav": "100.00000"},
    {"date": "31-12-2025", "nav": "99.50000"},
    {"date": "not-a-date", "nav": "98.00000"},
    {"date": "01-01-2025", "nav": "95.25000"},
    {"date": "02-01-2013", "nav": "10.00000"}
  ],
  "status": "SUCCESS"
}`

type codeSet map[string]bool

func (c codeSet) IsValidCode(code string) bool { return c[code] }

type stubQuotes struct {
	quote *models.SchemeQuote
	err   error
	calls atomic.Int32
}

func (s *stubQuotes) Quote(_ context.Context, code string) (*models.SchemeQuote, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	q := *s.quote
	q.SchemeCode = code
	return &q, nil
}

type fixture struct {
	fetcher *Fetcher
	quotes  *stubQuotes
	hits    *atomic.Int32
}

func newFixture(t *testing.T, body string) fixture {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		code := strings.TrimPrefix(r.URL.Path, "/mf/")
		if code == "404404" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := infra.NewClient(infra.WithRateLimit(0))
	require.NoError(t, err)

	quotes := &stubQuotes{quote: &models.SchemeQuote{SchemeName: "Fund", NAV: "12.3456", LastUpdated: "16-Oct-2026"}}
	codes := codeSet{"119551": true, "404404": true, "120000": true}
	return fixture{
		fetcher: NewFetcher(c, srv.URL+"/mf/", codes, quotes, zerolog.Nop()),
		quotes:  quotes,
		hits:    hits,
	}
}

func TestGetDetail(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	det, err := fx.fetcher.GetDetail(context.Background(), "119551")
	require.NoError(t, err)
	assert.Equal(t, "Aditya Birla Sun Life Mutual Fund", det.FundHouse)
	assert.Equal(t, "Open Ended Schemes", det.SchemeType)
	assert.Equal(t, "Debt Scheme - Banking and PSU Fund", det.SchemeCategory)
	assert.Equal(t, "119551", det.SchemeCode)
	require.NotNil(t, det.SchemeStartDate)
	assert.Equal(t, models.NavRecord{Date: "02-01-2013", NAV: "10.00000"}, *det.SchemeStartDate)
}

func TestGetHistory(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	h, err := fx.fetcher.GetHistory(context.Background(), "119551")
	require.NoError(t, err)
	assert.True(t, h.Found)
	require.Len(t, h.Data, 6)
	// Provider order is kept.
	assert.Equal(t, "16-10-2026", h.Data[0].Date)
	assert.Equal(t, "02-01-2013", h.Data[5].Date)
	assert.Equal(t, "119551", h.SchemeCode)
}

func TestGetHistoryEmptySeries(t *testing.T) {
	fx := newFixture(t, `{"meta": {"scheme_code": "120000", "scheme_name": "New Fund"}, "data": []}`)

	h, err := fx.fetcher.GetHistory(context.Background(), "120000")
	require.NoError(t, err)
	assert.False(t, h.Found)
	assert.NotNil(t, h.Data)
	assert.Empty(t, h.Data)
	assert.Nil(t, h.SchemeStartDate)
	assert.Equal(t, "120000", h.SchemeCode)
}

func TestGetHistoryForYear(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	h, err := fx.fetcher.GetHistoryForYear(context.Background(), "119551", 2025)
	require.NoError(t, err)
	assert.True(t, h.Found)
	assert.Equal(t, []models.NavRecord{
		{Date: "31-12-2025", NAV: "99.50000"},
		{Date: "01-01-2025", NAV: "95.25000"},
	}, h.Data)
	// Metadata is carried over.
	assert.Equal(t, "Aditya Birla Sun Life Mutual Fund", h.FundHouse)

	h, err = fx.fetcher.GetHistoryForYear(context.Background(), "119551", 1999)
	require.NoError(t, err)
	assert.False(t, h.Found)
	assert.Empty(t, h.Data)
}

func TestGetHistoryForRange(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	h, err := fx.fetcher.GetHistoryForRange(context.Background(), "119551", "31-12-2025", "15-10-2026")
	require.NoError(t, err)
	// Both bounds are inclusive.
	assert.Equal(t, []models.NavRecord{
		{Date: "15-10-2026", NAV: "100.00000"},
		{Date: "31-12-2025", NAV: "99.50000"},
	}, h.Data)

	h, err = fx.fetcher.GetHistoryForRange(context.Background(), "119551", "01-01-2000", "31-12-2000")
	require.NoError(t, err)
	assert.False(t, h.Found)
	assert.Empty(t, h.Data)
}

func TestGetHistoryForRangeBadDates(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	for _, args := range [][2]string{
		{"2025-01-01", "31-12-2025"},
		{"01-01-2025", "yesterday"},
		{"", ""},
	} {
		_, err := fx.fetcher.GetHistoryForRange(context.Background(), "119551", args[0], args[1])
		assert.True(t, errors.Is(err, models.ErrValueConversion), "args %v: %v", args, err)
	}
	assert.Equal(t, int32(0), fx.hits.Load())
}

func TestInvalidCodeShortCircuits(t *testing.T) {
	fx := newFixture(t, schemeJSON)
	ctx := context.Background()

	_, err := fx.fetcher.GetQuote(ctx, "000000")
	assert.True(t, errors.Is(err, models.ErrInvalidCode))
	_, err = fx.fetcher.GetDetail(ctx, "000000")
	assert.True(t, errors.Is(err, models.ErrInvalidCode))
	_, err = fx.fetcher.GetHistory(ctx, "000000")
	assert.True(t, errors.Is(err, models.ErrInvalidCode))
	_, err = fx.fetcher.GetHistoryForYear(ctx, "000000", 2025)
	assert.True(t, errors.Is(err, models.ErrInvalidCode))
	_, err = fx.fetcher.GetHistoryForRange(ctx, "000000", "bad", "bad")
	assert.True(t, errors.Is(err, models.ErrInvalidCode))
	_, err = fx.fetcher.GetBalanceValue(ctx, "000000", "10")
	assert.True(t, errors.Is(err, models.ErrInvalidCode))
	_, err = fx.fetcher.GetOneDayChange(ctx, "")
	assert.True(t, errors.Is(err, models.ErrInvalidCode))

	assert.Equal(t, int32(0), fx.hits.Load())
	assert.Equal(t, int32(0), fx.quotes.calls.Load())
}

func TestGetQuote(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	q, err := fx.fetcher.GetQuote(context.Background(), "119551")
	require.NoError(t, err)
	assert.Equal(t, "119551", q.SchemeCode)
	assert.Empty(t, q.BalanceUnitsValue)
}

func TestGetBalanceValue(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	q, err := fx.fetcher.GetBalanceValue(context.Background(), "119551", "10")
	require.NoError(t, err)
	assert.Equal(t, "123.46", q.BalanceUnitsValue)
	assert.Equal(t, "12.3456", q.NAV)

	q, err = fx.fetcher.GetBalanceValue(context.Background(), "119551", "1,000")
	require.NoError(t, err)
	assert.Equal(t, "12345.60", q.BalanceUnitsValue)

	q, err = fx.fetcher.GetBalanceValue(context.Background(), "119551", "1,00,000")
	require.NoError(t, err)
	assert.Equal(t, "1234560.00", q.BalanceUnitsValue)

	for _, units := range []string{"ten", "10%", "₹10", "1,0,0,0", "-10"} {
		_, err = fx.fetcher.GetBalanceValue(context.Background(), "119551", units)
		assert.True(t, errors.Is(err, models.ErrValueConversion), "units %q: %v", units, err)
	}
}

func TestGetBalanceValueBadNAV(t *testing.T) {
	fx := newFixture(t, schemeJSON)
	fx.quotes.quote = &models.SchemeQuote{NAV: "N.A."}

	_, err := fx.fetcher.GetBalanceValue(context.Background(), "119551", "10")
	assert.True(t, errors.Is(err, models.ErrValueConversion))
}

func TestGetBalanceValueQuoteMissing(t *testing.T) {
	fx := newFixture(t, schemeJSON)
	fx.quotes.err = models.ErrNotFound

	_, err := fx.fetcher.GetBalanceValue(context.Background(), "119551", "10")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestGetOneDayChange(t *testing.T) {
	fx := newFixture(t, schemeJSON)

	d, err := fx.fetcher.GetOneDayChange(context.Background(), "119551")
	require.NoError(t, err)
	assert.Equal(t, "5", d.String())
}

func TestUpstreamErrors(t *testing.T) {
	fx := newFixture(t, "{broken")

	_, err := fx.fetcher.GetHistory(context.Background(), "119551")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode scheme 119551")

	_, err = fx.fetcher.GetDetail(context.Background(), "404404")
	var httpErr *infra.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}
