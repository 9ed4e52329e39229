package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/pkg/models"
)

const navFeed = "Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\r\n" +
	"\r\n" +
	"Open Ended Schemes(Debt Scheme - Banking and PSU Fund)\r\n" +
	"\r\n" +
	"Aditya Birla Sun Life Mutual Fund\r\n" +
	"\r\n" +
	"119551;INF209KA12Z1;INF209KA13Z9;Aditya Birla Sun Life Banking & PSU Debt Fund - DIRECT - IDCW;105.7754;16-Oct-2026\r\n" +
	"1195510;INF209KA99Z1;-;Decoy Fund Sharing A Prefix;1.0000;16-Oct-2026\r\n" +
	"108272;INF209K01YN0;-;Aditya Birla Sun Life Banking & PSU Debt Fund - Regular - Growth;312.1234;16-Oct-2026\r\n" +
	"999;INF;short\r\n"

func newFeedServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFeed(t *testing.T, url string) *Feed {
	t.Helper()
	c, err := infra.NewClient(infra.WithRateLimit(0))
	require.NoError(t, err)
	return NewFeed(c, url, zerolog.Nop())
}

func TestParseFeed(t *testing.T) {
	recs, err := ParseFeed(strings.NewReader(navFeed))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, FeedRecord{
		Code:         "119551",
		ISINGrowth:   "INF209KA12Z1",
		ISINReinvest: "INF209KA13Z9",
		Name:         "Aditya Birla Sun Life Banking & PSU Debt Fund - DIRECT - IDCW",
		NAV:          "105.7754",
		Date:         "16-Oct-2026",
	}, recs[0])
	assert.Equal(t, "108272", recs[2].Code)
}

func TestParseFeedShortLine(t *testing.T) {
	recs, err := ParseFeed(strings.NewReader("1;INF1;x;Name Only\n2;INF2\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Name Only", recs[0].Name)
	assert.Empty(t, recs[0].NAV)
	assert.Empty(t, recs[0].Date)
}

func TestFetchAllSchemes(t *testing.T) {
	srv := newFeedServer(t, navFeed, nil)
	codes, err := newFeed(t, srv.URL).FetchAllSchemes(context.Background())
	require.NoError(t, err)

	assert.Len(t, codes, 3)
	assert.Equal(t, "Aditya Birla Sun Life Banking & PSU Debt Fund - Regular - Growth", codes["108272"])
	assert.NotContains(t, codes, "999")
}

func TestFetchAllSchemesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newFeed(t, srv.URL).FetchAllSchemes(context.Background())
	var httpErr *infra.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestQuoteExactMatch(t *testing.T) {
	srv := newFeedServer(t, navFeed, nil)
	feed := newFeed(t, srv.URL)

	q, err := feed.Quote(context.Background(), "119551")
	require.NoError(t, err)
	assert.Equal(t, &models.SchemeQuote{
		SchemeCode:  "119551",
		SchemeName:  "Aditya Birla Sun Life Banking & PSU Debt Fund - DIRECT - IDCW",
		NAV:         "105.7754",
		LastUpdated: "16-Oct-2026",
	}, q)

	// A code that is a prefix of another must not match the longer one.
	q, err = feed.Quote(context.Background(), "1195510")
	require.NoError(t, err)
	assert.Equal(t, "Decoy Fund Sharing A Prefix", q.SchemeName)

	_, err = feed.Quote(context.Background(), "11955")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

type stubSource struct {
	calls atomic.Int32
	codes []map[string]string
	err   error
}

func (s *stubSource) FetchAllSchemes(context.Context) (map[string]string, error) {
	n := int(s.calls.Add(1)) - 1
	if s.err != nil && n > 0 {
		return nil, s.err
	}
	if n >= len(s.codes) {
		n = len(s.codes) - 1
	}
	return s.codes[n], nil
}

func TestRegistrySnapshot(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	src := &stubSource{codes: []map[string]string{
		{"119551": "A", "108272": "B"},
		{"119551": "A", "120000": "C"},
	}}
	r, err := New(context.Background(), src, WithClock(func() time.Time { return at }))
	require.NoError(t, err)

	assert.True(t, r.IsValidCode("119551"))
	assert.True(t, r.IsValidCode("108272"))
	assert.False(t, r.IsValidCode("120000"))
	assert.False(t, r.IsValidCode(""))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, at, r.SnapshotAt())

	name, ok := r.Name("108272")
	assert.True(t, ok)
	assert.Equal(t, "B", name)

	// Codes returns a copy.
	c := r.Codes()
	c["bogus"] = "x"
	assert.False(t, r.IsValidCode("bogus"))

	// No implicit refresh.
	assert.Equal(t, int32(1), src.calls.Load())

	require.NoError(t, r.Refresh(context.Background()))
	assert.True(t, r.IsValidCode("120000"))
	assert.False(t, r.IsValidCode("108272"))
}

func TestRegistryRefreshKeepsSnapshotOnError(t *testing.T) {
	src := &stubSource{
		codes: []map[string]string{{"119551": "A"}},
		err:   errors.New("feed down"),
	}
	r, err := New(context.Background(), src)
	require.NoError(t, err)

	err = r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")
	assert.True(t, r.IsValidCode("119551"))
}

func TestRegistryFromFeed(t *testing.T) {
	var hits atomic.Int32
	srv := newFeedServer(t, navFeed, &hits)

	r, err := New(context.Background(), newFeed(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int32(1), hits.Load())
}
