package registry

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/pkg/models"
)

// isinMarker identifies scheme lines in the NAV feed; header, category and
// fund-house lines never carry an ISIN.
const isinMarker = ";INF"

// FeedRecord is one scheme line of the daily NAV feed:
//
//	Scheme Code;ISIN Payout/Growth;ISIN Reinvestment;Scheme Name;Net Asset Value;Date
type FeedRecord struct {
	Code         string
	ISINGrowth   string
	ISINReinvest string
	Name         string
	NAV          string
	Date         string
}

// Quote converts the record to a SchemeQuote.
func (r FeedRecord) Quote() *models.SchemeQuote {
	return &models.SchemeQuote{
		SchemeCode:  r.Code,
		SchemeName:  r.Name,
		NAV:         r.NAV,
		LastUpdated: r.Date,
	}
}

// ParseFeed extracts the scheme lines of a NAV feed in feed order. Lines
// with fewer than four fields are skipped; NAV and date are empty when the
// line stops before them.
func ParseFeed(r io.Reader) ([]FeedRecord, error) {
	var out []FeedRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, isinMarker) {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 4 {
			continue
		}
		rec := FeedRecord{
			Code:         fields[0],
			ISINGrowth:   fields[1],
			ISINReinvest: fields[2],
			Name:         fields[3],
		}
		if len(fields) > 4 {
			rec.NAV = fields[4]
		}
		if len(fields) > 5 {
			rec.Date = strings.TrimRight(fields[5], "\r")
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read nav feed: %w", err)
	}
	return out, nil
}

// Feed reads the daily NAV feed.
type Feed struct {
	http   *infra.Client
	url    string
	logger zerolog.Logger
}

// NewFeed creates a feed reader for url.
func NewFeed(c *infra.Client, url string, logger zerolog.Logger) *Feed {
	return &Feed{http: c, url: url, logger: logger}
}

// Records downloads and parses the feed.
func (f *Feed) Records(ctx context.Context) ([]FeedRecord, error) {
	body, err := f.http.Get(ctx, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch nav feed: %w", err)
	}
	return ParseFeed(bytes.NewReader(body))
}

// FetchAllSchemes returns every scheme code in the feed mapped to its name.
func (f *Feed) FetchAllSchemes(ctx context.Context) (map[string]string, error) {
	recs, err := f.Records(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]string, len(recs))
	for _, r := range recs {
		codes[r.Code] = r.Name
	}
	f.logger.Debug().Int("schemes", len(codes)).Msg("nav feed loaded")
	return codes, nil
}

// Quote downloads the feed and returns the first record whose code equals
// code. It returns models.ErrNotFound when the feed has no such line.
func (f *Feed) Quote(ctx context.Context, code string) (*models.SchemeQuote, error) {
	recs, err := f.Records(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.Code == code {
			return r.Quote(), nil
		}
	}
	return nil, fmt.Errorf("quote %s: %w", code, models.ErrNotFound)
}
