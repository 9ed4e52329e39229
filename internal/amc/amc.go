// Package amc scrapes the fund-house profile pages and the quarterly
// average AUM table.
package amc

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seenimoa/mfkit/internal/constants"
	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/internal/scrape"
	"github.com/seenimoa/mfkit/pkg/models"
)

// Scraper fetches AMC profiles and average AUM.
type Scraper struct {
	http    *infra.Client
	table   *constants.Table
	workers int
	logger  zerolog.Logger
}

// New creates a scraper. workers bounds the concurrent profile requests.
func New(c *infra.Client, table *constants.Table, workers int, logger zerolog.Logger) *Scraper {
	return &Scraper{http: c, table: table, workers: workers, logger: logger}
}

// GetAllAmcProfiles fetches the profile of every AMC in the table, in table
// order.
func (s *Scraper) GetAllAmcProfiles(ctx context.Context) ([]models.AmcProfile, error) {
	ids := s.table.AMC
	return infra.FanOut(ctx, s.workers, len(ids), func(ctx context.Context, i int) (models.AmcProfile, error) {
		return s.profile(ctx, ids[i])
	})
}

// GetAmcProfile fetches one AMC profile.
func (s *Scraper) GetAmcProfile(ctx context.Context, id string) (*models.AmcProfile, error) {
	p, err := s.profile(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Scraper) profile(ctx context.Context, id string) (models.AmcProfile, error) {
	body, err := s.http.PostForm(ctx, s.table.AmcDetailsURL, url.Values{"Id": {id}}, nil)
	if err != nil {
		return models.AmcProfile{}, fmt.Errorf("amc profile %s: %w", id, err)
	}
	doc, err := scrape.NewDocument(body)
	if err != nil {
		return models.AmcProfile{}, fmt.Errorf("amc profile %s: %w", id, err)
	}
	kv, err := scrape.KeyValueParser{}.Parse(doc)
	if err != nil {
		return models.AmcProfile{}, fmt.Errorf("amc profile %s: %w", id, err)
	}

	fields := make(map[string]string, len(kv))
	for _, f := range kv {
		fields[f.Key] = f.Value
	}
	if len(fields) == 0 {
		s.logger.Warn().Str("amc", id).Msg("amc profile page has no fields")
	}
	return models.AmcProfile{AmcID: id, Fields: fields}, nil
}

// GetAverageAum fetches the fund-house-wise average AUM of a quarter,
// labelled like "July - September 2020".
func (s *Scraper) GetAverageAum(ctx context.Context, quarter string) (*models.AverageAum, error) {
	quarter = strings.TrimSpace(quarter)
	if quarter == "" {
		return nil, fmt.Errorf("%w: empty quarter label", models.ErrValueConversion)
	}

	form := url.Values{
		"AUmType":      {"F"},
		"Year_Quarter": {quarter},
	}
	body, err := s.http.PostForm(ctx, s.table.AvgAumURL, form, s.table.Headers())
	if err != nil {
		return nil, fmt.Errorf("average aum %q: %w", quarter, err)
	}
	doc, err := scrape.NewDocument(body)
	if err != nil {
		return nil, fmt.Errorf("average aum %q: %w", quarter, err)
	}
	rows, err := scrape.AumParser{}.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("average aum %q: %w", quarter, err)
	}
	s.logger.Debug().Str("quarter", quarter).Int("rows", len(rows)).Msg("average aum parsed")
	return &models.AverageAum{Quarter: quarter, Rows: rows}, nil
}
