// Package performance scrapes the daily fund performance reports, one page
// per sub-category of a category group.
package performance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/mfkit/internal/constants"
	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/internal/scrape"
	"github.com/seenimoa/mfkit/pkg/models"
	"github.com/seenimoa/mfkit/pkg/utils"
)

// DefaultTimeout is the per-page timeout for report requests.
const DefaultTimeout = 15 * time.Second

// Scraper fetches performance reports.
type Scraper struct {
	http    *infra.Client
	table   *constants.Table
	parser  scrape.TableParser[models.PerformanceRow]
	workers int
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithWorkers bounds the number of pages fetched at once.
func WithWorkers(n int) Option {
	return func(s *Scraper) { s.workers = n }
}

// WithTimeout sets the per-page timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.timeout = d }
}

// WithClock overrides the clock used to pick the report date.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// WithParser replaces the table parser.
func WithParser(p scrape.TableParser[models.PerformanceRow]) Option {
	return func(s *Scraper) { s.parser = p }
}

// WithLogger sets the scraper logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// New creates a scraper over the report URLs of table.
func New(c *infra.Client, table *constants.Table, opts ...Option) *Scraper {
	s := &Scraper{
		http:    c,
		table:   table,
		parser:  scrape.PerformanceParser{},
		workers: infra.DefaultWorkers,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ReportDate returns the report date used for a request made now.
func (s *Scraper) ReportDate() string {
	return utils.FormatReportDate(utils.ReportDate(s.now()))
}

// GetCategoryPerformance fetches every sub-category of group, in table order.
// A transport failure on any page fails the call.
func (s *Scraper) GetCategoryPerformance(ctx context.Context, group string) ([]models.CategoryPerformance, error) {
	g, err := s.table.Group(group)
	if err != nil {
		return nil, err
	}
	date := s.ReportDate()

	return infra.FanOut(ctx, s.workers, len(g.Categories), func(ctx context.Context, i int) (models.CategoryPerformance, error) {
		return s.fetch(ctx, g, g.Categories[i], date)
	})
}

// GetSubCategoryPerformance fetches one sub-category, by name or code.
func (s *Scraper) GetSubCategoryPerformance(ctx context.Context, group, category string) (*models.CategoryPerformance, error) {
	g, err := s.table.Group(group)
	if err != nil {
		return nil, err
	}
	c, ok := g.Category(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no category %q", models.ErrUnknownCategory, g.Name, category)
	}
	perf, err := s.fetch(ctx, g, c, s.ReportDate())
	if err != nil {
		return nil, err
	}
	return &perf, nil
}

// Equity fetches the open-ended equity reports.
func (s *Scraper) Equity(ctx context.Context) ([]models.CategoryPerformance, error) {
	return s.GetCategoryPerformance(ctx, "equity")
}

// Debt fetches the open-ended debt reports.
func (s *Scraper) Debt(ctx context.Context) ([]models.CategoryPerformance, error) {
	return s.GetCategoryPerformance(ctx, "debt")
}

// Hybrid fetches the open-ended hybrid reports.
func (s *Scraper) Hybrid(ctx context.Context) ([]models.CategoryPerformance, error) {
	return s.GetCategoryPerformance(ctx, "hybrid")
}

// Solution fetches the solution-oriented reports.
func (s *Scraper) Solution(ctx context.Context) ([]models.CategoryPerformance, error) {
	return s.GetCategoryPerformance(ctx, "solution")
}

// Other fetches the index, ETF and fund-of-funds reports.
func (s *Scraper) Other(ctx context.Context) ([]models.CategoryPerformance, error) {
	return s.GetCategoryPerformance(ctx, "other")
}

func (s *Scraper) fetch(ctx context.Context, g constants.Group, c constants.Category, date string) (models.CategoryPerformance, error) {
	perf := models.CategoryPerformance{
		Group:        g.Name,
		Category:     c.Name,
		CategoryCode: c.Code,
		ReportDate:   date,
		Rows:         []models.PerformanceRow{},
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url := s.table.PerformanceReportURL(g, c, date)
	body, err := s.http.Get(ctx, url, s.table.Headers())
	if err != nil {
		return perf, fmt.Errorf("performance %s/%s: %w", g.Name, c.Code, err)
	}

	log := s.logger.With().Str("group", g.Name).Str("category", c.Code).Str("date", date).Logger()

	doc, err := scrape.NewDocument(body)
	if err != nil {
		log.Warn().Err(err).Msg("performance page unreadable")
		return perf, nil
	}
	rows, err := s.parser.Parse(doc)
	switch {
	case errors.Is(err, scrape.ErrTableShape):
		log.Warn().Err(err).Msg("performance table layout changed")
		return perf, nil
	case err != nil:
		return perf, fmt.Errorf("performance %s/%s: %w", g.Name, c.Code, err)
	case len(rows) == 0:
		log.Warn().Msg("performance report not published")
		return perf, nil
	}

	perf.Available = true
	perf.Rows = rows
	return perf, nil
}
