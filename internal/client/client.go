// Package client is the public operation surface of mfkit. It wires the
// transport, the scheme registry and the fetchers from one configuration.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/mfkit/internal/amc"
	"github.com/seenimoa/mfkit/internal/config"
	"github.com/seenimoa/mfkit/internal/constants"
	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/internal/performance"
	"github.com/seenimoa/mfkit/internal/registry"
	"github.com/seenimoa/mfkit/internal/scheme"
	"github.com/seenimoa/mfkit/pkg/models"
)

// Re-exported error taxonomy.
var (
	ErrInvalidCode      = models.ErrInvalidCode
	ErrNotFound         = models.ErrNotFound
	ErrValueConversion  = models.ErrValueConversion
	ErrInsufficientData = models.ErrInsufficientData
	ErrUnknownGroup     = models.ErrUnknownGroup
	ErrUnknownCategory  = models.ErrUnknownCategory
)

// Client exposes every mutual-fund operation.
type Client struct {
	http        *infra.Client
	table       *constants.Table
	registry    *registry.Registry
	schemes     *scheme.Fetcher
	performance *performance.Scraper
	amc         *amc.Scraper
	logger      zerolog.Logger
}

type options struct {
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger shared by all components.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the clock used for report dates and registry stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a client and takes the first registry snapshot, which requires
// one download of the NAV feed.
func New(ctx context.Context, cfg *config.Config, table *constants.Table, opts ...Option) (*Client, error) {
	o := options{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	headers := table.Headers()
	if cfg.HTTP.UserAgent != "" {
		headers = map[string]string{"User-Agent": cfg.HTTP.UserAgent}
		table = withUserAgent(table, cfg.HTTP.UserAgent)
	}

	hc, err := infra.NewClient(
		infra.WithTimeout(cfg.HTTP.Timeout),
		infra.WithRateLimit(cfg.HTTP.RateLimit),
		infra.WithHeaders(headers),
		infra.WithProxy(cfg.HTTP.Proxy),
		infra.WithLogger(o.logger.With().Str("component", "http").Logger()),
	)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	feed := registry.NewFeed(hc, table.QuoteURL, o.logger.With().Str("component", "feed").Logger())
	reg, err := registry.New(ctx, feed,
		registry.WithLogger(o.logger.With().Str("component", "registry").Logger()),
		registry.WithClock(o.now),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:     hc,
		table:    table,
		registry: reg,
		schemes:  scheme.NewFetcher(hc, table.SchemeURL, reg, feed, o.logger.With().Str("component", "scheme").Logger()),
		performance: performance.New(hc, table,
			performance.WithWorkers(cfg.Fetch.Workers),
			performance.WithTimeout(cfg.HTTP.ScrapeTimeout),
			performance.WithClock(o.now),
			performance.WithLogger(o.logger.With().Str("component", "performance").Logger()),
		),
		amc:    amc.New(hc, table, cfg.Fetch.Workers, o.logger.With().Str("component", "amc").Logger()),
		logger: o.logger,
	}, nil
}

func withUserAgent(t *constants.Table, ua string) *constants.Table {
	cp := *t
	cp.UserAgent = ua
	return &cp
}

// Table returns the constants table in use.
func (c *Client) Table() *constants.Table { return c.table }

// SetProxy routes all subsequent requests through p. A zero config restores
// the environment proxy settings.
func (c *Client) SetProxy(p infra.ProxyConfig) error {
	if err := c.http.SetProxy(p); err != nil {
		return err
	}
	c.logger.Info().Bool("http", p.HTTP != "").Bool("https", p.HTTPS != "").Msg("proxy updated")
	return nil
}

// Proxy returns the proxy in use.
func (c *Client) Proxy() infra.ProxyConfig { return c.http.Proxy() }

// ListSchemeCodes returns the snapshot of scheme codes mapped to names.
func (c *Client) ListSchemeCodes() map[string]string { return c.registry.Codes() }

// IsValidCode reports whether code is in the snapshot.
func (c *Client) IsValidCode(code string) bool { return c.registry.IsValidCode(code) }

// Refresh re-downloads the scheme code snapshot.
func (c *Client) Refresh(ctx context.Context) error { return c.registry.Refresh(ctx) }

// SnapshotInfo returns the snapshot size and time.
func (c *Client) SnapshotInfo() (int, time.Time) {
	return c.registry.Len(), c.registry.SnapshotAt()
}

// GetQuote returns the latest NAV of code from a fresh feed download.
func (c *Client) GetQuote(ctx context.Context, code string) (*models.SchemeQuote, error) {
	return c.schemes.GetQuote(ctx, code)
}

// GetDetail returns scheme metadata.
func (c *Client) GetDetail(ctx context.Context, code string) (*models.SchemeDetail, error) {
	return c.schemes.GetDetail(ctx, code)
}

// GetHistory returns scheme metadata and the full NAV series.
func (c *Client) GetHistory(ctx context.Context, code string) (*models.SchemeHistory, error) {
	return c.schemes.GetHistory(ctx, code)
}

// GetHistoryForYear returns the NAV series restricted to one calendar year.
func (c *Client) GetHistoryForYear(ctx context.Context, code string, year int) (*models.SchemeHistory, error) {
	return c.schemes.GetHistoryForYear(ctx, code, year)
}

// GetHistoryForRange returns the NAV series between two DD-MM-YYYY dates
// inclusive.
func (c *Client) GetHistoryForRange(ctx context.Context, code, start, end string) (*models.SchemeHistory, error) {
	return c.schemes.GetHistoryForRange(ctx, code, start, end)
}

// GetBalanceValue returns the quote with the value of units at the latest
// NAV.
func (c *Client) GetBalanceValue(ctx context.Context, code, units string) (*models.SchemeQuote, error) {
	return c.schemes.GetBalanceValue(ctx, code, units)
}

// GetOneDayChange returns the latest NAV minus the previous one.
func (c *Client) GetOneDayChange(ctx context.Context, code string) (decimal.Decimal, error) {
	return c.schemes.GetOneDayChange(ctx, code)
}

// GetCategoryPerformance returns the performance reports of every
// sub-category of group.
func (c *Client) GetCategoryPerformance(ctx context.Context, group string) ([]models.CategoryPerformance, error) {
	return c.performance.GetCategoryPerformance(ctx, group)
}

// GetSubCategoryPerformance returns the performance report of one
// sub-category.
func (c *Client) GetSubCategoryPerformance(ctx context.Context, group, category string) (*models.CategoryPerformance, error) {
	return c.performance.GetSubCategoryPerformance(ctx, group, category)
}

// ReportDate returns the DD-Mon-YYYY date performance requests use now.
func (c *Client) ReportDate() string { return c.performance.ReportDate() }

// GetAllAmcProfiles returns the profile of every AMC.
func (c *Client) GetAllAmcProfiles(ctx context.Context) ([]models.AmcProfile, error) {
	return c.amc.GetAllAmcProfiles(ctx)
}

// GetAverageAum returns the fund-house-wise average AUM of a quarter.
func (c *Client) GetAverageAum(ctx context.Context, quarter string) (*models.AverageAum, error) {
	return c.amc.GetAverageAum(ctx, quarter)
}

// Render writes v to w. With asJSON the value is JSON-encoded; otherwise it
// is printed with %+v. Rendering never changes the value.
func Render(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(w, "%+v\n", v)
	return err
}
