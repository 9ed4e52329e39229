// Package infra provides the shared HTTP transport used by every fetcher:
// proxy selection, default headers, timeouts, rate limiting and request
// logging.
package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// DefaultUserAgent is sent when the constants table carries no header map.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// ProxyConfig selects an upstream proxy per URL scheme. Empty fields mean
// "no proxy" for that scheme; an entirely empty config falls back to the
// standard HTTP_PROXY/HTTPS_PROXY environment variables.
type ProxyConfig struct {
	HTTP  string `json:"http"  mapstructure:"http"`
	HTTPS string `json:"https" mapstructure:"https"`
}

// IsZero reports whether no proxy is configured.
func (p ProxyConfig) IsZero() bool { return p.HTTP == "" && p.HTTPS == "" }

// HTTPError is returned when a remote endpoint answers with status >= 400.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s (%s): %s", e.StatusCode, e.Status, e.URL, e.Body)
}

// Client is a rate-limited HTTP client whose proxy can be swapped at runtime.
// It is safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	http    *http.Client
	proxy   ProxyConfig
	timeout time.Duration
	headers map[string]string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout applied by the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHeaders sets headers sent with every request (e.g. the User-Agent map
// from the constants table).
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// WithProxy sets the initial proxy.
func WithProxy(p ProxyConfig) Option {
	return func(c *Client) { c.proxy = p }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a transport. It fails only on a malformed proxy URL.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		timeout: DefaultTimeout,
		headers: map[string]string{"User-Agent": DefaultUserAgent},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.SetProxy(c.proxy); err != nil {
		return nil, err
	}
	return c, nil
}

// SetProxy replaces the proxy used by all subsequent requests.
func (c *Client) SetProxy(p ProxyConfig) error {
	proxyFn, err := p.proxyFunc()
	if err != nil {
		return err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFn

	c.mu.Lock()
	c.proxy = p
	c.http = &http.Client{Timeout: c.timeout, Transport: transport}
	c.mu.Unlock()
	return nil
}

// Proxy returns the proxy currently in use.
func (c *Client) Proxy() ProxyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proxy
}

// Get performs a GET request and returns the full response body.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req, headers)
}

// PostForm performs a form-encoded POST and returns the full response body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, headers)
}

func (c *Client) do(req *http.Request, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.mu.RLock()
	hc := c.http
	c.mu.RUnlock()

	target := req.URL.String()
	start := time.Now()
	resp, err := hc.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("method", req.Method).Str("url", target).Dur("elapsed", elapsed).Msg("request failed")
		return nil, fmt.Errorf("HTTP %s %s: %w", req.Method, target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().Str("method", req.Method).Str("url", target).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("request done")

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        target,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", target, err)
	}
	return body, nil
}

// proxyFunc builds the transport's proxy selector.
func (p ProxyConfig) proxyFunc() (func(*http.Request) (*url.URL, error), error) {
	if p.IsZero() {
		return http.ProxyFromEnvironment, nil
	}
	httpURL, err := parseProxyURL(p.HTTP)
	if err != nil {
		return nil, fmt.Errorf("http proxy: %w", err)
	}
	httpsURL, err := parseProxyURL(p.HTTPS)
	if err != nil {
		return nil, fmt.Errorf("https proxy: %w", err)
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" {
			return httpsURL, nil
		}
		return httpURL, nil
	}, nil
}

func parseProxyURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q", raw)
	}
	return u, nil
}
