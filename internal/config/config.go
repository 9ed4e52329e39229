// Package config handles configuration loading for mfkit.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/mfkit/internal/infra"
)

// EnvPrefix prefixes every environment override, e.g. MFKIT_HTTP_TIMEOUT.
const EnvPrefix = "MFKIT"

// Config represents the complete application configuration.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"      yaml:"http"`
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"`
	Constants ConstantsConfig `mapstructure:"constants" yaml:"constants"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	Timeout       time.Duration     `mapstructure:"timeout"        yaml:"timeout"`
	ScrapeTimeout time.Duration     `mapstructure:"scrape_timeout" yaml:"scrape_timeout"` // per report page
	RateLimit     int               `mapstructure:"rate_limit"     yaml:"rate_limit"`     // requests/s, 0 = unlimited
	UserAgent     string            `mapstructure:"user_agent"     yaml:"user_agent"`     // overrides the constants table
	Proxy         infra.ProxyConfig `mapstructure:"proxy"          yaml:"proxy"`
}

// FetchConfig holds fan-out settings for multi-page scrapes.
type FetchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// ConstantsConfig locates the endpoint table.
type ConstantsConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // empty = embedded table
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Addr returns the API listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/mfkit.yaml (project root)
//  2. ~/.mfkit/mfkit.yaml (home directory)
//  3. /etc/mfkit/mfkit.yaml (system)
//
// Environment variables override config file values.
// Format: MFKIT_<SECTION>_<KEY>, e.g., MFKIT_HTTP_PROXY_HTTPS
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("mfkit")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".mfkit"))
	v.AddConfigPath("/etc/mfkit")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values. Every key needs
// a default so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// HTTP defaults
	v.SetDefault("http.timeout", infra.DefaultTimeout)
	v.SetDefault("http.scrape_timeout", 15*time.Second)
	v.SetDefault("http.rate_limit", infra.DefaultRateLimit)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.proxy.http", "")
	v.SetDefault("http.proxy.https", "")

	// Fetch defaults
	v.SetDefault("fetch.workers", infra.DefaultWorkers)

	// Constants table
	v.SetDefault("constants.path", "")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects settings the fetchers cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.HTTP.ScrapeTimeout <= 0 {
		return fmt.Errorf("http.scrape_timeout must be positive, got %s", c.HTTP.ScrapeTimeout)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit must not be negative, got %d", c.HTTP.RateLimit)
	}
	if c.Fetch.Workers <= 0 {
		return fmt.Errorf("fetch.workers must be positive, got %d", c.Fetch.Workers)
	}
	for name, raw := range map[string]string{"http.proxy.http": c.HTTP.Proxy.HTTP, "http.proxy.https": c.HTTP.Proxy.HTTPS} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid proxy URL %q", name, raw)
		}
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
