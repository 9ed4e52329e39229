// Package constants loads the static endpoint table: URLs, performance
// category codes, the user agent sent to report pages and the list of AMC
// identifiers. The table ships embedded in the binary and can be replaced by
// a file (JSON, YAML or TOML) at startup.
package constants

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/seenimoa/mfkit/pkg/models"
)

//go:embed const.json
var embedded []byte

// ErrInvalidTable is returned when the table cannot be read or lacks a
// required entry. It is fatal at startup.
var ErrInvalidTable = errors.New("invalid constants table")

// Placeholders in the performance URL template.
const (
	PlaceholderGroup    = "{group}"
	PlaceholderCategory = "{category}"
	PlaceholderDate     = "{date}"
)

// Category is one sub-category of a performance report group.
type Category struct {
	Name string `mapstructure:"name"`
	Code string `mapstructure:"code"`
}

// Group is a top-level classification (equity, debt, hybrid, solution,
// other). Categories keep the order of the table.
type Group struct {
	Name       string     `mapstructure:"name"`
	Prefix     string     `mapstructure:"prefix"`
	Categories []Category `mapstructure:"categories"`
}

// Category looks a sub-category up by name (case-insensitive) or code.
func (g Group) Category(name string) (Category, bool) {
	for _, c := range g.Categories {
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.Code, name) {
			return c, true
		}
	}
	return Category{}, false
}

// Table is the parsed constants table.
type Table struct {
	QuoteURL       string   `mapstructure:"get_quote_url"`
	SchemeURL      string   `mapstructure:"get_scheme_url"`
	AmcDetailsURL  string   `mapstructure:"get_amc_details_url"`
	PerformanceURL string   `mapstructure:"get_scheme_performance_url"`
	AvgAumURL      string   `mapstructure:"get_avg_aum_url"`
	UserAgent      string   `mapstructure:"user_agent"`
	Groups         []Group  `mapstructure:"categories"`
	AMC            []string `mapstructure:"amc"`
}

// Default returns the embedded table.
func Default() (*Table, error) {
	return Parse(bytes.NewReader(embedded), "json")
}

// Load reads a table from path; the format follows the file extension.
func Load(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidTable, path, err)
	}
	return decode(v)
}

// Parse reads a table of the given format ("json", "yaml", "toml") from r.
func Parse(r io.Reader, format string) (*Table, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Table, error) {
	var t Table
	if err := v.Unmarshal(&t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every entry the fetchers depend on is present.
func (t *Table) Validate() error {
	required := []struct {
		key, val string
	}{
		{"get_quote_url", t.QuoteURL},
		{"get_scheme_url", t.SchemeURL},
		{"get_amc_details_url", t.AmcDetailsURL},
		{"get_scheme_performance_url", t.PerformanceURL},
		{"get_avg_aum_url", t.AvgAumURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidTable, r.key)
		}
	}
	if !strings.Contains(t.PerformanceURL, PlaceholderCategory) {
		return fmt.Errorf("%w: get_scheme_performance_url has no %s placeholder", ErrInvalidTable, PlaceholderCategory)
	}
	if len(t.Groups) == 0 {
		return fmt.Errorf("%w: no category groups", ErrInvalidTable)
	}
	for _, g := range t.Groups {
		if g.Name == "" || len(g.Categories) == 0 {
			return fmt.Errorf("%w: group %q has no categories", ErrInvalidTable, g.Name)
		}
	}
	if len(t.AMC) == 0 {
		return fmt.Errorf("%w: empty amc list", ErrInvalidTable)
	}
	return nil
}

// Group looks a group up by name or prefix, case-insensitively.
func (t *Table) Group(name string) (Group, error) {
	for _, g := range t.Groups {
		if strings.EqualFold(g.Name, name) || strings.EqualFold(g.Prefix, name) {
			return g, nil
		}
	}
	return Group{}, fmt.Errorf("%w: %q", models.ErrUnknownGroup, name)
}

// GroupNames lists the group names in table order.
func (t *Table) GroupNames() []string {
	names := make([]string, len(t.Groups))
	for i, g := range t.Groups {
		names[i] = g.Name
	}
	return names
}

// PerformanceReportURL fills the performance template for one sub-category
// and report date (DD-Mon-YYYY).
func (t *Table) PerformanceReportURL(g Group, c Category, reportDate string) string {
	return strings.NewReplacer(
		PlaceholderGroup, g.Prefix,
		PlaceholderCategory, c.Code,
		PlaceholderDate, reportDate,
	).Replace(t.PerformanceURL)
}

// Headers returns the request headers for report pages.
func (t *Table) Headers() map[string]string {
	if t.UserAgent == "" {
		return nil
	}
	return map[string]string{"User-Agent": t.UserAgent}
}
