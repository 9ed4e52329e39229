// Package models defines the mutual-fund data structures returned by mfkit.
// Every value is built fresh per call and never mutated afterwards.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/mfkit/pkg/utils"
)

// Error taxonomy shared by the fetchers, the CLI and the API.
var (
	// ErrInvalidCode is returned when a scheme code is absent from the
	// registry snapshot.
	ErrInvalidCode = errors.New("invalid scheme code")

	// ErrNotFound is returned when a valid code yields no record upstream.
	ErrNotFound = errors.New("no data found")

	// ErrValueConversion is returned for non-numeric amounts or malformed
	// date arguments.
	ErrValueConversion = errors.New("value conversion failed")

	// ErrInsufficientData is returned when a computation needs more NAV
	// records than the series holds.
	ErrInsufficientData = errors.New("insufficient NAV history")
)

// SchemeQuote is the latest NAV of one scheme from the daily feed.
type SchemeQuote struct {
	SchemeCode  string `json:"scheme_code"`
	SchemeName  string `json:"scheme_name"`
	NAV         string `json:"nav"`
	LastUpdated string `json:"last_updated"`

	// BalanceUnitsValue is set only by the balance computation: NAV × units,
	// formatted with two decimals.
	BalanceUnitsValue string `json:"balance_units_value,omitempty"`
}

// NAVValue parses the quoted NAV.
func (q SchemeQuote) NAVValue() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(q.NAV)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: nav %q", ErrValueConversion, q.NAV)
	}
	return d, nil
}

// NavRecord is one element of a NAV series as published upstream.
type NavRecord struct {
	Date string `json:"date"` // DD-MM-YYYY
	NAV  string `json:"nav"`
}

// Time parses the record date.
func (r NavRecord) Time() (time.Time, error) {
	return utils.ParseNavDate(r.Date)
}

// Value parses the record NAV.
func (r NavRecord) Value() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(r.NAV)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: nav %q on %s", ErrValueConversion, r.NAV, r.Date)
	}
	return d, nil
}

// SchemeDetail is the metadata block of a scheme document.
type SchemeDetail struct {
	FundHouse      string `json:"fund_house"`
	SchemeType     string `json:"scheme_type"`
	SchemeCategory string `json:"scheme_category"`
	SchemeCode     string `json:"scheme_code"`
	SchemeName     string `json:"scheme_name"`

	// SchemeStartDate is the oldest record of the series; nil when the
	// provider returned no records.
	SchemeStartDate *NavRecord `json:"scheme_start_date"`
}

// SchemeHistory is a scheme's metadata plus (a window of) its NAV series,
// newest first. Found is false when the series or the requested window is
// empty; Data is then an empty slice, never nil.
type SchemeHistory struct {
	SchemeDetail
	Data  []NavRecord `json:"data"`
	Found bool        `json:"found"`
}

// WithData returns a copy of h carrying only the given records.
func (h SchemeHistory) WithData(data []NavRecord) SchemeHistory {
	if data == nil {
		data = []NavRecord{}
	}
	h.Data = data
	h.Found = len(data) > 0
	return h
}
