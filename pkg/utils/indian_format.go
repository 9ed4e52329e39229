// Package utils provides date rules and number formatting shared by the
// fetchers and the CLI.
package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats an amount in Indian Rupee notation (₹12,34,567.89).
// Uses the Indian numbering system: last 3 digits, then groups of 2.
func FormatINR(amount decimal.Decimal) string {
	prefix := "₹"
	if amount.IsNegative() {
		prefix = "-₹"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	intPart, decPart, _ := strings.Cut(fixed, ".")
	return prefix + groupIndian(intPart) + "." + decPart
}

// FormatChange formats a signed change with an explicit "+" for gains.
// e.g., 0.0512 → "+0.0512", -1.2 → "-1.2000"
func FormatChange(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// ParseIndianNumber parses a number written with Indian digit grouping,
// optional rupee sign and percent suffix ("₹1,23,456.78", "12.5%").
func ParseIndianNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "₹", "", "%", "").Replace(s)
	return decimal.NewFromString(strings.TrimSpace(s))
}

// unitsPattern matches a plain, Western-grouped (1,000,000) or
// Indian-grouped (10,00,000) non-negative number with optional decimals.
var unitsPattern = regexp.MustCompile(`^(?:\d+|\d{1,3}(?:,\d{3})+|\d{1,2}(?:,\d{2})*,\d{3})(?:\.\d+)?$|^\.\d+$`)

// ParseUnits parses a unit count. Digits may be grouped the Indian or the
// Western way; signs, currency symbols and misplaced commas are rejected.
func ParseUnits(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !unitsPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("malformed units %q", s)
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

// groupIndian inserts commas into a digit string (last 3, then pairs).
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	result := digits[len(digits)-3:]
	remaining := digits[:len(digits)-3]

	for len(remaining) > 0 {
		if len(remaining) > 2 {
			result = remaining[len(remaining)-2:] + "," + result
			remaining = remaining[:len(remaining)-2]
		} else {
			result = remaining + "," + result
			remaining = ""
		}
	}

	return result
}
