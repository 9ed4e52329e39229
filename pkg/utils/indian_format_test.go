package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "₹0.00"},
		{"123.46", "₹123.46"},
		{"1000", "₹1,000.00"},
		{"1234567.891", "₹12,34,567.89"},
		{"100000000", "₹10,00,00,000.00"},
		{"-1500.5", "-₹1,500.50"},
	}
	for _, tt := range tests {
		got := FormatINR(decimal.RequireFromString(tt.input))
		assert.Equal(t, tt.want, got, "FormatINR(%s)", tt.input)
	}
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+5.0000", FormatChange(decimal.NewFromInt(5), 4))
	assert.Equal(t, "-0.0123", FormatChange(decimal.RequireFromString("-0.0123"), 4))
	assert.Equal(t, "0.0000", FormatChange(decimal.Zero, 4))
}

func TestParseIndianNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1,234.56", "1234.56"},
		{"₹1,23,456.78", "123456.78"},
		{" 12.5% ", "12.5"},
		{"-3.2", "-3.2"},
	}
	for _, tt := range tests {
		got, err := ParseIndianNumber(tt.input)
		require.NoError(t, err, tt.input)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "ParseIndianNumber(%q) = %s", tt.input, got)
	}

	_, err := ParseIndianNumber("N/A")
	assert.Error(t, err)
}

func TestParseUnits(t *testing.T) {
	valid := []struct {
		input string
		want  string
	}{
		{"10", "10"},
		{" 10.5 ", "10.5"},
		{".25", "0.25"},
		{"1,000", "1000"},
		{"1,000,000.125", "1000000.125"},
		{"10,00,000", "1000000"},
		{"1,23,45,678.9", "12345678.9"},
	}
	for _, tt := range valid {
		got, err := ParseUnits(tt.input)
		require.NoError(t, err, tt.input)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "ParseUnits(%q) = %s", tt.input, got)
	}

	for _, input := range []string{"", "ten", "10%", "₹10", "-5", "+5", "1,0,0,0", "1,00", "10,0000", ",100", "1,000.", "1.2.3", "1e3"} {
		_, err := ParseUnits(input)
		assert.Error(t, err, "ParseUnits(%q) should fail", input)
	}
}
