package scheme

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/mfkit/pkg/models"
)

// FilterByYear keeps the records dated in year, preserving order. Records
// with an unparseable date are skipped.
func FilterByYear(data []models.NavRecord, year int) []models.NavRecord {
	out := []models.NavRecord{}
	for _, r := range data {
		t, err := r.Time()
		if err != nil {
			continue
		}
		if t.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// FilterByRange keeps the records dated between from and to inclusive,
// preserving order. Only the calendar date of the bounds is compared.
// Records with an unparseable date are skipped.
func FilterByRange(data []models.NavRecord, from, to time.Time) []models.NavRecord {
	lo := calendarDay(from)
	hi := calendarDay(to)
	out := []models.NavRecord{}
	for _, r := range data {
		t, err := r.Time()
		if err != nil {
			continue
		}
		d := calendarDay(t)
		if d < lo || d > hi {
			continue
		}
		out = append(out, r)
	}
	return out
}

// calendarDay maps a date to a comparable yyyymmdd integer in its own
// location.
func calendarDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// OneDayChange returns data[0].NAV - data[1].NAV rounded to four places.
func OneDayChange(data []models.NavRecord) (decimal.Decimal, error) {
	if len(data) < 2 {
		return decimal.Zero, fmt.Errorf("%w: need 2 records, have %d", models.ErrInsufficientData, len(data))
	}
	latest, err := data[0].Value()
	if err != nil {
		return decimal.Zero, err
	}
	prev, err := data[1].Value()
	if err != nil {
		return decimal.Zero, err
	}
	return latest.Sub(prev).Round(4), nil
}

// BalanceValue returns nav × units with two decimals, halves rounded away
// from zero.
func BalanceValue(nav, units decimal.Decimal) string {
	return nav.Mul(units).StringFixed(2)
}
