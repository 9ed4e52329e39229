package utils

import (
	"time"
)

// Date layouts used by the upstream endpoints.
const (
	// NavDateLayout is the DD-MM-YYYY form used by the scheme-document API
	// and by date-range arguments.
	NavDateLayout = "02-01-2006"

	// ReportDateLayout is the DD-Mon-YYYY form expected by the performance
	// report pages (e.g. "16-Oct-2026").
	ReportDateLayout = "02-Jan-2006"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// reportLag maps the days on which no fresh performance report exists to the
// number of days back to the preceding Friday.
var reportLag = map[time.Weekday]int{
	time.Saturday: 1,
	time.Sunday:   2,
	time.Monday:   3,
}

// IsReportGap reports whether t falls on Saturday, Sunday or Monday, the days
// on which the performance report for "yesterday" is not published.
func IsReportGap(t time.Time) bool {
	_, ok := reportLag[t.In(IST).Weekday()]
	return ok
}

// ReportDate returns the date whose performance report should be requested
// when running at t: the preceding Friday on Saturday, Sunday and Monday,
// yesterday otherwise. The result is truncated to midnight IST.
func ReportDate(t time.Time) time.Time {
	t = t.In(IST)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST)
	if lag, ok := reportLag[t.Weekday()]; ok {
		return day.AddDate(0, 0, -lag)
	}
	return day.AddDate(0, 0, -1)
}

// FormatReportDate formats t in the DD-Mon-YYYY report form.
func FormatReportDate(t time.Time) string {
	return t.In(IST).Format(ReportDateLayout)
}

// ParseNavDate parses a DD-MM-YYYY date in IST.
func ParseNavDate(s string) (time.Time, error) {
	return time.ParseInLocation(NavDateLayout, s, IST)
}

// FormatNavDate formats t in the DD-MM-YYYY form.
func FormatNavDate(t time.Time) string {
	return t.In(IST).Format(NavDateLayout)
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}
