package models

import "errors"

// ErrUnknownGroup is returned for a category group not present in the
// constants table.
var ErrUnknownGroup = errors.New("unknown category group")

// ErrUnknownCategory is returned for a sub-category not listed under its
// group.
var ErrUnknownCategory = errors.New("unknown sub-category")

// PerformanceRow is one scheme's line in a daily performance report.
// Values are kept exactly as published (they may be "-" or empty).
type PerformanceRow struct {
	SchemeName      string `json:"scheme_name"`
	Benchmark       string `json:"benchmark"`
	NAVRegular      string `json:"nav_regular"`
	NAVDirect       string `json:"nav_direct"`
	Return1YRegular string `json:"return_1y_regular"`
	Return1YDirect  string `json:"return_1y_direct"`
	Return3YRegular string `json:"return_3y_regular"`
	Return3YDirect  string `json:"return_3y_direct"`
	Return5YRegular string `json:"return_5y_regular"`
	Return5YDirect  string `json:"return_5y_direct"`
}

// CategoryPerformance is the report of one sub-category on one date.
// Available is false when the page had no rows or did not match the
// expected table layout; Rows is then empty.
type CategoryPerformance struct {
	Group        string           `json:"group"`
	Category     string           `json:"category"`
	CategoryCode string           `json:"category_code"`
	ReportDate   string           `json:"report_date"` // DD-Mon-YYYY
	Available    bool             `json:"available"`
	Rows         []PerformanceRow `json:"rows"`
}

// AmcProfile is the field/value table published for one fund house.
type AmcProfile struct {
	AmcID  string            `json:"amc_id"`
	Fields map[string]string `json:"fields"`
}

// AumRow is one fund house's average AUM for a quarter.
type AumRow struct {
	FundName     string `json:"fund_name"`
	AAUMOverseas string `json:"aaum_overseas"`
	AAUMDomestic string `json:"aaum_domestic"`
}

// AverageAum is the quarterly AAUM table.
type AverageAum struct {
	Quarter string   `json:"quarter"`
	Rows    []AumRow `json:"rows"`
}
