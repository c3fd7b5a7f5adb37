package model

import "strings"

// RateBasis is the unit an insurance rate is quoted against.
type RateBasis string

const (
	RateBasisPer1000Revenue RateBasis = "per_1000_revenue"
	RateBasisPer100Payroll  RateBasis = "per_100_payroll"
	RateBasisPerVehicle     RateBasis = "per_vehicle"
	RateBasisPercentOfTIV   RateBasis = "percent_of_tiv"
)

// NormalizeRateBasis maps free-text rate basis strings from rating manuals
// onto the canonical enum. Unrecognized bases fall back to per-1000-revenue,
// the most common commercial lines basis.
func NormalizeRateBasis(s string) RateBasis {
	lower := strings.ToLower(s)
	switch {
	// Revenue first: "per_1000_revenue" also contains "100".
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "1000"):
		return RateBasisPer1000Revenue
	case strings.Contains(lower, "payroll") || strings.Contains(lower, "100"):
		return RateBasisPer100Payroll
	case strings.Contains(lower, "vehicle"):
		return RateBasisPerVehicle
	case strings.Contains(lower, "tiv") || strings.Contains(lower, "percent") || strings.Contains(lower, "property"):
		return RateBasisPercentOfTIV
	default:
		return RateBasisPer1000Revenue
	}
}

// RateInfo is one applicable rate rule discovered from the rating manuals.
type RateInfo struct {
	BICCode        string    `json:"bic_code"`
	CoverageType   string    `json:"coverage_type"`
	BaseRate       float64   `json:"base_rate"`
	RateBasis      RateBasis `json:"rate_basis"`
	MinimumPremium float64   `json:"minimum_premium"`
	SourceDocument string    `json:"source_document,omitempty"`
}
