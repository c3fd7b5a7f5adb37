package model

import "time"

// PremiumLineItem is the base premium for a single coverage line.
// CalculationNotes carries the human-readable derivation and is mandatory
// for audit.
type PremiumLineItem struct {
	CoverageType     string    `json:"coverage_type"`
	BasePremium      float64   `json:"base_premium"`
	RateUsed         float64   `json:"rate_used"`
	RateBasis        RateBasis `json:"rate_basis"`
	ExposureValue    float64   `json:"exposure_value"`
	CalculationNotes string    `json:"calculation_notes"`
}

// PremiumCalculation is the output of the premium calculator stage.
type PremiumCalculation struct {
	LineItems            []PremiumLineItem `json:"line_items"`
	TotalBasePremium     float64           `json:"total_base_premium"`
	CalculationTimestamp time.Time         `json:"calculation_timestamp"`
}
