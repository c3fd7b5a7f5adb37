package model

// ConfidenceLevel grades how much trust to place in an estimated value.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// RevenueEstimate is produced only when the broker email did not state
// annual revenue. RequiresVerification is always true: an estimate is never
// authoritative.
type RevenueEstimate struct {
	EstimatedRevenue     float64         `json:"estimated_revenue"`
	EstimationMethod     string          `json:"estimation_method"`
	ConfidenceLevel      ConfidenceLevel `json:"confidence_level"`
	RequiresVerification bool            `json:"requires_verification"`
	Notes                string          `json:"notes,omitempty"`
}
