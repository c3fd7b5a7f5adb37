package model

// RiskCategory grades an industry's inherent risk.
type RiskCategory string

const (
	RiskCategoryLow    RiskCategory = "LOW"
	RiskCategoryMedium RiskCategory = "MEDIUM"
	RiskCategoryHigh   RiskCategory = "HIGH"
)

// ParseRiskCategory normalizes free text into a RiskCategory, defaulting to
// MEDIUM for anything unrecognized so downstream logic never sees free text.
func ParseRiskCategory(s string) RiskCategory {
	switch RiskCategory(s) {
	case RiskCategoryLow, RiskCategoryMedium, RiskCategoryHigh:
		return RiskCategory(s)
	default:
		return RiskCategoryMedium
	}
}

// UnknownBICCode is the reserved fallback when classification yields no
// usable code.
const UnknownBICCode = "99"

// IndustryClassification is the output of the industry classifier stage.
type IndustryClassification struct {
	BICCode          string       `json:"bic_code"`
	IndustryName     string       `json:"industry_name"`
	RiskCategory     RiskCategory `json:"risk_category"`
	ConfidenceScore  float64      `json:"confidence_score"`
	MatchingKeywords []string     `json:"matching_keywords,omitempty"`
	Subcategory      string       `json:"subcategory,omitempty"`
}
