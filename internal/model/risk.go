package model

// RiskLevel grades the overall account risk.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelVeryHigh RiskLevel = "VERY_HIGH"
)

// Recommendation is the underwriting verdict for an account.
type Recommendation string

const (
	RecommendAccept               Recommendation = "ACCEPT"
	RecommendAcceptWithConditions Recommendation = "ACCEPT_WITH_CONDITIONS"
	RecommendRefer                Recommendation = "REFER"
	RecommendDecline              Recommendation = "DECLINE"
)

// RiskFactor is a single adverse risk characteristic.
type RiskFactor struct {
	FactorName     string `json:"factor_name"`
	FactorCategory string `json:"factor_category"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Mitigation     string `json:"mitigation,omitempty"`
}

// RiskAssessment is the output of the risk assessor stage. RiskScore is
// clamped into [0,100].
type RiskAssessment struct {
	OverallRiskLevel  RiskLevel      `json:"overall_risk_level"`
	RiskScore         float64        `json:"risk_score"`
	RiskFactors       []RiskFactor   `json:"risk_factors,omitempty"`
	PositiveFactors   []string       `json:"positive_factors,omitempty"`
	UnderwritingNotes []string       `json:"underwriting_notes,omitempty"`
	Recommendation    Recommendation `json:"recommendation"`
}
