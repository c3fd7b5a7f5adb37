package model

// EndorsementRecommendation is a coverage endorsement the analyst suggests.
type EndorsementRecommendation struct {
	EndorsementName string   `json:"endorsement_name"`
	EndorsementType string   `json:"endorsement_type"`
	Reason          string   `json:"reason"`
	EstimatedCost   *float64 `json:"estimated_cost,omitempty"`
	Required        bool     `json:"required"`
}

// CoverageLimitation notes an exclusion or restriction on offered coverage.
type CoverageLimitation struct {
	LimitationType string `json:"limitation_type"`
	Description    string `json:"description"`
	Reason         string `json:"reason"`
}

// CoverageAnalysis is the output of the coverage analyst stage.
type CoverageAnalysis struct {
	RecommendedEndorsements []EndorsementRecommendation `json:"recommended_endorsements,omitempty"`
	CoverageLimitations     []CoverageLimitation        `json:"coverage_limitations,omitempty"`
	CoverageGaps            []string                    `json:"coverage_gaps,omitempty"`
	Notes                   string                      `json:"notes,omitempty"`
}
