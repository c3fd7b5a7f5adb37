package model

import "time"

// PipelineMetrics records execution timing and collaborator call volume for
// one pipeline run.
type PipelineMetrics struct {
	TotalDurationSeconds float64            `json:"total_duration_seconds"`
	StepDurations        map[string]float64 `json:"step_durations,omitempty"`
	LLMCalls             int                `json:"llm_calls"`
	VectorSearches       int                `json:"vector_searches"`
	DocumentsRetrieved   int                `json:"documents_retrieved"`
}

// PipelineResult is the complete output of one pipeline run. Any stage
// record may be absent on partial failure; Success=false plus a non-empty
// Errors list is the only failure signal callers see.
type PipelineResult struct {
	Success bool   `json:"success"`
	QuoteID string `json:"quote_id,omitempty"`

	ClientProfile          *ClientProfile          `json:"client_profile,omitempty"`
	IndustryClassification *IndustryClassification `json:"industry_classification,omitempty"`
	RateInfo               []RateInfo              `json:"rate_info,omitempty"`
	RevenueEstimate        *RevenueEstimate        `json:"revenue_estimate,omitempty"`
	PremiumCalculation     *PremiumCalculation     `json:"premium_calculation,omitempty"`
	ModifierResult         *ModifierResult         `json:"modifier_result,omitempty"`
	AuthorityCheck         *AuthorityCheck         `json:"authority_check,omitempty"`
	CoverageAnalysis       *CoverageAnalysis       `json:"coverage_analysis,omitempty"`
	RiskAssessment         *RiskAssessment         `json:"risk_assessment,omitempty"`
	GeneratedQuote         *GeneratedQuote         `json:"generated_quote,omitempty"`

	Metrics  *PipelineMetrics `json:"metrics,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// StoredResult is a PipelineResult as persisted, with the write-time stamp
// the store attaches.
type StoredResult struct {
	PipelineResult
	SavedAt time.Time `json:"saved_at"`
}
