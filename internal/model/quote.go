package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuotePremiumSummary is one coverage line in the final quote.
type QuotePremiumSummary struct {
	CoverageType string   `json:"coverage_type"`
	Premium      float64  `json:"premium"`
	Limits       string   `json:"limits,omitempty"`
	Deductible   *float64 `json:"deductible,omitempty"`
}

// GeneratedQuote is the final assembled quote document.
type GeneratedQuote struct {
	QuoteID         string `json:"quote_id"`
	ClientName      string `json:"client_name"`
	EffectiveDate   string `json:"effective_date,omitempty"`
	ExpirationDate  string `json:"expiration_date,omitempty"`
	QuoteValidUntil string `json:"quote_valid_until"`

	PremiumSummary     []QuotePremiumSummary `json:"premium_summary,omitempty"`
	TotalAnnualPremium float64               `json:"total_annual_premium"`

	CoverageSummary    string   `json:"coverage_summary"`
	TermsAndConditions []string `json:"terms_and_conditions,omitempty"`
	Exclusions         []string `json:"exclusions,omitempty"`

	UnderwritingNotes []string `json:"underwriting_notes,omitempty"`

	QuoteLetter string `json:"quote_letter"`

	GeneratedAt     time.Time `json:"generated_at"`
	PipelineVersion string    `json:"pipeline_version"`
}

// NewQuoteID returns a globally unique quote id of the form
// Q-{yyyymmdd}-{8 uppercase hex chars}.
func NewQuoteID(now time.Time) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("Q-%s-%s", now.Format("20060102"), strings.ToUpper(hex[:8]))
}
