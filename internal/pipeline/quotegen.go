package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/model"
)

const quoteGeneratorSystem = `You are a professional insurance underwriter generating a formal quote response. Write in a professional, clear, and helpful tone.`

const quoteGeneratorPrompt = `Generate a professional quote letter/email for this insurance quote.

CLIENT: %s
BROKER: %s

COVERAGE SUMMARY:
%s

PREMIUM BREAKDOWN:
%s

UNDERWRITING NOTES:
%s

TERMS AND CONDITIONS:
%s

Generate a complete, professional quote letter that:
1. Thanks the broker for the submission
2. Clearly states all coverage and limits
3. Breaks down the premium by coverage line
4. Notes any conditions or requirements
5. States quote validity period (30 days)
6. Includes next steps for binding
7. Ends professionally

Return JSON with:
- quote_letter: The full text of the quote letter
- coverage_summary: Brief summary of coverage
- terms_and_conditions: Array of key terms
- exclusions: Array of notable exclusions`

// QuoteInput carries every upstream stage record the quote assembler needs.
type QuoteInput struct {
	Profile   *model.ClientProfile
	Premium   *model.PremiumCalculation
	Modifiers *model.ModifierResult
	Coverage  *model.CoverageAnalysis
	Risk      *model.RiskAssessment
	Authority *model.AuthorityCheck
}

// QuoteGenerator assembles the final quote document and drafts the quote
// letter.
type QuoteGenerator struct {
	gen       llm.Generator
	validDays int
}

func NewQuoteGenerator(gen llm.Generator, validDays int) *QuoteGenerator {
	if validDays <= 0 {
		validDays = 30
	}
	return &QuoteGenerator{gen: gen, validDays: validDays}
}

// Generate builds the quote. The quote ID and every financial figure are
// fixed before the model is asked for the letter, so a degraded letter never
// changes the numbers. A malformed letter response falls back to a canned
// letter.
func (q *QuoteGenerator) Generate(ctx context.Context, in QuoteInput, at time.Time) (*model.GeneratedQuote, error) {
	quoteID := model.NewQuoteID(at)

	premiumSummary := buildPremiumSummary(in.Profile, in.Premium)
	coverageSummaryText := buildCoverageSummary(premiumSummary)
	premiumBreakdown := buildPremiumBreakdown(in.Premium, in.Modifiers)
	notes := buildUnderwritingNotes(in.Risk, in.Authority)
	terms := buildTerms(in.Coverage, in.Authority)
	brokerInfo := formatBrokerInfo(in.Profile.Broker)

	notesText := strings.Join(notes, "\n")
	if notesText == "" {
		notesText = "Standard underwriting applies."
	}

	prompt := fmt.Sprintf(quoteGeneratorPrompt,
		in.Profile.ClientName,
		brokerInfo,
		coverageSummaryText,
		premiumBreakdown,
		notesText,
		strings.Join(terms, "\n"),
	)

	text, err := q.gen.Generate(ctx, llm.Request{
		Step:        "quote_generation",
		System:      quoteGeneratorSystem,
		Prompt:      prompt,
		MaxTokens:   4096,
		Temperature: temperature(0.2),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: generate quote")
	}

	fields, err := llm.DecodeMap(text)
	if err != nil {
		if !errors.Is(err, llm.ErrMalformedJSON) {
			return nil, eris.Wrap(err, "pipeline: generate quote")
		}
		zap.L().Warn("pipeline: unusable quote letter response, using fallback letter",
			zap.String("quote_id", quoteID))
		fields = map[string]any{}
	}

	effectiveDate := in.Profile.EffectiveDate
	if effectiveDate == "" {
		effectiveDate = defaultEffectiveDate(at).Format("2006-01-02")
	}
	expirationDate := ""
	if effective, parseErr := time.Parse("2006-01-02", effectiveDate); parseErr == nil {
		expirationDate = effective.AddDate(0, 0, 365).Format("2006-01-02")
	}

	quote := &model.GeneratedQuote{
		QuoteID:            quoteID,
		ClientName:         in.Profile.ClientName,
		EffectiveDate:      effectiveDate,
		ExpirationDate:     expirationDate,
		QuoteValidUntil:    at.AddDate(0, 0, q.validDays).Format("2006-01-02"),
		PremiumSummary:     premiumSummary,
		TotalAnnualPremium: in.Modifiers.AdjustedPremium,
		CoverageSummary:    stringOr(asString(fields["coverage_summary"]), coverageSummaryText),
		TermsAndConditions: terms,
		Exclusions:         asStringList(fields["exclusions"]),
		UnderwritingNotes:  notes,
		QuoteLetter:        asString(fields["quote_letter"]),
		GeneratedAt:        at.UTC(),
		PipelineVersion:    Version,
	}

	if llmTerms := asStringList(fields["terms_and_conditions"]); len(llmTerms) > 0 {
		quote.TermsAndConditions = llmTerms
	}
	if quote.QuoteLetter == "" {
		quote.QuoteLetter = fallbackQuoteLetter(in.Profile, brokerInfo, premiumBreakdown, quoteID)
	}

	return quote, nil
}

// defaultEffectiveDate is the first of the current month through mid-month,
// then the first of the next month.
func defaultEffectiveDate(at time.Time) time.Time {
	if at.Day() > 15 {
		return time.Date(at.Year(), at.Month()+1, 1, 0, 0, 0, 0, at.Location())
	}
	return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, at.Location())
}

// buildPremiumSummary pairs each premium line with the limits the broker
// asked for, matched by coverage-type substring.
func buildPremiumSummary(profile *model.ClientProfile, calc *model.PremiumCalculation) []model.QuotePremiumSummary {
	summary := make([]model.QuotePremiumSummary, 0, len(calc.LineItems))
	for _, item := range calc.LineItems {
		limits := ""
		for _, cov := range profile.CoverageRequested {
			if strings.Contains(strings.ToLower(item.CoverageType), strings.ToLower(cov.CoverageType)) {
				limits = cov.Limits
				break
			}
		}
		summary = append(summary, model.QuotePremiumSummary{
			CoverageType: item.CoverageType,
			Premium:      item.BasePremium,
			Limits:       limits,
		})
	}
	return summary
}

func buildCoverageSummary(summary []model.QuotePremiumSummary) string {
	lines := make([]string, 0, len(summary))
	for _, item := range summary {
		line := fmt.Sprintf("- %s: %s", coverageTitle(item.CoverageType), dollarsCents(item.Premium))
		if item.Limits != "" {
			line += fmt.Sprintf(" (%s)", item.Limits)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func buildPremiumBreakdown(calc *model.PremiumCalculation, mods *model.ModifierResult) string {
	lines := []string{"Premium Breakdown:"}
	for _, item := range calc.LineItems {
		lines = append(lines, fmt.Sprintf("  %s: %s", coverageTitle(item.CoverageType), dollarsCents(item.BasePremium)))
	}
	lines = append(lines, fmt.Sprintf("\nBase Premium Total: %s", dollarsCents(calc.TotalBasePremium)))

	if len(mods.ModifiersApplied) > 0 {
		lines = append(lines, "\nModifiers Applied:")
		for _, mod := range mods.ModifiersApplied {
			sign := ""
			if mod.PremiumImpact > 0 {
				sign = "+"
			}
			lines = append(lines, fmt.Sprintf("  %s: %s%s (%s)",
				mod.ModifierName, sign, dollarsCents(mod.PremiumImpact), signedPercent(mod.ModifierValue)))
		}
	}

	lines = append(lines, fmt.Sprintf("\nTotal Annual Premium: %s", dollarsCents(mods.AdjustedPremium)))
	return strings.Join(lines, "\n")
}

func buildUnderwritingNotes(risk *model.RiskAssessment, authority *model.AuthorityCheck) []string {
	notes := make([]string, 0, len(risk.UnderwritingNotes)+1)
	notes = append(notes, risk.UnderwritingNotes...)
	if authority.RequiresApproval {
		notes = append(notes, fmt.Sprintf("Requires %s approval: %s", authority.ApproverRole, authority.ApprovalReason))
	}
	return notes
}

func buildTerms(coverage *model.CoverageAnalysis, authority *model.AuthorityCheck) []string {
	terms := []string{
		"Quote valid for 30 days from issue date",
		"Subject to receipt of signed application",
		"Subject to verification of information provided",
		"Premium subject to audit",
	}
	if authority.RequiresApproval {
		terms = append(terms, fmt.Sprintf("Subject to %s approval", authority.ApproverRole))
	}
	for _, endorsement := range coverage.RecommendedEndorsements {
		if endorsement.Required {
			terms = append(terms, fmt.Sprintf("Required endorsement: %s", endorsement.EndorsementName))
		}
	}
	return terms
}

func formatBrokerInfo(broker *model.BrokerContact) string {
	if broker == nil {
		return "Unknown Broker"
	}
	var parts []string
	if broker.Name != "" {
		parts = append(parts, broker.Name)
	}
	if broker.Brokerage != "" {
		parts = append(parts, broker.Brokerage)
	}
	if len(parts) == 0 {
		return "Unknown Broker"
	}
	return strings.Join(parts, ", ")
}

func fallbackQuoteLetter(profile *model.ClientProfile, brokerInfo, premiumBreakdown, quoteID string) string {
	return fmt.Sprintf(`Subject: Quote %s for %s

Dear %s,

Thank you for your quote request for %s. We are pleased to provide the following quotation:

%s

This quote is valid for 30 days from the date of issue.

To proceed with binding coverage, please:
1. Review the quote details and confirm accuracy
2. Complete and sign the application
3. Provide any additional documentation requested
4. Remit the required down payment

Please don't hesitate to contact us if you have any questions.

Best regards,
Underwriting Department
`, quoteID, profile.ClientName, brokerInfo, profile.ClientName, premiumBreakdown)
}
