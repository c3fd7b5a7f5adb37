package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/retrieval"
)

const riskAssessmentSystem = `You are a senior underwriter conducting a comprehensive risk assessment.`

const riskAssessmentPrompt = `Conduct a comprehensive risk assessment for this account.

CLIENT PROFILE:
%s

INDUSTRY ANALYSIS:
%s

LOSS HISTORY:
%s

UNDERWRITING GUIDELINES:
%s

Return JSON with:
- overall_risk_level: LOW, MEDIUM, HIGH, or VERY_HIGH
- risk_score: Numerical score 0-100
- risk_factors: Array of identified risks with:
  - factor_name
  - factor_category (operations, financial, claims, industry, location)
  - severity (LOW, MEDIUM, HIGH)
  - description
  - mitigation (if any)
- positive_factors: Array of positive risk factors
- underwriting_notes: Array of notes for the underwriter
- recommendation: ACCEPT, ACCEPT_WITH_CONDITIONS, REFER, or DECLINE

Be thorough but fair in your assessment.`

// RiskAssessor produces the overall risk verdict for the account using the
// underwriting guidelines collection.
type RiskAssessor struct {
	gen    llm.Generator
	search retrieval.Searcher
	limit  int
}

func NewRiskAssessor(gen llm.Generator, search retrieval.Searcher, limit int) *RiskAssessor {
	return &RiskAssessor{gen: gen, search: search, limit: limit}
}

// Assess degrades to a neutral MEDIUM/50/ACCEPT assessment on a malformed
// model response. The risk score is clamped into [0,100].
func (r *RiskAssessor) Assess(ctx context.Context, profile *model.ClientProfile, industry *model.IndustryClassification, mods *model.ModifierResult) (*model.RiskAssessment, error) {
	query := fmt.Sprintf("Risk assessment underwriting %s appetite guidelines factors", industry.IndustryName)
	docs, err := r.search.Search(ctx, model.CollectionGuidelines, query, r.limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: assess risk")
	}

	industryAnalysis := fmt.Sprintf("Industry: %s\nBIC Code: %s\nRisk Category: %s\nClassification Confidence: %.0f%%",
		industry.IndustryName, industry.BICCode, industry.RiskCategory, industry.ConfidenceScore*100)

	text, err := r.gen.Generate(ctx, llm.Request{
		Step:   "risk_assessment",
		System: riskAssessmentSystem,
		Prompt: fmt.Sprintf(riskAssessmentPrompt,
			clientProfileText(profile, mods),
			industryAnalysis,
			stringOr(profile.LossHistory, "No loss history provided"),
			retrieval.FormatContext(docs),
		),
		Temperature: temperature(0.1),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: assess risk")
	}

	fields, err := llm.DecodeMap(text)
	if err != nil {
		if errors.Is(err, llm.ErrMalformedJSON) {
			zap.L().Warn("pipeline: unusable risk assessment response, using neutral assessment",
				zap.String("client", profile.ClientName))
			return neutralAssessment(), nil
		}
		return nil, eris.Wrap(err, "pipeline: assess risk")
	}

	assessment := &model.RiskAssessment{
		OverallRiskLevel:  parseRiskLevel(asString(fields["overall_risk_level"])),
		RiskScore:         clampFloat(floatOrDefault(fields["risk_score"], 50), 0, 100),
		PositiveFactors:   asStringList(fields["positive_factors"], "factor_name", "name", "description"),
		UnderwritingNotes: asStringList(fields["underwriting_notes"], "note", "description", "text"),
		Recommendation:    parseRecommendation(asString(fields["recommendation"])),
	}

	if list, ok := fields["risk_factors"].([]any); ok {
		for _, item := range list {
			row, ok := item.(map[string]any)
			if !ok {
				continue
			}
			factor := model.RiskFactor{
				FactorName:     asString(row["factor_name"]),
				FactorCategory: asString(row["factor_category"]),
				Severity:       asString(row["severity"]),
				Description:    asString(row["description"]),
				Mitigation:     asString(row["mitigation"]),
			}
			if factor.FactorCategory == "" {
				factor.FactorCategory = "general"
			}
			if factor.Severity == "" {
				factor.Severity = "MEDIUM"
			}
			assessment.RiskFactors = append(assessment.RiskFactors, factor)
		}
	}

	return assessment, nil
}

func neutralAssessment() *model.RiskAssessment {
	return &model.RiskAssessment{
		OverallRiskLevel: model.RiskLevelMedium,
		RiskScore:        50,
		Recommendation:   model.RecommendAccept,
	}
}

func parseRiskLevel(s string) model.RiskLevel {
	switch model.RiskLevel(strings.ToUpper(s)) {
	case model.RiskLevelLow, model.RiskLevelMedium, model.RiskLevelHigh, model.RiskLevelVeryHigh:
		return model.RiskLevel(strings.ToUpper(s))
	default:
		return model.RiskLevelMedium
	}
}

func parseRecommendation(s string) model.Recommendation {
	switch model.Recommendation(strings.ToUpper(s)) {
	case model.RecommendAccept, model.RecommendAcceptWithConditions, model.RecommendRefer, model.RecommendDecline:
		return model.Recommendation(strings.ToUpper(s))
	default:
		return model.RecommendAccept
	}
}

func clientProfileText(profile *model.ClientProfile, mods *model.ModifierResult) string {
	lines := []string{
		fmt.Sprintf("Client: %s", profile.ClientName),
		fmt.Sprintf("Industry: %s", profile.IndustryDescription),
	}
	if profile.Location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", profile.Location))
	}
	if profile.AnnualRevenue != nil {
		lines = append(lines, fmt.Sprintf("Annual Revenue: %s", dollars(*profile.AnnualRevenue)))
	}
	if profile.EmployeeCount != nil && *profile.EmployeeCount > 0 {
		lines = append(lines, fmt.Sprintf("Employees: %d", *profile.EmployeeCount))
	}
	if profile.YearsInBusiness != nil && *profile.YearsInBusiness > 0 {
		lines = append(lines, fmt.Sprintf("Years in Business: %d", *profile.YearsInBusiness))
	}
	if profile.VehicleCount != nil && *profile.VehicleCount > 0 {
		lines = append(lines, fmt.Sprintf("Vehicles: %d", *profile.VehicleCount))
	}
	lines = append(lines, fmt.Sprintf("Adjusted Premium: %s", dollarsCents(mods.AdjustedPremium)))

	if len(mods.ModifiersApplied) > 0 {
		parts := make([]string, 0, len(mods.ModifiersApplied))
		for _, mod := range mods.ModifiersApplied {
			parts = append(parts, fmt.Sprintf("%s: %s", mod.ModifierName, signedPercent(mod.ModifierValue)))
		}
		lines = append(lines, fmt.Sprintf("Modifiers Applied: %s", strings.Join(parts, ", ")))
	}

	return strings.Join(lines, "\n")
}
