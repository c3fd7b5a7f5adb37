package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/retrieval"
)

const modifierAnalysisSystem = `You are an insurance pricing specialist. Analyze risk factors to determine appropriate premium modifiers.`

const modifierAnalysisPrompt = `Determine applicable premium modifiers based on the risk characteristics.

CLIENT PROFILE:
- Industry: %s
- Years in Business: %s
- Loss History: %s
- Employee Count: %s
- Vehicle Count: %d
- Location: %s

BASE PREMIUM: %s

AVAILABLE MODIFIERS:
%s

Analyze which modifiers apply and calculate the impact. Return JSON with:
- modifiers_applied: Array of modifier objects with:
  - modifier_name
  - modifier_type
  - modifier_value (as decimal, e.g., -0.10 for 10%% credit)
  - reason
  - premium_impact (dollar amount)
- total_modifier_impact: Sum of all premium impacts
- total_modifier_percentage: Combined modifier as decimal
- adjusted_premium: Base premium + total modifier impact

Be fair but accurate in applying modifiers. Document reasoning clearly.`

// ModifierEngine applies credits and debits from the modifiers collection to
// the base premium.
type ModifierEngine struct {
	gen    llm.Generator
	search retrieval.Searcher
	limit  int
}

func NewModifierEngine(gen llm.Generator, search retrieval.Searcher, limit int) *ModifierEngine {
	return &ModifierEngine{gen: gen, search: search, limit: limit}
}

// Apply recomputes all totals locally from the per-modifier dollar impacts;
// the model's own totals are never trusted. A malformed response degrades to
// an unmodified premium.
func (m *ModifierEngine) Apply(ctx context.Context, profile *model.ClientProfile, industry *model.IndustryClassification, calc *model.PremiumCalculation) (*model.ModifierResult, error) {
	query := fmt.Sprintf("Premium modifiers credits debits %s loss history years in business", industry.IndustryName)
	docs, err := m.search.Search(ctx, model.CollectionModifiers, query, m.limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: apply modifiers")
	}

	prompt := fmt.Sprintf(modifierAnalysisPrompt,
		industry.IndustryName,
		intOrUnknown(profile.YearsInBusiness),
		stringOr(profile.LossHistory, "No loss history provided"),
		intOrUnknown(profile.EmployeeCount),
		intOrZero(profile.VehicleCount),
		stringOr(profile.Location, "Unknown"),
		dollarsCents(calc.TotalBasePremium),
		retrieval.FormatContext(docs),
	)

	text, err := m.gen.Generate(ctx, llm.Request{
		Step:        "modifiers",
		System:      modifierAnalysisSystem,
		Prompt:      prompt,
		Temperature: temperature(0.1),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: apply modifiers")
	}

	fields, err := llm.DecodeMap(text)
	if err != nil {
		if errors.Is(err, llm.ErrMalformedJSON) {
			zap.L().Warn("pipeline: unusable modifier response, premium unmodified",
				zap.String("client", profile.ClientName))
			return aggregateModifiers(nil, calc.TotalBasePremium), nil
		}
		return nil, eris.Wrap(err, "pipeline: apply modifiers")
	}

	var applied []model.ModifierDetail
	if list, ok := fields["modifiers_applied"].([]any); ok {
		for _, item := range list {
			row, ok := item.(map[string]any)
			if !ok {
				continue
			}
			detail := model.ModifierDetail{
				ModifierName:  asString(row["modifier_name"]),
				ModifierType:  asString(row["modifier_type"]),
				ModifierValue: floatOrDefault(row["modifier_value"], 0),
				Reason:        asString(row["reason"]),
				PremiumImpact: floatOrDefault(row["premium_impact"], 0),
			}
			if detail.ModifierName == "" {
				detail.ModifierName = "Unknown"
			}
			if detail.ModifierType == "" {
				detail.ModifierType = "experience"
			}
			applied = append(applied, detail)
		}
	}

	return aggregateModifiers(applied, calc.TotalBasePremium), nil
}

func aggregateModifiers(applied []model.ModifierDetail, basePremium float64) *model.ModifierResult {
	totalImpact := 0.0
	totalPercentage := 0.0
	for _, mod := range applied {
		totalImpact += mod.PremiumImpact
		totalPercentage += mod.ModifierValue
	}

	return &model.ModifierResult{
		ModifiersApplied:        applied,
		TotalModifierImpact:     round2(totalImpact),
		TotalModifierPercentage: round4(totalPercentage),
		AdjustedPremium:         round2(basePremium + totalImpact),
	}
}

func intOrUnknown(v *int) string {
	if v == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%d", *v)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
