package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/retrieval"
)

const coverageAnalysisSystem = `You are an insurance coverage specialist. Analyze coverage needs and make recommendations.`

const coverageAnalysisPrompt = `Analyze the coverage needs for this client and make recommendations.

CLIENT PROFILE:
- Business: %s
- Industry: %s
- Operations: %s

REQUESTED COVERAGES:
%s

COVERAGE GUIDELINES:
%s

Return JSON with:
- recommended_endorsements: Array of endorsement recommendations with:
  - endorsement_name
  - endorsement_type
  - reason
  - estimated_cost (if calculable)
  - required (true/false)
- coverage_limitations: Array of limitations to note
- coverage_gaps: Array of potential coverage gaps
- notes: Additional coverage analysis notes

Focus on what the client needs for their specific operations.`

// CoverageAnalyst recommends endorsements and flags gaps using the
// underwriting guidelines collection.
type CoverageAnalyst struct {
	gen    llm.Generator
	search retrieval.Searcher
	limit  int
}

func NewCoverageAnalyst(gen llm.Generator, search retrieval.Searcher, limit int) *CoverageAnalyst {
	return &CoverageAnalyst{gen: gen, search: search, limit: limit}
}

// Analyze degrades to an empty analysis on a malformed model response;
// coverage recommendations are advisory and never block the quote.
func (a *CoverageAnalyst) Analyze(ctx context.Context, profile *model.ClientProfile, industry *model.IndustryClassification) (*model.CoverageAnalysis, error) {
	query := fmt.Sprintf("Coverage endorsements %s recommendations requirements", industry.IndustryName)
	docs, err := a.search.Search(ctx, model.CollectionGuidelines, query, a.limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: analyze coverage")
	}

	requested := "General Liability, Property"
	if len(profile.CoverageRequested) > 0 {
		parts := make([]string, 0, len(profile.CoverageRequested))
		for _, cov := range profile.CoverageRequested {
			limits := cov.Limits
			if limits == "" {
				limits = "TBD"
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", cov.CoverageType, limits))
		}
		requested = strings.Join(parts, ", ")
	}

	text, err := a.gen.Generate(ctx, llm.Request{
		Step:   "coverage_analysis",
		System: coverageAnalysisSystem,
		Prompt: fmt.Sprintf(coverageAnalysisPrompt,
			profile.IndustryDescription,
			industry.IndustryName,
			operationsSummary(profile),
			requested,
			retrieval.FormatContext(docs),
		),
		Temperature: temperature(0.1),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: analyze coverage")
	}

	fields, err := llm.DecodeMap(text)
	if err != nil {
		if errors.Is(err, llm.ErrMalformedJSON) {
			zap.L().Warn("pipeline: unusable coverage analysis response",
				zap.String("client", profile.ClientName))
			return &model.CoverageAnalysis{}, nil
		}
		return nil, eris.Wrap(err, "pipeline: analyze coverage")
	}

	analysis := &model.CoverageAnalysis{
		CoverageGaps: asStringList(fields["coverage_gaps"], "gap", "name", "description"),
	}

	if list, ok := fields["recommended_endorsements"].([]any); ok {
		for _, item := range list {
			row, ok := item.(map[string]any)
			if !ok {
				continue
			}
			endorsement := model.EndorsementRecommendation{
				EndorsementName: asString(row["endorsement_name"]),
				EndorsementType: asString(row["endorsement_type"]),
				Reason:          asString(row["reason"]),
				EstimatedCost:   parseEstimatedCost(row["estimated_cost"]),
				Required:        boolOrDefault(row["required"], false),
			}
			if endorsement.EndorsementType == "" {
				endorsement.EndorsementType = "optional"
			}
			analysis.RecommendedEndorsements = append(analysis.RecommendedEndorsements, endorsement)
		}
	}

	if list, ok := fields["coverage_limitations"].([]any); ok {
		for _, item := range list {
			row, ok := item.(map[string]any)
			if !ok {
				continue
			}
			limitation := model.CoverageLimitation{
				LimitationType: asString(row["limitation_type"]),
				Description:    asString(row["description"]),
				Reason:         asString(row["reason"]),
			}
			if limitation.LimitationType == "" {
				limitation.LimitationType = "exclusion"
			}
			analysis.CoverageLimitations = append(analysis.CoverageLimitations, limitation)
		}
	}

	analysis.Notes = strings.Join(asStringList(fields["notes"]), " ")

	return analysis, nil
}

func operationsSummary(profile *model.ClientProfile) string {
	var parts []string
	if profile.EmployeeCount != nil && *profile.EmployeeCount > 0 {
		parts = append(parts, fmt.Sprintf("%d employees", *profile.EmployeeCount))
	}
	if profile.VehicleCount != nil && *profile.VehicleCount > 0 {
		parts = append(parts, fmt.Sprintf("%d vehicles", *profile.VehicleCount))
	}
	if profile.Location != "" {
		parts = append(parts, fmt.Sprintf("Location: %s", profile.Location))
	}
	if len(parts) == 0 {
		return "Standard operations"
	}
	return strings.Join(parts, ", ")
}

var numberPattern = regexp.MustCompile(`[\d.]+`)

// parseEstimatedCost accepts a bare number or a string like "$500 annually"
// and extracts the first numeric value.
func parseEstimatedCost(v any) *float64 {
	switch cost := v.(type) {
	case float64:
		return &cost
	case string:
		match := numberPattern.FindString(cost)
		if match == "" {
			return nil
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
