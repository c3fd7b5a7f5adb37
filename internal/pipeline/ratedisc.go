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

const rateDiscoverySystem = `You are an insurance rating specialist. Extract applicable base rates from rating manuals.`

const rateDiscoveryPrompt = `Find the applicable base rates for this insurance quote.

INDUSTRY: %s (BIC Code: %s)
COVERAGES REQUESTED: %s

RATING MANUAL EXCERPTS:
%s

Return a JSON object with an array of rate_info objects, each containing:
- bic_code: The BIC code
- coverage_type: The type of coverage (general_liability, property, auto_liability, workers_comp, etc.)
- base_rate: The base rate number
- rate_basis: What the rate applies to (per_1000_revenue, percent_of_tiv, per_vehicle, per_100_payroll)
- minimum_premium: Minimum premium for this coverage
- source_document: Name of the source document

Only include rates for coverages that were requested.`

// RateDiscovery extracts applicable base rates from rating manual excerpts
// retrieved from the rating_manuals collection.
type RateDiscovery struct {
	gen    llm.Generator
	search retrieval.Searcher
	limit  int
}

func NewRateDiscovery(gen llm.Generator, search retrieval.Searcher, limit int) *RateDiscovery {
	return &RateDiscovery{gen: gen, search: search, limit: limit}
}

// Discover returns at least one rate: when the manuals yield nothing usable
// it falls back to conservative defaults keyed off the coverages the email
// actually exposes.
func (r *RateDiscovery) Discover(ctx context.Context, profile *model.ClientProfile, industry *model.IndustryClassification) ([]model.RateInfo, error) {
	coverages := "general_liability, property"
	if len(profile.CoverageRequested) > 0 {
		names := make([]string, 0, len(profile.CoverageRequested))
		for _, cov := range profile.CoverageRequested {
			names = append(names, cov.CoverageType)
		}
		coverages = strings.Join(names, ", ")
	}

	query := fmt.Sprintf("Base rates %s BIC %s %s", industry.IndustryName, industry.BICCode, coverages)
	docs, err := r.search.Search(ctx, model.CollectionRatingManuals, query, r.limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: discover rates")
	}

	text, err := r.gen.Generate(ctx, llm.Request{
		Step:        "rate_discovery",
		System:      rateDiscoverySystem,
		Prompt:      fmt.Sprintf(rateDiscoveryPrompt, industry.IndustryName, industry.BICCode, coverages, retrieval.FormatContext(docs)),
		Temperature: temperature(0.1),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: discover rates")
	}

	fields, err := llm.DecodeMap(text)
	if err != nil {
		if errors.Is(err, llm.ErrMalformedJSON) {
			zap.L().Warn("pipeline: unusable rate discovery response, using default rates",
				zap.String("bic_code", industry.BICCode))
			return defaultRates(profile, industry), nil
		}
		return nil, eris.Wrap(err, "pipeline: discover rates")
	}

	// Models sometimes name the array "rates" instead of "rate_info".
	items := fields["rate_info"]
	if items == nil {
		items = fields["rates"]
	}

	var rates []model.RateInfo
	if list, ok := items.([]any); ok {
		for _, item := range list {
			row, ok := item.(map[string]any)
			if !ok {
				continue
			}
			rate := model.RateInfo{
				BICCode:        asString(row["bic_code"]),
				CoverageType:   asString(row["coverage_type"]),
				BaseRate:       floatOrDefault(row["base_rate"], 0),
				RateBasis:      model.NormalizeRateBasis(asString(row["rate_basis"])),
				MinimumPremium: floatOrDefault(row["minimum_premium"], 1000),
				SourceDocument: asString(row["source_document"]),
			}
			if rate.BICCode == "" {
				rate.BICCode = industry.BICCode
			}
			if rate.CoverageType == "" {
				rate.CoverageType = "unknown"
			}
			if rate.MinimumPremium == 0 {
				rate.MinimumPremium = 1000
			}
			rates = append(rates, rate)
		}
	}

	if len(rates) == 0 {
		rates = defaultRates(profile, industry)
	}
	return rates, nil
}

// defaultRates covers the run when no usable rates come back: general
// liability always, property and auto only when the email exposed those
// values.
func defaultRates(profile *model.ClientProfile, industry *model.IndustryClassification) []model.RateInfo {
	rates := []model.RateInfo{{
		BICCode:        industry.BICCode,
		CoverageType:   "general_liability",
		BaseRate:       5.0,
		RateBasis:      model.RateBasisPer1000Revenue,
		MinimumPremium: 1500,
	}}

	if profile.PropertyValue != nil {
		rates = append(rates, model.RateInfo{
			BICCode:        industry.BICCode,
			CoverageType:   "property",
			BaseRate:       0.35,
			RateBasis:      model.RateBasisPercentOfTIV,
			MinimumPremium: 1000,
		})
	}

	if profile.VehicleCount != nil {
		rates = append(rates, model.RateInfo{
			BICCode:        industry.BICCode,
			CoverageType:   "auto_liability",
			BaseRate:       750,
			RateBasis:      model.RateBasisPerVehicle,
			MinimumPremium: 1500,
		})
	}

	return rates
}
