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

const industryClassifierSystem = `You are an insurance industry classification expert. Your task is to determine the correct Business Industry Classification (BIC) code based on business descriptions.`

const industryClassifierPrompt = `Based on the business description and the reference BIC codes provided, determine the most appropriate industry classification.

BUSINESS DESCRIPTION:
%s

REFERENCE BIC CODES:
%s

Return a JSON object with:
- bic_code: The most appropriate BIC code
- industry_name: The industry name
- risk_category: LOW, MEDIUM, or HIGH
- confidence_score: Your confidence from 0.0 to 1.0
- matching_keywords: Array of keywords that matched
- subcategory: Specific subcategory if applicable

Choose the most specific code that matches the business.`

// Classifier assigns a BIC code to the client using reference codes
// retrieved from the bic_codes collection.
type Classifier struct {
	gen    llm.Generator
	search retrieval.Searcher
	limit  int
}

func NewClassifier(gen llm.Generator, search retrieval.Searcher, limit int) *Classifier {
	return &Classifier{gen: gen, search: search, limit: limit}
}

// Classify never fails the run over an unusable model answer: a malformed
// response degrades to the unknown classification so the pipeline can keep
// going with conservative defaults.
func (c *Classifier) Classify(ctx context.Context, profile *model.ClientProfile) (*model.IndustryClassification, error) {
	query := fmt.Sprintf("%s %s", profile.IndustryDescription, profile.ClientName)

	docs, err := c.search.Search(ctx, model.CollectionBICCodes, query, c.limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: classify industry")
	}

	text, err := c.gen.Generate(ctx, llm.Request{
		Step:        "industry_classifier",
		System:      industryClassifierSystem,
		Prompt:      fmt.Sprintf(industryClassifierPrompt, profile.IndustryDescription, retrieval.FormatContext(docs)),
		Temperature: temperature(0.1),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: classify industry")
	}

	fields, err := llm.DecodeMap(text)
	if err != nil {
		if errors.Is(err, llm.ErrMalformedJSON) {
			zap.L().Warn("pipeline: unusable classification response, using unknown classification",
				zap.String("client", profile.ClientName))
			return unknownClassification(), nil
		}
		return nil, eris.Wrap(err, "pipeline: classify industry")
	}

	classification := &model.IndustryClassification{
		BICCode:          asString(fields["bic_code"]),
		IndustryName:     asString(fields["industry_name"]),
		RiskCategory:     model.ParseRiskCategory(asString(fields["risk_category"])),
		ConfidenceScore:  clampFloat(floatOrDefault(fields["confidence_score"], 0.5), 0, 1),
		MatchingKeywords: asStringList(fields["matching_keywords"]),
		Subcategory:      asString(fields["subcategory"]),
	}
	if classification.BICCode == "" {
		classification.BICCode = model.UnknownBICCode
	}
	if classification.IndustryName == "" {
		classification.IndustryName = "Unknown"
	}
	return classification, nil
}

func unknownClassification() *model.IndustryClassification {
	return &model.IndustryClassification{
		BICCode:         model.UnknownBICCode,
		IndustryName:    "Unknown",
		RiskCategory:    model.RiskCategoryMedium,
		ConfidenceScore: 0.5,
	}
}
