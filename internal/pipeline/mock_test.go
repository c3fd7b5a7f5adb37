package pipeline

import (
	"context"
	"fmt"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/model"
)

// stepGenerator returns a canned response per pipeline step name and records
// every request it sees.
type stepGenerator struct {
	responses map[string]string
	errs      map[string]error
	requests  []llm.Request
}

func (g *stepGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.requests = append(g.requests, req)
	if err, ok := g.errs[req.Step]; ok {
		return "", err
	}
	if resp, ok := g.responses[req.Step]; ok {
		return resp, nil
	}
	return "", fmt.Errorf("no canned response for step %q", req.Step)
}

func (g *stepGenerator) lastRequest() llm.Request {
	if len(g.requests) == 0 {
		return llm.Request{}
	}
	return g.requests[len(g.requests)-1]
}

// staticSearcher returns a fixed document set per collection and records
// queries.
type staticSearcher struct {
	docs    map[string][]model.Document
	err     error
	queries []string
}

func (s *staticSearcher) Search(_ context.Context, collection, query string, _ int) ([]model.Document, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.docs[collection], nil
}

func referenceDocs(collection string, n int) []model.Document {
	docs := make([]model.Document, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, model.Document{
			ID:         fmt.Sprintf("%s-%d", collection, i),
			Collection: collection,
			Name:       fmt.Sprintf("%s doc %d", collection, i),
			Content:    "reference content",
		})
	}
	return docs
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// sampleProfile is a typical parsed broker submission used across stage
// tests.
func sampleProfile() *model.ClientProfile {
	return &model.ClientProfile{
		ClientName:          "Acme Roofing LLC",
		IndustryDescription: "Commercial roofing contractor",
		Location:            "Austin, TX",
		AnnualRevenue:       floatPtr(1000000),
		EmployeeCount:       intPtr(12),
		YearsInBusiness:     intPtr(8),
		CoverageRequested: []model.CoverageRequest{
			{CoverageType: "general_liability", Limits: "$2M/$4M"},
		},
		RawEmail: "quote request",
	}
}

func sampleClassification() *model.IndustryClassification {
	return &model.IndustryClassification{
		BICCode:         "23",
		IndustryName:    "Construction - General",
		RiskCategory:    model.RiskCategoryMedium,
		ConfidenceScore: 0.9,
	}
}
