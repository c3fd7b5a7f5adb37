package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/underwriting-cli/internal/llm"
	"github.com/sells-group/underwriting-cli/internal/model"
)

const emailParserSystem = `You are an expert insurance underwriting assistant. Your task is to extract structured information from broker quote request emails. Extract all relevant details accurately.`

const emailParserPrompt = `Extract the following information from this broker email quote request. If a field is not mentioned, use null.

EMAIL:
%s

Extract and return a JSON object with these fields:
- client_name: Name of the client/company requesting insurance
- industry_description: Description of what the business does
- location: City, state, or region mentioned
- annual_revenue: Annual revenue as a number (no currency symbols)
- employee_count: Number of employees as integer
- years_in_business: How long the company has been operating
- coverage_requested: Array of objects with coverage_type, limits, and additional_details
- vehicle_count: Number of vehicles if mentioned
- property_value: Value of property/equipment if mentioned
- loss_history: Description of any claims or losses mentioned
- effective_date: When coverage should start
- urgency: Any urgency indicators (e.g., "urgent", "asap", "end of week")
- broker: Object with name, email, phone, brokerage

Be precise with numbers. Convert text like "about $15M" to 15000000.`

// EmailParser turns a raw broker email into a structured ClientProfile.
type EmailParser struct {
	gen llm.Generator
}

func NewEmailParser(gen llm.Generator) *EmailParser {
	return &EmailParser{gen: gen}
}

// Parse extracts structured fields from the email. The raw email is always
// retained on the profile. Every downstream stage depends on this output, so
// a model or decode failure here is fatal to the run.
func (p *EmailParser) Parse(ctx context.Context, emailContent string) (*model.ClientProfile, error) {
	text, err := p.gen.Generate(ctx, llm.Request{
		Step:        "email_parser",
		System:      emailParserSystem,
		Prompt:      fmt.Sprintf(emailParserPrompt, emailContent),
		Temperature: temperature(0.1),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: parse email")
	}

	fields, err := llm.DecodeMap(text)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: parse email")
	}

	profile := &model.ClientProfile{
		ClientName:          asString(fields["client_name"]),
		IndustryDescription: asString(fields["industry_description"]),
		Location:            asString(fields["location"]),
		AnnualRevenue:       asFloat(fields["annual_revenue"]),
		EmployeeCount:       asInt(fields["employee_count"]),
		YearsInBusiness:     asInt(fields["years_in_business"]),
		CoverageRequested:   parseCoverages(fields["coverage_requested"]),
		VehicleCount:        asInt(fields["vehicle_count"]),
		PropertyValue:       asFloat(fields["property_value"]),
		LossHistory:         asString(fields["loss_history"]),
		EffectiveDate:       asString(fields["effective_date"]),
		Urgency:             asString(fields["urgency"]),
		Broker:              parseBroker(fields["broker"]),
		RawEmail:            emailContent,
	}
	if profile.ClientName == "" {
		profile.ClientName = "Unknown Client"
	}
	return profile, nil
}

// parseCoverages accepts both object entries and bare coverage-type strings.
func parseCoverages(v any) []model.CoverageRequest {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	var coverages []model.CoverageRequest
	for _, item := range items {
		switch cov := item.(type) {
		case map[string]any:
			coverageType := asString(cov["coverage_type"])
			if coverageType == "" {
				coverageType = "unknown"
			}
			coverages = append(coverages, model.CoverageRequest{
				CoverageType: coverageType,
				Limits:       asString(cov["limits"]),
				Details:      asString(cov["additional_details"]),
			})
		case string:
			coverages = append(coverages, model.CoverageRequest{CoverageType: cov})
		}
	}
	return coverages
}

func parseBroker(v any) *model.BrokerContact {
	fields, ok := v.(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return &model.BrokerContact{
		Name:      asString(fields["name"]),
		Email:     asString(fields["email"]),
		Phone:     asString(fields["phone"]),
		Brokerage: asString(fields["brokerage"]),
	}
}
