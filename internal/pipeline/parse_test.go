package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailParser_ExtractsFields(t *testing.T) {
	gen := &stepGenerator{responses: map[string]string{
		"email_parser": `{
			"client_name": "Acme Roofing LLC",
			"industry_description": "Commercial roofing contractor",
			"location": "Austin, TX",
			"annual_revenue": "$15M",
			"employee_count": 42,
			"years_in_business": "12",
			"coverage_requested": [
				{"coverage_type": "general_liability", "limits": "$2M/$4M", "additional_details": "including completed ops"},
				"umbrella"
			],
			"vehicle_count": "10",
			"property_value": "250K",
			"loss_history": "One claim in 2023",
			"effective_date": "2026-10-01",
			"urgency": "asap",
			"broker": {"name": "Pat Lee", "email": "pat@brokerage.com", "brokerage": "Lee & Co"}
		}`,
	}}

	profile, err := NewEmailParser(gen).Parse(context.Background(), "raw email body")
	require.NoError(t, err)

	assert.Equal(t, "Acme Roofing LLC", profile.ClientName)
	require.NotNil(t, profile.AnnualRevenue)
	assert.Equal(t, float64(15000000), *profile.AnnualRevenue)
	require.NotNil(t, profile.PropertyValue)
	assert.Equal(t, float64(250000), *profile.PropertyValue)
	require.NotNil(t, profile.EmployeeCount)
	assert.Equal(t, 42, *profile.EmployeeCount)
	require.NotNil(t, profile.YearsInBusiness)
	assert.Equal(t, 12, *profile.YearsInBusiness)
	require.NotNil(t, profile.VehicleCount)
	assert.Equal(t, 10, *profile.VehicleCount)

	require.Len(t, profile.CoverageRequested, 2)
	assert.Equal(t, "general_liability", profile.CoverageRequested[0].CoverageType)
	assert.Equal(t, "$2M/$4M", profile.CoverageRequested[0].Limits)
	assert.Equal(t, "including completed ops", profile.CoverageRequested[0].Details)
	assert.Equal(t, "umbrella", profile.CoverageRequested[1].CoverageType)

	require.NotNil(t, profile.Broker)
	assert.Equal(t, "Pat Lee", profile.Broker.Name)
	assert.Equal(t, "Lee & Co", profile.Broker.Brokerage)

	assert.Equal(t, "raw email body", profile.RawEmail)

	req := gen.lastRequest()
	assert.Equal(t, "email_parser", req.Step)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.1, *req.Temperature)
	assert.Contains(t, req.Prompt, "raw email body")
}

func TestEmailParser_UnparseableNumbersStayNil(t *testing.T) {
	gen := &stepGenerator{responses: map[string]string{
		"email_parser": `{
			"client_name": "Acme",
			"industry_description": "widgets",
			"annual_revenue": "ten million",
			"employee_count": null
		}`,
	}}

	profile, err := NewEmailParser(gen).Parse(context.Background(), "email")
	require.NoError(t, err)

	assert.Nil(t, profile.AnnualRevenue)
	assert.Nil(t, profile.EmployeeCount)
	assert.Nil(t, profile.Broker)
	assert.Empty(t, profile.CoverageRequested)
}

func TestEmailParser_DefaultsClientName(t *testing.T) {
	gen := &stepGenerator{responses: map[string]string{
		"email_parser": `{"industry_description": "widgets"}`,
	}}

	profile, err := NewEmailParser(gen).Parse(context.Background(), "email")
	require.NoError(t, err)
	assert.Equal(t, "Unknown Client", profile.ClientName)
}

func TestEmailParser_StripsCodeFences(t *testing.T) {
	gen := &stepGenerator{responses: map[string]string{
		"email_parser": "```json\n{\"client_name\": \"Fenced Co\"}\n```",
	}}

	profile, err := NewEmailParser(gen).Parse(context.Background(), "email")
	require.NoError(t, err)
	assert.Equal(t, "Fenced Co", profile.ClientName)
}

func TestEmailParser_MalformedResponseFails(t *testing.T) {
	gen := &stepGenerator{responses: map[string]string{
		"email_parser": "I could not parse that email.",
	}}

	_, err := NewEmailParser(gen).Parse(context.Background(), "email")
	require.Error(t, err)
}

func TestAsFloat_MoneyFormats(t *testing.T) {
	tests := []struct {
		in   any
		want *float64
	}{
		{float64(15000000), floatPtr(15000000)},
		{"$15M", floatPtr(15000000)},
		{"250K", floatPtr(250000)},
		{"1,500,000", floatPtr(1500000)},
		{"$2.5m", floatPtr(2500000)},
		{"ten million", nil},
		{"", nil},
		{nil, nil},
		{true, nil},
	}
	for _, tt := range tests {
		got := asFloat(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %v", tt.in)
		} else {
			require.NotNil(t, got, "input %v", tt.in)
			assert.Equal(t, *tt.want, *got, "input %v", tt.in)
		}
	}
}
