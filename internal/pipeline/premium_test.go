package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/model"
)

var calcTime = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

func glRate(baseRate, minPremium float64) model.RateInfo {
	return model.RateInfo{
		BICCode:        "23",
		CoverageType:   "general_liability",
		BaseRate:       baseRate,
		RateBasis:      model.RateBasisPer1000Revenue,
		MinimumPremium: minPremium,
	}
}

func TestPremiumCalculator_RevenueBasis(t *testing.T) {
	calc := NewPremiumCalculator().Calculate(sampleProfile(), []model.RateInfo{glRate(5.0, 1000)}, nil, calcTime)

	require.Len(t, calc.LineItems, 1)
	item := calc.LineItems[0]
	assert.Equal(t, float64(5000), item.BasePremium)
	assert.Equal(t, float64(1000000), item.ExposureValue)
	assert.Equal(t, "$1,000,000 revenue / 1000 * $5", item.CalculationNotes)
	assert.Equal(t, float64(5000), calc.TotalBasePremium)
	assert.Equal(t, calcTime, calc.CalculationTimestamp)
}

func TestPremiumCalculator_MinimumPremiumFloor(t *testing.T) {
	profile := sampleProfile()
	profile.AnnualRevenue = floatPtr(100000)

	calc := NewPremiumCalculator().Calculate(profile, []model.RateInfo{glRate(5.0, 1500)}, nil, calcTime)

	require.Len(t, calc.LineItems, 1)
	item := calc.LineItems[0]
	assert.Equal(t, float64(1500), item.BasePremium)
	assert.Contains(t, item.CalculationNotes, "(minimum premium applied)")
}

func TestPremiumCalculator_VehicleBasis(t *testing.T) {
	profile := sampleProfile()
	profile.VehicleCount = intPtr(10)

	rate := model.RateInfo{
		CoverageType:   "auto_liability",
		BaseRate:       750,
		RateBasis:      model.RateBasisPerVehicle,
		MinimumPremium: 1500,
	}
	calc := NewPremiumCalculator().Calculate(profile, []model.RateInfo{rate}, nil, calcTime)

	require.Len(t, calc.LineItems, 1)
	assert.Equal(t, float64(7500), calc.LineItems[0].BasePremium)
	assert.Equal(t, "10 vehicles * $750 per vehicle", calc.LineItems[0].CalculationNotes)
}

func TestPremiumCalculator_PropertyBasis(t *testing.T) {
	profile := sampleProfile()
	profile.PropertyValue = floatPtr(500000)

	rate := model.RateInfo{
		CoverageType:   "property",
		BaseRate:       0.5,
		RateBasis:      model.RateBasisPercentOfTIV,
		MinimumPremium: 1000,
	}
	calc := NewPremiumCalculator().Calculate(profile, []model.RateInfo{rate}, nil, calcTime)

	require.Len(t, calc.LineItems, 1)
	assert.Equal(t, float64(2500), calc.LineItems[0].BasePremium)
	assert.Equal(t, "$500,000 property value * 0.5%", calc.LineItems[0].CalculationNotes)
}

func TestPremiumCalculator_PayrollBasis(t *testing.T) {
	rate := model.RateInfo{
		CoverageType:   "workers_comp",
		BaseRate:       2.0,
		RateBasis:      model.RateBasisPer100Payroll,
		MinimumPremium: 1000,
	}
	calc := NewPremiumCalculator().Calculate(sampleProfile(), []model.RateInfo{rate}, nil, calcTime)

	// Payroll estimated at 35% of $1M revenue.
	require.Len(t, calc.LineItems, 1)
	assert.Equal(t, float64(7000), calc.LineItems[0].BasePremium)
	assert.Equal(t, float64(350000), calc.LineItems[0].ExposureValue)
}

func TestPremiumCalculator_EstimateUsedWhenRevenueMissing(t *testing.T) {
	profile := sampleProfile()
	profile.AnnualRevenue = nil

	estimate := &model.RevenueEstimate{EstimatedRevenue: 2000000}
	calc := NewPremiumCalculator().Calculate(profile, []model.RateInfo{glRate(5.0, 1000)}, estimate, calcTime)

	assert.Equal(t, float64(10000), calc.TotalBasePremium)
}

func TestPremiumCalculator_FallbackRevenue(t *testing.T) {
	profile := sampleProfile()
	profile.AnnualRevenue = nil

	calc := NewPremiumCalculator().Calculate(profile, []model.RateInfo{glRate(5.0, 1000)}, nil, calcTime)

	// No revenue anywhere: $1M fallback.
	assert.Equal(t, float64(5000), calc.TotalBasePremium)
}

func TestPremiumCalculator_Deterministic(t *testing.T) {
	rates := []model.RateInfo{glRate(5.0, 1000), {
		CoverageType:   "property",
		BaseRate:       0.35,
		RateBasis:      model.RateBasisPercentOfTIV,
		MinimumPremium: 1000,
	}}
	profile := sampleProfile()
	profile.PropertyValue = floatPtr(750000)

	first := NewPremiumCalculator().Calculate(profile, rates, nil, calcTime)
	second := NewPremiumCalculator().Calculate(profile, rates, nil, calcTime)
	assert.Equal(t, first, second)
}

func TestPremiumCalculator_TotalsAllLines(t *testing.T) {
	profile := sampleProfile()
	profile.PropertyValue = floatPtr(500000)
	profile.VehicleCount = intPtr(4)

	rates := []model.RateInfo{
		glRate(5.0, 1000),
		{CoverageType: "property", BaseRate: 0.5, RateBasis: model.RateBasisPercentOfTIV, MinimumPremium: 1000},
		{CoverageType: "auto_liability", BaseRate: 750, RateBasis: model.RateBasisPerVehicle, MinimumPremium: 1500},
	}

	calc := NewPremiumCalculator().Calculate(profile, rates, nil, calcTime)
	assert.Equal(t, float64(5000+2500+3000), calc.TotalBasePremium)
}
