package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// Payroll is rarely stated in broker emails; industry shorthand puts it
// around a third of revenue.
const payrollRevenueFraction = 0.35

// Fallback revenue when neither the email nor the estimator produced one.
const fallbackRevenue = 1000000

// PremiumCalculator applies discovered rates to exposure values. Pure
// arithmetic: the same inputs and timestamp always produce the same output.
type PremiumCalculator struct{}

func NewPremiumCalculator() *PremiumCalculator {
	return &PremiumCalculator{}
}

// Calculate computes one line item per rate and totals them. Stated revenue
// wins over an estimate; the minimum premium floors each line.
func (c *PremiumCalculator) Calculate(profile *model.ClientProfile, rates []model.RateInfo, estimate *model.RevenueEstimate, at time.Time) *model.PremiumCalculation {
	revenue := float64(fallbackRevenue)
	if profile.AnnualRevenue != nil {
		revenue = *profile.AnnualRevenue
	} else if estimate != nil {
		revenue = estimate.EstimatedRevenue
	}

	payroll := revenue * payrollRevenueFraction
	propertyValue := 0.0
	if profile.PropertyValue != nil {
		propertyValue = *profile.PropertyValue
	}
	vehicleCount := 0
	if profile.VehicleCount != nil {
		vehicleCount = *profile.VehicleCount
	}

	lineItems := make([]model.PremiumLineItem, 0, len(rates))
	total := 0.0
	for _, rate := range rates {
		item := calculateLineItem(rate, revenue, payroll, propertyValue, vehicleCount)
		lineItems = append(lineItems, item)
		total += item.BasePremium
	}

	return &model.PremiumCalculation{
		LineItems:            lineItems,
		TotalBasePremium:     round2(total),
		CalculationTimestamp: at,
	}
}

func calculateLineItem(rate model.RateInfo, revenue, payroll, propertyValue float64, vehicleCount int) model.PremiumLineItem {
	var exposure, premium float64
	var notes string

	switch rate.RateBasis {
	case model.RateBasisPer1000Revenue:
		exposure = revenue
		premium = rate.BaseRate * exposure / 1000
		notes = fmt.Sprintf("%s revenue / 1000 * $%s", dollars(exposure), formatRate(rate.BaseRate))
	case model.RateBasisPer100Payroll:
		exposure = payroll
		premium = rate.BaseRate * exposure / 100
		notes = fmt.Sprintf("%s payroll / 100 * $%s", dollars(exposure), formatRate(rate.BaseRate))
	case model.RateBasisPerVehicle:
		exposure = float64(vehicleCount)
		premium = rate.BaseRate * exposure
		notes = fmt.Sprintf("%d vehicles * $%s per vehicle", vehicleCount, formatRate(rate.BaseRate))
	case model.RateBasisPercentOfTIV:
		exposure = propertyValue
		premium = exposure * rate.BaseRate / 100
		notes = fmt.Sprintf("%s property value * %s%%", dollars(exposure), formatRate(rate.BaseRate))
	default:
		exposure = revenue
		premium = rate.BaseRate * exposure / 1000
		notes = "Default revenue-based calculation"
	}

	final := premium
	if final < rate.MinimumPremium {
		final = rate.MinimumPremium
		notes += " (minimum premium applied)"
	}

	return model.PremiumLineItem{
		CoverageType:     rate.CoverageType,
		BasePremium:      round2(final),
		RateUsed:         rate.BaseRate,
		RateBasis:        rate.RateBasis,
		ExposureValue:    exposure,
		CalculationNotes: notes,
	}
}

// formatRate prints a rate with no trailing zeros, so 5.0 reads "$5" and
// 0.35 reads "0.35".
func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
