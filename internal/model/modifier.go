package model

// ModifierDetail is a single credit or debit applied to the base premium.
// ModifierValue is a signed fraction (-0.10 = 10% credit); PremiumImpact is
// the dollar effect on the base premium.
type ModifierDetail struct {
	ModifierName  string  `json:"modifier_name"`
	ModifierType  string  `json:"modifier_type"`
	ModifierValue float64 `json:"modifier_value"`
	Reason        string  `json:"reason"`
	PremiumImpact float64 `json:"premium_impact"`
}

// ModifierResult aggregates all applied modifiers. The dollar-impact sum is
// authoritative: AdjustedPremium = base + TotalModifierImpact, never derived
// from the percentage sum. TotalModifierPercentage is additive across
// modifiers (not compounded) and is informational only.
type ModifierResult struct {
	ModifiersApplied        []ModifierDetail `json:"modifiers_applied"`
	TotalModifierImpact     float64          `json:"total_modifier_impact"`
	TotalModifierPercentage float64          `json:"total_modifier_percentage"`
	AdjustedPremium         float64          `json:"adjusted_premium"`
}
