package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// Premium thresholds for each authority tier, inclusive upper bounds.
const (
	standardMaxPremium   = 50000
	seniorMaxPremium     = 150000
	managementMaxPremium = 500000
)

// Loss-history phrasing that forces an escalation regardless of premium.
var adverseLossKeywords = []string{"multiple", "several", "frequent", "large", "major"}

// CheckAuthority determines the approval tier for a quote from the adjusted
// premium, industry risk, loss history, and business age. Deterministic rule
// evaluation, no model involved; escalations only ever move the tier
// upward.
func CheckAuthority(profile *model.ClientProfile, industry *model.IndustryClassification, mods *model.ModifierResult) *model.AuthorityCheck {
	premium := mods.AdjustedPremium
	var reasons []string

	var level model.AuthorityLevel
	switch {
	case premium <= standardMaxPremium:
		level = model.AuthorityStandard
	case premium <= seniorMaxPremium:
		level = model.AuthoritySenior
		reasons = append(reasons, fmt.Sprintf("Premium %s exceeds standard authority", dollars(premium)))
	case premium <= managementMaxPremium:
		level = model.AuthorityManagement
		reasons = append(reasons, fmt.Sprintf("Premium %s requires management approval", dollars(premium)))
	default:
		level = model.AuthorityReinsurance
		reasons = append(reasons, fmt.Sprintf("Premium %s exceeds treaty limits", dollars(premium)))
	}

	if industry.RiskCategory == model.RiskCategoryHigh {
		if level == model.AuthorityStandard {
			level = model.AuthoritySenior
		}
		reasons = append(reasons, fmt.Sprintf("High-risk industry: %s", industry.IndustryName))
	}

	if hasAdverseLossHistory(profile.LossHistory) {
		switch level {
		case model.AuthorityStandard:
			level = model.AuthoritySenior
		case model.AuthoritySenior:
			level = model.AuthorityManagement
		}
		reasons = append(reasons, "Adverse loss history requires review")
	}

	if years := profile.YearsInBusiness; years != nil && *years > 0 && *years < 2 {
		reasons = append(reasons, "New venture - less than 2 years in business")
	}

	check := &model.AuthorityCheck{
		AuthorityLevel:   level,
		RequiresApproval: level != model.AuthorityStandard,
		AutoBindEligible: level == model.AuthorityStandard && industry.RiskCategory != model.RiskCategoryHigh && len(reasons) == 0,
		ReferralReasons:  reasons,
	}
	if len(reasons) > 0 {
		check.ApprovalReason = strings.Join(reasons, "; ")
	}

	switch level {
	case model.AuthoritySenior:
		check.ApproverRole = "Senior Underwriter"
	case model.AuthorityManagement:
		check.ApproverRole = "Underwriting Manager"
	case model.AuthorityReinsurance:
		check.ApproverRole = "Reinsurance Team"
	}

	return check
}

func hasAdverseLossHistory(lossHistory string) bool {
	if lossHistory == "" {
		return false
	}
	lower := strings.ToLower(lossHistory)
	for _, keyword := range adverseLossKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
