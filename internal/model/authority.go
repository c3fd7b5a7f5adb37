package model

// AuthorityLevel is the organizational tier required to approve a quote.
type AuthorityLevel string

const (
	AuthorityStandard    AuthorityLevel = "standard"
	AuthoritySenior      AuthorityLevel = "senior"
	AuthorityManagement  AuthorityLevel = "management"
	AuthorityReinsurance AuthorityLevel = "reinsurance"
)

// rank orders authority levels for monotonic escalation comparisons.
func (l AuthorityLevel) rank() int {
	switch l {
	case AuthoritySenior:
		return 1
	case AuthorityManagement:
		return 2
	case AuthorityReinsurance:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above other in the approval hierarchy.
func (l AuthorityLevel) AtLeast(other AuthorityLevel) bool {
	return l.rank() >= other.rank()
}

// AuthorityCheck is the output of the authority-check stage.
type AuthorityCheck struct {
	AuthorityLevel   AuthorityLevel `json:"authority_level"`
	RequiresApproval bool           `json:"requires_approval"`
	ApprovalReason   string         `json:"approval_reason,omitempty"`
	ApproverRole     string         `json:"approver_role,omitempty"`
	AutoBindEligible bool           `json:"auto_bind_eligible"`
	ReferralReasons  []string       `json:"referral_reasons,omitempty"`
}
