package entity

// PlanKey is the closed set of access tiers. New tiers are added here and in
// plan.Catalog; string comparison against raw user input is never done
// directly, it goes through plan.Canonicalize first.
type PlanKey string

const (
	PlanTrial    PlanKey = "TRIAL"
	PlanAnnual   PlanKey = "ANNUAL"
	PlanPlus     PlanKey = "PLUS"
	PlanBase     PlanKey = "BASE"
	PlanCampaign PlanKey = "CAMPAIGN"
)

func (p PlanKey) Valid() bool {
	switch p {
	case PlanTrial, PlanAnnual, PlanPlus, PlanBase, PlanCampaign:
		return true
	default:
		return false
	}
}
