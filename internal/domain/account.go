package domain

import "time"

// Plan enumerates subscription tiers.
type Plan string

const (
	PlanNone    Plan = "none"
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
)

// ParsePlan normalizes a stored plan label, treating anything unknown as none.
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanMonthly:
		return PlanMonthly
	case PlanAnnual:
		return PlanAnnual
	default:
		return PlanNone
	}
}

// Account is the per-user credit balance and subscription record.
// The credits column never goes observably negative: debits are conditional
// updates at the storage layer, not read-modify-write cycles.
type Account struct {
	UserID         string
	Credits        int
	Plan           Plan
	SubscriptionID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
