package entitlements

import "strings"

type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanCreator Plan = "CREATOR"
	PlanPremium Plan = "PREMIUM"
)

// Limits describes what a subscription tier allows. Numeric limits apply per
// calendar month and are non-decreasing from FREE to PREMIUM.
type Limits struct {
	AIGenerations     int
	Posts             int
	Platforms         int
	TeamMembers       int
	MonthlyPriceMinor int
	SchedulingEnabled bool
	AnalyticsEnabled  bool
}

// planCatalog is the static plan table. It is read-only configuration and is
// never mutated at runtime.
var planCatalog = map[Plan]Limits{
	PlanFree: {
		AIGenerations:     15,
		Posts:             5,
		Platforms:         2,
		TeamMembers:       1,
		MonthlyPriceMinor: 0,
		SchedulingEnabled: false,
		AnalyticsEnabled:  false,
	},
	PlanCreator: {
		AIGenerations:     100,
		Posts:             50,
		Platforms:         4,
		TeamMembers:       3,
		MonthlyPriceMinor: 499,
		SchedulingEnabled: true,
		AnalyticsEnabled:  true,
	},
	PlanPremium: {
		AIGenerations:     500,
		Posts:             200,
		Platforms:         8,
		TeamMembers:       10,
		MonthlyPriceMinor: 999,
		SchedulingEnabled: true,
		AnalyticsEnabled:  true,
	},
}

// defaultLimits is used for empty or unrecognized plan values. It is
// intentionally stricter than FREE: accounts with a missing or legacy plan
// string get the minimum allowance until their plan is repaired.
var defaultLimits = Limits{
	AIGenerations:     5,
	Posts:             3,
	Platforms:         1,
	TeamMembers:       1,
	MonthlyPriceMinor: 0,
	SchedulingEnabled: false,
	AnalyticsEnabled:  false,
}

// ParsePlan maps a stored plan string to a known tier.
func ParsePlan(plan string) (Plan, bool) {
	switch Plan(strings.ToUpper(strings.TrimSpace(plan))) {
	case PlanFree:
		return PlanFree, true
	case PlanCreator:
		return PlanCreator, true
	case PlanPremium:
		return PlanPremium, true
	default:
		return "", false
	}
}

// GetPlanLimits returns the limits tuple for a plan string. Unknown or empty
// plans fall back to defaultLimits, not to the FREE tier.
func GetPlanLimits(plan string) Limits {
	p, ok := ParsePlan(plan)
	if !ok {
		return defaultLimits
	}
	return planCatalog[p]
}

// Rank orders tiers for upgrade comparisons.
func Rank(plan string) int {
	switch p, _ := ParsePlan(plan); p {
	case PlanPremium:
		return 2
	case PlanCreator:
		return 1
	default:
		return 0
	}
}

// DisplayName returns the user-facing tier name.
func DisplayName(plan Plan) string {
	switch plan {
	case PlanCreator:
		return "Creator"
	case PlanPremium:
		return "Premium"
	default:
		return "Free"
	}
}

// IsPaid reports whether the tier carries a monthly price.
func IsPaid(plan Plan) bool {
	return planCatalog[plan].MonthlyPriceMinor > 0
}

// SchedulingAllowed reports whether the plan may schedule posts for later.
func SchedulingAllowed(plan string) bool {
	return GetPlanLimits(plan).SchedulingEnabled
}

// AnalyticsAllowed reports whether the plan includes the analytics summary.
func AnalyticsAllowed(plan string) bool {
	return GetPlanLimits(plan).AnalyticsEnabled
}
