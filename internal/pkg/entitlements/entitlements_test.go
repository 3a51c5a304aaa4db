package entitlements

import "testing"

func TestParsePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
		ok   bool
	}{
		{in: "FREE", want: PlanFree, ok: true},
		{in: "creator", want: PlanCreator, ok: true},
		{in: " premium ", want: PlanPremium, ok: true},
		{in: "", want: "", ok: false},
		{in: "ENTERPRISE", want: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParsePlan(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParsePlan(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLimitsAreMonotonic(t *testing.T) {
	order := []Plan{PlanFree, PlanCreator, PlanPremium}
	for i := 1; i < len(order); i++ {
		lower := planCatalog[order[i-1]]
		upper := planCatalog[order[i]]
		if upper.AIGenerations < lower.AIGenerations {
			t.Fatalf("%s allows fewer AI generations than %s", order[i], order[i-1])
		}
		if upper.Posts < lower.Posts {
			t.Fatalf("%s allows fewer posts than %s", order[i], order[i-1])
		}
		if upper.Platforms < lower.Platforms {
			t.Fatalf("%s allows fewer platforms than %s", order[i], order[i-1])
		}
		if upper.TeamMembers < lower.TeamMembers {
			t.Fatalf("%s allows fewer team members than %s", order[i], order[i-1])
		}
		if upper.MonthlyPriceMinor < lower.MonthlyPriceMinor {
			t.Fatalf("%s is cheaper than %s", order[i], order[i-1])
		}
	}
}

func TestUnknownPlanFallsBackToDefaultLimits(t *testing.T) {
	got := GetPlanLimits("legacy_gold")
	if got != defaultLimits {
		t.Fatalf("expected default limits for unknown plan, got %+v", got)
	}

	// The fallback is deliberately stricter than FREE, not an alias for it.
	free := planCatalog[PlanFree]
	if got.AIGenerations >= free.AIGenerations || got.Posts >= free.Posts || got.Platforms >= free.Platforms {
		t.Fatalf("default limits %+v are not stricter than FREE %+v", got, free)
	}
}

func TestRank(t *testing.T) {
	if Rank("FREE") >= Rank("CREATOR") {
		t.Fatalf("expected CREATOR to outrank FREE")
	}
	if Rank("CREATOR") >= Rank("PREMIUM") {
		t.Fatalf("expected PREMIUM to outrank CREATOR")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   Plan
		want string
	}{
		{in: PlanFree, want: "Free"},
		{in: PlanCreator, want: "Creator"},
		{in: PlanPremium, want: "Premium"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Fatalf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFeatureGates(t *testing.T) {
	if SchedulingAllowed("FREE") {
		t.Fatalf("FREE must not allow scheduling")
	}
	if !SchedulingAllowed("CREATOR") || !SchedulingAllowed("PREMIUM") {
		t.Fatalf("paid tiers must allow scheduling")
	}
	if AnalyticsAllowed("") {
		t.Fatalf("unknown plan must not allow analytics")
	}
	if !AnalyticsAllowed("PREMIUM") {
		t.Fatalf("PREMIUM must allow analytics")
	}
}
