package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/internal/pkg/database"
	"github.com/zyvarin/zyvarin-social/internal/pkg/entitlements"
	"github.com/zyvarin/zyvarin-social/internal/pkg/usage"
)

// HandleGetUsage returns the caller's current-month usage against their plan
// limits, plus the platform-connection allowance.
func HandleGetUsage(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	limiter := usage.NewLimiterFromDB(database.GetDB())
	limits := entitlements.GetPlanLimits(userCtx.Plan)
	plan, _ := entitlements.ParsePlan(userCtx.Plan)

	return c.JSON(fiber.Map{
		"plan":      userCtx.Plan,
		"plan_name": entitlements.DisplayName(plan),
		"ai_generations": fiber.Map{
			"progress":  limiter.GetUsageProgress(userCtx.UserID, models.UsageKindAIGeneration),
			"remaining": limiter.GetRemaining(userCtx.UserID, models.UsageKindAIGeneration),
		},
		"posts": fiber.Map{
			"progress":  limiter.GetUsageProgress(userCtx.UserID, models.UsageKindPost),
			"remaining": limiter.GetRemaining(userCtx.UserID, models.UsageKindPost),
		},
		"platforms": limiter.GetPlatformConnectionInfo(userCtx.UserID),
		"features": fiber.Map{
			"scheduling": limits.SchedulingEnabled,
			"analytics":  limits.AnalyticsEnabled,
		},
	})
}

// HandleGetPlans returns the public plan catalog.
func HandleGetPlans(c *fiber.Ctx) error {
	plans := []fiber.Map{}
	for _, p := range []entitlements.Plan{entitlements.PlanFree, entitlements.PlanCreator, entitlements.PlanPremium} {
		limits := entitlements.GetPlanLimits(string(p))
		plans = append(plans, fiber.Map{
			"id":                  string(p),
			"name":                entitlements.DisplayName(p),
			"monthly_price_minor": limits.MonthlyPriceMinor,
			"ai_generations":      limits.AIGenerations,
			"posts":               limits.Posts,
			"platforms":           limits.Platforms,
			"team_members":        limits.TeamMembers,
			"scheduling":          limits.SchedulingEnabled,
			"analytics":           limits.AnalyticsEnabled,
		})
	}
	return c.JSON(fiber.Map{"plans": plans})
}
