package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/zyvarin/zyvarin-social/internal/pkg/entitlements"
	"github.com/zyvarin/zyvarin-social/internal/pkg/statistics"
)

// HandleGetAnalytics returns the caller's monthly analytics summary. The
// feature is gated on the plan, not metered per use.
func HandleGetAnalytics(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	if !entitlements.AnalyticsAllowed(userCtx.Plan) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "plan_required",
			"message": "analytics requires a paid plan",
		})
	}

	summary, err := statistics.GetMonthlySummary(userCtx.UserID)
	if err != nil {
		log.Printf("failed to load analytics for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.JSON(summary)
}
