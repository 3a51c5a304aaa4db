package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/internal/pkg/database"
	"github.com/zyvarin/zyvarin-social/internal/pkg/statistics"
	"github.com/zyvarin/zyvarin-social/internal/pkg/suggest"
	"github.com/zyvarin/zyvarin-social/internal/pkg/usage"
)

type suggestRequest struct {
	Topic string `json:"topic"`
	Tone  string `json:"tone"`
}

// HandleSuggestCaption generates a caption suggestion, gated by the caller's
// monthly AI-generation allowance. The unit is recorded only after the
// suggestion was produced.
func HandleSuggestCaption(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req suggestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "malformed request body"})
	}

	limiter := usage.NewLimiterFromDB(database.GetDB())
	if !limiter.CanUse(userCtx.UserID, models.UsageKindAIGeneration) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "limit_reached",
			"message": "monthly AI generation limit reached, upgrade your plan for more",
		})
	}

	caption, err := suggest.Caption(req.Topic, req.Tone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	}

	if err := limiter.RecordUsage(userCtx.UserID, models.UsageKindAIGeneration); err != nil {
		log.Printf("failed to record AI usage for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	statistics.InvalidateUserSummary(userCtx.UserID)

	return c.JSON(fiber.Map{
		"caption":   caption,
		"remaining": limiter.GetRemaining(userCtx.UserID, models.UsageKindAIGeneration),
	})
}
