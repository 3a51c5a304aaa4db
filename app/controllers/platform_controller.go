package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/app/repository"
	"github.com/zyvarin/zyvarin-social/internal/pkg/database"
	"github.com/zyvarin/zyvarin-social/internal/pkg/statistics"
	"github.com/zyvarin/zyvarin-social/internal/pkg/usage"
)

type connectPlatformRequest struct {
	Provider string `json:"provider"`
}

// HandleConnectPlatform connects a social platform for the caller, gated by
// the plan's platform limit. Reconnecting an already connected provider is a
// no-op success and does not consume an extra slot.
func HandleConnectPlatform(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req connectPlatformRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "malformed request body"})
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if !models.IsKnownProvider(provider) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "unknown platform: " + req.Provider})
	}

	repo := repository.GetGlobalFactory().GetPlatformRepository()
	if existing, err := repo.GetByUserAndProvider(userCtx.UserID, provider); err == nil && existing.Connected {
		return c.JSON(platformResponse(existing))
	}

	limiter := usage.NewLimiterFromDB(database.GetDB())
	info := limiter.GetPlatformConnectionInfo(userCtx.UserID)
	if !info.CanConnectMore {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "limit_reached",
			"message": "platform connection limit reached, upgrade your plan for more",
			"info":    info,
		})
	}

	platform, err := repo.Connect(userCtx.UserID, provider)
	if err != nil {
		log.Printf("failed to connect %s for user %d: %v", provider, userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	statistics.InvalidateUserSummary(userCtx.UserID)

	return c.Status(fiber.StatusCreated).JSON(platformResponse(platform))
}

// HandleDisconnectPlatform disconnects a provider. The row is kept with its
// history; only the connected flag flips.
func HandleDisconnectPlatform(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	provider := strings.ToLower(strings.TrimSpace(c.Params("provider")))
	if !models.IsKnownProvider(provider) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "unknown platform: " + provider})
	}

	repo := repository.GetGlobalFactory().GetPlatformRepository()
	existing, err := repo.GetByUserAndProvider(userCtx.UserID, provider)
	if err != nil || !existing.Connected {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "platform is not connected"})
	}

	if err := repo.Disconnect(userCtx.UserID, provider); err != nil {
		log.Printf("failed to disconnect %s for user %d: %v", provider, userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	statistics.InvalidateUserSummary(userCtx.UserID)

	return c.JSON(fiber.Map{"ok": true})
}

// HandleListPlatforms returns the caller's platform connections plus the
// remaining allowance.
func HandleListPlatforms(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	platforms, err := repository.GetGlobalFactory().GetPlatformRepository().ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	items := make([]fiber.Map, 0, len(platforms))
	for i := range platforms {
		items = append(items, platformResponse(&platforms[i]))
	}

	limiter := usage.NewLimiterFromDB(database.GetDB())
	return c.JSON(fiber.Map{
		"platforms": items,
		"info":      limiter.GetPlatformConnectionInfo(userCtx.UserID),
	})
}

func platformResponse(p *models.ConnectedPlatform) fiber.Map {
	return fiber.Map{
		"provider":        p.Provider,
		"connected":       p.Connected,
		"connected_at":    formatTimePtr(p.ConnectedAt),
		"disconnected_at": formatTimePtr(p.DisconnectedAt),
	}
}
