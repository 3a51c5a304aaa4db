package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zyvarin/zyvarin-social/app/repository"
)

// HandleListNotifications returns the caller's notifications, newest first.
func HandleListNotifications(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	notifications, err := repository.GetGlobalFactory().GetNotificationRepository().ListByUser(userCtx.UserID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// HandleMarkNotificationRead marks one of the caller's notifications as read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	id := parseUintParam(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "invalid notification id"})
	}

	if err := repository.GetGlobalFactory().GetNotificationRepository().MarkRead(id, userCtx.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
