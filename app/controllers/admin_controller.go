package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/app/repository"
	"github.com/zyvarin/zyvarin-social/internal/pkg/database"
)

// HandleAdminStats returns service-wide totals for the admin dashboard.
func HandleAdminStats(c *fiber.Ctx) error {
	userCount, err := repository.GetGlobalFactory().GetUserRepository().Count()
	if err != nil {
		log.Printf("admin stats: user count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	db := database.GetDB()
	var postCount, paidInvoiceCount int64
	if err := db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		log.Printf("admin stats: post count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	if err := db.Model(&models.Invoice{}).
		Where("invoice_status = ?", models.InvoiceStatusPaid).
		Count(&paidInvoiceCount).Error; err != nil {
		log.Printf("admin stats: invoice count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.JSON(fiber.Map{
		"users":         userCount,
		"posts":         postCount,
		"paid_invoices": paidInvoiceCount,
	})
}
