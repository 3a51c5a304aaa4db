package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/zyvarin/zyvarin-social/app/controllers"
	"github.com/zyvarin/zyvarin-social/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Zyvarin Social API",
		})
	})

	v1 := api.Group("/v1", authMiddleware())

	v1.Get("/me", controllers.HandleGetMe)
	v1.Post("/me/api-key", controllers.HandleGenerateAPIKey)

	v1.Get("/plans", controllers.HandleGetPlans)
	v1.Get("/usage", controllers.HandleGetUsage)

	v1.Post("/ai/suggest", controllers.HandleSuggestCaption)

	v1.Post("/posts", controllers.HandleCreatePost)
	v1.Get("/posts", controllers.HandleListPosts)
	v1.Post("/posts/:id/publish", controllers.HandlePublishPost)
	v1.Delete("/posts/:id", controllers.HandleDeletePost)

	v1.Post("/platforms", controllers.HandleConnectPlatform)
	v1.Get("/platforms", controllers.HandleListPlatforms)
	v1.Delete("/platforms/:provider", controllers.HandleDisconnectPlatform)

	v1.Post("/billing/orders", controllers.HandleCreateUpgradeOrder)
	v1.Post("/billing/verify", controllers.HandleVerifyPayment)
	v1.Get("/billing/invoices", controllers.HandleListInvoices)

	v1.Get("/analytics/summary", controllers.HandleGetAnalytics)

	v1.Get("/notifications", controllers.HandleListNotifications)
	v1.Post("/notifications/:id/read", controllers.HandleMarkNotificationRead)

	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Get("/stats", controllers.HandleAdminStats)
}

// authMiddleware accepts either a logged-in session or a user API key. Requests
// carrying an API key header are authenticated by the key; everything else
// falls back to the session established by UserContextMiddleware.
func authMiddleware() fiber.Handler {
	apiKeyAuth := middleware.APIKeyAuthMiddleware()
	return func(c *fiber.Ctx) error {
		if hasAPIKeyHeader(c) {
			return apiKeyAuth(c)
		}
		return middleware.RequireAPISessionAuth(c)
	}
}

func hasAPIKeyHeader(c *fiber.Ctx) bool {
	return c.Get("X-API-Key") != "" || c.Get("Authorization") != ""
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
