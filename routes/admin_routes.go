package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/handlers"
	"github.com/legendaryias/ias_mentor/middleware"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler, feedEnabled bool) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard", h.AdminGetDashboard)

	payments := admin.Group("/payments")
	payments.Get("", h.AdminGetPayments)
	payments.Get("/duplicates", h.AdminListDuplicatePayments)
	payments.Post("/cleanup", h.AdminCleanupDuplicatePayments)
	payments.Get("/export", h.AdminExportPayments)
	payments.Get("/:id", h.AdminGetPayment)
	payments.Put("/:id/status", h.AdminUpdatePaymentStatus)

	products := admin.Group("/products")
	products.Get("", h.AdminListProducts)
	products.Post("", h.AdminCreateProduct)
	products.Put("/:productId", h.AdminUpdateProduct)
	products.Delete("/:productId", h.AdminDeactivateProduct)

	if !feedEnabled {
		return
	}
	admin.Use("/feed", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("admin_id", middleware.AdminID(c))
		return c.Next()
	})
	admin.Get("/feed", websocket.New(h.AdminFeed))
}
