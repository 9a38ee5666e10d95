package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/handlers"
)

func AuthRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/admin/login", h.AdminLogin)
}
