package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/handlers"
)

func PublicRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	api.Get("/products", h.ListProducts)
	api.Get("/products/:productId", h.GetProduct)
}
