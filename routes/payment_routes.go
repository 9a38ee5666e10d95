package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/handlers"
)

func PaymentRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments")
	payments.Post("/request", h.RequestPayment)
	payments.Get("/:id", h.GetPaymentStatus)
	payments.Get("/:id/receipt", h.GetPaymentReceipt)
}
