package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/services"
	"github.com/legendaryias/ias_mentor/store"
	"github.com/legendaryias/ias_mentor/websocket"
)

// Handler serves the HTTP API on top of the payment, profile and catalog
// services.
type Handler struct {
	payments *services.PaymentService
	access   *services.AccessService
	receipts *services.ReceiptService
	reports  *services.ReportService
	catalog  *services.CatalogService
	profiles store.ProfileStore
	hub      *websocket.Hub
}

// NewHandler wires the services over st. hub may be nil, in which case the
// admin live feed is disabled.
func NewHandler(st store.Store, events services.EventPublisher, hub *websocket.Hub) *Handler {
	var feed services.Feed
	if hub != nil {
		feed = hub
	}
	access := services.NewAccessService(st)
	payments := services.NewPaymentService(st, access, events, feed)
	return &Handler{
		payments: payments,
		access:   access,
		receipts: services.NewReceiptService(payments),
		reports:  services.NewReportService(st),
		catalog:  services.NewCatalogService(st),
		profiles: st,
		hub:      hub,
	}
}

func (h *Handler) Payments() *services.PaymentService { return h.payments }

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrNotConfirmed),
		errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	message := err.Error()
	if code == fiber.StatusInternalServerError {
		log.Printf("🔥 %s %s failed: %v", c.Method(), c.Path(), err)
		message = "Internal server error"
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": message})
}
