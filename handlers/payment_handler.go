package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/services"
)

func (h *Handler) RequestPayment(c *fiber.Ctx) error {
	var req services.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	res, err := h.payments.RequestPayment(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	message := "Payment request created. Complete the UPI payment and share the screenshot on WhatsApp."
	if res.Existing {
		message = "You already have a pending payment for this product. Continue with it on WhatsApp."
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"paymentId":   res.Payment.ID,
		"whatsappUrl": res.WhatsAppURL,
		"upiId":       res.UPIID,
		"amount":      res.Payment.Amount,
		"currency":    res.Payment.Currency,
		"message":     res.Message,
		"notice":      message,
		"existing":    res.Existing,
	})
}

// GetPaymentStatus is polled by the requester while the payment is pending.
func (h *Handler) GetPaymentStatus(c *fiber.Ctx) error {
	payment, err := h.payments.GetForRequester(c.UserContext(), c.Params("id"), c.Query("userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

func (h *Handler) GetPaymentReceipt(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.receipts.ReceiptFor(c.UserContext(), id, c.Query("userId"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"receipt_%s.pdf\"", id))
	return c.Send(pdf)
}
