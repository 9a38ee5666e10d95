package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetEnrolledCourses(c *fiber.Ctx) error {
	courses, err := h.access.Enrollments(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"enrolled_courses": courses})
}

func (h *Handler) GetPurchasedMaterials(c *fiber.Ctx) error {
	materials, err := h.access.Purchases(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"purchased_materials": materials})
}

func (h *Handler) RecordMaterialDownload(c *fiber.Ctx) error {
	purchase, err := h.access.RecordDownload(c.UserContext(), c.Params("userId"), c.Params("materialId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(purchase)
}
