package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/services"
)

func (h *Handler) ListProducts(c *fiber.Ctx) error {
	products, err := h.catalog.List(c.UserContext(), c.Query("category"), true)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) GetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.Get(c.UserContext(), c.Params("productId"), true)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) AdminListProducts(c *fiber.Ctx) error {
	products, err := h.catalog.List(c.UserContext(), c.Query("category"), false)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) AdminCreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	product, err := h.catalog.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *Handler) AdminUpdateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	product, err := h.catalog.Update(c.UserContext(), c.Params("productId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) AdminDeactivateProduct(c *fiber.Ctx) error {
	if err := h.catalog.Deactivate(c.UserContext(), c.Params("productId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
