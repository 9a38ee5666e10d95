package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/handlers"
)

func ProfileRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	users := api.Group("/users/:userId")
	users.Get("/enrollments", h.GetEnrolledCourses)
	users.Get("/materials", h.GetPurchasedMaterials)
	users.Post("/materials/:materialId/download", h.RecordMaterialDownload)
}
