package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/handlers"
	"github.com/legendaryias/ias_mentor/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewApp builds the fiber app with middleware, health and metrics endpoints
// and every API route group.
func NewApp(h *handlers.Handler, feedEnabled bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Legendary IAS Mentor API",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  config.Get("CORS_ORIGINS", "*"),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Kolkata",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(middleware.Metrics())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Legendary IAS Mentor API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	Register(app, h, feedEnabled)
	return app
}

// Register mounts every API route group on app.
func Register(app *fiber.App, h *handlers.Handler, feedEnabled bool) {
	PublicRoutes(app, h)
	AuthRoutes(app, h)
	PaymentRoutes(app, h)
	ProfileRoutes(app, h)
	AdminRoutes(app, h, feedEnabled)
}
