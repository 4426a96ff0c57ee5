package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type RouteConfig struct {
	// RateLimitMax caps requests per client IP per minute; zero disables it.
	RateLimitMax int
	// DisableRequestLog turns off the access log (tests).
	DisableRequestLog bool
}

func SetupRoutes(app *fiber.App, handler *Handler, cfg RouteConfig) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	if !cfg.DisableRequestLog {
		app.Use(logger.New(logger.Config{
			Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
			TimeFormat: time.RFC3339,
		}))
	}

	api := app.Group("/api/v1")

	if cfg.RateLimitMax > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"success": false,
					"error":   "Too many requests",
				})
			},
		}))
	}

	api.Get("/health", handler.GetHealth)
	api.Get("/metrics", handler.GetMetrics)
	api.Get("/icons/:code", handler.GetIcon)
	api.Get("/locations", handler.SearchLocations)

	sessions := api.Group("/sessions")
	sessions.Post("/", handler.CreateSession)
	sessions.Get("/:id", handler.GetSession)
	sessions.Delete("/:id", handler.DeleteSession)
	sessions.Get("/:id/dashboard", handler.GetDashboard)
	sessions.Post("/:id/location", handler.SelectLocation)
	sessions.Post("/:id/search", handler.SearchAndSelect)
	sessions.Post("/:id/refresh", handler.Refresh)
	sessions.Put("/:id/units", handler.SetUnits)
	sessions.Post("/:id/units/toggle", handler.ToggleUnits)
	sessions.Put("/:id/theme", handler.SetTheme)
	sessions.Post("/:id/theme/toggle", handler.ToggleTheme)
	sessions.Put("/:id/map-layer", handler.SetMapLayer)
	sessions.Post("/:id/charts/:chart/toggle", handler.ToggleChart)
	sessions.Put("/:id/auto-refresh", handler.SetAutoRefresh)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Endpoint not found",
			"path":    c.Path(),
		})
	})
}
