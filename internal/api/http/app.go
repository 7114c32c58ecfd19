package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weatherapi-bot/internal/commands"
	"github.com/i474232898/weatherapi-bot/internal/history"
	"github.com/i474232898/weatherapi-bot/internal/metrics"
)

const appName = "weatherapi-bot"

// Deps are the collaborators the HTTP surface serves.
type Deps struct {
	Dispatcher *commands.Dispatcher
	History    *history.MemoryStore
	Metrics    *metrics.Metrics
	BotToken   string
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// NewApp builds the Fiber app with middleware, health, metrics and API routes.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		// Params, queries and bodies outlive the handler in history and deferred jobs.
		Immutable:   true,
		ReadTimeout: 10 * time.Second,
		// Synchronous commands may take the full dispatch timeout.
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  appName,
			"commands": len(deps.Dispatcher.Registry().List()),
		})
	})

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	RegisterRoutes(app, deps.Dispatcher, deps.History, deps.BotToken)
	return app
}
