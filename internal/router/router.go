package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nauqh/cseassessment/internal/config"
	"github.com/nauqh/cseassessment/internal/handler"
	"github.com/nauqh/cseassessment/internal/middleware"
	"github.com/nauqh/cseassessment/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	ExamHandler       *handler.ExamHandler
	ExecutionHandler  *handler.ExecutionHandler
	HelpHandler       *handler.HelpHandler
	WebsocketHandler  *handler.WebsocketHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(app.Group("/submissions"))
	}

	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(app.Group("/exams"))
	}

	if deps.ExecutionHandler != nil {
		execute := app.Group("/execute",
			middleware.RateLimit("execute", cfg.ExecutionRateLimit, time.Minute))
		deps.ExecutionHandler.Register(execute)
	}

	if deps.HelpHandler != nil {
		deps.HelpHandler.Register(app.Group("/help"))
	}

	if deps.WebsocketHandler != nil {
		deps.WebsocketHandler.Register(app)
	}
}
