package router

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/handler"
	"github.com/noah-isme/gema-study-api/internal/middleware"
	"github.com/noah-isme/gema-study-api/internal/observability"
	"github.com/noah-isme/gema-study-api/internal/questionbank"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudyHandler          *handler.StudyHandler
	TaskHandler           *handler.TaskHandler
	AdminAnalyticsHandler *handler.AdminAnalyticsHandler
	QuestionBank          questionbank.Bank
	IntakeLimiter         fiber.Handler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.QuestionBank))

	app.Get("/metrics", observability.MetricsHandler(bankGauges(deps.QuestionBank)))

	if deps.TaskHandler != nil {
		deps.TaskHandler.Register(app.Group("/api/taskA"))
	}

	// Admin routes are only mounted behind a configured JWT middleware.
	if deps.AdminAnalyticsHandler != nil && deps.JWTMiddleware != nil {
		admin := app.Group("/api/admin", deps.JWTMiddleware, middleware.RequireRole(middleware.RoleAdmin, middleware.RoleResearcher))
		deps.AdminAnalyticsHandler.Register(admin)
	}

	if deps.StudyHandler != nil {
		var guards []fiber.Handler
		if deps.IntakeLimiter != nil {
			guards = append(guards, deps.IntakeLimiter)
		}
		deps.StudyHandler.Register(app, guards...)
	}
}

// bankGauges reports the bank size on every scrape so the gauge tracks edits
// to the question file even while no participant is active.
func bankGauges(bank questionbank.Bank) observability.Refresher {
	if bank == nil {
		return nil
	}
	return func(ctx context.Context) {
		questions, err := bank.Load(ctx)
		if err != nil {
			observability.BankQuestions().Set(0)
			return
		}
		observability.BankQuestions().Set(float64(len(questions)))
	}
}
