package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/questionbank"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Questions   int       `json:"questions"`
}

// HealthCheck returns a handler that reports application health. The service
// is degraded while the question bank cannot be loaded.
func HealthCheck(cfg config.Config, bank questionbank.Bank) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if bank != nil {
			questions, err := bank.Load(c.UserContext())
			if err != nil {
				payload.Status = "degraded"
				return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
					Success: false,
					Data:    payload,
					Message: "question bank unavailable",
				})
			}
			payload.Questions = len(questions)
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
