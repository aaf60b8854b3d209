package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/logging"
	"github.com/noah-isme/gema-study-api/internal/progress"
	"github.com/noah-isme/gema-study-api/internal/service"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	if c == nil {
		return &base
	}
	return logging.FromContext(c.UserContext(), base)
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func studyContext(p progress.Progress) service.StudyContext {
	return service.StudyContext{
		ParticipantID: p.ParticipantID,
		Group:         p.Group,
		Index:         p.Index,
	}
}
