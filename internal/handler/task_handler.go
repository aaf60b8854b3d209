package handler

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/progress"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// TaskHandler exposes the JSON API driven by the equation-builder page.
type TaskHandler struct {
	tasks   service.TaskService
	tracker *progress.Tracker
	logger  zerolog.Logger
}

// NewTaskHandler constructs a task handler.
func NewTaskHandler(tasks service.TaskService, tracker *progress.Tracker, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:   tasks,
		tracker: tracker,
		logger:  logger.With().Str("component", "task_handler").Logger(),
	}
}

// Register wires task API routes.
func (h *TaskHandler) Register(router fiber.Router) {
	router.Get("/next", h.next)
	router.Post("/submit", h.submit)
}

func (h *TaskHandler) next(c *fiber.Ctx) error {
	current, ok, err := h.tracker.Current(c)
	if err != nil {
		return h.internalError(c, err)
	}
	if !ok {
		return utils.SendTaskError(c, fiber.StatusUnauthorized, "no participant")
	}

	result, err := h.tasks.Next(c.UserContext(), studyContext(current))
	if err != nil {
		return h.internalError(c, err)
	}

	if result.Done {
		return c.JSON(dto.TaskDoneResponse{Done: true})
	}

	question := result.Question
	return c.JSON(dto.NextQuestionResponse{
		Done:        false,
		QIndex:      result.Index,
		Total:       result.Total,
		Category:    question.Category,
		NumbersText: question.NumbersText,
		OpsText:     question.OpsText,
		Numbers:     question.Numbers,
		Ops:         question.Ops,
		Target:      question.Target,
	})
}

func (h *TaskHandler) submit(c *fiber.Ctx) error {
	current, ok, err := h.tracker.Current(c)
	if err != nil {
		return h.internalError(c, err)
	}
	if !ok {
		return utils.SendTaskError(c, fiber.StatusUnauthorized, "no participant")
	}

	var payload dto.SubmitRequest
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return utils.SendTaskError(c, fiber.StatusBadRequest, "invalid json")
		}
	}

	response, err := h.tasks.Submit(c.UserContext(), studyContext(current), payload)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuestionIndex) || errors.Is(err, service.ErrQuestionIndexOutOfRange) {
			return utils.SendTaskError(c, fiber.StatusBadRequest, "bad q_index")
		}
		return h.internalError(c, err)
	}

	if _, err := h.tracker.Advance(c, response.QIndex); err != nil {
		return h.internalError(c, err)
	}

	requestLogger(h.logger, c).Debug().
		Uint("participant_id", current.ParticipantID).
		Int("q_index", response.QIndex).
		Bool("correct", response.IsCorrect).
		Msg("answer recorded")

	return c.JSON(dto.SubmitAck{OK: true})
}

func (h *TaskHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
