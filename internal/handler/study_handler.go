package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/progress"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
	"github.com/noah-isme/gema-study-api/internal/web"
)

// StudyHandler serves the participant pages: intake, task shells and the
// closing questionnaire.
type StudyHandler struct {
	participants service.ParticipantService
	tracker      *progress.Tracker
	logger       zerolog.Logger
}

// NewStudyHandler constructs the page handler.
func NewStudyHandler(participants service.ParticipantService, tracker *progress.Tracker, logger zerolog.Logger) *StudyHandler {
	return &StudyHandler{
		participants: participants,
		tracker:      tracker,
		logger:       logger.With().Str("component", "study_handler").Logger(),
	}
}

// Register wires the page routes. intakeGuards run before enrolment.
func (h *StudyHandler) Register(router fiber.Router, intakeGuards ...fiber.Handler) {
	router.Get("/", h.intakeForm)
	router.Post("/", append(intakeGuards, h.enroll)...)
	router.Get("/taskA", h.taskA)
	router.Get("/taskB", h.taskB)
	router.Get("/result", h.surveyForm)
	router.Post("/result", h.submitSurvey)
	router.Get("/completed", h.completed)
}

func (h *StudyHandler) intakeForm(c *fiber.Ctx) error {
	return web.Page(c, web.PageIntake)
}

func (h *StudyHandler) enroll(c *fiber.Ctx) error {
	var payload dto.IntakeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	enrolled, err := h.participants.Enroll(c.UserContext(), payload)
	if err != nil {
		return h.internalError(c, err)
	}

	if err := h.tracker.Begin(c, enrolled.ParticipantID, enrolled.Group); err != nil {
		return h.internalError(c, err)
	}

	if enrolled.Group == models.GroupA {
		return c.Redirect("/taskA", fiber.StatusFound)
	}
	return c.Redirect("/taskB", fiber.StatusFound)
}

func (h *StudyHandler) taskA(c *fiber.Ctx) error {
	if err := h.tracker.Reset(c); err != nil {
		return h.internalError(c, err)
	}
	return web.Page(c, web.PageTaskA)
}

func (h *StudyHandler) taskB(c *fiber.Ctx) error {
	return web.Page(c, web.PageTaskB)
}

func (h *StudyHandler) surveyForm(c *fiber.Ctx) error {
	return web.Page(c, web.PageSurvey)
}

// submitSurvey stores the questionnaire for the bound participant. Answers
// posted without a participant are dropped.
func (h *StudyHandler) submitSurvey(c *fiber.Ctx) error {
	var payload dto.SurveyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	current, ok, err := h.tracker.Current(c)
	if err != nil {
		return h.internalError(c, err)
	}

	if ok {
		err := h.participants.SaveSurvey(c.UserContext(), current.ParticipantID, payload)
		switch {
		case err == nil:
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrParticipantNotFound):
			requestLogger(h.logger, c).Warn().Uint("participant_id", current.ParticipantID).Msg("questionnaire for unknown participant dropped")
		default:
			return h.internalError(c, err)
		}
	}

	return c.Redirect("/completed", fiber.StatusFound)
}

func (h *StudyHandler) completed(c *fiber.Ctx) error {
	return web.Page(c, web.PageCompleted)
}

func (h *StudyHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
