package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/service"
	"github.com/noah-isme/gema-study-api/internal/utils"
)

// AdminAnalyticsHandler exposes study analytics to researchers.
type AdminAnalyticsHandler struct {
	service service.AdminAnalyticsService
	logger  zerolog.Logger
}

// NewAdminAnalyticsHandler constructs the handler.
func NewAdminAnalyticsHandler(service service.AdminAnalyticsService, logger zerolog.Logger) *AdminAnalyticsHandler {
	return &AdminAnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_analytics_handler").Logger(),
	}
}

// Register attaches analytics routes to the router group.
func (h *AdminAnalyticsHandler) Register(router fiber.Router) {
	router.Get("/summary", h.summary)
	router.Get("/responses/export", h.export)
}

func (h *AdminAnalyticsHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.GetSummary(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch analytics summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load analytics")
	}

	return utils.SendSuccess(c, "analytics summary", summary)
}

func (h *AdminAnalyticsHandler) export(c *fiber.Ctx) error {
	var filter dto.ResponseExportFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	var buf bytes.Buffer
	rows, err := h.service.ExportResponses(c.UserContext(), filter, &buf)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to export responses")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to export responses")
	}

	requestLogger(h.logger, c).Info().Int("rows", rows).Msg("responses exported")
	c.Attachment("responses.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}
