package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/fieldparse"
	"github.com/noah-isme/gema-study-api/internal/logging"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

const summaryCacheKey = "study:analytics:summary"

// ExportColumns is the header row of the response export.
var ExportColumns = []string{
	"id", "participant_id", "task_name", "q_index", "category",
	"numbers_text", "ops_text", "target", "chosen", "is_correct",
	"rt_ms", "expr_text", "result_val", "created_at",
}

// AdminAnalyticsService aggregates study data for researchers.
type AdminAnalyticsService interface {
	GetSummary(ctx context.Context) (dto.StudySummaryResponse, error)
	ExportResponses(ctx context.Context, filter dto.ResponseExportFilter, w io.Writer) (int, error)
}

type adminAnalyticsService struct {
	participants repository.ParticipantRepository
	responses    repository.ResponseRepository
	validator    *validator.Validate
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAdminAnalyticsService constructs the analytics service. A nil cache
// disables summary caching.
func NewAdminAnalyticsService(participants repository.ParticipantRepository, responses repository.ResponseRepository, validate *validator.Validate, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AdminAnalyticsService {
	return &adminAnalyticsService{
		participants: participants,
		responses:    responses,
		validator:    validate,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "admin_analytics_service").Logger(),
		now:          time.Now,
	}
}

func (s *adminAnalyticsService) GetSummary(ctx context.Context) (dto.StudySummaryResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-study-api/internal/service/admin_analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", summaryCacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, summaryCacheKey).Result()
		if err == nil {
			var response dto.StudySummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.log(ctx).Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	byGroup, err := s.participants.CountByGroup(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_by_group_failed")
		return dto.StudySummaryResponse{}, err
	}

	completed, err := s.participants.CountFinished(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_finished_failed")
		return dto.StudySummaryResponse{}, err
	}

	responses, err := s.responses.List(ctx, repository.ResponseFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_responses_failed")
		return dto.StudySummaryResponse{}, err
	}

	summary := s.buildSummary(byGroup, completed, responses)
	span.SetAttributes(
		attribute.Int64("analytics.participants", summary.Participants),
		attribute.Int("analytics.response_count", len(responses)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.log(ctx).Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

type tally struct {
	responses int64
	correct   int64
	rtSum     int64
	rtCount   int64
}

func (t *tally) add(response models.Response) {
	t.responses++
	if response.IsCorrect {
		t.correct++
	}
	if response.RTMs != nil {
		t.rtSum += int64(*response.RTMs)
		t.rtCount++
	}
}

func (t tally) accuracy() float64 {
	if t.responses == 0 {
		return 0
	}
	return float64(t.correct) / float64(t.responses)
}

func (t tally) meanRT() *float64 {
	if t.rtCount == 0 {
		return nil
	}
	mean := float64(t.rtSum) / float64(t.rtCount)
	return &mean
}

func (s *adminAnalyticsService) buildSummary(byGroup map[string]int64, completed int64, responses []models.Response) dto.StudySummaryResponse {
	total := int64(0)
	for _, count := range byGroup {
		total += count
	}

	overall := tally{}
	perCategory := map[string]*tally{}
	for _, response := range responses {
		overall.add(response)
		category := response.Category
		if category == "" {
			category = "-"
		}
		if perCategory[category] == nil {
			perCategory[category] = &tally{}
		}
		perCategory[category].add(response)
	}

	names := make([]string, 0, len(perCategory))
	for name := range perCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	categories := make([]dto.CategorySummary, 0, len(names))
	for _, name := range names {
		t := perCategory[name]
		categories = append(categories, dto.CategorySummary{
			Category:  name,
			Responses: t.responses,
			Correct:   t.correct,
			Accuracy:  t.accuracy(),
			MeanRTMs:  t.meanRT(),
		})
	}

	return dto.StudySummaryResponse{
		Participants: total,
		ByGroup:      byGroup,
		Completed:    completed,
		Responses:    overall.responses,
		Correct:      overall.correct,
		Accuracy:     overall.accuracy(),
		MeanRTMs:     overall.meanRT(),
		Categories:   categories,
		GeneratedAt:  s.now().UTC(),
		CacheHit:     false,
	}
}

// ExportResponses writes matching response rows to w as CSV and returns the
// number of data rows written.
func (s *adminAnalyticsService) ExportResponses(ctx context.Context, filter dto.ResponseExportFilter, w io.Writer) (int, error) {
	if err := s.validator.Struct(filter); err != nil {
		return 0, err
	}

	query := repository.ResponseFilter{ParticipantID: filter.ParticipantID}
	if group := strings.TrimSpace(filter.Group); group != "" {
		query.Group = &group
	}

	responses, err := s.responses.List(ctx, query)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(ExportColumns); err != nil {
		return 0, err
	}

	for _, response := range responses {
		if err := writer.Write(exportRecord(response)); err != nil {
			return 0, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, err
	}

	s.log(ctx).Info().Int("rows", len(responses)).Msg("responses exported")
	return len(responses), nil
}

func exportRecord(response models.Response) []string {
	chosen := ""
	if response.Chosen != nil {
		chosen = *response.Chosen
	}
	rt := ""
	if response.RTMs != nil {
		rt = strconv.Itoa(*response.RTMs)
	}
	result := ""
	if response.ResultVal != nil {
		result = fieldparse.FormatNumber(*response.ResultVal)
	}
	correct := "0"
	if response.IsCorrect {
		correct = "1"
	}

	return []string{
		strconv.FormatUint(uint64(response.ID), 10),
		strconv.FormatUint(uint64(response.ParticipantID), 10),
		response.TaskName,
		strconv.Itoa(response.QIndex),
		spreadsheetSafe(response.Category),
		response.NumbersText,
		response.OpsText,
		fieldparse.FormatNumber(response.Target),
		spreadsheetSafe(chosen),
		correct,
		rt,
		spreadsheetSafe(response.ExprText),
		result,
		response.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// spreadsheetSafe prefixes free-text cells that spreadsheet software would
// evaluate as a formula. Numeric columns are written unchanged.
func spreadsheetSafe(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + value
	}
	return value
}

func (s *adminAnalyticsService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger)
}
