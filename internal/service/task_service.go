package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/fieldparse"
	"github.com/noah-isme/gema-study-api/internal/logging"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/observability"
	"github.com/noah-isme/gema-study-api/internal/questionbank"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

var (
	// ErrInvalidQuestionIndex indicates q_index is missing, negative or not an integer.
	ErrInvalidQuestionIndex = errors.New("invalid question index")
	// ErrQuestionIndexOutOfRange indicates q_index does not address a question in the bank.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
)

// StudyContext identifies the participant a task request acts for.
type StudyContext struct {
	ParticipantID uint
	Group         string
	Index         int
}

// NextResult is either the question at the participant's cursor or Done.
type NextResult struct {
	Done     bool
	Index    int
	Total    int
	Question questionbank.Question
}

// TaskService serves equation-builder questions and records answers.
type TaskService interface {
	Next(ctx context.Context, sc StudyContext) (NextResult, error)
	Submit(ctx context.Context, sc StudyContext, req dto.SubmitRequest) (models.Response, error)
}

type taskService struct {
	bank         questionbank.Bank
	responses    repository.ResponseRepository
	participants ParticipantService
	events       EventPublisher
	policy       *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewTaskService constructs the task service.
func NewTaskService(bank questionbank.Bank, responses repository.ResponseRepository, participants ParticipantService, events EventPublisher, logger zerolog.Logger) TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &taskService{
		bank:         bank,
		responses:    responses,
		participants: participants,
		events:       events,
		policy:       bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "task_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-study-api/internal/service/task"),
		now:          time.Now,
	}
}

func (s *taskService) Next(ctx context.Context, sc StudyContext) (NextResult, error) {
	ctx, span := s.tracer.Start(ctx, "task.next")
	defer span.End()

	questions, err := s.bank.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bank load failed")
		return NextResult{}, err
	}

	index := sc.Index
	if index < 0 {
		index = 0
	}
	span.SetAttributes(
		attribute.Int64("participant.id", int64(sc.ParticipantID)),
		attribute.Int("task.index", index),
		attribute.Int("task.total", len(questions)),
	)

	if index >= len(questions) {
		if _, err := s.participants.MarkCompleted(ctx, sc.ParticipantID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "mark completed failed")
			return NextResult{}, err
		}
		return NextResult{Done: true, Index: index, Total: len(questions)}, nil
	}

	return NextResult{Index: index, Total: len(questions), Question: questions[index]}, nil
}

func (s *taskService) Submit(ctx context.Context, sc StudyContext, req dto.SubmitRequest) (models.Response, error) {
	ctx, span := s.tracer.Start(ctx, "task.submit")
	defer span.End()

	index, err := fieldparse.CoerceIndex(req.QIndex)
	if err != nil || index < 0 {
		span.SetStatus(codes.Error, "invalid index")
		return models.Response{}, ErrInvalidQuestionIndex
	}

	questions, err := s.bank.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bank load failed")
		return models.Response{}, err
	}

	if index >= len(questions) {
		span.SetStatus(codes.Error, "index out of range")
		return models.Response{}, ErrQuestionIndexOutOfRange
	}
	question := questions[index]

	rt := fieldparse.CoerceInt(req.RTMs)
	result := fieldparse.CoerceFloat(req.Result)
	s.logWarnings(ctx, sc, index, "rt_ms", rt.Warnings)
	s.logWarnings(ctx, sc, index, "result", result.Warnings)

	expr := ""
	if text := fieldparse.CoerceText(req.Expr); text != nil {
		expr = cleanText(s.policy, *text, 0)
	}

	response := models.Response{
		ParticipantID: sc.ParticipantID,
		TaskName:      models.TaskEquationBuilder,
		QIndex:        index,
		Category:      question.Category,
		NumbersText:   question.NumbersText,
		OpsText:       question.OpsText,
		Target:        question.Target,
		Chosen:        fieldparse.CoerceText(req.Chosen),
		IsCorrect:     IsCorrect(result.Value, question.Target),
		RTMs:          rt.Value,
		ExprText:      expr,
		ResultVal:     result.Value,
		Stimulus: datatypes.JSONMap{
			"numbers": question.Numbers,
			"ops":     question.Ops,
		},
		CreatedAt: s.now().UTC(),
	}

	if err := s.responses.Create(ctx, &response); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return models.Response{}, err
	}

	span.SetAttributes(
		attribute.Int64("participant.id", int64(sc.ParticipantID)),
		attribute.Int("task.index", index),
		attribute.Bool("response.correct", response.IsCorrect),
	)
	observability.ResponsesRecorded().WithLabelValues(response.TaskName, strconv.FormatBool(response.IsCorrect)).Inc()

	event := ResponseRecordedEvent{
		ResponseID:    response.ID,
		ParticipantID: response.ParticipantID,
		TaskName:      response.TaskName,
		QIndex:        response.QIndex,
		IsCorrect:     response.IsCorrect,
		RTMs:          response.RTMs,
	}
	if err := s.events.Publish(ctx, EventResponseRecorded, event); err != nil {
		s.log(ctx).Warn().Err(err).Uint("response_id", response.ID).Msg("failed to publish response event")
	}

	return response, nil
}

func (s *taskService) logWarnings(ctx context.Context, sc StudyContext, index int, field string, warnings []fieldparse.Warning) {
	logger := s.log(ctx)
	for _, warning := range warnings {
		logger.Warn().
			Uint("participant_id", sc.ParticipantID).
			Int("q_index", index).
			Str("field", field).
			Str("input", warning.Input).
			Str("reason", warning.Reason).
			Msg("submitted value discarded")
	}
}

func (s *taskService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger)
}
