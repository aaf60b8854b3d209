package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/logging"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/observability"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

// ErrParticipantNotFound indicates the participant record does not exist.
var ErrParticipantNotFound = errors.New("participant not found")

// ParticipantService enrols participants and tracks their completion.
type ParticipantService interface {
	Enroll(ctx context.Context, req dto.IntakeRequest) (dto.EnrollmentResponse, error)
	Get(ctx context.Context, id uint) (models.Participant, error)
	MarkCompleted(ctx context.Context, id uint) (bool, error)
	SaveSurvey(ctx context.Context, id uint, req dto.SurveyRequest) error
}

type participantService struct {
	repo      repository.ParticipantRepository
	validator *validator.Validate
	random    RandomSource
	events    EventPublisher
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewParticipantService constructs the participant registry.
func NewParticipantService(repo repository.ParticipantRepository, validate *validator.Validate, random RandomSource, events EventPublisher, logger zerolog.Logger) ParticipantService {
	if events == nil {
		events = NopPublisher{}
	}
	return &participantService{
		repo:      repo,
		validator: validate,
		random:    random,
		events:    events,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "participant_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-study-api/internal/service/participant"),
		now:       time.Now,
	}
}

func (s *participantService) Enroll(ctx context.Context, req dto.IntakeRequest) (dto.EnrollmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "participant.enroll")
	defer span.End()

	accessCode, accessCodeChange := sanitizeText(s.policy, req.AccessCode, accessCodeMaxLength)
	gender, genderChange := sanitizeText(s.policy, req.Gender, genderMaxLength)
	age, ageKept := parseAge(req.Age)

	participant := models.Participant{
		AccessCode: accessCode,
		Age:        age,
		Gender:     gender,
		GroupName:  AssignGroup(s.random),
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Create(ctx, &participant); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.EnrollmentResponse{}, err
	}

	span.SetAttributes(
		attribute.Int64("participant.id", int64(participant.ID)),
		attribute.String("participant.group", participant.GroupName),
	)
	observability.ParticipantsEnrolled().WithLabelValues(participant.GroupName).Inc()

	event := ParticipantEnrolledEvent{ParticipantID: participant.ID, Group: participant.GroupName}
	if err := s.events.Publish(ctx, EventParticipantEnrolled, event); err != nil {
		s.log(ctx).Warn().Err(err).Uint("participant_id", participant.ID).Msg("failed to publish enrolment event")
	}

	s.logIntakeChange(ctx, participant.ID, "access_code", req.AccessCode, accessCodeChange)
	s.logIntakeChange(ctx, participant.ID, "gender", req.Gender, genderChange)
	if !ageKept {
		s.log(ctx).Info().
			Uint("participant_id", participant.ID).
			Str("field", "age").
			Int("submitted_length", len(req.Age)).
			Msg("intake age is not a whole number, stored as unknown")
	}

	s.log(ctx).Info().Uint("participant_id", participant.ID).Str("group", participant.GroupName).Msg("participant enrolled")

	return dto.EnrollmentResponse{ParticipantID: participant.ID, Group: participant.GroupName}, nil
}

func (s *participantService) Get(ctx context.Context, id uint) (models.Participant, error) {
	participant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Participant{}, ErrParticipantNotFound
		}
		return models.Participant{}, err
	}
	return participant, nil
}

// MarkCompleted stamps the completion time the first time it is called for a
// participant and reports whether this call did so.
func (s *participantService) MarkCompleted(ctx context.Context, id uint) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "participant.complete")
	defer span.End()

	finishedAt := s.now().UTC()
	changed, err := s.repo.MarkFinished(ctx, id, finishedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark finished failed")
		return false, err
	}

	span.SetAttributes(attribute.Bool("participant.newly_completed", changed))
	if !changed {
		return false, nil
	}

	observability.ParticipantsCompleted().Inc()
	event := ParticipantCompletedEvent{ParticipantID: id, FinishedAt: finishedAt}
	if err := s.events.Publish(ctx, EventParticipantCompleted, event); err != nil {
		s.log(ctx).Warn().Err(err).Uint("participant_id", id).Msg("failed to publish completion event")
	}

	s.log(ctx).Info().Uint("participant_id", id).Msg("participant completed question sequence")
	return true, nil
}

func (s *participantService) SaveSurvey(ctx context.Context, id uint, req dto.SurveyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	survey := datatypes.JSONMap{}
	for key, answer := range req.Answers() {
		survey[key] = cleanText(s.policy, answer, 0)
	}

	if err := s.repo.UpdateSurvey(ctx, id, survey); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	s.log(ctx).Info().Uint("participant_id", id).Msg("questionnaire stored")
	return nil
}

// logIntakeChange notes when a stored intake field differs from what was
// submitted. Only lengths are logged, never the values.
func (s *participantService) logIntakeChange(ctx context.Context, id uint, field, submitted string, change textChange) {
	if !change.changed() {
		return
	}
	s.log(ctx).Info().
		Uint("participant_id", id).
		Str("field", field).
		Bool("markup_removed", change.MarkupRemoved).
		Bool("truncated", change.Truncated).
		Int("submitted_runes", utf8.RuneCountInString(strings.TrimSpace(submitted))).
		Msg("intake value altered before storage")
}

func (s *participantService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger)
}
