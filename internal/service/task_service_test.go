package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/logging"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

type taskFixture struct {
	participants ParticipantService
	responses    repository.ResponseRepository
	tasks        TaskService
	events       *recordingPublisher
	participant  dto.EnrollmentResponse
}

func newTaskFixture(t *testing.T) taskFixture {
	t.Helper()
	db := setupStudyDB(t)
	events := &recordingPublisher{}
	participants := NewParticipantService(repository.NewParticipantRepository(db), testValidator(), fixedSource(0.2), events, testLogger())
	responses := repository.NewResponseRepository(db)
	tasks := NewTaskService(sampleBank(), responses, participants, events, testLogger())

	enrolled, err := participants.Enroll(context.Background(), dto.IntakeRequest{AccessCode: "p1"})
	require.NoError(t, err)

	return taskFixture{participants: participants, responses: responses, tasks: tasks, events: events, participant: enrolled}
}

func (f taskFixture) context(index int) StudyContext {
	return StudyContext{ParticipantID: f.participant.ParticipantID, Group: f.participant.Group, Index: index}
}

func submitBody(t *testing.T, body string) dto.SubmitRequest {
	t.Helper()
	var req dto.SubmitRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestTaskServiceNextServesQuestionAtCursor(t *testing.T) {
	f := newTaskFixture(t)

	next, err := f.tasks.Next(context.Background(), f.context(1))
	require.NoError(t, err)
	require.False(t, next.Done)
	require.Equal(t, 1, next.Index)
	require.Equal(t, 3, next.Total)
	require.Equal(t, "Division", next.Question.Category)
	require.Equal(t, []string{"//", "%"}, next.Question.Ops)
}

func TestTaskServiceNextCompletesOnlyOnce(t *testing.T) {
	f := newTaskFixture(t)

	next, err := f.tasks.Next(context.Background(), f.context(3))
	require.NoError(t, err)
	require.True(t, next.Done)

	participant, err := f.participants.Get(context.Background(), f.participant.ParticipantID)
	require.NoError(t, err)
	require.True(t, participant.IsFinished())
	stamped := *participant.FinishedAt

	next, err = f.tasks.Next(context.Background(), f.context(5))
	require.NoError(t, err)
	require.True(t, next.Done)

	participant, err = f.participants.Get(context.Background(), f.participant.ParticipantID)
	require.NoError(t, err)
	require.True(t, stamped.Equal(*participant.FinishedAt))
	require.Equal(t, []string{EventParticipantEnrolled, EventParticipantCompleted}, f.events.names())
}

func TestTaskServiceSubmitRecordsScoredRow(t *testing.T) {
	f := newTaskFixture(t)

	response, err := f.tasks.Submit(context.Background(), f.context(0), submitBody(t,
		`{"q_index": 0, "chosen": "1 + 2", "rt_ms": 1530.9, "expr": "1 + 2", "result": 3.0000000001}`))
	require.NoError(t, err)
	require.True(t, response.IsCorrect)
	require.Equal(t, models.TaskEquationBuilder, response.TaskName)
	require.Equal(t, "Warm-up", response.Category)
	require.Equal(t, "1, 2", response.NumbersText)
	require.Equal(t, "+", response.OpsText)
	require.NotNil(t, response.RTMs)
	require.Equal(t, 1530, *response.RTMs)
	require.Equal(t, "1 + 2", response.ExprText)
	require.NotNil(t, response.Chosen)
	require.Equal(t, "1 + 2", *response.Chosen)

	count, err := f.responses.Count(context.Background(), repository.ResponseFilter{ParticipantID: &f.participant.ParticipantID})
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Contains(t, f.events.names(), EventResponseRecorded)
}

func TestTaskServiceSubmitScoresMisses(t *testing.T) {
	f := newTaskFixture(t)

	response, err := f.tasks.Submit(context.Background(), f.context(2), submitBody(t, `{"q_index": "2", "result": 10.01}`))
	require.NoError(t, err)
	require.False(t, response.IsCorrect)
	require.Equal(t, 2, response.QIndex)
}

func TestTaskServiceSubmitNullsMalformedFields(t *testing.T) {
	f := newTaskFixture(t)

	response, err := f.tasks.Submit(context.Background(), f.context(0), submitBody(t,
		`{"q_index": 0, "rt_ms": "fast", "result": "three"}`))
	require.NoError(t, err)
	require.Nil(t, response.RTMs)
	require.Nil(t, response.ResultVal)
	require.Nil(t, response.Chosen)
	require.False(t, response.IsCorrect)
}

func TestTaskServiceSubmitWarningsCarryCorrelationID(t *testing.T) {
	f := newTaskFixture(t)

	var buf bytes.Buffer
	tasks := NewTaskService(sampleBank(), f.responses, f.participants, nil, zerolog.New(&buf))
	ctx := logging.WithCorrelationID(context.Background(), zerolog.Nop(), "corr-42")

	_, err := tasks.Submit(ctx, f.context(0), submitBody(t, `{"q_index": 0, "rt_ms": "fast"}`))
	require.NoError(t, err)

	line := buf.String()
	require.Contains(t, line, `"correlation_id":"corr-42"`)
	require.Contains(t, line, `"component":"task_service"`)
	require.Contains(t, line, `"field":"rt_ms"`)
	require.Contains(t, line, `"input":"fast"`)
}

func TestTaskServiceSubmitRejectsBadIndex(t *testing.T) {
	f := newTaskFixture(t)

	cases := map[string]struct {
		body string
		err  error
	}{
		"missing":      {body: `{}`, err: ErrInvalidQuestionIndex},
		"negative":     {body: `{"q_index": -1}`, err: ErrInvalidQuestionIndex},
		"fractional":   {body: `{"q_index": 1.5}`, err: ErrInvalidQuestionIndex},
		"text":         {body: `{"q_index": "first"}`, err: ErrInvalidQuestionIndex},
		"out of range": {body: `{"q_index": 3}`, err: ErrQuestionIndexOutOfRange},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.tasks.Submit(context.Background(), f.context(0), submitBody(t, tc.body))
			require.ErrorIs(t, err, tc.err)
		})
	}

	count, err := f.responses.Count(context.Background(), repository.ResponseFilter{})
	require.NoError(t, err)
	require.Zero(t, count)
}
