package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

func seedAnalytics(t *testing.T, participants repository.ParticipantRepository, responses repository.ResponseRepository) (models.Participant, models.Participant) {
	t.Helper()
	ctx := context.Background()

	a := models.Participant{GroupName: models.GroupA, CreatedAt: time.Now()}
	b := models.Participant{GroupName: models.GroupB, CreatedAt: time.Now()}
	require.NoError(t, participants.Create(ctx, &a))
	require.NoError(t, participants.Create(ctx, &b))
	_, err := participants.MarkFinished(ctx, a.ID, time.Now())
	require.NoError(t, err)

	fast, slow := 1000, 3000
	three := 3.0
	chosen := "1 + 2"
	rows := []models.Response{
		{ParticipantID: a.ID, TaskName: models.TaskEquationBuilder, QIndex: 0, Category: "Warm-up", NumbersText: "1, 2", OpsText: "+", Target: 3, Chosen: &chosen, ResultVal: &three, IsCorrect: true, RTMs: &fast, ExprText: "1 + 2", CreatedAt: time.Now()},
		{ParticipantID: a.ID, TaskName: models.TaskEquationBuilder, QIndex: 1, Category: "Division", NumbersText: "7, 2", OpsText: "//, %", Target: 3, RTMs: &slow, CreatedAt: time.Now()},
		{ParticipantID: b.ID, TaskName: models.TaskEquationBuilder, QIndex: 0, Category: "Warm-up", NumbersText: "1, 2", OpsText: "+", Target: 3, CreatedAt: time.Now()},
	}
	for i := range rows {
		require.NoError(t, responses.Create(ctx, &rows[i]))
	}

	return a, b
}

func TestAdminAnalyticsServiceSummaryAndCaching(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	db := setupStudyDB(t)
	participants := repository.NewParticipantRepository(db)
	responses := repository.NewResponseRepository(db)
	seedAnalytics(t, participants, responses)

	svc := NewAdminAnalyticsService(participants, responses, testValidator(), client, time.Minute, testLogger())

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.False(t, summary.CacheHit)
	require.Equal(t, int64(2), summary.Participants)
	require.Equal(t, map[string]int64{"A": 1, "B": 1}, summary.ByGroup)
	require.Equal(t, int64(1), summary.Completed)
	require.Equal(t, int64(3), summary.Responses)
	require.Equal(t, int64(1), summary.Correct)
	require.InDelta(t, 1.0/3.0, summary.Accuracy, 1e-9)
	require.NotNil(t, summary.MeanRTMs)
	require.InDelta(t, 2000, *summary.MeanRTMs, 1e-9)
	require.Len(t, summary.Categories, 2)
	require.Equal(t, "Division", summary.Categories[0].Category)
	require.NotNil(t, summary.Categories[0].MeanRTMs)
	require.InDelta(t, 3000, *summary.Categories[0].MeanRTMs, 1e-9)
	require.Equal(t, "Warm-up", summary.Categories[1].Category)
	require.Equal(t, int64(2), summary.Categories[1].Responses)
	require.InDelta(t, 0.5, summary.Categories[1].Accuracy, 1e-9)

	require.NoError(t, participants.Create(context.Background(), &models.Participant{GroupName: models.GroupA, CreatedAt: time.Now()}))

	cached, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Equal(t, summary.Participants, cached.Participants)

	server.FastForward(2 * time.Minute)

	fresh, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.False(t, fresh.CacheHit)
	require.Equal(t, int64(3), fresh.Participants)
}

func TestAdminAnalyticsServiceSummaryWithoutCache(t *testing.T) {
	db := setupStudyDB(t)
	svc := NewAdminAnalyticsService(repository.NewParticipantRepository(db), repository.NewResponseRepository(db), testValidator(), nil, time.Minute, testLogger())

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.Participants)
	require.Zero(t, summary.Accuracy)
	require.Nil(t, summary.MeanRTMs)
	require.Empty(t, summary.Categories)
}

func TestAdminAnalyticsServiceExportEscapesFormulaCells(t *testing.T) {
	db := setupStudyDB(t)
	participants := repository.NewParticipantRepository(db)
	responses := repository.NewResponseRepository(db)
	ctx := context.Background()

	participant := models.Participant{GroupName: models.GroupA, CreatedAt: time.Now()}
	require.NoError(t, participants.Create(ctx, &participant))

	chosen := `=HYPERLINK("http://example.invalid","x")`
	require.NoError(t, responses.Create(ctx, &models.Response{
		ParticipantID: participant.ID,
		TaskName:      models.TaskEquationBuilder,
		Category:      "@sum",
		NumbersText:   "-1, 2",
		OpsText:       "+",
		Target:        -1,
		Chosen:        &chosen,
		ExprText:      "-1+2",
		CreatedAt:     time.Now(),
	}))

	svc := NewAdminAnalyticsService(participants, responses, testValidator(), nil, time.Minute, testLogger())

	var buf bytes.Buffer
	_, err := svc.ExportResponses(ctx, dto.ResponseExportFilter{}, &buf)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := records[1]
	require.Equal(t, "'@sum", row[4])
	require.Equal(t, "-1, 2", row[5])
	require.Equal(t, "+", row[6])
	require.Equal(t, "-1", row[7])
	require.Equal(t, "'"+chosen, row[8])
	require.Equal(t, "'-1+2", row[11])
}

func TestSpreadsheetSafe(t *testing.T) {
	require.Equal(t, "", spreadsheetSafe(""))
	require.Equal(t, "1 + 2", spreadsheetSafe("1 + 2"))
	require.Equal(t, "'=1+1", spreadsheetSafe("=1+1"))
	require.Equal(t, "'+3", spreadsheetSafe("+3"))
	require.Equal(t, "'\tx", spreadsheetSafe("\tx"))
}

func TestAdminAnalyticsServiceExportResponses(t *testing.T) {
	db := setupStudyDB(t)
	participants := repository.NewParticipantRepository(db)
	responses := repository.NewResponseRepository(db)
	a, _ := seedAnalytics(t, participants, responses)

	svc := NewAdminAnalyticsService(participants, responses, testValidator(), nil, time.Minute, testLogger())

	var buf bytes.Buffer
	rows, err := svc.ExportResponses(context.Background(), dto.ResponseExportFilter{Group: models.GroupA}, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, rows)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, ExportColumns, records[0])

	first := records[1]
	require.Equal(t, "1", first[1])
	require.Equal(t, "Warm-up", first[4])
	require.Equal(t, "1, 2", first[5])
	require.Equal(t, "3", first[7])
	require.Equal(t, "1 + 2", first[8])
	require.Equal(t, "1", first[9])
	require.Equal(t, "1000", first[10])
	require.Equal(t, "3", first[12])

	second := records[2]
	require.Equal(t, "0", second[9])
	require.Equal(t, "", second[8])
	require.Equal(t, "", second[12])

	buf.Reset()
	rows, err = svc.ExportResponses(context.Background(), dto.ResponseExportFilter{ParticipantID: &a.ID}, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, rows)

	_, err = svc.ExportResponses(context.Background(), dto.ResponseExportFilter{Group: "C"}, &buf)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}
