package router_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/database"
	"github.com/noah-isme/gema-study-api/internal/handler"
	"github.com/noah-isme/gema-study-api/internal/middleware"
	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/progress"
	"github.com/noah-isme/gema-study-api/internal/questionbank"
	"github.com/noah-isme/gema-study-api/internal/repository"
	"github.com/noah-isme/gema-study-api/internal/router"
	"github.com/noah-isme/gema-study-api/internal/service"
)

const jwtSecret = "router-secret"

var bank = questionbank.StaticBank{
	{Category: "Warm-up", Numbers: []float64{1, 2}, Ops: []string{"+"}, Target: 3, NumbersText: "1, 2", OpsText: "+"},
}

func newApp(t *testing.T, withAdmin bool) (*fiber.App, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	_, err = database.Migrate(context.Background(), db, zerolog.Nop())
	require.NoError(t, err)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	participantRepo := repository.NewParticipantRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	participants := service.NewParticipantService(participantRepo, validate, service.NewRandomSource(1), nil, logger)
	tasks := service.NewTaskService(bank, responseRepo, participants, nil, logger)
	analytics := service.NewAdminAnalyticsService(participantRepo, responseRepo, validate, nil, time.Minute, logger)
	tracker := progress.NewTracker(progress.NewStore(progress.StoreOptions{}))

	deps := router.Dependencies{
		StudyHandler:          handler.NewStudyHandler(participants, tracker, logger),
		TaskHandler:           handler.NewTaskHandler(tasks, tracker, logger),
		AdminAnalyticsHandler: handler.NewAdminAnalyticsHandler(analytics, logger),
		QuestionBank:          bank,
		IntakeLimiter:         middleware.RateLimit("intake", 100, time.Minute, nil),
	}
	if withAdmin {
		deps.JWTMiddleware = middleware.JWTProtected(jwtSecret)
	}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Equation Study", AppEnv: "test"}, deps)
	return app, db
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.ResearcherClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "researcher-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newApp(t, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Equation Study", resp.Header.Get("X-Application"))

	var payload struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.Equal(t, "ok", payload.Data.Status)
	require.Equal(t, 1, payload.Data.Questions)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newApp(t, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "study_question_bank_questions 1")
}

func TestAdminRoutesRequireConfiguredJWT(t *testing.T) {
	app, _ := newApp(t, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminSummaryAndExport(t *testing.T) {
	app, db := newApp(t, true)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "participant"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	participant := models.Participant{GroupName: models.GroupA, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&participant).Error)
	result := 3.0
	require.NoError(t, db.Create(&models.Response{
		ParticipantID: participant.ID,
		TaskName:      models.TaskEquationBuilder,
		Category:      "Warm-up",
		Target:        3,
		ResultVal:     &result,
		IsCorrect:     true,
		CreatedAt:     time.Now(),
	}).Error)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "researcher"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary struct {
		Success bool `json:"success"`
		Data    struct {
			Participants int64   `json:"participants"`
			Responses    int64   `json:"responses"`
			Accuracy     float64 `json:"accuracy"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.True(t, summary.Success)
	require.Equal(t, int64(1), summary.Data.Participants)
	require.Equal(t, int64(1), summary.Data.Responses)
	require.Equal(t, 1.0, summary.Data.Accuracy)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/responses/export?group=A", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "responses.csv")

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, service.ExportColumns, records[0])

	req = httptest.NewRequest(http.MethodGet, "/api/admin/responses/export?group=Z", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestIntakeRouteIsMounted(t *testing.T) {
	app, _ := newApp(t, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/taskA/next", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
