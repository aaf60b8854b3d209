package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/models"
	"github.com/noah-isme/gema-study-api/internal/questionbank"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupStudyDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Participant{}, &models.Response{}))
	return db
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type publishedEvent struct {
	name    string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{name: event, payload: payload})
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.name)
	}
	return names
}

func sampleBank() questionbank.StaticBank {
	return questionbank.StaticBank{
		{Category: "Warm-up", Numbers: []float64{1, 2}, Ops: []string{"+"}, Target: 3, NumbersText: "1, 2", OpsText: "+"},
		{Category: "Division", Numbers: []float64{7, 2}, Ops: []string{"//", "%"}, Target: 3, NumbersText: "7, 2", OpsText: "//, %"},
		{Category: "Mixed", Numbers: []float64{2.5, 4}, Ops: []string{"*"}, Target: 10, NumbersText: "2.5, 4", OpsText: "*"},
	}
}
