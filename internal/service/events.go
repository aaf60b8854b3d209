package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	EventParticipantEnrolled  = "participant.enrolled"
	EventResponseRecorded     = "response.recorded"
	EventParticipantCompleted = "participant.completed"
)

// EventPublisher emits study lifecycle events. Publishing is best effort;
// callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// ParticipantEnrolledEvent is published after intake.
type ParticipantEnrolledEvent struct {
	ParticipantID uint   `json:"participant_id"`
	Group         string `json:"group"`
}

// ResponseRecordedEvent is published after an answer row is stored.
type ResponseRecordedEvent struct {
	ResponseID    uint   `json:"response_id"`
	ParticipantID uint   `json:"participant_id"`
	TaskName      string `json:"task_name"`
	QIndex        int    `json:"q_index"`
	IsCorrect     bool   `json:"is_correct"`
	RTMs          *int   `json:"rt_ms"`
}

// ParticipantCompletedEvent is published the first time a participant runs
// out of questions.
type ParticipantCompletedEvent struct {
	ParticipantID uint      `json:"participant_id"`
	FinishedAt    time.Time `json:"finished_at"`
}

type eventEnvelope struct {
	Event      string      `json:"event"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

func encodeEvent(event string, payload interface{}, at time.Time) ([]byte, error) {
	return json.Marshal(eventEnvelope{Event: event, OccurredAt: at.UTC(), Data: payload})
}

// NATSPublisher publishes events on "<prefix>.<event>" subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	now    func() time.Time
}

// NewNATSPublisher constructs a publisher over an established connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{
		conn:   conn,
		prefix: strings.Trim(strings.TrimSpace(prefix), "."),
		now:    time.Now,
	}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return p.prefix + "." + event
}

// Publish implements EventPublisher.
func (p *NATSPublisher) Publish(ctx context.Context, event string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeEvent(event, payload, p.now())
	if err != nil {
		return err
	}

	return p.conn.Publish(p.Subject(event), data)
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
