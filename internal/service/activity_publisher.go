package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Activity event types published for classroom dashboards.
const (
	ActivitySubmissionReceived = "submission.received"
	ActivityQuizGraded         = "quiz.graded"
)

// ActivityEvent describes one pipeline event. Delivery is best effort; a
// failed publish never fails the request that produced it.
type ActivityEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProgramID  uint      `json:"program_id"`
	StudentID  uint      `json:"student_id"`
	QuizID     uint      `json:"quiz_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActivityPublisher fans pipeline events out to interested consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, event ActivityEvent) error
}

type natsActivityPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSActivityPublisher publishes activity events on a NATS subject.
func NewNATSActivityPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) ActivityPublisher {
	return &natsActivityPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "activity_publisher").Logger(),
	}
}

func (p *natsActivityPublisher) Publish(_ context.Context, event ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return err
	}

	p.logger.Debug().Str("event_type", event.Type).Str("event_id", event.ID).Msg("activity event published")
	return nil
}
