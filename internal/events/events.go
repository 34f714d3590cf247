package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// StatusChanged is emitted after a script moved along a workflow edge.
type StatusChanged struct {
	ScriptID   uint            `json:"script_id"`
	ProjectID  uint            `json:"project_id"`
	Title      string          `json:"title"`
	AuthorID   string          `json:"author_id"`
	ActorID    string          `json:"actor_id"`
	From       workflow.Status `json:"from"`
	To         workflow.Status `json:"to"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher hands workflow events to integrations.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged) error
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

type natsPublisher struct {
	conn    Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher publishes events as JSON on subject.
func NewNATSPublisher(conn Conn, subject string, logger zerolog.Logger) Publisher {
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) PublishStatusChanged(ctx context.Context, event StatusChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}

	p.logger.Debug().
		Uint("script_id", event.ScriptID).
		Str("from", event.From.String()).
		Str("to", event.To.String()).
		Msg("status change published")
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher is used when no broker is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishStatusChanged(context.Context, StatusChanged) error {
	return nil
}
