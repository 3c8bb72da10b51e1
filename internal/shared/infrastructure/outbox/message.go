package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
)

// State is where a message sits in its publish lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateRetrying  State = "retrying"
	StatePublished State = "published"
	StateDead      State = "dead"
)

// Message is one stored domain event awaiting delivery to the broker.
// Payload is the full event JSON; Metadata repeats the tracing envelope so
// it can be queried without decoding the payload.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	RoutingKey    string
	Payload       json.RawMessage
	Metadata      json.RawMessage
	CreatedAt     time.Time

	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage captures event for the outbox. The routing key doubles as the
// event type since every billing event has a unique key.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.RoutingKey(), err)
	}
	meta, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, fmt.Errorf("encode %s metadata: %w", event.RoutingKey(), err)
	}

	key := event.RoutingKey()
	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     key,
		RoutingKey:    key,
		Payload:       payload,
		Metadata:      meta,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewMessages converts events in order and stops at the first failure.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	out := make([]*Message, len(events))
	for i, e := range events {
		m, err := NewMessage(e)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (m *Message) State() State {
	switch {
	case m.DeadLetteredAt != nil:
		return StateDead
	case m.PublishedAt != nil:
		return StatePublished
	case m.RetryCount > 0:
		return StateRetrying
	default:
		return StatePending
	}
}

// Repository stores outbox messages. SaveBatch joins the transaction carried
// by ctx so events commit atomically with the aggregate changes that raised
// them.
type Repository interface {
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns up to limit live messages whose retry time has
	// passed at now, oldest first.
	GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64, now time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string, now time.Time) error

	// DeleteOld removes published messages older than before and reports how
	// many went.
	DeleteOld(ctx context.Context, before time.Time) (int64, error)
}
