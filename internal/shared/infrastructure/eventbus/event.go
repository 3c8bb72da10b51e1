// Package eventbus moves outbox messages to their consumers, either through
// RabbitMQ or inline in local mode.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Publisher is what the outbox processor relays messages to.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// EventConsumer reacts to the routing keys it lists, e.g.
// "billing.payment.confirmed".
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope every billing event shares. The raw body is
// kept so a consumer can decode the concrete event it expects.
type ConsumedEvent struct {
	EventID       uuid.UUID     `json:"event_id"`
	AggregateID   uuid.UUID     `json:"aggregate_id"`
	AggregateType string        `json:"aggregate_type"`
	RoutingKey    string        `json:"routing_key"`
	OccurredAt    time.Time     `json:"occurred_at"`
	Metadata      EventMetadata `json:"metadata"`

	Payload json.RawMessage `json:"-"`
}

type EventMetadata struct {
	ActorID       uuid.UUID `json:"actor_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CausationID   string    `json:"causation_id,omitempty"`
}

func (e *ConsumedEvent) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.RoutingKey, err)
	}
	return nil
}

// DecodeEvent reads the envelope from body. routingKey comes from the
// transport and fills in for bodies that omit it.
func DecodeEvent(routingKey string, body []byte) (*ConsumedEvent, error) {
	var e ConsumedEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	if e.RoutingKey == "" {
		e.RoutingKey = routingKey
	}
	e.Payload = append(json.RawMessage(nil), body...)
	return &e, nil
}
