package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// InProcessEventBus is the Publisher used in local mode: the outbox processor
// publishes to it and registered consumers run inline.
type InProcessEventBus struct {
	routes *router
	logger *slog.Logger

	// serializes deliveries so consumers never see two events at once,
	// matching the prefetch of one used against RabbitMQ
	mu sync.Mutex
}

// NewInProcessEventBus returns an empty bus. A nil logger uses slog.Default.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{routes: newRouter(logger), logger: logger}
}

func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.routes.add(consumer)
}

// Publish always returns nil once the message reached the bus. Undecodable
// bodies and consumer failures are logged only, since retrying through the
// outbox would redeliver to consumers that already succeeded.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(routingKey, payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.routes.deliver(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "in-process delivery incomplete", "routing_key", routingKey, "event_id", event.EventID)
	}
	return nil
}

func (b *InProcessEventBus) Close() error { return nil }
