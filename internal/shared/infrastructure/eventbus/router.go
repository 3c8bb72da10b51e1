package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// router fans a consumed event out to the consumers bound to its routing key.
// Both the in-process bus and the RabbitMQ consumer deliver through one.
type router struct {
	mu     sync.RWMutex
	routes map[string][]EventConsumer
	logger *slog.Logger
}

func newRouter(logger *slog.Logger) *router {
	if logger == nil {
		logger = slog.Default()
	}
	return &router{routes: map[string][]EventConsumer{}, logger: logger}
}

func (r *router) add(c EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range c.EventTypes() {
		r.routes[key] = append(r.routes[key], c)
	}
}

func (r *router) bound(key string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventConsumer(nil), r.routes[key]...)
}

// deliver hands the event to every bound consumer. A failing or panicking
// consumer does not stop the rest; their errors are joined.
func (r *router) deliver(ctx context.Context, event *ConsumedEvent) error {
	var errs []error
	for _, c := range r.bound(event.RoutingKey) {
		if err := handleSafely(ctx, c, event); err != nil {
			r.logger.ErrorContext(ctx, "event consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func handleSafely(ctx context.Context, c EventConsumer, event *ConsumedEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("consumer panic on %s: %v", event.RoutingKey, p)
		}
	}()
	return c.Handle(ctx, event)
}
