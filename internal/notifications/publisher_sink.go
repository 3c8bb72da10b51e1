package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/eventbus"
)

// PublisherSink forwards notifications to the event bus so a push gateway
// outside this service can deliver them.
type PublisherSink struct {
	publisher eventbus.Publisher
}

// NewPublisherSink creates a new PublisherSink.
func NewPublisherSink(publisher eventbus.Publisher) *PublisherSink {
	return &PublisherSink{publisher: publisher}
}

// Name identifies the sink in logs and metrics.
func (s *PublisherSink) Name() string { return "eventbus" }

// Send publishes n under notifications.owner.{type}.
func (s *PublisherSink) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.publisher.Publish(ctx, "notifications.owner."+strings.ToLower(string(n.Type)), payload)
}
