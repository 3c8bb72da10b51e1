package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes persistent messages in confirm mode: Publish
// returns only after the broker has taken responsibility for the message, so
// the outbox never marks an unconfirmed event as published.
type RabbitMQPublisher struct {
	mu     sync.Mutex
	s      *session
	logger *slog.Logger
}

func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := dial(url)
	if err != nil {
		return nil, err
	}
	if err := s.ch.Confirm(false); err != nil {
		_ = s.close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	logger.Info("rabbitmq publisher ready", "exchange", ExchangeName)
	return &RabbitMQPublisher{s: s, logger: logger}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	confirm, err := p.s.ch.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected %s", routingKey)
	}
	p.logger.DebugContext(ctx, "event published", "routing_key", routingKey, "bytes", len(payload))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s.close()
}
