package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConsumerConfig names the queue a worker drains. Each queue gets its
// own bindings, so separate projections can each see every event.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string

	// Prefetch bounds unacknowledged deliveries; values below one mean one.
	Prefetch int

	Logger *slog.Logger
}

// RabbitMQConsumer feeds a durable queue into registered EventConsumers.
// Deliveries are acked after every consumer succeeded and requeued
// otherwise; bodies that do not decode are acked and dropped.
type RabbitMQConsumer struct {
	s        *session
	queue    string
	prefetch int
	routes   *router
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
	once    sync.Once
}

func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig) (*RabbitMQConsumer, error) {
	if cfg.QueueName == "" {
		return nil, errors.New("rabbitmq consumer needs a queue name")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Prefetch < 1 {
		cfg.Prefetch = 1
	}

	s, err := dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	if _, err := s.ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = s.close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	return &RabbitMQConsumer{
		s:        s,
		queue:    cfg.QueueName,
		prefetch: cfg.Prefetch,
		routes:   newRouter(cfg.Logger),
		logger:   cfg.Logger.With("queue", cfg.QueueName),
		done:     make(chan struct{}),
	}, nil
}

// RegisterConsumer binds the consumer's routing keys to the queue. Register
// everything before calling Start.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range consumer.EventTypes() {
		if err := c.s.ch.QueueBind(c.queue, key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, c.queue, err)
		}
	}
	c.routes.add(consumer)
	return nil
}

// Start blocks until ctx ends, Close is called, or the broker closes the
// delivery channel.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("consumer already started")
	}
	c.started = true
	c.mu.Unlock()

	if err := c.s.ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	deliveries, err := c.s.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("consuming events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}
			c.settle(d, c.handle(ctx, d))
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) error {
	event, err := DecodeEvent(d.RoutingKey, d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "dropping undecodable delivery", "routing_key", d.RoutingKey, "error", err)
		return nil
	}
	return c.routes.deliver(ctx, event)
}

func (c *RabbitMQConsumer) settle(d amqp.Delivery, err error) {
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("ack failed", "routing_key", d.RoutingKey, "error", ackErr)
		}
		return
	}
	if nackErr := d.Nack(false, true); nackErr != nil {
		c.logger.Error("nack failed", "routing_key", d.RoutingKey, "error", nackErr)
	}
}

// Close ends Start and closes the session. It is safe to call more than once.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.s.close()
	})
	return err
}
