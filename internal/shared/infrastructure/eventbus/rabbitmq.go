package eventbus

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the durable topic exchange billing events are routed on.
const ExchangeName = "trimly.domain.events"

// session is one AMQP connection and the channel used on it, with the
// exchange already declared.
type session struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func dial(url string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", ExchangeName, err)
	}
	return &session{conn: conn, ch: ch}, nil
}

// close tolerates a session the broker already tore down.
func (s *session) close() error {
	return errors.Join(quiet(s.ch.Close()), quiet(s.conn.Close()))
}

func quiet(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
