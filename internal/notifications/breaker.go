package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrSinkUnavailable is returned while the breaker is open.
var ErrSinkUnavailable = errors.New("notification sink unavailable")

// BreakerConfig configures the circuit breaker around a sink.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerSink stops calling a failing sink until it has had time to recover.
type BreakerSink struct {
	next    Sink
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSink wraps next with a circuit breaker.
func NewBreakerSink(next Sink, cfg BreakerConfig, logger *slog.Logger) *BreakerSink {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("notification circuit breaker state changed",
				"sink", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerSink{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Name reports the wrapped sink's name.
func (s *BreakerSink) Name() string { return s.next.Name() }

// Send delivers through the wrapped sink unless the breaker is open.
func (s *BreakerSink) Send(ctx context.Context, n Notification) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Send(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrSinkUnavailable
	}
	return err
}

// State returns the breaker state.
func (s *BreakerSink) State() string {
	return s.breaker.State().String()
}
