package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
)

// Dispatcher sends notifications fire-and-forget on background goroutines.
// Failures are logged and counted but never returned.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	clock   clock.Clock
	metrics *observability.Metrics
	logger  *slog.Logger

	inflight sync.WaitGroup
}

// NewDispatcher creates a dispatcher that gives each send at most timeout.
func NewDispatcher(sink Sink, timeout time.Duration, clk clock.Clock, metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	if sink == nil {
		sink = NoopSink{}
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sink: sink, timeout: timeout, clock: clk, metrics: metrics, logger: logger}
}

// Dispatch queues n for delivery and returns immediately. The send is
// detached from ctx cancellation so a finished request does not abort it,
// but it keeps ctx values for logging.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	if d == nil {
		return
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.clock.Now()
	}

	detached := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.send(detached, n)
	}()
}

// Wait blocks until every queued send has finished or timed out.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.inflight.Wait()
}

func (d *Dispatcher) send(ctx context.Context, n Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.sink.Send(sendCtx, n)
	d.metrics.ObserveNotification(d.sink.Name(), err)
	if err != nil {
		d.logger.WarnContext(ctx, "notification dispatch failed",
			"sink", d.sink.Name(),
			"recipient_id", n.RecipientID,
			"title", n.Title,
			"error", err,
		)
	}
}
