package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/trimly/pkg/observability"
)

// ProcessorConfig tunes the relay. A message is dead-lettered on its
// MaxRetries-th failed attempt; retries wait RetryBackoffBase doubled per
// attempt, capped at RetryBackoffMax.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     time.Second,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// Processor relays stored messages to a Publisher, at least once and in
// creation order within a batch.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	clock     clock.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	published, failed, dead atomic.Uint64

	statsMu sync.Mutex
	last    Stats
}

type ProcessorOption func(*Processor)

// WithClock replaces the wall clock used to pick due messages and schedule
// retries.
func WithClock(c clock.Clock) ProcessorOption {
	return func(p *Processor) { p.clock = c }
}

func WithMetrics(m *observability.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		clock:     clock.SystemClock{},
		logger:    logger.With("component", "outbox"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls every PollInterval until ctx ends or Stop is called. Starting a
// running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
	return nil
}

// Stop cancels the loop and waits for the batch in flight to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Processor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	tick := time.NewTicker(p.config.PollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.ErrorContext(ctx, "outbox batch failed", "error", err)
			}
		}
	}
}

// ProcessOnce relays one batch of due messages. Only failing to read the
// batch is returned; per-message failures are recorded on the message.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	now := p.clock.Now()
	batch, err := p.repo.GetUnpublished(ctx, now, p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}
	p.noteBatch(now, batch)

	for _, msg := range batch {
		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			p.fail(ctx, msg, err)
			continue
		}
		// A failed mark means the message goes out again next poll;
		// consumers tolerate duplicates.
		if err := p.repo.MarkPublished(ctx, msg.ID, p.clock.Now()); err != nil {
			p.logger.Error("mark published failed", "id", msg.ID, "event_id", msg.EventID, "error", err)
			continue
		}
		p.published.Add(1)
		p.metrics.ObserveOutbox(string(StatePublished))
	}
	return nil
}

func (p *Processor) fail(ctx context.Context, msg *Message, cause error) {
	attempt := msg.RetryCount + 1
	p.noteError(cause)
	log := p.logger.With(
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"attempt", attempt,
		observability.CorrelationIDKey, correlationOf(msg),
		"error", cause,
	)

	if p.config.MaxRetries <= 0 || attempt >= p.config.MaxRetries {
		log.Error("dead-lettering message")
		p.dead.Add(1)
		p.metrics.ObserveOutbox(string(StateDead))
		if err := p.repo.MarkDead(ctx, msg.ID, cause.Error(), p.clock.Now()); err != nil {
			log.Error("mark dead failed", "mark_error", err)
		}
		return
	}

	log.Warn("publish failed, will retry")
	p.failed.Add(1)
	p.metrics.ObserveOutbox("failed")
	next := p.clock.Now().Add(p.backoffFor(attempt))
	if err := p.repo.MarkFailed(ctx, msg.ID, cause.Error(), next); err != nil {
		log.Error("mark failed failed", "mark_error", err)
	}
}

// backoffFor returns the wait before retry number attempt (1-based).
func (p *Processor) backoffFor(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.RetryBackoffBase
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Second
	}
	b.MaxInterval = p.config.RetryBackoffMax
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Minute
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	wait := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		wait = b.NextBackOff()
	}
	return wait
}

func correlationOf(msg *Message) string {
	var meta domain.EventMetadata
	if len(msg.Metadata) == 0 || json.Unmarshal(msg.Metadata, &meta) != nil {
		return ""
	}
	return meta.CorrelationID.String()
}

// Stats is a point-in-time view of the relay, served on the worker's
// /healthz endpoint.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

func (p *Processor) GetStats() Stats {
	p.statsMu.Lock()
	s := p.last
	p.statsMu.Unlock()

	s.IsRunning = p.IsRunning()
	s.PublishedCount = p.published.Load()
	s.FailedCount = p.failed.Load()
	s.DeadCount = p.dead.Load()
	return s
}

func (p *Processor) noteError(err error) {
	at := p.clock.Now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.last.LastError = err.Error()
	p.last.LastErrorAt = &at
}

// noteBatch records how far behind the relay is: the age of the oldest due
// message, or zero when nothing is waiting.
func (p *Processor) noteBatch(now time.Time, batch []*Message) {
	var oldest *time.Time
	for _, m := range batch {
		if oldest == nil || m.CreatedAt.Before(*oldest) {
			at := m.CreatedAt
			oldest = &at
		}
	}
	lag := 0.0
	if oldest != nil {
		lag = now.Sub(*oldest).Seconds()
	}

	p.statsMu.Lock()
	p.last.LastProcessedAt = &now
	p.last.OldestMessageAt = oldest
	p.last.LagSeconds = lag
	p.statsMu.Unlock()
	p.metrics.SetOutboxLag(lag)
}

// Cleanup removes messages published more than retention ago.
func (p *Processor) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := p.repo.DeleteOld(ctx, p.clock.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Info("outbox cleaned", "deleted", n, "retention", retention)
	}
	return n, nil
}
