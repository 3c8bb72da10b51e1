package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
)

const defaultSweepLimit = 500

// SweepOverdueCommand marks every lapsed TRIAL or ACTIVE subscription as
// PAST_DUE. A zero AsOf means now.
type SweepOverdueCommand struct {
	AsOf  time.Time
	Limit int `validate:"min=0,max=10000"`
}

// SweepOverdueResult summarizes a sweep.
type SweepOverdueResult struct {
	Scanned int
	Marked  int
	Failed  int
}

// SweepOverdueHandler handles the SweepOverdueCommand. Each subscription is
// updated in its own unit of work so one failure does not block the rest.
type SweepOverdueHandler struct {
	subscriptions domain.SubscriptionRepository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	clock         clock.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewSweepOverdueHandler creates a new SweepOverdueHandler.
func NewSweepOverdueHandler(
	subscriptions domain.SubscriptionRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *SweepOverdueHandler {
	return &SweepOverdueHandler{
		subscriptions: subscriptions,
		outboxRepo:    outboxRepo,
		uow:           uow,
		clock:         clk,
		logger:        loggerOrDefault(logger),
		metrics:       metrics,
	}
}

// Handle executes the SweepOverdueCommand. Per-subscription failures are
// counted and joined into the returned error; successful updates stay committed.
func (h *SweepOverdueHandler) Handle(ctx context.Context, cmd SweepOverdueCommand) (result *SweepOverdueResult, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("sweep_overdue", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}
	asOf := cmd.AsOf
	if asOf.IsZero() {
		asOf = h.clock.Now()
	}
	limit := cmd.Limit
	if limit == 0 {
		limit = defaultSweepLimit
	}

	overdue, err := h.subscriptions.FindOverdue(ctx, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("find overdue subscriptions: %w", err)
	}

	result = &SweepOverdueResult{Scanned: len(overdue)}
	var errs []error
	for _, candidate := range overdue {
		marked, err := h.markOne(ctx, candidate.ID(), asOf)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("subscription %s: %w", candidate.ID(), err))
			h.logger.ErrorContext(ctx, "overdue sweep failed for subscription",
				"subscription_id", candidate.ID(),
				"error", err,
			)
			continue
		}
		if marked {
			result.Marked++
		}
	}
	h.metrics.AddOverdueMarked(result.Marked)

	h.logger.InfoContext(ctx, "overdue sweep finished",
		"as_of", asOf,
		"scanned", result.Scanned,
		"marked", result.Marked,
		"failed", result.Failed,
	)
	return result, errors.Join(errs...)
}

// markOne re-reads the subscription inside the transaction so a payment
// confirmed since the scan is not overwritten.
func (h *SweepOverdueHandler) markOne(ctx context.Context, id uuid.UUID, asOf time.Time) (bool, error) {
	marked := false
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sub, err := h.subscriptions.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if !sub.IsOverdue(asOf) {
			return nil
		}
		sub.MarkPastDue(h.clock.Now())
		if err := h.subscriptions.Update(txCtx, sub); err != nil {
			return err
		}
		if err := saveEvents(txCtx, h.outboxRepo, uuid.Nil, collectEvents(sub)); err != nil {
			return err
		}
		marked = true
		return nil
	})
	return marked, err
}
