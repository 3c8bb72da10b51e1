package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
)

// MarkPastDueCommand flags a subscription as late. Access is kept.
type MarkPastDueCommand struct {
	ActorID        uuid.UUID
	SubscriptionID uuid.UUID `validate:"required"`
}

// MarkPastDueHandler handles the MarkPastDueCommand.
type MarkPastDueHandler struct {
	subscriptions domain.SubscriptionRepository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	clock         clock.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewMarkPastDueHandler creates a new MarkPastDueHandler.
func NewMarkPastDueHandler(
	subscriptions domain.SubscriptionRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *MarkPastDueHandler {
	return &MarkPastDueHandler{
		subscriptions: subscriptions,
		outboxRepo:    outboxRepo,
		uow:           uow,
		clock:         clk,
		logger:        loggerOrDefault(logger),
		metrics:       metrics,
	}
}

// Handle executes the MarkPastDueCommand.
func (h *MarkPastDueHandler) Handle(ctx context.Context, cmd MarkPastDueCommand) (sub *domain.Subscription, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("mark_past_due", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		found, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		found.MarkPastDue(h.clock.Now())
		if err := h.subscriptions.Update(txCtx, found); err != nil {
			return err
		}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, collectEvents(found)); err != nil {
			return err
		}
		sub = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "subscription marked past due",
		"subscription_id", sub.ID(),
		"status", sub.Status(),
	)
	return sub, nil
}
