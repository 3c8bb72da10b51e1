package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/notifications"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
)

// SuspendAccessCommand revokes a tenant's access and voids the commissions
// that were scheduled for the future.
type SuspendAccessCommand struct {
	ActorID        uuid.UUID
	SubscriptionID uuid.UUID `validate:"required"`
}

// SuspendAccessResult contains the suspended subscription and the payouts
// that were canceled.
type SuspendAccessResult struct {
	Subscription    *domain.Subscription
	CanceledPayouts []*domain.CommissionPayout
}

// SuspendAccessHandler handles the SuspendAccessCommand.
type SuspendAccessHandler struct {
	subscriptions domain.SubscriptionRepository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	canceler      CommissionCanceler
	clock         clock.Clock
	owners        ownerNotifier
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewSuspendAccessHandler creates a new SuspendAccessHandler.
func NewSuspendAccessHandler(
	subscriptions domain.SubscriptionRepository,
	owners domain.OwnerRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	canceler CommissionCanceler,
	clk clock.Clock,
	notifier Notifier,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *SuspendAccessHandler {
	logger = loggerOrDefault(logger)
	return &SuspendAccessHandler{
		subscriptions: subscriptions,
		outboxRepo:    outboxRepo,
		uow:           uow,
		canceler:      canceler,
		clock:         clk,
		owners:        ownerNotifier{owners: owners, notifier: notifier, logger: logger},
		logger:        logger,
		metrics:       metrics,
	}
}

// Handle executes the SuspendAccessCommand.
func (h *SuspendAccessHandler) Handle(ctx context.Context, cmd SuspendAccessCommand) (result *SuspendAccessResult, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("suspend_access", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()

		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		sub.Suspend(now)
		if err := h.subscriptions.Update(txCtx, sub); err != nil {
			return err
		}

		canceled, err := h.canceler.CancelFutureCommissions(txCtx, sub.ID())
		if err != nil {
			return err
		}

		events := collectEvents(sub)
		if len(canceled) > 0 {
			events = append(events, domain.NewCommissionsCanceled(sub.ID(), canceled, now))
		}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, events); err != nil {
			return err
		}

		result = &SuspendAccessResult{Subscription: sub, CanceledPayouts: canceled}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "subscription suspended",
		"subscription_id", result.Subscription.ID(),
		"status", result.Subscription.Status(),
		"canceled_payouts", len(result.CanceledPayouts),
	)

	h.owners.notify(ctx, result.Subscription.TenantID(), notifications.Notification{
		Title:   "Access suspended",
		Message: "Your subscription was suspended. Confirm a payment to restore access.",
		Type:    notifications.TypeWarning,
		Link:    "/settings/subscription",
	})

	return result, nil
}
