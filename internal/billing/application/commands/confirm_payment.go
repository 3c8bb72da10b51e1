package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/notifications"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmPaymentCommand records a received payment and activates the
// subscription for one more billing cycle.
type ConfirmPaymentCommand struct {
	ActorID        uuid.UUID
	SubscriptionID uuid.UUID `validate:"required"`

	// Amount is what the tenant actually paid. When RedeemReward is set the
	// caller has already subtracted the referral discount.
	Amount       decimal.Decimal
	Method       string `validate:"required"`
	RedeemReward bool
	Reference    string `validate:"max=200"`
}

// ConfirmPaymentResult contains the records written by a payment confirmation.
type ConfirmPaymentResult struct {
	Subscription *domain.Subscription
	Invoice      *domain.Invoice
	Payouts      []*domain.CommissionPayout
	Redemption   *domain.RewardRedemption
}

// ConfirmPaymentHandler handles the ConfirmPaymentCommand.
type ConfirmPaymentHandler struct {
	subscriptions domain.SubscriptionRepository
	tenants       domain.TenantRepository
	invoices      domain.InvoiceRepository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	rewards       RewardRedeemer
	commissions   domain.CommissionScheduler
	clock         clock.Clock
	owners        ownerNotifier
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewConfirmPaymentHandler creates a new ConfirmPaymentHandler.
func NewConfirmPaymentHandler(
	subscriptions domain.SubscriptionRepository,
	tenants domain.TenantRepository,
	invoices domain.InvoiceRepository,
	owners domain.OwnerRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	rewards RewardRedeemer,
	commissions domain.CommissionScheduler,
	clk clock.Clock,
	notifier Notifier,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *ConfirmPaymentHandler {
	logger = loggerOrDefault(logger)
	return &ConfirmPaymentHandler{
		subscriptions: subscriptions,
		tenants:       tenants,
		invoices:      invoices,
		outboxRepo:    outboxRepo,
		uow:           uow,
		rewards:       rewards,
		commissions:   commissions,
		clock:         clk,
		owners:        ownerNotifier{owners: owners, notifier: notifier, logger: logger},
		logger:        logger,
		metrics:       metrics,
	}
}

// Handle executes the ConfirmPaymentCommand. Reward redemption, subscription
// renewal, the invoice and any commission payouts commit together or not at all.
func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (result *ConfirmPaymentResult, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("confirm_payment", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}
	if cmd.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	method, err := domain.ParsePaymentMethod(cmd.Method)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()

		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		tenant, err := h.tenants.FindByID(txCtx, sub.TenantID())
		if err != nil {
			return err
		}

		var redemption *domain.RewardRedemption
		discount := decimal.Zero
		if cmd.RedeemReward {
			redemption, err = h.rewards.Redeem(txCtx, sub, cmd.Amount)
			if err != nil {
				return err
			}
			discount = redemption.Discount
		}

		sub.Renew(now)
		if err := h.subscriptions.Update(txCtx, sub); err != nil {
			return err
		}

		params := domain.PaidInvoiceParams{
			SubscriptionID: sub.ID(),
			Amount:         cmd.Amount,
			Discount:       discount,
			NominalPrice:   sub.Price(),
			Method:         method,
			Reference:      cmd.Reference,
		}
		if redemption != nil {
			source := redemption.SourceTenantID
			params.ReferralRewardSourceID = &source
		}
		invoice, err := domain.NewPaidInvoice(params, now)
		if err != nil {
			return err
		}
		if err := h.invoices.Create(txCtx, invoice); err != nil {
			return err
		}

		payouts, err := h.commissions.Schedule(txCtx, domain.CommissionRequest{
			Tenant:       tenant,
			Subscription: sub,
			Invoice:      invoice,
			Now:          now,
		})
		if err != nil {
			return err
		}

		events := collectEvents(sub)
		events = append(events,
			domain.NewInvoiceCreated(invoice, now),
			domain.NewPaymentConfirmed(sub, invoice, now),
		)
		if redemption != nil {
			events = append(events, domain.NewRewardRedeemed(sub, redemption, now))
		}
		if len(payouts) > 0 {
			events = append(events, domain.NewCommissionsScheduled(payouts, now))
		}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, events); err != nil {
			return err
		}

		result = &ConfirmPaymentResult{
			Subscription: sub,
			Invoice:      invoice,
			Payouts:      payouts,
			Redemption:   redemption,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "payment confirmed",
		"subscription_id", result.Subscription.ID(),
		"invoice_id", result.Invoice.ID(),
		"amount", result.Invoice.Amount().String(),
		"discount", result.Invoice.Discount().String(),
		"payouts", len(result.Payouts),
		"status", result.Subscription.Status(),
	)

	h.owners.notify(ctx, result.Subscription.TenantID(), notifications.Notification{
		Title: "Payment confirmed",
		Message: fmt.Sprintf("We received %s. Your subscription is active until %s.",
			formatMoney(result.Invoice.Amount()), result.Subscription.EndDate().Format("2006-01-02")),
		Type: notifications.TypeSuccess,
		Link: "/settings/invoices",
	})

	return result, nil
}
