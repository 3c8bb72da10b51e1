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

// SwitchPlanCommand changes the plan of a subscription. PaymentMethod and
// PaidAmount are either both set, which renews the subscription immediately
// and records a paid invoice, or both empty, which keeps the current cadence.
type SwitchPlanCommand struct {
	ActorID        uuid.UUID
	SubscriptionID uuid.UUID `validate:"required"`
	Plan           string    `validate:"required"`
	BillingCycle   string    `validate:"required"`
	BillingType    string    `validate:"required"`
	PaymentMethod  string
	PaidAmount     *decimal.Decimal
}

func (c SwitchPlanCommand) immediate() bool {
	return c.PaymentMethod != "" && c.PaidAmount != nil
}

// SwitchPlanHandler handles the SwitchPlanCommand.
type SwitchPlanHandler struct {
	subscriptions domain.SubscriptionRepository
	tenants       domain.TenantRepository
	invoices      domain.InvoiceRepository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	catalog       *domain.Catalog
	clock         clock.Clock
	owners        ownerNotifier
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewSwitchPlanHandler creates a new SwitchPlanHandler.
func NewSwitchPlanHandler(
	subscriptions domain.SubscriptionRepository,
	tenants domain.TenantRepository,
	invoices domain.InvoiceRepository,
	owners domain.OwnerRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	catalog *domain.Catalog,
	clk clock.Clock,
	notifier Notifier,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *SwitchPlanHandler {
	logger = loggerOrDefault(logger)
	return &SwitchPlanHandler{
		subscriptions: subscriptions,
		tenants:       tenants,
		invoices:      invoices,
		outboxRepo:    outboxRepo,
		uow:           uow,
		catalog:       catalog,
		clock:         clk,
		owners:        ownerNotifier{owners: owners, notifier: notifier, logger: logger},
		logger:        logger,
		metrics:       metrics,
	}
}

// Handle executes the SwitchPlanCommand.
func (h *SwitchPlanHandler) Handle(ctx context.Context, cmd SwitchPlanCommand) (sub *domain.Subscription, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("switch_plan", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}
	if (cmd.PaymentMethod == "") != (cmd.PaidAmount == nil) {
		return nil, domain.ErrIncompletePayment
	}

	planID := domain.ParsePlanID(cmd.Plan)
	cycle, err := domain.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, err
	}
	price, err := h.catalog.Price(planID, cycle)
	if err != nil {
		return nil, err
	}
	billingType, err := domain.ParseBillingType(cmd.BillingType)
	if err != nil {
		return nil, err
	}

	var method domain.PaymentMethod
	if cmd.immediate() {
		if method, err = domain.ParsePaymentMethod(cmd.PaymentMethod); err != nil {
			return nil, err
		}
		if !cmd.PaidAmount.IsPositive() {
			return nil, fmt.Errorf("%w: paid amount must be positive", domain.ErrValidation)
		}
	}

	var invoice *domain.Invoice
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()

		found, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		tenant, err := h.tenants.FindByID(txCtx, found.TenantID())
		if err != nil {
			return err
		}

		if err := found.ChangePlan(planID, cycle, billingType, price, now); err != nil {
			return err
		}
		if cmd.immediate() {
			found.Renew(now)
		}
		if err := h.subscriptions.Update(txCtx, found); err != nil {
			return err
		}

		tenant.ApplyPlan(planID, now)
		if err := h.tenants.Update(txCtx, tenant); err != nil {
			return err
		}

		events := collectEvents(found, tenant)
		if cmd.immediate() {
			invoice, err = domain.NewPaidInvoice(domain.PaidInvoiceParams{
				SubscriptionID: found.ID(),
				Amount:         *cmd.PaidAmount,
				NominalPrice:   price,
				Method:         method,
				Reference:      fmt.Sprintf("Plan switch to %s (%s)", planID, cycle),
			}, now)
			if err != nil {
				return err
			}
			if err := h.invoices.Create(txCtx, invoice); err != nil {
				return err
			}
			events = append(events,
				domain.NewInvoiceCreated(invoice, now),
				domain.NewPaymentConfirmed(found, invoice, now),
			)
		}

		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, events); err != nil {
			return err
		}
		sub = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "plan switched",
		"subscription_id", sub.ID(),
		"plan", sub.Plan(),
		"billing_cycle", sub.BillingCycle(),
		"status", sub.Status(),
		"immediate_payment", invoice != nil,
	)

	message := fmt.Sprintf("Your plan is now %s, billed %s at %s.", sub.Plan(), sub.BillingCycle(), formatMoney(sub.Price()))
	if invoice != nil {
		message = fmt.Sprintf("Your plan is now %s. Payment of %s received, active until %s.",
			sub.Plan(), formatMoney(invoice.Amount()), sub.EndDate().Format("2006-01-02"))
	}
	h.owners.notify(ctx, sub.TenantID(), notifications.Notification{
		Title:   "Plan updated",
		Message: message,
		Type:    notifications.TypeBilling,
		Link:    "/settings/subscription",
	})

	return sub, nil
}
