package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateManualInvoiceCommand issues a pending charge outside the regular cycle.
type CreateManualInvoiceCommand struct {
	ActorID        uuid.UUID
	SubscriptionID uuid.UUID `validate:"required"`
	Amount         decimal.Decimal
	DueDate        time.Time `validate:"required"`
	Reference      string    `validate:"max=200"`
}

// CreateManualInvoiceHandler handles the CreateManualInvoiceCommand.
type CreateManualInvoiceHandler struct {
	subscriptions domain.SubscriptionRepository
	invoices      domain.InvoiceRepository
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	clock         clock.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewCreateManualInvoiceHandler creates a new CreateManualInvoiceHandler.
func NewCreateManualInvoiceHandler(
	subscriptions domain.SubscriptionRepository,
	invoices domain.InvoiceRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *CreateManualInvoiceHandler {
	return &CreateManualInvoiceHandler{
		subscriptions: subscriptions,
		invoices:      invoices,
		outboxRepo:    outboxRepo,
		uow:           uow,
		clock:         clk,
		logger:        loggerOrDefault(logger),
		metrics:       metrics,
	}
}

// Handle executes the CreateManualInvoiceCommand.
func (h *CreateManualInvoiceHandler) Handle(ctx context.Context, cmd CreateManualInvoiceCommand) (invoice *domain.Invoice, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("create_manual_invoice", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()

		sub, err := h.subscriptions.FindByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		created, err := domain.NewManualInvoice(sub.ID(), cmd.Amount, cmd.DueDate, cmd.Reference, now)
		if err != nil {
			return err
		}
		if err := h.invoices.Create(txCtx, created); err != nil {
			return err
		}

		events := []sharedDomain.DomainEvent{domain.NewInvoiceCreated(created, now)}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, events); err != nil {
			return err
		}
		invoice = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "manual invoice created",
		"subscription_id", invoice.SubscriptionID(),
		"invoice_id", invoice.ID(),
		"amount", invoice.Amount().String(),
		"due_date", invoice.DueDate(),
	)
	return invoice, nil
}
