package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePartnerCommand registers an affiliate partner.
type CreatePartnerCommand struct {
	ActorID              uuid.UUID
	Name                 string `validate:"required,max=120"`
	Email                string `validate:"required,email"`
	Role                 string `validate:"omitempty,oneof=PARTNER SUPPORT partner support"`
	CommissionPercentage decimal.Decimal
}

// CreatePartnerHandler handles the CreatePartnerCommand.
type CreatePartnerHandler struct {
	partners   domain.PartnerRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewCreatePartnerHandler creates a new CreatePartnerHandler.
func NewCreatePartnerHandler(
	partners domain.PartnerRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *CreatePartnerHandler {
	return &CreatePartnerHandler{
		partners:   partners,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clk,
		logger:     loggerOrDefault(logger),
		metrics:    metrics,
	}
}

// Handle executes the CreatePartnerCommand.
func (h *CreatePartnerHandler) Handle(ctx context.Context, cmd CreatePartnerCommand) (partner *domain.Partner, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("create_partner", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		role := domain.PartnerRole(strings.ToUpper(strings.TrimSpace(cmd.Role)))
		created, err := domain.NewPartner(cmd.Name, cmd.Email, role, cmd.CommissionPercentage, h.clock.Now())
		if err != nil {
			return err
		}
		if err := h.partners.Create(txCtx, created); err != nil {
			return err
		}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, collectEvents(created)); err != nil {
			return err
		}
		partner = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "partner created",
		"partner_id", partner.ID(),
		"role", partner.Role(),
		"commission_percentage", partner.CommissionPercentage().String(),
	)
	return partner, nil
}

// SetPartnerActiveCommand activates or deactivates a partner.
type SetPartnerActiveCommand struct {
	ActorID   uuid.UUID
	PartnerID uuid.UUID `validate:"required"`
	Active    bool
}

// SetPartnerActiveHandler handles the SetPartnerActiveCommand.
type SetPartnerActiveHandler struct {
	partners   domain.PartnerRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewSetPartnerActiveHandler creates a new SetPartnerActiveHandler.
func NewSetPartnerActiveHandler(
	partners domain.PartnerRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *SetPartnerActiveHandler {
	return &SetPartnerActiveHandler{
		partners:   partners,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clk,
		logger:     loggerOrDefault(logger),
		metrics:    metrics,
	}
}

// Handle executes the SetPartnerActiveCommand.
func (h *SetPartnerActiveHandler) Handle(ctx context.Context, cmd SetPartnerActiveCommand) (partner *domain.Partner, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("set_partner_active", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		found, err := h.partners.FindByID(txCtx, cmd.PartnerID)
		if err != nil {
			return err
		}
		found.SetActive(cmd.Active, h.clock.Now())
		events := collectEvents(found)
		if len(events) == 0 {
			partner = found
			return nil
		}
		if err := h.partners.Update(txCtx, found); err != nil {
			return err
		}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, events); err != nil {
			return err
		}
		partner = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "partner status set",
		"partner_id", partner.ID(),
		"active", partner.IsActive(),
	)
	return partner, nil
}
