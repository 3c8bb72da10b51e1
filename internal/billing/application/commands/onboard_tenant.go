package commands

import (
	"context"
	"errors"
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

// OnboardTenantCommand contains the data needed to sign up a barbershop.
type OnboardTenantCommand struct {
	ActorID uuid.UUID

	Name       string `validate:"required,max=120"`
	Slug       string `validate:"required,max=63"`
	OwnerName  string `validate:"required,max=120"`
	OwnerEmail string `validate:"required,email"`
	OwnerPhone string `validate:"omitempty,max=32"`

	Plan         string `validate:"required"`
	BillingCycle string `validate:"required"`
	BillingType  string `validate:"required"`

	// Price overrides the catalog price when positive.
	Price decimal.Decimal

	// TrialDays falls back to the configured default when zero.
	TrialDays int `validate:"min=0,max=365"`

	// ReferralCode is the code of the tenant that referred this one.
	ReferralCode        string `validate:"omitempty,max=32"`
	ReferredByPartnerID *uuid.UUID

	// OwnReferralCode is the code this tenant hands out. Generated when empty.
	OwnReferralCode string `validate:"omitempty,alphanum,max=32"`
}

// OnboardTenantResult contains the created records and the one-time
// temporary password of the owner.
type OnboardTenantResult struct {
	Tenant            *domain.Tenant
	Subscription      *domain.Subscription
	Owner             *domain.Owner
	TemporaryPassword string
}

// OnboardTenantHandler handles the OnboardTenantCommand.
type OnboardTenantHandler struct {
	tenants          domain.TenantRepository
	owners           domain.OwnerRepository
	subscriptions    domain.SubscriptionRepository
	outboxRepo       outbox.Repository
	uow              sharedApplication.UnitOfWork
	referrals        ReferralResolver
	codes            ReferralCodeGenerator
	credentials      CredentialIssuer
	catalog          *domain.Catalog
	clock            clock.Clock
	defaultTrialDays int
	logger           *slog.Logger
	metrics          *observability.Metrics
}

// NewOnboardTenantHandler creates a new OnboardTenantHandler.
func NewOnboardTenantHandler(
	tenants domain.TenantRepository,
	owners domain.OwnerRepository,
	subscriptions domain.SubscriptionRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	referrals ReferralResolver,
	codes ReferralCodeGenerator,
	credentials CredentialIssuer,
	catalog *domain.Catalog,
	clk clock.Clock,
	defaultTrialDays int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *OnboardTenantHandler {
	return &OnboardTenantHandler{
		tenants:          tenants,
		owners:           owners,
		subscriptions:    subscriptions,
		outboxRepo:       outboxRepo,
		uow:              uow,
		referrals:        referrals,
		codes:            codes,
		credentials:      credentials,
		catalog:          catalog,
		clock:            clk,
		defaultTrialDays: defaultTrialDays,
		logger:           loggerOrDefault(logger),
		metrics:          metrics,
	}
}

// Handle executes the OnboardTenantCommand.
func (h *OnboardTenantHandler) Handle(ctx context.Context, cmd OnboardTenantCommand) (result *OnboardTenantResult, err error) {
	start := time.Now()
	defer func() { h.metrics.ObserveOperation("onboard_tenant", start, err) }()

	if err := validateInput(cmd); err != nil {
		return nil, err
	}

	plan, err := h.catalog.Lookup(domain.ParsePlanID(cmd.Plan))
	if err != nil {
		return nil, err
	}
	cycle, err := domain.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, err
	}
	billingType, err := domain.ParseBillingType(cmd.BillingType)
	if err != nil {
		return nil, err
	}

	price := cmd.Price
	if price.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if price.IsZero() {
		if price, err = plan.PriceFor(cycle); err != nil {
			return nil, err
		}
	}

	trialDays := cmd.TrialDays
	if trialDays == 0 {
		trialDays = h.defaultTrialDays
	}

	password, hash, err := h.credentials.Issue()
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()

		if err := h.ensureSlugFree(txCtx, cmd.Slug); err != nil {
			return err
		}

		source, err := h.referrals.Resolve(txCtx, cmd.ReferralCode, cmd.ReferredByPartnerID)
		if err != nil {
			return err
		}

		code, err := h.ownReferralCode(txCtx, cmd.OwnReferralCode)
		if err != nil {
			return err
		}

		tenant, err := domain.NewTenant(cmd.Name, cmd.Slug, code, source, now)
		if err != nil {
			return err
		}
		tenant.ApplyPlan(plan.ID, now)

		owner, err := domain.NewOwner(tenant.ID(), cmd.OwnerName, cmd.OwnerEmail, cmd.OwnerPhone, hash, now)
		if err != nil {
			return err
		}

		sub, err := domain.NewSubscription(tenant.ID(), plan.ID, cycle, billingType, price, trialDays, now)
		if err != nil {
			return err
		}

		if err := h.tenants.Create(txCtx, tenant); err != nil {
			return err
		}
		if err := h.owners.Create(txCtx, owner); err != nil {
			return err
		}
		if err := h.subscriptions.Create(txCtx, sub); err != nil {
			return err
		}

		events := []sharedDomain.DomainEvent{domain.NewTenantOnboarded(tenant, sub, owner.ID(), now)}
		if err := saveEvents(txCtx, h.outboxRepo, cmd.ActorID, events); err != nil {
			return err
		}

		result = &OnboardTenantResult{
			Tenant:            tenant,
			Subscription:      sub,
			Owner:             owner,
			TemporaryPassword: password,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "tenant onboarded",
		"tenant_id", result.Tenant.ID(),
		"subscription_id", result.Subscription.ID(),
		"plan", result.Subscription.Plan(),
		"status", result.Subscription.Status(),
		"referral", result.Tenant.ReferralSource().Kind().String(),
	)
	return result, nil
}

func (h *OnboardTenantHandler) ensureSlugFree(ctx context.Context, slug string) error {
	_, err := h.tenants.FindBySlug(ctx, slug)
	switch {
	case err == nil:
		return domain.ErrDuplicateSlug
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (h *OnboardTenantHandler) ownReferralCode(ctx context.Context, requested string) (string, error) {
	requested = domain.NormalizeReferralCode(requested)
	if requested == "" {
		return h.codes.Generate(ctx)
	}
	_, err := h.tenants.FindByReferralCode(ctx, requested)
	switch {
	case err == nil:
		return "", domain.ErrDuplicateReferralCode
	case errors.Is(err, domain.ErrNotFound):
		return requested, nil
	default:
		return "", err
	}
}
