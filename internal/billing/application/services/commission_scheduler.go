package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
)

// UpfrontCommissionScheduler materializes every payout a payment covers at
// confirmation time, one row per month.
type UpfrontCommissionScheduler struct {
	partners domain.PartnerRepository
	payouts  domain.PayoutRepository
	catalog  *domain.Catalog
	logger   *slog.Logger
}

var _ domain.CommissionScheduler = (*UpfrontCommissionScheduler)(nil)

// NewUpfrontCommissionScheduler creates a new UpfrontCommissionScheduler.
func NewUpfrontCommissionScheduler(partners domain.PartnerRepository, payouts domain.PayoutRepository, catalog *domain.Catalog, logger *slog.Logger) *UpfrontCommissionScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpfrontCommissionScheduler{partners: partners, payouts: payouts, catalog: catalog, logger: logger}
}

// Schedule pays the referring partner of req.Tenant. The commission base is
// always the plan's full monthly list price. It returns nil when the tenant
// has no partner or the partner does not earn commission.
func (s *UpfrontCommissionScheduler) Schedule(ctx context.Context, req domain.CommissionRequest) ([]*domain.CommissionPayout, error) {
	partnerID := req.Tenant.ReferredByPartnerID()
	if partnerID == nil {
		return nil, nil
	}

	partner, err := s.partners.FindByID(ctx, *partnerID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "referring partner missing, no commission scheduled",
			"tenant_id", req.Tenant.ID(),
			"partner_id", *partnerID,
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !partner.EarnsCommission() {
		return nil, nil
	}

	plan, err := s.catalog.Lookup(req.Subscription.Plan())
	if err != nil {
		return nil, err
	}

	amount := domain.CommissionAmount(plan.FullMonthlyPrice, partner.CommissionPercentage())
	payouts := domain.BuildPayoutSchedule(partner.ID(), req.Invoice.ID(), amount, req.Subscription.BillingCycle(), req.Now)
	if err := s.payouts.CreateBatch(ctx, payouts); err != nil {
		return nil, err
	}
	return payouts, nil
}
