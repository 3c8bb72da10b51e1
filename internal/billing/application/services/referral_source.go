package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/google/uuid"
)

// ReferralSourceResolver turns the referral inputs of an onboarding request
// into a single acquisition source.
type ReferralSourceResolver struct {
	tenants  domain.TenantRepository
	partners domain.PartnerRepository
}

// NewReferralSourceResolver creates a new ReferralSourceResolver.
func NewReferralSourceResolver(tenants domain.TenantRepository, partners domain.PartnerRepository) *ReferralSourceResolver {
	return &ReferralSourceResolver{tenants: tenants, partners: partners}
}

// Resolve looks up the referral code first. A matching code wins and the
// partner id is ignored; an unknown code is rejected. Without a code the
// partner must exist and be active.
func (r *ReferralSourceResolver) Resolve(ctx context.Context, code string, partnerID *uuid.UUID) (domain.ReferralSource, error) {
	code = domain.NormalizeReferralCode(code)
	if code != "" {
		referrer, err := r.tenants.FindByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NoReferral(), fmt.Errorf("%w: %s", domain.ErrInvalidReferralCode, code)
		}
		if err != nil {
			return domain.NoReferral(), err
		}
		id := referrer.ID()
		return domain.ChooseReferralSource(&id, partnerID), nil
	}

	if partnerID == nil {
		return domain.NoReferral(), nil
	}

	partner, err := r.partners.FindByID(ctx, *partnerID)
	if err != nil {
		return domain.NoReferral(), err
	}
	if !partner.IsActive() {
		return domain.NoReferral(), domain.ErrPartnerInactive
	}
	return domain.ChooseReferralSource(nil, partnerID), nil
}
