package services

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RewardResolver redeems referral rewards. Availability is derived from the
// referred tenants themselves, never from a stored balance.
type RewardResolver struct {
	tenants domain.TenantRepository
	clock   clock.Clock
}

// NewRewardResolver creates a new RewardResolver.
func NewRewardResolver(tenants domain.TenantRepository, clk clock.Clock) *RewardResolver {
	return &RewardResolver{tenants: tenants, clock: clk}
}

// Redeem consumes one eligible reward source for sub and returns the discount
// implied by the caller charging amount instead of the subscription price.
// It must run inside the payment transaction.
func (r *RewardResolver) Redeem(ctx context.Context, sub *domain.Subscription, amount decimal.Decimal) (*domain.RewardRedemption, error) {
	candidates, err := r.candidates(ctx, sub.TenantID())
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	for _, candidate := range candidates {
		claimed, err := r.tenants.ClaimReward(ctx, candidate.ID(), now)
		if err != nil {
			return nil, fmt.Errorf("claim referral reward: %w", err)
		}
		if !claimed {
			continue
		}
		return &domain.RewardRedemption{
			SourceTenantID: candidate.ID(),
			Discount:       domain.RewardDiscount(sub.Price(), amount),
		}, nil
	}
	return nil, domain.ErrNoRewardAvailable
}

// Available counts the rewards tenantID could redeem right now.
func (r *RewardResolver) Available(ctx context.Context, tenantID uuid.UUID) (int, error) {
	candidates, err := r.candidates(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

func (r *RewardResolver) candidates(ctx context.Context, tenantID uuid.UUID) ([]*domain.Tenant, error) {
	found, err := r.tenants.FindRewardCandidates(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("find referral reward candidates: %w", err)
	}
	eligible := found[:0]
	for _, t := range found {
		if t.ID() != tenantID && !t.ReferralRewardClaimed() {
			eligible = append(eligible, t)
		}
	}
	return eligible, nil
}
