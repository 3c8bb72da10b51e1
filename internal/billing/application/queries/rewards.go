package queries

import (
	"context"

	"github.com/google/uuid"
)

// RewardCounter counts redeemable referral rewards.
type RewardCounter interface {
	Available(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// CountAvailableRewardsQuery asks how many rewards a tenant could redeem now.
type CountAvailableRewardsQuery struct {
	TenantID uuid.UUID
}

// CountAvailableRewardsHandler handles the CountAvailableRewardsQuery.
type CountAvailableRewardsHandler struct {
	rewards RewardCounter
}

// NewCountAvailableRewardsHandler creates a new CountAvailableRewardsHandler.
func NewCountAvailableRewardsHandler(rewards RewardCounter) *CountAvailableRewardsHandler {
	return &CountAvailableRewardsHandler{rewards: rewards}
}

// Handle executes the CountAvailableRewardsQuery.
func (h *CountAvailableRewardsHandler) Handle(ctx context.Context, q CountAvailableRewardsQuery) (int, error) {
	return h.rewards.Available(ctx, q.TenantID)
}
