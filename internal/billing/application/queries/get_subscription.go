package queries

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/google/uuid"
)

// GetSubscriptionQuery selects a subscription by its id or by its tenant.
// Exactly one of the two must be set.
type GetSubscriptionQuery struct {
	SubscriptionID uuid.UUID
	TenantID       uuid.UUID
}

// Validate validates the query.
func (q GetSubscriptionQuery) Validate() error {
	if (q.SubscriptionID == uuid.Nil) == (q.TenantID == uuid.Nil) {
		return errors.Join(domain.ErrValidation, errors.New("exactly one of subscription_id or tenant_id is required"))
	}
	return nil
}

// GetSubscriptionHandler handles the GetSubscriptionQuery.
type GetSubscriptionHandler struct {
	subscriptions domain.SubscriptionRepository
	clock         clock.Clock
}

// NewGetSubscriptionHandler creates a new GetSubscriptionHandler.
func NewGetSubscriptionHandler(subscriptions domain.SubscriptionRepository, clk clock.Clock) *GetSubscriptionHandler {
	return &GetSubscriptionHandler{subscriptions: subscriptions, clock: clk}
}

// Handle executes the GetSubscriptionQuery.
func (h *GetSubscriptionHandler) Handle(ctx context.Context, q GetSubscriptionQuery) (*SubscriptionDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		sub *domain.Subscription
		err error
	)
	if q.SubscriptionID != uuid.Nil {
		sub, err = h.subscriptions.FindByID(ctx, q.SubscriptionID)
	} else {
		sub, err = h.subscriptions.FindByTenantID(ctx, q.TenantID)
	}
	if err != nil {
		return nil, err
	}
	return toSubscriptionDTO(sub, h.clock.Now()), nil
}
