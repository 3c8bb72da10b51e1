package queries

import (
	"context"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/google/uuid"
)

// ListInvoicesQuery lists the invoices of a subscription, oldest first.
type ListInvoicesQuery struct {
	SubscriptionID uuid.UUID
}

// ListInvoicesHandler handles the ListInvoicesQuery.
type ListInvoicesHandler struct {
	subscriptions domain.SubscriptionRepository
	invoices      domain.InvoiceRepository
}

// NewListInvoicesHandler creates a new ListInvoicesHandler.
func NewListInvoicesHandler(subscriptions domain.SubscriptionRepository, invoices domain.InvoiceRepository) *ListInvoicesHandler {
	return &ListInvoicesHandler{subscriptions: subscriptions, invoices: invoices}
}

// Handle executes the ListInvoicesQuery. An unknown subscription is an error
// rather than an empty list.
func (h *ListInvoicesHandler) Handle(ctx context.Context, q ListInvoicesQuery) ([]InvoiceDTO, error) {
	if _, err := h.subscriptions.FindByID(ctx, q.SubscriptionID); err != nil {
		return nil, err
	}
	invoices, err := h.invoices.ListBySubscription(ctx, q.SubscriptionID)
	if err != nil {
		return nil, err
	}

	dtos := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		dtos = append(dtos, ToInvoiceDTO(inv))
	}
	return dtos, nil
}
