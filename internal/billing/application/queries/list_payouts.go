package queries

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListPayoutsQuery lists payouts by partner or by invoice.
type ListPayoutsQuery struct {
	PartnerID uuid.UUID
	InvoiceID uuid.UUID
}

// Validate validates the query.
func (q ListPayoutsQuery) Validate() error {
	if (q.PartnerID == uuid.Nil) == (q.InvoiceID == uuid.Nil) {
		return errors.Join(domain.ErrValidation, errors.New("exactly one of partner_id or invoice_id is required"))
	}
	return nil
}

// PayoutList is a list of payouts with totals by status.
type PayoutList struct {
	Payouts       []PayoutDTO `json:"payouts"`
	PendingTotal  string      `json:"pending_total"`
	CanceledTotal string      `json:"canceled_total"`
}

// ListPayoutsHandler handles the ListPayoutsQuery.
type ListPayoutsHandler struct {
	partners domain.PartnerRepository
	payouts  domain.PayoutRepository
}

// NewListPayoutsHandler creates a new ListPayoutsHandler.
func NewListPayoutsHandler(partners domain.PartnerRepository, payouts domain.PayoutRepository) *ListPayoutsHandler {
	return &ListPayoutsHandler{partners: partners, payouts: payouts}
}

// Handle executes the ListPayoutsQuery.
func (h *ListPayoutsHandler) Handle(ctx context.Context, q ListPayoutsQuery) (*PayoutList, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		payouts []*domain.CommissionPayout
		err     error
	)
	if q.PartnerID != uuid.Nil {
		if _, err := h.partners.FindByID(ctx, q.PartnerID); err != nil {
			return nil, err
		}
		payouts, err = h.payouts.ListByPartner(ctx, q.PartnerID)
	} else {
		payouts, err = h.payouts.ListByInvoice(ctx, q.InvoiceID)
	}
	if err != nil {
		return nil, err
	}

	pending, canceled := decimal.Zero, decimal.Zero
	for _, p := range payouts {
		switch p.Status() {
		case domain.PayoutPending:
			pending = pending.Add(p.Amount())
		case domain.PayoutCanceled:
			canceled = canceled.Add(p.Amount())
		}
	}

	return &PayoutList{
		Payouts:       ToPayoutDTOs(payouts),
		PendingTotal:  pending.StringFixed(2),
		CanceledTotal: canceled.StringFixed(2),
	}, nil
}
