package queries

import (
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/google/uuid"
)

// SubscriptionDTO is the read model of a subscription.
type SubscriptionDTO struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Plan         string    `json:"plan"`
	BillingCycle string    `json:"billing_cycle"`
	BillingType  string    `json:"billing_type"`
	Status       string    `json:"status"`
	Price        string    `json:"price"`
	TrialDays    int       `json:"trial_days"`
	EndDate      time.Time `json:"end_date"`
	HasAccess    bool      `json:"has_access"`
	IsOverdue    bool      `json:"is_overdue"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InvoiceDTO is the read model of an invoice. Amounts are decimal strings.
type InvoiceDTO struct {
	ID                     uuid.UUID  `json:"id"`
	SubscriptionID         uuid.UUID  `json:"subscription_id"`
	Amount                 string     `json:"amount"`
	Discount               string     `json:"discount"`
	PaymentMethod          string     `json:"payment_method,omitempty"`
	Status                 string     `json:"status"`
	Reference              string     `json:"reference"`
	ReferralRewardSourceID *uuid.UUID `json:"referral_reward_source_id,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	PaidAt                 *time.Time `json:"paid_at,omitempty"`
	DueDate                time.Time  `json:"due_date"`
}

// PayoutDTO is the read model of a commission payout.
type PayoutDTO struct {
	ID             uuid.UUID  `json:"id"`
	PartnerID      uuid.UUID  `json:"partner_id"`
	InvoiceID      uuid.UUID  `json:"invoice_id"`
	Amount         string     `json:"amount"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	ReferenceMonth string     `json:"reference_month"`
	CanceledAt     *time.Time `json:"canceled_at,omitempty"`
}

// PartnerDTO is the read model of a partner.
type PartnerDTO struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Role                 string    `json:"role"`
	IsActive             bool      `json:"is_active"`
	CommissionPercentage string    `json:"commission_percentage"`
	CreatedAt            time.Time `json:"created_at"`
}

// PlanDTO is the read model of a catalog plan.
type PlanDTO struct {
	ID               string            `json:"id"`
	DisplayName      string            `json:"display_name"`
	Prices           map[string]string `json:"prices"`
	FullMonthlyPrice string            `json:"full_monthly_price"`
	MaxProfessionals int               `json:"max_professionals"`
	Features         []string          `json:"features,omitempty"`
}

func toSubscriptionDTO(s *domain.Subscription, now time.Time) *SubscriptionDTO {
	return &SubscriptionDTO{
		ID:           s.ID(),
		TenantID:     s.TenantID(),
		Plan:         string(s.Plan()),
		BillingCycle: string(s.BillingCycle()),
		BillingType:  string(s.BillingType()),
		Status:       string(s.Status()),
		Price:        s.Price().StringFixed(2),
		TrialDays:    s.TrialDays(),
		EndDate:      s.EndDate(),
		HasAccess:    s.HasAccess(),
		IsOverdue:    s.IsOverdue(now),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

// ToInvoiceDTO converts an invoice to its read model.
func ToInvoiceDTO(i *domain.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:                     i.ID(),
		SubscriptionID:         i.SubscriptionID(),
		Amount:                 i.Amount().StringFixed(2),
		Discount:               i.Discount().StringFixed(2),
		PaymentMethod:          string(i.PaymentMethod()),
		Status:                 string(i.Status()),
		Reference:              i.Reference(),
		ReferralRewardSourceID: i.ReferralRewardSourceID(),
		CreatedAt:              i.CreatedAt(),
		PaidAt:                 i.PaidAt(),
		DueDate:                i.DueDate(),
	}
}

// ToPayoutDTOs converts payouts to their read model.
func ToPayoutDTOs(payouts []*domain.CommissionPayout) []PayoutDTO {
	dtos := make([]PayoutDTO, 0, len(payouts))
	for _, p := range payouts {
		dtos = append(dtos, PayoutDTO{
			ID:             p.ID(),
			PartnerID:      p.PartnerID(),
			InvoiceID:      p.InvoiceID(),
			Amount:         p.Amount().StringFixed(2),
			DueDate:        p.DueDate(),
			Status:         string(p.Status()),
			ReferenceMonth: p.ReferenceMonth(),
			CanceledAt:     p.CanceledAt(),
		})
	}
	return dtos
}

// ToPartnerDTO converts a partner to its read model.
func ToPartnerDTO(p *domain.Partner) PartnerDTO {
	return PartnerDTO{
		ID:                   p.ID(),
		Name:                 p.Name(),
		Email:                p.Email(),
		Role:                 string(p.Role()),
		IsActive:             p.IsActive(),
		CommissionPercentage: p.CommissionPercentage().String(),
		CreatedAt:            p.CreatedAt(),
	}
}
