package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Partner is an affiliate that can refer tenants and earn commissions.
type Partner struct {
	sharedDomain.BaseAggregateRoot
	name                 string
	email                string
	role                 PartnerRole
	active               bool
	commissionPercentage decimal.Decimal
}

// NewPartner creates an active partner.
func NewPartner(name, email string, role PartnerRole, commissionPercentage decimal.Decimal, now time.Time) (*Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = RolePartner
	}
	if !role.IsValid() {
		return nil, ErrInvalidPartnerRole
	}
	if commissionPercentage.IsNegative() || commissionPercentage.GreaterThan(hundred) {
		return nil, ErrInvalidCommission
	}

	p := &Partner{
		BaseAggregateRoot:    sharedDomain.NewBaseAggregateRoot(now),
		name:                 name,
		email:                email,
		role:                 role,
		active:               true,
		commissionPercentage: commissionPercentage,
	}
	p.AddDomainEvent(NewPartnerCreated(p, now))
	return p, nil
}

// RehydratePartner recreates a partner from persisted state.
func RehydratePartner(entity sharedDomain.BaseEntity, name, email string, role PartnerRole, active bool, commissionPercentage decimal.Decimal) *Partner {
	return &Partner{
		BaseAggregateRoot:    sharedDomain.RehydrateBaseAggregateRoot(entity),
		name:                 name,
		email:                email,
		role:                 role,
		active:               active,
		commissionPercentage: commissionPercentage,
	}
}

func (p *Partner) Name() string                          { return p.name }
func (p *Partner) Email() string                         { return p.email }
func (p *Partner) Role() PartnerRole                     { return p.role }
func (p *Partner) IsActive() bool                        { return p.active }
func (p *Partner) CommissionPercentage() decimal.Decimal { return p.commissionPercentage }

// SetActive toggles whether the partner accrues commissions on new payments.
// Payouts already scheduled are not touched.
func (p *Partner) SetActive(active bool, now time.Time) {
	if p.active == active {
		return
	}
	p.active = active
	p.Touch(now)
	p.AddDomainEvent(NewPartnerStatusChanged(p, now))
}

// EarnsCommission reports whether a new payment by a referred tenant should
// generate payouts for this partner.
func (p *Partner) EarnsCommission() bool {
	return p.active && p.role == RolePartner && p.commissionPercentage.IsPositive()
}
