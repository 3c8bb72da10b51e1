package domain

import (
	"net/mail"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
)

// Owner is the account that manages a tenant and receives its notifications.
type Owner struct {
	sharedDomain.BaseEntity
	tenantID           uuid.UUID
	name               string
	email              string
	phone              string
	passwordHash       string
	mustChangePassword bool
}

// NewOwner creates an owner whose temporary credential must be changed on
// first login.
func NewOwner(tenantID uuid.UUID, name, email, phone, passwordHash string, now time.Time) (*Owner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	return &Owner{
		BaseEntity:         sharedDomain.NewBaseEntity(now),
		tenantID:           tenantID,
		name:               name,
		email:              email,
		phone:              strings.TrimSpace(phone),
		passwordHash:       passwordHash,
		mustChangePassword: true,
	}, nil
}

// RehydrateOwner recreates an owner from persisted state.
func RehydrateOwner(entity sharedDomain.BaseEntity, tenantID uuid.UUID, name, email, phone, passwordHash string, mustChangePassword bool) *Owner {
	return &Owner{
		BaseEntity:         entity,
		tenantID:           tenantID,
		name:               name,
		email:              email,
		phone:              phone,
		passwordHash:       passwordHash,
		mustChangePassword: mustChangePassword,
	}
}

func (o *Owner) TenantID() uuid.UUID      { return o.tenantID }
func (o *Owner) Name() string             { return o.name }
func (o *Owner) Email() string            { return o.email }
func (o *Owner) Phone() string            { return o.phone }
func (o *Owner) PasswordHash() string     { return o.passwordHash }
func (o *Owner) MustChangePassword() bool { return o.mustChangePassword }

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
