package services

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"golang.org/x/crypto/bcrypt"
)

// codeEncoding drops I, O, 0 and 1 so codes survive being read aloud.
var codeEncoding = base32.NewEncoding("ABCDEFGHJKLMNPQRSTUVWXYZ23456789").WithPadding(base32.NoPadding)

const referralCodeAttempts = 5

// randomCode returns a code of 8 characters per 5 random bytes.
func randomCode(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return codeEncoding.EncodeToString(buf), nil
}

// ReferralCodeGenerator issues tenant referral codes that are not yet taken.
type ReferralCodeGenerator struct {
	tenants domain.TenantRepository
}

// NewReferralCodeGenerator creates a new ReferralCodeGenerator.
func NewReferralCodeGenerator(tenants domain.TenantRepository) *ReferralCodeGenerator {
	return &ReferralCodeGenerator{tenants: tenants}
}

// Generate returns an unused 8-character code.
func (g *ReferralCodeGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := randomCode(5)
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		_, err = g.tenants.FindByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts", domain.ErrDuplicateReferralCode, referralCodeAttempts)
}

// CredentialIssuer creates temporary owner passwords.
type CredentialIssuer struct {
	cost int
}

// NewCredentialIssuer creates an issuer hashing with the given bcrypt cost.
// Zero selects bcrypt.DefaultCost.
func NewCredentialIssuer(cost int) *CredentialIssuer {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialIssuer{cost: cost}
}

// Issue returns a random password and its bcrypt hash. The plaintext is
// shown to the operator once and never stored.
func (c *CredentialIssuer) Issue() (plain, hash string, err error) {
	plain, err = randomCode(10)
	if err != nil {
		return "", "", fmt.Errorf("generate credential: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), c.cost)
	if err != nil {
		return "", "", fmt.Errorf("hash credential: %w", err)
	}
	return plain, string(hashed), nil
}
