// Package commands holds the state-changing billing operations. Each handler
// runs its writes in one unit of work and records domain events into the
// outbox before commit. Owner notifications are sent after commit.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/notifications"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notifier delivers best-effort messages. Implementations must not block for
// long and never report failure to the caller.
type Notifier interface {
	Dispatch(ctx context.Context, n notifications.Notification)
}

// RewardRedeemer consumes referral rewards inside the payment transaction.
type RewardRedeemer interface {
	Redeem(ctx context.Context, sub *domain.Subscription, amount decimal.Decimal) (*domain.RewardRedemption, error)
}

// CommissionCanceler voids future payouts of a subscription.
type CommissionCanceler interface {
	CancelFutureCommissions(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.CommissionPayout, error)
}

// ReferralResolver decides which referral, if any, acquired a new tenant.
type ReferralResolver interface {
	Resolve(ctx context.Context, code string, partnerID *uuid.UUID) (domain.ReferralSource, error)
}

// ReferralCodeGenerator produces unused referral codes.
type ReferralCodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// CredentialIssuer creates a temporary owner password and its hash.
type CredentialIssuer interface {
	Issue() (plain, hash string, err error)
}

var validate = validator.New()

// validateInput checks struct tags and reports the first failing field as a
// validation error.
func validateInput(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("%w: %s failed %q", domain.ErrValidation, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

// saveEvents stamps events with one correlation id and stores them in the outbox.
func saveEvents(ctx context.Context, repo outbox.Repository, actorID uuid.UUID, events []sharedDomain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, actorID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}

// collectEvents drains the uncommitted events of the given aggregates.
func collectEvents(aggregates ...sharedDomain.AggregateRoot) []sharedDomain.DomainEvent {
	var events []sharedDomain.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.DomainEvents()...)
		agg.ClearDomainEvents()
	}
	return events
}

// ownerNotifier looks up a tenant's owner and hands a message to the notifier.
// Lookup failures are logged and dropped.
type ownerNotifier struct {
	owners   domain.OwnerRepository
	notifier Notifier
	logger   *slog.Logger
}

func (o ownerNotifier) notify(ctx context.Context, tenantID uuid.UUID, n notifications.Notification) {
	if o.notifier == nil || o.owners == nil {
		return
	}
	owner, err := o.owners.FindByTenantID(ctx, tenantID)
	if err != nil {
		o.logger.WarnContext(ctx, "skipping owner notification",
			"tenant_id", tenantID,
			"title", n.Title,
			"error", err,
		)
		return
	}
	n.RecipientID = owner.ID()
	o.notifier.Dispatch(ctx, n)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
