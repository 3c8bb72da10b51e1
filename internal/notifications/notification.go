// Package notifications delivers best-effort messages to tenant owners.
// Delivery never blocks or fails the billing operation that triggered it.
package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type classifies a notification for display.
type Type string

const (
	TypeInfo    Type = "INFO"
	TypeSuccess Type = "SUCCESS"
	TypeWarning Type = "WARNING"
	TypeBilling Type = "BILLING"
)

// Notification is a message addressed to one recipient.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        Type      `json:"type"`
	Link        string    `json:"link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrNoRecipient is returned by sinks for notifications without a recipient.
var ErrNoRecipient = errors.New("notification has no recipient")

// Sink delivers notifications.
type Sink interface {
	Send(ctx context.Context, n Notification) error
	Name() string
}

// NoopSink discards notifications.
type NoopSink struct{}

func (NoopSink) Send(context.Context, Notification) error { return nil }
func (NoopSink) Name() string                             { return "noop" }
