package domain

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is anything whose pending events a command handler drains
// into the outbox after a successful save.
type AggregateRoot interface {
	ID() uuid.UUID
	DomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot buffers events raised by a mutation until they are
// collected.
type BaseAggregateRoot struct {
	BaseEntity
	pending []DomainEvent
}

func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(now)}
}

// RehydrateBaseAggregateRoot wraps a stored entity. Loaded aggregates start
// with no pending events.
func RehydrateBaseAggregateRoot(entity BaseEntity) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: entity}
}

// DomainEvents returns the pending events in the order they were raised.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return append([]DomainEvent(nil), a.pending...)
}

func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}
