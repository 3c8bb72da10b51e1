package domain

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps. Times always come from
// the caller's clock and are normalized to UTC.
type BaseEntity struct {
	id        uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

// NewBaseEntity mints a fresh identity created at now.
func NewBaseEntity(now time.Time) BaseEntity {
	return RehydrateBaseEntity(uuid.New(), now, now)
}

// RehydrateBaseEntity rebuilds an entity read back from storage.
func RehydrateBaseEntity(id uuid.UUID, createdAt, updatedAt time.Time) BaseEntity {
	return BaseEntity{id: id, createdAt: createdAt.UTC(), updatedAt: updatedAt.UTC()}
}

func (e BaseEntity) ID() uuid.UUID        { return e.id }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }
func (e BaseEntity) UpdatedAt() time.Time { return e.updatedAt }

// Touch records a mutation at now.
func (e *BaseEntity) Touch(now time.Time) {
	e.updatedAt = now.UTC()
}
