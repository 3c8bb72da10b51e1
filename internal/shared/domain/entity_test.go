package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewBaseEntity_StoresUTC(t *testing.T) {
	saoPaulo := fixedNow.In(time.FixedZone("BRT", -3*60*60))

	entity := domain.NewBaseEntity(saoPaulo)

	assert.NotEqual(t, uuid.Nil, entity.ID())
	assert.Equal(t, time.UTC, entity.CreatedAt().Location())
	assert.True(t, fixedNow.Equal(entity.CreatedAt()))
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestBaseEntity_TouchKeepsCreatedAt(t *testing.T) {
	entity := domain.NewBaseEntity(fixedNow)

	entity.Touch(fixedNow.Add(time.Minute))

	assert.Equal(t, fixedNow.Add(time.Minute), entity.UpdatedAt())
	assert.Equal(t, fixedNow, entity.CreatedAt())
}

func TestRehydrateBaseEntity(t *testing.T) {
	id := uuid.New()

	entity := domain.RehydrateBaseEntity(id, fixedNow, fixedNow.Add(time.Hour))

	assert.Equal(t, id, entity.ID())
	assert.Equal(t, fixedNow.Add(time.Hour), entity.UpdatedAt())
}
