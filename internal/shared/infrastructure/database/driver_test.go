package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDriver(t *testing.T) {
	tests := map[string]Driver{
		"":                                           DriverSQLite,
		"postgres://app:secret@db:5432/trimly":       DriverPostgres,
		"postgresql://app@db/trimly?sslmode=disable": DriverPostgres,
		"sqlite:///var/lib/trimly/data.db":           DriverSQLite,
		"file:/var/lib/trimly/data.sqlite":           DriverSQLite,
		"/tmp/trimly.db":                             DriverSQLite,
		"trimly.sqlite3":                             DriverSQLite,
		"host=db user=app dbname=trimly":             DriverPostgres,
	}

	for dsn, want := range tests {
		assert.Equal(t, want, DetectDriver(dsn), dsn)
	}
}

func TestResolveDriver(t *testing.T) {
	assert.Equal(t, DriverSQLite, ResolveDriver("", ""))
	assert.Equal(t, DriverPostgres, ResolveDriver("auto", "postgres://db/trimly"))
	assert.Equal(t, DriverPostgres, ResolveDriver("PostgreSQL", ""))
	assert.Equal(t, DriverSQLite, ResolveDriver("sqlite3", "postgres://db/trimly"))
	assert.Equal(t, Driver("mysql"), ResolveDriver("MySQL", ""))
	assert.False(t, ResolveDriver("mysql", "").IsValid())
}

func TestDriver_IsValid(t *testing.T) {
	assert.True(t, DriverPostgres.IsValid())
	assert.True(t, DriverSQLite.IsValid())
	assert.False(t, Driver("").IsValid())
	assert.Equal(t, "sqlite", DriverSQLite.String())
}
