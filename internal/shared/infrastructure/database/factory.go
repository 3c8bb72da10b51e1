package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config selects and parameterizes a database backend.
type Config struct {
	// Driver may be empty or "auto" to infer it from URL.
	Driver Driver

	// URL is the PostgreSQL DSN, e.g. postgres://trimly:secret@db:5432/trimly.
	URL string

	// SQLitePath defaults to DefaultSQLitePath when empty. ":memory:" is
	// accepted for tests.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool; zero keeps the pgx default.
	MaxConns int
}

// Opener builds a Connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes a driver available to NewConnection. The postgres and sqlite
// packages call it from init, so callers import them for side effects.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens the backend named by cfg.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := ResolveDriver(string(cfg.Driver), cfg.URL)

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database driver %q is not registered", driver)
	}

	cfg.Driver = driver
	return open(ctx, cfg)
}

// DefaultSQLitePath is where local mode keeps its data: ~/.trimly/trimly.db,
// or ./.trimly/trimly.db when the home directory is unknown.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".trimly", "trimly.db")
}
