// Package migrations embeds the schema for both supported drivers.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

// RunSQLiteMigrations executes all SQLite migrations in order.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return run(ctx, db, "sqlite")
}

// RunPostgresMigrations executes all PostgreSQL migrations in order.
func RunPostgresMigrations(ctx context.Context, db *sql.DB) error {
	return run(ctx, db, "postgres")
}

// Run executes the migrations for driver against db.
func Run(ctx context.Context, db *sql.DB, driver database.Driver) error {
	switch driver {
	case database.DriverSQLite:
		return RunSQLiteMigrations(ctx, db)
	case database.DriverPostgres:
		return RunPostgresMigrations(ctx, db)
	default:
		return fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Files lists the embedded .up.sql files for dir in execution order.
func Files(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)
	return upFiles, nil
}

func run(ctx context.Context, db *sql.DB, dir string) error {
	files, err := Files(dir)
	if err != nil {
		return err
	}

	// Every statement is IF NOT EXISTS, so reruns are no-ops.
	for _, file := range files {
		migration, err := migrationFS.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}
