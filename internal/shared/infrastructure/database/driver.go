package database

import (
	"net/url"
	"strings"
)

// Driver names a database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

// IsValid reports whether d is a supported backend.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// ResolveDriver returns the explicitly configured driver, or the one implied
// by url when name is empty or "auto".
func ResolveDriver(name, url string) Driver {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return DetectDriver(url)
	case "postgresql", "pg":
		return DriverPostgres
	case "sqlite3":
		return DriverSQLite
	default:
		return Driver(strings.ToLower(name))
	}
}

// DetectDriver infers the driver from a connection string. An empty string
// selects SQLite so the CLI works without any configuration; anything
// unrecognized is treated as a PostgreSQL DSN.
func DetectDriver(dsn string) Driver {
	if dsn == "" {
		return DriverSQLite
	}
	if u, err := url.Parse(dsn); err == nil {
		switch u.Scheme {
		case "postgres", "postgresql":
			return DriverPostgres
		case "sqlite", "file":
			return DriverSQLite
		}
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(dsn, ext) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}
