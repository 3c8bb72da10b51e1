package app

import (
	"fmt"

	"github.com/felixgeelhaar/trimly/internal/billing/infrastructure/persistence"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
)

// storage is every driver-specific store the billing handlers write through,
// all bound to one connection so a unit of work spans them.
type storage struct {
	billing *persistence.Repositories
	outbox  outbox.Repository
	uow     *database.GenericUnitOfWork
}

func newStorage(conn database.Connection) (*storage, error) {
	var box outbox.Repository
	switch conn.Driver() {
	case database.DriverPostgres:
		box = outbox.NewPostgresRepository(conn)
	case database.DriverSQLite:
		box = outbox.NewSQLiteRepository(conn)
	default:
		return nil, fmt.Errorf("no outbox store for driver %q", conn.Driver())
	}

	repos, err := persistence.NewRepositories(conn)
	if err != nil {
		return nil, err
	}
	return &storage{billing: repos, outbox: box, uow: database.NewUnitOfWork(conn)}, nil
}
