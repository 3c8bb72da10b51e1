// Package persistence stores the billing aggregates in SQLite or PostgreSQL.
package persistence

import (
	"fmt"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
)

// Repositories groups the billing repositories of one connection.
type Repositories struct {
	Tenants       domain.TenantRepository
	Owners        domain.OwnerRepository
	Partners      domain.PartnerRepository
	Subscriptions domain.SubscriptionRepository
	Invoices      domain.InvoiceRepository
	Payouts       domain.PayoutRepository
}

// NewRepositories builds the repositories matching the connection's driver.
func NewRepositories(conn database.Connection) (*Repositories, error) {
	switch conn.Driver() {
	case database.DriverSQLite:
		return &Repositories{
			Tenants:       NewSQLiteTenantRepository(conn),
			Owners:        NewSQLiteOwnerRepository(conn),
			Partners:      NewSQLitePartnerRepository(conn),
			Subscriptions: NewSQLiteSubscriptionRepository(conn),
			Invoices:      NewSQLiteInvoiceRepository(conn),
			Payouts:       NewSQLitePayoutRepository(conn),
		}, nil
	case database.DriverPostgres:
		return &Repositories{
			Tenants:       NewPostgresTenantRepository(conn),
			Owners:        NewPostgresOwnerRepository(conn),
			Partners:      NewPostgresPartnerRepository(conn),
			Subscriptions: NewPostgresSubscriptionRepository(conn),
			Invoices:      NewPostgresInvoiceRepository(conn),
			Payouts:       NewPostgresPayoutRepository(conn),
		}, nil
	default:
		return nil, fmt.Errorf("no billing repositories for driver %q", conn.Driver())
	}
}
