package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// PostgresInvoiceRepository implements domain.InvoiceRepository with PostgreSQL.
type PostgresInvoiceRepository struct {
	conn database.Connection
}

// NewPostgresInvoiceRepository creates a new repository.
func NewPostgresInvoiceRepository(conn database.Connection) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{conn: conn}
}

// Create inserts an invoice.
func (r *PostgresInvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	var method *string
	if m := string(inv.PaymentMethod()); m != "" {
		method = &m
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID(),
		inv.SubscriptionID(),
		toNumeric(inv.Amount()),
		toNumeric(inv.Discount()),
		method,
		string(inv.Status()),
		inv.Reference(),
		inv.ReferralRewardSourceID(),
		inv.CreatedAt(),
		inv.PaidAt(),
		inv.DueDate(),
	)
	return translateWriteError(err, "invoice")
}

// FindByID returns an invoice by id.
func (r *PostgresInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanPostgresInvoice(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, err
}

// ListBySubscription returns the invoices of a subscription, oldest first.
func (r *PostgresInvoiceRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.Invoice, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE subscription_id = $1
		ORDER BY created_at, id`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		inv, err := scanPostgresInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanPostgresInvoice(row database.Row) (*domain.Invoice, error) {
	var (
		id, subscriptionID uuid.UUID
		amount, discount   pgtype.Numeric
		method             *string
		status, reference  string
		rewardSource       *uuid.UUID
		createdAt, dueDate time.Time
		paidAt             *time.Time
	)
	if err := row.Scan(&id, &subscriptionID, &amount, &discount, &method, &status, &reference,
		&rewardSource, &createdAt, &paidAt, &dueDate); err != nil {
		return nil, err
	}

	amountValue, err := fromNumeric(amount)
	if err != nil {
		return nil, fmt.Errorf("scan invoice %s: %w", id, err)
	}
	discountValue, err := fromNumeric(discount)
	if err != nil {
		return nil, fmt.Errorf("scan invoice %s: %w", id, err)
	}
	var paymentMethod domain.PaymentMethod
	if method != nil {
		paymentMethod = domain.PaymentMethod(*method)
	}
	if paidAt != nil {
		utc := paidAt.UTC()
		paidAt = &utc
	}

	return domain.RehydrateInvoice(
		sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		subscriptionID,
		amountValue,
		discountValue,
		paymentMethod,
		domain.InvoiceStatus(status),
		reference,
		rewardSource,
		paidAt,
		dueDate,
	), nil
}

// PostgresPayoutRepository implements domain.PayoutRepository with PostgreSQL.
type PostgresPayoutRepository struct {
	conn database.Connection
}

// NewPostgresPayoutRepository creates a new repository.
func NewPostgresPayoutRepository(conn database.Connection) *PostgresPayoutRepository {
	return &PostgresPayoutRepository{conn: conn}
}

// CreateBatch inserts payouts in the transaction carried by ctx, if any.
func (r *PostgresPayoutRepository) CreateBatch(ctx context.Context, payouts []*domain.CommissionPayout) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, p := range payouts {
		_, err := exec.Exec(ctx, `
			INSERT INTO commission_payouts (`+payoutColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID(),
			p.PartnerID(),
			p.InvoiceID(),
			toNumeric(p.Amount()),
			p.DueDate(),
			string(p.Status()),
			p.ReferenceMonth(),
			p.CreatedAt(),
			p.CanceledAt(),
		)
		if err != nil {
			return fmt.Errorf("insert payout %s: %w", p.ID(), translateWriteError(err, "payout"))
		}
	}
	return nil
}

// CancelPendingDueAfter cancels pending payouts of invoiceIDs due strictly after now.
func (r *PostgresPayoutRepository) CancelPendingDueAfter(ctx context.Context, invoiceIDs []uuid.UUID, now time.Time) ([]*domain.CommissionPayout, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}

	args := []any{string(domain.PayoutCanceled), now.UTC(), string(domain.PayoutPending)}
	for _, id := range invoiceIDs {
		args = append(args, id)
	}

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		UPDATE commission_payouts
		SET status = $1, canceled_at = $2
		WHERE status = $3 AND due_date > $2 AND invoice_id IN (`+pgPlaceholders(4, len(invoiceIDs))+`)
		RETURNING `+payoutColumns, args...)
	if err != nil {
		return nil, err
	}
	return collectPostgresPayouts(rows)
}

// ListByInvoice returns the payouts of an invoice by due date.
func (r *PostgresPayoutRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*domain.CommissionPayout, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+payoutColumns+`
		FROM commission_payouts
		WHERE invoice_id = $1
		ORDER BY due_date, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	return collectPostgresPayouts(rows)
}

// ListByPartner returns the payouts owed to a partner by due date.
func (r *PostgresPayoutRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*domain.CommissionPayout, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+payoutColumns+`
		FROM commission_payouts
		WHERE partner_id = $1
		ORDER BY due_date, id`, partnerID)
	if err != nil {
		return nil, err
	}
	return collectPostgresPayouts(rows)
}

func collectPostgresPayouts(rows database.Rows) ([]*domain.CommissionPayout, error) {
	defer rows.Close()

	var payouts []*domain.CommissionPayout
	for rows.Next() {
		var (
			id, partnerID, invoiceID uuid.UUID
			amount                   pgtype.Numeric
			dueDate, createdAt       time.Time
			status, referenceMonth   string
			canceledAt               *time.Time
		)
		if err := rows.Scan(&id, &partnerID, &invoiceID, &amount, &dueDate, &status, &referenceMonth,
			&createdAt, &canceledAt); err != nil {
			return nil, err
		}
		value, err := fromNumeric(amount)
		if err != nil {
			return nil, fmt.Errorf("scan payout %s: %w", id, err)
		}

		updated := createdAt
		if canceledAt != nil {
			utc := canceledAt.UTC()
			canceledAt = &utc
			updated = utc
		}
		payouts = append(payouts, domain.RehydrateCommissionPayout(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updated),
			partnerID, invoiceID, value, dueDate,
			domain.PayoutStatus(status), referenceMonth, canceledAt,
		))
	}
	return payouts, rows.Err()
}

var (
	_ domain.InvoiceRepository = (*PostgresInvoiceRepository)(nil)
	_ domain.PayoutRepository  = (*PostgresPayoutRepository)(nil)
)
