package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const invoiceColumns = `id, subscription_id, amount, discount, payment_method, status, reference,
	referral_reward_source_id, created_at, paid_at, due_date`

// SQLiteInvoiceRepository implements domain.InvoiceRepository with SQLite.
// Invoices are append-only.
type SQLiteInvoiceRepository struct {
	conn database.Connection
}

// NewSQLiteInvoiceRepository creates a new repository.
func NewSQLiteInvoiceRepository(conn database.Connection) *SQLiteInvoiceRepository {
	return &SQLiteInvoiceRepository{conn: conn}
}

// Create inserts an invoice.
func (r *SQLiteInvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	var method sql.NullString
	if inv.PaymentMethod() != "" {
		method = sql.NullString{String: string(inv.PaymentMethod()), Valid: true}
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID().String(),
		inv.SubscriptionID().String(),
		inv.Amount().StringFixed(2),
		inv.Discount().StringFixed(2),
		method,
		string(inv.Status()),
		inv.Reference(),
		nullUUID(inv.ReferralRewardSourceID()),
		formatSQLiteTime(inv.CreatedAt()),
		formatSQLiteNullTime(inv.PaidAt()),
		formatSQLiteTime(inv.DueDate()),
	)
	return translateWriteError(err, "invoice")
}

// FindByID returns an invoice by id.
func (r *SQLiteInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id.String())
	inv, err := scanSQLiteInvoice(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, err
}

// ListBySubscription returns the invoices of a subscription, oldest first.
func (r *SQLiteInvoiceRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.Invoice, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE subscription_id = ?
		ORDER BY created_at, id`, subscriptionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		inv, err := scanSQLiteInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanSQLiteInvoice(row database.Row) (*domain.Invoice, error) {
	var (
		id, subscriptionID, amount, discount string
		method, rewardSource, paidAt         sql.NullString
		status, reference                    string
		createdAt, dueDate                   string
	)
	if err := row.Scan(&id, &subscriptionID, &amount, &discount, &method, &status, &reference,
		&rewardSource, &createdAt, &paidAt, &dueDate); err != nil {
		return nil, err
	}

	var v sqliteValues
	created := v.time(createdAt)
	inv := domain.RehydrateInvoice(
		sharedDomain.RehydrateBaseEntity(v.uuid(id), created, created),
		v.uuid(subscriptionID),
		v.decimal(amount),
		v.decimal(discount),
		domain.PaymentMethod(method.String),
		domain.InvoiceStatus(status),
		reference,
		v.nullUUID(rewardSource),
		v.nullTime(paidAt),
		v.time(dueDate),
	)
	if v.err != nil {
		return nil, fmt.Errorf("scan invoice %s: %w", id, v.err)
	}
	return inv, nil
}

const payoutColumns = `id, partner_id, invoice_id, amount, due_date, status, reference_month,
	created_at, canceled_at`

// SQLitePayoutRepository implements domain.PayoutRepository with SQLite.
type SQLitePayoutRepository struct {
	conn database.Connection
}

// NewSQLitePayoutRepository creates a new repository.
func NewSQLitePayoutRepository(conn database.Connection) *SQLitePayoutRepository {
	return &SQLitePayoutRepository{conn: conn}
}

// CreateBatch inserts payouts in the transaction carried by ctx, if any.
func (r *SQLitePayoutRepository) CreateBatch(ctx context.Context, payouts []*domain.CommissionPayout) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, p := range payouts {
		_, err := exec.Exec(ctx, `
			INSERT INTO commission_payouts (`+payoutColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID().String(),
			p.PartnerID().String(),
			p.InvoiceID().String(),
			p.Amount().StringFixed(2),
			formatSQLiteTime(p.DueDate()),
			string(p.Status()),
			p.ReferenceMonth(),
			formatSQLiteTime(p.CreatedAt()),
			formatSQLiteNullTime(p.CanceledAt()),
		)
		if err != nil {
			return fmt.Errorf("insert payout %s: %w", p.ID(), translateWriteError(err, "payout"))
		}
	}
	return nil
}

// CancelPendingDueAfter cancels pending payouts of invoiceIDs due strictly after now.
func (r *SQLitePayoutRepository) CancelPendingDueAfter(ctx context.Context, invoiceIDs []uuid.UUID, now time.Time) ([]*domain.CommissionPayout, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}

	ts := formatSQLiteTime(now)
	args := []any{string(domain.PayoutCanceled), ts, string(domain.PayoutPending), ts}
	for _, id := range invoiceIDs {
		args = append(args, id.String())
	}

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		UPDATE commission_payouts
		SET status = ?, canceled_at = ?
		WHERE status = ? AND due_date > ? AND invoice_id IN (`+placeholders(len(invoiceIDs))+`)
		RETURNING `+payoutColumns, args...)
	if err != nil {
		return nil, err
	}
	return collectSQLitePayouts(rows)
}

// ListByInvoice returns the payouts of an invoice by due date.
func (r *SQLitePayoutRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*domain.CommissionPayout, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+payoutColumns+`
		FROM commission_payouts
		WHERE invoice_id = ?
		ORDER BY due_date, id`, invoiceID.String())
	if err != nil {
		return nil, err
	}
	return collectSQLitePayouts(rows)
}

// ListByPartner returns the payouts owed to a partner by due date.
func (r *SQLitePayoutRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*domain.CommissionPayout, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+payoutColumns+`
		FROM commission_payouts
		WHERE partner_id = ?
		ORDER BY due_date, id`, partnerID.String())
	if err != nil {
		return nil, err
	}
	return collectSQLitePayouts(rows)
}

func collectSQLitePayouts(rows database.Rows) ([]*domain.CommissionPayout, error) {
	defer rows.Close()

	var payouts []*domain.CommissionPayout
	for rows.Next() {
		var (
			id, partnerID, invoiceID, amount string
			dueDate, status, referenceMonth  string
			createdAt                        string
			canceledAt                       sql.NullString
		)
		if err := rows.Scan(&id, &partnerID, &invoiceID, &amount, &dueDate, &status, &referenceMonth,
			&createdAt, &canceledAt); err != nil {
			return nil, err
		}

		var v sqliteValues
		created := v.time(createdAt)
		updated := created
		canceled := v.nullTime(canceledAt)
		if canceled != nil {
			updated = *canceled
		}
		p := domain.RehydrateCommissionPayout(
			sharedDomain.RehydrateBaseEntity(v.uuid(id), created, updated),
			v.uuid(partnerID),
			v.uuid(invoiceID),
			v.decimal(amount),
			v.time(dueDate),
			domain.PayoutStatus(status),
			referenceMonth,
			canceled,
		)
		if v.err != nil {
			return nil, fmt.Errorf("scan payout %s: %w", id, v.err)
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

var (
	_ domain.InvoiceRepository = (*SQLiteInvoiceRepository)(nil)
	_ domain.PayoutRepository  = (*SQLitePayoutRepository)(nil)
)
