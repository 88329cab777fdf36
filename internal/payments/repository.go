package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository encapsulates DB operations for payment records.
type Repository interface {
	Get(ctx context.Context, id int64) (Payment, error)
	List(ctx context.Context) ([]Payment, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within a payments transaction.
type TxRepository interface {
	NextPaymentNumber(ctx context.Context, period string) (string, error)
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
	UpdateStatus(ctx context.Context, id int64, to PaymentStatus, from ...PaymentStatus) (bool, error)
	// SetJournalEntry links (or with nil clears) the derived journal entry.
	SetJournalEntry(ctx context.Context, id int64, entryID *int64) error
	SetRefunded(ctx context.Context, id int64, refunded decimal.Decimal) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, number, invoice_id, amount, currency, method, status, journal_entry_id,
refunded_amount, is_refund, original_id, source_id, confirmed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.Number, &p.InvoiceID, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&p.JournalEntryID, &p.RefundedAmount, &p.IsRefund, &p.OriginalID, &p.SourceID,
		&p.ConfirmedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context) ([]Payment, error) {
	return r.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY number DESC`)
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return r.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments WHERE invoice_id=$1 ORDER BY id ASC`, invoiceID)
}

func (r *repository) queryPayments(ctx context.Context, sql string, args ...any) ([]Payment, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextPaymentNumber(ctx context.Context, period string) (string, error) {
	n, err := sequence.NextInTx(ctx, r.tx, sequence.PrefixPayment, period)
	if err != nil {
		return "", err
	}
	return sequence.Format(sequence.PrefixPayment, period, n), nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO payments
(number, invoice_id, amount, currency, method, status, refunded_amount, is_refund, original_id, source_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING `+paymentColumns,
		p.Number, p.InvoiceID, p.Amount, p.Currency, p.Method, p.Status, p.RefundedAmount, p.IsRefund, p.OriginalID, p.SourceID)
	inserted, err := scanPayment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Payment{}, shared.ErrSequenceConflict
		}
		return Payment{}, err
	}
	return inserted, nil
}

func (r *txRepository) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, to PaymentStatus, from ...PaymentStatus) (bool, error) {
	var sql string
	if to == StatusConfirmed {
		sql = `UPDATE payments SET status=$2, confirmed_at=NOW(), updated_at=NOW() WHERE id=$1 AND status = ANY($3)`
	} else {
		sql = `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1 AND status = ANY($3)`
	}
	cmd, err := r.tx.Exec(ctx, sql, id, to, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *txRepository) SetJournalEntry(ctx context.Context, id int64, entryID *int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payments SET journal_entry_id=$2, updated_at=NOW() WHERE id=$1`, id, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) SetRefunded(ctx context.Context, id int64, refunded decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payments SET refunded_amount=$2, updated_at=NOW() WHERE id=$1`, id, refunded)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
