package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ListFilter narrows invoice listings.
type ListFilter struct {
	Type    InvoiceType
	Status  InvoiceStatus
	PartyID int64
}

// Repository encapsulates DB operations for invoices.
type Repository interface {
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	// ListUnpaid returns sent or partially paid invoices on one side of the
	// ledger, issued up to asOf. Used by the aging report.
	ListUnpaid(ctx context.Context, receivable bool, asOf time.Time) ([]Invoice, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within an invoicing transaction.
type TxRepository interface {
	NextInvoiceNumber(ctx context.Context, t InvoiceType, period string) (string, error)
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	InsertItems(ctx context.Context, invoiceID int64, items []LineItem) ([]LineItem, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	// UpdateStatus transitions to the target status only when the current
	// status is one of from; reports whether a row changed.
	UpdateStatus(ctx context.Context, id int64, to InvoiceStatus, from ...InvoiceStatus) (bool, error)
	SetJournalEntry(ctx context.Context, id, entryID int64) error
	SetAmountPaid(ctx context.Context, id int64, paid decimal.Decimal, status InvoiceStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const invoiceColumns = `id, number, type, status, party_id, issue_date, due_date,
subtotal, tax_amount, total, amount_paid, journal_entry_id, source_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.Type, &inv.Status, &inv.PartyID, &inv.IssueDate, &inv.DueDate,
		&inv.Subtotal, &inv.TaxAmount, &inv.Total, &inv.AmountPaid, &inv.JournalEntryID, &inv.SourceID,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, invoiceID int64) ([]LineItem, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, description, quantity, unit_price, discount_rate, tax_rate, total
FROM invoice_items WHERE invoice_id=$1 ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice,
			&item.DiscountRate, &item.TaxRate, &item.Total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id))
	if err != nil {
		return Invoice{}, err
	}
	inv.Items, err = queryItems(ctx, r.db, id)
	return inv, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	sql := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	var args []any
	if filter.Type != "" {
		args = append(args, filter.Type)
		sql += fmt.Sprintf(" AND type=$%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		sql += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.PartyID != 0 {
		args = append(args, filter.PartyID)
		sql += fmt.Sprintf(" AND party_id=$%d", len(args))
	}
	sql += ` ORDER BY number DESC`
	return r.queryInvoices(ctx, sql, args...)
}

func (r *repository) ListUnpaid(ctx context.Context, receivable bool, asOf time.Time) ([]Invoice, error) {
	kinds := []InvoiceType{TypePurchase, TypeDebitNote}
	if receivable {
		kinds = []InvoiceType{TypeSales, TypeCreditNote}
	}
	return r.queryInvoices(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE type = ANY($1) AND status IN ('SENT','PARTIALLY_PAID') AND issue_date <= $2
ORDER BY due_date ASC`, kinds, asOf)
}

func (r *repository) queryInvoices(ctx context.Context, sql string, args ...any) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextInvoiceNumber(ctx context.Context, t InvoiceType, period string) (string, error) {
	n, err := sequence.NextInTx(ctx, r.tx, t.Prefix(), period)
	if err != nil {
		return "", err
	}
	return sequence.Format(t.Prefix(), period, n), nil
}

func (r *txRepository) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO invoices
(number, type, status, party_id, issue_date, due_date, subtotal, tax_amount, total, amount_paid, source_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING `+invoiceColumns,
		inv.Number, inv.Type, inv.Status, inv.PartyID, inv.IssueDate, inv.DueDate,
		inv.Subtotal, inv.TaxAmount, inv.Total, inv.AmountPaid, inv.SourceID)
	inserted, err := scanInvoice(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Invoice{}, shared.ErrSequenceConflict
		}
		return Invoice{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertItems(ctx context.Context, invoiceID int64, items []LineItem) ([]LineItem, error) {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		row := r.tx.QueryRow(ctx, `INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, discount_rate, tax_rate, total)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
			invoiceID, item.Description, item.Quantity, item.UnitPrice, item.DiscountRate, item.TaxRate, item.Total)
		if err := row.Scan(&item.ID); err != nil {
			return nil, err
		}
		item.InvoiceID = invoiceID
		out = append(out, item)
	}
	return out, nil
}

func (r *txRepository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Invoice{}, err
	}
	inv.Items, err = queryItems(ctx, r.tx, id)
	return inv, err
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, to InvoiceStatus, from ...InvoiceStatus) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET status=$2, updated_at=NOW() WHERE id=$1 AND status = ANY($3)`, id, to, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *txRepository) SetJournalEntry(ctx context.Context, id, entryID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET journal_entry_id=$2, updated_at=NOW() WHERE id=$1`, id, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) SetAmountPaid(ctx context.Context, id int64, paid decimal.Decimal, status InvoiceStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET amount_paid=$2, status=$3, updated_at=NOW() WHERE id=$1`, id, paid, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
