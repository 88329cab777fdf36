package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads aggregated posted activity. All queries are read-only and
// take no row locks; reports are explicitly as-of a date over already-posted
// history. A reversed entry stays aggregated alongside its posted mirror, the
// pair cancels line for line.
type Repository interface {
	ActivityThrough(ctx context.Context, asOf time.Time) ([]AccountActivity, error)
	ActivityBetween(ctx context.Context, from, to time.Time) ([]AccountActivity, error)
	CashBalanceBefore(ctx context.Context, from time.Time) (decimal.Decimal, error)
	CashMovements(ctx context.Context, from, to time.Time) ([]EntryCashMovement, error)
	AccountTotalsBefore(ctx context.Context, accountID int64, from time.Time) (debit, credit decimal.Decimal, err error)
	AccountMovements(ctx context.Context, accountID int64, from, to time.Time) ([]StatementMovement, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed read model.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const appliedStatuses = `('POSTED','REVERSED')`

func (r *repository) ActivityThrough(ctx context.Context, asOf time.Time) ([]AccountActivity, error) {
	return r.queryActivity(ctx, `SELECT a.id, a.code, a.name, a.type,
COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status IN `+appliedStatuses+` AND e.entry_date <= $1
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`, asOf)
}

func (r *repository) ActivityBetween(ctx context.Context, from, to time.Time) ([]AccountActivity, error) {
	return r.queryActivity(ctx, `SELECT a.id, a.code, a.name, a.type,
COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status IN `+appliedStatuses+` AND e.entry_date >= $1 AND e.entry_date <= $2
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`, from, to)
}

func (r *repository) queryActivity(ctx context.Context, sql string, args ...any) ([]AccountActivity, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var activity []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.Type, &a.Debit, &a.Credit); err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

func (r *repository) CashBalanceBefore(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit - l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status IN `+appliedStatuses+` AND e.entry_date < $1 AND a.code LIKE '10%'`, from).Scan(&balance)
	return balance, err
}

func (r *repository) CashMovements(ctx context.Context, from, to time.Time) ([]EntryCashMovement, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.entry_date, e.description, e.type,
COALESCE(SUM(l.debit - l.credit), 0)
FROM journal_entries e
JOIN journal_lines l ON l.entry_id = e.id
JOIN accounts a ON a.id = l.account_id
WHERE e.status IN `+appliedStatuses+` AND e.entry_date >= $1 AND e.entry_date <= $2 AND a.code LIKE '10%'
GROUP BY e.id, e.entry_date, e.description, e.type
ORDER BY e.entry_date, e.id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []EntryCashMovement
	for rows.Next() {
		var mv EntryCashMovement
		if err := rows.Scan(&mv.EntryID, &mv.Date, &mv.Description, &mv.Type, &mv.Amount); err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

func (r *repository) AccountTotalsBefore(ctx context.Context, accountID int64, from time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status IN `+appliedStatuses+` AND e.entry_date < $1 AND l.account_id = $2`, from, accountID).Scan(&debit, &credit)
	return debit, credit, err
}

func (r *repository) AccountMovements(ctx context.Context, accountID int64, from, to time.Time) ([]StatementMovement, error) {
	rows, err := r.db.Query(ctx, `SELECT e.entry_date, e.number, l.description, l.debit, l.credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status IN `+appliedStatuses+` AND e.entry_date >= $1 AND e.entry_date <= $2 AND l.account_id = $3
ORDER BY e.entry_date, e.id, l.line_no`, from, to, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []StatementMovement
	for rows.Next() {
		var mv StatementMovement
		if err := rows.Scan(&mv.Date, &mv.EntryNumber, &mv.Description, &mv.Debit, &mv.Credit); err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}
