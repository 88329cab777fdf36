package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	Get(ctx context.Context, id int64) (Entry, error)
	GetByNumber(ctx context.Context, number string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within a ledger transaction.
// Account lookups and balance application live here too so that posting an
// entry and moving its account balances commit as one unit.
type TxRepository interface {
	NextJournalNumber(ctx context.Context, period string) (string, error)
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []Line) ([]Line, error)
	GetEntryWithLines(ctx context.Context, id int64) (Entry, error)
	// UpdateStatus transitions from->to and reports whether a row changed.
	// A false return means another writer got there first.
	UpdateStatus(ctx context.Context, id int64, from, to EntryStatus) (bool, error)
	// SetReversal links an entry to its counterpart: the original points at
	// the mirror and the mirror points back at the original.
	SetReversal(ctx context.Context, entryID, linkedID int64) error
	GetAccount(ctx context.Context, accountID int64) (accounts.Account, error)
	AdjustAccountBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, number, entry_date, description, reference, type, status, total_debit, total_credit,
source_module, source_id, is_reversing, reversed_id, posted_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (Entry, error) {
	return r.getEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id)
}

func (r *repository) GetByNumber(ctx context.Context, number string) (Entry, error) {
	return r.getEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE number=$1`, number)
}

func (r *repository) getEntry(ctx context.Context, sql string, arg any) (Entry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		return Entry{}, err
	}
	lines, err := queryLines(ctx, r.db, entry.ID)
	if err != nil {
		return Entry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Reference, &e.Type, &e.Status,
		&e.TotalDebit, &e.TotalCredit, &e.SourceModule, &e.SourceID, &e.IsReversing, &e.ReversedID,
		&e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, entryID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, line_no, account_id, description, debit, credit
FROM journal_lines WHERE entry_id=$1 ORDER BY line_no ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.LineNo, &line.AccountID, &line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextJournalNumber(ctx context.Context, period string) (string, error) {
	n, err := sequence.NextInTx(ctx, r.tx, sequence.PrefixJournal, period)
	if err != nil {
		return "", err
	}
	return sequence.Format(sequence.PrefixJournal, period, n), nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(number, entry_date, description, reference, type, status, total_debit, total_credit, source_module, source_id, is_reversing, reversed_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING `+entryColumns,
		entry.Number, entry.Date, entry.Description, entry.Reference, entry.Type, entry.Status,
		entry.TotalDebit, entry.TotalCredit, entry.SourceModule, entry.SourceID, entry.IsReversing, entry.ReversedID)
	inserted, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Entry{}, shared.ErrSequenceConflict
		}
		return Entry{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for i, line := range lines {
		row := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, line_no, account_id, description, debit, credit)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`, entryID, i+1, line.AccountID, line.Description, line.Debit, line.Credit)
		if err := row.Scan(&line.ID); err != nil {
			return nil, err
		}
		line.EntryID = entryID
		line.LineNo = i + 1
		out = append(out, line)
	}
	return out, nil
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, id int64) (Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Entry{}, err
	}
	lines, err := queryLines(ctx, r.tx, id)
	if err != nil {
		return Entry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, from, to EntryStatus) (bool, error) {
	var sql string
	if to == EntryStatusPosted {
		sql = `UPDATE journal_entries SET status=$3, posted_at=NOW(), updated_at=NOW() WHERE id=$1 AND status=$2`
	} else {
		sql = `UPDATE journal_entries SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	}
	cmd, err := r.tx.Exec(ctx, sql, id, from, to)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *txRepository) SetReversal(ctx context.Context, entryID, linkedID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET reversed_id=$2, updated_at=NOW() WHERE id=$1`, entryID, linkedID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetAccount(ctx context.Context, accountID int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, type, parent_id, balance, is_active, is_system, created_at, updated_at
FROM accounts WHERE id=$1 FOR UPDATE`, accountID).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Balance, &a.IsActive, &a.IsSystem, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) AdjustAccountBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET balance = balance + $2, updated_at=NOW() WHERE id=$1`, accountID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, entry_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}
