package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	Get(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	ListByType(ctx context.Context, t AccountType) ([]Account, error)
	Create(ctx context.Context, in CreateInput) (Account, error)
	Update(ctx context.Context, in UpdateInput) (Account, error)
	// Delete removes the account unless it has journal lines or children.
	Delete(ctx context.Context, id int64) error
	GetMapping(ctx context.Context, purpose MappingPurpose) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, parent_id, balance, is_active, is_system, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Balance, &a.IsActive, &a.IsSystem, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	return r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
}

func (r *repository) ListByType(ctx context.Context, t AccountType) ([]Account, error) {
	return r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE type=$1 ORDER BY code`, t)
}

func (r *repository) queryAccounts(ctx context.Context, sql string, args ...any) ([]Account, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Balance, &a.IsActive, &a.IsSystem, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Create(ctx context.Context, in CreateInput) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, type, parent_id, balance, is_active, is_system)
VALUES ($1,$2,$3,$4,$5,TRUE,$6)
RETURNING `+accountColumns, in.Code, in.Name, in.Type, in.ParentID, in.Opening, in.IsSystem)
	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) Update(ctx context.Context, in UpdateInput) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts SET
name = COALESCE($2, name),
parent_id = COALESCE($3, parent_id),
is_active = COALESCE($4, is_active),
updated_at = NOW()
WHERE id=$1
RETURNING `+accountColumns, in.AccountID, in.Name, in.ParentID, in.IsActive)
	return scanAccount(row)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("accounts: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var lines, children int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_lines WHERE account_id=$1`, id).Scan(&lines); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE parent_id=$1`, id).Scan(&children); err != nil {
		return err
	}
	if lines > 0 || children > 0 {
		return shared.ErrHasDependents
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *repository) GetMapping(ctx context.Context, purpose MappingPurpose) (int64, error) {
	var accountID int64
	err := r.db.QueryRow(ctx, `SELECT account_id FROM account_mappings WHERE purpose=$1`, purpose).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("accounts: mapping %s: %w", purpose, shared.ErrNotFound)
		}
		return 0, err
	}
	return accountID, nil
}
