package assets

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

// Repository encapsulates DB operations for the asset registry.
type Repository interface {
	Get(ctx context.Context, id int64) (Asset, error)
	List(ctx context.Context) ([]Asset, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within an assets transaction.
type TxRepository interface {
	NextAssetNumber(ctx context.Context) (string, error)
	InsertAsset(ctx context.Context, a Asset) (Asset, error)
	GetAsset(ctx context.Context, id int64) (Asset, error)
	SetDepreciation(ctx context.Context, id int64, accumulated, current decimal.Decimal) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const assetColumns = `id, number, name, category, acquisition_date, acquisition_price, salvage_value,
useful_life_months, method, accumulated_depreciation, current_value, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var a Asset
	err := row.Scan(&a.ID, &a.Number, &a.Name, &a.Category, &a.AcquisitionDate, &a.AcquisitionPrice,
		&a.SalvageValue, &a.UsefulLifeMonths, &a.Method, &a.AccumulatedDepreciation, &a.CurrentValue,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, shared.ErrNotFound
		}
		return Asset{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Asset, error) {
	return scanAsset(r.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context) ([]Asset, error) {
	rows, err := r.db.Query(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assets []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextAssetNumber(ctx context.Context) (string, error) {
	n, err := sequence.NextInTx(ctx, r.tx, sequence.PrefixAsset, "")
	if err != nil {
		return "", err
	}
	return sequence.Format(sequence.PrefixAsset, "", n), nil
}

func (r *txRepository) InsertAsset(ctx context.Context, a Asset) (Asset, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO assets
(number, name, category, acquisition_date, acquisition_price, salvage_value, useful_life_months, method,
accumulated_depreciation, current_value)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING `+assetColumns,
		a.Number, a.Name, a.Category, a.AcquisitionDate, a.AcquisitionPrice, a.SalvageValue,
		a.UsefulLifeMonths, a.Method, a.AccumulatedDepreciation, a.CurrentValue)
	inserted, err := scanAsset(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Asset{}, shared.ErrSequenceConflict
		}
		return Asset{}, err
	}
	return inserted, nil
}

func (r *txRepository) GetAsset(ctx context.Context, id int64) (Asset, error) {
	return scanAsset(r.tx.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) SetDepreciation(ctx context.Context, id int64, accumulated, current decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE assets SET accumulated_depreciation=$2, current_value=$3, updated_at=NOW() WHERE id=$1`,
		id, accumulated, current)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
