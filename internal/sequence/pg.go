package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// NextInTx issues the next ordinal for (prefix, period) inside an open
// transaction. A transaction-scoped advisory lock on the scope key serializes
// the read-increment-write so concurrent transactions cannot observe the same
// last_value.
func NextInTx(ctx context.Context, tx pgx.Tx, prefix, period string) (int64, error) {
	scope := prefix + ":" + period
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, scope); err != nil {
		return 0, fmt.Errorf("sequence: advisory lock %s: %w", scope, err)
	}
	var n int64
	err := tx.QueryRow(ctx, `INSERT INTO document_sequences (prefix, period, last_value)
VALUES ($1, $2, 1)
ON CONFLICT (prefix, period) DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`, prefix, period).Scan(&n)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrSequenceConflict
		}
		return 0, fmt.Errorf("sequence: next %s: %w", scope, err)
	}
	return n, nil
}

// PgCounter issues ordinals from the document_sequences table using its own
// short transaction per call.
type PgCounter struct {
	pool *pgxpool.Pool
}

// NewPgCounter builds a Counter backed by Postgres.
func NewPgCounter(pool *pgxpool.Pool) *PgCounter {
	return &PgCounter{pool: pool}
}

// Next issues the next ordinal for the scope.
func (c *PgCounter) Next(ctx context.Context, prefix, period string) (int64, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("sequence: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	n, err := NextInTx(ctx, tx, prefix, period)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("sequence: commit: %w", err)
	}
	return n, nil
}
