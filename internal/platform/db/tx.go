package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Posting a journal entry reads account balances and then writes rows that
// depend on them, so every write path runs at RepeatableRead. Concurrent
// postings that touch the same rows surface as serialization failures for
// the caller to retry.
var txOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead}

// WithTx runs fn inside a transaction and commits only when fn returns nil.
// Any error from fn, or a failed commit, rolls the transaction back.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("db: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit: %w", err)
	}
	return nil
}
