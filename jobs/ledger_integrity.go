package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// appliedStatuses filters entries whose lines count toward balances.
const appliedStatuses = `('POSTED','REVERSED')`

// IntegrityReport summarises one ledger integrity sweep.
type IntegrityReport struct {
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	BrokenEntries  []int64
	MissingLines   []int64
	GlobalBalanced bool
}

// RunLedgerIntegrityCheck re-derives the double-entry invariants from the
// journal tables: the global debit and credit sums must agree, and every
// applied entry's stored totals must match the sum of its lines. Returns an
// error when any invariant is broken so the job lands in the retry/dead queue
// where operators can see it.
func RunLedgerIntegrityCheck(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (IntegrityReport, error) {
	var report IntegrityReport
	if pool == nil {
		return report, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		row := pool.QueryRow(gctx, `
SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status IN `+appliedStatuses)
		return row.Scan(&report.TotalDebit, &report.TotalCredit)
	})

	g.Go(func() error {
		rows, err := pool.Query(gctx, `
SELECT e.id
FROM journal_entries e
JOIN journal_lines l ON l.entry_id = e.id
WHERE e.status IN `+appliedStatuses+`
GROUP BY e.id, e.total_debit, e.total_credit
HAVING SUM(l.debit) <> e.total_debit
    OR SUM(l.credit) <> e.total_credit
    OR e.total_debit <> e.total_credit
ORDER BY e.id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			report.BrokenEntries = append(report.BrokenEntries, id)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := pool.Query(gctx, `
SELECT e.id
FROM journal_entries e
LEFT JOIN journal_lines l ON l.entry_id = e.id
WHERE e.status IN `+appliedStatuses+`
GROUP BY e.id
HAVING COUNT(l.id) = 0
ORDER BY e.id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			report.MissingLines = append(report.MissingLines, id)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("jobs: ledger integrity: %w", err)
	}

	report.GlobalBalanced = report.TotalDebit.Equal(report.TotalCredit)
	if logger != nil {
		logger.Info("ledger integrity sweep",
			slog.String("total_debit", report.TotalDebit.String()),
			slog.String("total_credit", report.TotalCredit.String()),
			slog.Int("broken_entries", len(report.BrokenEntries)),
			slog.Int("entries_without_lines", len(report.MissingLines)))
	}

	if !report.GlobalBalanced {
		return report, fmt.Errorf("jobs: ledger out of balance: debit %s credit %s", report.TotalDebit, report.TotalCredit)
	}
	if len(report.BrokenEntries) > 0 {
		return report, fmt.Errorf("jobs: %d entries with inconsistent totals", len(report.BrokenEntries))
	}
	if len(report.MissingLines) > 0 {
		return report, fmt.Errorf("jobs: %d applied entries without lines", len(report.MissingLines))
	}
	return report, nil
}
