package jobs

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/reporting"
)

// WarmReports pre-computes the daily reports so the first interactive request
// hits a fresh cache. Failures are logged per-report; a broken aging query
// should not stop the trial balance from warming.
func WarmReports(ctx context.Context, svc *reporting.Service, asOf time.Time, logger *slog.Logger) error {
	if svc == nil {
		return nil
	}
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())

	g, gctx := errgroup.WithContext(ctx)
	warm := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				if logger != nil {
					logger.Warn("report warmup failed", slog.String("report", name), slog.Any("error", err))
				}
			}
			return nil
		})
	}

	warm("trial_balance", func(ctx context.Context) error {
		_, err := svc.TrialBalance(ctx, asOf)
		return err
	})
	warm("balance_sheet", func(ctx context.Context) error {
		_, err := svc.BalanceSheet(ctx, asOf)
		return err
	})
	warm("income_statement", func(ctx context.Context) error {
		_, err := svc.IncomeStatement(ctx, monthStart, asOf)
		return err
	})
	warm("cash_flow", func(ctx context.Context) error {
		_, err := svc.CashFlow(ctx, monthStart, asOf)
		return err
	})
	warm("receivables_aging", func(ctx context.Context) error {
		_, err := svc.ReceivablesAging(ctx, asOf)
		return err
	})
	warm("payables_aging", func(ctx context.Context) error {
		_, err := svc.PayablesAging(ctx, asOf)
		return err
	})

	return g.Wait()
}
