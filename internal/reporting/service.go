package reporting

import (
	"context"
	"strconv"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/invoicing"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
)

// AccountSource provides account lookups for statements.
type AccountSource interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
}

// InvoiceSource lists unpaid invoices for the aging report.
type InvoiceSource interface {
	ListUnpaid(ctx context.Context, receivable bool, asOf time.Time) ([]invoicing.Invoice, error)
}

// Service executes reporting queries, rebuilding each statement from posted
// history and serving repeated queries from the versioned cache.
type Service struct {
	repo     Repository
	accounts AccountSource
	invoices InvoiceSource
	cache    *cache.Cache
}

// NewService wires the read model with its sources and cache.
func NewService(repo Repository, accountSource AccountSource, invoiceSource InvoiceSource, reportCache *cache.Cache) *Service {
	return &Service{repo: repo, accounts: accountSource, invoices: invoiceSource, cache: reportCache}
}

const dayKey = "20060102"

func (s *Service) cached(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

// TrialBalance aggregates per-account debit and credit totals through asOf.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	var tb TrialBalance
	err := s.cached(ctx, &tb, func(ctx context.Context) (any, error) {
		activity, err := s.repo.ActivityThrough(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(asOf, activity), nil
	}, "reports", "tb", asOf.Format(dayKey))
	return tb, err
}

// BalanceSheet builds the point-in-time statement of financial position.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	var bs BalanceSheet
	err := s.cached(ctx, &bs, func(ctx context.Context) (any, error) {
		activity, err := s.repo.ActivityThrough(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(asOf, activity), nil
	}, "reports", "bs", asOf.Format(dayKey))
	return bs, err
}

// IncomeStatement builds the profit and loss statement for a window.
func (s *Service) IncomeStatement(ctx context.Context, from, to time.Time) (IncomeStatement, error) {
	var is IncomeStatement
	err := s.cached(ctx, &is, func(ctx context.Context) (any, error) {
		activity, err := s.repo.ActivityBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return BuildIncomeStatement(from, to, activity), nil
	}, "reports", "is", from.Format(dayKey), to.Format(dayKey))
	return is, err
}

// CashFlow reconciles cash over a window from per-entry cash movements.
func (s *Service) CashFlow(ctx context.Context, from, to time.Time) (CashFlowStatement, error) {
	var cf CashFlowStatement
	err := s.cached(ctx, &cf, func(ctx context.Context) (any, error) {
		beginning, err := s.repo.CashBalanceBefore(ctx, from)
		if err != nil {
			return nil, err
		}
		movements, err := s.repo.CashMovements(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return BuildCashFlow(from, to, beginning, movements), nil
	}, "reports", "cf", from.Format(dayKey), to.Format(dayKey))
	return cf, err
}

// AccountStatement replays one account's posted lines with a running balance.
func (s *Service) AccountStatement(ctx context.Context, accountID int64, from, to time.Time) (AccountStatement, error) {
	var st AccountStatement
	err := s.cached(ctx, &st, func(ctx context.Context) (any, error) {
		account, err := s.accounts.Get(ctx, accountID)
		if err != nil {
			return nil, err
		}
		debit, credit, err := s.repo.AccountTotalsBefore(ctx, accountID, from)
		if err != nil {
			return nil, err
		}
		movements, err := s.repo.AccountMovements(ctx, accountID, from, to)
		if err != nil {
			return nil, err
		}
		beginning := account.Type.BalanceDelta(debit, credit)
		return BuildAccountStatement(account, from, to, beginning, movements), nil
	}, "reports", "stmt", strconv.FormatInt(accountID, 10), from.Format(dayKey), to.Format(dayKey))
	return st, err
}

// ReceivablesAging buckets unpaid customer invoices by time past due.
func (s *Service) ReceivablesAging(ctx context.Context, asOf time.Time) (AgingReport, error) {
	return s.aging(ctx, asOf, true)
}

// PayablesAging buckets unpaid supplier invoices by time past due.
func (s *Service) PayablesAging(ctx context.Context, asOf time.Time) (AgingReport, error) {
	return s.aging(ctx, asOf, false)
}

func (s *Service) aging(ctx context.Context, asOf time.Time, receivable bool) (AgingReport, error) {
	side := "ap"
	if receivable {
		side = "ar"
	}
	var report AgingReport
	err := s.cached(ctx, &report, func(ctx context.Context) (any, error) {
		unpaid, err := s.invoices.ListUnpaid(ctx, receivable, asOf)
		if err != nil {
			return nil, err
		}
		return BuildAging(asOf, receivable, unpaid), nil
	}, "reports", "aging", side, asOf.Format(dayKey))
	return report, err
}
