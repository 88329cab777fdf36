package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const (
	acctCash    = int64(1)
	acctAR      = int64(2)
	acctRevenue = int64(3)
	acctExpense = int64(4)
)

func testAccounts() []accounts.Account {
	return []accounts.Account{
		{ID: acctCash, Code: "1010", Name: "Cash", Type: accounts.AccountTypeAsset, IsActive: true},
		{ID: acctAR, Code: "1200", Name: "Accounts Receivable", Type: accounts.AccountTypeAsset, IsActive: true},
		{ID: acctRevenue, Code: "4000", Name: "Sales Revenue", Type: accounts.AccountTypeRevenue, IsActive: true},
		{ID: acctExpense, Code: "5000", Name: "Office Expense", Type: accounts.AccountTypeExpense, IsActive: true},
	}
}

func newTestService(t *testing.T) (*Service, *memoryLedgerRepo) {
	t.Helper()
	repo := newMemoryLedgerRepo(testAccounts()...)
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time {
		return time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	})
	return svc, repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func saleInput(amount string) CreateInput {
	return CreateInput{
		Date:        time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		Description: "Cash sale",
		Type:        EntryTypeStandard,
		Lines: []LineInput{
			{AccountID: acctCash, Debit: dec(amount)},
			{AccountID: acctRevenue, Credit: dec(amount)},
		},
	}
}

func TestCreateRejectsUnbalanced(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	in := saleInput("100.00")
	in.Lines[1].Credit = dec("99.99")

	_, err := svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrUnbalanced)

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, entries, "unbalanced create must persist nothing")
}

func TestCreateRejectsTwoSidedLine(t *testing.T) {
	svc, _ := newTestService(t)

	in := saleInput("100.00")
	in.Lines[0].Credit = dec("100.00")

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc, _ := newTestService(t)

	in := saleInput("100.00")
	in.Lines = nil

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
}

func TestCreateAssignsPeriodScopedNumbers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, saleInput("10.00"))
	require.NoError(t, err)
	require.Equal(t, "JE-202608-0001", first.Number)
	require.Equal(t, EntryStatusDraft, first.Status)

	second, err := svc.Create(ctx, saleInput("20.00"))
	require.NoError(t, err)
	require.Equal(t, "JE-202608-0002", second.Number)

	sept := saleInput("30.00")
	sept.Date = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	third, err := svc.Create(ctx, sept)
	require.NoError(t, err)
	require.Equal(t, "JE-202609-0001", third.Number, "numbering restarts per calendar period")
}

func TestConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const creators = 24
	var mu sync.Mutex
	numbers := make(map[string]bool)

	var g errgroup.Group
	for i := 0; i < creators; i++ {
		g.Go(func() error {
			entry, err := svc.Create(ctx, saleInput("5.00"))
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if numbers[entry.Number] {
				t.Errorf("duplicate journal number %s", entry.Number)
			}
			numbers[entry.Number] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, numbers, creators)
}

func TestPostAppliesSignConvention(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("150.00"))
	require.NoError(t, err)

	posted, err := svc.Post(ctx, entry.ID, 1)
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)

	require.True(t, repo.accountBalance(acctCash).Equal(dec("150.00")), "asset grows by debit")
	require.True(t, repo.accountBalance(acctRevenue).Equal(dec("150.00")), "revenue grows by credit")
}

func TestPostTwiceIsSoftNoOp(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("100.00"))
	require.NoError(t, err)

	_, err = svc.Post(ctx, entry.ID, 1)
	require.NoError(t, err)

	again, err := svc.Post(ctx, entry.ID, 1)
	require.NoError(t, err, "re-posting a posted entry is soft")
	require.Equal(t, EntryStatusPosted, again.Status)

	require.True(t, repo.accountBalance(acctCash).Equal(dec("100.00")), "balances must not double-apply")
}

func TestConcurrentPostAppliesOnce(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("75.00"))
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := svc.Post(ctx, entry.ID, 1)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.True(t, repo.accountBalance(acctCash).Equal(dec("75.00")))
}

func TestReverseRestoresBalancesAndMirrorsLines(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("200.00"))
	require.NoError(t, err)
	_, err = svc.Post(ctx, entry.ID, 1)
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, ReverseInput{EntryID: entry.ID, ActorID: 1, Reason: "entry error"})
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, reversal.Status)
	require.True(t, reversal.IsReversing)
	require.NotNil(t, reversal.ReversedID)
	require.Equal(t, entry.ID, *reversal.ReversedID)

	require.Len(t, reversal.Lines, 2)
	require.True(t, reversal.Lines[0].Credit.Equal(dec("200.00")), "debit and credit must swap")
	require.True(t, reversal.Lines[1].Debit.Equal(dec("200.00")))

	original, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, EntryStatusReversed, original.Status)

	require.True(t, repo.accountBalance(acctCash).IsZero(), "net effect returns to pre-entry value")
	require.True(t, repo.accountBalance(acctRevenue).IsZero())
}

func TestReverseRejectsNonPosted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("50.00"))
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, ReverseInput{EntryID: entry.ID, ActorID: 1})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestVoidDraftNeverTouchesBalances(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("80.00"))
	require.NoError(t, err)

	voided, err := svc.Void(ctx, VoidInput{EntryID: entry.ID, ActorID: 1, Reason: "mistake"})
	require.NoError(t, err)
	require.Equal(t, EntryStatusVoid, voided.Status)

	require.True(t, repo.accountBalance(acctCash).IsZero())
	require.True(t, repo.accountBalance(acctRevenue).IsZero())
}

func TestVoidPostedDelegatesToReverse(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("120.00"))
	require.NoError(t, err)
	_, err = svc.Post(ctx, entry.ID, 1)
	require.NoError(t, err)

	mirror, err := svc.Void(ctx, VoidInput{EntryID: entry.ID, ActorID: 1, Reason: "undo"})
	require.NoError(t, err)
	require.True(t, mirror.IsReversing)

	original, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, EntryStatusReversed, original.Status, "posted entries are reversed, never voided")

	require.True(t, repo.accountBalance(acctCash).IsZero())
	require.True(t, repo.accountBalance(acctRevenue).IsZero())
}

func TestVoidReversedEntryFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, saleInput("10.00"))
	require.NoError(t, err)
	_, err = svc.Post(ctx, entry.ID, 1)
	require.NoError(t, err)
	_, err = svc.Reverse(ctx, ReverseInput{EntryID: entry.ID, ActorID: 1})
	require.NoError(t, err)

	_, err = svc.Void(ctx, VoidInput{EntryID: entry.ID, ActorID: 1})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCreateRejectsUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)

	in := saleInput("10.00")
	in.Lines[0].AccountID = 999

	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
