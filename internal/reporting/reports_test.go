package reporting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/invoicing"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func activity(code, name string, typ accounts.AccountType, debit, credit string) AccountActivity {
	return AccountActivity{Code: code, Name: name, Type: typ, Debit: dec(debit), Credit: dec(credit)}
}

// Posted history behind most tests: a 110.00 sale on credit, a 40.00 cash
// receipt against it, and a 25.00 rent expense paid in cash.
func sampleActivity() []AccountActivity {
	return []AccountActivity{
		activity("1010", "Cash", accounts.AccountTypeAsset, "40.00", "25.00"),
		activity("1200", "Accounts Receivable", accounts.AccountTypeAsset, "110.00", "40.00"),
		activity("4000", "Sales Revenue", accounts.AccountTypeRevenue, "0", "110.00"),
		activity("6100", "Rent Expense", accounts.AccountTypeExpense, "25.00", "0"),
	}
}

func TestTrialBalanceColumnsAgree(t *testing.T) {
	asOf := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	tb := BuildTrialBalance(asOf, sampleActivity())

	assert.True(t, tb.Balanced(), "debit %s credit %s", tb.TotalDebit, tb.TotalCredit)
	assert.True(t, tb.TotalDebit.Equal(dec("110.00")))

	require.Len(t, tb.Rows, 4)
	assert.Equal(t, "1010", tb.Rows[0].Code)
	assert.True(t, tb.Rows[0].Debit.Equal(dec("15.00")))
	assert.True(t, tb.Rows[0].Credit.IsZero())

	// Credit-normal accounts land on the credit column.
	revenue := tb.Rows[2]
	assert.Equal(t, "4000", revenue.Code)
	assert.True(t, revenue.Debit.IsZero())
	assert.True(t, revenue.Credit.Equal(dec("110.00")))
}

func TestTrialBalanceEmpty(t *testing.T) {
	tb := BuildTrialBalance(time.Now(), nil)
	assert.True(t, tb.Balanced())
	assert.Empty(t, tb.Rows)
}

func TestBalanceSheetEquation(t *testing.T) {
	asOf := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	input := append(sampleActivity(),
		activity("1500", "Equipment", accounts.AccountTypeAsset, "500.00", "0"),
		activity("2100", "Accounts Payable", accounts.AccountTypeLiability, "0", "300.00"),
		activity("3000", "Share Capital", accounts.AccountTypeEquity, "0", "200.00"),
	)
	bs := BuildBalanceSheet(asOf, input)

	// Current: cash 15 + AR 70; fixed: equipment 500.
	assert.True(t, bs.CurrentAssets.Total.Equal(dec("85.00")))
	assert.True(t, bs.FixedAssets.Total.Equal(dec("500.00")))
	assert.True(t, bs.TotalAssets.Equal(dec("585.00")))
	assert.True(t, bs.Liabilities.Total.Equal(dec("300.00")))

	// Equity holds share capital plus retained earnings 110 - 25.
	require.Len(t, bs.Equity.Lines, 2)
	var retained *BalanceSheetLine
	for i := range bs.Equity.Lines {
		if bs.Equity.Lines[i].Name == "Retained Earnings (Current Period)" {
			retained = &bs.Equity.Lines[i]
		}
	}
	require.NotNil(t, retained)
	assert.True(t, retained.Amount.Equal(dec("85.00")))
	assert.True(t, bs.Equity.Total.Equal(dec("285.00")))

	assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity),
		"assets %s vs liabilities+equity %s", bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
}

func TestBalanceSheetFixedAssetSplit(t *testing.T) {
	bs := BuildBalanceSheet(time.Now(), []AccountActivity{
		activity("1500", "Equipment", accounts.AccountTypeAsset, "100.00", "0"),
		activity("1600", "Vehicles", accounts.AccountTypeAsset, "50.00", "0"),
		activity("1010", "Cash", accounts.AccountTypeAsset, "10.00", "0"),
	})
	assert.Len(t, bs.FixedAssets.Lines, 2)
	assert.Len(t, bs.CurrentAssets.Lines, 1)
}

func TestIncomeStatementDerivations(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	is := BuildIncomeStatement(from, to, []AccountActivity{
		activity("4000", "Sales Revenue", accounts.AccountTypeRevenue, "0", "1000.00"),
		activity("5010", "Cost of Goods Sold", accounts.AccountTypeExpense, "400.00", "0"),
		activity("6100", "Rent Expense", accounts.AccountTypeExpense, "150.00", "0"),
		activity("7200", "Interest Expense", accounts.AccountTypeExpense, "50.00", "0"),
	})

	assert.True(t, is.Revenue.Total.Equal(dec("1000.00")))
	assert.True(t, is.CostOfGoodsSold.Total.Equal(dec("400.00")))
	assert.True(t, is.GrossProfit.Equal(dec("600.00")))
	assert.True(t, is.OperatingIncome.Equal(dec("450.00")))
	assert.True(t, is.NetIncome.Equal(dec("400.00")))
}

func TestCashMovementClassification(t *testing.T) {
	cases := []struct {
		entryType   ledger.EntryType
		description string
		want        CashFlowActivity
	}{
		{ledger.EntryTypePayment, "Payment PAY-202608-0001", ActivityOperating},
		{ledger.EntryTypeSales, "Invoice INV-202608-0002", ActivityOperating},
		{ledger.EntryTypeStandard, "Purchased office equipment", ActivityInvesting},
		{ledger.EntryTypeStandard, "Bank loan drawdown", ActivityFinancing},
		{ledger.EntryTypeStandard, "Dividend distribution", ActivityFinancing},
		{ledger.EntryTypeStandard, "Monthly utilities", ActivityOperating},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyCashMovement(tc.entryType, tc.description), tc.description)
	}
}

func TestCashFlowReconciles(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC) }

	cf := BuildCashFlow(from, to, dec("500.00"), []EntryCashMovement{
		{EntryID: 1, Date: day(3), Description: "Payment PAY-202608-0001", Type: ledger.EntryTypePayment, Amount: dec("40.00")},
		{EntryID: 2, Date: day(10), Description: "Purchased delivery vehicle", Type: ledger.EntryTypeStandard, Amount: dec("-300.00")},
		{EntryID: 3, Date: day(12), Description: "Bank loan drawdown", Type: ledger.EntryTypeStandard, Amount: dec("200.00")},
		{EntryID: 4, Date: day(20), Description: "Rent paid", Type: ledger.EntryTypeStandard, Amount: dec("-25.00")},
	})

	assert.True(t, cf.Operating.Total.Equal(dec("15.00")))
	assert.True(t, cf.Investing.Total.Equal(dec("-300.00")))
	assert.True(t, cf.Financing.Total.Equal(dec("200.00")))
	assert.True(t, cf.NetChange.Equal(dec("-85.00")))
	assert.True(t, cf.EndingCash.Equal(dec("415.00")))
	assert.True(t, cf.EndingCash.Equal(cf.BeginningCash.Add(cf.NetChange)))
}

func TestAccountStatementRunningBalance(t *testing.T) {
	account := accounts.Account{ID: 1, Code: "1010", Name: "Cash", Type: accounts.AccountTypeAsset}
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC) }

	st := BuildAccountStatement(account, from, to, dec("100.00"), []StatementMovement{
		{Date: day(2), EntryNumber: "JE-202608-0001", Debit: dec("40.00")},
		{Date: day(5), EntryNumber: "JE-202608-0002", Credit: dec("25.00")},
		{Date: day(9), EntryNumber: "JE-202608-0003", Debit: dec("10.00")},
	})

	require.Len(t, st.Lines, 3)
	assert.True(t, st.Lines[0].Balance.Equal(dec("140.00")))
	assert.True(t, st.Lines[1].Balance.Equal(dec("115.00")))
	assert.True(t, st.Lines[2].Balance.Equal(dec("125.00")))
	assert.True(t, st.EndingBalance.Equal(dec("125.00")))
}

func TestAccountStatementCreditNormal(t *testing.T) {
	account := accounts.Account{ID: 2, Code: "2100", Name: "Accounts Payable", Type: accounts.AccountTypeLiability}
	st := BuildAccountStatement(account, time.Now(), time.Now(), dec("50.00"), []StatementMovement{
		{EntryNumber: "JE-202608-0004", Credit: dec("30.00")},
		{EntryNumber: "JE-202608-0005", Debit: dec("20.00")},
	})
	require.Len(t, st.Lines, 2)
	assert.True(t, st.Lines[0].Balance.Equal(dec("80.00")))
	assert.True(t, st.EndingBalance.Equal(dec("60.00")))
}

func TestAgingBucketBoundaries(t *testing.T) {
	asOf := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return asOf.AddDate(0, 0, -offset) }

	cases := []struct {
		due  time.Time
		want AgingBucket
	}{
		{day(-5), BucketCurrent},
		{day(0), BucketCurrent},
		{day(1), Bucket1to30},
		{day(30), Bucket1to30},
		{day(31), Bucket31to60},
		{day(60), Bucket31to60},
		{day(61), Bucket61to90},
		{day(90), Bucket61to90},
		{day(91), BucketOver90},
		{day(400), BucketOver90},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BucketFor(asOf, tc.due), tc.due.Format("2006-01-02"))
	}
}

func TestAgingReportTotals(t *testing.T) {
	asOf := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	invoices := []invoicing.Invoice{
		{ID: 1, Number: "INV-202607-0001", PartyID: 7, DueDate: asOf.AddDate(0, 0, -10),
			Total: dec("100.00"), AmountPaid: dec("40.00")},
		{ID: 2, Number: "INV-202606-0002", PartyID: 8, DueDate: asOf.AddDate(0, 0, -45),
			Total: dec("200.00"), AmountPaid: decimal.Zero},
		{ID: 3, Number: "INV-202608-0003", PartyID: 7, DueDate: asOf.AddDate(0, 0, 5),
			Total: dec("50.00"), AmountPaid: decimal.Zero},
		// Fully settled documents never show up.
		{ID: 4, Number: "INV-202608-0004", PartyID: 9, DueDate: asOf,
			Total: dec("75.00"), AmountPaid: dec("75.00")},
	}
	report := BuildAging(asOf, true, invoices)

	require.Len(t, report.Lines, 3)
	assert.True(t, report.Totals.Current.Equal(dec("50.00")))
	assert.True(t, report.Totals.Days30.Equal(dec("60.00")))
	assert.True(t, report.Totals.Days60.Equal(dec("200.00")))
	assert.True(t, report.Totals.Total.Equal(dec("310.00")))

	// Oldest due date first.
	assert.Equal(t, int64(2), report.Lines[0].InvoiceID)
}
