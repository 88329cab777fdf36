package reporting

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// AccountActivity is one account's aggregated posted debits and credits over
// a reporting window. Reports are rebuilt from these aggregates on every
// query rather than from cached running totals.
type AccountActivity struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Net returns raw debits minus credits.
func (a AccountActivity) Net() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// Balance returns the signed balance on the account's natural side.
func (a AccountActivity) Balance() decimal.Decimal {
	return a.Type.BalanceDelta(a.Debit, a.Credit)
}

// IsCashCode reports whether an account code belongs to the cash/bank range
// of the chart. Codes 10xx hold cash and bank accounts.
func IsCashCode(code string) bool {
	return strings.HasPrefix(code, "10")
}

// EntryCashMovement is one journal entry's net movement across cash-coded
// accounts, the unit classified by the cash-flow statement.
type EntryCashMovement struct {
	EntryID     int64
	Date        time.Time
	Description string
	Type        ledger.EntryType
	Amount      decimal.Decimal
}

// StatementMovement is one posted line on an account, input to the account
// statement builder.
type StatementMovement struct {
	Date        time.Time
	EntryNumber string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}
