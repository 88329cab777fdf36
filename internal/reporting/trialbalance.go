package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
)

// TrialBalanceRow presents one account with its net amount placed on the
// column matching the side the balance actually falls on.
type TrialBalanceRow struct {
	Code   string               `json:"code"`
	Name   string               `json:"name"`
	Type   accounts.AccountType `json:"type"`
	Debit  decimal.Decimal      `json:"debit"`
	Credit decimal.Decimal      `json:"credit"`
}

// TrialBalance is the structured trial balance report. TotalDebit equal to
// TotalCredit is the primary correctness check for the whole ledger.
type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// Balanced reports whether the two columns agree exactly.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// BuildTrialBalance converts account activity into trial balance rows. A net
// debit lands in the debit column, a net credit in the credit column, so
// liability, equity and revenue accounts normally show on the credit side.
func BuildTrialBalance(asOf time.Time, activity []AccountActivity) TrialBalance {
	tb := TrialBalance{AsOf: asOf}
	for _, acc := range activity {
		row := TrialBalanceRow{Code: acc.Code, Name: acc.Name, Type: acc.Type}
		net := acc.Net()
		if net.IsNegative() {
			row.Credit = net.Neg()
		} else {
			row.Debit = net
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	return tb
}
