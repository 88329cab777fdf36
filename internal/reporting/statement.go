package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
)

// StatementLine is one posted movement with the running balance after it.
type StatementLine struct {
	Date        time.Time       `json:"date"`
	EntryNumber string          `json:"entry_number"`
	Description string          `json:"description,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountStatement replays an account's posted lines over a window on top of
// the balance accumulated before it.
type AccountStatement struct {
	Account          accounts.Account `json:"account"`
	From             time.Time        `json:"from"`
	To               time.Time        `json:"to"`
	BeginningBalance decimal.Decimal  `json:"beginning_balance"`
	Lines            []StatementLine  `json:"lines"`
	EndingBalance    decimal.Decimal  `json:"ending_balance"`
}

// BuildAccountStatement computes the running balance per movement on the
// account's natural side. Movements must be in chronological order.
func BuildAccountStatement(account accounts.Account, from, to time.Time, beginning decimal.Decimal, movements []StatementMovement) AccountStatement {
	st := AccountStatement{
		Account:          account,
		From:             from,
		To:               to,
		BeginningBalance: beginning,
		EndingBalance:    beginning,
	}
	running := beginning
	for _, mv := range movements {
		running = running.Add(account.Type.BalanceDelta(mv.Debit, mv.Credit))
		st.Lines = append(st.Lines, StatementLine{
			Date:        mv.Date,
			EntryNumber: mv.EntryNumber,
			Description: mv.Description,
			Debit:       mv.Debit,
			Credit:      mv.Credit,
			Balance:     running,
		})
	}
	st.EndingBalance = running
	return st
}
