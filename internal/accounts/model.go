package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the type is a known category.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance enumerates the side on which an account naturally increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// NormalBalance returns the natural side for the account type.
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// BalanceDelta converts a posted debit/credit pair into a signed balance
// movement honouring the account's normal side: debit-normal accounts grow
// by debit-credit, credit-normal accounts by credit-debit.
func (t AccountType) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if t.NormalBalance() == NormalDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Account models a chart of accounts node.
type Account struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	ParentID  *int64          `json:"parent_id,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	IsSystem  bool            `json:"is_system"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Node is an account with its direct children, used for hierarchical listing.
type Node struct {
	Account
	Children []Node
}

// MappingPurpose identifies the ledger role an account is mapped to.
// Subledger postings resolve their debit/credit accounts through mappings
// instead of hard-coded ids.
type MappingPurpose string

const (
	MappingReceivable MappingPurpose = "ACCOUNTS_RECEIVABLE"
	MappingPayable    MappingPurpose = "ACCOUNTS_PAYABLE"
	MappingRevenue    MappingPurpose = "SALES_REVENUE"
	MappingExpense    MappingPurpose = "PURCHASE_EXPENSE"
	MappingCash       MappingPurpose = "CASH"
)

// Mapping binds a posting purpose to an account.
type Mapping struct {
	Purpose   MappingPurpose
	AccountID int64
}
