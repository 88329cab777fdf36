package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType enumerates journal entry categories.
type EntryType string

const (
	EntryTypeStandard  EntryType = "STANDARD"
	EntryTypeReversing EntryType = "REVERSING"
	EntryTypeSales     EntryType = "SALES"
	EntryTypePurchase  EntryType = "PURCHASE"
	EntryTypePayment   EntryType = "PAYMENT"
)

// Valid reports whether the entry type is known.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeStandard, EntryTypeReversing, EntryTypeSales, EntryTypePurchase, EntryTypePayment:
		return true
	}
	return false
}

// EntryStatus enumerates the journal entry lifecycle.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "DRAFT"
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
	EntryStatusVoid     EntryStatus = "VOID"
)

// Entry captures a balanced set of debit/credit postings recorded as a
// single atomic unit. Once posted its lines are immutable; the only
// retroactive correction is a reversal.
type Entry struct {
	ID           int64
	Number       string
	Date         time.Time
	Description  string
	Reference    string
	Type         EntryType
	Status       EntryStatus
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	SourceModule string
	SourceID     uuid.UUID
	IsReversing  bool
	ReversedID   *int64
	PostedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []Line
}

// Line stores a debit or credit amount for one account. Exactly one of
// Debit/Credit is positive.
type Line struct {
	ID          int64
	EntryID     int64
	LineNo      int
	AccountID   int64
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}
