package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// LineInput describes one journal line for a create request.
type LineInput struct {
	AccountID   int64
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// CreateInput groups fields required to create a journal entry.
type CreateInput struct {
	Date         time.Time
	Description  string
	Reference    string
	Type         EntryType
	SourceModule string
	SourceID     uuid.UUID
	ActorID      int64
	Lines        []LineInput
}

// Validate enforces the balance invariant before anything is persisted:
// at least one line, every line one-sided and non-negative, and total debits
// exactly equal to total credits.
func (in CreateInput) Validate() error {
	if in.Date.IsZero() {
		return errors.New("ledger: entry date required")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("ledger: unknown entry type %q", in.Type)
	}
	if len(in.Lines) == 0 {
		return errors.New("ledger: at least one line required")
	}
	var debit, credit decimal.Decimal
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("ledger: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("ledger: line %d negative amount", idx)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("ledger: line %d cannot be both debit and credit", idx)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return fmt.Errorf("ledger: line %d has no amount", idx)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return shared.ErrUnbalanced
	}
	return nil
}

// Totals returns the summed debit and credit of the input lines.
func (in CreateInput) Totals() (debit, credit decimal.Decimal) {
	for _, line := range in.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// ReverseInput wraps parameters for a reversal.
type ReverseInput struct {
	EntryID int64
	ActorID int64
	Reason  string
}

// VoidInput wraps parameters for voiding.
type VoidInput struct {
	EntryID int64
	ActorID int64
	Reason  string
}
