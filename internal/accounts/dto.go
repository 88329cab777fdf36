package accounts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CreateInput groups fields required to create an account.
type CreateInput struct {
	Code     string
	Name     string
	Type     AccountType
	ParentID *int64
	Opening  decimal.Decimal
	IsSystem bool
	ActorID  int64
}

// Validate ensures create input meets minimum criteria.
func (in CreateInput) Validate() error {
	if in.Code == "" {
		return errors.New("accounts: code required")
	}
	if in.Name == "" {
		return errors.New("accounts: name required")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("accounts: unknown type %q", in.Type)
	}
	return nil
}

// UpdateInput groups mutable account fields. Nil pointers keep current values.
type UpdateInput struct {
	AccountID int64
	Name      *string
	ParentID  *int64
	IsActive  *bool
	ActorID   int64
}

// Validate ensures update input meets minimum criteria.
func (in UpdateInput) Validate() error {
	if in.AccountID == 0 {
		return errors.New("accounts: account id required")
	}
	if in.Name != nil && *in.Name == "" {
		return errors.New("accounts: name cannot be empty")
	}
	return nil
}
