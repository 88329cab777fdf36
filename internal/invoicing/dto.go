package invoicing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ItemInput describes one invoice line for a create request. Rates are
// fractions: a 10% tax is 0.10.
type ItemInput struct {
	Description  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	DiscountRate decimal.Decimal
	TaxRate      decimal.Decimal
}

// CreateInput groups fields required to create an invoice.
type CreateInput struct {
	Type      InvoiceType
	PartyID   int64
	IssueDate time.Time
	DueDate   time.Time
	ActorID   int64
	Items     []ItemInput
}

// Validate ensures create input meets minimum criteria.
func (in CreateInput) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("invoicing: unknown type %q", in.Type)
	}
	if in.PartyID == 0 {
		return errors.New("invoicing: party id required")
	}
	if in.IssueDate.IsZero() {
		return errors.New("invoicing: issue date required")
	}
	if len(in.Items) == 0 {
		return errors.New("invoicing: at least one line item required")
	}
	one := decimal.NewFromInt(1)
	for idx, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("invoicing: item %d quantity must be positive", idx)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("invoicing: item %d negative unit price", idx)
		}
		if item.DiscountRate.IsNegative() || item.DiscountRate.GreaterThan(one) {
			return fmt.Errorf("invoicing: item %d discount rate out of range", idx)
		}
		if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(one) {
			return fmt.Errorf("invoicing: item %d tax rate out of range", idx)
		}
	}
	return nil
}
