package payments

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates the payment record lifecycle.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusConfirmed PaymentStatus = "CONFIRMED"
	StatusVoided    PaymentStatus = "VOIDED"
)

// Payment is a subledger record of money received or paid out. Amount is
// signed: positive for a payment, negative for a refund.
type Payment struct {
	ID             int64
	Number         string
	InvoiceID      *int64
	Amount         decimal.Decimal
	Currency       string
	Method         string
	Status         PaymentStatus
	JournalEntryID *int64
	RefundedAmount decimal.Decimal
	IsRefund       bool
	OriginalID     *int64
	SourceID       uuid.UUID
	ConfirmedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Refundable returns how much of the payment can still be refunded.
func (p Payment) Refundable() decimal.Decimal {
	return p.Amount.Abs().Sub(p.RefundedAmount)
}

// CreateInput groups fields required to record a payment.
type CreateInput struct {
	InvoiceID *int64
	Amount    decimal.Decimal
	Currency  string
	Method    string
	ActorID   int64
}

// Validate ensures create input meets minimum criteria.
func (in CreateInput) Validate() error {
	if !in.Amount.IsPositive() {
		return errors.New("payments: amount must be positive")
	}
	if in.Currency == "" {
		return errors.New("payments: currency required")
	}
	if in.Method == "" {
		return errors.New("payments: method required")
	}
	if in.InvoiceID != nil && *in.InvoiceID == 0 {
		return fmt.Errorf("payments: invalid invoice id")
	}
	return nil
}
