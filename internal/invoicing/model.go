package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/sequence"
)

// InvoiceType enumerates invoice document kinds.
type InvoiceType string

const (
	TypeSales      InvoiceType = "SALES"
	TypePurchase   InvoiceType = "PURCHASE"
	TypeCreditNote InvoiceType = "CREDIT_NOTE"
	TypeDebitNote  InvoiceType = "DEBIT_NOTE"
)

// Valid reports whether the invoice type is known.
func (t InvoiceType) Valid() bool {
	switch t {
	case TypeSales, TypePurchase, TypeCreditNote, TypeDebitNote:
		return true
	}
	return false
}

// Prefix returns the document number prefix for the type.
func (t InvoiceType) Prefix() string {
	switch t {
	case TypeSales:
		return sequence.PrefixSalesInvoice
	case TypePurchase:
		return sequence.PrefixPurchaseInvoice
	case TypeCreditNote:
		return sequence.PrefixCreditNote
	default:
		return sequence.PrefixDebitNote
	}
}

// Receivable reports whether the document sits on the customer side of the
// ledger (accounts receivable) rather than the supplier side.
func (t InvoiceType) Receivable() bool {
	return t == TypeSales || t == TypeCreditNote
}

// InvoiceStatus enumerates the invoice lifecycle.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "DRAFT"
	StatusSent          InvoiceStatus = "SENT"
	StatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	StatusPaid          InvoiceStatus = "PAID"
	StatusCancelled     InvoiceStatus = "CANCELLED"
	StatusVoid          InvoiceStatus = "VOID"
)

// LineItem is one invoice row. Total is frozen at creation.
type LineItem struct {
	ID           int64
	InvoiceID    int64
	Description  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	DiscountRate decimal.Decimal
	TaxRate      decimal.Decimal
	Total        decimal.Decimal
}

// Net returns the line amount after discount, before tax.
func (l LineItem) Net() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Mul(decimal.NewFromInt(1).Sub(l.DiscountRate))
}

// Tax returns the tax amount for the line.
func (l LineItem) Tax() decimal.Decimal {
	return l.Net().Mul(l.TaxRate)
}

// Invoice is a subledger document whose lifecycle transitions generate
// ledger postings. Totals are computed from the line items at creation and
// immutable thereafter.
type Invoice struct {
	ID             int64
	Number         string
	Type           InvoiceType
	Status         InvoiceStatus
	PartyID        int64
	IssueDate      time.Time
	DueDate        time.Time
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	JournalEntryID *int64
	SourceID       uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []LineItem
}

// Balance returns the unpaid remainder.
func (i Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}
