package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// LedgerPort is the slice of the journal ledger the invoice subledger needs.
type LedgerPort interface {
	CreatePosted(ctx context.Context, in ledger.CreateInput) (ledger.Entry, error)
	Reverse(ctx context.Context, in ledger.ReverseInput) (ledger.Entry, error)
}

// AccountResolver maps posting purposes to concrete accounts.
type AccountResolver interface {
	ResolveMapping(ctx context.Context, purpose accounts.MappingPurpose) (accounts.Account, error)
}

// Service handles the invoice subledger lifecycle.
type Service struct {
	repo     Repository
	ledger   LedgerPort
	resolver AccountResolver
	audit    shared.AuditPort
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, ledgerPort LedgerPort, resolver AccountResolver, audit shared.AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledgerPort, resolver: resolver, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns one invoice with its items.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	return s.repo.List(ctx, filter)
}

// ListUnpaid returns outstanding invoices on one side of the ledger, issued
// up to asOf. The aging report is built on top of this.
func (s *Service) ListUnpaid(ctx context.Context, receivable bool, asOf time.Time) ([]Invoice, error) {
	return s.repo.ListUnpaid(ctx, receivable, asOf)
}

// Create computes totals from the line items, freezes them and persists the
// invoice in Draft status with a typed document number.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invoice, error) {
	if err := in.Validate(); err != nil {
		return Invoice{}, err
	}
	items := make([]LineItem, 0, len(in.Items))
	var subtotal, tax decimal.Decimal
	for _, input := range in.Items {
		item := LineItem{
			Description:  input.Description,
			Quantity:     input.Quantity,
			UnitPrice:    input.UnitPrice,
			DiscountRate: input.DiscountRate,
			TaxRate:      input.TaxRate,
		}
		item.Total = item.Net().Add(item.Tax())
		subtotal = subtotal.Add(item.Net())
		tax = tax.Add(item.Tax())
		items = append(items, item)
	}
	dueDate := in.DueDate
	if dueDate.IsZero() {
		dueDate = in.IssueDate.AddDate(0, 0, 30)
	}
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextInvoiceNumber(ctx, in.Type, sequence.Period(in.IssueDate))
		if err != nil {
			return err
		}
		inserted, err := tx.InsertInvoice(ctx, Invoice{
			Number:     number,
			Type:       in.Type,
			Status:     StatusDraft,
			PartyID:    in.PartyID,
			IssueDate:  in.IssueDate,
			DueDate:    dueDate,
			Subtotal:   subtotal,
			TaxAmount:  tax,
			Total:      subtotal.Add(tax),
			AmountPaid: decimal.Zero,
			SourceID:   uuid.New(),
		})
		if err != nil {
			return err
		}
		inserted.Items, err = tx.InsertItems(ctx, inserted.ID, items)
		if err != nil {
			return err
		}
		invoice = inserted
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, in.ActorID, "invoice.create", invoice.ID, map[string]any{"number": invoice.Number})
	return invoice, nil
}

// Send transitions Draft -> Sent and lazily posts exactly one journal entry
// for the invoice. A repeated Sent transition is a no-op and never creates a
// second entry. If marking the invoice Sent fails after the entry posted, the
// entry is reversed (compensating action).
func (s *Service) Send(ctx context.Context, id, actorID int64) (Invoice, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if invoice.Status == StatusSent && invoice.JournalEntryID != nil {
		s.logger.Warn("send skipped, invoice already sent", slog.String("number", invoice.Number))
		return invoice, nil
	}
	if invoice.Status != StatusDraft {
		return Invoice{}, fmt.Errorf("invoicing: send %s invoice: %w", invoice.Status, shared.ErrInvalidTransition)
	}

	entryInput, err := s.postingInput(ctx, invoice, actorID)
	if err != nil {
		return Invoice{}, err
	}
	entry, err := s.ledger.CreatePosted(ctx, entryInput)
	if err != nil {
		if errors.Is(err, shared.ErrSourceConflict) {
			// A concurrent Send already posted the entry for this invoice.
			return s.repo.Get(ctx, id)
		}
		return Invoice{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		changed, err := tx.UpdateStatus(ctx, id, StatusSent, StatusDraft)
		if err != nil {
			return err
		}
		if !changed {
			return shared.ErrInvalidTransition
		}
		return tx.SetJournalEntry(ctx, id, entry.ID)
	})
	if err != nil {
		if _, rerr := s.ledger.Reverse(ctx, ledger.ReverseInput{EntryID: entry.ID, ActorID: actorID, Reason: "invoice send failed"}); rerr != nil {
			s.logger.Error("compensating reversal failed",
				slog.Int64("entry_id", entry.ID), slog.Any("error", rerr))
		}
		return Invoice{}, err
	}
	s.record(ctx, actorID, "invoice.send", id, map[string]any{"number": invoice.Number, "entry_id": entry.ID})
	return s.repo.Get(ctx, id)
}

// RecordPayment increases the settled amount. Status becomes Paid when the
// invoice is fully settled, PartiallyPaid otherwise. Settlement above the
// invoice total is rejected.
func (s *Service) RecordPayment(ctx context.Context, id int64, amount decimal.Decimal) (Invoice, error) {
	if !amount.IsPositive() {
		return Invoice{}, errors.New("invoicing: payment amount must be positive")
	}
	return s.adjustPaid(ctx, id, amount)
}

// ReversePayment backs a recorded payment out again, used when a confirmed
// payment is voided or refunded.
func (s *Service) ReversePayment(ctx context.Context, id int64, amount decimal.Decimal) (Invoice, error) {
	if !amount.IsPositive() {
		return Invoice{}, errors.New("invoicing: reversal amount must be positive")
	}
	return s.adjustPaid(ctx, id, amount.Neg())
}

func (s *Service) adjustPaid(ctx context.Context, id int64, delta decimal.Decimal) (Invoice, error) {
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusSent, StatusPartiallyPaid, StatusPaid:
		default:
			return fmt.Errorf("invoicing: settle %s invoice: %w", current.Status, shared.ErrInvalidTransition)
		}
		if delta.IsPositive() && current.Status == StatusPaid {
			return fmt.Errorf("invoicing: invoice %s already paid: %w", current.Number, shared.ErrInvalidTransition)
		}
		newPaid := current.AmountPaid.Add(delta)
		if newPaid.IsNegative() {
			return fmt.Errorf("invoicing: settled amount cannot go negative on %s", current.Number)
		}
		if newPaid.GreaterThan(current.Total) {
			return fmt.Errorf("invoicing: payment exceeds balance of %s", current.Number)
		}
		status := StatusSent
		switch {
		case newPaid.GreaterThanOrEqual(current.Total):
			status = StatusPaid
		case newPaid.IsPositive():
			status = StatusPartiallyPaid
		}
		if err := tx.SetAmountPaid(ctx, id, newPaid, status); err != nil {
			return err
		}
		current.AmountPaid = newPaid
		current.Status = status
		invoice = current
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// Cancel retires an invoice. A draft never produced a posting, so it is
// voided outright; an issued invoice is marked Cancelled and its journal
// entry reversed. Paid invoices cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id, actorID int64, reason string) (Invoice, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	switch invoice.Status {
	case StatusPaid, StatusCancelled, StatusVoid:
		return Invoice{}, fmt.Errorf("invoicing: cancel %s invoice: %w", invoice.Status, shared.ErrInvalidTransition)
	}
	target := StatusCancelled
	if invoice.Status == StatusDraft {
		target = StatusVoid
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		changed, err := tx.UpdateStatus(ctx, id, target, StatusDraft, StatusSent, StatusPartiallyPaid)
		if err != nil {
			return err
		}
		if !changed {
			return shared.ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	if invoice.JournalEntryID != nil {
		if _, err := s.ledger.Reverse(ctx, ledger.ReverseInput{EntryID: *invoice.JournalEntryID, ActorID: actorID, Reason: reason}); err != nil {
			// Compensate: the cancellation stands or falls with the reversal.
			_ = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
				_, uerr := tx.UpdateStatus(ctx, id, invoice.Status, target)
				return uerr
			})
			return Invoice{}, err
		}
	}
	s.record(ctx, actorID, "invoice.cancel", id, map[string]any{"number": invoice.Number, "reason": reason})
	return s.repo.Get(ctx, id)
}

// postingInput builds the derived journal entry for a sent invoice: sales
// documents debit receivables and credit revenue, purchase documents debit
// expense and credit payables, and note documents mirror their base type.
func (s *Service) postingInput(ctx context.Context, invoice Invoice, actorID int64) (ledger.CreateInput, error) {
	var debitPurpose, creditPurpose accounts.MappingPurpose
	entryType := ledger.EntryTypeSales
	switch invoice.Type {
	case TypeSales:
		debitPurpose, creditPurpose = accounts.MappingReceivable, accounts.MappingRevenue
	case TypeCreditNote:
		debitPurpose, creditPurpose = accounts.MappingRevenue, accounts.MappingReceivable
	case TypePurchase:
		debitPurpose, creditPurpose = accounts.MappingExpense, accounts.MappingPayable
		entryType = ledger.EntryTypePurchase
	default: // TypeDebitNote
		debitPurpose, creditPurpose = accounts.MappingPayable, accounts.MappingExpense
		entryType = ledger.EntryTypePurchase
	}
	debitAccount, err := s.resolver.ResolveMapping(ctx, debitPurpose)
	if err != nil {
		return ledger.CreateInput{}, err
	}
	creditAccount, err := s.resolver.ResolveMapping(ctx, creditPurpose)
	if err != nil {
		return ledger.CreateInput{}, err
	}
	return ledger.CreateInput{
		Date:         s.now(),
		Description:  fmt.Sprintf("Invoice %s", invoice.Number),
		Reference:    invoice.Number,
		Type:         entryType,
		SourceModule: "invoicing",
		SourceID:     invoice.SourceID,
		ActorID:      actorID,
		Lines: []ledger.LineInput{
			{AccountID: debitAccount.ID, Description: invoice.Number, Debit: invoice.Total},
			{AccountID: creditAccount.ID, Description: invoice.Number, Credit: invoice.Total},
		},
	}, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, invoiceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(invoiceID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
