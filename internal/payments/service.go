package payments

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
	"github.com/meridian-erp/meridian-erp/internal/invoicing"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// LedgerPort is the slice of the journal ledger the payment subledger needs.
type LedgerPort interface {
	CreatePosted(ctx context.Context, in ledger.CreateInput) (ledger.Entry, error)
	Reverse(ctx context.Context, in ledger.ReverseInput) (ledger.Entry, error)
}

// InvoicePort is the slice of the invoice subledger needed for settlement.
type InvoicePort interface {
	Get(ctx context.Context, id int64) (invoicing.Invoice, error)
	RecordPayment(ctx context.Context, id int64, amount decimal.Decimal) (invoicing.Invoice, error)
	ReversePayment(ctx context.Context, id int64, amount decimal.Decimal) (invoicing.Invoice, error)
}

// AccountResolver maps posting purposes to concrete accounts.
type AccountResolver interface {
	ResolveMapping(ctx context.Context, purpose accounts.MappingPurpose) (accounts.Account, error)
}

// Service handles payment record lifecycle. Confirming a payment is a
// composite operation across the ledger and the invoice subledger; it runs as
// a compensated saga so both sides apply or neither does.
type Service struct {
	repo     Repository
	ledger   LedgerPort
	invoices InvoicePort
	resolver AccountResolver
	audit    shared.AuditPort
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, ledgerPort LedgerPort, invoices InvoicePort, resolver AccountResolver, audit shared.AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledgerPort, invoices: invoices, resolver: resolver, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns one payment record.
func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	return s.repo.Get(ctx, id)
}

// List returns all payment records.
func (s *Service) List(ctx context.Context) ([]Payment, error) {
	return s.repo.List(ctx)
}

// Create records a Pending payment with no ledger effect.
func (s *Service) Create(ctx context.Context, in CreateInput) (Payment, error) {
	if err := in.Validate(); err != nil {
		return Payment{}, err
	}
	if in.InvoiceID != nil {
		if _, err := s.invoices.Get(ctx, *in.InvoiceID); err != nil {
			return Payment{}, fmt.Errorf("payments: invoice %d: %w", *in.InvoiceID, err)
		}
	}
	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextPaymentNumber(ctx, sequence.Period(s.now()))
		if err != nil {
			return err
		}
		inserted, err := tx.InsertPayment(ctx, Payment{
			Number:         number,
			InvoiceID:      in.InvoiceID,
			Amount:         in.Amount,
			Currency:       in.Currency,
			Method:         in.Method,
			Status:         StatusPending,
			RefundedAmount: decimal.Zero,
			SourceID:       uuid.New(),
		})
		if err != nil {
			return err
		}
		payment = inserted
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, in.ActorID, "payment.create", payment.ID, map[string]any{"number": payment.Number})
	return payment, nil
}

// Confirm transitions Pending -> Confirmed, posts the derived journal entry
// and settles the linked invoice. On a downstream failure every applied step
// is compensated before the error is returned.
func (s *Service) Confirm(ctx context.Context, id, actorID int64) (Payment, error) {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if payment.Status != StatusPending {
		return Payment{}, fmt.Errorf("payments: confirm %s payment: %w", payment.Status, shared.ErrInvalidTransition)
	}

	receivable := true
	if payment.InvoiceID != nil {
		invoice, err := s.invoices.Get(ctx, *payment.InvoiceID)
		if err != nil {
			return Payment{}, err
		}
		receivable = invoice.Type.Receivable()
	}
	entryInput, err := s.postingInput(ctx, payment, receivable, actorID)
	if err != nil {
		return Payment{}, err
	}

	// Step 1: the derived entry. The source link makes this at-most-once
	// even when two confirms race.
	entry, err := s.ledger.CreatePosted(ctx, entryInput)
	if err != nil {
		if errors.Is(err, shared.ErrSourceConflict) {
			return s.repo.Get(ctx, id)
		}
		return Payment{}, err
	}

	// Step 2: the status transition and entry link.
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		changed, err := tx.UpdateStatus(ctx, id, StatusConfirmed, StatusPending)
		if err != nil {
			return err
		}
		if !changed {
			return shared.ErrInvalidTransition
		}
		return tx.SetJournalEntry(ctx, id, &entry.ID)
	})
	if err != nil {
		s.compensateEntry(ctx, entry.ID, actorID, "payment confirm failed")
		return Payment{}, err
	}

	// Step 3: invoice settlement.
	if payment.InvoiceID != nil {
		if _, err := s.settleInvoice(ctx, *payment.InvoiceID, payment.Amount); err != nil {
			s.compensateEntry(ctx, entry.ID, actorID, "invoice settlement failed")
			_ = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
				if _, uerr := tx.UpdateStatus(ctx, id, StatusPending, StatusConfirmed); uerr != nil {
					return uerr
				}
				return tx.SetJournalEntry(ctx, id, nil)
			})
			return Payment{}, err
		}
	}

	s.record(ctx, actorID, "payment.confirm", id, map[string]any{"number": payment.Number, "entry_id": entry.ID})
	return s.repo.Get(ctx, id)
}

// Void flips a Pending payment with no ledger effect. On a Confirmed payment
// it reverses the derived journal entry and backs the invoice settlement out.
func (s *Service) Void(ctx context.Context, id, actorID int64, reason string) (Payment, error) {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	switch payment.Status {
	case StatusPending:
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			changed, err := tx.UpdateStatus(ctx, id, StatusVoided, StatusPending)
			if err != nil {
				return err
			}
			if !changed {
				return shared.ErrInvalidTransition
			}
			return nil
		})
		if err != nil {
			return Payment{}, err
		}
	case StatusConfirmed:
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			changed, err := tx.UpdateStatus(ctx, id, StatusVoided, StatusConfirmed)
			if err != nil {
				return err
			}
			if !changed {
				return shared.ErrInvalidTransition
			}
			return nil
		})
		if err != nil {
			return Payment{}, err
		}
		if payment.JournalEntryID != nil {
			if _, err := s.ledger.Reverse(ctx, ledger.ReverseInput{EntryID: *payment.JournalEntryID, ActorID: actorID, Reason: reason}); err != nil {
				_ = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
					_, uerr := tx.UpdateStatus(ctx, id, StatusConfirmed, StatusVoided)
					return uerr
				})
				return Payment{}, err
			}
		}
		if payment.InvoiceID != nil {
			if _, err := s.settleInvoice(ctx, *payment.InvoiceID, payment.Amount.Neg()); err != nil {
				s.logger.Error("void settlement rollback failed",
					slog.Int64("payment_id", id), slog.Any("error", err))
				return Payment{}, err
			}
		}
	default:
		return Payment{}, fmt.Errorf("payments: void %s payment: %w", payment.Status, shared.ErrInvalidTransition)
	}
	s.record(ctx, actorID, "payment.void", id, map[string]any{"number": payment.Number, "reason": reason})
	return s.repo.Get(ctx, id)
}

// Refund creates and immediately confirms a negative payment record against
// a Confirmed original. The refundable remainder shrinks with every refund;
// exceeding it fails with ErrRefundExceedsAvailable.
func (s *Service) Refund(ctx context.Context, id int64, amount decimal.Decimal, reason string, actorID int64) (Payment, error) {
	if !amount.IsPositive() {
		return Payment{}, errors.New("payments: refund amount must be positive")
	}
	var refund Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if original.Status != StatusConfirmed {
			return fmt.Errorf("payments: refund %s payment: %w", original.Status, shared.ErrInvalidTransition)
		}
		if original.IsRefund {
			return fmt.Errorf("payments: cannot refund a refund: %w", shared.ErrInvalidTransition)
		}
		if amount.GreaterThan(original.Refundable()) {
			return shared.ErrRefundExceedsAvailable
		}
		number, err := tx.NextPaymentNumber(ctx, sequence.Period(s.now()))
		if err != nil {
			return err
		}
		inserted, err := tx.InsertPayment(ctx, Payment{
			Number:         number,
			InvoiceID:      original.InvoiceID,
			Amount:         amount.Neg(),
			Currency:       original.Currency,
			Method:         original.Method,
			Status:         StatusPending,
			RefundedAmount: decimal.Zero,
			IsRefund:       true,
			OriginalID:     &original.ID,
			SourceID:       uuid.New(),
		})
		if err != nil {
			return err
		}
		if err := tx.SetRefunded(ctx, original.ID, original.RefundedAmount.Add(amount)); err != nil {
			return err
		}
		refund = inserted
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	confirmed, err := s.Confirm(ctx, refund.ID, actorID)
	if err != nil {
		// Unwind: drop the reservation and void the refund record.
		_ = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			original, gerr := tx.GetPayment(ctx, id)
			if gerr != nil {
				return gerr
			}
			if serr := tx.SetRefunded(ctx, id, original.RefundedAmount.Sub(amount)); serr != nil {
				return serr
			}
			_, uerr := tx.UpdateStatus(ctx, refund.ID, StatusVoided, StatusPending)
			return uerr
		})
		return Payment{}, err
	}
	s.record(ctx, actorID, "payment.refund", id, map[string]any{
		"refund_id":     confirmed.ID,
		"refund_number": confirmed.Number,
		"amount":        amount.String(),
		"reason":        reason,
	})
	return confirmed, nil
}

// settleInvoice applies a signed settlement delta to the linked invoice.
func (s *Service) settleInvoice(ctx context.Context, invoiceID int64, amount decimal.Decimal) (invoicing.Invoice, error) {
	if amount.IsPositive() {
		return s.invoices.RecordPayment(ctx, invoiceID, amount)
	}
	return s.invoices.ReversePayment(ctx, invoiceID, amount.Neg())
}

func (s *Service) compensateEntry(ctx context.Context, entryID, actorID int64, reason string) {
	if _, err := s.ledger.Reverse(ctx, ledger.ReverseInput{EntryID: entryID, ActorID: actorID, Reason: reason}); err != nil {
		s.logger.Error("compensating reversal failed",
			slog.Int64("entry_id", entryID), slog.Any("error", err))
	}
}

// postingInput builds the cash movement entry. Customer-side documents move
// cash against receivables, supplier-side against payables; refunds mirror
// the direction of their original.
func (s *Service) postingInput(ctx context.Context, payment Payment, receivable bool, actorID int64) (ledger.CreateInput, error) {
	cash, err := s.resolver.ResolveMapping(ctx, accounts.MappingCash)
	if err != nil {
		return ledger.CreateInput{}, err
	}
	counterPurpose := accounts.MappingPayable
	if receivable {
		counterPurpose = accounts.MappingReceivable
	}
	counter, err := s.resolver.ResolveMapping(ctx, counterPurpose)
	if err != nil {
		return ledger.CreateInput{}, err
	}

	amount := payment.Amount.Abs()
	inflow := receivable
	if payment.Amount.IsNegative() {
		inflow = !inflow
	}
	var lines []ledger.LineInput
	if inflow {
		lines = []ledger.LineInput{
			{AccountID: cash.ID, Description: payment.Number, Debit: amount},
			{AccountID: counter.ID, Description: payment.Number, Credit: amount},
		}
	} else {
		lines = []ledger.LineInput{
			{AccountID: counter.ID, Description: payment.Number, Debit: amount},
			{AccountID: cash.ID, Description: payment.Number, Credit: amount},
		}
	}
	description := fmt.Sprintf("Payment %s", payment.Number)
	if payment.IsRefund {
		description = fmt.Sprintf("Refund %s", payment.Number)
	}
	return ledger.CreateInput{
		Date:         s.now(),
		Description:  description,
		Reference:    payment.Number,
		Type:         ledger.EntryTypePayment,
		SourceModule: "payments",
		SourceID:     payment.SourceID,
		ActorID:      actorID,
		Lines:        lines,
	}, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, paymentID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "payment",
		EntityID: strconv.FormatInt(paymentID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
