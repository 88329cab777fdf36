package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// memoryPaymentsRepo is an in-memory Repository used by the service tests.
// WithTx snapshots state up front and restores it when the closure fails, so
// a transaction either fully applies or leaves no trace.
type memoryPaymentsRepo struct {
	mu       sync.Mutex
	payments map[int64]Payment
	nextID   int64
	counters map[string]int64
}

func newMemoryPaymentsRepo() *memoryPaymentsRepo {
	return &memoryPaymentsRepo{
		payments: make(map[int64]Payment),
		counters: make(map[string]int64),
	}
}

func (m *memoryPaymentsRepo) Get(_ context.Context, id int64) (Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return Payment{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryPaymentsRepo) List(_ context.Context) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryPaymentsRepo) ListByInvoice(_ context.Context, invoiceID int64) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Payment
	for _, p := range m.payments {
		if p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPaymentsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapPayments := make(map[int64]Payment, len(m.payments))
	for k, v := range m.payments {
		snapPayments[k] = v
	}
	snapCounters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		snapCounters[k] = v
	}
	snapNextID := m.nextID

	if err := fn(ctx, (*memoryPaymentsTx)(m)); err != nil {
		m.payments = snapPayments
		m.counters = snapCounters
		m.nextID = snapNextID
		return err
	}
	return nil
}

type memoryPaymentsTx memoryPaymentsRepo

func (t *memoryPaymentsTx) NextPaymentNumber(_ context.Context, period string) (string, error) {
	t.counters[period]++
	return sequence.Format(sequence.PrefixPayment, period, t.counters[period]), nil
}

func (t *memoryPaymentsTx) InsertPayment(_ context.Context, p Payment) (Payment, error) {
	for _, existing := range t.payments {
		if existing.Number == p.Number {
			return Payment{}, shared.ErrSequenceConflict
		}
	}
	t.nextID++
	p.ID = t.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	t.payments[p.ID] = p
	return p, nil
}

func (t *memoryPaymentsTx) GetPayment(_ context.Context, id int64) (Payment, error) {
	p, ok := t.payments[id]
	if !ok {
		return Payment{}, shared.ErrNotFound
	}
	return p, nil
}

func (t *memoryPaymentsTx) UpdateStatus(_ context.Context, id int64, to PaymentStatus, from ...PaymentStatus) (bool, error) {
	p, ok := t.payments[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	matched := len(from) == 0
	for _, f := range from {
		if p.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	p.Status = to
	if to == StatusConfirmed {
		now := time.Now()
		p.ConfirmedAt = &now
	}
	p.UpdatedAt = time.Now()
	t.payments[id] = p
	return true, nil
}

func (t *memoryPaymentsTx) SetJournalEntry(_ context.Context, id int64, entryID *int64) error {
	p, ok := t.payments[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.JournalEntryID = entryID
	t.payments[id] = p
	return nil
}

func (t *memoryPaymentsTx) SetRefunded(_ context.Context, id int64, refunded decimal.Decimal) error {
	p, ok := t.payments[id]
	if !ok {
		return shared.ErrNotFound
	}
	if refunded.IsNegative() {
		return fmt.Errorf("payments: negative refunded amount")
	}
	p.RefundedAmount = refunded
	t.payments[id] = p
	return nil
}
