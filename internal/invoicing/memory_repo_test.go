package invoicing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// memoryInvoiceRepo is an in-memory Repository used by the service tests.
// WithTx snapshots state up front and restores it when the closure fails.
type memoryInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[int64]Invoice
	nextID   int64
	counters map[string]int64

	// statusUpdateErr makes the next UpdateStatus fail, simulating the
	// invoice write breaking after a ledger posting succeeded.
	statusUpdateErr error
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{
		invoices: make(map[int64]Invoice),
		counters: make(map[string]int64),
	}
}

func (m *memoryInvoiceRepo) Get(_ context.Context, id int64) (Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (m *memoryInvoiceRepo) List(_ context.Context, filter ListFilter) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if filter.Type != "" && inv.Type != filter.Type {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.PartyID != 0 && inv.PartyID != filter.PartyID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *memoryInvoiceRepo) ListUnpaid(_ context.Context, receivable bool, asOf time.Time) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.Type.Receivable() != receivable {
			continue
		}
		if inv.Status != StatusSent && inv.Status != StatusPartiallyPaid {
			continue
		}
		if inv.IssueDate.After(asOf) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *memoryInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapInvoices := make(map[int64]Invoice, len(m.invoices))
	for k, v := range m.invoices {
		snapInvoices[k] = v
	}
	snapCounters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		snapCounters[k] = v
	}
	snapNextID := m.nextID

	if err := fn(ctx, (*memoryInvoiceTx)(m)); err != nil {
		m.invoices = snapInvoices
		m.counters = snapCounters
		m.nextID = snapNextID
		return err
	}
	return nil
}

type memoryInvoiceTx memoryInvoiceRepo

func (t *memoryInvoiceTx) NextInvoiceNumber(_ context.Context, typ InvoiceType, period string) (string, error) {
	key := typ.Prefix() + ":" + period
	t.counters[key]++
	return sequence.Format(typ.Prefix(), period, t.counters[key]), nil
}

func (t *memoryInvoiceTx) InsertInvoice(_ context.Context, inv Invoice) (Invoice, error) {
	for _, existing := range t.invoices {
		if existing.Number == inv.Number {
			return Invoice{}, shared.ErrSequenceConflict
		}
	}
	t.nextID++
	inv.ID = t.nextID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	t.invoices[inv.ID] = inv
	return inv, nil
}

func (t *memoryInvoiceTx) InsertItems(_ context.Context, invoiceID int64, items []LineItem) ([]LineItem, error) {
	inv, ok := t.invoices[invoiceID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := make([]LineItem, 0, len(items))
	for idx, item := range items {
		item.ID = int64(idx + 1)
		item.InvoiceID = invoiceID
		out = append(out, item)
	}
	inv.Items = out
	t.invoices[invoiceID] = inv
	return out, nil
}

func (t *memoryInvoiceTx) GetInvoice(_ context.Context, id int64) (Invoice, error) {
	inv, ok := t.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (t *memoryInvoiceTx) UpdateStatus(_ context.Context, id int64, to InvoiceStatus, from ...InvoiceStatus) (bool, error) {
	if t.statusUpdateErr != nil {
		err := t.statusUpdateErr
		t.statusUpdateErr = nil
		return false, err
	}
	inv, ok := t.invoices[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	matched := len(from) == 0
	for _, f := range from {
		if inv.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	inv.Status = to
	inv.UpdatedAt = time.Now()
	t.invoices[id] = inv
	return true, nil
}

func (t *memoryInvoiceTx) SetJournalEntry(_ context.Context, id, entryID int64) error {
	inv, ok := t.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.JournalEntryID = &entryID
	t.invoices[id] = inv
	return nil
}

func (t *memoryInvoiceTx) SetAmountPaid(_ context.Context, id int64, paid decimal.Decimal, status InvoiceStatus) error {
	inv, ok := t.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.AmountPaid = paid
	inv.Status = status
	inv.UpdatedAt = time.Now()
	t.invoices[id] = inv
	return nil
}
