package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// memoryLedgerRepo implements Repository and TxRepository on maps. WithTx
// snapshots state and restores it on error, matching the all-or-nothing
// commit behaviour of the SQL repository.
type memoryLedgerRepo struct {
	mu       sync.Mutex
	entries  map[int64]*Entry
	lines    map[int64][]Line
	accounts map[int64]*accounts.Account
	links    map[string]int64
	counter  *sequence.MemoryCounter
	nextID   int64
	nextLine int64
}

func newMemoryLedgerRepo(accts ...accounts.Account) *memoryLedgerRepo {
	r := &memoryLedgerRepo{
		entries:  make(map[int64]*Entry),
		lines:    make(map[int64][]Line),
		accounts: make(map[int64]*accounts.Account),
		links:    make(map[string]int64),
		counter:  sequence.NewMemoryCounter(),
	}
	for i := range accts {
		a := accts[i]
		r.accounts[a.ID] = &a
	}
	return r
}

func (r *memoryLedgerRepo) snapshot() (map[int64]*Entry, map[int64][]Line, map[int64]*accounts.Account, map[string]int64) {
	entries := make(map[int64]*Entry, len(r.entries))
	for id, e := range r.entries {
		cp := *e
		entries[id] = &cp
	}
	lines := make(map[int64][]Line, len(r.lines))
	for id, ls := range r.lines {
		lines[id] = append([]Line(nil), ls...)
	}
	accts := make(map[int64]*accounts.Account, len(r.accounts))
	for id, a := range r.accounts {
		cp := *a
		accts[id] = &cp
	}
	links := make(map[string]int64, len(r.links))
	for k, v := range r.links {
		links[k] = v
	}
	return entries, lines, accts, links
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, lines, accts, links := r.snapshot()
	if err := fn(ctx, (*memoryLedgerTx)(r)); err != nil {
		r.entries, r.lines, r.accounts, r.links = entries, lines, accts, links
		return err
	}
	return nil
}

func (r *memoryLedgerRepo) Get(ctx context.Context, id int64) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*memoryLedgerTx)(r).GetEntryWithLines(ctx, id)
}

func (r *memoryLedgerRepo) GetByNumber(ctx context.Context, number string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.Number == number {
			return (*memoryLedgerTx)(r).GetEntryWithLines(ctx, id)
		}
	}
	return Entry{}, shared.ErrNotFound
}

func (r *memoryLedgerRepo) List(ctx context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		cp.Lines = append([]Line(nil), r.lines[e.ID]...)
		out = append(out, cp)
	}
	return out, nil
}

func (r *memoryLedgerRepo) accountBalance(id int64) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id].Balance
}

type memoryLedgerTx memoryLedgerRepo

func (r *memoryLedgerTx) NextJournalNumber(ctx context.Context, period string) (string, error) {
	n, err := r.counter.Next(ctx, sequence.PrefixJournal, period)
	if err != nil {
		return "", err
	}
	return sequence.Format(sequence.PrefixJournal, period, n), nil
}

func (r *memoryLedgerTx) InsertEntry(_ context.Context, entry Entry) (Entry, error) {
	for _, e := range r.entries {
		if e.Number == entry.Number {
			return Entry{}, shared.ErrSequenceConflict
		}
	}
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	cp := entry
	cp.Lines = nil
	r.entries[entry.ID] = &cp
	return entry, nil
}

func (r *memoryLedgerTx) InsertLines(_ context.Context, entryID int64, lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for i, line := range lines {
		r.nextLine++
		line.ID = r.nextLine
		line.EntryID = entryID
		line.LineNo = i + 1
		out = append(out, line)
	}
	r.lines[entryID] = out
	return out, nil
}

func (r *memoryLedgerTx) GetEntryWithLines(_ context.Context, id int64) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	cp := *e
	cp.Lines = append([]Line(nil), r.lines[id]...)
	return cp, nil
}

func (r *memoryLedgerTx) UpdateStatus(_ context.Context, id int64, from, to EntryStatus) (bool, error) {
	e, ok := r.entries[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if e.Status != from {
		return false, nil
	}
	e.Status = to
	if to == EntryStatusPosted {
		now := time.Now()
		e.PostedAt = &now
	}
	return true, nil
}

func (r *memoryLedgerTx) SetReversal(_ context.Context, entryID, linkedID int64) error {
	e, ok := r.entries[entryID]
	if !ok {
		return shared.ErrNotFound
	}
	e.ReversedID = &linkedID
	if r.entries[entryID].Type == EntryTypeReversing {
		e.IsReversing = true
	}
	return nil
}

func (r *memoryLedgerTx) GetAccount(_ context.Context, accountID int64) (accounts.Account, error) {
	a, ok := r.accounts[accountID]
	if !ok {
		return accounts.Account{}, shared.ErrNotFound
	}
	return *a, nil
}

func (r *memoryLedgerTx) AdjustAccountBalance(_ context.Context, accountID int64, delta decimal.Decimal) error {
	a, ok := r.accounts[accountID]
	if !ok {
		return shared.ErrNotFound
	}
	a.Balance = a.Balance.Add(delta)
	return nil
}

func (r *memoryLedgerTx) LinkSource(_ context.Context, module string, ref uuid.UUID, entryID int64) error {
	key := module + ":" + ref.String()
	if _, ok := r.links[key]; ok {
		return shared.ErrSourceConflict
	}
	r.links[key] = entryID
	return nil
}
