package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// memoryAccountRepo is an in-memory Repository used by the service tests.
type memoryAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]Account
	mappings map[MappingPurpose]int64
	// lineCounts simulates journal_lines references per account.
	lineCounts map[int64]int
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{
		accounts:   make(map[int64]Account),
		mappings:   make(map[MappingPurpose]int64),
		lineCounts: make(map[int64]int),
	}
}

func (m *memoryAccountRepo) Get(_ context.Context, id int64) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *memoryAccountRepo) GetByCode(_ context.Context, code string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Code == code {
			return a, nil
		}
	}
	return Account{}, shared.ErrNotFound
}

func (m *memoryAccountRepo) List(_ context.Context) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memoryAccountRepo) ListByType(_ context.Context, t AccountType) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Account
	for _, a := range m.accounts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memoryAccountRepo) Create(_ context.Context, in CreateInput) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Code == in.Code {
			return Account{}, shared.ErrDuplicateCode
		}
	}
	m.nextID++
	now := time.Now()
	opening := in.Opening
	if opening.IsZero() {
		opening = decimal.Zero
	}
	a := Account{
		ID:        m.nextID,
		Code:      in.Code,
		Name:      in.Name,
		Type:      in.Type,
		ParentID:  in.ParentID,
		Balance:   opening,
		IsActive:  true,
		IsSystem:  in.IsSystem,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.accounts[a.ID] = a
	return a, nil
}

func (m *memoryAccountRepo) Update(_ context.Context, in UpdateInput) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[in.AccountID]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.ParentID != nil {
		a.ParentID = in.ParentID
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	a.UpdatedAt = time.Now()
	m.accounts[a.ID] = a
	return a, nil
}

func (m *memoryAccountRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return shared.ErrNotFound
	}
	if m.lineCounts[id] > 0 {
		return shared.ErrHasDependents
	}
	for _, a := range m.accounts {
		if a.ParentID != nil && *a.ParentID == id {
			return shared.ErrHasDependents
		}
	}
	delete(m.accounts, id)
	return nil
}

func (m *memoryAccountRepo) GetMapping(_ context.Context, purpose MappingPurpose) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.mappings[purpose]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return id, nil
}
