package assets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// memoryAssetRepo is an in-memory Repository used by the service tests.
type memoryAssetRepo struct {
	mu      sync.Mutex
	assets  map[int64]Asset
	nextID  int64
	counter int64
}

func newMemoryAssetRepo() *memoryAssetRepo {
	return &memoryAssetRepo{assets: make(map[int64]Asset)}
}

func (m *memoryAssetRepo) Get(_ context.Context, id int64) (Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return Asset{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *memoryAssetRepo) List(_ context.Context) ([]Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Asset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryAssetRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[int64]Asset, len(m.assets))
	for k, v := range m.assets {
		snapshot[k] = v
	}
	snapID, snapCounter := m.nextID, m.counter

	if err := fn(ctx, (*memoryAssetTx)(m)); err != nil {
		m.assets = snapshot
		m.nextID, m.counter = snapID, snapCounter
		return err
	}
	return nil
}

type memoryAssetTx memoryAssetRepo

func (t *memoryAssetTx) NextAssetNumber(_ context.Context) (string, error) {
	t.counter++
	return sequence.Format(sequence.PrefixAsset, "", t.counter), nil
}

func (t *memoryAssetTx) InsertAsset(_ context.Context, a Asset) (Asset, error) {
	t.nextID++
	a.ID = t.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	t.assets[a.ID] = a
	return a, nil
}

func (t *memoryAssetTx) GetAsset(_ context.Context, id int64) (Asset, error) {
	a, ok := t.assets[id]
	if !ok {
		return Asset{}, shared.ErrNotFound
	}
	return a, nil
}

func (t *memoryAssetTx) SetDepreciation(_ context.Context, id int64, accumulated, current decimal.Decimal) error {
	a, ok := t.assets[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.AccumulatedDepreciation = accumulated
	a.CurrentValue = current
	a.UpdatedAt = time.Now()
	t.assets[id] = a
	return nil
}

func newAssetService(repo Repository) *Service {
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time { return date(2026, time.August, 15) })
	return svc
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc := newAssetService(newMemoryAssetRepo())
	ctx := context.Background()
	in := CreateInput{
		Name:             "Delivery van",
		Category:         "VEHICLES",
		AcquisitionDate:  date(2024, time.January, 15),
		AcquisitionPrice: dec("12000.00"),
		SalvageValue:     decimal.Zero,
		UsefulLifeMonths: 60,
		Method:           MethodStraightLine,
	}

	first, err := svc.Create(ctx, in)
	require.NoError(t, err)
	second, err := svc.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "AST-0001", first.Number)
	assert.Equal(t, "AST-0002", second.Number)
	assert.True(t, first.CurrentValue.Equal(dec("12000.00")))
	assert.True(t, first.AccumulatedDepreciation.IsZero())
}

func TestCreateRejectsSalvageAbovePrice(t *testing.T) {
	svc := newAssetService(newMemoryAssetRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		Name:             "Printer",
		AcquisitionDate:  date(2024, time.January, 1),
		AcquisitionPrice: dec("100.00"),
		SalvageValue:     dec("200.00"),
		UsefulLifeMonths: 36,
		Method:           MethodStraightLine,
	})
	require.Error(t, err)
}

func TestCalculateDepreciationPersistsDerivedValues(t *testing.T) {
	repo := newMemoryAssetRepo()
	svc := newAssetService(repo)
	ctx := context.Background()

	asset, err := svc.Create(ctx, CreateInput{
		Name:             "Delivery van",
		AcquisitionDate:  date(2024, time.January, 15),
		AcquisitionPrice: dec("12000.00"),
		SalvageValue:     decimal.Zero,
		UsefulLifeMonths: 60,
		Method:           MethodStraightLine,
	})
	require.NoError(t, err)

	got, err := svc.CalculateDepreciation(ctx, asset.ID, date(2026, time.January, 15), 1)
	require.NoError(t, err)
	assert.True(t, got.AccumulatedDepreciation.Equal(dec("4800.00")), "got %s", got.AccumulatedDepreciation)
	assert.True(t, got.CurrentValue.Equal(dec("7200.00")), "got %s", got.CurrentValue)

	// Recomputing at the same date changes nothing.
	again, err := svc.CalculateDepreciation(ctx, asset.ID, date(2026, time.January, 15), 1)
	require.NoError(t, err)
	assert.True(t, again.AccumulatedDepreciation.Equal(got.AccumulatedDepreciation))
	assert.True(t, again.CurrentValue.Equal(got.CurrentValue))
}

func TestCalculateDepreciationFloorsAtSalvage(t *testing.T) {
	repo := newMemoryAssetRepo()
	svc := newAssetService(repo)
	ctx := context.Background()

	asset, err := svc.Create(ctx, CreateInput{
		Name:             "Server rack",
		AcquisitionDate:  date(2020, time.January, 1),
		AcquisitionPrice: dec("10000.00"),
		SalvageValue:     dec("1000.00"),
		UsefulLifeMonths: 36,
		Method:           MethodStraightLine,
	})
	require.NoError(t, err)

	got, err := svc.CalculateDepreciation(ctx, asset.ID, date(2026, time.August, 1), 1)
	require.NoError(t, err)
	assert.True(t, got.CurrentValue.Equal(dec("1000.00")))
	assert.True(t, got.AccumulatedDepreciation.Equal(dec("9000.00")))
}

func TestCalculateDepreciationUnknownAsset(t *testing.T) {
	svc := newAssetService(newMemoryAssetRepo())
	_, err := svc.CalculateDepreciation(context.Background(), 99, time.Time{}, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
