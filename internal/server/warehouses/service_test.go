package warehouses

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/cache"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

type memRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID][]Stock
	saves int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID][]Stock)}
}

func (r *memRepo) Get(ctx context.Context, owner uuid.UUID) (*Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Hydrate(owner, r.rows[owner]), nil
}

func (r *memRepo) Save(ctx context.Context, w *Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[w.Owner()] = w.Stocks()
	r.saves++
	return nil
}

func (r *memRepo) TotalQuantity(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, stocks := range r.rows {
		for _, s := range stocks {
			total += s.Quantity
		}
	}
	return total, nil
}

type nopPool struct{}

func (nopPool) Close() error { return nil }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestService(repo Repository, capacity int) *Service {
	store := cache.New(nopPool{}, testLogger())
	return NewService(store, repo, NewHooks(),
		func(ctx context.Context, owner uuid.UUID) int { return capacity },
		func(typ items.ItemType) bool { return typ.Valid() },
		testLogger())
}

func TestService_LoadCachesSingleInstance(t *testing.T) {
	svc := newTestService(newMemRepo(), 10)
	owner := uuid.New()

	first, err := svc.Load(context.Background(), owner)
	require.NoError(t, err)
	second, err := svc.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestService_StockAndDestock(t *testing.T) {
	svc := newTestService(newMemRepo(), 10)
	owner := uuid.New()
	ctx := context.Background()

	stored, err := svc.Stock(ctx, owner, iron, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, stored)

	stored, err = svc.Stock(ctx, owner, iron, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, stored, "second deposit is clamped to the remaining capacity")

	stack, ok, err := svc.Destock(ctx, owner, iron, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, items.Of(iron, 4), stack)
}

func TestService_StockNonStorablePanics(t *testing.T) {
	repo := newMemRepo()
	store := cache.New(nopPool{}, testLogger())
	svc := NewService(store, repo, NewHooks(),
		func(ctx context.Context, owner uuid.UUID) int { return 10 },
		func(typ items.ItemType) bool { return typ != iron },
		testLogger())

	assert.Panics(t, func() {
		_, _ = svc.Stock(context.Background(), uuid.New(), iron, 1)
	})
}

func TestService_DestockAbsent(t *testing.T) {
	svc := newTestService(newMemRepo(), 10)
	_, ok, err := svc.Destock(context.Background(), uuid.New(), iron, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_EvictPersists(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, 10)
	owner := uuid.New()
	ctx := context.Background()

	_, err := svc.Stock(ctx, owner, iron, 5)
	require.NoError(t, err)
	require.NoError(t, svc.Evict(ctx, owner))

	_, resident := svc.Cached(owner)
	assert.False(t, resident)

	// A fresh load sees the persisted quantity.
	w, err := svc.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Quantity(iron))
}

func TestService_Scenario(t *testing.T) {
	svc := newTestService(newMemRepo(), 5)
	owner := uuid.New()
	ctx := context.Background()

	stored, err := svc.Stock(ctx, owner, iron, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	stored, err = svc.Stock(ctx, owner, gold, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	stack, ok, err := svc.Destock(ctx, owner, iron, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, stack.Amount)

	res, err := svc.RemoveCompartment(ctx, owner, iron)
	require.NoError(t, err)
	assert.Equal(t, Removed, res)
}
