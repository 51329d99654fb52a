package players

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
)

type memRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]Player
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]Player)}
}

func (r *memRepo) Get(ctx context.Context, owner uuid.UUID) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[owner]; ok {
		p := row
		return &p, nil
	}
	return New(owner), nil
}

func (r *memRepo) Save(ctx context.Context, p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.Owner()] = *p
	return nil
}

type nopPool struct{}

func (nopPool) Close() error { return nil }

type fixedGrants struct {
	vaults int
	stock  int
}

func (g fixedGrants) VaultGrant(ctx context.Context, id uuid.UUID) int { return g.vaults }
func (g fixedGrants) StockGrant(ctx context.Context, id uuid.UUID) int { return g.stock }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestService(repo Repository, grants Grants) *Service {
	store := cache.New(nopPool{}, testLogger())
	return NewService(store, repo, grants, 1, 100, testLogger())
}

func TestGet_CachesSingleInstance(t *testing.T) {
	svc := newTestService(newMemRepo(), NoGrants{})
	id := uuid.New()

	first, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestVaultAllowance_NeverBelowBase(t *testing.T) {
	svc := newTestService(newMemRepo(), NoGrants{})
	assert.Equal(t, 1, svc.VaultAllowance(context.Background(), uuid.New()))
}

func TestVaultAllowance_GrantPlusExtra(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, fixedGrants{vaults: 3})
	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.GrantExtraVaults(ctx, id, 2))
	assert.Equal(t, 5, svc.VaultAllowance(ctx, id))
}

func TestStockCapacity_GrantPlusExtra(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, fixedGrants{stock: 400})
	id := uuid.New()
	ctx := context.Background()

	assert.Equal(t, 400, svc.StockCapacity(ctx, id))

	require.NoError(t, svc.GrantExtraStock(ctx, id, 50))
	assert.Equal(t, 450, svc.StockCapacity(ctx, id))
}

func TestSetMode_Persists(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, NoGrants{})
	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.SetMode(ctx, id, ModeAutoStore))

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ModeAutoStore, stored.Mode)
}

func TestConnectDisconnect_Residency(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, NoGrants{})
	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.HandleConnect(ctx, id))
	p, ok := svc.Cached(id)
	require.True(t, ok)
	p.MaxExtraStock = 25

	require.NoError(t, svc.HandleDisconnect(ctx, id))
	_, ok = svc.Cached(id)
	assert.False(t, ok)

	// The disconnect flush persisted the in-memory change.
	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 25, stored.MaxExtraStock)
}
