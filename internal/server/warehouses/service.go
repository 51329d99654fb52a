package warehouses

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/cache"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

// CapacityFunc yields the stock capacity of an owner at call time. The
// resolver combines the config base allowance, permission grants and the
// per-player extra column.
type CapacityFunc func(ctx context.Context, owner uuid.UUID) int

// StorableFunc reports whether an item type may be stocked at all. Blacklisted
// types are filtered here; callers must consult it before stocking.
type StorableFunc func(typ items.ItemType) bool

// Service coordinates warehouse access through the cache: one resident ledger
// per online owner, persisted by the sweep and on eviction.
type Service struct {
	store    *cache.Store
	repo     Repository
	hooks    *Hooks
	capacity CapacityFunc
	storable StorableFunc
	log      logging.Logger
}

func NewService(store *cache.Store, repo Repository, hooks *Hooks, capacity CapacityFunc, storable StorableFunc, log logging.Logger) *Service {
	return &Service{
		store:    store,
		repo:     repo,
		hooks:    hooks,
		capacity: capacity,
		storable: storable,
		log:      log.With("module", "warehouses"),
	}
}

// Hooks exposes the mutation hooks so the host can register vetoes.
func (s *Service) Hooks() *Hooks {
	return s.hooks
}

// Cached returns the resident ledger, if any. No I/O.
func (s *Service) Cached(owner uuid.UUID) (*Warehouse, bool) {
	obj, ok := s.store.Get(owner, Kind)
	if !ok {
		return nil, false
	}
	return obj.(*Warehouse), true
}

// Load returns the owner's ledger, reading it from the repository on a cache
// miss. Ledgers are cached without expiry; they live until the owner
// disconnects. An owner with no rows gets an empty resident ledger.
func (s *Service) Load(ctx context.Context, owner uuid.UUID) (*Warehouse, error) {
	if w, ok := s.Cached(owner); ok {
		return w, nil
	}
	obj, err := s.store.LoadAndCache(ctx, 0, func(ctx context.Context) (cache.Object, cache.SaveFunc, error) {
		w, err := s.repo.Get(ctx, owner)
		if err != nil {
			return nil, nil, fmt.Errorf("load warehouse %s: %w", owner, err)
		}
		save := func(ctx context.Context) error {
			return s.repo.Save(ctx, w)
		}
		return w, save, nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*Warehouse), nil
}

// Stock adds up to amount of the item type to the owner's ledger and returns
// the amount actually stocked. Stocking a non-storable type is a programming
// error.
func (s *Service) Stock(ctx context.Context, owner uuid.UUID, typ items.ItemType, amount int) (int, error) {
	if !s.storable(typ) {
		panic(fmt.Sprintf("warehouses: item type %q is not storable", typ))
	}
	w, err := s.Load(ctx, owner)
	if err != nil {
		return 0, err
	}
	stored := w.Stock(ctx, typ, amount, s.capacity(ctx, owner), s.hooks)
	if stored > 0 {
		s.log.Debug(ctx, "stocked items", "owner", owner, "type", typ, "amount", stored)
	}
	return stored, nil
}

// Destock withdraws up to amount of the item type from the owner's ledger.
func (s *Service) Destock(ctx context.Context, owner uuid.UUID, typ items.ItemType, amount int) (items.ItemStack, bool, error) {
	w, err := s.Load(ctx, owner)
	if err != nil {
		return items.ItemStack{}, false, err
	}
	stack, ok := w.Destock(ctx, typ, amount, s.hooks)
	if ok {
		s.log.Debug(ctx, "destocked items", "owner", owner, "type", typ, "amount", stack.Amount)
	}
	return stack, ok, nil
}

// AddCompartment registers an empty compartment for the type.
func (s *Service) AddCompartment(ctx context.Context, owner uuid.UUID, typ items.ItemType) (bool, error) {
	if !s.storable(typ) {
		panic(fmt.Sprintf("warehouses: item type %q is not storable", typ))
	}
	w, err := s.Load(ctx, owner)
	if err != nil {
		return false, err
	}
	return w.AddCompartment(ctx, typ, s.hooks), nil
}

// RemoveCompartment deletes an empty compartment from the owner's ledger.
func (s *Service) RemoveCompartment(ctx context.Context, owner uuid.UUID, typ items.ItemType) (RemoveResult, error) {
	w, err := s.Load(ctx, owner)
	if err != nil {
		return RemoveAbsent, err
	}
	return w.RemoveCompartment(ctx, typ, s.hooks), nil
}

// View returns the owner's compartments sorted by most recent update.
func (s *Service) View(ctx context.Context, owner uuid.UUID) ([]Stock, error) {
	w, err := s.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return w.View(), nil
}

// Evict persists and drops the owner's resident ledger.
func (s *Service) Evict(ctx context.Context, owner uuid.UUID) error {
	return s.store.Evict(ctx, owner, Kind)
}

// TotalQuantity reports the persisted item count across all owners.
func (s *Service) TotalQuantity(ctx context.Context) (int, error) {
	return s.repo.TotalQuantity(ctx)
}
