package players

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/cache"
)

// Grants resolves permission-backed allowances for a player. Offline players
// have no grants; implementations return 0 for them.
type Grants interface {
	VaultGrant(ctx context.Context, id uuid.UUID) int
	StockGrant(ctx context.Context, id uuid.UUID) int
}

// NoGrants is the zero resolver for hosts without a permission system.
type NoGrants struct{}

func (NoGrants) VaultGrant(ctx context.Context, id uuid.UUID) int { return 0 }
func (NoGrants) StockGrant(ctx context.Context, id uuid.UUID) int { return 0 }

// Service owns player settings residency and the allowance arithmetic. A
// connected player's settings live in the cache without expiry; disconnect
// flushes and drops them.
type Service struct {
	store      *cache.Store
	repo       Repository
	grants     Grants
	baseVaults int
	baseStock  int
	log        logging.Logger
}

func NewService(store *cache.Store, repo Repository, grants Grants, baseVaults, baseStock int, log logging.Logger) *Service {
	return &Service{
		store:      store,
		repo:       repo,
		grants:     grants,
		baseVaults: baseVaults,
		baseStock:  baseStock,
		log:        log.With("module", "players"),
	}
}

// Cached returns the resident settings, if any. No I/O.
func (s *Service) Cached(id uuid.UUID) (*Player, bool) {
	obj, ok := s.store.Get(id, Kind)
	if !ok {
		return nil, false
	}
	return obj.(*Player), true
}

// Get returns the player's settings, loading and caching them on a miss.
// Settings are cached without expiry; they live until disconnect.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Player, error) {
	if p, ok := s.Cached(id); ok {
		return p, nil
	}
	obj, err := s.store.LoadAndCache(ctx, 0, func(ctx context.Context) (cache.Object, cache.SaveFunc, error) {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("load player %s: %w", id, err)
		}
		save := func(ctx context.Context) error {
			return s.repo.Save(ctx, p)
		}
		return p, save, nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*Player), nil
}

// SetMode updates the warehouse automation mode and persists immediately.
func (s *Service) SetMode(ctx context.Context, id uuid.UUID, mode Mode) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Mode = mode
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("set mode for %s: %w", id, err)
	}
	return nil
}

// SetQuickReturnClick updates the quick-return binding and persists
// immediately.
func (s *Service) SetQuickReturnClick(ctx context.Context, id uuid.UUID, click ClickType) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.QuickReturnClick = click
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("set quick-return click for %s: %w", id, err)
	}
	return nil
}

// GrantExtraVaults adjusts the admin-granted vault allowance and persists
// immediately.
func (s *Service) GrantExtraVaults(ctx context.Context, id uuid.UUID, n int) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.MaxExtraVaults = n
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("grant extra vaults for %s: %w", id, err)
	}
	return nil
}

// GrantExtraStock adjusts the admin-granted stock allowance and persists
// immediately.
func (s *Service) GrantExtraStock(ctx context.Context, id uuid.UUID, n int) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.MaxExtraStock = n
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("grant extra stock for %s: %w", id, err)
	}
	return nil
}

// VaultAllowance computes how many vaults the player may hold: permission
// grant plus the extra column, never below the config base.
func (s *Service) VaultAllowance(ctx context.Context, id uuid.UUID) int {
	p, err := s.Get(ctx, id)
	if err != nil {
		s.log.Error(ctx, "vault allowance fell back to base", "player", id, "error", err)
		return s.baseVaults
	}
	allowance := s.grants.VaultGrant(ctx, id) + p.MaxExtraVaults
	if allowance < s.baseVaults {
		return s.baseVaults
	}
	return allowance
}

// StockCapacity computes the player's warehouse capacity the same way.
func (s *Service) StockCapacity(ctx context.Context, id uuid.UUID) int {
	p, err := s.Get(ctx, id)
	if err != nil {
		s.log.Error(ctx, "stock capacity fell back to base", "player", id, "error", err)
		return s.baseStock
	}
	capacity := s.grants.StockGrant(ctx, id) + p.MaxExtraStock
	if capacity < s.baseStock {
		return s.baseStock
	}
	return capacity
}

// HandleConnect warms the settings cache when the player joins.
func (s *Service) HandleConnect(ctx context.Context, id uuid.UUID) error {
	_, err := s.Get(ctx, id)
	return err
}

// HandleDisconnect flushes and drops the settings when the player leaves.
func (s *Service) HandleDisconnect(ctx context.Context, id uuid.UUID) error {
	return s.store.Evict(ctx, id, Kind)
}
