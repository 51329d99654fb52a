package vaults

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/cache"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/hook"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

const (
	// DefaultTTL is how long an untouched vault stays resident after a load.
	DefaultTTL = 10 * time.Minute
	// DefaultRefreshDelay spaces the view-refresh notification one game tick
	// behind the open that triggered it.
	DefaultRefreshDelay = 50 * time.Millisecond
)

// OpenRequest is the payload of the pre-open hook.
type OpenRequest struct {
	Key    Key
	Viewer uuid.UUID
	Vault  *Vault
}

// RenameRequest is the payload of the rename hook. Hooks may rewrite Name.
type RenameRequest struct {
	Vault *Vault
	Name  string
}

// IconRequest is the payload of the icon-change hook.
type IconRequest struct {
	Vault *Vault
	Icon  items.ItemType
}

// TrustRequest is the payload of the trust-list hook. Added distinguishes
// additions from removals.
type TrustRequest struct {
	Vault  *Vault
	Target uuid.UUID
	Added  bool
}

// Hooks bundles the vault extension points.
type Hooks struct {
	Open   *hook.Hooks[OpenRequest]
	Rename *hook.Hooks[RenameRequest]
	Icon   *hook.Hooks[IconRequest]
	Trust  *hook.Hooks[TrustRequest]
}

func NewHooks() *Hooks {
	return &Hooks{
		Open:   hook.New[OpenRequest](),
		Rename: hook.New[RenameRequest](),
		Icon:   hook.New[IconRequest](),
		Trust:  hook.New[TrustRequest](),
	}
}

// ElevatedFunc reports whether the viewer holds elevated (bypass) access.
type ElevatedFunc func(ctx context.Context, viewer uuid.UUID) bool

// AllowanceFunc yields how many vaults the owner may hold.
type AllowanceFunc func(ctx context.Context, owner uuid.UUID) int

// Notifier delivers best-effort view refreshes to elevated viewers whose
// session content changed underneath them. Failures are swallowed.
type Notifier interface {
	RefreshView(viewer uuid.UUID, key Key)
}

// Service coordinates vault access: cache residency with a TTL, viewer
// session tracking, the open/close exclusivity gate, and the edit operations.
type Service struct {
	store        *cache.Store
	repo         Repository
	hooks        *Hooks
	limits       Limits
	ttl          time.Duration
	refreshDelay time.Duration
	elevated     ElevatedFunc
	allowance    AllowanceFunc
	notifier     Notifier
	log          logging.Logger

	mu      sync.Mutex
	viewers map[Key]map[uuid.UUID]struct{}
}

// ServiceOption tweaks Service construction.
type ServiceOption func(*Service)

// WithTTL overrides the cache residency window.
func WithTTL(d time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = d }
}

// WithRefreshDelay overrides the notification delay. Tests only.
func WithRefreshDelay(d time.Duration) ServiceOption {
	return func(s *Service) { s.refreshDelay = d }
}

// WithElevated installs the bypass-access check.
func WithElevated(f ElevatedFunc) ServiceOption {
	return func(s *Service) { s.elevated = f }
}

// WithAllowance installs the per-owner vault allowance.
func WithAllowance(f AllowanceFunc) ServiceOption {
	return func(s *Service) { s.allowance = f }
}

// WithNotifier installs the view-refresh sink.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func NewService(store *cache.Store, repo Repository, hooks *Hooks, limits Limits, log logging.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:        store,
		repo:         repo,
		hooks:        hooks,
		limits:       limits,
		ttl:          DefaultTTL,
		refreshDelay: DefaultRefreshDelay,
		elevated:     func(ctx context.Context, viewer uuid.UUID) bool { return false },
		allowance:    func(ctx context.Context, owner uuid.UUID) int { return 1 },
		log:          log.With("module", "vaults"),
		viewers:      make(map[Key]map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hooks exposes the extension points so the host can register vetoes.
func (s *Service) Hooks() *Hooks {
	return s.hooks
}

func (s *Service) resourceKey(key Key) cache.ResourceKey {
	return cache.ResourceKey{Owner: key.Owner, ID: key.ID}
}

// load returns the vault through the cache, reading the row on a miss. The
// entry carries the service TTL; repeat loads refresh it. Absent vaults yield
// (nil, nil).
func (s *Service) load(ctx context.Context, key Key) (*Vault, error) {
	obj, err := s.store.LoadAndCache(ctx, s.ttl, func(ctx context.Context) (cache.Object, cache.SaveFunc, error) {
		v, err := s.repo.Get(ctx, key)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("load vault %s: %w", key, err)
		}
		save := func(ctx context.Context) error {
			return s.repo.Save(ctx, v)
		}
		return v, save, nil
	})
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*Vault), nil
}

// Get returns the vault for the key. With createIfAbsent a missing vault is
// created, persisted and cached, subject to the owner's allowance; without it
// a missing vault yields ErrorNotFound.
func (s *Service) Get(ctx context.Context, key Key, createIfAbsent bool) (*Vault, error) {
	v, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}
	if !createIfAbsent {
		return nil, common.ErrorNotFound
	}

	n, err := s.repo.Count(ctx, key.Owner)
	if err != nil {
		return nil, fmt.Errorf("create vault %s: %w", key, err)
	}
	if key.ID > s.allowance(ctx, key.Owner) || n >= s.allowance(ctx, key.Owner) {
		return nil, common.ErrLimitReached
	}

	v = New(key, s.limits)
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("create vault %s: %w", key, err)
	}
	s.log.Info(ctx, "created vault", "key", key.String())
	return s.load(ctx, key)
}

// GetByName resolves one of the owner's vaults by its display name.
func (s *Service) GetByName(ctx context.Context, owner uuid.UUID, name string) (*Vault, error) {
	return s.repo.GetByName(ctx, owner, name)
}

// Open starts a viewing session. The open is denied while a save is in
// flight for the key, and while the current viewer set requires exclusivity:
// a non-empty set admits only an elevated requester, or anyone when every
// current viewer is elevated and none is the owner. The pre-open hook may
// veto. Every denial surfaces as ErrAlreadyOpen regardless of the reason.
func (s *Service) Open(ctx context.Context, viewer uuid.UUID, key Key) (*Vault, error) {
	if s.store.Locked(s.resourceKey(key)) {
		return nil, common.ErrAlreadyOpen
	}

	s.mu.Lock()
	prior := make([]uuid.UUID, 0, len(s.viewers[key]))
	for id := range s.viewers[key] {
		prior = append(prior, id)
	}
	s.mu.Unlock()

	if !s.admits(ctx, viewer, key, prior) {
		return nil, common.ErrAlreadyOpen
	}

	v, err := s.Get(ctx, key, true)
	if err != nil {
		return nil, err
	}

	req := OpenRequest{Key: key, Viewer: viewer, Vault: v}
	if !s.hooks.Open.Run(ctx, &req) {
		return nil, common.ErrAlreadyOpen
	}

	s.mu.Lock()
	if s.viewers[key] == nil {
		s.viewers[key] = make(map[uuid.UUID]struct{})
	}
	s.viewers[key][viewer] = struct{}{}
	s.mu.Unlock()

	s.notifyPrior(ctx, key, prior)
	s.log.Debug(ctx, "opened vault", "key", key.String(), "viewer", viewer)
	return v, nil
}

func (s *Service) admits(ctx context.Context, viewer uuid.UUID, key Key, prior []uuid.UUID) bool {
	if len(prior) == 0 {
		return true
	}
	if s.elevated(ctx, viewer) {
		return true
	}
	for _, id := range prior {
		if id == key.Owner || !s.elevated(ctx, id) {
			return false
		}
	}
	return true
}

// notifyPrior schedules a one-tick delayed refresh when exactly one elevated
// viewer was already inside; their view just gained company.
func (s *Service) notifyPrior(ctx context.Context, key Key, prior []uuid.UUID) {
	if s.notifier == nil || len(prior) != 1 {
		return
	}
	other := prior[0]
	if other == key.Owner || !s.elevated(ctx, other) {
		return
	}
	time.AfterFunc(s.refreshDelay, func() {
		s.notifier.RefreshView(other, key)
	})
}

// Close ends a viewing session: the viewer is unregistered, the resource is
// locked so no open can start mid-save, the vault is persisted, and the lock
// released. Runs the same way for the owner and for trusted viewers.
func (s *Service) Close(ctx context.Context, viewer uuid.UUID, key Key) error {
	s.mu.Lock()
	if set, ok := s.viewers[key]; ok {
		delete(set, viewer)
		if len(set) == 0 {
			delete(s.viewers, key)
		}
	}
	s.mu.Unlock()

	obj, ok := s.store.Get(key.Owner, CacheKind(key.ID))
	if !ok {
		return nil
	}
	v := obj.(*Vault)

	rk := s.resourceKey(key)
	s.store.Lock(rk)
	defer s.store.Unlock(rk)

	if err := s.repo.Save(ctx, v); err != nil {
		return fmt.Errorf("close vault %s: %w", key, err)
	}
	s.log.Debug(ctx, "closed vault", "key", key.String(), "viewer", viewer)
	return nil
}

// Viewers returns the ids currently inside the vault.
func (s *Service) Viewers(key Key) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(s.viewers[key]))
	for id := range s.viewers[key] {
		out = append(out, id)
	}
	return out
}

// Rename changes a vault's display name and persists immediately. No open
// session required.
func (s *Service) Rename(ctx context.Context, key Key, name string) (bool, error) {
	v, err := s.Get(ctx, key, false)
	if err != nil {
		return false, err
	}
	req := RenameRequest{Vault: v, Name: name}
	if !s.hooks.Rename.Run(ctx, &req) {
		return false, nil
	}
	if !v.Rename(req.Name) {
		return false, nil
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return false, fmt.Errorf("rename vault %s: %w", key, err)
	}
	return true, nil
}

// SetIcon changes a vault's icon and persists immediately.
func (s *Service) SetIcon(ctx context.Context, key Key, icon items.ItemType) (bool, error) {
	v, err := s.Get(ctx, key, false)
	if err != nil {
		return false, err
	}
	req := IconRequest{Vault: v, Icon: icon}
	if !s.hooks.Icon.Run(ctx, &req) {
		return false, nil
	}
	if !v.SetIcon(req.Icon) {
		return false, nil
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return false, fmt.Errorf("set vault icon %s: %w", key, err)
	}
	return true, nil
}

// Trust adds a viewer to the vault's trusted list and persists immediately.
func (s *Service) Trust(ctx context.Context, key Key, target uuid.UUID) (bool, error) {
	v, err := s.Get(ctx, key, false)
	if err != nil {
		return false, err
	}
	req := TrustRequest{Vault: v, Target: target, Added: true}
	if !s.hooks.Trust.Run(ctx, &req) {
		return false, nil
	}
	if !v.Trust(req.Target) {
		return false, nil
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return false, fmt.Errorf("trust on vault %s: %w", key, err)
	}
	return true, nil
}

// Untrust removes a viewer from the trusted list and persists immediately.
func (s *Service) Untrust(ctx context.Context, key Key, target uuid.UUID) (bool, error) {
	v, err := s.Get(ctx, key, false)
	if err != nil {
		return false, err
	}
	req := TrustRequest{Vault: v, Target: target, Added: false}
	if !s.hooks.Trust.Run(ctx, &req) {
		return false, nil
	}
	if !v.Untrust(req.Target) {
		return false, nil
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return false, fmt.Errorf("untrust on vault %s: %w", key, err)
	}
	return true, nil
}

// Transfer copies the vault to the recipient's next free number and deletes
// the source. Admin operation.
func (s *Service) Transfer(ctx context.Context, key Key, to uuid.UUID) (Key, error) {
	src, err := s.Get(ctx, key, false)
	if err != nil {
		return Key{}, err
	}

	existing, err := s.repo.List(ctx, to)
	if err != nil {
		return Key{}, fmt.Errorf("transfer vault %s: %w", key, err)
	}
	nextID := 1
	for _, snap := range existing {
		if snap.Key.ID >= nextID {
			nextID = snap.Key.ID + 1
		}
	}

	dst := New(NewKey(to, nextID), s.limits)
	dst.Rename(src.Name())
	dst.SetIcon(src.Icon())
	dst.SetSlots(src.Slots())
	for _, t := range src.Trusted() {
		dst.Trust(t)
	}
	if err := s.repo.Save(ctx, dst); err != nil {
		return Key{}, fmt.Errorf("transfer vault %s: %w", key, err)
	}
	if err := s.Delete(ctx, key); err != nil {
		return Key{}, fmt.Errorf("transfer vault %s: %w", key, err)
	}
	s.log.Info(ctx, "transferred vault", "from", key.String(), "to", dst.Key().String())
	return dst.Key(), nil
}

// Delete removes the vault, evicting any resident copy first so the sweep
// cannot resurrect the row. Admin operation.
func (s *Service) Delete(ctx context.Context, key Key) error {
	if err := s.store.Evict(ctx, key.Owner, CacheKind(key.ID)); err != nil {
		s.log.Error(ctx, "evict before delete failed", "key", key.String(), "error", err)
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.log.Info(ctx, "deleted vault", "key", key.String())
	return nil
}

// DeleteAll removes every vault of the owner and reports how many rows went.
// Admin operation.
func (s *Service) DeleteAll(ctx context.Context, owner uuid.UUID) (int, error) {
	snaps, err := s.repo.List(ctx, owner)
	if err != nil {
		return 0, err
	}
	for _, snap := range snaps {
		if err := s.store.Evict(ctx, owner, CacheKind(snap.Key.ID)); err != nil {
			s.log.Error(ctx, "evict before delete failed", "key", snap.Key.String(), "error", err)
		}
	}
	n, err := s.repo.DeleteAll(ctx, owner)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "deleted all vaults", "owner", owner, "count", n)
	return n, nil
}

// List returns listing snapshots of the owner's vaults.
func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]Snapshot, error) {
	return s.repo.List(ctx, owner)
}

// Names returns the owner's vault display names.
func (s *Service) Names(ctx context.Context, owner uuid.UUID) ([]string, error) {
	return s.repo.Names(ctx, owner)
}

// All returns snapshots of every vault, for exports.
func (s *Service) All(ctx context.Context) ([]Snapshot, error) {
	return s.repo.All(ctx)
}

// TotalCount reports the persisted vault count across all owners.
func (s *Service) TotalCount(ctx context.Context) (int, error) {
	return s.repo.TotalCount(ctx)
}
