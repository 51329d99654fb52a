// Package cache implements the process-wide object cache and resource-lock
// coordinator. It holds every hot domain object keyed by (owner, kind), runs
// a periodic sweep that flushes resident entries and evicts expired ones, and
// exposes the advisory lock map used to serialize vault open sessions against
// in-flight saves.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

const (
	// DefaultSweepInterval is how often the sweep wakes up.
	DefaultSweepInterval = 2 * time.Second
	// DefaultSaveInterval is how much sweep time must elapse before every
	// resident entry is flushed, dirty or not.
	DefaultSaveInterval = 60 * time.Second
)

// Object is a domain aggregate that can live in the cache. The cache entry,
// not the object, owns the expiry timestamp and the save hook, so aggregates
// stay persistence-ignorant.
type Object interface {
	Owner() uuid.UUID
	Kind() string
}

// SaveFunc persists the object it was registered with.
type SaveFunc func(ctx context.Context) error

// Loader produces an object and its save hook, typically by querying a
// repository. Returning a nil Object means "absent"; nothing is cached.
type Loader func(ctx context.Context) (Object, SaveFunc, error)

// PresenceFunc reports whether the owner is still connected. Expired entries
// whose owner is present are retained until the owner leaves.
type PresenceFunc func(owner uuid.UUID) bool

// ResourceKey identifies a lockable resource: one numbered container of one
// owner.
type ResourceKey struct {
	Owner uuid.UUID
	ID    int
}

func (k ResourceKey) String() string {
	return fmt.Sprintf("%s#%d", k.Owner, k.ID)
}

// Pool is the slice of the persistence driver the store needs at teardown.
type Pool interface {
	Close() error
}

// State describes how far teardown has progressed, for lifecycle assertions.
type State int

const (
	// StateOpen: sweeper running, pool open.
	StateOpen State = iota
	// StatePartiallyClosed: teardown started but did not finish; this is a
	// lifecycle bug in the host.
	StatePartiallyClosed
	// StateClosed: flushed, sweeper stopped, pool released.
	StateClosed
)

type key struct {
	owner uuid.UUID
	kind  string
}

type entry struct {
	obj    Object
	save   SaveFunc
	expiry *time.Time // nil = never swept
}

// Store is the cache & lock coordinator. Construct with New, launch the
// sweep with Start, and release everything with Close exactly once.
type Store struct {
	log      logging.Logger
	pool     Pool
	sweepDur time.Duration
	saveDur  time.Duration
	presence PresenceFunc
	now      func() time.Time

	mu      sync.Mutex
	entries map[key]*entry
	locks   map[ResourceKey]struct{}
	closed  bool

	started    bool
	stop       chan struct{}
	sweeperEnd chan struct{}
	saves      sync.WaitGroup

	poolClosed bool
}

// Option tweaks Store construction.
type Option func(*Store)

// WithSweepInterval overrides the sweep wake-up period.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepDur = d }
}

// WithSaveInterval overrides the periodic full-flush period.
func WithSaveInterval(d time.Duration) Option {
	return func(s *Store) { s.saveDur = d }
}

// WithPresence installs the online-owner override consulted before evicting
// expired entries.
func WithPresence(p PresenceFunc) Option {
	return func(s *Store) { s.presence = p }
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a Store over the given connection pool. The pool stays open
// until Close.
func New(pool Pool, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		log:        log.With("module", "cache"),
		pool:       pool,
		sweepDur:   DefaultSweepInterval,
		saveDur:    DefaultSaveInterval,
		now:        time.Now,
		entries:    make(map[key]*entry),
		locks:      make(map[ResourceKey]struct{}),
		stop:       make(chan struct{}),
		sweeperEnd: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background sweep. Calling it twice is a no-op.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	go s.sweeper(ctx)
}

// Get returns the resident object for (owner, kind), if any. It never
// triggers I/O and never refreshes the TTL.
func (s *Store) Get(owner uuid.UUID, kind string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key{owner, kind}]
	if !ok {
		return nil, false
	}
	return e.obj, true
}

// LoadAndCache runs the loader and caches its result. If an entry for the
// same (owner, kind) already exists the freshly loaded object is discarded,
// the existing entry's TTL is refreshed (when ttl > 0) and the resident
// object is returned: at most one instance per key, always. A ttl of zero
// stamps no expiry; the entry is never swept and must be evicted explicitly.
func (s *Store) LoadAndCache(ctx context.Context, ttl time.Duration, load Loader) (Object, error) {
	obj, save, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, common.ErrClosed
	}

	k := key{obj.Owner(), obj.Kind()}
	if e, ok := s.entries[k]; ok {
		if ttl > 0 {
			exp := s.now().Add(ttl)
			e.expiry = &exp
			s.log.Debug(ctx, "refreshed cached object expiry", "kind", k.kind, "owner", k.owner, "expiry", exp)
		}
		return e.obj, nil
	}

	e := &entry{obj: obj, save: save}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		e.expiry = &exp
	}
	s.entries[k] = e
	s.log.Debug(ctx, "cached object", "kind", k.kind, "owner", k.owner)
	return obj, nil
}

// Evict saves the entry and removes it from the cache. Absent keys are a
// no-op. The entry is removed even when the save fails; the error is
// returned so the caller can report it.
func (s *Store) Evict(ctx context.Context, owner uuid.UUID, kind string) error {
	k := key{owner, kind}
	s.mu.Lock()
	e, ok := s.entries[k]
	if ok {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	s.log.Debug(ctx, "evicting object", "kind", kind, "owner", owner)
	if err := e.save(ctx); err != nil {
		return fmt.Errorf("evict %s/%s: %w", kind, owner, err)
	}
	return nil
}

// Size returns the number of resident entries.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Lock marks the resource as having a save in flight. New open sessions for
// the key must not begin until Unlock. The gate is advisory: it does not
// block goroutines, callers consult Locked before opening.
func (s *Store) Lock(k ResourceKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[k] = struct{}{}
}

// Unlock releases the advisory lock for the key.
func (s *Store) Unlock(k ResourceKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, k)
}

// Locked reports whether a save is in flight for the key.
func (s *Store) Locked(k ResourceKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locks[k]
	return ok
}

func (s *Store) sweeper(ctx context.Context) {
	defer close(s.sweeperEnd)
	ticker := time.NewTicker(s.sweepDur)
	defer ticker.Stop()

	var sinceFlush time.Duration
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			sinceFlush += s.sweepDur
			flush := sinceFlush >= s.saveDur
			if flush {
				sinceFlush = 0
			}
			s.runCycle(ctx, flush)
		}
	}
}

// runCycle persists every resident entry when flush is set, and persists and
// removes expired entries regardless. Each save runs on its own goroutine so
// one hung owner cannot stall the others; a failed save leaves the entry
// resident for the next cycle.
func (s *Store) runCycle(ctx context.Context, flush bool) {
	now := s.now()

	type pending struct {
		k       key
		e       *entry
		expired bool
	}

	s.mu.Lock()
	work := make([]pending, 0, len(s.entries))
	for k, e := range s.entries {
		expired := e.expiry != nil && e.expiry.Before(now)
		if expired && s.presence != nil && s.presence(k.owner) {
			expired = false
		}
		if !flush && !expired {
			continue
		}
		work = append(work, pending{k: k, e: e, expired: expired})
	}
	s.mu.Unlock()

	for _, w := range work {
		s.saves.Add(1)
		go func(w pending) {
			defer s.saves.Done()
			if err := w.e.save(ctx); err != nil {
				s.log.Error(ctx, "sweep save failed", "kind", w.k.kind, "owner", w.k.owner, "error", err)
				return
			}
			if !w.expired {
				return
			}
			s.mu.Lock()
			if cur, ok := s.entries[w.k]; ok && cur == w.e {
				delete(s.entries, w.k)
			}
			s.mu.Unlock()
			s.log.Debug(ctx, "swept expired object", "kind", w.k.kind, "owner", w.k.owner)
		}(w)
	}
}

// Close flushes every resident entry, stops the sweeper, and releases the
// connection pool. Any failed save aborts the teardown and propagates its
// error; the pool is then left open and the Store is unusable. A second call
// reports ErrClosed.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return common.ErrClosed
	}
	s.closed = true
	started := s.started
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	close(s.stop)
	if started {
		<-s.sweeperEnd
	}
	s.saves.Wait()

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		g.Go(func() error {
			return e.save(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("teardown flush: %w", err)
	}

	s.mu.Lock()
	s.entries = make(map[key]*entry)
	s.mu.Unlock()

	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("close pool: %w", err)
	}
	s.mu.Lock()
	s.poolClosed = true
	s.mu.Unlock()

	s.log.Info(ctx, "cache store closed")
	return nil
}

// State inspects teardown progress: StateClosed only when the flush
// succeeded and the pool was released, StatePartiallyClosed when teardown
// began but did not complete.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed && s.poolClosed:
		return StateClosed
	case s.closed || s.poolClosed:
		return StatePartiallyClosed
	default:
		return StateOpen
	}
}
