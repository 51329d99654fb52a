// Package presence tracks which players are connected and fans the
// connect/disconnect transitions out to interested components.
package presence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

// Handler reacts to a player joining or leaving. Errors are logged by the
// tracker; they do not stop other handlers.
type Handler interface {
	HandleConnect(ctx context.Context, id uuid.UUID) error
	HandleDisconnect(ctx context.Context, id uuid.UUID) error
}

// Tracker is the in-memory online set. It feeds the cache's eviction
// override and drives per-player warm-up and flush through its handlers.
type Tracker struct {
	log logging.Logger

	mu       sync.RWMutex
	online   map[uuid.UUID]struct{}
	handlers []Handler
}

func NewTracker(log logging.Logger) *Tracker {
	return &Tracker{
		log:    log.With("module", "presence"),
		online: make(map[uuid.UUID]struct{}),
	}
}

// Subscribe registers a handler. Not safe to call concurrently with
// Connect/Disconnect; wire everything up before the server accepts players.
func (t *Tracker) Subscribe(h Handler) {
	t.handlers = append(t.handlers, h)
}

// Connect marks the player online and notifies handlers in order.
func (t *Tracker) Connect(ctx context.Context, id uuid.UUID) {
	t.mu.Lock()
	t.online[id] = struct{}{}
	t.mu.Unlock()

	for _, h := range t.handlers {
		if err := h.HandleConnect(ctx, id); err != nil {
			t.log.Error(ctx, "connect handler failed", "player", id, "error", err)
		}
	}
	t.log.Debug(ctx, "player connected", "player", id)
}

// Disconnect marks the player offline and notifies handlers in order.
func (t *Tracker) Disconnect(ctx context.Context, id uuid.UUID) {
	t.mu.Lock()
	delete(t.online, id)
	t.mu.Unlock()

	for _, h := range t.handlers {
		if err := h.HandleDisconnect(ctx, id); err != nil {
			t.log.Error(ctx, "disconnect handler failed", "player", id, "error", err)
		}
	}
	t.log.Debug(ctx, "player disconnected", "player", id)
}

// Online reports whether the player is connected.
func (t *Tracker) Online(id uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[id]
	return ok
}

// Count returns the number of connected players.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.online)
}
