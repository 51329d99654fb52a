// Package hook implements the cancellable extension points consulted before
// mutating operations commit. A hook set is an ordered list of callbacks;
// each callback may mutate the payload and/or veto the operation. Run invokes
// callbacks in registration order and short-circuits on the first veto.
package hook

import (
	"context"
	"sync"
)

// Func inspects and optionally mutates the payload. Returning false vetoes
// the operation; later hooks are not consulted.
type Func[T any] func(ctx context.Context, payload *T) bool

// Hooks is a set of cancellable callbacks sharing one payload type.
// The zero value is usable: Run approves everything.
type Hooks[T any] struct {
	mu  sync.RWMutex
	fns []Func[T]
}

// New returns an empty hook set.
func New[T any]() *Hooks[T] {
	return &Hooks[T]{}
}

// Register appends f to the invocation order.
func (h *Hooks[T]) Register(f Func[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, f)
}

// Run invokes every registered hook in order with the same payload pointer.
// It returns false as soon as any hook vetoes; payload mutations made before
// the veto remain visible to the caller.
func (h *Hooks[T]) Run(ctx context.Context, payload *T) bool {
	if h == nil {
		return true
	}
	h.mu.RLock()
	fns := h.fns
	h.mu.RUnlock()

	for _, f := range fns {
		if !f(ctx, payload) {
			return false
		}
	}
	return true
}
