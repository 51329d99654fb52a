// Package warehouses implements the per-player stock ledger: a
// capacity-bounded map from item type to quantity, mutated through
// cancellable hooks and reconciled row-by-row on save.
package warehouses

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/hook"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

// Kind is the cache type tag for warehouses.
const Kind = "warehouse"

// Stock is one compartment: the running quantity of a single item type.
type Stock struct {
	Type       items.ItemType
	Quantity   int
	LastUpdate int64 // unix milliseconds of the last quantity change
}

func newStock(t items.ItemType, quantity int) *Stock {
	return &Stock{Type: t, Quantity: quantity, LastUpdate: time.Now().UnixMilli()}
}

func (s *Stock) increase(n int) {
	s.Quantity += n
	s.LastUpdate = time.Now().UnixMilli()
}

func (s *Stock) decrease(n int) {
	s.Quantity -= n
	s.LastUpdate = time.Now().UnixMilli()
}

// StockRequest is the payload of the pre-stock hook. Amount arrives already
// clamped to the remaining capacity; hooks may shrink it further or veto.
type StockRequest struct {
	Warehouse *Warehouse
	Type      items.ItemType
	Amount    int
}

// DestockRequest is the payload of the pre-destock hook. Amount is seeded
// with the compartment's current quantity; hooks may shrink it or veto.
type DestockRequest struct {
	Warehouse *Warehouse
	Type      items.ItemType
	Amount    int
}

// CompartmentAction tags a compartment lifecycle change.
type CompartmentAction int

const (
	CompartmentAdd CompartmentAction = iota
	CompartmentRemove
)

// CompartmentChange is the payload of the compartment lifecycle hook.
type CompartmentChange struct {
	Warehouse *Warehouse
	Action    CompartmentAction
	Type      items.ItemType
}

// Hooks bundles the cancellable extension points consulted by ledger
// mutations. The zero-value-free constructor NewHooks returns a set that
// approves everything until callers register vetoes.
type Hooks struct {
	Stock       *hook.Hooks[StockRequest]
	Destock     *hook.Hooks[DestockRequest]
	Compartment *hook.Hooks[CompartmentChange]
}

func NewHooks() *Hooks {
	return &Hooks{
		Stock:       hook.New[StockRequest](),
		Destock:     hook.New[DestockRequest](),
		Compartment: hook.New[CompartmentChange](),
	}
}

// RemoveResult is the tri-state outcome of RemoveCompartment.
type RemoveResult int

const (
	// RemoveAbsent: no compartment exists for the type.
	RemoveAbsent RemoveResult = iota
	// RemoveBlocked: the compartment still holds stock, or a hook vetoed.
	RemoveBlocked
	// Removed: the empty compartment was deleted.
	Removed
)

// Warehouse is the in-memory stock ledger of one owner. All mutation must
// happen on the owner's coordinating goroutine; no internal locking.
type Warehouse struct {
	owner uuid.UUID
	stock map[items.ItemType]*Stock
}

// New returns an empty ledger for the owner.
func New(owner uuid.UUID) *Warehouse {
	return &Warehouse{owner: owner, stock: make(map[items.ItemType]*Stock)}
}

// Hydrate rebuilds a ledger from persisted compartment rows.
func Hydrate(owner uuid.UUID, stocks []Stock) *Warehouse {
	w := New(owner)
	for _, s := range stocks {
		s := s
		w.stock[s.Type] = &s
	}
	return w
}

// Owner implements cache.Object.
func (w *Warehouse) Owner() uuid.UUID {
	return w.owner
}

// Kind implements cache.Object.
func (w *Warehouse) Kind() string {
	return Kind
}

// Stock adds up to amount of the item type, never exceeding capacity.
// The requested amount is first clamped to the remaining capacity, then
// offered to the pre-stock hook, which may shrink it further or veto. When
// no compartment exists yet, the compartment hook must also approve: the
// two stages are independent, and a compartment veto stocks nothing even
// after the amount passed. Returns the amount actually stocked, possibly 0.
//
// Passing a non-storable type is a programming error; callers pre-validate.
func (w *Warehouse) Stock(ctx context.Context, typ items.ItemType, amount, capacity int, hooks *Hooks) int {
	if !typ.Valid() {
		panic(fmt.Sprintf("warehouses: cannot stock invalid item type %q", typ))
	}

	if remaining := capacity - w.TotalQuantity(); amount > remaining {
		amount = remaining
	}

	req := StockRequest{Warehouse: w, Type: typ, Amount: amount}
	if !hooks.Stock.Run(ctx, &req) {
		return 0
	}
	typ, amount = req.Type, req.Amount
	if amount < 1 {
		return 0
	}

	if st, ok := w.stock[typ]; ok {
		st.increase(amount)
		return amount
	}

	change := CompartmentChange{Warehouse: w, Action: CompartmentAdd, Type: typ}
	if !hooks.Compartment.Run(ctx, &change) {
		return 0
	}
	w.stock[change.Type] = newStock(change.Type, amount)
	return amount
}

// Destock withdraws up to amount of the item type. The pre-destock hook is
// seeded with the compartment's current quantity and may veto or shrink the
// allowance; the final amount is min(requested, allowed). Anything below 1
// yields no result. The withdrawn quantity is returned as a stack
// descriptor.
func (w *Warehouse) Destock(ctx context.Context, typ items.ItemType, amount int, hooks *Hooks) (items.ItemStack, bool) {
	st, ok := w.stock[typ]
	if !ok {
		return items.ItemStack{}, false
	}
	if st.Quantity < 1 {
		return items.ItemStack{}, false
	}

	req := DestockRequest{Warehouse: w, Type: typ, Amount: st.Quantity}
	if !hooks.Destock.Run(ctx, &req) {
		return items.ItemStack{}, false
	}
	if req.Amount < amount {
		amount = req.Amount
	}
	if amount < 1 {
		return items.ItemStack{}, false
	}

	st.decrease(amount)
	return items.Of(typ, amount), true
}

// AddCompartment creates an explicit zero-quantity compartment, gated by the
// compartment hook. Returns false when the compartment already exists or the
// hook vetoes.
func (w *Warehouse) AddCompartment(ctx context.Context, typ items.ItemType, hooks *Hooks) bool {
	if !typ.Valid() {
		panic(fmt.Sprintf("warehouses: cannot add compartment for invalid item type %q", typ))
	}
	if _, ok := w.stock[typ]; ok {
		return false
	}
	change := CompartmentChange{Warehouse: w, Action: CompartmentAdd, Type: typ}
	if !hooks.Compartment.Run(ctx, &change) {
		return false
	}
	w.stock[change.Type] = newStock(change.Type, 0)
	return true
}

// RemoveCompartment deletes an empty compartment. A compartment holding
// stock, or a hook veto, blocks the removal; quantities are never touched.
func (w *Warehouse) RemoveCompartment(ctx context.Context, typ items.ItemType, hooks *Hooks) RemoveResult {
	st, ok := w.stock[typ]
	if !ok {
		return RemoveAbsent
	}
	if st.Quantity > 0 {
		return RemoveBlocked
	}

	change := CompartmentChange{Warehouse: w, Action: CompartmentRemove, Type: typ}
	if !hooks.Compartment.Run(ctx, &change) {
		return RemoveBlocked
	}
	delete(w.stock, typ)
	return Removed
}

// Has reports whether a compartment exists for the type.
func (w *Warehouse) Has(typ items.ItemType) bool {
	_, ok := w.stock[typ]
	return ok
}

// Quantity returns the stored quantity of the type, 0 when absent.
func (w *Warehouse) Quantity(typ items.ItemType) int {
	if st, ok := w.stock[typ]; ok {
		return st.Quantity
	}
	return 0
}

// TotalQuantity sums every compartment.
func (w *Warehouse) TotalQuantity() int {
	total := 0
	for _, st := range w.stock {
		total += st.Quantity
	}
	return total
}

// Types lists the stored item types in no particular order.
func (w *Warehouse) Types() []items.ItemType {
	out := make([]items.ItemType, 0, len(w.stock))
	for t := range w.stock {
		out = append(out, t)
	}
	return out
}

// Stocks returns a copy of every compartment, for persistence snapshots.
// The sweep reads these copies; it never touches the live map.
func (w *Warehouse) Stocks() []Stock {
	out := make([]Stock, 0, len(w.stock))
	for _, st := range w.stock {
		out = append(out, *st)
	}
	return out
}

// View returns a display projection: compartment copies sorted by most
// recently updated first.
func (w *Warehouse) View() []Stock {
	out := w.Stocks()
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdate > out[j].LastUpdate
	})
	return out
}
