package warehouses

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/players"
)

// Trigger tags the inventory event a mode handler reacts to.
type Trigger int

const (
	// TriggerPickup: items entered the owner's inventory.
	TriggerPickup Trigger = iota
	// TriggerDeposit: the owner explicitly deposited via the ledger view.
	TriggerDeposit
	// TriggerConsume: the owner's inventory ran out of the type.
	TriggerConsume
)

// Request is one inventory event offered to the owner's mode handler.
type Request struct {
	Owner   uuid.UUID
	Type    items.ItemType
	Amount  int
	Trigger Trigger
}

// Result reports what the handler moved. Stored is the amount taken into the
// ledger; Withdrawn holds what came back out.
type Result struct {
	Stored    int
	Withdrawn items.ItemStack
}

// ModeHandler reacts to inventory events for one automation mode. Handlers
// move items only through the ordinary Stock and Destock paths, so every hook
// and capacity rule still applies.
type ModeHandler interface {
	Handle(ctx context.Context, req Request) (Result, error)
}

// ModeSource yields the automation mode an owner selected.
type ModeSource func(ctx context.Context, owner uuid.UUID) (players.Mode, error)

// Dispatcher routes inventory events to the handler registered for the
// owner's mode. Unknown modes fall through to the no-op handler.
type Dispatcher struct {
	modeOf   ModeSource
	handlers map[players.Mode]ModeHandler
}

func NewDispatcher(svc *Service, modeOf ModeSource) *Dispatcher {
	return &Dispatcher{
		modeOf: modeOf,
		handlers: map[players.Mode]ModeHandler{
			players.ModeNone:           noneHandler{},
			players.ModeAutoStore:      autoStoreHandler{svc: svc},
			players.ModeClickToDeposit: clickToDepositHandler{svc: svc},
			players.ModeAutoReplenish:  autoReplenishHandler{svc: svc},
		},
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	mode, err := d.modeOf(ctx, req.Owner)
	if err != nil {
		return Result{}, fmt.Errorf("resolve mode for %s: %w", req.Owner, err)
	}
	h, ok := d.handlers[mode]
	if !ok {
		h = noneHandler{}
	}
	return h.Handle(ctx, req)
}

type noneHandler struct{}

func (noneHandler) Handle(ctx context.Context, req Request) (Result, error) {
	return Result{}, nil
}

// autoStoreHandler sweeps picked-up items into compartments the owner already
// keeps. It never creates compartments on its own.
type autoStoreHandler struct {
	svc *Service
}

func (h autoStoreHandler) Handle(ctx context.Context, req Request) (Result, error) {
	if req.Trigger != TriggerPickup {
		return Result{}, nil
	}
	if !h.svc.storable(req.Type) {
		return Result{}, nil
	}
	w, err := h.svc.Load(ctx, req.Owner)
	if err != nil {
		return Result{}, err
	}
	if !w.Has(req.Type) {
		return Result{}, nil
	}
	stored, err := h.svc.Stock(ctx, req.Owner, req.Type, req.Amount)
	if err != nil {
		return Result{}, err
	}
	return Result{Stored: stored}, nil
}

// clickToDepositHandler stocks on explicit deposit clicks, creating the
// compartment when the hooks allow it.
type clickToDepositHandler struct {
	svc *Service
}

func (h clickToDepositHandler) Handle(ctx context.Context, req Request) (Result, error) {
	if req.Trigger != TriggerDeposit {
		return Result{}, nil
	}
	if !h.svc.storable(req.Type) {
		return Result{}, nil
	}
	stored, err := h.svc.Stock(ctx, req.Owner, req.Type, req.Amount)
	if err != nil {
		return Result{}, err
	}
	return Result{Stored: stored}, nil
}

// autoReplenishHandler refills the owner's inventory from the ledger when a
// stack runs out.
type autoReplenishHandler struct {
	svc *Service
}

func (h autoReplenishHandler) Handle(ctx context.Context, req Request) (Result, error) {
	if req.Trigger != TriggerConsume {
		return Result{}, nil
	}
	stack, ok, err := h.svc.Destock(ctx, req.Owner, req.Type, req.Amount)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, nil
	}
	return Result{Withdrawn: stack}, nil
}
