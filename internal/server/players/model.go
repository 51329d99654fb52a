// Package players holds the per-player settings aggregate: extra vault and
// stock allowances granted by admins, the warehouse automation mode, and the
// quick-return click preference.
package players

import (
	"github.com/google/uuid"
)

// Kind is the cache type tag for player settings.
const Kind = "player"

// Mode selects the warehouse automation behavior for a player. Handlers are
// looked up in a dispatch table (see warehouses.ModeHandler); the mode value
// itself carries no behavior.
type Mode string

const (
	ModeNone           Mode = "NONE"
	ModeAutoStore      Mode = "AUTO_STORE"
	ModeClickToDeposit Mode = "CLICK_TO_DEPOSIT"
	ModeAutoReplenish  Mode = "AUTO_REPLENISH"
)

// ParseMode maps a stored tag to a Mode, falling back to ModeNone for
// unknown or empty tags so old rows stay loadable.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeAutoStore, ModeClickToDeposit, ModeAutoReplenish:
		return Mode(s)
	default:
		return ModeNone
	}
}

// ClickType is the inventory click a player bound to quick-return.
type ClickType string

const (
	ClickLeft       ClickType = "LEFT"
	ClickRight      ClickType = "RIGHT"
	ClickShiftLeft  ClickType = "SHIFT_LEFT"
	ClickShiftRight ClickType = "SHIFT_RIGHT"
)

// DefaultClick is used when a player has no stored preference.
const DefaultClick = ClickRight

// ParseClickType maps a stored tag to a ClickType, falling back to
// DefaultClick.
func ParseClickType(s string) ClickType {
	switch ClickType(s) {
	case ClickLeft, ClickRight, ClickShiftLeft, ClickShiftRight:
		return ClickType(s)
	default:
		return DefaultClick
	}
}

// Player is the persisted settings record for one player. MaxExtraVaults and
// MaxExtraStock are admin-granted allowances on top of whatever the
// permission system yields.
type Player struct {
	uuid             uuid.UUID
	MaxExtraVaults   int
	MaxExtraStock    int
	Mode             Mode
	QuickReturnClick ClickType
}

// New returns a settings record with defaults, used when no row exists yet.
func New(id uuid.UUID) *Player {
	return &Player{
		uuid:             id,
		Mode:             ModeNone,
		QuickReturnClick: DefaultClick,
	}
}

// Owner implements cache.Object.
func (p *Player) Owner() uuid.UUID {
	return p.uuid
}

// Kind implements cache.Object.
func (p *Player) Kind() string {
	return Kind
}
