package vaults

import (
	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

// Snapshot is the read-only listing projection of a vault: everything a
// selector GUI needs without decoding the slot payload.
type Snapshot struct {
	Key     Key
	Name    string
	Icon    items.ItemType
	Trusted []uuid.UUID
}

// SharedWith reports whether the id may see the vault in listings.
func (s Snapshot) SharedWith(id uuid.UUID) bool {
	if id == s.Key.Owner {
		return true
	}
	for _, t := range s.Trusted {
		if t == id {
			return true
		}
	}
	return false
}
