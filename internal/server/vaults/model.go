// Package vaults implements the per-player item containers: numbered slot
// arrays with a display name, an icon, and a trusted-viewer list, persisted
// as encoded rows and shared through the cache under an open/close protocol.
package vaults

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

// Key identifies one vault: an owner plus a per-owner number starting at 1.
type Key struct {
	Owner uuid.UUID
	ID    int
}

// NewKey builds a Key. Vault numbers below 1 are a programming error.
func NewKey(owner uuid.UUID, id int) Key {
	if id < 1 {
		panic(fmt.Sprintf("vaults: invalid vault id %d", id))
	}
	return Key{Owner: owner, ID: id}
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.Owner, k.ID)
}

// CacheKind returns the cache type tag for a vault number. Each number gets
// its own tag so an owner's vaults occupy distinct cache entries.
func CacheKind(id int) string {
	return fmt.Sprintf("vault/%d", id)
}

// Limits carries the construction-time bounds of every vault. The host reads
// them from config and passes the same value everywhere.
type Limits struct {
	RowWidth    int            // slots per row
	MinRows     int            // smallest slot grid
	NameMax     int            // display name length cap
	TrustMax    int            // trusted list cap
	DefaultName string         // fmt pattern taking the vault number
	DefaultIcon items.ItemType // icon for fresh vaults
}

// normalize pads a slot array to a whole number of rows, never below the
// minimum grid. Hydrated payloads larger than the minimum keep their rows.
func (l Limits) normalize(slots []items.ItemStack) []items.ItemStack {
	size := ((len(slots) + l.RowWidth - 1) / l.RowWidth) * l.RowWidth
	if min := l.MinRows * l.RowWidth; size < min {
		size = min
	}
	out := make([]items.ItemStack, size)
	copy(out, slots)
	return out
}

// Vault is one numbered container. Mutation happens on the owner's
// coordinating goroutine; no internal locking.
type Vault struct {
	key     Key
	limits  Limits
	name    string
	icon    items.ItemType
	slots   []items.ItemStack
	trusted map[uuid.UUID]struct{}
}

// New returns a fresh vault with the default name, icon and slot grid.
func New(key Key, limits Limits) *Vault {
	return &Vault{
		key:     key,
		limits:  limits,
		name:    fmt.Sprintf(limits.DefaultName, key.ID),
		icon:    limits.DefaultIcon,
		slots:   limits.normalize(nil),
		trusted: make(map[uuid.UUID]struct{}),
	}
}

// Hydrate rebuilds a vault from its persisted row.
func Hydrate(key Key, limits Limits, name string, icon items.ItemType, payload, trustedJSON string) (*Vault, error) {
	slots, err := items.DecodeSlots(payload)
	if err != nil {
		return nil, fmt.Errorf("hydrate vault %s: %w", key, err)
	}
	trusted, err := decodeTrusted(trustedJSON)
	if err != nil {
		return nil, fmt.Errorf("hydrate vault %s: %w", key, err)
	}
	v := New(key, limits)
	if name != "" {
		v.name = name
	}
	if icon.Valid() {
		v.icon = icon
	}
	v.slots = limits.normalize(slots)
	v.trusted = trusted
	return v, nil
}

// Owner implements cache.Object.
func (v *Vault) Owner() uuid.UUID {
	return v.key.Owner
}

// Kind implements cache.Object.
func (v *Vault) Kind() string {
	return CacheKind(v.key.ID)
}

func (v *Vault) Key() Key {
	return v.key
}

func (v *Vault) Name() string {
	return v.name
}

func (v *Vault) Icon() items.ItemType {
	return v.icon
}

// Rename changes the display name. Empty names and names over the cap are
// rejected.
func (v *Vault) Rename(name string) bool {
	if name == "" || len(name) > v.limits.NameMax {
		return false
	}
	v.name = name
	return true
}

// SetIcon changes the vault icon. The zero type is rejected.
func (v *Vault) SetIcon(icon items.ItemType) bool {
	if !icon.Valid() {
		return false
	}
	v.icon = icon
	return true
}

// Trusted lists the viewers the owner shared the vault with.
func (v *Vault) Trusted() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(v.trusted))
	for id := range v.trusted {
		out = append(out, id)
	}
	return out
}

// IsTrusted reports whether the id is on the trusted list.
func (v *Vault) IsTrusted(id uuid.UUID) bool {
	_, ok := v.trusted[id]
	return ok
}

// Trust adds a viewer. The owner, duplicates, and additions beyond the cap
// are rejected.
func (v *Vault) Trust(id uuid.UUID) bool {
	if id == v.key.Owner {
		return false
	}
	if _, ok := v.trusted[id]; ok {
		return false
	}
	if len(v.trusted) >= v.limits.TrustMax {
		return false
	}
	v.trusted[id] = struct{}{}
	return true
}

// Untrust removes a viewer from the trusted list.
func (v *Vault) Untrust(id uuid.UUID) bool {
	if _, ok := v.trusted[id]; !ok {
		return false
	}
	delete(v.trusted, id)
	return true
}

// Slots returns a copy of the slot array.
func (v *Vault) Slots() []items.ItemStack {
	out := make([]items.ItemStack, len(v.slots))
	copy(out, v.slots)
	return out
}

// SetSlots replaces the contents, re-padding to a whole number of rows.
func (v *Vault) SetSlots(slots []items.ItemStack) {
	v.slots = v.limits.normalize(slots)
}

// Size returns the slot count.
func (v *Vault) Size() int {
	return len(v.slots)
}

// Empty reports whether every slot holds nothing.
func (v *Vault) Empty() bool {
	for _, s := range v.slots {
		if !s.Empty() {
			return false
		}
	}
	return true
}

// EncodePayload serializes the slot array for the persisted row.
func (v *Vault) EncodePayload() (string, error) {
	return items.EncodeSlots(v.slots)
}

// EncodeTrusted serializes the trusted list for the persisted row.
func (v *Vault) EncodeTrusted() (string, error) {
	return encodeTrusted(v.trusted)
}

func encodeTrusted(set map[uuid.UUID]struct{}) (string, error) {
	if len(set) == 0 {
		return "[]", nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id.String())
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode trusted: %w", err)
	}
	return string(b), nil
}

func decodeTrusted(raw string) (map[uuid.UUID]struct{}, error) {
	set := make(map[uuid.UUID]struct{})
	if raw == "" || raw == "[]" {
		return set, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode trusted: %w", err)
	}
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("decode trusted: %w", err)
		}
		set[id] = struct{}{}
	}
	return set, nil
}
