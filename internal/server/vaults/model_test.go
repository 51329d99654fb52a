package vaults

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

func testLimits() Limits {
	return Limits{
		RowWidth:    9,
		MinRows:     3,
		NameMax:     16,
		TrustMax:    2,
		DefaultName: "Vault %d",
		DefaultIcon: items.ItemType("CHEST"),
	}
}

func TestNewKey_PanicsBelowOne(t *testing.T) {
	assert.Panics(t, func() { NewKey(uuid.New(), 0) })
	assert.Panics(t, func() { NewKey(uuid.New(), -3) })
	assert.NotPanics(t, func() { NewKey(uuid.New(), 1) })
}

func TestNew_Defaults(t *testing.T) {
	v := New(NewKey(uuid.New(), 2), testLimits())

	assert.Equal(t, "Vault 2", v.Name())
	assert.Equal(t, items.ItemType("CHEST"), v.Icon())
	assert.Equal(t, 27, v.Size())
	assert.True(t, v.Empty())
	assert.Empty(t, v.Trusted())
}

func TestSetSlots_PadsToWholeRows(t *testing.T) {
	v := New(NewKey(uuid.New(), 1), testLimits())

	// 30 occupied slots round up to 36, past the 27-slot minimum.
	slots := make([]items.ItemStack, 30)
	slots[29] = items.Of("IRON_INGOT", 1)
	v.SetSlots(slots)
	assert.Equal(t, 36, v.Size())
	assert.False(t, v.Empty())

	// Shrinking below the minimum grid snaps back to it.
	v.SetSlots(nil)
	assert.Equal(t, 27, v.Size())
}

func TestRename_Bounds(t *testing.T) {
	v := New(NewKey(uuid.New(), 1), testLimits())

	assert.True(t, v.Rename("Ores"))
	assert.Equal(t, "Ores", v.Name())
	assert.False(t, v.Rename(""))
	assert.False(t, v.Rename("a name that is far too long"))
	assert.Equal(t, "Ores", v.Name())
}

func TestSetIcon_RejectsZeroType(t *testing.T) {
	v := New(NewKey(uuid.New(), 1), testLimits())
	assert.False(t, v.SetIcon(items.None))
	assert.True(t, v.SetIcon(items.ItemType("GOLD_BLOCK")))
	assert.Equal(t, items.ItemType("GOLD_BLOCK"), v.Icon())
}

func TestTrust_Rules(t *testing.T) {
	owner := uuid.New()
	v := New(NewKey(owner, 1), testLimits())
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	assert.False(t, v.Trust(owner), "owner cannot trust themselves")
	assert.True(t, v.Trust(a))
	assert.False(t, v.Trust(a), "duplicates rejected")
	assert.True(t, v.Trust(b))
	assert.False(t, v.Trust(c), "cap of 2 reached")

	assert.True(t, v.IsTrusted(a))
	assert.True(t, v.Untrust(a))
	assert.False(t, v.Untrust(a))
	assert.True(t, v.Trust(c))
}

func TestHydrate_RoundTrip(t *testing.T) {
	key := NewKey(uuid.New(), 3)
	v := New(key, testLimits())
	require.True(t, v.Rename("Shared"))
	require.True(t, v.SetIcon(items.ItemType("DIAMOND")))
	slots := v.Slots()
	slots[0] = items.Of("IRON_INGOT", 12)
	slots[10] = items.ItemStack{Type: "GOLD_INGOT", Amount: 3, Meta: "glint"}
	v.SetSlots(slots)
	a, b := uuid.New(), uuid.New()
	require.True(t, v.Trust(a))
	require.True(t, v.Trust(b))

	payload, err := v.EncodePayload()
	require.NoError(t, err)
	trusted, err := v.EncodeTrusted()
	require.NoError(t, err)

	got, err := Hydrate(key, testLimits(), v.Name(), v.Icon(), payload, trusted)
	require.NoError(t, err)

	assert.Equal(t, "Shared", got.Name())
	assert.Equal(t, items.ItemType("DIAMOND"), got.Icon())
	assert.Equal(t, v.Slots(), got.Slots())
	assert.True(t, got.IsTrusted(a))
	assert.True(t, got.IsTrusted(b))
	assert.Len(t, got.Trusted(), 2)
}

func TestHydrate_EmptyRow(t *testing.T) {
	key := NewKey(uuid.New(), 1)
	got, err := Hydrate(key, testLimits(), "", items.None, "", "")
	require.NoError(t, err)

	assert.Equal(t, "Vault 1", got.Name())
	assert.Equal(t, items.ItemType("CHEST"), got.Icon())
	assert.Equal(t, 27, got.Size())
	assert.Empty(t, got.Trusted())
}

func TestHydrate_GarbagePayload(t *testing.T) {
	key := NewKey(uuid.New(), 1)
	_, err := Hydrate(key, testLimits(), "x", items.None, "!!!not-base64!!!", "")
	assert.Error(t, err)

	_, err = Hydrate(key, testLimits(), "x", items.None, "", "{broken")
	assert.Error(t, err)
}

func TestSnapshot_SharedWith(t *testing.T) {
	owner, friend, stranger := uuid.New(), uuid.New(), uuid.New()
	s := Snapshot{Key: NewKey(owner, 1), Name: "n", Trusted: []uuid.UUID{friend}}

	assert.True(t, s.SharedWith(owner))
	assert.True(t, s.SharedWith(friend))
	assert.False(t, s.SharedWith(stranger))
}
