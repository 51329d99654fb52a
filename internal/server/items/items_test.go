package items

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSlots_RoundTrip(t *testing.T) {
	slots := []ItemStack{
		{Type: "IRON_INGOT", Amount: 12},
		{},
		{Type: "GOLD_INGOT", Amount: 3, Meta: "enchant:1"},
	}

	payload, err := EncodeSlots(slots)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	got, err := DecodeSlots(payload)
	require.NoError(t, err)
	assert.Equal(t, slots, got)
}

func TestEncodeSlots_Empty(t *testing.T) {
	payload, err := EncodeSlots(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)

	got, err := DecodeSlots("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeSlots_Garbage(t *testing.T) {
	_, err := DecodeSlots("!!not-base64!!")
	assert.Error(t, err)

	_, err = DecodeSlots("bm90IGpzb24=") // "not json"
	assert.Error(t, err)
}

func TestItemStack_Empty(t *testing.T) {
	assert.True(t, ItemStack{}.Empty())
	assert.True(t, ItemStack{Type: "DIRT"}.Empty())
	assert.False(t, Of("DIRT", 1).Empty())
}
