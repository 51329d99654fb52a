// Package items models the opaque item vocabulary the engine stores. The
// game engine owns the real item registry; here an item type is just a tag
// and a stack is a (type, amount, meta) triple that survives serialization.
package items

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ItemType is an item-type tag, e.g. "IRON_INGOT".
type ItemType string

// None is the zero item type.
const None ItemType = ""

func (t ItemType) String() string {
	return string(t)
}

// Valid reports whether the tag is non-empty.
func (t ItemType) Valid() bool {
	return t != None
}

// ItemStack is a quantity of a single item type plus opaque engine metadata.
type ItemStack struct {
	Type   ItemType `json:"type"`
	Amount int      `json:"amount"`
	Meta   string   `json:"meta,omitempty"`
}

// Of builds a plain stack descriptor.
func Of(t ItemType, amount int) ItemStack {
	return ItemStack{Type: t, Amount: amount}
}

// Empty reports whether the slot holds nothing.
func (s ItemStack) Empty() bool {
	return s.Type == None || s.Amount == 0
}

// EncodeSlots serializes a slot array to a base64 payload suitable for a
// single database column. An all-empty array still round-trips its length.
func EncodeSlots(slots []ItemStack) (string, error) {
	if len(slots) == 0 {
		return "", nil
	}
	b, err := json.Marshal(slots)
	if err != nil {
		return "", fmt.Errorf("encode slots: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeSlots reverses EncodeSlots. An empty payload decodes to nil.
func DecodeSlots(payload string) ([]ItemStack, error) {
	if payload == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	var slots []ItemStack
	if err := json.Unmarshal(b, &slots); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return slots, nil
}
