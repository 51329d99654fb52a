package players

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"AUTO_STORE", ModeAutoStore},
		{"CLICK_TO_DEPOSIT", ModeClickToDeposit},
		{"AUTO_REPLENISH", ModeAutoReplenish},
		{"NONE", ModeNone},
		{"", ModeNone},
		{"garbage", ModeNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMode(tt.in), "input %q", tt.in)
	}
}

func TestParseClickType(t *testing.T) {
	tests := []struct {
		in   string
		want ClickType
	}{
		{"LEFT", ClickLeft},
		{"RIGHT", ClickRight},
		{"SHIFT_LEFT", ClickShiftLeft},
		{"SHIFT_RIGHT", ClickShiftRight},
		{"", DefaultClick},
		{"MIDDLE", DefaultClick},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseClickType(tt.in), "input %q", tt.in)
	}
}

func TestNew_Defaults(t *testing.T) {
	id := uuid.New()
	p := New(id)

	assert.Equal(t, id, p.Owner())
	assert.Equal(t, Kind, p.Kind())
	assert.Equal(t, ModeNone, p.Mode)
	assert.Equal(t, DefaultClick, p.QuickReturnClick)
	assert.Zero(t, p.MaxExtraVaults)
	assert.Zero(t, p.MaxExtraStock)
}
