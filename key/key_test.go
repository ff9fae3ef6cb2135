package key_test

import (
	"slices"
	"testing"

	"github.com/Alia5/keypipe/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	type testCase struct {
		name     string
		k        key.Key
		keyboard bool
		modifier bool
		shift    bool
		layer    bool
		consumer bool
		system   bool
		reserved bool
	}

	cases := []testCase{
		{name: "letter", k: key.A, keyboard: true},
		{name: "left control", k: key.LeftControl, keyboard: true, modifier: true},
		{name: "right shift", k: key.RightShift, keyboard: true, modifier: true, shift: true},
		{name: "shift flag", k: key.LShift(key.Num1), keyboard: true, shift: true},
		{name: "lock layer", k: key.LockLayer(2), layer: true},
		{name: "shift to layer", k: key.ShiftToLayer(1), layer: true},
		{name: "keymap next", k: key.KeymapNext, layer: true},
		{name: "consumer", k: key.ConsumerVolumeIncrement, consumer: true},
		{name: "consumer high usage", k: key.Consumer(0x223), consumer: true},
		{name: "system", k: key.SystemSleep, system: true},
		{name: "transparent", k: key.Transparent, reserved: true},
		{name: "masked", k: key.Masked, reserved: true},
		{name: "no key", k: key.NoKey, keyboard: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.keyboard, tc.k.IsKeyboardKey(), "IsKeyboardKey")
			assert.Equal(t, tc.modifier, tc.k.IsKeyboardModifier(), "IsKeyboardModifier")
			assert.Equal(t, tc.shift, tc.k.IsKeyboardShift(), "IsKeyboardShift")
			assert.Equal(t, tc.layer, tc.k.IsLayerKey(), "IsLayerKey")
			assert.Equal(t, tc.consumer, tc.k.IsConsumerControlKey(), "IsConsumerControlKey")
			assert.Equal(t, tc.system, tc.k.IsSystemControlKey(), "IsSystemControlKey")
			assert.Equal(t, tc.reserved, tc.k.IsReserved(), "IsReserved")
		})
	}
}

func TestLayerDecode(t *testing.T) {
	type testCase struct {
		k      key.Key
		op     key.LayerOp
		target uint8
	}

	cases := []testCase{
		{key.LockLayer(0), key.LayerLock, 0},
		{key.LockLayer(31), key.LayerLock, 31},
		{key.ShiftToLayer(0), key.LayerShift, 0},
		{key.ShiftToLayer(7), key.LayerShift, 7},
		{key.MoveToLayer(3), key.LayerMove, 3},
		{key.KeymapNext, key.LayerNext, 0},
		{key.KeymapPrevious, key.LayerPrevious, 0},
		{key.A, key.LayerNone, 0},
		{key.New(32, key.Synthetic|key.SwitchToKeymap), key.LayerNone, 0},
	}

	for _, tc := range cases {
		t.Run(tc.k.String(), func(t *testing.T) {
			op, n := tc.k.Layer()
			assert.Equal(t, tc.op, op)
			assert.Equal(t, tc.target, n)
		})
	}
}

func TestKeyEqualityIsRawBits(t *testing.T) {
	assert.Equal(t, key.LCtrl(key.C), key.New(key.C.Code(), key.CtrlHeld))
	assert.NotEqual(t, key.LCtrl(key.C), key.C)
	assert.Equal(t, uint16(0x0106), key.LCtrl(key.C).Raw())
	assert.Equal(t, key.Inactive, key.Transparent)
}

func TestNames(t *testing.T) {
	type testCase struct {
		k    key.Key
		name string
	}

	cases := []testCase{
		{key.A, "A"},
		{key.LeftShift, "LeftShift"},
		{key.LCtrl(key.C), "LCTRL(C)"},
		{key.LCtrl(key.LShift(key.T)), "LCTRL(LSHIFT(T))"},
		{key.ShiftToLayer(1), "ShiftToLayer(1)"},
		{key.LockLayer(4), "LockLayer(4)"},
		{key.MoveToLayer(2), "MoveToLayer(2)"},
		{key.KeymapNext, "KeymapNext"},
		{key.ConsumerVolumeIncrement, "Consumer(VolumeUp)"},
		{key.Consumer(0x123), "Consumer(0x123)"},
		{key.SystemSleep, "System(Sleep)"},
		{key.Transparent, "Transparent"},
		{key.NoKey, "NoKey"},
		{key.Masked, "Masked"},
		{key.Undefined, "Undefined"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.k.String())

			parsed, err := key.Parse(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.k, parsed)
		})
	}
}

func TestParseAliases(t *testing.T) {
	type testCase struct {
		in   string
		want key.Key
	}

	cases := []testCase{
		{"___", key.Transparent},
		{"XXX", key.NoKey},
		{"space", key.Spacebar},
		{"lshift(1)", key.LShift(key.Num1)},
		{"0x0004", key.A},
		{"Consumer(0xE9)", key.ConsumerVolumeIncrement},
		{"system(sleep)", key.SystemSleep},
		{" Enter ", key.Enter},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := key.Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "NotAKey", "ShiftToLayer(32)", "LCTRL(ShiftToLayer(1))", "Bogus(A)"} {
		t.Run(in, func(t *testing.T) {
			_, err := key.Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestTextMarshal(t *testing.T) {
	b, err := key.LAlt(key.Tab).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "LALT(Tab)", string(b))

	var k key.Key
	require.NoError(t, k.UnmarshalText(b))
	assert.Equal(t, key.LAlt(key.Tab), k)
	assert.Error(t, k.UnmarshalText([]byte("nope")))
}

func TestCharToKey(t *testing.T) {
	assert.Equal(t, key.A, key.CharToKey['a'])
	assert.Equal(t, key.A, key.CharToKey['A'])
	assert.True(t, key.ShiftChars['A'])
	assert.False(t, key.ShiftChars['a'])
	assert.Equal(t, key.Num9, key.CharToKey['('])
	assert.True(t, key.ShiftChars['('])
}

func TestLayout(t *testing.T) {
	l := key.Layout{Rows: 2, Cols: 3}

	assert.Equal(t, 6, l.Len())
	assert.Equal(t, key.Addr(4), l.Addr(1, 1))
	assert.Equal(t, key.AddrNone, l.Addr(2, 0))
	assert.Equal(t, key.AddrNone, l.Addr(0, 3))

	r, c, ok := l.RowCol(5)
	require.True(t, ok)
	assert.Equal(t, uint8(1), r)
	assert.Equal(t, uint8(2), c)

	_, _, ok = l.RowCol(key.AddrNone)
	assert.False(t, ok)
	assert.False(t, l.Contains(6))
	assert.Equal(t, key.AddrNone, l.FromInt(-1))
	assert.Equal(t, key.Addr(3), l.FromInt(3))

	assert.Equal(t, []key.Addr{0, 1, 2, 3, 4, 5}, slices.Collect(l.All()))
	assert.Equal(t, "(1,0)", l.Format(3))
	assert.Equal(t, "none", l.Format(key.AddrNone))
}

func TestEventState(t *testing.T) {
	press := key.Press(3)
	assert.True(t, press.State.ToggledOn())
	assert.False(t, press.State.ToggledOff())
	assert.Equal(t, key.Undefined, press.Key)

	release := key.Release(3)
	assert.True(t, release.State.ToggledOff())
	assert.True(t, release.State.IsToggle())

	held := key.Event{Addr: 3, State: key.IsPressed | key.WasPressed}
	assert.False(t, held.State.IsToggle())

	syn := key.SyntheticEvent(key.A, true)
	assert.Equal(t, key.AddrNone, syn.Addr)
	assert.True(t, syn.State.IsInjected())
	assert.True(t, syn.State.ToggledOn())
	assert.Equal(t, "press+injected", syn.State.String())
}
