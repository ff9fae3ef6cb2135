// Package key defines the value types flowing through the keyboard pipeline:
// physical addresses, logical key values and key events.
//
// A Key is 16 bits wide. The low byte is a keycode, the high byte a set of
// flags. Plain keyboard keys carry HID keyboard usage ids with optional
// modifier flags; synthetic keys (layer switches, consumer and system
// control) reuse the modifier bits as a type tag.
package key

// Key is a logical key value. Two keys are equal when their raw bits are.
type Key uint16

// Flags of a keyboard key.
const (
	CtrlHeld  uint8 = 0x01
	LAltHeld  uint8 = 0x02
	RAltHeld  uint8 = 0x04
	ShiftHeld uint8 = 0x08
	GUIHeld   uint8 = 0x10
	Synthetic uint8 = 0x40
	Reserved  uint8 = 0x80
)

// Type tags of synthetic keys; they overlap the modifier flags on purpose
// because a synthetic key never carries modifiers.
const (
	IsSysCtl       uint8 = 0x01
	IsInternal     uint8 = 0x02
	SwitchToKeymap uint8 = 0x04
	IsConsumer     uint8 = 0x08
)

// Reserved sentinel values.
const (
	// NoKey does nothing.
	NoKey Key = 0x0000
	// Transparent defers to the next active layer down.
	Transparent Key = 0xFFFF
	// Inactive marks an idle entry of the live key table.
	Inactive = Transparent
	// Masked suppresses an address until its key is released.
	Masked Key = 0xFFFE
	// Undefined asks the pipeline to look the key up in the keymap.
	Undefined Key = 0xFFFD
)

// New builds a key from a keycode and flags.
func New(code, flags uint8) Key {
	return Key(uint16(flags)<<8 | uint16(code))
}

// Raw returns the raw 16-bit value.
func (k Key) Raw() uint16 { return uint16(k) }

// Code returns the keycode byte.
func (k Key) Code() uint8 { return uint8(k) }

// Flags returns the flags byte.
func (k Key) Flags() uint8 { return uint8(k >> 8) }

// WithFlags returns k with the given flags added.
func (k Key) WithFlags(flags uint8) Key { return New(k.Code(), k.Flags()|flags) }

// IsReserved reports whether k is one of the sentinel values.
func (k Key) IsReserved() bool { return k.Flags()&Reserved != 0 }

// IsKeyboardKey reports whether k belongs in the keyboard report.
func (k Key) IsKeyboardKey() bool {
	return k.Flags()&(Synthetic|Reserved) == 0
}

// IsKeyboardModifier reports whether k is one of the eight modifier usages.
func (k Key) IsKeyboardModifier() bool {
	return k.IsKeyboardKey() && k.Code() >= LeftControl.Code() && k.Code() <= RightGUI.Code()
}

// IsKeyboardShift reports whether k is a shift key or carries the shift flag.
func (k Key) IsKeyboardShift() bool {
	if !k.IsKeyboardKey() {
		return false
	}
	return k.Code() == LeftShift.Code() || k.Code() == RightShift.Code() || k.Flags()&ShiftHeld != 0
}

// IsLayerKey reports whether k switches layers.
func (k Key) IsLayerKey() bool {
	return k.Flags() == Synthetic|SwitchToKeymap
}

// IsConsumerControlKey reports whether k belongs in the consumer control report.
func (k Key) IsConsumerControlKey() bool {
	return k.Flags()&(Reserved|Synthetic|IsConsumer) == Synthetic|IsConsumer
}

// IsSystemControlKey reports whether k is a system control key.
func (k Key) IsSystemControlKey() bool {
	return k.Flags() == Synthetic|IsSysCtl
}

// ConsumerUsage returns the 10-bit consumer page usage of a consumer key.
func (k Key) ConsumerUsage() uint16 { return uint16(k) & 0x03FF }

// Consumer builds a consumer control key for a consumer page usage.
func Consumer(usage uint16) Key {
	return Key(usage&0x03FF) | Key(uint16(Synthetic|IsConsumer)<<8)
}

// System builds a system control key for a generic desktop usage.
func System(usage uint8) Key {
	return New(usage, Synthetic|IsSysCtl)
}

// Modifier flag helpers, named after the keymap macros users know.
func LCtrl(k Key) Key  { return k.WithFlags(CtrlHeld) }
func LAlt(k Key) Key   { return k.WithFlags(LAltHeld) }
func RAlt(k Key) Key   { return k.WithFlags(RAltHeld) }
func LShift(k Key) Key { return k.WithFlags(ShiftHeld) }
func LGui(k Key) Key   { return k.WithFlags(GUIHeld) }

// MaxLayers bounds the number of layers a keymap can define.
const MaxLayers = 32

const (
	keymapPrevious   = 33
	keymapNext       = 34
	layerShiftOffset = 42
	layerMoveOffset  = 84
)

// KeymapPrevious and KeymapNext shift to the layer below or above the
// topmost locked layer while held.
var (
	KeymapPrevious = New(keymapPrevious, Synthetic|SwitchToKeymap)
	KeymapNext     = New(keymapNext, Synthetic|SwitchToKeymap)
)

// LockLayer toggles layer n on or off.
func LockLayer(n uint8) Key { return New(n, Synthetic|SwitchToKeymap) }

// ShiftToLayer activates layer n while held.
func ShiftToLayer(n uint8) Key { return New(layerShiftOffset+n, Synthetic|SwitchToKeymap) }

// MoveToLayer replaces the whole layer stack with layer n.
func MoveToLayer(n uint8) Key { return New(layerMoveOffset+n, Synthetic|SwitchToKeymap) }

// LayerOp is the kind of layer change a layer key requests.
type LayerOp uint8

const (
	LayerNone LayerOp = iota
	LayerLock
	LayerShift
	LayerMove
	LayerNext
	LayerPrevious
)

// Layer decodes a layer key into its operation and target layer.
func (k Key) Layer() (LayerOp, uint8) {
	if !k.IsLayerKey() {
		return LayerNone, 0
	}
	c := k.Code()
	switch {
	case c >= layerMoveOffset:
		return LayerMove, c - layerMoveOffset
	case c >= layerShiftOffset:
		return LayerShift, c - layerShiftOffset
	case c == keymapNext:
		return LayerNext, 0
	case c == keymapPrevious:
		return LayerPrevious, 0
	case c < MaxLayers:
		return LayerLock, c
	}
	return LayerNone, 0
}
