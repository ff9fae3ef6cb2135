package key

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyName maps HID keyboard usages to human-readable key names.
var KeyName = map[Key]string{
	// Letters
	A: "A", B: "B", C: "C", D: "D", E: "E", F: "F", G: "G",
	H: "H", I: "I", J: "J", K: "K", L: "L", M: "M", N: "N",
	O: "O", P: "P", Q: "Q", R: "R", S: "S", T: "T", U: "U",
	V: "V", W: "W", X: "X", Y: "Y", Z: "Z",

	// Numbers
	Num1: "1", Num2: "2", Num3: "3", Num4: "4", Num5: "5",
	Num6: "6", Num7: "7", Num8: "8", Num9: "9", Num0: "0",

	// Special keys
	Enter:        "Enter",
	Escape:       "Escape",
	Backspace:    "Backspace",
	Tab:          "Tab",
	Spacebar:     "Space",
	Minus:        "Minus",
	Equals:       "Equals",
	LeftBracket:  "LeftBracket",
	RightBracket: "RightBracket",
	Backslash:    "Backslash",
	NonUSPound:   "NonUSPound",
	Semicolon:    "Semicolon",
	Quote:        "Quote",
	Backtick:     "Backtick",
	Comma:        "Comma",
	Period:       "Period",
	Slash:        "Slash",
	CapsLock:     "CapsLock",

	// Function keys
	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",
	F13: "F13", F14: "F14", F15: "F15", F16: "F16", F17: "F17", F18: "F18",
	F19: "F19", F20: "F20", F21: "F21", F22: "F22", F23: "F23", F24: "F24",

	// Control keys
	PrintScreen: "PrintScreen",
	ScrollLock:  "ScrollLock",
	Pause:       "Pause",
	Insert:      "Insert",
	Home:        "Home",
	PageUp:      "PageUp",
	Delete:      "Delete",
	End:         "End",
	PageDown:    "PageDown",

	// Arrow keys
	RightArrow: "Right",
	LeftArrow:  "Left",
	DownArrow:  "Down",
	UpArrow:    "Up",

	// Numpad
	NumLock:        "NumLock",
	KeypadSlash:    "Kp/",
	KeypadMultiply: "Kp*",
	KeypadMinus:    "Kp-",
	KeypadPlus:     "Kp+",
	KeypadEnter:    "KpEnter",
	Keypad1:        "Kp1",
	Keypad2:        "Kp2",
	Keypad3:        "Kp3",
	Keypad4:        "Kp4",
	Keypad5:        "Kp5",
	Keypad6:        "Kp6",
	Keypad7:        "Kp7",
	Keypad8:        "Kp8",
	Keypad9:        "Kp9",
	Keypad0:        "Kp0",
	KeypadDot:      "Kp.",
	KeypadEquals:   "Kp=",

	// Additional
	NonUSBackslash: "NonUSBackslash",
	PcApplication:  "Application",
	Power:          "Power",
	Execute:        "Execute",
	Help:           "Help",
	Menu:           "Menu",
	Select:         "Select",
	Stop:           "Stop",
	Again:          "Again",
	Undo:           "Undo",
	Cut:            "Cut",
	Copy:           "Copy",
	Paste:          "Paste",
	Find:           "Find",
	Mute:           "Mute",
	VolumeUp:       "VolumeUp",
	VolumeDown:     "VolumeDown",

	// Modifiers
	LeftControl:  "LeftControl",
	LeftShift:    "LeftShift",
	LeftAlt:      "LeftAlt",
	LeftGUI:      "LeftGui",
	RightControl: "RightControl",
	RightShift:   "RightShift",
	RightAlt:     "RightAlt",
	RightGUI:     "RightGui",
}

var consumerName = map[uint16]string{
	ConsumerScanNextTrack.ConsumerUsage():     "ScanNext",
	ConsumerScanPreviousTrack.ConsumerUsage(): "ScanPrevious",
	ConsumerStop.ConsumerUsage():              "Stop",
	ConsumerPlayPause.ConsumerUsage():         "PlayPause",
	ConsumerMute.ConsumerUsage():              "Mute",
	ConsumerVolumeIncrement.ConsumerUsage():   "VolumeUp",
	ConsumerVolumeDecrement.ConsumerUsage():   "VolumeDown",
	ConsumerBrightnessUp.ConsumerUsage():      "BrightnessUp",
	ConsumerBrightnessDown.ConsumerUsage():    "BrightnessDown",
}

var systemName = map[uint8]string{
	usageSystemPowerDown: "PowerDown",
	usageSystemSleep:     "Sleep",
	usageSystemWakeUp:    "WakeUp",
}

// CharToKey maps ASCII characters to their corresponding keyboard keys.
// For shifted characters (uppercase, symbols), check ShiftChars.
var CharToKey = map[byte]Key{
	// Lowercase letters
	'a': A, 'b': B, 'c': C, 'd': D, 'e': E, 'f': F, 'g': G,
	'h': H, 'i': I, 'j': J, 'k': K, 'l': L, 'm': M, 'n': N,
	'o': O, 'p': P, 'q': Q, 'r': R, 's': S, 't': T, 'u': U,
	'v': V, 'w': W, 'x': X, 'y': Y, 'z': Z,

	// Uppercase letters (same keys, need shift)
	'A': A, 'B': B, 'C': C, 'D': D, 'E': E, 'F': F, 'G': G,
	'H': H, 'I': I, 'J': J, 'K': K, 'L': L, 'M': M, 'N': N,
	'O': O, 'P': P, 'Q': Q, 'R': R, 'S': S, 'T': T, 'U': U,
	'V': V, 'W': W, 'X': X, 'Y': Y, 'Z': Z,

	// Numbers (top row)
	'1': Num1, '2': Num2, '3': Num3, '4': Num4, '5': Num5,
	'6': Num6, '7': Num7, '8': Num8, '9': Num9, '0': Num0,

	// Shifted number row symbols
	'!': Num1, '@': Num2, '#': Num3, '$': Num4, '%': Num5,
	'^': Num6, '&': Num7, '*': Num8, '(': Num9, ')': Num0,

	// Unshifted symbols
	'-':  Minus,
	'=':  Equals,
	'[':  LeftBracket,
	']':  RightBracket,
	'\\': Backslash,
	';':  Semicolon,
	'\'': Quote,
	'`':  Backtick,
	',':  Comma,
	'.':  Period,
	'/':  Slash,

	// Shifted symbols
	'_': Minus,
	'+': Equals,
	'{': LeftBracket,
	'}': RightBracket,
	'|': Backslash,
	':': Semicolon,
	'"': Quote,
	'~': Backtick,
	'<': Comma,
	'>': Period,
	'?': Slash,

	// Whitespace
	' ':  Spacebar,
	'\n': Enter,
	'\r': Enter,
	'\t': Tab,
}

// ShiftChars defines which characters require the Shift modifier.
var ShiftChars = map[byte]bool{
	// Uppercase letters
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true,
	'H': true, 'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true,
	'O': true, 'P': true, 'Q': true, 'R': true, 'S': true, 'T': true, 'U': true,
	'V': true, 'W': true, 'X': true, 'Y': true, 'Z': true,

	// Shifted number row
	'!': true, '@': true, '#': true, '$': true, '%': true,
	'^': true, '&': true, '*': true, '(': true, ')': true,

	// Shifted symbols
	'_': true, '+': true, '{': true, '}': true, '|': true,
	':': true, '"': true, '~': true, '<': true, '>': true, '?': true,
}

// modifier wrappers in the order String nests them, outermost first.
var modifierWrappers = []struct {
	name string
	flag uint8
}{
	{"LCTRL", CtrlHeld},
	{"LALT", LAltHeld},
	{"RALT", RAltHeld},
	{"LSHIFT", ShiftHeld},
	{"LGUI", GUIHeld},
}

func (k Key) String() string {
	switch k {
	case NoKey:
		return "NoKey"
	case Transparent:
		return "Transparent"
	case Masked:
		return "Masked"
	case Undefined:
		return "Undefined"
	}

	switch {
	case k.IsLayerKey():
		op, n := k.Layer()
		switch op {
		case LayerLock:
			return fmt.Sprintf("LockLayer(%d)", n)
		case LayerShift:
			return fmt.Sprintf("ShiftToLayer(%d)", n)
		case LayerMove:
			return fmt.Sprintf("MoveToLayer(%d)", n)
		case LayerNext:
			return "KeymapNext"
		case LayerPrevious:
			return "KeymapPrevious"
		}
	case k.IsConsumerControlKey():
		if name, ok := consumerName[k.ConsumerUsage()]; ok {
			return "Consumer(" + name + ")"
		}
		return fmt.Sprintf("Consumer(0x%03X)", k.ConsumerUsage())
	case k.IsSystemControlKey():
		if name, ok := systemName[k.Code()]; ok {
			return "System(" + name + ")"
		}
		return fmt.Sprintf("System(0x%02X)", k.Code())
	case k.IsKeyboardKey():
		base := New(k.Code(), 0)
		name, ok := KeyName[base]
		if !ok {
			name = fmt.Sprintf("0x%02X", k.Code())
		}
		flags := k.Flags()
		for i := len(modifierWrappers) - 1; i >= 0; i-- {
			if flags&modifierWrappers[i].flag != 0 {
				name = modifierWrappers[i].name + "(" + name + ")"
			}
		}
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(k))
}

// MarshalText renders k by name.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a key by name.
func (k *Key) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

var keyByName = func() map[string]Key {
	m := make(map[string]Key, len(KeyName))
	for k, name := range KeyName {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// Parse reads a key from its String form. It also accepts "___" for
// Transparent, "XXX" for NoKey and raw hexadecimal or decimal values.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return NoKey, fmt.Errorf("empty key name")
	case "___", "transparent":
		return Transparent, nil
	case "xxx", "nokey":
		return NoKey, nil
	case "masked":
		return Masked, nil
	case "undefined":
		return Undefined, nil
	case "keymapnext":
		return KeymapNext, nil
	case "keymapprevious":
		return KeymapPrevious, nil
	}

	if name, arg, ok := splitCall(s); ok {
		return parseCall(name, arg)
	}
	if k, ok := keyByName[strings.ToLower(s)]; ok {
		return k, nil
	}
	if v, err := strconv.ParseUint(s, 0, 16); err == nil {
		return Key(v), nil
	}
	return NoKey, fmt.Errorf("unknown key %q", s)
}

func splitCall(s string) (name, arg string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : len(s)-1]), true
}

func parseCall(name, arg string) (Key, error) {
	lname := strings.ToLower(name)
	for _, w := range modifierWrappers {
		if lname == strings.ToLower(w.name) {
			inner, err := Parse(arg)
			if err != nil {
				return NoKey, err
			}
			if !inner.IsKeyboardKey() {
				return NoKey, fmt.Errorf("%s: %s is not a keyboard key", name, inner)
			}
			return inner.WithFlags(w.flag), nil
		}
	}

	switch lname {
	case "locklayer", "shifttolayer", "movetolayer":
		n, err := strconv.ParseUint(arg, 0, 8)
		if err != nil || n >= MaxLayers {
			return NoKey, fmt.Errorf("%s: invalid layer %q", name, arg)
		}
		switch lname {
		case "locklayer":
			return LockLayer(uint8(n)), nil
		case "shifttolayer":
			return ShiftToLayer(uint8(n)), nil
		default:
			return MoveToLayer(uint8(n)), nil
		}
	case "consumer":
		for usage, cn := range consumerName {
			if strings.EqualFold(cn, arg) {
				return Consumer(usage), nil
			}
		}
		v, err := strconv.ParseUint(arg, 0, 10)
		if err != nil {
			return NoKey, fmt.Errorf("consumer: unknown usage %q", arg)
		}
		return Consumer(uint16(v)), nil
	case "system":
		for usage, sn := range systemName {
			if strings.EqualFold(sn, arg) {
				return System(usage), nil
			}
		}
		v, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return NoKey, fmt.Errorf("system: unknown usage %q", arg)
		}
		return System(uint8(v)), nil
	}
	return NoKey, fmt.Errorf("unknown key function %q", name)
}
