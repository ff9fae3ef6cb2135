package key

// HID keyboard/keypad page usages (USB HID Usage Tables, page 0x07).
// Plain keyboard keys carry no flags, so the Key value equals the usage id.
const (
	// Letters A-Z
	A Key = 0x04
	B Key = 0x05
	C Key = 0x06
	D Key = 0x07
	E Key = 0x08
	F Key = 0x09
	G Key = 0x0A
	H Key = 0x0B
	I Key = 0x0C
	J Key = 0x0D
	K Key = 0x0E
	L Key = 0x0F
	M Key = 0x10
	N Key = 0x11
	O Key = 0x12
	P Key = 0x13
	Q Key = 0x14
	R Key = 0x15
	S Key = 0x16
	T Key = 0x17
	U Key = 0x18
	V Key = 0x19
	W Key = 0x1A
	X Key = 0x1B
	Y Key = 0x1C
	Z Key = 0x1D

	// Number row
	Num1 Key = 0x1E
	Num2 Key = 0x1F
	Num3 Key = 0x20
	Num4 Key = 0x21
	Num5 Key = 0x22
	Num6 Key = 0x23
	Num7 Key = 0x24
	Num8 Key = 0x25
	Num9 Key = 0x26
	Num0 Key = 0x27

	Enter        Key = 0x28
	Escape       Key = 0x29
	Backspace    Key = 0x2A
	Tab          Key = 0x2B
	Spacebar     Key = 0x2C
	Minus        Key = 0x2D // - and _
	Equals       Key = 0x2E // = and +
	LeftBracket  Key = 0x2F // [ and {
	RightBracket Key = 0x30 // ] and }
	Backslash    Key = 0x31
	NonUSPound   Key = 0x32
	Semicolon    Key = 0x33
	Quote        Key = 0x34
	Backtick     Key = 0x35
	Comma        Key = 0x36
	Period       Key = 0x37
	Slash        Key = 0x38
	CapsLock     Key = 0x39

	F1  Key = 0x3A
	F2  Key = 0x3B
	F3  Key = 0x3C
	F4  Key = 0x3D
	F5  Key = 0x3E
	F6  Key = 0x3F
	F7  Key = 0x40
	F8  Key = 0x41
	F9  Key = 0x42
	F10 Key = 0x43
	F11 Key = 0x44
	F12 Key = 0x45

	PrintScreen Key = 0x46
	ScrollLock  Key = 0x47
	Pause       Key = 0x48
	Insert      Key = 0x49
	Home        Key = 0x4A
	PageUp      Key = 0x4B
	Delete      Key = 0x4C
	End         Key = 0x4D
	PageDown    Key = 0x4E

	RightArrow Key = 0x4F
	LeftArrow  Key = 0x50
	DownArrow  Key = 0x51
	UpArrow    Key = 0x52

	NumLock        Key = 0x53
	KeypadSlash    Key = 0x54
	KeypadMultiply Key = 0x55
	KeypadMinus    Key = 0x56
	KeypadPlus     Key = 0x57
	KeypadEnter    Key = 0x58
	Keypad1        Key = 0x59
	Keypad2        Key = 0x5A
	Keypad3        Key = 0x5B
	Keypad4        Key = 0x5C
	Keypad5        Key = 0x5D
	Keypad6        Key = 0x5E
	Keypad7        Key = 0x5F
	Keypad8        Key = 0x60
	Keypad9        Key = 0x61
	Keypad0        Key = 0x62
	KeypadDot      Key = 0x63

	NonUSBackslash Key = 0x64
	PcApplication  Key = 0x65
	Power          Key = 0x66
	KeypadEquals   Key = 0x67

	F13 Key = 0x68
	F14 Key = 0x69
	F15 Key = 0x6A
	F16 Key = 0x6B
	F17 Key = 0x6C
	F18 Key = 0x6D
	F19 Key = 0x6E
	F20 Key = 0x6F
	F21 Key = 0x70
	F22 Key = 0x71
	F23 Key = 0x72
	F24 Key = 0x73

	Execute    Key = 0x74
	Help       Key = 0x75
	Menu       Key = 0x76
	Select     Key = 0x77
	Stop       Key = 0x78
	Again      Key = 0x79
	Undo       Key = 0x7A
	Cut        Key = 0x7B
	Copy       Key = 0x7C
	Paste      Key = 0x7D
	Find       Key = 0x7E
	Mute       Key = 0x7F
	VolumeUp   Key = 0x80
	VolumeDown Key = 0x81

	// Modifiers
	LeftControl  Key = 0xE0
	LeftShift    Key = 0xE1
	LeftAlt      Key = 0xE2
	LeftGUI      Key = 0xE3 // Windows/Command key
	RightControl Key = 0xE4
	RightShift   Key = 0xE5
	RightAlt     Key = 0xE6
	RightGUI     Key = 0xE7
)

// Consumer page usages (page 0x0C) with their keys.
var (
	ConsumerScanNextTrack     = Consumer(0xB5)
	ConsumerScanPreviousTrack = Consumer(0xB6)
	ConsumerStop              = Consumer(0xB7)
	ConsumerPlayPause         = Consumer(0xCD)
	ConsumerMute              = Consumer(0xE2)
	ConsumerVolumeIncrement   = Consumer(0xE9)
	ConsumerVolumeDecrement   = Consumer(0xEA)
	ConsumerBrightnessUp      = Consumer(0x6F)
	ConsumerBrightnessDown    = Consumer(0x70)
)

// Generic desktop system control usages.
const (
	usageSystemPowerDown uint8 = 0x81
	usageSystemSleep     uint8 = 0x82
	usageSystemWakeUp    uint8 = 0x83
)

var (
	SystemPowerDown = System(usageSystemPowerDown)
	SystemSleep     = System(usageSystemSleep)
	SystemWakeUp    = System(usageSystemWakeUp)
)
