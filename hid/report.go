// Package hid builds the HID reports a keyboard sends to its host: the
// N-key rollover keyboard report, the consumer control report and the
// system control report, and hands them to a Sink.
package hid

import (
	"encoding/binary"
	"io"
)

// ReportID identifies a report on a multi-report interface.
type ReportID uint8

const (
	ReportIDKeyboard ReportID = 2
	ReportIDConsumer ReportID = 4
	ReportIDSystem   ReportID = 5
	ReportIDNKRO     ReportID = 8
)

// Modifier key bitmasks
const (
	ModLeftCtrl   = 0x01
	ModLeftShift  = 0x02
	ModLeftAlt    = 0x04
	ModLeftGUI    = 0x08 // Windows/Command key
	ModRightCtrl  = 0x10
	ModRightShift = 0x20
	ModRightAlt   = 0x40
	ModRightGUI   = 0x80
)

// LED bitmasks
const (
	LEDNumLock    = 0x01
	LEDCapsLock   = 0x02
	LEDScrollLock = 0x04
	LEDCompose    = 0x08
	LEDKana       = 0x10
)

const (
	firstModifier = 0xE0
	lastModifier  = 0xE7
	errorRollOver = 0x01
)

// KeyboardReportSize is the encoded size of a KeyboardReport.
const KeyboardReportSize = 34

// BootReportSize is the encoded size of a boot protocol report.
const BootReportSize = 8

// KeyboardReport is the keyboard state sent to the host.
// Internally uses a 256-bit bitmap for N-key rollover support.
type KeyboardReport struct {
	Modifiers uint8     // bit 0-7: LCtrl, LShift, LAlt, LGui, RCtrl, RShift, RAlt, RGui
	KeyBitmap [32]uint8 // 256 bits for HID usage codes 0x00-0xFF
}

// Press adds a usage. Modifier usages go to the modifier byte.
func (r *KeyboardReport) Press(code uint8) {
	if code >= firstModifier && code <= lastModifier {
		r.Modifiers |= 1 << (code - firstModifier)
		return
	}
	r.KeyBitmap[code/8] |= 1 << (code % 8)
}

// Release removes a usage.
func (r *KeyboardReport) Release(code uint8) {
	if code >= firstModifier && code <= lastModifier {
		r.Modifiers &^= 1 << (code - firstModifier)
		return
	}
	r.KeyBitmap[code/8] &^= 1 << (code % 8)
}

// IsPressed reports whether a usage is in the report.
func (r *KeyboardReport) IsPressed(code uint8) bool {
	if code >= firstModifier && code <= lastModifier {
		return r.Modifiers&(1<<(code-firstModifier)) != 0
	}
	return r.KeyBitmap[code/8]&(1<<(code%8)) != 0
}

// Codes returns the non-modifier usages in ascending order.
func (r *KeyboardReport) Codes() []uint8 {
	var keys []uint8
	for i := 0; i < 256; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if r.KeyBitmap[byteIdx]&(1<<bitIdx) != 0 {
			keys = append(keys, uint8(i))
		}
	}
	return keys
}

// Clear releases every usage.
func (r *KeyboardReport) Clear() {
	*r = KeyboardReport{}
}

// MarshalBinary encodes the report into the 34-byte NKRO layout.
//
//	Byte 0: Modifiers (8 bits)
//	Byte 1: Reserved (0x00)
//	Bytes 2-33: Key bitmap (256 bits, 32 bytes)
func (r KeyboardReport) MarshalBinary() ([]byte, error) {
	b := make([]byte, KeyboardReportSize)
	b[0] = r.Modifiers
	b[1] = 0x00 // Reserved
	copy(b[2:34], r.KeyBitmap[:])
	return b, nil
}

// UnmarshalBinary decodes the 34-byte NKRO layout.
func (r *KeyboardReport) UnmarshalBinary(data []byte) error {
	if len(data) < KeyboardReportSize {
		return io.ErrUnexpectedEOF
	}
	r.Modifiers = data[0]
	copy(r.KeyBitmap[:], data[2:34])
	return nil
}

// BootReport encodes the report in the 8-byte boot protocol layout. More
// than six keycodes fill every slot with ErrorRollOver.
//
//	Byte 0: Modifiers
//	Byte 1: Reserved
//	Bytes 2-7: Up to six keycodes
func (r KeyboardReport) BootReport() []byte {
	b := make([]byte, BootReportSize)
	b[0] = r.Modifiers
	codes := r.Codes()
	if len(codes) > 6 {
		for i := 2; i < BootReportSize; i++ {
			b[i] = errorRollOver
		}
		return b
	}
	copy(b[2:], codes)
	return b
}

// ConsumerReport holds up to four consumer page usages.
type ConsumerReport struct {
	Usages [4]uint16
}

// ConsumerReportSize is the encoded size of a ConsumerReport.
const ConsumerReportSize = 8

// Press puts usage in the first free slot.
func (r *ConsumerReport) Press(usage uint16) {
	for i, u := range r.Usages {
		if u == 0 {
			r.Usages[i] = usage
			return
		}
	}
}

// Release removes every slot holding usage.
func (r *ConsumerReport) Release(usage uint16) {
	for i, u := range r.Usages {
		if u == usage {
			r.Usages[i] = 0
		}
	}
}

// MarshalBinary encodes the usages as four little-endian uint16 values.
func (r ConsumerReport) MarshalBinary() ([]byte, error) {
	b := make([]byte, ConsumerReportSize)
	for i, u := range r.Usages {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	return b, nil
}

// LEDState represents the state of keyboard LEDs controlled by the host.
type LEDState struct {
	NumLock    bool
	CapsLock   bool
	ScrollLock bool
	Compose    bool
	Kana       bool
}

// UnmarshalBinary decodes a 1-byte LED bitmask into LEDState.
// Bits are defined by LEDNumLock, LEDCapsLock, LEDScrollLock, LEDCompose, LEDKana.
func (st *LEDState) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return io.ErrUnexpectedEOF
	}
	b := data[0]
	st.NumLock = b&LEDNumLock != 0
	st.CapsLock = b&LEDCapsLock != 0
	st.ScrollLock = b&LEDScrollLock != 0
	st.Compose = b&LEDCompose != 0
	st.Kana = b&LEDKana != 0
	return nil
}
