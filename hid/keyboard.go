package hid

import (
	"log/slog"

	"github.com/Alia5/keypipe/internal/log"
	"github.com/Alia5/keypipe/key"
)

// Sink receives finished reports. Delivery is fire-and-forget: a failed
// Send is logged by the Keyboard and the report is retried with the next
// change.
type Sink interface {
	Send(id ReportID, data []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(id ReportID, data []byte) error

func (f SinkFunc) Send(id ReportID, data []byte) error { return f(id, data) }

// Discard drops every report.
var Discard Sink = SinkFunc(func(ReportID, []byte) error { return nil })

// Keyboard accumulates key presses into reports and sends them. It keeps
// the last report sent so unchanged reports are not repeated.
//
// Keyboard is not safe for concurrent use.
type Keyboard struct {
	sink   Sink
	logger *slog.Logger
	raw    log.RawLogger
	onLEDs func(LEDState)

	report KeyboardReport
	last   KeyboardReport

	consumer     ConsumerReport
	lastConsumer ConsumerReport

	lastSystemCode uint8
	leds           LEDState
}

// Option configures a Keyboard.
type Option func(*Keyboard)

// WithLogger sets the logger used for send failures.
func WithLogger(l *slog.Logger) Option {
	return func(k *Keyboard) { k.logger = l }
}

// WithRawLogger dumps every report sent and every output report received.
func WithRawLogger(r log.RawLogger) Option {
	return func(k *Keyboard) { k.raw = r }
}

// WithLEDCallback sets a callback invoked when the host changes the LEDs.
func WithLEDCallback(f func(LEDState)) Option {
	return func(k *Keyboard) { k.onLEDs = f }
}

// NewKeyboard returns a Keyboard writing to sink. A nil sink discards.
func NewKeyboard(sink Sink, opts ...Option) *Keyboard {
	if sink == nil {
		sink = Discard
	}
	k := &Keyboard{
		sink:   sink,
		logger: slog.Default(),
		raw:    log.NewRaw(nil),
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

// PressKey adds k and the modifiers its flags ask for.
func (k *Keyboard) PressKey(pressed key.Key) {
	k.pressModifiers(pressed.Flags())
	k.PressRawKey(pressed)
}

// ReleaseKey removes k and the modifiers its flags ask for.
func (k *Keyboard) ReleaseKey(released key.Key) {
	k.releaseModifiers(released.Flags())
	k.ReleaseRawKey(released)
}

// PressRawKey adds the keycode of k, ignoring its flags.
func (k *Keyboard) PressRawKey(pressed key.Key) {
	if pressed.Code() == 0 {
		return
	}
	k.report.Press(pressed.Code())
}

// ReleaseRawKey removes the keycode of k, ignoring its flags.
func (k *Keyboard) ReleaseRawKey(released key.Key) {
	k.report.Release(released.Code())
}

var modifierFlags = []struct {
	flag uint8
	key  key.Key
}{
	{key.ShiftHeld, key.LeftShift},
	{key.CtrlHeld, key.LeftControl},
	{key.LAltHeld, key.LeftAlt},
	{key.RAltHeld, key.RightAlt},
	{key.GUIHeld, key.LeftGUI},
}

func (k *Keyboard) pressModifiers(flags uint8) {
	for _, m := range modifierFlags {
		if flags&m.flag != 0 {
			k.PressRawKey(m.key)
		}
	}
}

func (k *Keyboard) releaseModifiers(flags uint8) {
	for _, m := range modifierFlags {
		if flags&m.flag != 0 {
			k.ReleaseRawKey(m.key)
		}
	}
}

// ReleaseAllKeys empties the pending keyboard and consumer reports.
func (k *Keyboard) ReleaseAllKeys() {
	k.report.Clear()
	k.consumer = ConsumerReport{}
}

// IsKeyPressed reports whether the keycode of k is in the pending report.
func (k *Keyboard) IsKeyPressed(pressed key.Key) bool {
	return k.report.IsPressed(pressed.Code())
}

// WasKeyPressed reports whether the keycode of k was in the last report sent.
func (k *Keyboard) WasKeyPressed(pressed key.Key) bool {
	return k.last.IsPressed(pressed.Code())
}

// IsModifierKeyActive reports whether modifier m is in the pending report.
func (k *Keyboard) IsModifierKeyActive(m key.Key) bool {
	return m.IsKeyboardModifier() && k.report.IsPressed(m.Code())
}

// WasModifierKeyActive reports whether modifier m was in the last report sent.
func (k *Keyboard) WasModifierKeyActive(m key.Key) bool {
	return m.IsKeyboardModifier() && k.last.IsPressed(m.Code())
}

// IsAnyModifierKeyActive reports whether the pending report holds a modifier.
func (k *Keyboard) IsAnyModifierKeyActive() bool { return k.report.Modifiers != 0 }

// WasAnyModifierKeyActive reports whether the last report held a modifier.
func (k *Keyboard) WasAnyModifierKeyActive() bool { return k.last.Modifiers != 0 }

// Pending returns a copy of the report being assembled.
func (k *Keyboard) Pending() KeyboardReport { return k.report }

// Last returns a copy of the last keyboard report sent.
func (k *Keyboard) Last() KeyboardReport { return k.last }

// SendReport sends the pending keyboard and consumer reports if they
// changed since the last send.
//
// Hosts mis-handle a modifier change arriving in the same report as a
// keycode change, so the transition is split. When modifiers turn on, the
// previous keycodes are sent first with the new modifiers. When modifiers
// turn off, the new keycodes are sent first with the previous modifiers.
func (k *Keyboard) SendReport() {
	k.sendKeyboardReport()
	k.sendConsumerReport()
}

func (k *Keyboard) sendKeyboardReport() {
	if k.report == k.last {
		return
	}

	changed := k.last.Modifiers ^ k.report.Modifiers
	keysChanged := k.last.KeyBitmap != k.report.KeyBitmap
	switch {
	case changed&k.report.Modifiers != 0 && keysChanged:
		interim := k.last
		interim.Modifiers = k.report.Modifiers
		k.sendKeyboard(interim)
	case changed&k.last.Modifiers != 0 && keysChanged:
		interim := k.report
		interim.Modifiers = k.last.Modifiers
		k.sendKeyboard(interim)
	}

	if k.sendKeyboard(k.report) {
		k.last = k.report
	}
}

func (k *Keyboard) sendKeyboard(r KeyboardReport) bool {
	data, _ := r.MarshalBinary()
	return k.send(ReportIDNKRO, data)
}

func (k *Keyboard) send(id ReportID, data []byte) bool {
	k.raw.Log(false, append([]byte{byte(id)}, data...))
	if err := k.sink.Send(id, data); err != nil {
		k.logger.Warn("failed to send report", "report", id, "error", err)
		return false
	}
	return true
}

// PressConsumerControl adds the usage of a consumer key.
func (k *Keyboard) PressConsumerControl(c key.Key) {
	k.consumer.Press(c.ConsumerUsage())
}

// ReleaseConsumerControl removes the usage of a consumer key.
func (k *Keyboard) ReleaseConsumerControl(c key.Key) {
	k.consumer.Release(c.ConsumerUsage())
}

func (k *Keyboard) sendConsumerReport() {
	if k.consumer == k.lastConsumer {
		return
	}
	data, _ := k.consumer.MarshalBinary()
	if k.send(ReportIDConsumer, data) {
		k.lastConsumer = k.consumer
	}
}

// PressSystemControl sends a system control press immediately.
func (k *Keyboard) PressSystemControl(s key.Key) {
	k.lastSystemCode = s.Code()
	k.send(ReportIDSystem, []byte{s.Code()})
}

// ReleaseSystemControl sends a system control release, unless another
// system key was pressed after s; releasing s would cut that one short.
func (k *Keyboard) ReleaseSystemControl(s key.Key) {
	if s.Code() != k.lastSystemCode {
		return
	}
	k.send(ReportIDSystem, []byte{0})
}

// HandleOutputReport applies an output report from the host (LED state).
func (k *Keyboard) HandleOutputReport(data []byte) error {
	k.raw.Log(true, data)
	var st LEDState
	if err := st.UnmarshalBinary(data); err != nil {
		return err
	}
	k.leds = st
	if k.onLEDs != nil {
		k.onLEDs(st)
	}
	return nil
}

// LEDs returns the LED state last set by the host.
func (k *Keyboard) LEDs() LEDState { return k.leds }
