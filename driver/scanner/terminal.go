package scanner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
	"golang.org/x/term"
)

const ctrlC = 0x03

// Terminal turns characters typed on a terminal into key switch
// transitions. Each character is mapped to the address whose base layer
// key types it; shifted characters also hold the address of a shift key.
// A character is pressed in one cycle and released in the next.
type Terminal struct {
	logger  *slog.Logger
	in      io.Reader
	restore func() error

	chars chan byte
	done  atomic.Bool

	addrs   map[key.Key]key.Addr
	shift   key.Addr
	pending []firmware.Transition
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithTerminalLogger sets the logger for unmapped characters.
func WithTerminalLogger(l *slog.Logger) TerminalOption {
	return func(t *Terminal) { t.logger = l }
}

// NewTerminal reads from in. When in is a terminal it is switched to raw
// mode until Close. Mapping uses layer 0 of km.
func NewTerminal(in io.Reader, km keymap.Source, opts ...TerminalOption) (*Terminal, error) {
	t := &Terminal{
		logger: slog.Default(),
		in:     in,
		chars:  make(chan byte, 64),
		addrs:  map[key.Key]key.Addr{},
		shift:  key.AddrNone,
	}
	for _, o := range opts {
		o(t)
	}

	for a := range km.Layout().All() {
		k := km.Key(0, a)
		if !k.IsKeyboardKey() || k == key.NoKey {
			continue
		}
		if k.Code() == key.LeftShift.Code() || k.Code() == key.RightShift.Code() {
			if t.shift == key.AddrNone {
				t.shift = a
			}
			continue
		}
		if _, ok := t.addrs[k]; !ok {
			t.addrs[k] = a
		}
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return nil, fmt.Errorf("raw mode: %w", err)
		}
		t.restore = func() error { return term.Restore(int(f.Fd()), state) }
	}

	go t.read()
	return t, nil
}

func (t *Terminal) read() {
	buf := make([]byte, 1)
	for {
		n, err := t.in.Read(buf)
		if n == 1 {
			if buf[0] == ctrlC {
				t.done.Store(true)
				return
			}
			t.chars <- buf[0]
		}
		if err != nil {
			t.done.Store(true)
			return
		}
	}
}

// ScanCycle releases what the previous cycle pressed, then presses at most
// one newly typed character.
func (t *Terminal) ScanCycle(yield func(firmware.Transition)) {
	if len(t.pending) > 0 {
		for _, tr := range t.pending {
			yield(tr)
		}
		t.pending = t.pending[:0]
		return
	}

	select {
	case c := <-t.chars:
		t.press(c, yield)
	default:
	}
}

func (t *Terminal) press(c byte, yield func(firmware.Transition)) {
	if c == '\r' {
		c = '\n'
	}
	k, ok := key.CharToKey[c]
	if !ok {
		t.logger.Debug("unmapped character", "char", c)
		return
	}
	a, ok := t.addrs[k]
	if !ok {
		t.logger.Debug("no key types character", "char", string(c), "key", k)
		return
	}

	if key.ShiftChars[c] && t.shift != key.AddrNone {
		yield(firmware.Transition{Addr: t.shift, Pressed: true})
		t.pending = append(t.pending, firmware.Transition{Addr: t.shift})
	}
	yield(firmware.Transition{Addr: a, Pressed: true})
	t.pending = append(t.pending, firmware.Transition{Addr: a})
}

// Done reports whether Ctrl-C was typed or the input ended. Pending
// releases are delivered first.
func (t *Terminal) Done() bool {
	return t.done.Load() && len(t.pending) == 0 && len(t.chars) == 0
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	if t.restore == nil {
		return nil
	}
	return t.restore()
}
