// Package spacecadet makes modifier keys type a symbol when tapped alone:
// by default the shift keys type parentheses. A held SpaceCadet key, or
// one pressed together with another key, acts as its normal self.
package spacecadet

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/key"
)

// Mode selects how presses of SpaceCadet keys are treated.
type Mode uint8

const (
	// ModeOn holds back the press until it is clear whether it is a tap.
	ModeOn Mode = iota
	// ModeOff disables the plugin.
	ModeOff
	// ModeNoDelay sends the modifier press at once and replaces it with
	// the tap key when the key turns out to be tapped.
	ModeNoDelay
)

// DefaultTimeout is how long a SpaceCadet key may be held and still count
// as a tap.
const DefaultTimeout = 200 * time.Millisecond

const (
	queueCapacity = 4
	settingsSize  = 3
)

// Keys switching the plugin on and off.
var (
	EnableKey  = key.New(0x10, key.Synthetic|key.IsInternal)
	DisableKey = key.New(0x11, key.Synthetic|key.IsInternal)
)

// Binding maps a key to the key it types when tapped. A zero Timeout uses
// the plugin timeout.
type Binding struct {
	Input   key.Key
	Output  key.Key
	Timeout time.Duration
}

// DefaultBindings type ( and ) with the shift keys.
var DefaultBindings = []Binding{
	{Input: key.LeftShift, Output: key.LShift(key.Num9)},
	{Input: key.RightShift, Output: key.LShift(key.Num0)},
}

type queued struct {
	ev key.Event
	at time.Time
}

// Plugin is the SpaceCadet plugin.
type Plugin struct {
	bindings []Binding
	timeout  time.Duration
	mode     Mode
	settings int

	queue   []queued
	pending int
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithBindings replaces the default bindings.
func WithBindings(b ...Binding) Option {
	return func(p *Plugin) { p.bindings = b }
}

// WithTimeout sets the plugin timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Plugin) { p.timeout = d }
}

// WithMode sets the initial mode.
func WithMode(m Mode) Option {
	return func(p *Plugin) { p.mode = m }
}

// WithSettingsAt keeps mode and timeout in firmware storage at off. Stored
// settings override the options on setup; erased storage keeps them.
func WithSettingsAt(off int) Option {
	return func(p *Plugin) { p.settings = off }
}

func New(opts ...Option) *Plugin {
	p := &Plugin{
		bindings: DefaultBindings,
		timeout:  DefaultTimeout,
		mode:     ModeOn,
		settings: -1,
		queue:    make([]queued, 0, queueCapacity),
		pending:  -1,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Plugin) Name() string { return "SpaceCadet" }

// Mode returns the current mode.
func (p *Plugin) Mode() Mode { return p.mode }

// Timeout returns the plugin timeout.
func (p *Plugin) Timeout() time.Duration { return p.timeout }

func (p *Plugin) OnSetup(fw *firmware.Context) firmware.Result {
	store := fw.Storage()
	if p.settings < 0 || store == nil {
		return firmware.Continue
	}
	buf := make([]byte, settingsSize)
	if err := store.Get(p.settings, buf); err != nil {
		fw.Logger().Warn("spacecadet settings unavailable", "error", err)
		return firmware.Continue
	}
	switch m := Mode(buf[0]); m {
	case ModeOn, ModeOff, ModeNoDelay:
		p.mode = m
		p.timeout = time.Duration(binary.LittleEndian.Uint16(buf[1:])) * time.Millisecond
	}
	return firmware.Continue
}

func (p *Plugin) OnKeyswitchEvent(fw *firmware.Context, ev *key.Event) firmware.Result {
	if !ev.Addr.IsValid() || ev.State.IsInjected() {
		return firmware.Continue
	}

	if ev.State.ToggledOn() {
		switch ev.Key {
		case EnableKey:
			p.mode = ModeOn
			return firmware.Consumed
		case DisableKey:
			p.mode = ModeOff
			return firmware.Consumed
		}
	}

	if p.mode == ModeOff {
		return firmware.Continue
	}

	if len(p.queue) > 0 {
		if ev.State.ToggledOff() {
			if ev.Addr == p.queue[0].ev.Addr {
				p.flushEvent(fw, true)
			} else if len(p.queue) < queueCapacity {
				p.queue = append(p.queue, queued{ev: *ev, at: fw.Now()})
				return firmware.Abort
			}
		}
		p.flushQueue(fw)
	}

	if ev.State.ToggledOn() {
		if p.pending = p.index(ev.Key); p.pending >= 0 {
			if p.mode == ModeNoDelay {
				fw.HandleKeyEvent(*ev)
			}
			p.queue = append(p.queue, queued{ev: *ev, at: fw.Now()})
			return firmware.Abort
		}
	}
	return firmware.Continue
}

// AfterEachCycle resolves a held SpaceCadet key as its normal self once
// its timeout expired.
func (p *Plugin) AfterEachCycle(fw *firmware.Context) firmware.Result {
	if len(p.queue) == 0 {
		return firmware.Continue
	}
	timeout := p.timeout
	if p.pending >= 0 && p.bindings[p.pending].Timeout != 0 {
		timeout = p.bindings[p.pending].Timeout
	}
	if fw.HasTimeExpired(p.queue[0].at, timeout) {
		p.flushQueue(fw)
	}
	return firmware.Continue
}

func (p *Plugin) index(k key.Key) int {
	for i, b := range p.bindings {
		if b.Input == k {
			return i
		}
	}
	return -1
}

func (p *Plugin) flushQueue(fw *firmware.Context) {
	for len(p.queue) > 0 {
		p.flushEvent(fw, false)
	}
}

func (p *Plugin) flushEvent(fw *firmware.Context, tap bool) {
	ev := p.queue[0].ev
	if tap && p.pending >= 0 {
		if p.mode == ModeNoDelay {
			fw.HandleKeyEvent(key.Release(ev.Addr))
		}
		ev.Key = p.bindings[p.pending].Output
	}
	p.queue = append(p.queue[:0], p.queue[1:]...)
	fw.HandleKeyEvent(ev)
}

func (p *Plugin) OnFocusEvent(fw *firmware.Context, cmd *firmware.FocusCommand) firmware.Result {
	switch cmd.Command {
	case "help":
		cmd.Println("spacecadet.mode\nspacecadet.timeout")
		return firmware.Continue
	case "spacecadet.mode":
		if len(cmd.Args) == 0 {
			cmd.Println(uint8(p.mode))
			break
		}
		n, err := strconv.ParseUint(cmd.Args[0], 10, 8)
		if err != nil {
			cmd.Fail(fmt.Errorf("spacecadet mode %q: %w", cmd.Args[0], err))
			break
		}
		switch m := Mode(n); m {
		case ModeOn, ModeNoDelay:
			p.mode = m
		default:
			p.mode = ModeOff
		}
		p.save(fw, cmd)
	case "spacecadet.timeout":
		if len(cmd.Args) == 0 {
			cmd.Println(p.timeout.Milliseconds())
			break
		}
		ms, err := strconv.ParseUint(cmd.Args[0], 10, 16)
		if err != nil {
			cmd.Fail(fmt.Errorf("spacecadet timeout %q: %w", cmd.Args[0], err))
			break
		}
		p.timeout = time.Duration(ms) * time.Millisecond
		p.save(fw, cmd)
	default:
		return firmware.Continue
	}
	return firmware.Consumed
}

func (p *Plugin) save(fw *firmware.Context, cmd *firmware.FocusCommand) {
	store := fw.Storage()
	if p.settings < 0 || store == nil {
		return
	}
	buf := make([]byte, settingsSize)
	buf[0] = byte(p.mode)
	binary.LittleEndian.PutUint16(buf[1:], uint16(p.timeout.Milliseconds()))
	if err := store.Put(p.settings, buf); err != nil {
		cmd.Fail(fmt.Errorf("save spacecadet settings: %w", err))
		return
	}
	if err := store.Commit(); err != nil {
		cmd.Fail(fmt.Errorf("commit spacecadet settings: %w", err))
	}
}
