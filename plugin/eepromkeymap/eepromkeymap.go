// Package eepromkeymap keeps extra keymap layers in firmware storage, where
// they can be edited at runtime through Focus commands.
//
// Custom layers are appended after the built-in ones, or replace them when
// "only custom" is set. The storage slice starts with the only-custom flag
// byte, followed by the custom layers, two bytes per key, flags first.
// Erased storage reads as Transparent keys.
package eepromkeymap

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
)

const onlyCustomSet = 1

// Plugin is both the keymap source of the firmware and the plugin serving
// the keymap Focus commands. Pass it to firmware.New as the keymap and
// register it as a plugin.
type Plugin struct {
	builtin   keymap.Source
	store     firmware.Storage
	base      int
	maxLayers int
	logger    *slog.Logger

	onlyCustom bool
}

var _ keymap.Source = (*Plugin)(nil)

// Option configures a Plugin.
type Option func(*Plugin)

// WithBase sets the storage offset of the slice.
func WithBase(off int) Option {
	return func(p *Plugin) { p.base = off }
}

// WithLogger sets the logger for storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Plugin) { p.logger = l }
}

// New keeps up to maxLayers custom layers on top of builtin.
func New(builtin keymap.Source, store firmware.Storage, maxLayers int, opts ...Option) (*Plugin, error) {
	p := &Plugin{
		builtin:   builtin,
		store:     store,
		maxLayers: maxLayers,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	if maxLayers < 1 || builtin.Layers()+maxLayers > key.MaxLayers {
		return nil, fmt.Errorf("custom layers: %d does not fit next to %d built-in layers", maxLayers, builtin.Layers())
	}
	if need := p.base + p.Size(); store == nil || store.Len() < need {
		return nil, fmt.Errorf("custom layers: storage must hold %d bytes", need)
	}

	var flag [1]byte
	if err := store.Get(p.base, flag[:]); err != nil {
		return nil, fmt.Errorf("read keymap flags: %w", err)
	}
	p.onlyCustom = flag[0] == onlyCustomSet
	return p, nil
}

// Size returns the number of storage bytes the plugin uses.
func (p *Plugin) Size() int { return Size(p.builtin.Layout(), p.maxLayers) }

// Size returns the storage needed for maxLayers custom layers of layout.
func Size(layout key.Layout, maxLayers int) int {
	return 1 + maxLayers*layout.Len()*2
}

func (p *Plugin) Name() string { return "EEPROMKeymap" }

func (p *Plugin) Layout() key.Layout { return p.builtin.Layout() }

func (p *Plugin) Layers() int {
	if p.onlyCustom {
		return p.maxLayers
	}
	return p.builtin.Layers() + p.maxLayers
}

func (p *Plugin) Key(layer uint8, a key.Addr) key.Key {
	if p.onlyCustom {
		return p.Custom(layer, a)
	}
	if int(layer) < p.builtin.Layers() {
		return p.builtin.Key(layer, a)
	}
	return p.Custom(layer-uint8(p.builtin.Layers()), a)
}

// Custom returns the stored key of custom layer n.
func (p *Plugin) Custom(n uint8, a key.Addr) key.Key {
	if int(n) >= p.maxLayers || !p.Layout().Contains(a) {
		return key.NoKey
	}
	var buf [2]byte
	if err := p.store.Get(p.offset(int(n)*p.Layout().Len()+a.Int()), buf[:]); err != nil {
		p.logger.Warn("read custom key", "layer", n, "addr", a, "error", err)
		return key.NoKey
	}
	return key.Key(binary.BigEndian.Uint16(buf[:]))
}

func (p *Plugin) offset(i int) int { return p.base + 1 + i*2 }

func (p *Plugin) put(i int, k key.Key) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], k.Raw())
	return p.store.Put(p.offset(i), buf[:])
}

// OnlyCustom reports whether the built-in layers are hidden.
func (p *Plugin) OnlyCustom() bool { return p.onlyCustom }

// SetOnlyCustom hides or shows the built-in layers and stores the choice.
func (p *Plugin) SetOnlyCustom(fw *firmware.Context, v bool) error {
	flag := []byte{0}
	if v {
		flag[0] = onlyCustomSet
	}
	if err := p.store.Put(p.base, flag); err != nil {
		return err
	}
	if err := p.store.Commit(); err != nil {
		return err
	}
	p.onlyCustom = v
	fw.Layers.Move(0)
	return nil
}

func (p *Plugin) OnFocusEvent(fw *firmware.Context, cmd *firmware.FocusCommand) firmware.Result {
	switch cmd.Command {
	case "help":
		cmd.Println("keymap.custom\nkeymap.default\nkeymap.onlyCustom")
		return firmware.Continue
	case "keymap.onlyCustom":
		if len(cmd.Args) == 0 {
			if p.onlyCustom {
				cmd.Println(1)
			} else {
				cmd.Println(0)
			}
			break
		}
		if err := p.SetOnlyCustom(fw, cmd.Args[0] != "0"); err != nil {
			cmd.Fail(fmt.Errorf("set only custom: %w", err))
		}
	case "keymap.default":
		dump(cmd, p.builtin.Layers(), p.builtin.Layout(), p.builtin.Key)
	case "keymap.custom":
		if len(cmd.Args) == 0 {
			dump(cmd, p.maxLayers, p.Layout(), p.Custom)
			break
		}
		p.update(fw, cmd)
	default:
		return firmware.Continue
	}
	return firmware.Consumed
}

// update stores the keys given as arguments, from the first key of the
// first custom layer on. Keys may be raw numbers or names. Nothing is
// stored unless every argument parses.
func (p *Plugin) update(fw *firmware.Context, cmd *firmware.FocusCommand) {
	args := cmd.Args
	if total := p.maxLayers * p.Layout().Len(); len(args) > total {
		args = args[:total]
	}
	keys := make([]key.Key, len(args))
	for i, arg := range args {
		k, err := parseKey(arg)
		if err != nil {
			cmd.Fail(fmt.Errorf("key %d: %w", i, err))
			return
		}
		keys[i] = k
	}

	// Refresh even on failure: keys stored before it already changed the map.
	defer fw.Layers.Refresh()
	for i, k := range keys {
		if err := p.put(i, k); err != nil {
			cmd.Fail(fmt.Errorf("store key %d: %w", i, err))
			return
		}
	}
	if err := p.store.Commit(); err != nil {
		cmd.Fail(fmt.Errorf("commit keymap: %w", err))
	}
}

// parseKey reads a raw decimal key value, as dumps print them, or a key
// name. Digits are raw values here, not the number row keys.
func parseKey(s string) (key.Key, error) {
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return key.Key(n), nil
	}
	return key.Parse(s)
}

// dump prints every key of every layer as a raw number, one layer per line.
func dump(cmd *firmware.FocusCommand, layers int, layout key.Layout, get func(uint8, key.Addr) key.Key) {
	for l := range layers {
		vals := make([]string, 0, layout.Len())
		for a := range layout.All() {
			vals = append(vals, fmt.Sprint(get(uint8(l), a).Raw()))
		}
		cmd.Println(strings.Join(vals, " "))
	}
}
