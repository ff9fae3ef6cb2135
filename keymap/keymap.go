// Package keymap holds the per-layer, per-address key tables the layer stack
// resolves against, and loads them from JSON, YAML or TOML files.
package keymap

import (
	"fmt"

	"github.com/Alia5/keypipe/key"
)

// Source supplies the raw key for a layer/address pair. It is read-only
// for the firmware.
type Source interface {
	Key(layer uint8, a key.Addr) key.Key
	Layers() int
	Layout() key.Layout
}

// Keymap is an in-memory Source.
type Keymap struct {
	layout key.Layout
	names  []string
	layers [][]key.Key
}

// New builds a keymap. Every layer must hold exactly layout.Len() keys.
func New(layout key.Layout, layers ...[]key.Key) (*Keymap, error) {
	if layout.Len() == 0 {
		return nil, fmt.Errorf("keymap: empty layout %dx%d", layout.Rows, layout.Cols)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("keymap: no layers")
	}
	if len(layers) > key.MaxLayers {
		return nil, fmt.Errorf("keymap: %d layers exceed the maximum of %d", len(layers), key.MaxLayers)
	}
	m := &Keymap{
		layout: layout,
		names:  make([]string, len(layers)),
		layers: make([][]key.Key, len(layers)),
	}
	for i, l := range layers {
		if len(l) != layout.Len() {
			return nil, fmt.Errorf("keymap: layer %d has %d keys, want %d", i, len(l), layout.Len())
		}
		m.layers[i] = append([]key.Key(nil), l...)
		m.names[i] = fmt.Sprintf("layer%d", i)
	}
	return m, nil
}

// MustNew is New for keymaps known to be valid, such as built-in defaults.
func MustNew(layout key.Layout, layers ...[]key.Key) *Keymap {
	m, err := New(layout, layers...)
	if err != nil {
		panic(err)
	}
	return m
}

// Key returns the entry for layer/a. Unknown layers read as key.Transparent,
// unknown addresses as key.NoKey.
func (m *Keymap) Key(layer uint8, a key.Addr) key.Key {
	if int(layer) >= len(m.layers) {
		return key.Transparent
	}
	if !m.layout.Contains(a) {
		return key.NoKey
	}
	return m.layers[layer][a]
}

// Layers returns the number of layers.
func (m *Keymap) Layers() int { return len(m.layers) }

// Layout returns the matrix dimensions.
func (m *Keymap) Layout() key.Layout { return m.layout }

// Name returns the display name of a layer.
func (m *Keymap) Name(layer uint8) string {
	if int(layer) >= len(m.names) {
		return ""
	}
	return m.names[layer]
}

// Rows returns one layer as rows of keys.
func (m *Keymap) Rows(layer uint8) [][]key.Key {
	if int(layer) >= len(m.layers) {
		return nil
	}
	rows := make([][]key.Key, m.layout.Rows)
	cols := int(m.layout.Cols)
	for r := range rows {
		rows[r] = append([]key.Key(nil), m.layers[layer][r*cols:(r+1)*cols]...)
	}
	return rows
}
