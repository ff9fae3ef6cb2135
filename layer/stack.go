// Package layer implements the layer stack: the ordered set of active
// keymap layers, the per-address cache of which layer supplies each key,
// and the handling of layer switching keys.
package layer

import (
	"log/slog"
	"slices"

	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
	"github.com/Alia5/keypipe/livekeys"
)

// DefaultMaxActive is the default bound on the number of stack entries.
const DefaultMaxActive = 16

// Entry is one element of the stack. Shifted entries are momentary,
// the others locked.
type Entry struct {
	Layer   uint8
	Shifted bool
}

// Stack is the layer stack. The last entry has the highest priority.
// It never becomes empty: removing the last entry re-activates layer 0.
//
// Stack is not safe for concurrent use.
type Stack struct {
	src       keymap.Source
	live      *livekeys.Table
	logger    *slog.Logger
	maxActive int
	onChange  func()

	entries []Entry
	active  []uint8
}

// Option configures a Stack.
type Option func(*Stack)

// WithMaxActive bounds the stack depth. Values below 1 are ignored.
func WithMaxActive(n int) Option {
	return func(s *Stack) {
		if n > 0 {
			s.maxActive = n
		}
	}
}

// WithOnChange registers fn to run after every change of the stack.
func WithOnChange(fn func()) Option {
	return func(s *Stack) { s.onChange = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stack) { s.logger = l }
}

// New returns a stack holding only layer 0. live is consulted and updated
// by HandleLayerKey.
func New(src keymap.Source, live *livekeys.Table, opts ...Option) *Stack {
	s := &Stack{
		src:       src,
		live:      live,
		logger:    slog.Default(),
		maxActive: DefaultMaxActive,
		entries:   []Entry{{Layer: 0}},
		active:    make([]uint8, src.Layout().Len()),
	}
	for _, o := range opts {
		o(s)
	}
	s.updateActiveLayers()
	return s
}

func (s *Stack) inRange(n uint8) bool {
	return int(n) < s.src.Layers()
}

// Activate pushes n as a locked layer.
func (s *Stack) Activate(n uint8) { s.push(Entry{Layer: n}) }

// ActivateShift pushes n as a momentary layer.
func (s *Stack) ActivateShift(n uint8) { s.push(Entry{Layer: n, Shifted: true}) }

func (s *Stack) push(e Entry) {
	if !s.inRange(e.Layer) {
		return
	}
	s.entries = slices.DeleteFunc(s.entries, func(x Entry) bool { return x.Layer == e.Layer })
	if len(s.entries) >= s.maxActive {
		s.logger.Debug("layer stack full, evicting", "layer", s.entries[0].Layer)
		s.entries = slices.Delete(s.entries, 0, len(s.entries)-s.maxActive+1)
	}
	s.entries = append(s.entries, e)
	s.changed()
}

// Deactivate removes every entry for n.
func (s *Stack) Deactivate(n uint8) {
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(x Entry) bool { return x.Layer == n })
	if len(s.entries) == before {
		return
	}
	if len(s.entries) == 0 {
		s.entries = append(s.entries, Entry{Layer: 0})
	}
	s.changed()
}

// Move replaces the whole stack with n.
func (s *Stack) Move(n uint8) {
	if !s.inRange(n) {
		return
	}
	s.entries = append(s.entries[:0], Entry{Layer: n})
	s.changed()
}

// ActivateNext locks the layer above the top entry.
func (s *Stack) ActivateNext() {
	s.Activate(s.Top() + 1)
}

// DeactivateTop removes the top entry unless it is the only one.
func (s *Stack) DeactivateTop() {
	if len(s.entries) < 2 {
		return
	}
	s.Deactivate(s.Top())
}

// Refresh recomputes the per-address cache, for when the keymap source
// changed underneath the stack.
func (s *Stack) Refresh() {
	s.updateActiveLayers()
}

func (s *Stack) changed() {
	s.updateActiveLayers()
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Stack) updateActiveLayers() {
	for i := range s.active {
		a := key.Addr(i)
		s.active[i] = 0
		for j := len(s.entries) - 1; j >= 0; j-- {
			l := s.entries[j].Layer
			if s.src.Key(l, a) != key.Transparent {
				s.active[i] = l
				break
			}
		}
	}
}

// Lookup returns the raw keymap entry for n at a.
func (s *Stack) Lookup(n uint8, a key.Addr) key.Key {
	return s.src.Key(n, a)
}

// LookupActiveLayer returns the layer currently supplying a.
func (s *Stack) LookupActiveLayer(a key.Addr) uint8 {
	if !a.IsValid() || int(a) >= len(s.active) {
		return 0
	}
	return s.active[a]
}

// Resolve returns the key a produces with the current stack: the topmost
// non-transparent entry, falling back to layer 0 and then key.NoKey.
func (s *Stack) Resolve(a key.Addr) key.Key {
	if !a.IsValid() || int(a) >= len(s.active) {
		return key.NoKey
	}
	k := s.src.Key(s.active[a], a)
	if k == key.Transparent {
		return key.NoKey
	}
	return k
}

// Top returns the layer of the top entry.
func (s *Stack) Top() uint8 {
	return s.entries[len(s.entries)-1].Layer
}

// TopLocked returns the topmost layer that is not shifted, or 0.
func (s *Stack) TopLocked() uint8 {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !s.entries[i].Shifted {
			return s.entries[i].Layer
		}
	}
	return 0
}

// IsActive reports whether n has an entry in the stack.
func (s *Stack) IsActive(n uint8) bool {
	return slices.ContainsFunc(s.entries, func(e Entry) bool { return e.Layer == n })
}

// Entries returns a copy of the stack, bottom first.
func (s *Stack) Entries() []Entry {
	return slices.Clone(s.entries)
}

// State returns the active layers as a bitmask.
func (s *Stack) State() uint32 {
	var st uint32
	for _, e := range s.entries {
		st |= 1 << e.Layer
	}
	return st
}

// Layers returns the number of layers the source defines.
func (s *Stack) Layers() int { return s.src.Layers() }
