// Package livekeys holds the table of keys currently in effect, one entry
// per physical address.
package livekeys

import (
	"iter"

	"github.com/Alia5/keypipe/key"
)

// Table maps every address to the key it currently contributes to the
// outgoing reports. Idle entries hold key.Inactive.
//
// Table is not safe for concurrent use; it belongs to the firmware loop.
type Table struct {
	keys []key.Key
}

// New returns a table for n addresses with every entry inactive.
func New(n int) *Table {
	t := &Table{keys: make([]key.Key, n)}
	t.ClearAll()
	return t
}

// Len returns the number of addresses.
func (t *Table) Len() int { return len(t.keys) }

func (t *Table) valid(a key.Addr) bool {
	return a.IsValid() && int(a) < len(t.keys)
}

// Get returns the key at a. Addresses outside the table read as key.Masked.
func (t *Table) Get(a key.Addr) key.Key {
	if !t.valid(a) {
		return key.Masked
	}
	return t.keys[a]
}

// Activate sets the entry for a to k, overwriting whatever was there.
func (t *Table) Activate(a key.Addr, k key.Key) {
	if t.valid(a) {
		t.keys[a] = k
	}
}

// Clear marks a as inactive.
func (t *Table) Clear(a key.Addr) {
	t.Activate(a, key.Inactive)
}

// Mask suppresses a until its next release.
func (t *Table) Mask(a key.Addr) {
	t.Activate(a, key.Masked)
}

// IsMasked reports whether a is masked.
func (t *Table) IsMasked(a key.Addr) bool {
	return t.valid(a) && t.keys[a] == key.Masked
}

// IsActive reports whether a holds a key that is neither inactive nor masked.
func (t *Table) IsActive(a key.Addr) bool {
	k := t.Get(a)
	return k != key.Inactive && k != key.Masked
}

// ClearAll marks every entry inactive.
func (t *Table) ClearAll() {
	for i := range t.keys {
		t.keys[i] = key.Inactive
	}
}

// All yields every address with its entry, inactive ones included.
func (t *Table) All() iter.Seq2[key.Addr, key.Key] {
	return func(yield func(key.Addr, key.Key) bool) {
		for i, k := range t.keys {
			if !yield(key.Addr(i), k) {
				return
			}
		}
	}
}

// Active yields the addresses holding a key that is neither inactive nor masked.
func (t *Table) Active() iter.Seq2[key.Addr, key.Key] {
	return func(yield func(key.Addr, key.Key) bool) {
		for i, k := range t.keys {
			if k == key.Inactive || k == key.Masked {
				continue
			}
			if !yield(key.Addr(i), k) {
				return
			}
		}
	}
}
