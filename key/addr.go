package key

import (
	"fmt"
	"iter"
)

// Addr identifies one physical key position as a flat index into a Layout.
type Addr uint16

// AddrNone is the reserved "no address" value carried by synthetic events.
const AddrNone Addr = 0xFFFF

// IsValid reports whether a is not the AddrNone sentinel. Bounds against a
// concrete matrix are checked by Layout.Contains.
func (a Addr) IsValid() bool { return a != AddrNone }

// Int returns the flat index of a.
func (a Addr) Int() int { return int(a) }

func (a Addr) String() string {
	if a == AddrNone {
		return "none"
	}
	return fmt.Sprintf("#%d", uint16(a))
}

// Layout describes the key matrix of one hardware configuration.
type Layout struct {
	Rows uint8 `json:"rows" yaml:"rows" toml:"rows"`
	Cols uint8 `json:"cols" yaml:"cols" toml:"cols"`
}

// Len returns the number of addresses in the matrix.
func (l Layout) Len() int { return int(l.Rows) * int(l.Cols) }

// Addr returns the address at row/col, or AddrNone if it lies outside the matrix.
func (l Layout) Addr(row, col uint8) Addr {
	if row >= l.Rows || col >= l.Cols {
		return AddrNone
	}
	return Addr(uint16(row)*uint16(l.Cols) + uint16(col))
}

// FromInt converts a flat index back to an address, bounds-checked.
func (l Layout) FromInt(i int) Addr {
	if i < 0 || i >= l.Len() {
		return AddrNone
	}
	return Addr(i)
}

// Contains reports whether a is a valid address for this matrix.
func (l Layout) Contains(a Addr) bool {
	return a.IsValid() && int(a) < l.Len()
}

// RowCol splits a into its row and column.
func (l Layout) RowCol(a Addr) (row, col uint8, ok bool) {
	if !l.Contains(a) {
		return 0, 0, false
	}
	return uint8(int(a) / int(l.Cols)), uint8(int(a) % int(l.Cols)), true
}

// All yields every address of the matrix in index order.
func (l Layout) All() iter.Seq[Addr] {
	return func(yield func(Addr) bool) {
		for i := 0; i < l.Len(); i++ {
			if !yield(Addr(i)) {
				return
			}
		}
	}
}

// Format renders a as "(row,col)".
func (l Layout) Format(a Addr) string {
	r, c, ok := l.RowCol(a)
	if !ok {
		return a.String()
	}
	return fmt.Sprintf("(%d,%d)", r, c)
}
