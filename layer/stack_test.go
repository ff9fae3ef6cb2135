package layer_test

import (
	"testing"

	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
	"github.com/Alia5/keypipe/layer"
	"github.com/Alia5/keypipe/livekeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ___ = key.Transparent

// testKeymap has one row of four keys:
//
//	layer 0: A    B    C    D
//	layer 1: ___  1    ___  ___
//	layer 2: ___  ___  2    ___
//	layer 3: ___  ___  ___  3
func testKeymap() *keymap.Keymap {
	return keymap.MustNew(key.Layout{Rows: 1, Cols: 4},
		[]key.Key{key.A, key.B, key.C, key.D},
		[]key.Key{___, key.Num1, ___, ___},
		[]key.Key{___, ___, key.Num2, ___},
		[]key.Key{___, ___, ___, key.Num3},
	)
}

func newStack(t *testing.T, opts ...layer.Option) (*layer.Stack, *livekeys.Table) {
	t.Helper()
	km := testKeymap()
	live := livekeys.New(km.Layout().Len())
	return layer.New(km, live, opts...), live
}

func TestInitialState(t *testing.T) {
	s, _ := newStack(t)
	assert.Equal(t, []layer.Entry{{Layer: 0}}, s.Entries())
	assert.Equal(t, uint8(0), s.Top())
	assert.Equal(t, uint32(1), s.State())
	assert.Equal(t, key.A, s.Resolve(0))
}

func TestTransparentFallsThrough(t *testing.T) {
	s, _ := newStack(t)

	s.ActivateShift(1)
	assert.Equal(t, key.A, s.Resolve(0), "layer 1 is transparent at (0,0)")
	assert.Equal(t, uint8(0), s.LookupActiveLayer(0))
	assert.Equal(t, key.Num1, s.Resolve(1))
	assert.Equal(t, uint8(1), s.LookupActiveLayer(1))

	s.Activate(3)
	s.Activate(2)
	assert.Equal(t, key.Num1, s.Resolve(1), "nearest lower active layer")
	assert.Equal(t, key.Num2, s.Resolve(2))
	assert.Equal(t, key.Num3, s.Resolve(3))
}

func TestBaseLayerTransparentResolvesToNoKey(t *testing.T) {
	km := keymap.MustNew(key.Layout{Rows: 1, Cols: 2},
		[]key.Key{___, key.A},
		[]key.Key{___, ___},
	)
	s := layer.New(km, livekeys.New(2))
	s.Activate(1)
	assert.Equal(t, key.NoKey, s.Resolve(0))
	assert.Equal(t, key.A, s.Resolve(1))
	assert.Equal(t, key.NoKey, s.Resolve(key.AddrNone))
}

func TestActivateRepromotes(t *testing.T) {
	s, _ := newStack(t)
	s.Activate(1)
	s.Activate(2)
	s.ActivateShift(1)

	assert.Equal(t, []layer.Entry{{Layer: 0}, {Layer: 2}, {Layer: 1, Shifted: true}}, s.Entries())
	assert.Equal(t, uint8(1), s.Top())
	assert.Equal(t, uint8(2), s.TopLocked())
}

func TestOutOfRangeIsNoop(t *testing.T) {
	changes := 0
	s, _ := newStack(t, layer.WithOnChange(func() { changes++ }))

	s.Activate(4)
	s.ActivateShift(31)
	s.Move(9)
	s.Deactivate(7)

	assert.Equal(t, []layer.Entry{{Layer: 0}}, s.Entries())
	assert.Zero(t, changes)
}

func TestNeverEmpty(t *testing.T) {
	type testCase struct {
		name string
		ops  func(s *layer.Stack)
	}

	cases := []testCase{
		{"deactivate base", func(s *layer.Stack) { s.Deactivate(0) }},
		{"move then deactivate", func(s *layer.Stack) {
			s.Move(2)
			s.Deactivate(2)
		}},
		{"deactivate everything", func(s *layer.Stack) {
			s.Activate(1)
			s.ActivateShift(2)
			s.Activate(3)
			for n := uint8(0); n < 4; n++ {
				s.Deactivate(n)
			}
		}},
		{"deactivate top repeatedly", func(s *layer.Stack) {
			s.Activate(1)
			s.Activate(2)
			for range 5 {
				s.DeactivateTop()
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newStack(t)
			tc.ops(s)
			require.NotEmpty(t, s.Entries())
			assert.True(t, s.IsActive(0))
			assert.Equal(t, []layer.Entry{{Layer: 0}}, s.Entries())
		})
	}
}

func TestDeactivateRemovesEveryEntry(t *testing.T) {
	s, _ := newStack(t)
	s.Activate(1)
	s.Activate(2)
	s.Deactivate(1)

	assert.Equal(t, []layer.Entry{{Layer: 0}, {Layer: 2}}, s.Entries())
	assert.False(t, s.IsActive(1))
	assert.Equal(t, key.B, s.Resolve(1))
}

func TestMoveAlwaysNotifies(t *testing.T) {
	changes := 0
	s, _ := newStack(t, layer.WithOnChange(func() { changes++ }))
	s.Activate(1)
	s.Activate(2)

	s.Move(2)
	assert.Equal(t, []layer.Entry{{Layer: 2}}, s.Entries())
	assert.Equal(t, key.A, s.Resolve(0), "base layer stays the fallback")
	assert.Equal(t, key.B, s.Resolve(1))

	s.Move(2)
	assert.Equal(t, 4, changes)
}

func TestEvictionAtMaxDepth(t *testing.T) {
	s, _ := newStack(t, layer.WithMaxActive(2))
	s.Activate(1)
	s.Activate(2)
	require.Equal(t, []layer.Entry{{Layer: 1}, {Layer: 2}}, s.Entries())
	assert.Equal(t, key.Num1, s.Resolve(1))

	s.Activate(3)
	assert.Equal(t, []layer.Entry{{Layer: 2}, {Layer: 3}}, s.Entries())
	assert.False(t, s.IsActive(1))
	assert.Equal(t, key.B, s.Resolve(1), "evicted layer no longer contributes")
	assert.Equal(t, key.Num2, s.Resolve(2))
	assert.Equal(t, key.Num3, s.Resolve(3))
	assert.Equal(t, key.A, s.Resolve(0), "base layer stays the fallback")
}

func TestActivateNext(t *testing.T) {
	s, _ := newStack(t)
	s.ActivateNext()
	s.ActivateNext()
	assert.Equal(t, uint8(2), s.Top())
	s.ActivateNext()
	s.ActivateNext()
	assert.Equal(t, uint8(3), s.Top(), "no layer 4")
	s.DeactivateTop()
	assert.Equal(t, uint8(2), s.Top())
}

func TestStateBitmask(t *testing.T) {
	s, _ := newStack(t)
	s.Activate(3)
	s.ActivateShift(1)
	assert.Equal(t, uint32(0b1011), s.State())
	assert.Equal(t, key.Num1, s.Lookup(1, 1))
	assert.Equal(t, key.Transparent, s.Lookup(1, 0))
	assert.Equal(t, 4, s.Layers())
}
