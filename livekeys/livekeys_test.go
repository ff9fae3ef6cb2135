package livekeys_test

import (
	"maps"
	"testing"

	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/livekeys"
	"github.com/stretchr/testify/assert"
)

func TestNewIsInactive(t *testing.T) {
	tbl := livekeys.New(4)
	assert.Equal(t, 4, tbl.Len())
	for a, k := range tbl.All() {
		assert.Equal(t, key.Inactive, k, "addr %v", a)
	}
}

func TestMutators(t *testing.T) {
	tbl := livekeys.New(4)

	tbl.Activate(1, key.A)
	assert.Equal(t, key.A, tbl.Get(1))
	assert.True(t, tbl.IsActive(1))

	tbl.Activate(1, key.B)
	assert.Equal(t, key.B, tbl.Get(1), "activate overwrites")

	tbl.Mask(2)
	assert.True(t, tbl.IsMasked(2))
	assert.False(t, tbl.IsActive(2))

	tbl.Clear(1)
	assert.Equal(t, key.Inactive, tbl.Get(1))

	tbl.Activate(3, key.C)
	tbl.ClearAll()
	for _, k := range tbl.All() {
		assert.Equal(t, key.Inactive, k)
	}
}

func TestInvalidAddress(t *testing.T) {
	tbl := livekeys.New(2)

	assert.Equal(t, key.Masked, tbl.Get(key.AddrNone))
	assert.Equal(t, key.Masked, tbl.Get(2))

	tbl.Activate(5, key.A)
	tbl.Mask(key.AddrNone)
	assert.False(t, tbl.IsMasked(key.AddrNone))
	assert.Equal(t, map[key.Addr]key.Key{0: key.Inactive, 1: key.Inactive}, maps.Collect(tbl.All()))
}

func TestActive(t *testing.T) {
	tbl := livekeys.New(4)
	tbl.Activate(0, key.A)
	tbl.Mask(1)
	tbl.Activate(3, key.LeftShift)

	assert.Equal(t, map[key.Addr]key.Key{0: key.A, 3: key.LeftShift}, maps.Collect(tbl.Active()))
}
