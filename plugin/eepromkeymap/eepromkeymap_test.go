package eepromkeymap_test

import (
	"testing"

	"github.com/Alia5/keypipe/driver/storage"
	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
	"github.com/Alia5/keypipe/plugin/eepromkeymap"
	"github.com/Alia5/keypipe/plugin/focus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var builtin = keymap.MustNew(key.Layout{Rows: 1, Cols: 2}, []key.Key{key.A, key.B})

func newFirmware(t *testing.T, store *storage.Memory) (*firmware.Context, *eepromkeymap.Plugin) {
	t.Helper()
	ek, err := eepromkeymap.New(builtin, store, 2)
	require.NoError(t, err)
	fw := firmware.New(ek, nil, []firmware.Plugin{focus.New(), ek}, firmware.WithStorage(store))
	fw.Setup()
	return fw, ek
}

func TestErasedLayersAreTransparent(t *testing.T) {
	fw, ek := newFirmware(t, storage.NewMemory(9))

	assert.Equal(t, 9, ek.Size())
	assert.Equal(t, 3, ek.Layers())
	assert.Equal(t, key.Transparent, ek.Key(1, 0))
	assert.Equal(t, key.A, ek.Key(0, 0))
	assert.Equal(t, key.NoKey, ek.Custom(2, 0))

	fw.Layers.Activate(2)
	assert.Equal(t, key.B, fw.Layers.Resolve(1))
	assert.Equal(t, "65535 65535\n65535 65535", focus.Execute(fw, "keymap.custom").Text)
	assert.Equal(t, "4 5", focus.Execute(fw, "keymap.default").Text)
}

func TestCustomUpdate(t *testing.T) {
	store := storage.NewMemory(9)
	fw, ek := newFirmware(t, store)

	require.NoError(t, focus.Execute(fw, "keymap.custom 30 ___ XXX LSHIFT(C)").Err)
	assert.Equal(t, key.Num1, ek.Key(1, 0))
	assert.Equal(t, key.LShift(key.C), ek.Key(2, 1))

	fw.Layers.Activate(1)
	assert.Equal(t, key.Num1, fw.Layers.Resolve(0))
	assert.Equal(t, key.B, fw.Layers.Resolve(1))
	assert.Equal(t, "30 65535\n0 2054", focus.Execute(fw, "keymap.custom").Text)

	assert.Error(t, focus.Execute(fw, "keymap.custom 30 bogus").Err)
}

func TestCustomUpdateRejectsBadKeyWithoutStoring(t *testing.T) {
	store := storage.NewMemory(9)
	fw, ek := newFirmware(t, store)
	require.NoError(t, focus.Execute(fw, "keymap.custom 30").Err)

	assert.Error(t, focus.Execute(fw, "keymap.custom 40 41 bogus").Err)
	assert.Equal(t, key.Num1, ek.Key(1, 0))
	assert.Equal(t, "30 65535\n65535 65535", focus.Execute(fw, "keymap.custom").Text)

	fw.Layers.Activate(1)
	assert.Equal(t, key.Num1, fw.Layers.Resolve(0))
}

func TestOnlyCustom(t *testing.T) {
	store := storage.NewMemory(9)
	fw, ek := newFirmware(t, store)
	require.NoError(t, focus.Execute(fw, "keymap.custom 30 31").Err)

	assert.Equal(t, "0", focus.Execute(fw, "keymap.onlyCustom").Text)
	require.NoError(t, focus.Execute(fw, "keymap.onlyCustom 1").Err)
	assert.True(t, ek.OnlyCustom())
	assert.Equal(t, 2, ek.Layers())
	assert.Equal(t, key.Num1, fw.Layers.Resolve(0))

	_, again := newFirmware(t, store)
	assert.True(t, again.OnlyCustom())
}

func TestNewValidates(t *testing.T) {
	_, err := eepromkeymap.New(builtin, storage.NewMemory(8), 2)
	assert.Error(t, err)

	_, err = eepromkeymap.New(builtin, storage.NewMemory(1024), 32)
	assert.Error(t, err)

	_, err = eepromkeymap.New(builtin, nil, 1)
	assert.Error(t, err)
}
