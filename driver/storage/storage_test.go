package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Alia5/keypipe/driver/storage"
	"github.com/Alia5/keypipe/firmware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ firmware.Storage = (*storage.Memory)(nil)
	_ firmware.Storage = (*storage.File)(nil)
)

func TestMemory(t *testing.T) {
	m := storage.NewMemory(8)
	assert.Equal(t, 8, m.Len())

	buf := make([]byte, 4)
	require.NoError(t, m.Get(0, buf))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf)

	require.NoError(t, m.Put(2, []byte{1, 2}))
	require.NoError(t, m.Get(0, buf))
	assert.Equal(t, []byte{0xFF, 0xFF, 1, 2}, buf)
	require.NoError(t, m.Commit())
}

func TestMemoryBounds(t *testing.T) {
	type testCase struct {
		name string
		off  int
		n    int
	}

	cases := []testCase{
		{name: "negative offset", off: -1, n: 1},
		{name: "past end", off: 7, n: 2},
		{name: "start past end", off: 9, n: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := storage.NewMemory(8)
			assert.ErrorIs(t, m.Get(tc.off, make([]byte, tc.n)), storage.ErrOutOfRange)
			assert.ErrorIs(t, m.Put(tc.off, make([]byte, tc.n)), storage.ErrOutOfRange)
		})
	}
}

func TestFileCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "eeprom.bin")

	f, err := storage.OpenFile(path, 4)
	require.NoError(t, err)
	require.NoError(t, f.Put(1, []byte{0x42}))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is written before commit")

	require.NoError(t, f.Commit())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x42, 0xFF, 0xFF}, data)

	again, err := storage.OpenFile(path, 6)
	require.NoError(t, err)
	buf := make([]byte, 6)
	require.NoError(t, again.Get(0, buf))
	assert.Equal(t, []byte{0xFF, 0x42, 0xFF, 0xFF, 0xFF, 0xFF}, buf)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed")
}
