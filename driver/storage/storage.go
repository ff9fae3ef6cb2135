// Package storage implements byte-addressable non-volatile stores for the
// firmware. Bytes never written read as 0xFF, like erased EEPROM.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Erased is the value of a byte that was never written.
const Erased = 0xFF

var ErrOutOfRange = errors.New("storage: access out of range")

// Memory is a volatile store. Commit is a no-op.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory returns an erased store of size bytes.
func NewMemory(size int) *Memory {
	return &Memory{data: bytes.Repeat([]byte{Erased}, size)}
}

func (m *Memory) Len() int { return len(m.data) }

func (m *Memory) Get(off int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !inRange(len(m.data), off, len(p)) {
		return fmt.Errorf("%w: get %d bytes at %d", ErrOutOfRange, len(p), off)
	}
	copy(p, m.data[off:])
	return nil
}

func (m *Memory) Put(off int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !inRange(len(m.data), off, len(p)) {
		return fmt.Errorf("%w: put %d bytes at %d", ErrOutOfRange, len(p), off)
	}
	copy(m.data[off:], p)
	return nil
}

func (m *Memory) Commit() error { return nil }

// Snapshot returns a copy of the whole image.
func (m *Memory) Snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.data)
}

func inRange(size, off, n int) bool {
	return off >= 0 && n >= 0 && off+n <= size
}

// File is a store backed by an image file. Writes stay in memory until
// Commit replaces the file atomically.
type File struct {
	mem   *Memory
	path  string
	dirty bool
}

// OpenFile loads the image at path, or starts an erased one when the file
// does not exist. An image of another size is cut or padded with erased
// bytes.
func OpenFile(path string, size int) (*File, error) {
	mem := NewMemory(size)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read storage image: %w", err)
	default:
		copy(mem.data, data)
	}
	return &File{mem: mem, path: path}, nil
}

func (f *File) Len() int { return f.mem.Len() }

func (f *File) Get(off int, p []byte) error { return f.mem.Get(off, p) }

func (f *File) Put(off int, p []byte) error {
	if err := f.mem.Put(off, p); err != nil {
		return err
	}
	f.dirty = true
	return nil
}

// Commit writes the image if anything changed since the last commit.
func (f *File) Commit() error {
	if !f.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(f.mem.Snapshot()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace storage image: %w", err)
	}
	f.dirty = false
	return nil
}
