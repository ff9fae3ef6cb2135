//go:build linux

package gadget

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

type device struct {
	fd int
}

// Open opens a gadget node non-blocking so a stalled host never blocks the
// firmware loop.
func Open(path string) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &device{fd: fd}, nil
}

func (d *device) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(d.fd, p)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, ErrBusy
		case err != nil:
			return 0, err
		case n < len(p):
			return n, fmt.Errorf("short report write: %d of %d bytes", n, len(p))
		}
		return n, nil
	}
}

func (d *device) ReadReport(p []byte) (int, error) {
	for {
		n, err := unix.Read(d.fd, p)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, nil
		case err != nil:
			return 0, err
		}
		return n, nil
	}
}

func (d *device) Close() error { return unix.Close(d.fd) }
