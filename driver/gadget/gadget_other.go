//go:build !linux

package gadget

func Open(path string) (Device, error) { return nil, ErrUnsupported }
