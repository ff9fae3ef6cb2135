// Package gadget talks to a USB HID gadget function such as /dev/hidg0.
// Reports written to it go to the host; LED output reports from the host
// are polled once per cycle by LEDPoller.
package gadget

import (
	"errors"
	"io"

	"github.com/Alia5/keypipe/firmware"
)

// ErrBusy means the host has not picked up the previous report.
var ErrBusy = errors.New("gadget busy")

// ErrUnsupported is returned by Open on platforms without HID gadgets.
var ErrUnsupported = errors.New("HID gadget output needs Linux")

// ReportReader returns one pending output report, or 0 and no error when
// nothing is waiting.
type ReportReader interface {
	ReadReport(p []byte) (int, error)
}

// Device is an open gadget endpoint.
type Device interface {
	io.WriteCloser
	ReportReader
}

// LEDPoller is a plugin handing host output reports to the keyboard.
type LEDPoller struct {
	r   ReportReader
	buf [8]byte
}

func NewLEDPoller(r ReportReader) *LEDPoller { return &LEDPoller{r: r} }

func (p *LEDPoller) Name() string { return "HostLEDs" }

func (p *LEDPoller) BeforeEachCycle(fw *firmware.Context) firmware.Result {
	for {
		n, err := p.r.ReadReport(p.buf[:])
		if err != nil {
			fw.Logger().Warn("read output report", "error", err)
			return firmware.Continue
		}
		if n == 0 {
			return firmware.Continue
		}
		if err := fw.HID.HandleOutputReport(p.buf[:n]); err != nil {
			fw.Logger().Debug("bad output report", "error", err)
		}
	}
}
