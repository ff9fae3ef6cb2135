package hid

import (
	"fmt"
	"io"
	"sync"
)

// Format selects how a WriterSink encodes keyboard reports.
type Format string

const (
	// FormatNKRO writes the report id followed by the report payload.
	FormatNKRO Format = "nkro"
	// FormatBoot writes 8-byte boot protocol keyboard reports, as a gadget
	// such as /dev/hidg0 configured with the boot descriptor expects.
	// Consumer and system reports are dropped.
	FormatBoot Format = "boot"
)

// WriterSink writes each report to w in one Write call.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer, format Format) (*WriterSink, error) {
	switch format {
	case FormatNKRO, FormatBoot:
	case "":
		format = FormatNKRO
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	return &WriterSink{w: w, format: format}, nil
}

func (s *WriterSink) Send(id ReportID, data []byte) error {
	var frame []byte
	switch s.format {
	case FormatBoot:
		if id != ReportIDNKRO {
			return nil
		}
		var r KeyboardReport
		if err := r.UnmarshalBinary(data); err != nil {
			return err
		}
		frame = r.BootReport()
	default:
		frame = make([]byte, 0, len(data)+1)
		frame = append(frame, byte(id))
		frame = append(frame, data...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(frame); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
