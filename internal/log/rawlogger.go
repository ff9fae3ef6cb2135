package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger dumps HID reports as they cross the wire.
type RawLogger interface {
	// Log records one report. in is true for reports from the host
	// (LED output reports), false for reports the keyboard sends.
	Log(in bool, data []byte)
}

type rawLogger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewRaw returns a RawLogger writing to w; a nil w discards everything.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, now: time.Now}
}

func (r *rawLogger) Log(in bool, data []byte) {
	if r.w == nil || len(data) == 0 {
		return
	}
	dir := "out"
	if in {
		dir = "in"
	}
	line := fmt.Sprintf("%s %-3s %d bytes: % x\n", r.now().Format("15:04:05.000"), dir, len(data), data)

	r.mu.Lock()
	_, _ = io.WriteString(r.w, line)
	r.mu.Unlock()
}
