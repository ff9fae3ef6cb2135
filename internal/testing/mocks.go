package testing

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Alia5/keypipe/hid"
)

// Report is one report captured by a RecorderSink.
type Report struct {
	ID   hid.ReportID
	Data []byte
}

// RecorderSink is a hid.Sink that keeps every report it is given.
type RecorderSink struct {
	mu      sync.Mutex
	reports []Report
	// Fail makes Send return an error without recording.
	Fail bool
}

var ErrSinkFailed = errors.New("sink failed")

func (r *RecorderSink) Send(id hid.ReportID, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return ErrSinkFailed
	}
	r.reports = append(r.reports, Report{ID: id, Data: append([]byte(nil), data...)})
	return nil
}

// Reports returns a copy of everything recorded.
func (r *RecorderSink) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}

// Keyboard decodes the recorded keyboard reports, in order.
func (r *RecorderSink) Keyboard(t *testing.T) []hid.KeyboardReport {
	t.Helper()
	var out []hid.KeyboardReport
	for _, rep := range r.Reports() {
		if rep.ID != hid.ReportIDNKRO {
			continue
		}
		var kr hid.KeyboardReport
		if err := kr.UnmarshalBinary(rep.Data); err != nil {
			t.Fatalf("decode keyboard report: %v", err)
		}
		out = append(out, kr)
	}
	return out
}

// ByID returns the payloads recorded for one report id.
func (r *RecorderSink) ByID(id hid.ReportID) [][]byte {
	var out [][]byte
	for _, rep := range r.Reports() {
		if rep.ID == id {
			out = append(out, rep.Data)
		}
	}
	return out
}

// Reset forgets everything recorded.
func (r *RecorderSink) Reset() {
	r.mu.Lock()
	r.reports = nil
	r.mu.Unlock()
}

// KeyboardReport builds the report holding exactly mods and codes.
func KeyboardReport(mods uint8, codes ...uint8) hid.KeyboardReport {
	var r hid.KeyboardReport
	r.Modifiers = mods
	for _, c := range codes {
		r.Press(c)
	}
	return r
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFakeClock returns a clock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
