package firmware

import (
	"time"

	"github.com/Alia5/keypipe/key"
)

// Clock reads the current time. The firmware reads it once per cycle.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Transition is a debounced change of one key switch.
type Transition struct {
	Addr    key.Addr
	Pressed bool
}

// Event converts t into the event the pipeline expects.
func (t Transition) Event() key.Event {
	if t.Pressed {
		return key.Press(t.Addr)
	}
	return key.Release(t.Addr)
}

// Scanner produces the transitions of one cycle. ScanCycle is called once
// at the start of every cycle and must not block.
type Scanner interface {
	ScanCycle(yield func(Transition))
}

// Finite is implemented by scanners with a natural end, such as scripts.
// Run returns once Done reports true.
type Finite interface {
	Done() bool
}

// Storage is a byte-addressable non-volatile store. Writes become durable
// on Commit.
type Storage interface {
	Len() int
	Get(off int, p []byte) error
	Put(off int, p []byte) error
	Commit() error
}

type noScanner struct{}

func (noScanner) ScanCycle(func(Transition)) {}
