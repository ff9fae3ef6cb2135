package firmware

import (
	"context"
	"time"
)

// Setup clears the live key table and runs the setup hooks. Run calls it
// when it has not been called yet.
func (fw *Context) Setup() {
	fw.now = fw.clock.Now()
	fw.Live.ClearAll()
	fw.onSetup()
	fw.setup = true
	fw.logger.Debug("firmware set up",
		"rows", fw.layout.Rows, "cols", fw.layout.Cols,
		"layers", fw.keymap.Layers(), "plugins", fw.Plugins())
}

// Cycle runs one loop iteration: it captures the time, runs the
// before-cycle hooks, feeds every transition of the scanner through the
// pipeline and runs the after-cycle hooks.
func (fw *Context) Cycle() {
	fw.now = fw.clock.Now()
	fw.beforeEachCycle()
	fw.scanner.ScanCycle(func(t Transition) {
		fw.HandleKeyswitchEvent(t.Event())
	})
	fw.afterEachCycle()
}

// Run cycles at the configured interval until ctx is cancelled or a
// Finite scanner is done.
func (fw *Context) Run(ctx context.Context) error {
	if !fw.setup {
		fw.Setup()
	}
	ticker := time.NewTicker(fw.interval)
	defer ticker.Stop()

	finite, _ := fw.scanner.(Finite)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		fw.Cycle()
		if finite != nil && finite.Done() {
			fw.logger.Debug("scanner done")
			return nil
		}
	}
}
