// Package firmware runs the keyboard event pipeline: it takes key switch
// transitions, passes them through the plugin hooks, resolves keys through
// the layer stack, keeps the live key table and assembles HID reports.
//
// A Context is single-threaded. Every method must be called from the
// goroutine running the cycle loop; work arriving from elsewhere has to be
// handed to that goroutine (see plugin/focus).
package firmware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Alia5/keypipe/hid"
	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
	"github.com/Alia5/keypipe/layer"
	"github.com/Alia5/keypipe/livekeys"
)

// DefaultInterval is the default cycle period of Run.
const DefaultInterval = time.Millisecond

// Context owns all firmware state: layer stack, live key table, HID
// reports and the plugin chain.
type Context struct {
	// Layers is the layer stack.
	Layers *layer.Stack
	// Live is the live key table.
	Live *livekeys.Table
	// HID assembles and sends the reports.
	HID *hid.Keyboard

	keymap   keymap.Source
	layout   key.Layout
	logger   *slog.Logger
	clock    Clock
	scanner  Scanner
	storage  Storage
	interval time.Duration
	maxDepth int

	plugins []Plugin
	hooks   hooks

	now time.Time
	// Addresses in the keyswitch and key event passes, innermost last.
	switchInFlight []key.Addr
	inFlight       []key.Addr
	setup          bool
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(fw *Context) { fw.logger = l }
}

// WithClock sets the clock. The default is the system clock.
func WithClock(c Clock) Option {
	return func(fw *Context) { fw.clock = c }
}

// WithScanner sets the source of key switch transitions.
func WithScanner(s Scanner) Option {
	return func(fw *Context) { fw.scanner = s }
}

// WithStorage makes a non-volatile store available to plugins.
func WithStorage(s Storage) Option {
	return func(fw *Context) { fw.storage = s }
}

// WithInterval sets the cycle period of Run.
func WithInterval(d time.Duration) Option {
	return func(fw *Context) {
		if d > 0 {
			fw.interval = d
		}
	}
}

// WithMaxActiveLayers bounds the layer stack depth.
func WithMaxActiveLayers(n int) Option {
	return func(fw *Context) { fw.maxDepth = n }
}

// New builds a firmware for km, sending reports through kb. The plugin
// order is the dispatch order of every hook.
func New(km keymap.Source, kb *hid.Keyboard, plugins []Plugin, opts ...Option) *Context {
	fw := &Context{
		HID:      kb,
		keymap:   km,
		layout:   km.Layout(),
		logger:   slog.Default(),
		clock:    systemClock{},
		scanner:  noScanner{},
		interval: DefaultInterval,
		maxDepth: layer.DefaultMaxActive,
		plugins:  append([]Plugin(nil), plugins...),
	}
	for _, o := range opts {
		o(fw)
	}
	if fw.HID == nil {
		fw.HID = hid.NewKeyboard(nil, hid.WithLogger(fw.logger))
	}
	fw.hooks = newHooks(fw.plugins)
	fw.Live = livekeys.New(fw.layout.Len())
	fw.Layers = layer.New(km, fw.Live,
		layer.WithMaxActive(fw.maxDepth),
		layer.WithLogger(fw.logger),
		layer.WithOnChange(fw.onLayerChange),
	)
	fw.now = fw.clock.Now()
	return fw
}

// Layout returns the key matrix dimensions.
func (fw *Context) Layout() key.Layout { return fw.layout }

// Keymap returns the keymap the layer stack resolves against.
func (fw *Context) Keymap() keymap.Source { return fw.keymap }

// Logger returns the firmware logger.
func (fw *Context) Logger() *slog.Logger { return fw.logger }

// Storage returns the non-volatile store, or nil.
func (fw *Context) Storage() Storage { return fw.storage }

// Now returns the time captured at the start of the current cycle.
func (fw *Context) Now() time.Time { return fw.now }

// HasTimeExpired reports whether more than ttl passed between start and
// the start of the current cycle.
func (fw *Context) HasTimeExpired(start time.Time, ttl time.Duration) bool {
	return fw.now.Sub(start) > ttl
}

// Plugins returns the names of the registered plugins in order.
func (fw *Context) Plugins() []string {
	names := make([]string, len(fw.plugins))
	for i, p := range fw.plugins {
		if n, ok := p.(interface{ Name() string }); ok {
			names[i] = n.Name()
			continue
		}
		names[i] = fmt.Sprintf("%T", p)
	}
	return names
}
