package firmware

import (
	"fmt"

	"github.com/Alia5/keypipe/key"
)

// Result is what a hook handler tells the dispatcher.
type Result uint8

const (
	// Continue passes the event on to the next handler.
	Continue Result = iota
	// Consumed stops the chain; the event counts as fully handled.
	Consumed
	// Abort stops the chain; the event is treated as if it never happened.
	Abort
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Consumed:
		return "consumed"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("result(%d)", uint8(r))
	}
}

// Plugin is a capability module. It takes part in a hook kind by
// implementing the matching *Handler interface; a plugin may implement any
// subset of them. A plugin implementing Name() string is listed under that
// name.
type Plugin any

// SetupHandler runs once from Setup.
type SetupHandler interface {
	OnSetup(fw *Context) Result
}

// BeforeEachCycleHandler runs at the start of every cycle, before scanning.
type BeforeEachCycleHandler interface {
	BeforeEachCycle(fw *Context) Result
}

// KeyswitchEventHandler sees address-bound events before the key-level
// pass. Abortable: any result but Continue ends processing of the event
// with no state change.
type KeyswitchEventHandler interface {
	OnKeyswitchEvent(fw *Context, ev *key.Event) Result
}

// KeyEventHandler sees every event that reaches the key-level pass.
// Abortable: Abort drops the event before the live key table is updated,
// any other stop lets the update happen but sends no report.
type KeyEventHandler interface {
	OnKeyEvent(fw *Context, ev *key.Event) Result
}

// AddToReportHandler is called for each live key added to the report
// being assembled. Abortable: a stop keeps the key out of the report.
type AddToReportHandler interface {
	OnAddToReport(fw *Context, k key.Key) Result
}

// BeforeReportingStateHandler runs after the report is assembled and
// before it is sent.
type BeforeReportingStateHandler interface {
	BeforeReportingState(fw *Context, ev key.Event) Result
}

// AfterReportingStateHandler runs after the report for ev has been sent.
type AfterReportingStateHandler interface {
	AfterReportingState(fw *Context, ev key.Event) Result
}

// LayerChangeHandler runs after every change of the layer stack.
type LayerChangeHandler interface {
	OnLayerChange(fw *Context) Result
}

// AfterEachCycleHandler runs at the end of every cycle.
type AfterEachCycleHandler interface {
	AfterEachCycle(fw *Context) Result
}

// FocusEventHandler handles a command of the Focus protocol. Abortable:
// the first handler not returning Continue owns the command.
type FocusEventHandler interface {
	OnFocusEvent(fw *Context, cmd *FocusCommand) Result
}

// hooks holds, per hook kind, the plugins implementing it in registration
// order. It is built once; dispatch never type-checks a plugin again.
type hooks struct {
	setup                []SetupHandler
	beforeEachCycle      []BeforeEachCycleHandler
	keyswitchEvent       []KeyswitchEventHandler
	keyEvent             []KeyEventHandler
	addToReport          []AddToReportHandler
	beforeReportingState []BeforeReportingStateHandler
	afterReportingState  []AfterReportingStateHandler
	layerChange          []LayerChangeHandler
	afterEachCycle       []AfterEachCycleHandler
	focusEvent           []FocusEventHandler
}

func newHooks(plugins []Plugin) hooks {
	return hooks{
		setup:                collect[SetupHandler](plugins),
		beforeEachCycle:      collect[BeforeEachCycleHandler](plugins),
		keyswitchEvent:       collect[KeyswitchEventHandler](plugins),
		keyEvent:             collect[KeyEventHandler](plugins),
		addToReport:          collect[AddToReportHandler](plugins),
		beforeReportingState: collect[BeforeReportingStateHandler](plugins),
		afterReportingState:  collect[AfterReportingStateHandler](plugins),
		layerChange:          collect[LayerChangeHandler](plugins),
		afterEachCycle:       collect[AfterEachCycleHandler](plugins),
		focusEvent:           collect[FocusEventHandler](plugins),
	}
}

func collect[H any](plugins []Plugin) []H {
	var out []H
	for _, p := range plugins {
		if h, ok := p.(H); ok {
			out = append(out, h)
		}
	}
	return out
}

// dispatch calls every handler in order. An abortable chain stops at the
// first result other than Continue and returns it; a non-abortable chain
// always runs to the end and returns Continue.
func dispatch[H any](handlers []H, abortable bool, call func(H) Result) Result {
	for _, h := range handlers {
		if r := call(h); r != Continue && abortable {
			return r
		}
	}
	return Continue
}

const (
	abortable    = true
	notAbortable = false
)

func (fw *Context) onSetup() Result {
	return dispatch(fw.hooks.setup, notAbortable, func(h SetupHandler) Result {
		return h.OnSetup(fw)
	})
}

func (fw *Context) beforeEachCycle() Result {
	return dispatch(fw.hooks.beforeEachCycle, notAbortable, func(h BeforeEachCycleHandler) Result {
		return h.BeforeEachCycle(fw)
	})
}

func (fw *Context) onKeyswitchEvent(ev *key.Event) Result {
	return dispatch(fw.hooks.keyswitchEvent, abortable, func(h KeyswitchEventHandler) Result {
		return h.OnKeyswitchEvent(fw, ev)
	})
}

func (fw *Context) onKeyEvent(ev *key.Event) Result {
	return dispatch(fw.hooks.keyEvent, abortable, func(h KeyEventHandler) Result {
		return h.OnKeyEvent(fw, ev)
	})
}

func (fw *Context) onAddToReport(k key.Key) Result {
	return dispatch(fw.hooks.addToReport, abortable, func(h AddToReportHandler) Result {
		return h.OnAddToReport(fw, k)
	})
}

func (fw *Context) beforeReportingState(ev key.Event) Result {
	return dispatch(fw.hooks.beforeReportingState, notAbortable, func(h BeforeReportingStateHandler) Result {
		return h.BeforeReportingState(fw, ev)
	})
}

func (fw *Context) afterReportingState(ev key.Event) Result {
	return dispatch(fw.hooks.afterReportingState, notAbortable, func(h AfterReportingStateHandler) Result {
		return h.AfterReportingState(fw, ev)
	})
}

func (fw *Context) onLayerChange() {
	fw.logger.Debug("layer change", "stack", fw.Layers.Entries())
	dispatch(fw.hooks.layerChange, notAbortable, func(h LayerChangeHandler) Result {
		return h.OnLayerChange(fw)
	})
}

func (fw *Context) afterEachCycle() Result {
	return dispatch(fw.hooks.afterEachCycle, notAbortable, func(h AfterEachCycleHandler) Result {
		return h.AfterEachCycle(fw)
	})
}

// OnFocusEvent offers cmd to the Focus handlers in order.
func (fw *Context) OnFocusEvent(cmd *FocusCommand) Result {
	return dispatch(fw.hooks.focusEvent, abortable, func(h FocusEventHandler) Result {
		return h.OnFocusEvent(fw, cmd)
	})
}
