package firmware

import (
	"context"
	"slices"

	"github.com/Alia5/keypipe/internal/log"
	"github.com/Alia5/keypipe/key"
)

// HandleKeyswitchEvent processes an event bound to a physical key switch.
// Events that are not a press or release edge, and events for addresses
// outside the layout, are ignored. A call made from a hook is marked
// Injected and dropped when its address is still being processed.
func (fw *Context) HandleKeyswitchEvent(ev key.Event) {
	if fw.busy() {
		ev.State |= key.Injected
		if slices.Contains(fw.switchInFlight, ev.Addr) || slices.Contains(fw.inFlight, ev.Addr) {
			fw.logger.Debug("dropping re-entrant keyswitch event", "event", ev)
			return
		}
	}
	if !ev.State.IsToggle() || !fw.layout.Contains(ev.Addr) {
		fw.trace("keyswitch event ignored", ev)
		return
	}

	fw.switchInFlight = append(fw.switchInFlight, ev.Addr)
	defer func() { fw.switchInFlight = fw.switchInFlight[:len(fw.switchInFlight)-1] }()

	if ev.State.ToggledOff() {
		ev.Key = fw.Live.Get(ev.Addr)
		if ev.Key == key.Masked {
			fw.Live.Clear(ev.Addr)
			fw.trace("masked key released", ev)
			return
		}
	} else {
		if fw.Live.IsMasked(ev.Addr) {
			fw.trace("press at masked address", ev)
			return
		}
		if ev.Key == key.Undefined {
			ev.Key = fw.Layers.Resolve(ev.Addr)
		}
	}

	if r := fw.onKeyswitchEvent(&ev); r != Continue {
		fw.trace("keyswitch event stopped", ev, "result", r)
		return
	}

	fw.dispatchKeyEvent(ev)
}

// HandleKeyEvent runs ev through the key event handlers, updates the live
// key table and sends the resulting reports. Plugins use it to inject
// events; a call made while another event is being processed is marked
// Injected, and an event for an address already in the key event pass is
// dropped. A keyswitch handler may hand the key event pass its own
// address, as it would have reached there anyway.
func (fw *Context) HandleKeyEvent(ev key.Event) {
	if fw.busy() {
		ev.State |= key.Injected
	}
	if ev.Addr.IsValid() && slices.Contains(fw.inFlight, ev.Addr) {
		fw.logger.Debug("dropping re-entrant event", "event", ev)
		return
	}
	fw.dispatchKeyEvent(ev)
}

// busy reports whether an event is being processed further up the stack.
func (fw *Context) busy() bool {
	return len(fw.switchInFlight) > 0 || len(fw.inFlight) > 0
}

func (fw *Context) dispatchKeyEvent(ev key.Event) {
	fw.inFlight = append(fw.inFlight, ev.Addr)
	defer func() { fw.inFlight = fw.inFlight[:len(fw.inFlight)-1] }()

	fw.handleKeyEvent(ev)
}

func (fw *Context) handleKeyEvent(ev key.Event) {
	bound := fw.layout.Contains(ev.Addr)
	if bound && (ev.State.ToggledOff() || ev.Key == key.Undefined) {
		ev.Key = fw.lookup(ev.Addr)
	}

	r := fw.onKeyEvent(&ev)
	if r == Abort {
		fw.trace("key event aborted", ev)
		return
	}

	if bound {
		if ev.State.ToggledOff() {
			fw.Live.Clear(ev.Addr)
		} else {
			fw.Live.Activate(ev.Addr, ev.Key)
		}
	}

	fw.trace("key event", ev, "result", r)
	if r != Continue {
		return
	}
	switch ev.Key {
	case key.Masked, key.NoKey, key.Undefined, key.Transparent:
		return
	}

	switch {
	case ev.Key.IsLayerKey():
		fw.Layers.HandleLayerKey(&ev)
		return
	case ev.Key.IsSystemControlKey():
		if ev.State.ToggledOn() {
			fw.HID.PressSystemControl(ev.Key)
		} else {
			fw.HID.ReleaseSystemControl(ev.Key)
		}
		return
	}

	fw.prepareKeyboardReport(ev)
	fw.sendKeyboardReport(ev)
	fw.afterReportingState(ev)
}

// lookup returns the key held at a, or the key the layer stack maps it to
// when the address is idle.
func (fw *Context) lookup(a key.Addr) key.Key {
	if k := fw.Live.Get(a); k != key.Inactive {
		return k
	}
	return fw.Layers.Resolve(a)
}

func (fw *Context) trace(msg string, ev key.Event, args ...any) {
	if !fw.logger.Enabled(context.Background(), log.LevelTrace) {
		return
	}
	fw.logger.Log(context.Background(), log.LevelTrace, msg,
		append([]any{"addr", fw.layout.Format(ev.Addr), "key", ev.Key, "state", ev.State}, args...)...)
}
