package firmware

import "github.com/Alia5/keypipe/key"

// prepareKeyboardReport rebuilds the pending reports from the live key
// table. The key at ev's own address is left out; sendKeyboardReport adds
// it when ev is a press.
func (fw *Context) prepareKeyboardReport(ev key.Event) {
	fw.HID.ReleaseAllKeys()
	for a, k := range fw.Live.Active() {
		if a == ev.Addr {
			continue
		}
		fw.addToReport(k)
	}
}

func (fw *Context) addToReport(k key.Key) {
	if k == key.NoKey {
		return
	}
	if fw.onAddToReport(k) != Continue {
		return
	}
	switch {
	case k.IsKeyboardKey():
		fw.HID.PressKey(k)
	case k.IsConsumerControlKey():
		fw.HID.PressConsumerControl(k)
	}
}

// sendKeyboardReport adds the key of a press and sends. A keycode that is
// already held by another key is released for one report first, so the
// host sees a fresh press.
func (fw *Context) sendKeyboardReport(ev key.Event) {
	if ev.State.ToggledOn() {
		switch {
		case ev.Key.IsKeyboardKey():
			if fw.HID.IsKeyPressed(ev.Key) {
				fw.HID.ReleaseRawKey(ev.Key)
				fw.HID.SendReport()
			}
			fw.HID.PressKey(ev.Key)
		case ev.Key.IsConsumerControlKey():
			fw.HID.PressConsumerControl(ev.Key)
		}
	}

	fw.beforeReportingState(ev)
	fw.HID.SendReport()
}

// UpdateReport rebuilds the keyboard report from the live key table and
// sends it. Use it after writing to Live outside of an event, so the host
// sees what the table holds. No reporting state hooks run.
func (fw *Context) UpdateReport() {
	fw.prepareKeyboardReport(key.Event{Addr: key.AddrNone})
	fw.HID.SendReport()
}
