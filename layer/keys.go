package layer

import "github.com/Alia5/keypipe/key"

// HandleLayerKey applies the layer key carried by ev. The live key table
// must already reflect ev: set for a press, cleared for a release.
//
// KeymapNext and KeymapPrevious are rewritten on press, in ev and in the
// live table, to a shift to the layer next to the topmost locked one, so
// their release undoes exactly that shift. Out of range targets mask the
// address instead.
func (s *Stack) HandleLayerKey(ev *key.Event) {
	op, n := ev.Key.Layer()

	if op == key.LayerNext || op == key.LayerPrevious {
		if !ev.State.ToggledOn() {
			return
		}
		target := int(s.TopLocked()) + 1
		if op == key.LayerPrevious {
			target = int(s.TopLocked()) - 1
		}
		if target < 0 || target >= s.src.Layers() {
			s.live.Mask(ev.Addr)
			return
		}
		ev.Key = key.ShiftToLayer(uint8(target))
		s.live.Activate(ev.Addr, ev.Key)
		op, n = key.LayerShift, uint8(target)
	}

	switch op {
	case key.LayerMove:
		if ev.State.ToggledOn() {
			s.Move(n)
		}
	case key.LayerShift:
		switch {
		case ev.State.ToggledOn():
			s.ActivateShift(n)
		case ev.State.ToggledOff():
			for _, k := range s.live.Active() {
				if k == ev.Key {
					return
				}
			}
			s.Deactivate(n)
		}
	case key.LayerLock:
		if !ev.State.ToggledOn() {
			return
		}
		if s.TopLocked() == n && s.IsActive(n) {
			s.Deactivate(n)
			return
		}
		s.Activate(n)
	}
}
