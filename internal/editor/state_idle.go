package editor

import (
	"math"

	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// idleState is the resting state. In edit mode it routes presses into item
// dragging or multi-select; in interact mode it dispatches hover and click
// events to item behaviors.
type idleState struct {
	baseState
	// hoveredIDs tracks the item chain currently under the cursor, for
	// mousein/mouseout dispatch in interact mode.
	hoveredIDs map[string]bool
}

func newIdleState(s *Session) *idleState {
	return &idleState{baseState: baseState{session: s, name: StateIdle}, hoveredIDs: map[string]bool{}}
}

func (s *idleState) MouseDown(ev MouseEvent) {
	item := s.session.container.HitItemAt(ev.X, ev.Y)

	if s.session.mode == ModeInteract {
		if item != nil {
			s.session.bus.EmitItemEvent(item.ID, scheme.EventClicked)
		}
		return
	}

	if item == nil {
		s.session.container.DeselectAllItems()
		drag := s.session.states[StateDragItem].(*dragItemState)
		drag.initMultiSelect(ev.X, ev.Y)
		s.session.SwitchState(StateDragItem)
		return
	}

	if item.Shape == scheme.ShapeConnector {
		if index, ok := s.findRerouteAt(item, ev.X, ev.Y); ok {
			drag := s.session.states[StateDragItem].(*dragItemState)
			drag.initRerouteDrag(item, index, ev.X, ev.Y)
			s.session.SwitchState(StateDragItem)
			return
		}
	}

	if !s.session.container.IsItemSelected(item) {
		s.session.container.SelectItem(item, ev.Shift)
	}
	drag := s.session.states[StateDragItem].(*dragItemState)
	drag.initDragging(s.session.container.SelectedItems(), ev.X, ev.Y)
	s.session.SwitchState(StateDragItem)
}

// findRerouteAt returns the index of the connector waypoint under the
// cursor, if any.
func (s *idleState) findRerouteAt(connector *scheme.Item, x, y float64) (int, bool) {
	scale := s.session.container.ScreenTransform().Scale
	if scale <= 0 {
		scale = 1
	}
	grabRange := 10.0 / scale
	for i, r := range scene.ReroutesFromProps(connector.ShapeProps) {
		if math.Hypot(r.X-x, r.Y-y) <= grabRange {
			return i, true
		}
	}
	return 0, false
}

func (s *idleState) MouseMove(ev MouseEvent) {
	if s.session.mode != ModeInteract {
		return
	}
	item := s.session.container.HitItemAt(ev.X, ev.Y)

	// the hovered chain is the item and all its ancestors
	next := map[string]bool{}
	if item != nil {
		next[item.ID] = true
		for _, ancestorID := range item.Meta.AncestorIDs {
			next[ancestorID] = true
		}
	}
	for id := range s.hoveredIDs {
		if !next[id] {
			s.session.bus.EmitItemEvent(id, scheme.EventMouseOut)
		}
	}
	for id := range next {
		if !s.hoveredIDs[id] {
			s.session.bus.EmitItemEvent(id, scheme.EventMouseIn)
		}
	}
	s.hoveredIDs = next
}

func (s *idleState) MouseDoubleClick(ev MouseEvent) {
	if s.session.mode != ModeEdit {
		return
	}
	item := s.session.container.HitItemAt(ev.X, ev.Y)
	if item != nil && item.Shape == scheme.ShapeConnector {
		curve := s.session.states[StateEditCurve].(*editCurveState)
		curve.initEditing(item)
		s.session.SwitchState(StateEditCurve)
	}
}

func (s *idleState) KeyPressed(key string, ev MouseEvent) {
	if key == " " {
		s.session.SwitchState(StateDragScreen)
	}
}

func (s *idleState) Reset() {
	s.hoveredIDs = map[string]bool{}
}
