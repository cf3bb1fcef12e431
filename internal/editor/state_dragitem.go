package editor

import (
	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

const (
	dragModeItems   = "items"
	dragModeBox     = "box"
	dragModeResize  = "resize"
	dragModeReroute = "reroute"
)

// dragItemState moves or resizes the selected items, or sweeps a
// multi-select box over empty canvas. The gesture is initialized by the
// idle state before switching here.
type dragItemState struct {
	baseState
	mode         string
	downX, downY float64

	draggedItems  []*scheme.Item
	originalAreas map[string]scheme.Area

	resizeItem  *scheme.Item
	resizeEdges string

	rerouteConn      *scheme.Item
	rerouteIndex     int
	originalReroutes []scheme.Reroute

	box geometry.Rect
}

func newDragItemState(s *Session) *dragItemState {
	return &dragItemState{baseState: baseState{session: s, name: StateDragItem}}
}

// initDragging prepares a move gesture for the given items. Children of
// other dragged items are excluded so subtrees are not moved twice.
func (s *dragItemState) initDragging(items []*scheme.Item, x, y float64) {
	s.mode = dragModeItems
	s.downX, s.downY = x, y
	s.originalAreas = map[string]scheme.Area{}
	s.draggedItems = nil

	dragged := map[string]bool{}
	for _, item := range items {
		dragged[item.ID] = true
	}
	for _, item := range items {
		if item.Locked {
			continue
		}
		child := false
		for _, ancestorID := range item.Meta.AncestorIDs {
			if dragged[ancestorID] {
				child = true
				break
			}
		}
		if child {
			continue
		}
		s.draggedItems = append(s.draggedItems, item)
		s.originalAreas[item.ID] = item.Area
	}
}

// initResize prepares a resize gesture. Edges name the dragged sides, any
// combination of "n", "s", "w", "e".
func (s *dragItemState) initResize(item *scheme.Item, edges string, x, y float64) {
	s.mode = dragModeResize
	s.downX, s.downY = x, y
	s.resizeItem = item
	s.resizeEdges = edges
	s.originalAreas = map[string]scheme.Area{item.ID: item.Area}
}

// initRerouteDrag prepares a drag of one connector waypoint.
func (s *dragItemState) initRerouteDrag(connector *scheme.Item, index int, x, y float64) {
	reroutes := scene.ReroutesFromProps(connector.ShapeProps)
	if index < 0 || index >= len(reroutes) {
		return
	}
	s.mode = dragModeReroute
	s.downX, s.downY = x, y
	s.rerouteConn = connector
	s.rerouteIndex = index
	s.originalReroutes = reroutes
}

// initMultiSelect starts a selection box sweep from the given point.
func (s *dragItemState) initMultiSelect(x, y float64) {
	s.mode = dragModeBox
	s.downX, s.downY = x, y
	s.box = geometry.Rect{X: x, Y: y}
	s.session.events.Emit(Event{Kind: EventMultiSelectBoxAppeared, Box: s.box})
}

func (s *dragItemState) MouseMove(ev MouseEvent) {
	if s.mode == "" {
		return
	}
	if ev.Buttons == 0 {
		s.submit(ev)
		return
	}
	switch s.mode {
	case dragModeItems:
		s.moveItems(ev)
	case dragModeResize:
		s.resize(ev)
	case dragModeReroute:
		s.moveReroute(ev)
	case dragModeBox:
		s.box = geometry.Rect{X: s.downX, Y: s.downY, Width: ev.X - s.downX, Height: ev.Y - s.downY}
		s.session.events.Emit(Event{Kind: EventMultiSelectBoxUpdated, Box: s.box})
	}
}

func (s *dragItemState) MouseUp(ev MouseEvent) {
	if s.mode == "" {
		s.session.SwitchState(StateIdle)
		return
	}
	s.submit(ev)
}

func (s *dragItemState) moveItems(ev MouseEvent) {
	changed := make([]string, 0, len(s.draggedItems))
	for _, item := range s.draggedItems {
		original := s.originalAreas[item.ID]
		// the pointer delta is converted into the item's parent space so
		// items inside rotated parents still follow the cursor
		inverted := item.Meta.Transform.Invert()
		x0, y0 := inverted.TransformPoint(s.downX, s.downY)
		x1, y1 := inverted.TransformPoint(ev.X, ev.Y)
		item.Area.X = s.session.snap(original.X + x1 - x0)
		item.Area.Y = s.session.snap(original.Y + y1 - y0)
		s.session.container.ReindexItemTransforms(item)
		changed = append(changed, item.ID)
		for _, connector := range s.session.container.RebuildConnectorsForItem(item.ID) {
			s.session.events.redrawConnector(connector.ID)
		}
	}
	s.session.events.Emit(Event{Kind: EventItemChanged, ItemIDs: changed})
}

func (s *dragItemState) resize(ev MouseEvent) {
	item := s.resizeItem
	original := s.originalAreas[item.ID]
	inverted := item.Meta.Transform.Invert()
	x0, y0 := inverted.TransformPoint(s.downX, s.downY)
	x1, y1 := inverted.TransformPoint(ev.X, ev.Y)
	dx, dy := x1-x0, y1-y0

	area := original
	for _, edge := range s.resizeEdges {
		switch edge {
		case 'w':
			area.X = original.X + dx
			area.W = original.W - dx
		case 'e':
			area.W = original.W + dx
		case 'n':
			area.Y = original.Y + dy
			area.H = original.H - dy
		case 's':
			area.H = original.H + dy
		}
	}
	if area.W <= 0 || area.H <= 0 {
		return
	}
	area.X = s.session.snap(area.X)
	area.Y = s.session.snap(area.Y)
	area.W = s.session.snap(area.W)
	area.H = s.session.snap(area.H)
	item.Area = area
	s.session.container.ReindexItemTransforms(item)
	for _, connector := range s.session.container.RebuildConnectorsForItem(item.ID) {
		s.session.events.redrawConnector(connector.ID)
	}
	s.session.events.itemChanged(item.ID)
}

func (s *dragItemState) moveReroute(ev MouseEvent) {
	reroutes := make([]scheme.Reroute, len(s.originalReroutes))
	copy(reroutes, s.originalReroutes)
	moved := s.originalReroutes[s.rerouteIndex]
	reroutes[s.rerouteIndex] = scheme.Reroute{
		X: s.session.snap(moved.X + ev.X - s.downX),
		Y: s.session.snap(moved.Y + ev.Y - s.downY),
	}
	scheme.SetReroutes(s.rerouteConn.ShapeProps, reroutes)
	s.session.container.BuildConnector(s.rerouteConn)
	s.session.events.redrawConnector(s.rerouteConn.ID)
}

// submit finishes the gesture, commits item changes and returns to idle.
func (s *dragItemState) submit(ev MouseEvent) {
	switch s.mode {
	case dragModeItems:
		if ev.X != s.downX || ev.Y != s.downY {
			s.remountIntoDropTarget(ev)
			s.session.CommitSchemeChange()
		}
	case dragModeResize:
		if s.resizeItem.Area != s.originalAreas[s.resizeItem.ID] {
			s.session.CommitSchemeChange()
		}
	case dragModeReroute:
		if ev.X != s.downX || ev.Y != s.downY {
			s.session.CommitSchemeChange()
		}
	case dragModeBox:
		s.session.container.SelectByBoundaryBox(s.box.Normalized(), ev.Shift)
		s.session.events.Emit(Event{Kind: EventMultiSelectBoxGone})
	}
	s.Reset()
	s.session.SwitchState(StateIdle)
}

// remountIntoDropTarget reparents dragged items into the item under the
// cursor, keeping their world placement. Dragged items and their subtrees
// are never considered as targets.
func (s *dragItemState) remountIntoDropTarget(ev MouseEvent) {
	dragged := map[string]bool{}
	for _, item := range s.draggedItems {
		dragged[item.ID] = true
	}
	target := s.findDropTarget(ev.X, ev.Y, dragged)
	for _, item := range s.draggedItems {
		if target != nil && target.ID == item.Meta.ParentID {
			continue
		}
		if target == nil && item.Meta.ParentID == "" {
			continue
		}
		s.session.container.RemountItemInsideOtherItem(item, target)
	}
}

func (s *dragItemState) findDropTarget(x, y float64, excluded map[string]bool) *scheme.Item {
	items := s.session.container.Items()
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if !item.Visible || item.Shape == scheme.ShapeConnector || excluded[item.ID] {
			continue
		}
		inSubtree := false
		for _, ancestorID := range item.Meta.AncestorIDs {
			if excluded[ancestorID] {
				inSubtree = true
				break
			}
		}
		if inSubtree {
			continue
		}
		local := s.session.container.LocalPointOnItem(item, x, y)
		if local.X >= 0 && local.X <= item.Area.W && local.Y >= 0 && local.Y <= item.Area.H {
			return item
		}
	}
	return nil
}

func (s *dragItemState) Cancel() {
	switch s.mode {
	case dragModeItems, dragModeResize:
		for id, area := range s.originalAreas {
			if item := s.session.container.FindItemByID(id); item != nil {
				item.Area = area
				s.session.container.ReindexItemTransforms(item)
				s.session.container.RebuildConnectorsForItem(id)
			}
		}
	case dragModeReroute:
		scheme.SetReroutes(s.rerouteConn.ShapeProps, s.originalReroutes)
		s.session.container.BuildConnector(s.rerouteConn)
		s.session.events.redrawConnector(s.rerouteConn.ID)
	case dragModeBox:
		s.session.events.Emit(Event{Kind: EventMultiSelectBoxGone})
	}
	s.Reset()
	s.session.SwitchState(StateIdle)
}

func (s *dragItemState) Reset() {
	s.mode = ""
	s.draggedItems = nil
	s.originalAreas = nil
	s.resizeItem = nil
	s.resizeEdges = ""
	s.rerouteConn = nil
	s.rerouteIndex = 0
	s.originalReroutes = nil
	s.box = geometry.Rect{}
}
