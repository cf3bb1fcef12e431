package editor

import (
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// snapAttachDistance is the screen-space distance within which a connector
// endpoint snaps onto an item outline.
const snapAttachDistance = 20.0

// connectingState drags a new connector from a source point to a
// destination. Endpoints near an item outline attach to it so the connector
// follows the item afterwards.
type connectingState struct {
	baseState
	dragging  bool
	connector *scheme.Item
}

func newConnectingState(s *Session) *connectingState {
	return &connectingState{baseState: baseState{session: s, name: StateConnecting}}
}

// attachRange converts the snap distance into world units at current zoom.
func (s *connectingState) attachRange() float64 {
	scale := s.session.container.ScreenTransform().Scale
	if scale <= 0 {
		scale = 1
	}
	return snapAttachDistance / scale
}

func (s *connectingState) MouseDown(ev MouseEvent) {
	startX, startY := s.session.snap(ev.X), s.session.snap(ev.Y)

	connector := scheme.NewItem("", s.session.container.GenerateUniqueName("Connector"), scheme.ShapeConnector)
	if closest, ok := s.session.container.FindClosestPointToItems(ev.X, ev.Y, s.attachRange(), nil); ok {
		startX, startY = closest.X, closest.Y
		connector.ShapeProps[scheme.PropSourceItem] = "#" + closest.ItemID
		connector.ShapeProps[scheme.PropSourceItemPosition] = closest.DistanceOnPath
		s.session.events.Emit(Event{Kind: EventItemsHighlighted, ItemIDs: []string{closest.ItemID}})
	}
	scheme.SetCurvePoints(connector.ShapeProps, []scheme.CurvePoint{
		{T: scheme.CurvePointLinear, X: startX, Y: startY},
		{T: scheme.CurvePointLinear, X: startX, Y: startY},
	})

	s.connector = s.session.container.AddItem(connector)
	s.dragging = true
}

func (s *connectingState) MouseMove(ev MouseEvent) {
	if !s.dragging {
		return
	}
	if ev.Buttons == 0 {
		s.finish(ev)
		return
	}
	x, y := s.session.snap(ev.X), s.session.snap(ev.Y)
	highlighted := []string{}
	exclude := map[string]bool{s.connector.ID: true}
	if closest, ok := s.session.container.FindClosestPointToItems(ev.X, ev.Y, s.attachRange(), exclude); ok {
		x, y = closest.X, closest.Y
		highlighted = append(highlighted, closest.ItemID)
	}
	points := scheme.CurvePointsFromProps(s.connector.ShapeProps)
	points[len(points)-1] = scheme.CurvePoint{T: scheme.CurvePointLinear, X: x, Y: y}
	scheme.SetCurvePoints(s.connector.ShapeProps, points)
	s.session.events.itemsHighlighted(highlighted)
	s.session.events.redrawConnector(s.connector.ID)
}

func (s *connectingState) MouseUp(ev MouseEvent) {
	if !s.dragging {
		s.session.SwitchState(StateIdle)
		return
	}
	s.finish(ev)
}

func (s *connectingState) finish(ev MouseEvent) {
	s.dragging = false
	connector := s.connector
	s.connector = nil

	points := scheme.CurvePointsFromProps(connector.ShapeProps)
	if len(points) == 2 && points[0].X == points[1].X && points[0].Y == points[1].Y {
		s.session.container.DeleteItem(connector.ID)
		s.session.events.itemsHighlighted(nil)
		s.session.SwitchState(StateIdle)
		return
	}

	exclude := map[string]bool{connector.ID: true}
	if closest, ok := s.session.container.FindClosestPointToItems(ev.X, ev.Y, s.attachRange(), exclude); ok {
		connector.ShapeProps[scheme.PropDestinationItem] = "#" + closest.ItemID
		connector.ShapeProps[scheme.PropDestinationItemPosition] = closest.DistanceOnPath
	}
	s.session.container.BuildConnector(connector)
	s.session.container.SelectItem(connector, false)
	s.session.events.itemsHighlighted(nil)
	s.session.CommitSchemeChange()
	s.session.SwitchState(StateIdle)
}

func (s *connectingState) Cancel() {
	if s.connector != nil {
		s.session.container.DeleteItem(s.connector.ID)
		s.connector = nil
	}
	s.dragging = false
	s.session.events.itemsHighlighted(nil)
	s.session.SwitchState(StateIdle)
}

func (s *connectingState) Reset() {
	s.dragging = false
	s.connector = nil
}
