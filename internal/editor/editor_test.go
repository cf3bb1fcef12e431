package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

func editorScheme() *scheme.Scheme {
	s := scheme.NewScheme("scheme_1", "editor test")

	a := scheme.NewItem("a", "Box A", scheme.ShapeRect)
	a.Area = scheme.Area{X: 0, Y: 0, W: 100, H: 100}

	b := scheme.NewItem("b", "Box B", scheme.ShapeRect)
	b.Area = scheme.Area{X: 300, Y: 0, W: 100, H: 100}

	frame := scheme.NewItem("frame", "Frame", scheme.ShapeRect)
	frame.Area = scheme.Area{X: 500, Y: 300, W: 200, H: 200}

	s.Items = []*scheme.Item{a, b, frame}
	return s
}

func collectEvents(s *Session) *[]Event {
	var events []Event
	s.Events().Subscribe(func(ev Event) {
		events = append(events, ev)
	})
	return &events
}

func kinds(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestDragMovesSelectedItemAndCommits(t *testing.T) {
	s := NewSession(editorScheme())
	events := collectEvents(s)

	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})
	require.Equal(t, StateDragItem, s.CurrentState())

	s.MouseMove(MouseEvent{X: 80, Y: 70, Buttons: 1})
	s.MouseUp(MouseEvent{X: 80, Y: 70})

	a := s.Container().FindItemByID("a")
	assert.InDelta(t, 30.0, a.Area.X, 1e-9)
	assert.InDelta(t, 20.0, a.Area.Y, 1e-9)
	assert.Equal(t, StateIdle, s.CurrentState())
	assert.Contains(t, kinds(*events), EventSchemeChangeCommitted)
	assert.True(t, s.Container().IsItemSelected(a))
}

func TestDragSnapsToGrid(t *testing.T) {
	s := NewSession(editorScheme(), WithSnapGrid(10))

	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})
	s.MouseMove(MouseEvent{X: 82, Y: 67, Buttons: 1})
	s.MouseUp(MouseEvent{X: 82, Y: 67})

	a := s.Container().FindItemByID("a")
	assert.InDelta(t, 30.0, a.Area.X, 1e-9)
	assert.InDelta(t, 20.0, a.Area.Y, 1e-9)
}

func TestDragRebuildsAttachedConnectors(t *testing.T) {
	sch := editorScheme()
	conn := scheme.NewItem("conn", "Connector", scheme.ShapeConnector)
	conn.ShapeProps[scheme.PropSourceItem] = "#a"
	conn.ShapeProps[scheme.PropSourceItemPosition] = 0.0
	scheme.SetCurvePoints(conn.ShapeProps, []scheme.CurvePoint{
		{T: scheme.CurvePointLinear, X: 0, Y: 0},
		{T: scheme.CurvePointLinear, X: 200, Y: 50},
	})
	sch.Items = append(sch.Items, conn)

	s := NewSession(sch)
	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})
	s.MouseMove(MouseEvent{X: 80, Y: 70, Buttons: 1})
	s.MouseUp(MouseEvent{X: 80, Y: 70})

	points := scheme.CurvePointsFromProps(s.Container().FindItemByID("conn").ShapeProps)
	require.Len(t, points, 2)
	assert.InDelta(t, 30.0, points[0].X, 1e-9)
	assert.InDelta(t, 20.0, points[0].Y, 1e-9)
	// the detached end stays put
	assert.InDelta(t, 200.0, points[1].X, 1e-9)
	assert.InDelta(t, 50.0, points[1].Y, 1e-9)
}

func TestMoveWithoutButtonsSubmitsAndResets(t *testing.T) {
	s := NewSession(editorScheme())

	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})
	s.MouseMove(MouseEvent{X: 90, Y: 50, Buttons: 1})
	// the release happened outside the window, the next move has no buttons
	s.MouseMove(MouseEvent{X: 95, Y: 50})

	assert.Equal(t, StateIdle, s.CurrentState())
	assert.InDelta(t, 40.0, s.Container().FindItemByID("a").Area.X, 1e-9)
}

func TestMouseUpWithoutDownIsTolerated(t *testing.T) {
	s := NewSession(editorScheme())
	s.MouseUp(MouseEvent{X: 10, Y: 10})
	assert.Equal(t, StateIdle, s.CurrentState())

	s.SwitchState(StateDragItem)
	s.MouseUp(MouseEvent{X: 10, Y: 10})
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestMultiSelectBoxSweep(t *testing.T) {
	s := NewSession(editorScheme())
	events := collectEvents(s)

	s.MouseDown(MouseEvent{X: 280, Y: -20, Buttons: 1})
	require.Equal(t, StateDragItem, s.CurrentState())
	s.MouseMove(MouseEvent{X: 420, Y: 120, Buttons: 1})
	s.MouseUp(MouseEvent{X: 420, Y: 120})

	selected := s.Container().SelectedItems()
	require.Len(t, selected, 1)
	assert.Equal(t, "b", selected[0].ID)

	seen := kinds(*events)
	assert.Contains(t, seen, EventMultiSelectBoxAppeared)
	assert.Contains(t, seen, EventMultiSelectBoxUpdated)
	assert.Contains(t, seen, EventMultiSelectBoxGone)
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestCreateItemMountsUnderSelectedContainingItem(t *testing.T) {
	s := NewSession(editorScheme())
	s.Container().SelectItem(s.Container().FindItemByID("frame"), false)

	s.SwitchState(StateCreateItem)
	s.MouseDown(MouseEvent{X: 520, Y: 320, Buttons: 1})
	s.MouseMove(MouseEvent{X: 620, Y: 420, Buttons: 1})
	s.MouseUp(MouseEvent{X: 620, Y: 420})

	frame := s.Container().FindItemByID("frame")
	require.Len(t, frame.ChildItems, 1)
	created := frame.ChildItems[0]
	assert.Equal(t, "frame", created.Meta.ParentID)
	assert.InDelta(t, 20.0, created.Area.X, 1e-9)
	assert.InDelta(t, 20.0, created.Area.Y, 1e-9)
	assert.InDelta(t, 100.0, created.Area.W, 1e-9)
	assert.True(t, s.Container().IsItemSelected(created))
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestCreateItemIgnoresUnselectedContainingItem(t *testing.T) {
	s := NewSession(editorScheme())

	s.SwitchState(StateCreateItem)
	s.MouseDown(MouseEvent{X: 520, Y: 320, Buttons: 1})
	s.MouseMove(MouseEvent{X: 620, Y: 420, Buttons: 1})
	s.MouseUp(MouseEvent{X: 620, Y: 420})

	// the frame contains the box but is not selected, so it must not
	// capture the new item
	frame := s.Container().FindItemByID("frame")
	assert.Empty(t, frame.ChildItems)
	created := s.Container().FindItemsByName("Item")
	require.Len(t, created, 1)
	assert.Equal(t, "", created[0].Meta.ParentID)
	assert.InDelta(t, 520.0, created[0].Area.X, 1e-9)
}

func TestCreateItemAtRootGetsUniqueName(t *testing.T) {
	s := NewSession(editorScheme())

	for range 2 {
		s.SwitchState(StateCreateItem)
		s.MouseDown(MouseEvent{X: 800, Y: 800, Buttons: 1})
		s.MouseMove(MouseEvent{X: 850, Y: 850, Buttons: 1})
		s.MouseUp(MouseEvent{X: 850, Y: 850})
	}

	first := s.Container().FindItemsByName("Item")
	second := s.Container().FindItemsByName("Item 2")
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "", first[0].Meta.ParentID)
}

func TestCreateComponentShape(t *testing.T) {
	s := NewSession(editorScheme())

	s.SwitchState(StateCreateComponent)
	s.MouseDown(MouseEvent{X: 800, Y: 800, Buttons: 1})
	s.MouseMove(MouseEvent{X: 900, Y: 880, Buttons: 1})
	s.MouseUp(MouseEvent{X: 900, Y: 880})

	created := s.Container().FindItemsByName("Component")
	require.Len(t, created, 1)
	assert.Equal(t, scheme.ShapeComponent, created[0].Shape)
	assert.Equal(t, "embedded", created[0].ShapeProps["kind"])
}

func TestUndoRedoThroughSession(t *testing.T) {
	s := NewSession(editorScheme())

	s.SwitchState(StateCreateItem)
	s.MouseDown(MouseEvent{X: 800, Y: 800, Buttons: 1})
	s.MouseMove(MouseEvent{X: 850, Y: 850, Buttons: 1})
	s.MouseUp(MouseEvent{X: 850, Y: 850})

	require.Len(t, s.Container().FindItemsByName("Item"), 1)

	require.True(t, s.Undo())
	assert.Empty(t, s.Container().FindItemsByName("Item"))

	require.True(t, s.Redo())
	assert.Len(t, s.Container().FindItemsByName("Item"), 1)
}

func TestDeleteSelectedItems(t *testing.T) {
	s := NewSession(editorScheme())

	a := s.Container().FindItemByID("a")
	s.Container().SelectItem(a, false)
	s.KeyPressed("Delete", MouseEvent{})

	assert.Nil(t, s.Container().FindItemByID("a"))
	require.True(t, s.Undo())
	assert.NotNil(t, s.Container().FindItemByID("a"))
}

func TestConnectingAttachesBothEndpoints(t *testing.T) {
	s := NewSession(editorScheme())

	s.SwitchState(StateConnecting)
	s.MouseDown(MouseEvent{X: 105, Y: 50, Buttons: 1})
	s.MouseMove(MouseEvent{X: 295, Y: 50, Buttons: 1})
	s.MouseUp(MouseEvent{X: 295, Y: 50})

	connectors := s.Container().FindItemsByName("Connector")
	require.Len(t, connectors, 1)
	conn := connectors[0]
	assert.Equal(t, "#a", scheme.StringProp(conn.ShapeProps, scheme.PropSourceItem))
	assert.Equal(t, "#b", scheme.StringProp(conn.ShapeProps, scheme.PropDestinationItem))

	points := scheme.CurvePointsFromProps(conn.ShapeProps)
	require.Len(t, points, 2)
	assert.InDelta(t, 100.0, points[0].X, 1e-9)
	assert.InDelta(t, 300.0, points[1].X, 1e-9)
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestConnectingZeroLengthDiscardsConnector(t *testing.T) {
	s := NewSession(editorScheme())

	s.SwitchState(StateConnecting)
	s.MouseDown(MouseEvent{X: 800, Y: 800, Buttons: 1})
	s.MouseUp(MouseEvent{X: 800, Y: 800})

	assert.Empty(t, s.Container().FindItemsByName("Connector"))
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestEditCurveCancelKeepsPlantedPoints(t *testing.T) {
	s := NewSession(editorScheme())

	curve := s.states[StateEditCurve].(*editCurveState)
	s.SwitchState(StateEditCurve)
	curve.initCreating()

	plant := func(x, y float64) {
		s.MouseDown(MouseEvent{X: x, Y: y, Buttons: 1})
		s.MouseUp(MouseEvent{X: x, Y: y})
	}
	plant(700, 700)
	s.MouseMove(MouseEvent{X: 800, Y: 700})
	plant(800, 700)
	s.MouseMove(MouseEvent{X: 800, Y: 780})
	plant(800, 780)
	// the preview point trails the cursor, Escape must not keep it
	s.MouseMove(MouseEvent{X: 900, Y: 900})
	s.KeyPressed("Escape", MouseEvent{})

	curves := s.Container().FindItemsByName("Curve")
	require.Len(t, curves, 1)
	points := scheme.CurvePointsFromProps(curves[0].ShapeProps)
	require.Len(t, points, 3)
	assert.InDelta(t, 800.0, points[2].X, 1e-9)
	assert.InDelta(t, 780.0, points[2].Y, 1e-9)
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestEditCurveCancelWithOnePointDiscardsItem(t *testing.T) {
	s := NewSession(editorScheme())

	curve := s.states[StateEditCurve].(*editCurveState)
	s.SwitchState(StateEditCurve)
	curve.initCreating()

	s.MouseDown(MouseEvent{X: 700, Y: 700, Buttons: 1})
	s.MouseUp(MouseEvent{X: 700, Y: 700})
	s.KeyPressed("Escape", MouseEvent{})

	assert.Empty(t, s.Container().FindItemsByName("Curve"))
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestEditCurveDragConvertsToBezier(t *testing.T) {
	s := NewSession(editorScheme())

	curve := s.states[StateEditCurve].(*editCurveState)
	s.SwitchState(StateEditCurve)
	curve.initCreating()

	s.MouseDown(MouseEvent{X: 700, Y: 700, Buttons: 1})
	s.MouseMove(MouseEvent{X: 730, Y: 700, Buttons: 1})
	s.MouseUp(MouseEvent{X: 730, Y: 700})

	points := scheme.CurvePointsFromProps(curve.item.ShapeProps)
	require.Len(t, points, 1)
	assert.Equal(t, scheme.CurvePointBezier, points[0].T)
	assert.InDelta(t, 30.0, points[0].X2, 1e-9)
	assert.InDelta(t, -30.0, points[0].X1, 1e-9)

	s.KeyPressed("Escape", MouseEvent{})
}

func TestEditCurveShiftDragsHandleIndependently(t *testing.T) {
	s := NewSession(editorScheme())

	curve := s.states[StateEditCurve].(*editCurveState)
	s.SwitchState(StateEditCurve)
	curve.initCreating()

	s.MouseDown(MouseEvent{X: 700, Y: 700, Buttons: 1})
	s.MouseMove(MouseEvent{X: 730, Y: 700, Buttons: 1})
	// with shift held only the forward handle follows the drag
	s.MouseMove(MouseEvent{X: 700, Y: 740, Buttons: 1, Shift: true})
	s.MouseUp(MouseEvent{X: 700, Y: 740})

	points := scheme.CurvePointsFromProps(curve.item.ShapeProps)
	require.Len(t, points, 1)
	assert.Equal(t, scheme.CurvePointBezier, points[0].T)
	assert.InDelta(t, 0.0, points[0].X2, 1e-9)
	assert.InDelta(t, 40.0, points[0].Y2, 1e-9)
	assert.InDelta(t, -30.0, points[0].X1, 1e-9)
	assert.InDelta(t, 0.0, points[0].Y1, 1e-9)

	s.KeyPressed("Escape", MouseEvent{})
}

func TestEditCurveTrailingPointAttachesDestination(t *testing.T) {
	s := NewSession(editorScheme())

	curve := s.states[StateEditCurve].(*editCurveState)
	s.SwitchState(StateEditCurve)
	curve.initCreating()

	plant := func(x, y float64) {
		s.MouseDown(MouseEvent{X: x, Y: y, Buttons: 1})
		s.MouseUp(MouseEvent{X: x, Y: y})
	}
	plant(50, -5)
	plant(200, 200)
	plant(295, 50)
	s.KeyPressed("Enter", MouseEvent{})

	curves := s.Container().FindItemsByName("Curve")
	require.Len(t, curves, 1)
	props := curves[0].ShapeProps
	assert.Equal(t, "#a", props[scheme.PropSourceItem])
	assert.Equal(t, "#b", props[scheme.PropDestinationItem])

	// the last planted point snapped onto b's outline
	points := scheme.CurvePointsFromProps(props)
	require.Len(t, points, 3)
	assert.InDelta(t, 300.0, points[2].X, 1e-9)
	assert.InDelta(t, 50.0, points[2].Y, 1e-9)
}

func TestEditCurveMidpointAwayFromItemsClearsDestination(t *testing.T) {
	s := NewSession(editorScheme())

	curve := s.states[StateEditCurve].(*editCurveState)
	s.SwitchState(StateEditCurve)
	curve.initCreating()

	plant := func(x, y float64) {
		s.MouseDown(MouseEvent{X: x, Y: y, Buttons: 1})
		s.MouseUp(MouseEvent{X: x, Y: y})
	}
	plant(50, -5)
	plant(295, 50)
	// drawing past b drops the earlier destination proposal
	plant(700, 700)
	s.KeyPressed("Enter", MouseEvent{})

	curves := s.Container().FindItemsByName("Curve")
	require.Len(t, curves, 1)
	props := curves[0].ShapeProps
	assert.Equal(t, "#a", props[scheme.PropSourceItem])
	assert.NotContains(t, props, scheme.PropDestinationItem)
}

func TestEditCurveDetachActions(t *testing.T) {
	s := NewSession(editorScheme())
	conn := scheme.NewItem("conn", "Connector", scheme.ShapeConnector)
	conn.ShapeProps = map[string]any{
		scheme.PropSourceItem:              "#a",
		scheme.PropSourceItemPosition:      50.0,
		scheme.PropDestinationItem:         "#b",
		scheme.PropDestinationItemPosition: 0.0,
	}
	s.Container().AddItem(conn)
	s.Container().BuildConnector(conn)

	curve := s.states[StateEditCurve].(*editCurveState)
	s.SwitchState(StateEditCurve)
	curve.initEditing(conn)

	curve.DetachSource()
	assert.NotContains(t, conn.ShapeProps, scheme.PropSourceItem)
	assert.NotContains(t, conn.ShapeProps, scheme.PropSourceItemPosition)
	assert.Equal(t, "#b", conn.ShapeProps[scheme.PropDestinationItem])

	curve.DetachDestination()
	assert.NotContains(t, conn.ShapeProps, scheme.PropDestinationItem)

	// detached points stay where the endpoints last were
	points := scheme.CurvePointsFromProps(conn.ShapeProps)
	require.Len(t, points, 2)
	assert.InDelta(t, 50.0, points[0].X, 1e-9)
	assert.InDelta(t, 300.0, points[1].X, 1e-9)
}

func TestDragScreenPansWithoutTouchingScheme(t *testing.T) {
	s := NewSession(editorScheme())
	events := collectEvents(s)

	// world coordinates are re-derived from the current transform on every
	// event, the way a real pointer stream arrives
	pointer := func(mx, my float64, buttons int) MouseEvent {
		wx, wy := s.Container().ScreenToWorld(mx, my)
		return MouseEvent{X: wx, Y: wy, MX: mx, MY: my, Buttons: buttons}
	}

	s.SwitchState(StateDragScreen)
	s.MouseDown(pointer(0, 0, 1))
	s.MouseMove(pointer(10, 15, 1))
	s.MouseMove(pointer(20, 30, 1))

	// the pan accumulates across moves instead of resetting each event
	screen := s.Container().ScreenTransform()
	assert.InDelta(t, 20.0, screen.X, 1e-9)
	assert.InDelta(t, 30.0, screen.Y, 1e-9)

	s.MouseUp(pointer(20, 30, 0))
	assert.Equal(t, StateIdle, s.CurrentState())
	assert.NotContains(t, kinds(*events), EventSchemeChangeCommitted)
}

func TestInteractModeClickAndHoverEvents(t *testing.T) {
	sch := editorScheme()
	sch.Items[0].Behavior.Events = []scheme.BehaviorEvent{
		{Event: scheme.EventClicked, Actions: []scheme.BehaviorAction{
			{Element: "self", Method: "set", Args: map[string]any{"field": "opacity", "value": 40.0}},
		}},
		{Event: scheme.EventMouseIn, Actions: []scheme.BehaviorAction{
			{Element: "self", Method: "set", Args: map[string]any{"field": "selfOpacity", "value": 55.0}},
		}},
	}

	s := NewSession(sch)
	s.EnterInteractMode()
	require.Equal(t, ModeInteract, s.Mode())

	s.MouseMove(MouseEvent{X: 50, Y: 50})
	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})

	a := s.Container().FindItemByID("a")
	assert.InDelta(t, 40.0, a.Opacity, 1e-9)
	assert.InDelta(t, 55.0, a.SelfOpacity, 1e-9)

	// edit mode clears subscriptions, clicks select again instead
	s.EnterEditMode()
	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})
	assert.Equal(t, StateDragItem, s.CurrentState())
	s.MouseUp(MouseEvent{X: 50, Y: 50})
}

func TestRemountOnDropIntoFrame(t *testing.T) {
	s := NewSession(editorScheme())

	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})
	s.MouseMove(MouseEvent{X: 600, Y: 400, Buttons: 1})
	s.MouseUp(MouseEvent{X: 600, Y: 400})

	a := s.Container().FindItemByID("a")
	require.NotNil(t, a)
	assert.Equal(t, "frame", a.Meta.ParentID)
	// the world position is preserved by the remount
	world := s.Container().WorldPointOnItem(a, 0, 0)
	assert.InDelta(t, 550.0, world.X, 1e-9)
	assert.InDelta(t, 350.0, world.Y, 1e-9)
}

func TestDragRerouteWaypoint(t *testing.T) {
	sch := editorScheme()
	conn := scheme.NewItem("conn", "Connector", scheme.ShapeConnector)
	conn.ShapeProps[scheme.PropSourceItem] = "#a"
	conn.ShapeProps[scheme.PropSourceItemPosition] = 0.0
	conn.ShapeProps[scheme.PropDestinationItem] = "#b"
	conn.ShapeProps[scheme.PropDestinationItemPosition] = 0.0
	sch.Items = append(sch.Items, conn)

	s := NewSession(sch)
	c := s.Container()
	connItem := c.FindItemByID("conn")
	c.BuildConnector(connItem)
	c.AddReroute(connItem, 200, 150)

	s.MouseDown(MouseEvent{X: 200, Y: 150, Buttons: 1})
	require.Equal(t, StateDragItem, s.CurrentState())

	s.MouseMove(MouseEvent{X: 220, Y: 170, Buttons: 1})
	s.MouseUp(MouseEvent{X: 220, Y: 170})

	reroutes := scene.ReroutesFromProps(connItem.ShapeProps)
	require.Len(t, reroutes, 1)
	assert.InDelta(t, 220.0, reroutes[0].X, 1e-9)
	assert.InDelta(t, 170.0, reroutes[0].Y, 1e-9)

	points := scheme.CurvePointsFromProps(connItem.ShapeProps)
	require.Len(t, points, 3)
	assert.InDelta(t, 220.0, points[1].X, 1e-9)
	assert.InDelta(t, 170.0, points[1].Y, 1e-9)
	assert.Equal(t, StateIdle, s.CurrentState())
}

func TestSwitchStateResetsGestureFlags(t *testing.T) {
	s := NewSession(editorScheme())

	s.MouseDown(MouseEvent{X: 50, Y: 50, Buttons: 1})
	require.Equal(t, StateDragItem, s.CurrentState())

	s.SwitchState(StateIdle)
	// the interrupted drag left no pending gesture behind
	s.MouseMove(MouseEvent{X: 500, Y: 500, Buttons: 1})
	assert.InDelta(t, 0.0, s.Container().FindItemByID("a").Area.X, 1e-9)
}
