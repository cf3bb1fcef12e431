package editor

import (
	"math"

	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// closeCurveDistance is the screen-space distance to the first point within
// which a click closes the curve.
const closeCurveDistance = 5.0

// editCurveState draws new connector curves point by point and edits the
// points of existing ones. During creation the trailing point follows the
// cursor until it is planted by a click; a drag before release turns the
// planted point into a bezier point with symmetric handles.
type editCurveState struct {
	baseState

	item     *scheme.Item
	creating bool

	// pending is true while the trailing preview point is unconfirmed.
	pending bool

	draggingPoint int
	dragMoved     bool
	downX, downY  float64
}

func newEditCurveState(s *Session) *editCurveState {
	return &editCurveState{baseState: baseState{session: s, name: StateEditCurve}, draggingPoint: -1}
}

// initCreating starts drawing a fresh connector curve.
func (s *editCurveState) initCreating() {
	connector := scheme.NewItem("", s.session.container.GenerateUniqueName("Curve"), scheme.ShapeConnector)
	s.item = s.session.container.AddItem(connector)
	s.creating = true
	s.pending = false
	s.draggingPoint = -1
}

// initEditing opens an existing connector for point editing.
func (s *editCurveState) initEditing(item *scheme.Item) {
	s.item = item
	s.creating = false
	s.pending = false
	s.draggingPoint = -1
}

func (s *editCurveState) zoom() float64 {
	scale := s.session.container.ScreenTransform().Scale
	if scale <= 0 {
		return 1
	}
	return scale
}

func (s *editCurveState) points() []scheme.CurvePoint {
	return scheme.CurvePointsFromProps(s.item.ShapeProps)
}

func (s *editCurveState) setPoints(points []scheme.CurvePoint) {
	scheme.SetCurvePoints(s.item.ShapeProps, points)
	s.session.events.redrawConnector(s.item.ID)
}

// toLocal maps a world point into the connector's local space.
func (s *editCurveState) toLocal(x, y float64) (float64, float64) {
	return s.session.container.WorldTransformOfItem(s.item).Invert().TransformPoint(x, y)
}

func (s *editCurveState) toWorld(x, y float64) (float64, float64) {
	return s.session.container.WorldTransformOfItem(s.item).TransformPoint(x, y)
}

func (s *editCurveState) MouseDown(ev MouseEvent) {
	if s.item == nil {
		return
	}
	if s.creating {
		s.mouseDownCreating(ev)
		return
	}
	// editing: grab the nearest point
	if idx := s.findPointAt(ev.X, ev.Y, 10/s.zoom()); idx >= 0 {
		s.draggingPoint = idx
		s.dragMoved = false
		s.downX, s.downY = ev.X, ev.Y
	}
}

func (s *editCurveState) mouseDownCreating(ev MouseEvent) {
	points := s.points()

	// clicking near the first point closes the curve
	if len(points) >= 3 {
		fx, fy := s.toWorld(points[0].X, points[0].Y)
		if math.Hypot(ev.X-fx, ev.Y-fy) <= closeCurveDistance/s.zoom() {
			if s.pending {
				points = points[:len(points)-1]
			}
			s.item.ShapeProps[scheme.PropClosed] = true
			s.setPoints(points)
			s.finishCreating()
			return
		}
	}

	// endpoints snap onto item outlines and attach: the first planted point
	// proposes the source, every later one proposes the destination until a
	// following point lands away from any outline
	x, y := s.session.snap(ev.X), s.session.snap(ev.Y)
	if closest, ok := s.session.container.FindClosestPointToItems(ev.X, ev.Y, snapAttachDistance/s.zoom(), map[string]bool{s.item.ID: true}); ok {
		x, y = closest.X, closest.Y
		itemKey, posKey := scheme.PropSourceItem, scheme.PropSourceItemPosition
		if len(points) > 0 {
			itemKey, posKey = scheme.PropDestinationItem, scheme.PropDestinationItemPosition
		}
		s.item.ShapeProps[itemKey] = "#" + closest.ItemID
		s.item.ShapeProps[posKey] = closest.DistanceOnPath
	} else if len(points) > 0 {
		delete(s.item.ShapeProps, scheme.PropDestinationItem)
		delete(s.item.ShapeProps, scheme.PropDestinationItemPosition)
	}
	lx, ly := s.toLocal(x, y)

	if s.pending {
		// plant the preview point where it currently is
		points[len(points)-1] = scheme.CurvePoint{T: scheme.CurvePointLinear, X: lx, Y: ly}
	} else {
		points = append(points, scheme.CurvePoint{T: scheme.CurvePointLinear, X: lx, Y: ly})
	}
	s.pending = false
	s.draggingPoint = len(points) - 1
	s.dragMoved = false
	s.downX, s.downY = ev.X, ev.Y
	s.setPoints(points)
}

func (s *editCurveState) MouseMove(ev MouseEvent) {
	if s.item == nil {
		return
	}
	if s.draggingPoint >= 0 && ev.Buttons != 0 {
		if s.creating {
			s.dragOutHandles(ev)
		} else {
			s.dragPoint(ev)
		}
		return
	}
	if s.creating && s.draggingPoint < 0 {
		s.movePreview(ev)
	}
}

// dragOutHandles converts the just-planted point into a bezier point whose
// forward handle follows the drag. The handles stay mirrored; holding shift
// breaks the symmetry and moves the forward handle alone.
func (s *editCurveState) dragOutHandles(ev MouseEvent) {
	if math.Hypot(ev.X-s.downX, ev.Y-s.downY) < 2/s.zoom() {
		return
	}
	points := s.points()
	idx := s.draggingPoint
	if idx < 0 || idx >= len(points) {
		return
	}
	lx, ly := s.toLocal(ev.X, ev.Y)
	p := &points[idx]
	p.T = scheme.CurvePointBezier
	p.X2 = lx - p.X
	p.Y2 = ly - p.Y
	if !ev.Shift {
		p.X1 = -p.X2
		p.Y1 = -p.Y2
	}
	s.dragMoved = true
	s.setPoints(points)
}

// dragPoint moves an existing point under the cursor. Endpoint points snap
// onto item outlines and update the attachment.
func (s *editCurveState) dragPoint(ev MouseEvent) {
	points := s.points()
	idx := s.draggingPoint
	if idx < 0 || idx >= len(points) {
		return
	}
	x, y := s.session.snap(ev.X), s.session.snap(ev.Y)

	highlighted := []string{}
	if idx == 0 || idx == len(points)-1 {
		itemKey, posKey := scheme.PropSourceItem, scheme.PropSourceItemPosition
		if idx == len(points)-1 {
			itemKey, posKey = scheme.PropDestinationItem, scheme.PropDestinationItemPosition
		}
		if closest, ok := s.session.container.FindClosestPointToItems(ev.X, ev.Y, snapAttachDistance/s.zoom(), map[string]bool{s.item.ID: true}); ok {
			x, y = closest.X, closest.Y
			s.item.ShapeProps[itemKey] = "#" + closest.ItemID
			s.item.ShapeProps[posKey] = closest.DistanceOnPath
			highlighted = append(highlighted, closest.ItemID)
		} else {
			delete(s.item.ShapeProps, itemKey)
			delete(s.item.ShapeProps, posKey)
		}
	}

	lx, ly := s.toLocal(x, y)
	points[idx].X = lx
	points[idx].Y = ly
	s.dragMoved = true
	s.session.events.itemsHighlighted(highlighted)
	s.setPoints(points)
}

// movePreview keeps the trailing unconfirmed point under the cursor.
func (s *editCurveState) movePreview(ev MouseEvent) {
	points := s.points()
	if len(points) == 0 {
		return
	}
	lx, ly := s.toLocal(s.session.snap(ev.X), s.session.snap(ev.Y))
	preview := scheme.CurvePoint{T: scheme.CurvePointLinear, X: lx, Y: ly}
	if s.pending {
		points[len(points)-1] = preview
	} else {
		points = append(points, preview)
		s.pending = true
	}
	s.setPoints(points)
}

func (s *editCurveState) MouseUp(ev MouseEvent) {
	if s.item == nil {
		return
	}
	if s.creating {
		s.draggingPoint = -1
		return
	}
	if s.draggingPoint >= 0 {
		moved := s.dragMoved
		s.draggingPoint = -1
		s.dragMoved = false
		s.session.events.itemsHighlighted(nil)
		if moved {
			s.session.CommitSchemeChange()
		}
	}
}

func (s *editCurveState) MouseDoubleClick(ev MouseEvent) {
	if s.item == nil {
		return
	}
	if s.creating {
		s.finishCreating()
		return
	}
	s.insertPointAt(ev)
}

// insertPointAt adds a point in the middle of the segment closest to the
// cursor.
func (s *editCurveState) insertPointAt(ev MouseEvent) {
	points := s.points()
	if len(points) < 2 {
		return
	}
	lx, ly := s.toLocal(ev.X, ev.Y)

	bestSeg := -1
	bestDist := math.Inf(1)
	for i := 0; i+1 < len(points); i++ {
		d := distanceToSegment(lx, ly, points[i].X, points[i].Y, points[i+1].X, points[i+1].Y)
		if d < bestDist {
			bestDist = d
			bestSeg = i
		}
	}
	if bestSeg < 0 || bestDist > 10/s.zoom() {
		return
	}
	inserted := scheme.CurvePoint{T: scheme.CurvePointLinear, X: lx, Y: ly}
	points = append(points[:bestSeg+1], append([]scheme.CurvePoint{inserted}, points[bestSeg+1:]...)...)
	s.setPoints(points)
	s.session.CommitSchemeChange()
}

// ConvertPointAt toggles the point nearest to the world position between
// linear and bezier.
func (s *editCurveState) ConvertPointAt(x, y float64) {
	idx := s.findPointAt(x, y, 10/s.zoom())
	if idx < 0 {
		return
	}
	points := s.points()
	p := &points[idx]
	if p.T == scheme.CurvePointBezier {
		p.T = scheme.CurvePointLinear
		p.X1, p.Y1, p.X2, p.Y2 = 0, 0, 0, 0
	} else {
		p.T = scheme.CurvePointBezier
		p.X1, p.Y1 = -10, 0
		p.X2, p.Y2 = 10, 0
	}
	s.setPoints(points)
	s.session.CommitSchemeChange()
}

// DetachSource releases the source endpoint from its attached item. The
// endpoint keeps its current position.
func (s *editCurveState) DetachSource() {
	s.detachEndpoint(scheme.PropSourceItem, scheme.PropSourceItemPosition)
}

// DetachDestination releases the destination endpoint from its attached
// item.
func (s *editCurveState) DetachDestination() {
	s.detachEndpoint(scheme.PropDestinationItem, scheme.PropDestinationItemPosition)
}

func (s *editCurveState) detachEndpoint(itemKey, posKey string) {
	if s.item == nil {
		return
	}
	if _, ok := s.item.ShapeProps[itemKey]; !ok {
		return
	}
	delete(s.item.ShapeProps, itemKey)
	delete(s.item.ShapeProps, posKey)
	s.session.events.redrawConnector(s.item.ID)
	s.session.CommitSchemeChange()
}

func (s *editCurveState) KeyPressed(key string, ev MouseEvent) {
	if s.item == nil {
		return
	}
	switch key {
	case "Enter":
		if s.creating {
			s.finishCreating()
		}
	case "b", "l":
		if !s.creating {
			s.ConvertPointAt(ev.X, ev.Y)
		}
	}
}

// finishCreating drops the preview point, commits the curve and returns to
// idle. A curve with fewer than two planted points is discarded.
func (s *editCurveState) finishCreating() {
	points := s.points()
	if s.pending && len(points) > 0 {
		points = points[:len(points)-1]
		s.pending = false
	}
	if len(points) < 2 {
		s.session.container.DeleteItem(s.item.ID)
		s.item = nil
		s.creating = false
		s.session.SwitchState(StateIdle)
		return
	}
	s.setPoints(points)
	s.session.container.SelectItem(s.item, false)
	s.item = nil
	s.creating = false
	s.session.CommitSchemeChange()
	s.session.SwitchState(StateIdle)
}

func (s *editCurveState) Cancel() {
	if s.item == nil {
		s.session.SwitchState(StateIdle)
		return
	}
	if s.creating {
		s.finishCreating()
		return
	}
	s.draggingPoint = -1
	s.item = nil
	s.session.SwitchState(StateIdle)
}

// findPointAt returns the index of the curve point within the given world
// distance of (x, y), or -1.
func (s *editCurveState) findPointAt(x, y, maxDistance float64) int {
	points := s.points()
	best := -1
	bestDist := maxDistance
	for i, p := range points {
		wx, wy := s.toWorld(p.X, p.Y)
		d := math.Hypot(x-wx, y-wy)
		if d <= bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func distanceToSegment(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((px-x1)*dx + (py-y1)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

func (s *editCurveState) Reset() {
	s.item = nil
	s.creating = false
	s.pending = false
	s.draggingPoint = -1
	s.dragMoved = false
}
