package scene

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// ItemOutline returns the world-space outline path of the item, or nil for
// items without an outline.
func (c *Container) ItemOutline(item *scheme.Item) *geometry.Path {
	if item == nil {
		return nil
	}
	m := c.WorldTransformOfItem(item)
	switch item.Shape {
	case scheme.ShapeEllipse:
		return geometry.EllipseOutline(item.Area.W, item.Area.H, m)
	case scheme.ShapeConnector:
		return c.connectorPath(item)
	default:
		return geometry.RectOutline(item.Area.W, item.Area.H, m)
	}
}

// connectorPath samples the connector's curve points into a world-space path.
func (c *Container) connectorPath(item *scheme.Item) *geometry.Path {
	points := scheme.CurvePointsFromProps(item.ShapeProps)
	if len(points) == 0 {
		return nil
	}
	m := c.WorldTransformOfItem(item)
	path := geometry.NewPath()
	prev := points[0]
	x, y := m.TransformPoint(prev.X, prev.Y)
	path.MoveTo(x, y)
	for i := 1; i < len(points); i++ {
		p := points[i]
		x, y := m.TransformPoint(p.X, p.Y)
		if prev.T == scheme.CurvePointBezier || p.T == scheme.CurvePointBezier {
			c1x, c1y := m.TransformPoint(prev.X+prev.X2, prev.Y+prev.Y2)
			c2x, c2y := m.TransformPoint(p.X+p.X1, p.Y+p.Y1)
			path.CubicTo(c1x, c1y, c2x, c2y, x, y)
		} else {
			path.LineTo(x, y)
		}
		prev = p
	}
	return path
}

// ClosestPoint describes the nearest outline point of some item to a query
// point.
type ClosestPoint struct {
	X              float64
	Y              float64
	DistanceOnPath float64
	ItemID         string
}

// FindClosestPointToItems searches all item outlines for the point closest
// to (x, y) within the given distance. Items in the exclude set, invisible
// items and connectors are skipped. Returns false when nothing is within
// range.
func (c *Container) FindClosestPointToItems(x, y, maxDistance float64, excludeIDs map[string]bool) (ClosestPoint, bool) {
	best := ClosestPoint{}
	bestDist := math.Inf(1)
	for _, item := range c.orderedItems {
		if !item.Visible || item.Shape == scheme.ShapeConnector {
			continue
		}
		if excludeIDs[item.ID] {
			continue
		}
		outline := c.ItemOutline(item)
		if outline == nil || outline.IsEmpty() {
			continue
		}
		pt, onPath, dist := outline.ClosestPoint(x, y)
		if dist < bestDist && dist <= maxDistance {
			bestDist = dist
			best = ClosestPoint{X: pt.X, Y: pt.Y, DistanceOnPath: onPath, ItemID: item.ID}
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// ReroutesFromProps decodes the reroute waypoints of a connector item.
func ReroutesFromProps(props map[string]any) []scheme.Reroute {
	raw, ok := props[scheme.PropReroutes]
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var reroutes []scheme.Reroute
	if err := json.Unmarshal(data, &reroutes); err != nil {
		return nil
	}
	return reroutes
}

// AddReroute inserts a waypoint at the given world point, keeping the
// reroute list ordered along the connector path, and rebuilds the curve.
func (c *Container) AddReroute(connector *scheme.Item, x, y float64) {
	if connector == nil || connector.Shape != scheme.ShapeConnector {
		return
	}
	path := c.connectorPath(connector)
	if path == nil || path.IsEmpty() {
		return
	}

	_, newDist, _ := path.ClosestPoint(x, y)

	reroutes := ReroutesFromProps(connector.ShapeProps)
	insertAt := len(reroutes)
	for i, r := range reroutes {
		_, dist, _ := path.ClosestPoint(r.X, r.Y)
		if newDist < dist {
			insertAt = i
			break
		}
	}

	updated := make([]scheme.Reroute, 0, len(reroutes)+1)
	updated = append(updated, reroutes[:insertAt]...)
	updated = append(updated, scheme.Reroute{X: x, Y: y})
	updated = append(updated, reroutes[insertAt:]...)
	scheme.SetReroutes(connector.ShapeProps, updated)

	c.BuildConnector(connector)
}

// BuildConnector recomputes the curve points of a connector item from its
// endpoint attachments. Attached endpoints follow the outline of the
// referenced item at the stored path position; detached endpoints keep
// their previous location. Hand-authored interior points survive the
// rebuild untouched, handles included; reroute waypoints replace the point
// list only when no such interior points exist. Calling it twice without
// moving anything yields identical points.
func (c *Container) BuildConnector(connector *scheme.Item) {
	if connector == nil || connector.Shape != scheme.ShapeConnector {
		return
	}
	if connector.ShapeProps == nil {
		connector.ShapeProps = map[string]any{}
	}

	existing := scheme.CurvePointsFromProps(connector.ShapeProps)
	world := c.WorldTransformOfItem(connector)
	local := world.Invert()

	start, startOK := c.attachmentPoint(connector, scheme.PropSourceItem, scheme.PropSourceItemPosition)
	end, endOK := c.attachmentPoint(connector, scheme.PropDestinationItem, scheme.PropDestinationItemPosition)

	reroutes := ReroutesFromProps(connector.ShapeProps)
	if len(reroutes) == 0 && len(existing) >= 2 {
		points := make([]scheme.CurvePoint, len(existing))
		copy(points, existing)
		if startOK {
			points[0].X, points[0].Y = local.TransformPoint(start.X, start.Y)
		}
		if endOK {
			last := len(points) - 1
			points[last].X, points[last].Y = local.TransformPoint(end.X, end.Y)
		}
		scheme.SetCurvePoints(connector.ShapeProps, points)
		return
	}

	if !startOK && len(existing) > 0 {
		wx, wy := world.TransformPoint(existing[0].X, existing[0].Y)
		start = geometry.Point{X: wx, Y: wy}
	}
	if !endOK && len(existing) > 1 {
		last := existing[len(existing)-1]
		wx, wy := world.TransformPoint(last.X, last.Y)
		end = geometry.Point{X: wx, Y: wy}
	}

	worldPoints := make([]geometry.Point, 0, len(reroutes)+2)
	worldPoints = append(worldPoints, start)
	for _, r := range reroutes {
		worldPoints = append(worldPoints, geometry.Point{X: r.X, Y: r.Y})
	}
	worldPoints = append(worldPoints, end)

	points := make([]scheme.CurvePoint, 0, len(worldPoints))
	for _, wp := range worldPoints {
		lx, ly := local.TransformPoint(wp.X, wp.Y)
		points = append(points, scheme.CurvePoint{T: scheme.CurvePointLinear, X: lx, Y: ly})
	}
	scheme.SetCurvePoints(connector.ShapeProps, points)
}

// attachmentPoint resolves one endpoint of a connector to a world point on
// the attached item's outline.
func (c *Container) attachmentPoint(connector *scheme.Item, itemKey, positionKey string) (geometry.Point, bool) {
	selector := scheme.StringProp(connector.ShapeProps, itemKey)
	if selector == "" {
		return geometry.Point{}, false
	}
	item := c.FindFirstElementBySelector(selector, nil)
	if item == nil {
		return geometry.Point{}, false
	}
	outline := c.ItemOutline(item)
	if outline == nil || outline.IsEmpty() {
		return geometry.Point{}, false
	}
	pos, _ := scheme.FloatProp(connector.ShapeProps, positionKey)
	return outline.PointAtLength(pos), true
}

// ConnectorsTouchingItem returns all connector items attached to the given
// item on either end.
func (c *Container) ConnectorsTouchingItem(itemID string) []*scheme.Item {
	ref := "#" + itemID
	var out []*scheme.Item
	for _, item := range c.orderedItems {
		if item.Shape != scheme.ShapeConnector {
			continue
		}
		src := scheme.StringProp(item.ShapeProps, scheme.PropSourceItem)
		dst := scheme.StringProp(item.ShapeProps, scheme.PropDestinationItem)
		if strings.TrimSpace(src) == ref || strings.TrimSpace(dst) == ref {
			out = append(out, item)
		}
	}
	return out
}

// RebuildConnectorsForItem rebuilds every connector attached to the item.
// Called after the item moved or resized.
func (c *Container) RebuildConnectorsForItem(itemID string) []*scheme.Item {
	touched := c.ConnectorsTouchingItem(itemID)
	for _, connector := range touched {
		c.BuildConnector(connector)
	}
	return touched
}

// connectorHitDistance is the world-space distance within which a click
// counts as hitting a connector line.
const connectorHitDistance = 5.0

// HitItemAt returns the top-most visible item at the given world point, or
// nil. Connectors hit within a small distance of their line.
func (c *Container) HitItemAt(x, y float64) *scheme.Item {
	for i := len(c.orderedItems) - 1; i >= 0; i-- {
		item := c.orderedItems[i]
		if !item.Visible {
			continue
		}
		if item.Shape == scheme.ShapeConnector {
			path := c.connectorPath(item)
			if path == nil {
				continue
			}
			if _, _, dist := path.ClosestPoint(x, y); dist <= connectorHitDistance {
				return item
			}
			continue
		}
		local := c.LocalPointOnItem(item, x, y)
		if local.X >= 0 && local.X <= item.Area.W && local.Y >= 0 && local.Y <= item.Area.H {
			return item
		}
	}
	return nil
}
