package scheme

import "encoding/json"

// Curve point types.
const (
	CurvePointLinear = "L"
	CurvePointBezier = "B"
)

// CurvePoint is a single point of a connector curve in the connector item's
// local coordinates. For bezier points (x1, y1) and (x2, y2) are the control
// handles relative to (x, y). Break starts a new sub-path at this point.
type CurvePoint struct {
	T     string  `json:"t"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	X1    float64 `json:"x1,omitempty"`
	Y1    float64 `json:"y1,omitempty"`
	X2    float64 `json:"x2,omitempty"`
	Y2    float64 `json:"y2,omitempty"`
	Break bool    `json:"break,omitempty"`
}

// Connector shape property keys.
const (
	PropPoints                  = "points"
	PropSourceItem              = "sourceItem"
	PropSourceItemPosition      = "sourceItemPosition"
	PropDestinationItem         = "destinationItem"
	PropDestinationItemPosition = "destinationItemPosition"
	PropReroutes                = "reroutes"
	PropClosed                  = "closed"
)

// Reroute is a user-placed waypoint that a connector path must pass through.
type Reroute struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connector is the persisted record of an edge between two items. The curve
// item referencing it carries the rendered path in its shape props; this
// record is the durable endpoint description.
type Connector struct {
	ID              string    `json:"id"`
	SourceItem      string    `json:"sourceItem"`
	DestinationItem string    `json:"destinationItem"`
	Reroutes        []Reroute `json:"reroutes,omitempty"`
	Style           Style     `json:"style"`
}

// CurvePointsFromProps decodes the points list out of a connector item's
// shape props. Returns nil when absent or malformed.
func CurvePointsFromProps(props map[string]any) []CurvePoint {
	raw, ok := props[PropPoints]
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var points []CurvePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil
	}
	return points
}

// SetReroutes stores the reroute list into a connector item's shape props in
// the generic map form.
func SetReroutes(props map[string]any, reroutes []Reroute) {
	out := make([]any, 0, len(reroutes))
	for _, r := range reroutes {
		out = append(out, map[string]any{"x": r.X, "y": r.Y})
	}
	props[PropReroutes] = out
}

// SetCurvePoints stores the points list into a connector item's shape props
// in the generic map form used everywhere else in the property bag.
func SetCurvePoints(props map[string]any, points []CurvePoint) {
	out := make([]any, 0, len(points))
	for _, p := range points {
		m := map[string]any{"t": p.T, "x": p.X, "y": p.Y}
		if p.T == CurvePointBezier {
			m["x1"] = p.X1
			m["y1"] = p.Y1
			m["x2"] = p.X2
			m["y2"] = p.Y2
		}
		if p.Break {
			m["break"] = true
		}
		out = append(out, m)
	}
	props[PropPoints] = out
}

// StringProp reads a string property from a shape property bag.
func StringProp(props map[string]any, key string) string {
	if props == nil {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// FloatProp reads a numeric property from a shape property bag. JSON numbers
// arrive as float64 but template output may carry ints.
func FloatProp(props map[string]any, key string) (float64, bool) {
	if props == nil {
		return 0, false
	}
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
