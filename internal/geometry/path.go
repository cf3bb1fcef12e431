package geometry

import "math"

// bezierSegments controls how finely cubic curves are flattened when a path
// is sampled. Higher values cost memory per path, lower values cost precision
// in closest-point queries.
const bezierSegments = 16

// Path is a sampled polyline approximation of a shape outline or a connector
// curve. Cumulative lengths are kept alongside the samples so that
// PointAtLength and ClosestPoint run without re-walking the curve.
type Path struct {
	points  []Point
	lengths []float64
	closed  bool
}

// NewPath creates an empty path.
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts the path at the given point. Calling it on a non-empty path
// resets the samples.
func (p *Path) MoveTo(x, y float64) {
	p.points = p.points[:0]
	p.lengths = p.lengths[:0]
	p.points = append(p.points, Point{X: x, Y: y})
	p.lengths = append(p.lengths, 0)
}

// LineTo appends a straight segment.
func (p *Path) LineTo(x, y float64) {
	if len(p.points) == 0 {
		p.MoveTo(x, y)
		return
	}
	last := p.points[len(p.points)-1]
	next := Point{X: x, Y: y}
	p.points = append(p.points, next)
	p.lengths = append(p.lengths, p.lengths[len(p.lengths)-1]+last.DistanceTo(next))
}

// CubicTo appends a flattened cubic bezier segment. Control points are
// absolute coordinates.
func (p *Path) CubicTo(x1, y1, x2, y2, x, y float64) {
	if len(p.points) == 0 {
		p.MoveTo(x, y)
		return
	}
	from := p.points[len(p.points)-1]
	for i := 1; i <= bezierSegments; i++ {
		t := float64(i) / float64(bezierSegments)
		mt := 1 - t
		bx := mt*mt*mt*from.X + 3*mt*mt*t*x1 + 3*mt*t*t*x2 + t*t*t*x
		by := mt*mt*mt*from.Y + 3*mt*mt*t*y1 + 3*mt*t*t*y2 + t*t*t*y
		p.LineTo(bx, by)
	}
}

// Close connects the last sample back to the first one.
func (p *Path) Close() {
	if len(p.points) < 2 || p.closed {
		return
	}
	first := p.points[0]
	p.LineTo(first.X, first.Y)
	p.closed = true
}

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool {
	return len(p.points) < 2
}

// TotalLength returns the length of the sampled path.
func (p *Path) TotalLength() float64 {
	if len(p.lengths) == 0 {
		return 0
	}
	return p.lengths[len(p.lengths)-1]
}

// PointAtLength returns the point at the given distance along the path.
// Distances are clamped to [0, TotalLength].
func (p *Path) PointAtLength(d float64) Point {
	if len(p.points) == 0 {
		return Point{}
	}
	if d <= 0 {
		return p.points[0]
	}
	total := p.TotalLength()
	if d >= total {
		return p.points[len(p.points)-1]
	}

	// binary search for the segment containing d
	lo, hi := 0, len(p.lengths)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if p.lengths[mid] < d {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	i := lo
	segLen := p.lengths[i] - p.lengths[i-1]
	if segLen == 0 {
		return p.points[i]
	}
	t := (d - p.lengths[i-1]) / segLen
	a, b := p.points[i-1], p.points[i]
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// ClosestPoint finds the point on the path closest to (x, y). It returns the
// point, its distance along the path and the distance from (x, y) to it.
func (p *Path) ClosestPoint(x, y float64) (point Point, distanceOnPath float64, distance float64) {
	if len(p.points) == 0 {
		return Point{}, 0, math.Inf(1)
	}
	if len(p.points) == 1 {
		pt := p.points[0]
		return pt, 0, pt.DistanceTo(Point{X: x, Y: y})
	}

	best := math.Inf(1)
	for i := 1; i < len(p.points); i++ {
		a, b := p.points[i-1], p.points[i]
		px, py, t := closestPointOnSegment(a, b, x, y)
		dx, dy := px-x, py-y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < best {
			best = d
			point = Point{X: px, Y: py}
			segLen := p.lengths[i] - p.lengths[i-1]
			distanceOnPath = p.lengths[i-1] + t*segLen
		}
	}
	return point, distanceOnPath, best
}

func closestPointOnSegment(a, b Point, x, y float64) (px, py, t float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a.X, a.Y, 0
	}
	t = ((x-a.X)*dx + (y-a.Y)*dy) / lenSq
	t = max(0, min(1, t))
	return a.X + dx*t, a.Y + dy*t, t
}

// bezier circle approximation constant
const circleK = 0.5522847498

// RectOutline builds the outline path of a w x h rectangle in local
// coordinates, transformed by m.
func RectOutline(w, h float64, m Matrix2D) *Path {
	p := NewPath()
	x0, y0 := m.TransformPoint(0, 0)
	p.MoveTo(x0, y0)
	x1, y1 := m.TransformPoint(w, 0)
	p.LineTo(x1, y1)
	x2, y2 := m.TransformPoint(w, h)
	p.LineTo(x2, y2)
	x3, y3 := m.TransformPoint(0, h)
	p.LineTo(x3, y3)
	p.Close()
	return p
}

// EllipseOutline builds the outline path of an ellipse inscribed in a w x h
// box in local coordinates, transformed by m. Each quarter arc is a cubic
// approximation.
func EllipseOutline(w, h float64, m Matrix2D) *Path {
	rx := w / 2
	ry := h / 2
	cx := rx
	cy := ry
	kx := rx * circleK
	ky := ry * circleK

	type pt struct{ x, y float64 }
	move := pt{cx + rx, cy}
	arcs := [][6]float64{
		{cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
	}

	p := NewPath()
	mx, my := m.TransformPoint(move.x, move.y)
	p.MoveTo(mx, my)
	for _, a := range arcs {
		x1, y1 := m.TransformPoint(a[0], a[1])
		x2, y2 := m.TransformPoint(a[2], a[3])
		x3, y3 := m.TransformPoint(a[4], a[5])
		p.CubicTo(x1, y1, x2, y2, x3, y3)
	}
	p.closed = true
	return p
}
