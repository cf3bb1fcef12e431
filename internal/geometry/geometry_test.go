package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAreaTransformIdentity(t *testing.T) {
	m := AreaTransform(0, 0, 100, 50, 0, 0.5, 0.5)
	assert.True(t, m.IsIdentity())
}

func TestAreaTransformPivotStaysFixed(t *testing.T) {
	// rotation around the pivot must not move the pivot point itself
	w, h := 100.0, 60.0
	px, py := 0.5, 0.5
	for _, angle := range []float64{0, 30, 45, 90, 180, -73} {
		m := AreaTransform(10, 20, w, h, angle, px, py)
		x, y := m.TransformPoint(px*w, py*h)
		assert.InDelta(t, 10+px*w, x, 1e-9, "angle %v", angle)
		assert.InDelta(t, 20+py*h, y, 1e-9, "angle %v", angle)
	}
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := AreaTransform(34, -12, 80, 40, 67, 0.25, 0.75)
	inv := m.Invert()

	x, y := m.TransformPoint(15, 27)
	bx, by := inv.TransformPoint(x, y)
	assert.InDelta(t, 15, bx, 1e-9)
	assert.InDelta(t, 27, by, 1e-9)
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// translate after rotate differs from rotate after translate
	a := Translate(10, 0).Multiply(RotateDegrees(90))
	b := RotateDegrees(90).Multiply(Translate(10, 0))

	ax, ay := a.TransformPoint(1, 0)
	assert.InDelta(t, 10, ax, 1e-9)
	assert.InDelta(t, 1, ay, 1e-9)

	bx, by := b.TransformPoint(1, 0)
	assert.InDelta(t, 0, bx, 1e-9)
	assert.InDelta(t, 11, by, 1e-9)
}

func TestRectNormalized(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: -4, Height: -6}.Normalized()
	assert.Equal(t, Rect{X: 6, Y: 4, Width: 4, Height: 6}, r)
}

func TestRectOverlap(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	assert.InDelta(t, 25, a.Overlap(b), 1e-9)
	assert.Zero(t, a.Overlap(Rect{X: 20, Y: 20, Width: 5, Height: 5}))
}

func TestPathPointAtLength(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)

	require.InDelta(t, 20, p.TotalLength(), 1e-9)

	pt := p.PointAtLength(5)
	assert.InDelta(t, 5, pt.X, 1e-9)
	assert.InDelta(t, 0, pt.Y, 1e-9)

	pt = p.PointAtLength(15)
	assert.InDelta(t, 10, pt.X, 1e-9)
	assert.InDelta(t, 5, pt.Y, 1e-9)

	// clamped on both ends
	assert.Equal(t, Point{X: 0, Y: 0}, p.PointAtLength(-3))
	assert.Equal(t, Point{X: 10, Y: 10}, p.PointAtLength(100))
}

func TestPathClosestPoint(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(100, 0)

	pt, onPath, dist := p.ClosestPoint(40, 30)
	assert.InDelta(t, 40, pt.X, 1e-9)
	assert.InDelta(t, 0, pt.Y, 1e-9)
	assert.InDelta(t, 40, onPath, 1e-9)
	assert.InDelta(t, 30, dist, 1e-9)
}

func TestRectOutlineClosestPoint(t *testing.T) {
	outline := RectOutline(100, 50, Identity())
	pt, _, dist := outline.ClosestPoint(50, -7)
	assert.InDelta(t, 50, pt.X, 1e-9)
	assert.InDelta(t, 0, pt.Y, 1e-9)
	assert.InDelta(t, 7, dist, 1e-9)
}

func TestEllipseOutlineStaysNearRadius(t *testing.T) {
	outline := EllipseOutline(100, 100, Identity())
	require.False(t, outline.IsEmpty())

	total := outline.TotalLength()
	assert.InDelta(t, 2*math.Pi*50, total, 1.0)

	for d := 0.0; d < total; d += total / 32 {
		pt := outline.PointAtLength(d)
		r := math.Hypot(pt.X-50, pt.Y-50)
		assert.InDelta(t, 50, r, 0.5)
	}
}

func TestSnapToGrid(t *testing.T) {
	assert.Equal(t, 20.0, SnapToGrid(23, 10))
	assert.Equal(t, 30.0, SnapToGrid(25, 10))
	assert.Equal(t, 23.0, SnapToGrid(23, 0))
}
