package geometry

import "math"

// SnapToGrid rounds v to the nearest multiple of step. A step of zero or
// less disables snapping.
func SnapToGrid(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// SnapPointToGrid snaps both coordinates of a point.
func SnapPointToGrid(p Point, step float64) Point {
	return Point{X: SnapToGrid(p.X, step), Y: SnapToGrid(p.Y, step)}
}
