package geometry

import "math"

// Point is a 2D point in either local, world or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the euclidean distance between two points.
func (p Point) DistanceTo(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// ContainsRect checks if another rect lies fully inside this rect.
func (r Rect) ContainsRect(other Rect) bool {
	return r.Contains(other.X, other.Y) &&
		r.Contains(other.X+other.Width, other.Y+other.Height)
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the surface area of the rect, never negative.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width * r.Height
}

// Normalized returns an equivalent rect with non-negative width and height.
// Used for rubber-band selection boxes dragged up or to the left.
func (r Rect) Normalized() Rect {
	out := r
	if out.Width < 0 {
		out.X += out.Width
		out.Width = -out.Width
	}
	if out.Height < 0 {
		out.Y += out.Height
		out.Height = -out.Height
	}
	return out
}

// Overlap returns the area of the intersection of two rects.
func (r Rect) Overlap(other Rect) float64 {
	left := max(r.X, other.X)
	top := max(r.Y, other.Y)
	right := min(r.X+r.Width, other.X+other.Width)
	bottom := min(r.Y+r.Height, other.Y+other.Height)
	if right <= left || bottom <= top {
		return 0
	}
	return (right - left) * (bottom - top)
}
