package scene

import (
	"math"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// WorldTransformOfItem returns the full world matrix of the item, parent
// chain included.
func (c *Container) WorldTransformOfItem(item *scheme.Item) geometry.Matrix2D {
	return item.Meta.Transform.Multiply(areaMatrix(item.Area))
}

// WorldPointOnItem converts a point in the item's local coordinates into
// world coordinates.
func (c *Container) WorldPointOnItem(item *scheme.Item, x, y float64) geometry.Point {
	wx, wy := c.WorldTransformOfItem(item).TransformPoint(x, y)
	return geometry.Point{X: wx, Y: wy}
}

// LocalPointOnItem converts a world point into the item's local coordinates.
// It is the exact inverse of WorldPointOnItem.
func (c *Container) LocalPointOnItem(item *scheme.Item, x, y float64) geometry.Point {
	lx, ly := c.WorldTransformOfItem(item).Invert().TransformPoint(x, y)
	return geometry.Point{X: lx, Y: ly}
}

// WorldAngleOfItem returns the accumulated rotation of the item in degrees.
func (c *Container) WorldAngleOfItem(item *scheme.Item) float64 {
	m := c.WorldTransformOfItem(item)
	return math.Atan2(m[1], m[0]) * 180 / math.Pi
}

// WorldBoundsOfItem returns the axis-aligned world bounding box of the
// item's own area.
func (c *Container) WorldBoundsOfItem(item *scheme.Item) geometry.Rect {
	local := geometry.Rect{Width: item.Area.W, Height: item.Area.H}
	return c.WorldTransformOfItem(item).TransformRect(local)
}

// BoundingBoxOfItems returns the union of the world bounding boxes of the
// given items.
func (c *Container) BoundingBoxOfItems(items []*scheme.Item) geometry.Rect {
	var box geometry.Rect
	for _, item := range items {
		box = box.Union(c.WorldBoundsOfItem(item))
	}
	return box
}

// RemountItemInsideOtherItem moves the item under a new parent while
// preserving its world position and rotation. Remounting an item into itself
// or into one of its own descendants is a no-op. A nil parent remounts the
// item to the scheme root.
func (c *Container) RemountItemInsideOtherItem(item, parent *scheme.Item) bool {
	if item == nil {
		return false
	}
	if parent != nil {
		if parent.ID == item.ID {
			return false
		}
		for _, ancestorID := range parent.Meta.AncestorIDs {
			if ancestorID == item.ID {
				return false
			}
		}
		if parent.ID == item.Meta.ParentID {
			return false
		}
	} else if item.Meta.ParentID == "" {
		return false
	}

	world := c.WorldTransformOfItem(item)

	// detach from the current parent
	if item.Meta.ParentID == "" {
		c.scheme.Items = removeFromList(c.scheme.Items, item)
	} else if oldParent := c.itemsByID[item.Meta.ParentID]; oldParent != nil {
		oldParent.ChildItems = removeFromList(oldParent.ChildItems, item)
	}

	parentWorld := geometry.Identity()
	if parent != nil {
		parentWorld = c.WorldTransformOfItem(parent)
		parent.ChildItems = append(parent.ChildItems, item)
	} else {
		c.scheme.Items = append(c.scheme.Items, item)
	}

	// recover the local area from the preserved world matrix
	local := parentWorld.Invert().Multiply(world)
	item.Area = areaFromMatrix(local, item.Area)

	c.Reindex()
	return true
}

// areaFromMatrix decomposes a rotation-and-translation matrix back into area
// coordinates, keeping the size and pivot of the previous area.
func areaFromMatrix(m geometry.Matrix2D, prev scheme.Area) scheme.Area {
	r := math.Atan2(m[1], m[0])
	cos := math.Cos(r)
	sin := math.Sin(r)
	ax := prev.Px * prev.W
	ay := prev.Py * prev.H

	out := prev
	out.R = r * 180 / math.Pi
	out.X = m[4] - ax + cos*ax - sin*ay
	out.Y = m[5] - ay + sin*ax + cos*ay
	return out
}
