package scene

import (
	"fmt"
	"log/slog"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
	"github.com/schemeflow/schemeflow/backend-go/internal/typeid"
)

// ScreenTransform maps world coordinates onto the screen. Offset is applied
// after scaling.
type ScreenTransform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Container indexes a scheme for editing. It owns the flat item arena, the
// selection set and the screen transform. All lookups run against the arena;
// the item tree embedded in the scheme remains the serialized form.
type Container struct {
	scheme *scheme.Scheme

	itemsByID   map[string]*scheme.Item
	itemsByName map[string][]*scheme.Item
	itemsByTag  map[string][]*scheme.Item
	// paint order, parents before children, later siblings after earlier
	orderedItems []*scheme.Item

	selectedSet   map[string]bool
	selectedItems []*scheme.Item

	screen ScreenTransform
}

// NewContainer indexes the given scheme.
func NewContainer(s *scheme.Scheme) *Container {
	c := &Container{
		scheme: s,
		screen: ScreenTransform{Scale: 1},
	}
	c.Reindex()
	return c
}

// Scheme returns the underlying scheme document.
func (c *Container) Scheme() *scheme.Scheme {
	return c.scheme
}

// ScreenTransform returns the current world-to-screen transform.
func (c *Container) ScreenTransform() ScreenTransform {
	return c.screen
}

// SetScreenTransform replaces the world-to-screen transform. A non-positive
// scale is rejected.
func (c *Container) SetScreenTransform(t ScreenTransform) {
	if t.Scale <= 0 {
		slog.Warn("ignoring screen transform with non-positive scale", "scale", t.Scale)
		return
	}
	c.screen = t
}

// ScreenToWorld converts a screen point into world coordinates.
func (c *Container) ScreenToWorld(x, y float64) (float64, float64) {
	return (x - c.screen.X) / c.screen.Scale, (y - c.screen.Y) / c.screen.Scale
}

// WorldToScreen converts a world point into screen coordinates.
func (c *Container) WorldToScreen(x, y float64) (float64, float64) {
	return x*c.screen.Scale + c.screen.X, y*c.screen.Scale + c.screen.Y
}

// Reindex rebuilds the arena, the name and tag indexes and every item's
// transient meta from the scheme's item tree. Prior selection is kept for
// items that still exist.
func (c *Container) Reindex() {
	c.itemsByID = make(map[string]*scheme.Item)
	c.itemsByName = make(map[string][]*scheme.Item)
	c.itemsByTag = make(map[string][]*scheme.Item)
	c.orderedItems = c.orderedItems[:0]

	for _, item := range c.scheme.Items {
		c.indexItem(item, geometry.Identity(), "", nil)
	}

	if c.selectedSet != nil {
		kept := make([]*scheme.Item, 0, len(c.selectedItems))
		keptSet := make(map[string]bool, len(c.selectedSet))
		for _, item := range c.selectedItems {
			if live, ok := c.itemsByID[item.ID]; ok {
				kept = append(kept, live)
				keptSet[live.ID] = true
			}
		}
		c.selectedItems = kept
		c.selectedSet = keptSet
	} else {
		c.selectedSet = make(map[string]bool)
	}
}

func (c *Container) indexItem(item *scheme.Item, parentWorld geometry.Matrix2D, parentID string, ancestors []string) {
	item.Meta.Transform = parentWorld
	item.Meta.ParentID = parentID
	item.Meta.AncestorIDs = append([]string(nil), ancestors...)

	c.itemsByID[item.ID] = item
	if item.Name != "" {
		c.itemsByName[item.Name] = append(c.itemsByName[item.Name], item)
	}
	for _, tag := range item.Tags {
		c.itemsByTag[tag] = append(c.itemsByTag[tag], item)
	}
	c.orderedItems = append(c.orderedItems, item)

	world := parentWorld.Multiply(areaMatrix(item.Area))
	childAncestors := append(append([]string(nil), ancestors...), item.ID)
	for _, child := range item.ChildItems {
		c.indexItem(child, world, item.ID, childAncestors)
	}
}

func areaMatrix(a scheme.Area) geometry.Matrix2D {
	return geometry.AreaTransform(a.X, a.Y, a.W, a.H, a.R, a.Px, a.Py)
}

// ReindexItemTransforms recomputes the world transforms of the item's
// subtree. The item's own parent transform is taken from its meta, so the
// call is valid whenever only the subtree moved.
func (c *Container) ReindexItemTransforms(item *scheme.Item) {
	world := item.Meta.Transform.Multiply(areaMatrix(item.Area))
	for _, child := range item.ChildItems {
		child.Meta.Transform = world
		c.ReindexItemTransforms(child)
	}
}

// FindItemByID returns the item with the given id, or nil.
func (c *Container) FindItemByID(id string) *scheme.Item {
	return c.itemsByID[id]
}

// FindItemsByName returns all items carrying the given name, in paint order.
func (c *Container) FindItemsByName(name string) []*scheme.Item {
	return c.itemsByName[name]
}

// Items returns every indexed item in paint order.
func (c *Container) Items() []*scheme.Item {
	return c.orderedItems
}

// AddItem appends the item to the scheme root and indexes it. Items without
// an id get one assigned.
func (c *Container) AddItem(item *scheme.Item) *scheme.Item {
	if item.ID == "" {
		item.ID = typeid.NewItemID()
	}
	c.scheme.Items = append(c.scheme.Items, item)
	c.indexItem(item, geometry.Identity(), "", nil)
	return item
}

// AddChildItem appends the item under the given parent and indexes it.
func (c *Container) AddChildItem(parent, item *scheme.Item) *scheme.Item {
	if item.ID == "" {
		item.ID = typeid.NewItemID()
	}
	parent.ChildItems = append(parent.ChildItems, item)
	parentWorld := parent.Meta.Transform.Multiply(areaMatrix(parent.Area))
	ancestors := append(append([]string(nil), parent.Meta.AncestorIDs...), parent.ID)
	c.indexItem(item, parentWorld, parent.ID, ancestors)
	return item
}

// DeleteItem removes the item and its subtree from the scheme. Unknown ids
// are ignored.
func (c *Container) DeleteItem(id string) {
	item := c.itemsByID[id]
	if item == nil {
		return
	}
	if item.Meta.ParentID == "" {
		c.scheme.Items = removeFromList(c.scheme.Items, item)
	} else if parent := c.itemsByID[item.Meta.ParentID]; parent != nil {
		parent.ChildItems = removeFromList(parent.ChildItems, item)
	}
	c.Reindex()
}

func removeFromList(items []*scheme.Item, target *scheme.Item) []*scheme.Item {
	for i, it := range items {
		if it == target {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

// GenerateUniqueName returns base when unused, otherwise base with the
// lowest free numeric suffix.
func (c *Container) GenerateUniqueName(base string) string {
	if len(c.itemsByName[base]) == 0 {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", base, i)
		if len(c.itemsByName[candidate]) == 0 {
			return candidate
		}
	}
}
