package scene

import (
	"strings"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// FindElementsBySelector resolves an element selector into items in paint
// order. Supported forms:
//
//	self          the item the expression runs for
//	#<id>         a single item by id
//	tag: <name>   all items carrying the tag
//	group: <name> legacy alias of tag:
//
// Unknown selectors resolve to an empty list, never an error.
func (c *Container) FindElementsBySelector(selector string, selfItem *scheme.Item) []*scheme.Item {
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "self":
		if selfItem == nil {
			return nil
		}
		return []*scheme.Item{selfItem}
	case strings.HasPrefix(selector, "#"):
		if item := c.FindItemByID(selector[1:]); item != nil {
			return []*scheme.Item{item}
		}
		return nil
	case strings.HasPrefix(selector, "tag:"):
		return c.itemsByTag[strings.TrimSpace(selector[len("tag:"):])]
	case strings.HasPrefix(selector, "group:"):
		return c.itemsByTag[strings.TrimSpace(selector[len("group:"):])]
	}
	return nil
}

// FindFirstElementBySelector resolves a selector to its first match, or nil.
func (c *Container) FindFirstElementBySelector(selector string, selfItem *scheme.Item) *scheme.Item {
	items := c.FindElementsBySelector(selector, selfItem)
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// SelectItem adds the item to the selection. Without inclusive mode any
// previous selection is dropped first. Selecting an already selected item in
// inclusive mode keeps the selection unchanged.
func (c *Container) SelectItem(item *scheme.Item, inclusive bool) {
	if item == nil {
		return
	}
	if !inclusive {
		c.DeselectAllItems()
	}
	if c.selectedSet[item.ID] {
		return
	}
	c.selectedSet[item.ID] = true
	c.selectedItems = append(c.selectedItems, item)
}

// DeselectItem removes one item from the selection.
func (c *Container) DeselectItem(item *scheme.Item) {
	if item == nil || !c.selectedSet[item.ID] {
		return
	}
	delete(c.selectedSet, item.ID)
	c.selectedItems = removeFromList(c.selectedItems, item)
}

// DeselectAllItems clears the selection.
func (c *Container) DeselectAllItems() {
	c.selectedSet = make(map[string]bool)
	c.selectedItems = c.selectedItems[:0]
}

// SelectedItems returns the selection in the order items were selected.
func (c *Container) SelectedItems() []*scheme.Item {
	return c.selectedItems
}

// IsItemSelected reports whether the item is part of the selection.
func (c *Container) IsItemSelected(item *scheme.Item) bool {
	return item != nil && c.selectedSet[item.ID]
}

// SelectByBoundaryBox selects every visible item whose anchor point falls
// inside the box. World items test their world-transformed anchor against
// the world-space box; viewport overlays live outside the world transform,
// so their untransformed anchor is tested against the box mapped back into
// viewport space. The box may have negative width or height when dragged
// backwards.
func (c *Container) SelectByBoundaryBox(box geometry.Rect, inclusive bool) {
	box = box.Normalized()
	x1, y1 := c.WorldToScreen(box.X, box.Y)
	x2, y2 := c.WorldToScreen(box.X+box.Width, box.Y+box.Height)
	viewportBox := geometry.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}.Normalized()

	if !inclusive {
		c.DeselectAllItems()
	}
	for _, item := range c.orderedItems {
		if !item.Visible || item.Locked {
			continue
		}
		ax := item.Area.Px * item.Area.W
		ay := item.Area.Py * item.Area.H
		if item.Area.Type == scheme.AreaTypeViewport {
			if viewportBox.Contains(item.Area.X+ax, item.Area.Y+ay) {
				c.SelectItem(item, true)
			}
			continue
		}
		wx, wy := c.WorldTransformOfItem(item).TransformPoint(ax, ay)
		if box.Contains(wx, wy) {
			c.SelectItem(item, true)
		}
	}
}
