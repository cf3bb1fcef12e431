package scene

import "github.com/schemeflow/schemeflow/backend-go/internal/scheme"

// FindItemByTemplatedID searches the template instance rooted at root for
// the item generated with the given templated id. The search does not
// descend into nested template instances.
func FindItemByTemplatedID(root *scheme.Item, templatedID string) *scheme.Item {
	if root == nil {
		return nil
	}
	queue := []*scheme.Item{root}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.TemplatedID() == templatedID {
			return item
		}
		for _, child := range item.ChildItems {
			if child.IsTemplateRoot() {
				continue
			}
			queue = append(queue, child)
		}
	}
	return nil
}

// nativeChildren splits an item's children into template-generated and
// user-added ones.
func nativeChildren(item *scheme.Item) (templated, native []*scheme.Item) {
	for _, child := range item.ChildItems {
		if child.TemplatedID() != "" {
			templated = append(templated, child)
		} else {
			native = append(native, child)
		}
	}
	return templated, native
}

// ReplaceTemplateInstance swaps a regenerated template tree in place of the
// previous instance, carrying over every user-added child to the
// regenerated item with the matching templated id. Native children whose
// host item disappeared from the template are re-attached to the new root.
func (c *Container) ReplaceTemplateInstance(oldRoot, newRoot *scheme.Item) {
	if oldRoot == nil || newRoot == nil {
		return
	}

	// collect native children per templated id from the old tree
	orphans := []*scheme.Item{}
	var walk func(item *scheme.Item)
	walk = func(item *scheme.Item) {
		templated, native := nativeChildren(item)
		if len(native) > 0 {
			target := FindItemByTemplatedID(newRoot, item.TemplatedID())
			if item == oldRoot {
				target = newRoot
			}
			if target == nil {
				orphans = append(orphans, native...)
			} else {
				target.ChildItems = append(target.ChildItems, native...)
			}
		}
		for _, child := range templated {
			if child.IsTemplateRoot() {
				continue
			}
			walk(child)
		}
	}
	walk(oldRoot)
	newRoot.ChildItems = append(newRoot.ChildItems, orphans...)

	// keep the instance placement, identity and name
	newRoot.ID = oldRoot.ID
	newRoot.Name = oldRoot.Name
	newRoot.Area = oldRoot.Area

	if oldRoot.Meta.ParentID == "" {
		for i, item := range c.scheme.Items {
			if item == oldRoot {
				c.scheme.Items[i] = newRoot
				break
			}
		}
	} else if parent := c.itemsByID[oldRoot.Meta.ParentID]; parent != nil {
		for i, item := range parent.ChildItems {
			if item == oldRoot {
				parent.ChildItems[i] = newRoot
				break
			}
		}
	}
	c.Reindex()
}
