package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

func testScheme() *scheme.Scheme {
	s := scheme.NewScheme("scheme_1", "test")

	frame := scheme.NewItem("frame", "Frame", scheme.ShapeRect)
	frame.Area = scheme.Area{X: 100, Y: 50, W: 400, H: 300}

	box := scheme.NewItem("box", "Box", scheme.ShapeRect)
	box.Area = scheme.Area{X: 40, Y: 30, W: 100, H: 80, R: 30, Px: 0.5, Py: 0.5}
	box.Tags = []string{"shapes"}
	frame.ChildItems = []*scheme.Item{box}

	lone := scheme.NewItem("lone", "Lone", scheme.ShapeEllipse)
	lone.Area = scheme.Area{X: 700, Y: 600, W: 60, H: 60}
	lone.Tags = []string{"shapes"}

	s.Items = []*scheme.Item{frame, lone}
	return s
}

func TestWorldLocalPointRoundTrip(t *testing.T) {
	c := NewContainer(testScheme())
	box := c.FindItemByID("box")
	require.NotNil(t, box)

	for _, p := range []geometry.Point{{X: 0, Y: 0}, {X: 50, Y: 40}, {X: 100, Y: 80}, {X: -13, Y: 200}} {
		world := c.WorldPointOnItem(box, p.X, p.Y)
		back := c.LocalPointOnItem(box, world.X, world.Y)
		assert.InDelta(t, p.X, back.X, 1e-9)
		assert.InDelta(t, p.Y, back.Y, 1e-9)
	}
}

func TestChildTransformIncludesParent(t *testing.T) {
	c := NewContainer(testScheme())
	box := c.FindItemByID("box")

	// the box center rotates around itself, so it lands at the parent offset
	// plus the unrotated center position
	center := c.WorldPointOnItem(box, 50, 40)
	assert.InDelta(t, 100+40+50, center.X, 1e-9)
	assert.InDelta(t, 50+30+40, center.Y, 1e-9)
}

func TestReindexItemTransformsIdempotent(t *testing.T) {
	c := NewContainer(testScheme())
	frame := c.FindItemByID("frame")
	box := c.FindItemByID("box")

	frame.Area.X = 250
	c.ReindexItemTransforms(frame)
	first := c.WorldPointOnItem(box, 0, 0)

	c.ReindexItemTransforms(frame)
	second := c.WorldPointOnItem(box, 0, 0)

	assert.Equal(t, first, second)

	// moving the parent moved the child's world origin by the same amount
	fresh := NewContainer(testScheme())
	base := fresh.WorldPointOnItem(fresh.FindItemByID("box"), 0, 0)
	assert.InDelta(t, base.X+150, first.X, 1e-9)
	assert.InDelta(t, base.Y, first.Y, 1e-9)
}

func TestSelectors(t *testing.T) {
	c := NewContainer(testScheme())
	box := c.FindItemByID("box")

	assert.Equal(t, []*scheme.Item{box}, c.FindElementsBySelector("#box", nil))
	assert.Equal(t, []*scheme.Item{box}, c.FindElementsBySelector("self", box))

	tagged := c.FindElementsBySelector("tag: shapes", nil)
	require.Len(t, tagged, 2)
	assert.Equal(t, "box", tagged[0].ID)
	assert.Equal(t, "lone", tagged[1].ID)

	// deterministic: same input, same order
	again := c.FindElementsBySelector("tag: shapes", nil)
	assert.Equal(t, tagged, again)

	assert.Empty(t, c.FindElementsBySelector("#missing", nil))
	assert.Empty(t, c.FindElementsBySelector("bogus selector", nil))
	assert.Nil(t, c.FindFirstElementBySelector("self", nil))
}

func TestSelection(t *testing.T) {
	c := NewContainer(testScheme())
	box := c.FindItemByID("box")
	lone := c.FindItemByID("lone")

	c.SelectItem(box, false)
	assert.True(t, c.IsItemSelected(box))

	c.SelectItem(lone, true)
	assert.Len(t, c.SelectedItems(), 2)

	// re-selecting in inclusive mode does not duplicate
	c.SelectItem(lone, true)
	assert.Len(t, c.SelectedItems(), 2)

	c.SelectItem(lone, false)
	assert.False(t, c.IsItemSelected(box))
	assert.True(t, c.IsItemSelected(lone))

	c.DeselectAllItems()
	assert.Empty(t, c.SelectedItems())
}

func TestSelectByBoundaryBox(t *testing.T) {
	c := NewContainer(testScheme())

	// box dragged backwards around the lone ellipse only
	c.SelectByBoundaryBox(geometry.Rect{X: 800, Y: 700, Width: -150, Height: -150}, false)
	require.Len(t, c.SelectedItems(), 1)
	assert.Equal(t, "lone", c.SelectedItems()[0].ID)

	// a box around everything picks up all items
	c.SelectByBoundaryBox(geometry.Rect{X: -10, Y: -10, Width: 1000, Height: 1000}, false)
	assert.Len(t, c.SelectedItems(), 3)

	// the anchor point decides, not full containment: this box covers the
	// ellipse's anchor corner but cuts off its far side
	c.SelectByBoundaryBox(geometry.Rect{X: 650, Y: 550, Width: 80, Height: 80}, false)
	require.Len(t, c.SelectedItems(), 1)
	assert.Equal(t, "lone", c.SelectedItems()[0].ID)
}

func TestSelectByBoundaryBoxViewportOverlay(t *testing.T) {
	s := testScheme()
	hud := scheme.NewItem("hud", "Hud", scheme.ShapeRect)
	hud.Area = scheme.Area{X: 30, Y: 30, W: 40, H: 40, Type: scheme.AreaTypeViewport}
	s.Items = append(s.Items, hud)

	c := NewContainer(s)
	c.SetScreenTransform(ScreenTransform{X: -500, Y: -500, Scale: 1})

	// world box landing on viewport (0,0)-(100,100) catches the overlay
	// even though its world-space anchor is nowhere near
	c.SelectByBoundaryBox(geometry.Rect{X: 500, Y: 500, Width: 100, Height: 100}, false)
	require.Len(t, c.SelectedItems(), 1)
	assert.Equal(t, "hud", c.SelectedItems()[0].ID)

	// a sweep over the ellipse maps outside the overlay's viewport spot
	c.SelectByBoundaryBox(geometry.Rect{X: 650, Y: 550, Width: 150, Height: 150}, false)
	require.Len(t, c.SelectedItems(), 1)
	assert.Equal(t, "lone", c.SelectedItems()[0].ID)
}

func TestRemountPreservesWorldPosition(t *testing.T) {
	c := NewContainer(testScheme())
	box := c.FindItemByID("box")
	lone := c.FindItemByID("lone")

	before := c.WorldPointOnItem(box, 17, 23)
	require.True(t, c.RemountItemInsideOtherItem(box, lone))

	box = c.FindItemByID("box")
	assert.Equal(t, "lone", box.Meta.ParentID)

	after := c.WorldPointOnItem(box, 17, 23)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestRemountToRootPreservesWorldPosition(t *testing.T) {
	c := NewContainer(testScheme())
	box := c.FindItemByID("box")

	before := c.WorldPointOnItem(box, 0, 0)
	require.True(t, c.RemountItemInsideOtherItem(box, nil))

	box = c.FindItemByID("box")
	assert.Equal(t, "", box.Meta.ParentID)

	after := c.WorldPointOnItem(box, 0, 0)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestRemountRejectsCycles(t *testing.T) {
	c := NewContainer(testScheme())
	frame := c.FindItemByID("frame")
	box := c.FindItemByID("box")

	assert.False(t, c.RemountItemInsideOtherItem(frame, box), "item into own descendant")
	assert.False(t, c.RemountItemInsideOtherItem(frame, frame), "item into itself")

	// tree unchanged
	assert.Equal(t, "", c.FindItemByID("frame").Meta.ParentID)
	assert.Equal(t, "frame", c.FindItemByID("box").Meta.ParentID)
}

func TestGenerateUniqueName(t *testing.T) {
	c := NewContainer(testScheme())
	assert.Equal(t, "Untitled", c.GenerateUniqueName("Untitled"))

	c.AddItem(scheme.NewItem("", "Untitled", scheme.ShapeRect))
	assert.Equal(t, "Untitled 2", c.GenerateUniqueName("Untitled"))

	c.AddItem(scheme.NewItem("", "Untitled 2", scheme.ShapeRect))
	assert.Equal(t, "Untitled 3", c.GenerateUniqueName("Untitled"))
}

func TestDeleteItemRemovesSubtree(t *testing.T) {
	c := NewContainer(testScheme())
	c.SelectItem(c.FindItemByID("box"), false)

	c.DeleteItem("frame")
	assert.Nil(t, c.FindItemByID("frame"))
	assert.Nil(t, c.FindItemByID("box"))
	assert.Empty(t, c.SelectedItems(), "selection drops deleted items")
}

func TestHitItemAtPicksTopMost(t *testing.T) {
	s := scheme.NewScheme("scheme_1", "overlap")
	under := scheme.NewItem("under", "Under", scheme.ShapeRect)
	under.Area = scheme.Area{X: 0, Y: 0, W: 100, H: 100}
	over := scheme.NewItem("over", "Over", scheme.ShapeRect)
	over.Area = scheme.Area{X: 50, Y: 50, W: 100, H: 100}
	s.Items = []*scheme.Item{under, over}
	c := NewContainer(s)

	hit := c.HitItemAt(75, 75)
	require.NotNil(t, hit)
	assert.Equal(t, "over", hit.ID)

	hit = c.HitItemAt(10, 10)
	require.NotNil(t, hit)
	assert.Equal(t, "under", hit.ID)

	assert.Nil(t, c.HitItemAt(500, 500))

	over.Visible = false
	hit = c.HitItemAt(75, 75)
	require.NotNil(t, hit)
	assert.Equal(t, "under", hit.ID)
}

func TestScreenTransform(t *testing.T) {
	c := NewContainer(testScheme())
	c.SetScreenTransform(ScreenTransform{X: 100, Y: 50, Scale: 2})

	wx, wy := c.ScreenToWorld(300, 250)
	assert.InDelta(t, 100, wx, 1e-9)
	assert.InDelta(t, 100, wy, 1e-9)

	sx, sy := c.WorldToScreen(wx, wy)
	assert.InDelta(t, 300, sx, 1e-9)
	assert.InDelta(t, 250, sy, 1e-9)

	// invalid scale rejected
	c.SetScreenTransform(ScreenTransform{Scale: 0})
	assert.Equal(t, 2.0, c.ScreenTransform().Scale)
}
