package editor

import (
	"math"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// createItemState drags out a rubber-band rectangle and materializes a new
// item in it. The item is mounted under the smallest visible item that
// fully contains it, or at the scheme root.
type createItemState struct {
	baseState
	shape    string
	nameBase string
	// configure applies shape-specific defaults to a freshly created item.
	configure func(*scheme.Item)

	dragging     bool
	downX, downY float64
	box          geometry.Rect
	// parentCandidates is the selection captured on mouse-down; only a
	// selected item may capture the new item as a child.
	parentCandidates []*scheme.Item
}

func newCreateItemState(s *Session) *createItemState {
	return &createItemState{
		baseState: baseState{session: s, name: StateCreateItem},
		shape:     scheme.ShapeRect,
		nameBase:  "Item",
	}
}

// SetShape picks the shape of the next created item.
func (s *createItemState) SetShape(shape string) {
	s.shape = shape
}

func (s *createItemState) MouseDown(ev MouseEvent) {
	s.dragging = true
	s.parentCandidates = s.session.container.SelectedItems()
	s.downX, s.downY = s.session.snap(ev.X), s.session.snap(ev.Y)
	s.box = geometry.Rect{X: s.downX, Y: s.downY}
	s.session.events.Emit(Event{Kind: EventMultiSelectBoxAppeared, Box: s.box})
}

func (s *createItemState) MouseMove(ev MouseEvent) {
	if !s.dragging {
		return
	}
	if ev.Buttons == 0 {
		s.finish(ev)
		return
	}
	x, y := s.session.snap(ev.X), s.session.snap(ev.Y)
	s.box = geometry.Rect{X: s.downX, Y: s.downY, Width: x - s.downX, Height: y - s.downY}
	s.session.events.Emit(Event{Kind: EventMultiSelectBoxUpdated, Box: s.box})
}

func (s *createItemState) MouseUp(ev MouseEvent) {
	if !s.dragging {
		return
	}
	s.finish(ev)
}

func (s *createItemState) finish(ev MouseEvent) {
	s.dragging = false
	s.session.events.Emit(Event{Kind: EventMultiSelectBoxGone})

	box := s.box.Normalized()
	if box.Width < 1 || box.Height < 1 {
		s.session.SwitchState(StateIdle)
		return
	}

	item := scheme.NewItem("", s.session.container.GenerateUniqueName(s.nameBase), s.shape)
	if s.configure != nil {
		s.configure(item)
	}

	parent := s.findItemSuitableForParent(box)
	if parent != nil {
		local := s.session.container.LocalPointOnItem(parent, box.X, box.Y)
		item.Area = scheme.Area{X: local.X, Y: local.Y, W: box.Width, H: box.Height, Px: 0.5, Py: 0.5}
		s.session.container.AddChildItem(parent, item)
	} else {
		item.Area = scheme.Area{X: box.X, Y: box.Y, W: box.Width, H: box.Height, Px: 0.5, Py: 0.5}
		s.session.container.AddItem(item)
	}

	s.session.container.SelectItem(item, false)
	s.session.CommitSchemeChange()
	s.session.events.Emit(Event{Kind: EventItemChanged, ItemIDs: []string{item.ID}})
	s.session.SwitchState(StateIdle)
}

// findItemSuitableForParent returns the smallest selected item whose local
// space fully contains the box, testing all four corners. Connectors are
// never parents.
func (s *createItemState) findItemSuitableForParent(box geometry.Rect) *scheme.Item {
	corners := [4][2]float64{
		{box.X, box.Y},
		{box.X + box.Width, box.Y},
		{box.X + box.Width, box.Y + box.Height},
		{box.X, box.Y + box.Height},
	}

	var best *scheme.Item
	bestArea := math.MaxFloat64
	for _, item := range s.parentCandidates {
		if !item.Visible || item.Locked || item.Shape == scheme.ShapeConnector {
			continue
		}
		contained := true
		for _, corner := range corners {
			local := s.session.container.LocalPointOnItem(item, corner[0], corner[1])
			if local.X < 0 || local.X > item.Area.W || local.Y < 0 || local.Y > item.Area.H {
				contained = false
				break
			}
		}
		if !contained {
			continue
		}
		if area := item.Area.W * item.Area.H; area < bestArea {
			best = item
			bestArea = area
		}
	}
	return best
}

func (s *createItemState) Cancel() {
	if s.dragging {
		s.dragging = false
		s.session.events.Emit(Event{Kind: EventMultiSelectBoxGone})
	}
	s.session.SwitchState(StateIdle)
}

func (s *createItemState) Reset() {
	s.dragging = false
	s.box = geometry.Rect{}
	s.parentCandidates = nil
}
