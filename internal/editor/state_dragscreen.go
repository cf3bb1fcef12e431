package editor

// dragScreenState pans the screen transform. The scheme itself is never
// modified, so nothing here touches history. Deltas are taken from the
// viewport coordinates: world coordinates move together with the transform
// being dragged, so measuring against them would eat earlier deltas.
type dragScreenState struct {
	baseState
	dragging       bool
	downX, downY   float64
	startX, startY float64
}

func newDragScreenState(s *Session) *dragScreenState {
	return &dragScreenState{baseState: baseState{session: s, name: StateDragScreen}}
}

func (s *dragScreenState) MouseDown(ev MouseEvent) {
	screen := s.session.container.ScreenTransform()
	s.dragging = true
	s.downX, s.downY = ev.MX, ev.MY
	s.startX, s.startY = screen.X, screen.Y
}

func (s *dragScreenState) MouseMove(ev MouseEvent) {
	if !s.dragging {
		return
	}
	if ev.Buttons == 0 {
		s.finish()
		return
	}
	screen := s.session.container.ScreenTransform()
	screen.X = s.startX + (ev.MX - s.downX)
	screen.Y = s.startY + (ev.MY - s.downY)
	s.session.container.SetScreenTransform(screen)
	s.session.events.Emit(Event{Kind: EventScreenTransformUpdated})
}

func (s *dragScreenState) MouseUp(ev MouseEvent) {
	s.finish()
}

func (s *dragScreenState) finish() {
	s.dragging = false
	s.session.SwitchState(StateIdle)
}

func (s *dragScreenState) Reset() {
	s.dragging = false
}
