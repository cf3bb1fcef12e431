// Package editor implements the interaction core of the scheme editor: an
// input state machine over a scheme container, with history, behavior
// execution and animations wired in.
package editor

import (
	"log/slog"

	"github.com/schemeflow/schemeflow/backend-go/internal/animations"
	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
	"github.com/schemeflow/schemeflow/backend-go/internal/userevents"
)

// Edit modes.
const (
	ModeEdit     = "edit"
	ModeInteract = "interact"
)

// Session owns everything needed to edit one scheme: the indexed container,
// history, the state machine, the user event bus and the animation registry.
// A session is not safe for concurrent use; callers serialize access.
type Session struct {
	container  *scene.Container
	history    *scheme.History
	events     *Emitter
	bus        *userevents.Bus
	animations *animations.Registry
	compiler   *userevents.Compiler

	states map[string]State
	state  State
	mode   string

	snapGrid  float64
	frameSink func(itemID string, points []geometry.Point)
}

// Option configures a session.
type Option func(*Session)

// WithHistorySize bounds the undo history.
func WithHistorySize(size int) Option {
	return func(s *Session) { s.history = scheme.NewHistory(size) }
}

// WithSnapGrid enables grid snapping with the given step.
func WithSnapGrid(step float64) Option {
	return func(s *Session) { s.snapGrid = step }
}

// WithFrameSink routes per-frame effect state to the render layer.
func WithFrameSink(sink func(itemID string, points []geometry.Point)) Option {
	return func(s *Session) { s.frameSink = sink }
}

// NewSession creates an editing session over the scheme. The initial state
// of the scheme becomes the first history checkpoint.
func NewSession(sch *scheme.Scheme, opts ...Option) *Session {
	s := &Session{
		container:  scene.NewContainer(sch),
		history:    scheme.NewHistory(scheme.DefaultHistorySize),
		events:     &Emitter{},
		bus:        userevents.NewBus(),
		animations: animations.NewRegistry(),
		compiler:   userevents.NewCompiler(nil),
		mode:       ModeEdit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.states = map[string]State{
		StateIdle:            newIdleState(s),
		StateDragItem:        newDragItemState(s),
		StateCreateItem:      newCreateItemState(s),
		StateCreateComponent: newCreateComponentState(s),
		StateConnecting:      newConnectingState(s),
		StateEditCurve:       newEditCurveState(s),
		StateDragScreen:      newDragScreenState(s),
	}
	s.state = s.states[StateIdle]

	if data, err := sch.Marshal(); err == nil {
		s.history.Commit(data)
	} else {
		slog.Error("failed to snapshot initial scheme", "scheme", sch.ID, "err", err)
	}
	return s
}

// Container exposes the scheme container for querying.
func (s *Session) Container() *scene.Container { return s.container }

// Events exposes the editor event emitter.
func (s *Session) Events() *Emitter { return s.events }

// Bus exposes the user event bus.
func (s *Session) Bus() *userevents.Bus { return s.bus }

// Animations exposes the animation registry.
func (s *Session) Animations() *animations.Registry { return s.animations }

// Mode returns the current interaction mode.
func (s *Session) Mode() string { return s.mode }

// CurrentState returns the active state name.
func (s *Session) CurrentState() string { return s.state.Name() }

// SwitchState activates the named state. The previous state is reset first
// so no gesture flags leak across switches.
func (s *Session) SwitchState(name string) State {
	next, ok := s.states[name]
	if !ok {
		slog.Warn("unknown editor state", "state", name)
		return s.state
	}
	if next == s.state {
		return s.state
	}
	s.state.Reset()
	s.state = next
	s.events.Emit(Event{Kind: EventStateChanged, State: name})
	return next
}

// MouseDown dispatches a pointer press to the active state.
func (s *Session) MouseDown(ev MouseEvent) { s.state.MouseDown(ev) }

// MouseMove dispatches a pointer move to the active state.
func (s *Session) MouseMove(ev MouseEvent) { s.state.MouseMove(ev) }

// MouseUp dispatches a pointer release to the active state.
func (s *Session) MouseUp(ev MouseEvent) { s.state.MouseUp(ev) }

// MouseDoubleClick dispatches a double click to the active state.
func (s *Session) MouseDoubleClick(ev MouseEvent) { s.state.MouseDoubleClick(ev) }

// KeyPressed handles global shortcuts and forwards everything else to the
// active state.
func (s *Session) KeyPressed(key string, ev MouseEvent) {
	switch {
	case key == "Escape":
		s.state.Cancel()
	case (key == "Delete" || key == "Backspace") && s.mode == ModeEdit:
		s.DeleteSelectedItems()
	case key == "z" && ev.Ctrl && !ev.Shift:
		s.Undo()
	case key == "z" && ev.Ctrl && ev.Shift:
		s.Redo()
	default:
		s.state.KeyPressed(key, ev)
	}
}

// Tick advances running animations by dt seconds.
func (s *Session) Tick(dt float64) {
	s.animations.Tick(dt)
}

// snap rounds a world coordinate to the configured grid.
func (s *Session) snap(v float64) float64 {
	return geometry.SnapToGrid(v, s.snapGrid)
}

// CommitSchemeChange snapshots the current scheme into history and notifies
// the render layer.
func (s *Session) CommitSchemeChange() {
	data, err := s.container.Scheme().Marshal()
	if err != nil {
		slog.Error("failed to snapshot scheme", "err", err)
		return
	}
	s.history.Commit(data)
	s.events.Emit(Event{Kind: EventSchemeChangeCommitted})
}

// Undo restores the previous history checkpoint.
func (s *Session) Undo() bool {
	data, ok := s.history.Undo()
	if !ok {
		return false
	}
	return s.restoreCheckpoint(data)
}

// Redo restores the next history checkpoint.
func (s *Session) Redo() bool {
	data, ok := s.history.Redo()
	if !ok {
		return false
	}
	return s.restoreCheckpoint(data)
}

func (s *Session) restoreCheckpoint(data []byte) bool {
	restored, err := scheme.Unmarshal(data)
	if err != nil {
		slog.Error("failed to restore checkpoint", "err", err)
		return false
	}
	current := s.container.Scheme()
	current.Items = restored.Items
	current.Connectors = restored.Connectors
	current.Style = restored.Style
	current.Name = restored.Name
	current.Description = restored.Description
	current.Tags = restored.Tags
	s.container.DeselectAllItems()
	s.container.Reindex()
	s.events.Emit(Event{Kind: EventSchemeChangeCommitted})
	return true
}

// DeleteSelectedItems removes the selected items and commits.
func (s *Session) DeleteSelectedItems() {
	selected := s.container.SelectedItems()
	if len(selected) == 0 {
		return
	}
	ids := make([]string, 0, len(selected))
	for _, item := range selected {
		ids = append(ids, item.ID)
	}
	for _, id := range ids {
		s.container.DeleteItem(id)
	}
	s.CommitSchemeChange()
}

// execContext builds the service context behavior functions run with.
func (s *Session) execContext() *userevents.ExecContext {
	return &userevents.ExecContext{
		Container:  s.container,
		Animations: s.animations,
		Bus:        s.bus,
		Revision:   s.bus.Revision(),
		FrameSink:  s.frameSink,
	}
}

// EnterInteractMode compiles all item behaviors, subscribes them on the bus
// and fires every item's init event.
func (s *Session) EnterInteractMode() {
	if s.mode == ModeInteract {
		return
	}
	s.mode = ModeInteract
	s.bus.Clear()
	for _, item := range s.container.Items() {
		if len(item.Behavior.Events) == 0 {
			continue
		}
		s.compiler.SubscribeItemEvents(s.container, s.bus, item, s.execContext)
	}
	for _, item := range s.container.Items() {
		s.bus.EmitItemEvent(item.ID, scheme.EventInit)
	}
	s.SwitchState(StateIdle)
}

// EnterEditMode leaves interact mode, stopping animations and dropping all
// behavior subscriptions.
func (s *Session) EnterEditMode() {
	if s.mode == ModeEdit {
		return
	}
	s.mode = ModeEdit
	s.bus.Clear()
	s.animations.StopAll()
	s.SwitchState(StateIdle)
	s.events.Emit(Event{Kind: EventSwitchModeToEdit})
}
