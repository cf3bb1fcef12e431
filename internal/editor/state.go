package editor

// State names.
const (
	StateIdle            = "idle"
	StateDragItem        = "drag-item"
	StateCreateItem      = "create-item"
	StateCreateComponent = "create-component"
	StateConnecting      = "connecting"
	StateEditCurve       = "edit-curve"
	StateDragScreen      = "drag-screen"
)

// MouseEvent is a pointer event. X and Y are already converted into world
// coordinates; MX and MY carry the raw viewport position, which panning
// needs because world coordinates shift under it mid-gesture.
type MouseEvent struct {
	X, Y   float64
	MX, MY float64
	// Buttons is the currently pressed button mask, 0 when none.
	Buttons int
	Shift   bool
	Ctrl    bool
}

// State handles pointer and keyboard input for one editor mode. A state
// must tolerate events arriving in unexpected order: a mouse-up without a
// preceding mouse-down is a no-op.
type State interface {
	Name() string
	MouseDown(ev MouseEvent)
	MouseMove(ev MouseEvent)
	MouseUp(ev MouseEvent)
	MouseDoubleClick(ev MouseEvent)
	KeyPressed(key string, ev MouseEvent)
	// Reset clears all transient gesture flags. Called on every state
	// switch.
	Reset()
	// Cancel aborts the current gesture, keeping committed work.
	Cancel()
}

// baseState provides no-op handlers so states only implement what they use.
type baseState struct {
	session *Session
	name    string
}

func (s *baseState) Name() string                  { return s.name }
func (s *baseState) MouseDown(MouseEvent)          {}
func (s *baseState) MouseMove(MouseEvent)          {}
func (s *baseState) MouseUp(MouseEvent)            {}
func (s *baseState) MouseDoubleClick(MouseEvent)   {}
func (s *baseState) KeyPressed(string, MouseEvent) {}
func (s *baseState) Reset()                        {}
func (s *baseState) Cancel()                       {}
