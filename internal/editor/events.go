package editor

import (
	"sync"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
)

// Event kinds published to the render layer.
const (
	EventItemChanged            = "item-changed"
	EventItemsHighlighted       = "items-highlighted"
	EventRedrawConnector        = "redraw-connector"
	EventSchemeChangeCommitted  = "scheme-change-committed"
	EventMultiSelectBoxAppeared = "multi-select-box-appeared"
	EventMultiSelectBoxUpdated  = "multi-select-box-updated"
	EventMultiSelectBoxGone     = "multi-select-box-disappeared"
	EventStateChanged           = "state-changed"
	EventScreenTransformUpdated = "screen-transform-updated"
	EventSwitchModeToEdit       = "switch-mode-to-edit"
)

// Event is a change notification for the render layer. Fields besides Kind
// are filled depending on the kind.
type Event struct {
	Kind    string
	ItemIDs []string
	Box     geometry.Rect
	State   string
}

// Emitter fans editor events out to subscribers. Handlers run synchronously
// in subscription order.
type Emitter struct {
	mu       sync.RWMutex
	handlers []func(Event)
}

// Subscribe registers a handler for all events.
func (e *Emitter) Subscribe(h func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Emit publishes an event.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (e *Emitter) itemChanged(itemID string) {
	e.Emit(Event{Kind: EventItemChanged, ItemIDs: []string{itemID}})
}

func (e *Emitter) redrawConnector(itemID string) {
	e.Emit(Event{Kind: EventRedrawConnector, ItemIDs: []string{itemID}})
}

func (e *Emitter) itemsHighlighted(itemIDs []string) {
	e.Emit(Event{Kind: EventItemsHighlighted, ItemIDs: itemIDs})
}
