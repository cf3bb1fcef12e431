package userevents

import (
	"sync"

	"github.com/schemeflow/schemeflow/backend-go/internal/animations"
	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// ExecContext carries the services behavior functions operate on.
type ExecContext struct {
	Container  *scene.Container
	Animations *animations.Registry
	Bus        *Bus
	// Revision pins the action chain to the bus state it was triggered
	// under.
	Revision string
	// FrameSink receives per-frame render state from effects that do not
	// mutate the scheme, keyed by item id. Optional.
	FrameSink func(itemID string, points []geometry.Point)
}

// Function is an invocable behavior method.
type Function struct {
	Name string
	// Execute applies the function to one resolved item.
	Execute func(ctx *ExecContext, item *scheme.Item, args map[string]any)
}

// Registry holds the known behavior functions.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*Function
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]*Function)}
}

// Register adds or replaces a function.
func (r *Registry) Register(f *Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[f.Name] = f
}

// Get returns the function with the given name, or nil.
func (r *Registry) Get(name string) *Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.functions[name]
}

// Names returns the registered function names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}
