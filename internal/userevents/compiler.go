package userevents

import (
	"log/slog"

	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// CompiledAction runs a behavior action list against the services in the
// context. The chain aborts silently when the bus revision changed since the
// chain was triggered.
type CompiledAction func(ctx *ExecContext)

// Compiler turns behavior action lists into callables.
type Compiler struct {
	registry *Registry
}

// NewCompiler creates a compiler over the given function registry. A nil
// registry selects the default one.
func NewCompiler(registry *Registry) *Compiler {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Compiler{registry: registry}
}

type compiledStep struct {
	fn    *Function
	items []*scheme.Item
	args  map[string]any
}

// CompileActions resolves every action's selector and method up front and
// returns a single callable executing them in declaration order. Actions
// with an unknown method or an empty selector resolution are skipped with a
// warning at compile time.
func (c *Compiler) CompileActions(container *scene.Container, selfItem *scheme.Item, actions []scheme.BehaviorAction) CompiledAction {
	steps := make([]compiledStep, 0, len(actions))
	for _, action := range actions {
		fn := c.registry.Get(action.Method)
		if fn == nil {
			slog.Warn("skipping action with unknown method", "method", action.Method)
			continue
		}
		items := container.FindElementsBySelector(action.Element, selfItem)
		if len(items) == 0 {
			slog.Warn("skipping action with empty selector resolution", "selector", action.Element, "method", action.Method)
			continue
		}
		steps = append(steps, compiledStep{fn: fn, items: items, args: action.Args})
	}

	return func(ctx *ExecContext) {
		for _, step := range steps {
			if ctx.Bus != nil && ctx.Revision != "" && !ctx.Bus.IsActionAllowed(ctx.Revision) {
				return
			}
			for _, item := range step.items {
				step.fn.Execute(ctx, item, step.args)
			}
		}
	}
}

// SubscribeItemEvents compiles every behavior event of the item and wires it
// into the bus. Called when a scheme enters interactive mode.
func (c *Compiler) SubscribeItemEvents(container *scene.Container, bus *Bus, item *scheme.Item, makeCtx func() *ExecContext) {
	for _, event := range item.Behavior.Events {
		compiled := c.CompileActions(container, item, event.Actions)
		bus.Subscribe(item.ID, event.Event, func(args []any) {
			compiled(makeCtx())
		})
	}
}
