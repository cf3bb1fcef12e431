package userevents

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/schemeflow/schemeflow/backend-go/internal/animations"
	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
	"github.com/schemeflow/schemeflow/backend-go/internal/templater"
)

// Behavior method names.
const (
	MethodSet               = "set"
	MethodHide              = "hide"
	MethodShow              = "show"
	MethodSendEvent         = "sendEvent"
	MethodMoveToItem        = "moveToItem"
	MethodBlinkEffect       = "blinkEffect"
	MethodParticleEffect    = "particleEffect"
	MethodScript            = "script"
	MethodStopAllAnimations = "stopAllAnimations"
)

// DefaultRegistry returns a registry with the standard behavior functions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Function{Name: MethodSet, Execute: executeSet})
	r.Register(&Function{Name: MethodHide, Execute: func(ctx *ExecContext, item *scheme.Item, args map[string]any) {
		item.Visible = false
	}})
	r.Register(&Function{Name: MethodShow, Execute: func(ctx *ExecContext, item *scheme.Item, args map[string]any) {
		item.Visible = true
	}})
	r.Register(&Function{Name: MethodSendEvent, Execute: executeSendEvent})
	r.Register(&Function{Name: MethodMoveToItem, Execute: executeMoveToItem})
	r.Register(&Function{Name: MethodBlinkEffect, Execute: executeBlinkEffect})
	r.Register(&Function{Name: MethodParticleEffect, Execute: executeParticleEffect})
	r.Register(&Function{Name: MethodScript, Execute: executeScript})
	r.Register(&Function{Name: MethodStopAllAnimations, Execute: func(ctx *ExecContext, item *scheme.Item, args map[string]any) {
		ctx.Animations.StopAllAnimationsForItem(item.ID)
	}})
	return r
}

func executeSet(ctx *ExecContext, item *scheme.Item, args map[string]any) {
	field, _ := args["field"].(string)
	if field == "" {
		slog.Warn("set action without field", "item", item.ID)
		return
	}
	if err := SetItemField(item, field, args["value"]); err != nil {
		slog.Warn("set action failed", "item", item.ID, "field", field, "err", err)
		return
	}
	ctx.Container.ReindexItemTransforms(item)
	ctx.Container.RebuildConnectorsForItem(item.ID)
}

func executeSendEvent(ctx *ExecContext, item *scheme.Item, args map[string]any) {
	event, _ := args["event"].(string)
	if event == "" {
		slog.Warn("sendEvent action without event name", "item", item.ID)
		return
	}
	ctx.Bus.EmitItemEvent(item.ID, event)
}

func executeMoveToItem(ctx *ExecContext, item *scheme.Item, args map[string]any) {
	selector, _ := args["destination"].(string)
	destination := ctx.Container.FindFirstElementBySelector(selector, item)
	if destination == nil {
		slog.Warn("moveToItem destination not found", "item", item.ID, "selector", selector)
		return
	}
	rotate, _ := args["rotate"].(bool)
	ctx.Animations.Play(&animations.MoveToItemAnimation{
		Container:   ctx.Container,
		Item:        item,
		Destination: destination,
		Duration:    floatArg(args, "duration", 0.5),
		Easing:      stringArg(args, "easing", animations.EasingEaseInOut),
		Rotate:      rotate,
	}, item.ID, MethodMoveToItem)
}

func executeBlinkEffect(ctx *ExecContext, item *scheme.Item, args map[string]any) {
	ctx.Animations.Play(&animations.BlinkEffect{
		Item:       item,
		Duration:   floatArg(args, "duration", 1),
		Frequency:  floatArg(args, "frequency", 2),
		MinOpacity: floatArg(args, "minOpacity", 10),
	}, item.ID, MethodBlinkEffect)
}

func executeParticleEffect(ctx *ExecContext, item *scheme.Item, args map[string]any) {
	if item.Shape != scheme.ShapeConnector {
		slog.Warn("particleEffect requires a connector", "item", item.ID, "shape", item.Shape)
		return
	}
	effect := &animations.ParticleEffect{
		Container:     ctx.Container,
		Item:          item,
		Duration:      floatArg(args, "duration", 2),
		ParticleCount: int(floatArg(args, "particles", 3)),
		Speed:         floatArg(args, "speed", 60),
	}
	if sink := ctx.FrameSink; sink != nil {
		itemID := item.ID
		effect.OnFrame = func(points []geometry.Point) { sink(itemID, points) }
	}
	ctx.Animations.Play(effect, item.ID, MethodParticleEffect)
}

// executeScript evaluates expression statements with the item's placement
// exposed as variables and writes changed values back.
func executeScript(ctx *ExecContext, item *scheme.Item, args map[string]any) {
	var statements []string
	switch raw := args["script"].(type) {
	case string:
		statements = []string{raw}
	case []any:
		for _, s := range raw {
			if str, ok := s.(string); ok {
				statements = append(statements, str)
			}
		}
	}
	if len(statements) == 0 {
		slog.Warn("script action without statements", "item", item.ID)
		return
	}

	scope := templater.NewScope(map[string]any{
		"x":       item.Area.X,
		"y":       item.Area.Y,
		"w":       item.Area.W,
		"h":       item.Area.H,
		"r":       item.Area.R,
		"opacity": item.Opacity,
	})
	for _, stmt := range statements {
		if _, err := templater.EvalString(stmt, scope); err != nil {
			slog.Warn("script statement failed", "item", item.ID, "err", err)
			return
		}
	}

	readBack := func(name string, target *float64) {
		if v, ok := scope.Get(name); ok {
			if f, ok := v.(float64); ok {
				*target = f
			}
		}
	}
	readBack("x", &item.Area.X)
	readBack("y", &item.Area.Y)
	readBack("w", &item.Area.W)
	readBack("h", &item.Area.H)
	readBack("r", &item.Area.R)
	readBack("opacity", &item.Opacity)

	ctx.Container.ReindexItemTransforms(item)
	ctx.Container.RebuildConnectorsForItem(item.ID)
}

// SetItemField writes a dotted field path on an item. Top-level fields cover
// presentation values; area, shapeProps and textSlots accept nested paths.
func SetItemField(item *scheme.Item, path string, value any) error {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "opacity":
		return setFloat(&item.Opacity, value)
	case "selfOpacity":
		return setFloat(&item.SelfOpacity, value)
	case "visible":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("visible expects a boolean, got %T", value)
		}
		item.Visible = b
		return nil
	case "name":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("name expects a string, got %T", value)
		}
		item.Name = s
		return nil
	case "area":
		if len(parts) != 2 {
			return fmt.Errorf("invalid area path %q", path)
		}
		return setAreaField(&item.Area, parts[1], value)
	case "shapeProps":
		if len(parts) < 2 {
			return fmt.Errorf("invalid shapeProps path %q", path)
		}
		if item.ShapeProps == nil {
			item.ShapeProps = map[string]any{}
		}
		return setNestedField(item.ShapeProps, parts[1:], value)
	case "textSlots":
		if len(parts) != 3 {
			return fmt.Errorf("invalid textSlots path %q", path)
		}
		return setTextSlotField(item, parts[1], parts[2], value)
	}
	return fmt.Errorf("unknown field %q", path)
}

func setAreaField(area *scheme.Area, field string, value any) error {
	var target *float64
	switch field {
	case "x":
		target = &area.X
	case "y":
		target = &area.Y
	case "w":
		target = &area.W
	case "h":
		target = &area.H
	case "r":
		target = &area.R
	case "px":
		target = &area.Px
	case "py":
		target = &area.Py
	default:
		return fmt.Errorf("unknown area field %q", field)
	}
	return setFloat(target, value)
}

func setNestedField(m map[string]any, parts []string, value any) error {
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
	return nil
}

func setTextSlotField(item *scheme.Item, slot, field string, value any) error {
	if item.TextSlots == nil {
		item.TextSlots = map[string]scheme.TextSlot{}
	}
	ts := item.TextSlots[slot]
	switch field {
	case "text":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("text expects a string, got %T", value)
		}
		ts.Text = s
	case "color":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("color expects a string, got %T", value)
		}
		ts.Color = s
	case "fontSize":
		if err := setFloat(&ts.FontSize, value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown text slot field %q", field)
	}
	item.TextSlots[slot] = ts
	return nil
}

func setFloat(target *float64, value any) error {
	switch v := value.(type) {
	case float64:
		*target = v
	case int:
		*target = float64(v)
	default:
		return fmt.Errorf("expected a number, got %T", value)
	}
	return nil
}

func floatArg(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
