//go:build js && wasm

// Runs the editor session in the browser. The frontend feeds pointer and
// keyboard input into the session and receives change events through a
// registered callback.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/schemeflow/schemeflow/backend-go/internal/editor"
	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

var (
	session *editor.Session
	onEvent js.Value
)

func main() {
	api := js.Global().Get("Object").New()

	// Commands (frontend to session)
	api.Set("loadScheme", js.FuncOf(loadScheme))
	api.Set("mouseDown", js.FuncOf(mouseDown))
	api.Set("mouseMove", js.FuncOf(mouseMove))
	api.Set("mouseUp", js.FuncOf(mouseUp))
	api.Set("mouseDoubleClick", js.FuncOf(mouseDoubleClick))
	api.Set("keyPressed", js.FuncOf(keyPressed))
	api.Set("switchState", js.FuncOf(switchState))
	api.Set("enterEditMode", js.FuncOf(enterEditMode))
	api.Set("enterInteractMode", js.FuncOf(enterInteractMode))
	api.Set("setScreenTransform", js.FuncOf(setScreenTransform))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("deleteSelection", js.FuncOf(deleteSelection))
	api.Set("sendItemEvent", js.FuncOf(sendItemEvent))
	api.Set("tick", js.FuncOf(tick))
	api.Set("onEvent", js.FuncOf(registerEventCallback))

	// Queries (session to frontend)
	api.Set("getScheme", js.FuncOf(getScheme))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getScreenTransform", js.FuncOf(getScreenTransform))
	api.Set("currentState", js.FuncOf(currentState))
	api.Set("currentMode", js.FuncOf(currentMode))
	api.Set("hitTest", js.FuncOf(hitTest))

	js.Global().Set("schemeflowEditor", api)
	js.Global().Set("schemeflowWasmReady", js.ValueOf(true))

	// Keep the Go runtime alive
	select {}
}

func fail(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadScheme(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing scheme JSON")
	}

	sch, err := scheme.Unmarshal([]byte(args[0].String()))
	if err != nil {
		return fail(err.Error())
	}

	session = editor.NewSession(sch)
	session.Events().Subscribe(func(ev editor.Event) {
		if onEvent.IsUndefined() || onEvent.IsNull() {
			return
		}
		payload, err := json.Marshal(map[string]interface{}{
			"kind":    ev.Kind,
			"itemIds": ev.ItemIDs,
			"box":     ev.Box,
			"state":   ev.State,
		})
		if err != nil {
			return
		}
		onEvent.Invoke(string(payload))
	})
	return ok()
}

func registerEventCallback(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing callback")
	}
	onEvent = args[0]
	return ok()
}

// mouseEventFromArgs builds a pointer event from viewport coordinates; the
// world position is derived from the current screen transform here so the
// UI never has to do the conversion itself.
func mouseEventFromArgs(args []js.Value) editor.MouseEvent {
	ev := editor.MouseEvent{}
	if len(args) >= 2 {
		ev.MX = args[0].Float()
		ev.MY = args[1].Float()
		ev.X, ev.Y = session.Container().ScreenToWorld(ev.MX, ev.MY)
	}
	if len(args) >= 3 {
		ev.Buttons = args[2].Int()
	}
	if len(args) >= 4 {
		ev.Shift = args[3].Truthy()
	}
	if len(args) >= 5 {
		ev.Ctrl = args[4].Truthy()
	}
	return ev
}

func mouseDown(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return nil
	}
	session.MouseDown(mouseEventFromArgs(args))
	return nil
}

func mouseMove(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return nil
	}
	session.MouseMove(mouseEventFromArgs(args))
	return nil
}

func mouseUp(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return nil
	}
	session.MouseUp(mouseEventFromArgs(args))
	return nil
}

func mouseDoubleClick(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return nil
	}
	session.MouseDoubleClick(mouseEventFromArgs(args))
	return nil
}

func keyPressed(this js.Value, args []js.Value) interface{} {
	if session == nil || len(args) < 1 {
		return nil
	}
	session.KeyPressed(args[0].String(), mouseEventFromArgs(args[1:]))
	return nil
}

func switchState(this js.Value, args []js.Value) interface{} {
	if session == nil || len(args) < 1 {
		return nil
	}
	session.SwitchState(args[0].String())
	return nil
}

func enterEditMode(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return nil
	}
	session.EnterEditMode()
	return nil
}

func enterInteractMode(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return nil
	}
	session.EnterInteractMode()
	return nil
}

func setScreenTransform(this js.Value, args []js.Value) interface{} {
	if session == nil || len(args) < 3 {
		return nil
	}
	session.Container().SetScreenTransform(scene.ScreenTransform{
		X:     args[0].Float(),
		Y:     args[1].Float(),
		Scale: args[2].Float(),
	})
	return nil
}

func undo(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(session.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(session.Redo())
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return nil
	}
	session.DeleteSelectedItems()
	return nil
}

func sendItemEvent(this js.Value, args []js.Value) interface{} {
	if session == nil || len(args) < 2 {
		return nil
	}
	session.Bus().EmitItemEvent(args[0].String(), args[1].String())
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	if session == nil || len(args) < 1 {
		return nil
	}
	session.Tick(args[0].Float())
	return nil
}

func getScheme(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return js.ValueOf("")
	}
	data, err := session.Container().Scheme().Marshal()
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return js.ValueOf("[]")
	}
	ids := []string{}
	for _, item := range session.Container().SelectedItems() {
		ids = append(ids, item.ID)
	}
	data, _ := json.Marshal(ids)
	return js.ValueOf(string(data))
}

func getScreenTransform(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return js.ValueOf("{}")
	}
	data, _ := json.Marshal(session.Container().ScreenTransform())
	return js.ValueOf(string(data))
}

func currentState(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return js.ValueOf("")
	}
	return js.ValueOf(session.CurrentState())
}

func currentMode(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return js.ValueOf("")
	}
	return js.ValueOf(session.Mode())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if session == nil || len(args) < 2 {
		return js.ValueOf("")
	}
	item := session.Container().HitItemAt(args[0].Float(), args[1].Float())
	if item == nil {
		return js.ValueOf("")
	}
	return js.ValueOf(item.ID)
}
