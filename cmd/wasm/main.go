//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/driftboard/canvas/backend-go/internal/config"
	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/engine"
	"github.com/driftboard/canvas/backend-go/internal/geom"
)

var session *engine.Session

func main() {
	session = engine.NewSession(config.DefaultEngine(), nil)

	// Create the engine API object
	canvasEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	canvasEngine.Set("loadDocument", js.FuncOf(loadDocument))
	canvasEngine.Set("syncDocument", js.FuncOf(syncDocument))
	canvasEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	canvasEngine.Set("apply", js.FuncOf(apply))
	canvasEngine.Set("setSelection", js.FuncOf(setSelection))
	canvasEngine.Set("copy", js.FuncOf(copySelection))

	// --- Queries (frontend ← engine) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("hitTest", js.FuncOf(hitTest))
	canvasEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	canvasEngine.Set("getDocument", js.FuncOf(getDocument))
	canvasEngine.Set("getSelection", js.FuncOf(getSelection))
	canvasEngine.Set("getVersion", js.FuncOf(getVersion))
	canvasEngine.Set("getSnapThreshold", js.FuncOf(getSnapThreshold))

	// Register on global scope
	js.Global().Set("canvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorValue(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okValue() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// jsonString marshals v for the JS side, which parses it itself.
func jsonString(v any) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(string(data))
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	doc, err := document.Decode([]byte(args[0].String()))
	if err != nil {
		return errorValue(err)
	}
	if err := session.Load(doc); err != nil {
		return errorValue(err)
	}
	return okValue()
}

// syncDocument adopts a snapshot pushed by the server and keeps the
// selection and view.
func syncDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	doc, err := document.Decode([]byte(args[0].String()))
	if err != nil {
		return errorValue(err)
	}
	session.Sync(doc)
	return okValue()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	if err := session.Load(document.NewSampleDocument()); err != nil {
		return errorValue(err)
	}
	return okValue()
}

func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing command JSON"})
	}

	cmd, err := engine.DecodeCommand([]byte(args[0].String()))
	if err != nil {
		return errorValue(err)
	}
	res, err := session.Apply(cmd)
	if err != nil {
		return errorValue(err)
	}
	return jsonString(res)
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		session.SetSelection(nil)
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	if err := session.SetSelection(ids); err != nil {
		return errorValue(err)
	}
	return nil
}

func copySelection(this js.Value, args []js.Value) interface{} {
	packed, err := session.Copy()
	if err != nil {
		return errorValue(err)
	}
	return jsonString(packed)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return jsonString(session.DisplayList())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	id, _ := session.NodeAt(geom.V(args[0].Float(), args[1].Float()))
	return js.ValueOf(id)
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	r, ok := session.SelectionBounds()
	if !ok {
		return js.Null()
	}
	return jsonString(r)
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return jsonString(session.Document())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return jsonString(session.Selection())
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(float64(session.Version()))
}

func getSnapThreshold(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.SnapThreshold())
}
