//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/graphselect/internal/curve"
	"github.com/inamate/graphselect/internal/engine"
	"github.com/inamate/graphselect/internal/gesture"
)

var eng *engine.Engine

func main() {
	var err error
	eng, err = engine.NewEngine(engine.DefaultOptions())
	if err != nil {
		js.Global().Get("console").Call("error", "graphselect: "+err.Error())
		return
	}

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("updateDocument", js.FuncOf(updateDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("setPlayhead", js.FuncOf(setPlayhead))
	api.Set("play", js.FuncOf(play))
	api.Set("pause", js.FuncOf(pause))
	api.Set("togglePlay", js.FuncOf(togglePlay))
	api.Set("tick", js.FuncOf(tick))
	api.Set("setView", js.FuncOf(setView))
	api.Set("setNormalize", js.FuncOf(setNormalize))
	api.Set("setTrackHidden", js.FuncOf(setTrackHidden))
	api.Set("deselectAll", js.FuncOf(deselectAll))
	api.Set("boxSelect", js.FuncOf(boxSelect))
	api.Set("pointerEvent", js.FuncOf(pointerEvent))

	// --- Queries (frontend ← backend) ---
	api.Set("render", js.FuncOf(render))
	api.Set("pickCurve", js.FuncOf(pickCurve))
	api.Set("getDragRect", js.FuncOf(getDragRect))
	api.Set("getNormalizedRange", js.FuncOf(getNormalizedRange))
	api.Set("getPlaybackState", js.FuncOf(getPlaybackState))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getLastBoxSelect", js.FuncOf(getLastBoxSelect))
	api.Set("getFrame", js.FuncOf(getFrame))
	api.Set("isPlaying", js.FuncOf(isPlaying))
	api.Set("getFPS", js.FuncOf(getFPS))
	api.Set("getTotalFrames", js.FuncOf(getTotalFrames))

	js.Global().Set("graphselectEngine", api)
	js.Global().Set("graphselectWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	if err := eng.LoadDocument(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func updateDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	if err := eng.UpdateDocument(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	projectID := "proj_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		projectID = args[0].String()
	}
	eng.LoadSampleDocument(projectID)
	return okResult()
}

func setPlayhead(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetPlayhead(args[0].Int())
	return nil
}

func play(this js.Value, args []js.Value) interface{} {
	eng.Play()
	return nil
}

func pause(this js.Value, args []js.Value) interface{} {
	eng.Pause()
	return nil
}

func togglePlay(this js.Value, args []js.Value) interface{} {
	eng.TogglePlay()
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick())
}

// setView(width, height, boundsJSON)
func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("width, height and bounds")
	}
	var bounds curve.Rect
	if err := json.Unmarshal([]byte(args[2].String()), &bounds); err != nil {
		return errorResult(err)
	}
	eng.SetView(args[0].Float(), args[1].Float(), bounds)
	return okResult()
}

func setNormalize(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetNormalize(args[0].Bool())
	return nil
}

// setTrackHidden(trackID, hidden)
func setTrackHidden(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("track ID and hidden flag")
	}
	if err := eng.SetTrackHidden(args[0].String(), args[1].Bool()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func deselectAll(this js.Value, args []js.Value) interface{} {
	eng.DeselectAll()
	return nil
}

// boxSelect(requestJSON) runs a box select in graph space and returns the
// result JSON.
func boxSelect(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("box select JSON")
	}
	var req engine.BoxSelect
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return errorResult(err)
	}
	res, err := eng.BoxSelectCurves(req)
	if err != nil {
		return errorResult(err)
	}
	data, _ := json.Marshal(res)
	return js.ValueOf(string(data))
}

// pointerEvent(eventJSON) feeds a region-space input event to the gesture
// operator and returns the input result JSON.
func pointerEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("event JSON")
	}
	var ev gesture.Event
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return errorResult(err)
	}
	res, err := eng.HandleInput(ev)
	if err != nil {
		return errorResult(err)
	}
	data, _ := json.Marshal(res)
	return js.ValueOf(string(data))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

// pickCurve(x, y) returns the track ID under a region position.
func pickCurve(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.PickCurve(args[0].Float(), args[1].Float()))
}

func getDragRect(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDragRect())
}

func getNormalizedRange(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("track ID")
	}
	rng, err := eng.GetNormalizedRange(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(rng)
}

func getPlaybackState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetPlaybackState())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getLastBoxSelect(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetLastBoxSelect())
}

func getFrame(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetFrame())
}

func isPlaying(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.IsPlaying())
}

func getFPS(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetFPS())
}

func getTotalFrames(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetTotalFrames())
}
