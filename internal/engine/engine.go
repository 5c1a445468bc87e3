package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/graphselect/internal/curve"
	"github.com/inamate/graphselect/internal/document"
	"github.com/inamate/graphselect/internal/gesture"
)

var (
	ErrNoDocument    = errors.New("no document loaded")
	ErrTrackNotFound = errors.New("track not found")
)

const DefaultRangeCacheTTL = 5 * time.Minute

// Options configures an Engine.
type Options struct {
	Select        SelectOptions
	RangeCacheTTL time.Duration
	Keymap        *gesture.Keymap
	// SelectMouse is the user's select button (gesture.LeftMouse or
	// gesture.RightMouse).
	SelectMouse gesture.EventType
}

// DefaultOptions returns the stock engine configuration.
func DefaultOptions() Options {
	return Options{
		Select:        DefaultSelectOptions(),
		RangeCacheTTL: DefaultRangeCacheTTL,
		Keymap:        gesture.DefaultKeymap(),
		SelectMouse:   gesture.LeftMouse,
	}
}

// Engine is the graph editor engine that owns the document, the view and the
// curve selection. It processes commands from the frontend and returns query
// results.
type Engine struct {
	// Document state
	doc        *document.InDocument
	timelineID string

	// Playback state
	frame   int
	playing bool
	fps     int

	// Total frames in root timeline
	totalFrames int

	// Graph view state
	view      *GraphView
	normalize bool

	// Selection machinery
	opts    Options
	tester  *curve.Tester
	ranges  *RangeCache
	keymap  *gesture.Keymap
	active  *gesture.Operator
	lastBox *SelectResult
}

// NewEngine creates a new engine instance.
func NewEngine(opts Options) (*Engine, error) {
	if opts.RangeCacheTTL <= 0 {
		opts.RangeCacheTTL = DefaultRangeCacheTTL
	}
	if opts.Keymap == nil {
		opts.Keymap = gesture.DefaultKeymap()
	}

	ranges := NewRangeCache(opts.RangeCacheTTL)
	opts.Select.Cache = ranges
	tester, err := curve.NewTester(opts.Select.Curve, ranges)
	if err != nil {
		return nil, fmt.Errorf("create tester: %w", err)
	}

	return &Engine{
		fps:    24,
		view:   NewGraphView(0, 0, curve.Rect{}),
		opts:   opts,
		tester: tester,
		ranges: ranges,
		keymap: opts.Keymap,
	}, nil
}

// --- Commands (frontend → backend) ---

// LoadDocument loads a document from JSON.
func (e *Engine) LoadDocument(jsonData string) error {
	var doc document.InDocument
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return err
	}
	e.setDocument(&doc)
	e.frame = 0
	e.playing = false
	return nil
}

// UpdateDocument reloads a document from JSON while preserving playback state.
func (e *Engine) UpdateDocument(jsonData string) error {
	var doc document.InDocument
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return err
	}
	e.setDocument(&doc)

	// Clamp frame to valid range (but don't reset it)
	if e.frame >= e.totalFrames {
		e.frame = e.totalFrames - 1
	}
	if e.frame < 0 {
		e.frame = 0
	}
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(projectID string) {
	e.setDocument(document.NewSampleDocument(projectID))
	e.frame = 0
	e.playing = false
}

func (e *Engine) setDocument(doc *document.InDocument) {
	e.doc = doc
	e.timelineID = doc.Project.RootTimeline
	e.fps = doc.Project.FPS
	if e.fps <= 0 {
		e.fps = 24
	}

	if tl, ok := doc.Timelines[e.timelineID]; ok && tl.Length > 0 {
		e.totalFrames = tl.Length
	} else {
		e.totalFrames = 48
	}

	e.active = nil
	e.lastBox = nil
	e.ranges.Flush()
}

// SetPlayhead sets the current frame.
func (e *Engine) SetPlayhead(frame int) {
	if frame < 0 {
		frame = 0
	}
	if frame >= e.totalFrames {
		frame = e.totalFrames - 1
	}
	e.frame = frame
}

// Play starts playback.
func (e *Engine) Play() {
	e.playing = true
}

// Pause stops playback.
func (e *Engine) Pause() {
	e.playing = false
}

// TogglePlay toggles play/pause state.
func (e *Engine) TogglePlay() {
	e.playing = !e.playing
}

// Tick advances the frame if playing and returns draw commands.
func (e *Engine) Tick() string {
	if e.playing && e.totalFrames > 0 {
		e.frame = (e.frame + 1) % e.totalFrames
	}
	return e.Render()
}

// SetView sets the region size and the visible (frame, value) bounds.
func (e *Engine) SetView(width, height float64, bounds curve.Rect) {
	e.view = NewGraphView(width, height, bounds)
}

// SetNormalize toggles normalized display and selection.
func (e *Engine) SetNormalize(normalize bool) {
	e.normalize = normalize
}

// SetTrackHidden shows or hides a curve.
func (e *Engine) SetTrackHidden(trackID string, hidden bool) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	tr, ok := e.doc.Tracks[trackID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	tr.Hidden = hidden
	e.doc.Tracks[trackID] = tr
	return nil
}

// DeselectAll clears every curve, keyframe and handle selection.
func (e *Engine) DeselectAll() {
	if e.doc != nil {
		e.doc.ClearSelection()
	}
}

// BoxSelectCurves selects every visible curve passing through the gesture
// rectangle. Curves that cannot be tested are skipped and logged.
func (e *Engine) BoxSelectCurves(req BoxSelect) (SelectResult, error) {
	if e.doc == nil {
		return SelectResult{}, ErrNoDocument
	}

	result, err := SelectCurves(context.Background(), e.doc, e.timelineID, req, e.opts.Select)
	if err != nil {
		return SelectResult{}, err
	}
	for _, s := range result.Skipped {
		slog.Warn("curve skipped during box select", "track", s.TrackID, "error", s.Err)
	}
	e.lastBox = &result
	return result, nil
}

// InputResult reports what an input event did.
type InputResult struct {
	Status    gesture.Status `json:"status"`
	Selection *SelectResult  `json:"selection,omitempty"`
}

// HandleInput routes a region-space input event. Without an active gesture
// the keymap decides whether a box select starts; otherwise the event drives
// the running operator, and a finished drag runs the selection.
func (e *Engine) HandleInput(ev gesture.Event) (InputResult, error) {
	if e.active == nil {
		binding, ok := e.keymap.Match(ev)
		if !ok {
			return InputResult{Status: gesture.StatusPassThrough}, nil
		}
		op := gesture.NewOperator(binding, e.opts.SelectMouse)
		status := op.Invoke(ev)
		if status == gesture.StatusRunning {
			e.active = op
		}
		return InputResult{Status: status}, nil
	}

	status := e.active.Modal(ev)
	switch status {
	case gesture.StatusCancelled:
		e.active = nil
	case gesture.StatusFinished:
		res, _ := e.active.Result()
		e.active = nil
		sel, err := e.BoxSelectCurves(BoxSelect{
			Start:     e.view.RegionToView(res.Start.X, res.Start.Y),
			End:       e.view.RegionToView(res.End.X, res.End.Y),
			Normalize: e.normalize,
			Extend:    res.Extend,
			Deselect:  res.Deselect,
		})
		if err != nil {
			return InputResult{Status: status}, err
		}
		return InputResult{Status: status, Selection: &sel}, nil
	}
	return InputResult{Status: status}, nil
}

// --- Queries (frontend ← backend) ---

// Render samples the visible curves and returns draw commands as JSON, with
// the playhead at the current frame drawn last.
func (e *Engine) Render() string {
	if e.doc == nil {
		return "[]"
	}

	from, to := 0.0, float64(e.totalFrames)
	if !e.view.IsIdentity() {
		from, to = e.view.Bounds.MinTime, e.view.Bounds.MaxTime
	}

	commands := CompileCurveCommands(e.curves(), e.view, e.tester, from, to, e.displayValue)
	commands = append(commands, PlayheadCommand(e.view, e.frame))

	result, _ := DrawCommandsToJSON(commands)
	return result
}

func (e *Engine) displayValue(c *TrackCurve, v float64) float64 {
	if !e.normalize {
		return v
	}
	rng, err := e.tester.Normalizer().Range(c)
	if err != nil {
		return v
	}
	return rng.Normalize(v)
}

// PickCurve returns the topmost curve under a region position, or empty string.
func (e *Engine) PickCurve(x, y float64) string {
	if e.doc == nil {
		return ""
	}
	p := e.view.RegionToView(x, y)
	return PickCurve(e.curves(), e.tester, p, e.opts.Select.Curve.InflateEpsilon, e.normalize)
}

// GetNormalizedRange returns the normalization range of a track as JSON.
func (e *Engine) GetNormalizedRange(trackID string) (string, error) {
	if e.doc == nil {
		return "", ErrNoDocument
	}
	tr, ok := e.doc.Tracks[trackID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	rng, err := e.tester.Normalizer().Range(NewTrackCurve(e.doc, &tr))
	if err != nil {
		return "", err
	}
	data, _ := json.Marshal(rng)
	return string(data), nil
}

// GetDragRect returns the in-progress drag rectangle in view space as JSON,
// or "null" when no drag is active.
func (e *Engine) GetDragRect() string {
	if e.active == nil {
		return "null"
	}
	start, end, ok := e.active.Current()
	if !ok {
		return "null"
	}
	rect := curve.RectFromCorners(
		e.view.RegionToView(start.X, start.Y),
		e.view.RegionToView(end.X, end.Y),
		e.opts.Select.Curve.InflateEpsilon,
	)
	data, _ := json.Marshal(rect)
	return string(data)
}

func (e *Engine) curves() []*TrackCurve {
	return TrackCurves(e.doc, e.timelineID)
}

// GetPlaybackState returns the current playback state as JSON.
func (e *Engine) GetPlaybackState() string {
	data, _ := json.Marshal(map[string]interface{}{
		"frame":       e.frame,
		"playing":     e.playing,
		"fps":         e.fps,
		"totalFrames": e.totalFrames,
	})
	return string(data)
}

// GetDocument returns the full document as JSON (for debugging/sync).
func (e *Engine) GetDocument() string {
	if e.doc == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.doc)
	return string(data)
}

// GetSelection returns the selected track IDs as JSON.
func (e *Engine) GetSelection() string {
	var ids []string
	if e.doc != nil {
		ids = e.doc.SelectedTracks(e.timelineID)
	}
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

// GetLastBoxSelect returns the most recent box select result as JSON.
func (e *Engine) GetLastBoxSelect() string {
	if e.lastBox == nil {
		return "null"
	}
	data, _ := json.Marshal(e.lastBox)
	return string(data)
}

// GetFrame returns the current frame number.
func (e *Engine) GetFrame() int {
	return e.frame
}

// IsPlaying returns whether playback is active.
func (e *Engine) IsPlaying() bool {
	return e.playing
}

// GetFPS returns the frames per second.
func (e *Engine) GetFPS() int {
	return e.fps
}

// GetTotalFrames returns the total number of frames.
func (e *Engine) GetTotalFrames() int {
	return e.totalFrames
}
