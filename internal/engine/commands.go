package engine

import (
	"encoding/json"

	"github.com/inamate/graphselect/internal/curve"
)

const (
	curveStrokeWidth    = 1.5
	selectedStrokeWidth = 2.5
	selectedStroke      = "#ffffff"
	keyframeFill        = "#000000"
	selectedKeyFill     = "#ffaa40"
	playheadStroke      = "#4772b3"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path", "point", "playhead"
	TrackID     string        `json:"trackId,omitempty"`     // For hit correlation
	KeyframeID  string        `json:"keyframeId,omitempty"`  // Set on "point" ops
	Path        []PathCommand `json:"path,omitempty"`        // Region-space path data for "path" ops
	X           float64       `json:"x,omitempty"`           // Region position for "point" ops
	Y           float64       `json:"y,omitempty"`           // Region position for "point" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Selected    bool          `json:"selected,omitempty"`
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y].
type PathCommand []interface{}

// valueFunc maps a curve sample into the displayed value.
type valueFunc func(c *TrackCurve, v float64) float64

// CompileCurveCommands samples every visible curve over [from, to] into a
// region-space polyline followed by its keyframe points. Curves are emitted
// in track order, so later tracks paint over earlier ones.
func CompileCurveCommands(curves []*TrackCurve, view *GraphView, tester *curve.Tester, from, to float64, display valueFunc) []DrawCommand {
	var commands []DrawCommand
	for _, c := range curves {
		if c.IsHidden() {
			continue
		}
		commands = append(commands, compileCurve(c, view, tester, from, to, display)...)
	}
	return commands
}

// compileCurve returns nothing when [from, to] cannot be sampled.
func compileCurve(c *TrackCurve, view *GraphView, tester *curve.Tester, from, to float64, display valueFunc) []DrawCommand {
	samples, err := tester.Samples(c, from, to)
	if err != nil {
		return nil
	}
	path := make([]PathCommand, 0, len(samples))
	for i, s := range samples {
		x, y := view.ViewToRegion(curve.Point{Time: s.Time, Value: display(c, s.Value)})
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, x, y})
	}

	line := DrawCommand{
		Op:          "path",
		TrackID:     c.TrackID(),
		Path:        path,
		Stroke:      c.color,
		StrokeWidth: curveStrokeWidth,
		Selected:    c.Selected(),
	}
	if c.Selected() {
		line.Stroke = selectedStroke
		line.StrokeWidth = selectedStrokeWidth
	}
	commands := []DrawCommand{line}

	for _, p := range c.points {
		x, y := view.ViewToRegion(curve.Point{Time: p.frame, Value: display(c, p.value)})
		fill := keyframeFill
		if p.selected {
			fill = selectedKeyFill
		}
		commands = append(commands, DrawCommand{
			Op:         "point",
			TrackID:    c.TrackID(),
			KeyframeID: p.id,
			X:          x,
			Y:          y,
			Fill:       fill,
			Selected:   p.selected,
		})
	}
	return commands
}

// PlayheadCommand draws the current frame as a vertical line spanning the
// region.
func PlayheadCommand(view *GraphView, frame int) DrawCommand {
	x, _ := view.ViewToRegion(curve.Point{Time: float64(frame)})
	return DrawCommand{
		Op:          "playhead",
		Path:        []PathCommand{{"M", x, 0.0}, {"L", x, view.Height}},
		X:           x,
		Stroke:      playheadStroke,
		StrokeWidth: 1,
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// PickCurve returns the topmost visible curve passing through the inflated
// click rectangle at p, or an empty string.
func PickCurve(curves []*TrackCurve, tester *curve.Tester, p curve.Point, eps float64, normalize bool) string {
	rect := curve.RectFromCorners(p, p, eps)

	// Traverse in reverse order (front to back) to get topmost hit
	for i := len(curves) - 1; i >= 0; i-- {
		c := curves[i]
		if c.IsHidden() {
			continue
		}
		hit, err := tester.Intersects(c, rect, normalize)
		if err == nil && hit {
			return c.TrackID()
		}
	}
	return ""
}
