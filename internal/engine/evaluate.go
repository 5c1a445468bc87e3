package engine

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/inamate/graphselect/internal/curve"
	"github.com/inamate/graphselect/internal/document"
)

// keyPoint is a resolved numeric keyframe.
type keyPoint struct {
	id       string
	frame    float64
	value    float64
	easing   document.EasingType
	selected bool
}

// TrackCurve adapts a document track to curve.Curve. Values hold the first
// key before the track starts and the last key after it ends; between keys
// the outgoing key's easing shapes the interpolation.
type TrackCurve struct {
	trackID  string
	property string
	color    string
	hidden   bool
	selected bool
	points   []keyPoint
	keys     []curve.Keyframe
}

var _ curve.Curve = (*TrackCurve)(nil)
var _ curve.Keyed = (*TrackCurve)(nil)

// NewTrackCurve resolves a track's keyframes. Keyframes whose value is not
// numeric (colors and other step-only strings) are left out.
func NewTrackCurve(doc *document.InDocument, track *document.Track) *TrackCurve {
	tc := &TrackCurve{
		trackID:  track.ID,
		property: track.Property,
		color:    track.Color,
		hidden:   track.Hidden,
		selected: track.Selected,
	}

	for _, kfID := range track.Keys {
		kf, ok := doc.Keyframes[kfID]
		if !ok {
			continue
		}
		v := parseKeyframeValue(kf.Value)
		if v == nil {
			continue
		}
		tc.points = append(tc.points, keyPoint{
			id:       kf.ID,
			frame:    kf.Frame,
			value:    *v,
			easing:   kf.Easing,
			selected: kf.SelectControlPoint,
		})
	}

	sort.SliceStable(tc.points, func(i, j int) bool {
		return tc.points[i].frame < tc.points[j].frame
	})

	tc.keys = make([]curve.Keyframe, len(tc.points))
	for i, p := range tc.points {
		tc.keys[i] = curve.Keyframe{Time: p.frame, Value: p.value}
	}
	return tc
}

// TrackCurves returns the curves of a timeline in track order. Tracks
// missing from the document are skipped.
func TrackCurves(doc *document.InDocument, timelineID string) []*TrackCurve {
	timeline, ok := doc.Timelines[timelineID]
	if !ok {
		return nil
	}

	curves := make([]*TrackCurve, 0, len(timeline.Tracks))
	for _, trackID := range timeline.Tracks {
		track, ok := doc.Tracks[trackID]
		if !ok {
			continue
		}
		curves = append(curves, NewTrackCurve(doc, &track))
	}
	return curves
}

func (tc *TrackCurve) TrackID() string  { return tc.trackID }
func (tc *TrackCurve) Property() string { return tc.property }
func (tc *TrackCurve) Selected() bool   { return tc.selected }
func (tc *TrackCurve) IsHidden() bool   { return tc.hidden }
func (tc *TrackCurve) Key() string      { return tc.trackID }

// Keyframes returns the numeric keyframes ordered by frame.
func (tc *TrackCurve) Keyframes() []curve.Keyframe {
	return tc.keys
}

// Evaluate interpolates the track at a (possibly fractional) frame. A NaN
// frame evaluates to NaN.
func (tc *TrackCurve) Evaluate(t float64) float64 {
	n := len(tc.points)
	if n == 0 {
		return 0
	}
	if math.IsNaN(t) {
		return math.NaN()
	}

	// Before first keyframe - use first value
	if t <= tc.points[0].frame {
		return tc.points[0].value
	}
	// After last keyframe - use last value (hold)
	if t >= tc.points[n-1].frame {
		return tc.points[n-1].value
	}

	// First keyframe strictly after t; t sits inside (prev, next].
	i := sort.Search(n, func(i int) bool { return tc.points[i].frame > t })
	prev, next := tc.points[i-1], tc.points[i]
	if prev.frame == next.frame {
		return prev.value
	}

	u := (t - prev.frame) / (next.frame - prev.frame)
	u = applyEasing(u, prev.easing)
	return prev.value + (next.value-prev.value)*u
}

// parseKeyframeValue extracts a float64 from a keyframe's JSON value.
func parseKeyframeValue(raw json.RawMessage) *float64 {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// applyEasing applies an easing function to interpolation factor t (0-1).
func applyEasing(t float64, easing document.EasingType) float64 {
	switch easing {
	case document.EasingStep:
		return 0

	case document.EasingEaseIn:
		return t * t

	case document.EasingEaseOut:
		return t * (2 - t)

	case document.EasingEaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t

	case document.EasingCubicIn:
		return t * t * t

	case document.EasingCubicOut:
		t2 := 1 - t
		return 1 - t2*t2*t2

	case document.EasingCubicInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		t2 := -2*t + 2
		return 1 - t2*t2*t2/2

	case document.EasingBackIn:
		c1 := 1.70158
		c3 := c1 + 1
		return c3*t*t*t - c1*t*t

	case document.EasingBackOut:
		c1 := 1.70158
		c3 := c1 + 1
		t2 := t - 1
		return 1 + c3*t2*t2*t2 + c1*t2*t2

	case document.EasingBackInOut:
		c1 := 1.70158
		c2 := c1 * 1.525
		if t < 0.5 {
			return (math.Pow(2*t, 2) * ((c2+1)*2*t - c2)) / 2
		}
		return (math.Pow(2*t-2, 2)*((c2+1)*(t*2-2)+c2) + 2) / 2

	case document.EasingElasticOut:
		if t == 0 || t == 1 {
			return t
		}
		c4 := (2 * math.Pi) / 3
		return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1

	case document.EasingBounceOut:
		return bounceOut(t)

	default: // linear
		return t
	}
}

// bounceOut implements the standard 4-segment parabolic bounce curve.
func bounceOut(t float64) float64 {
	n1 := 7.5625
	d1 := 2.75
	if t < 1/d1 {
		return n1 * t * t
	} else if t < 2/d1 {
		t -= 1.5 / d1
		return n1*t*t + 0.75
	} else if t < 2.5/d1 {
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	} else {
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}
