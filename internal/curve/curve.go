// Package curve decides whether animation curves pass through a rectangle in
// (time, value) space by sampling them as continuous functions.
package curve

// Curve is the capability a host curve exposes to the selection core.
// Implementations must be safe for concurrent reads.
type Curve interface {
	// Evaluate returns the curve value at time t. It must be defined for
	// every t, extrapolating beyond the first and last keyframe.
	Evaluate(t float64) float64
	// Keyframes returns the curve's keyframes ordered by time.
	Keyframes() []Keyframe
	IsHidden() bool
}

// Keyed is implemented by curves that have a stable identity, allowing their
// normalization range to be cached.
type Keyed interface {
	Key() string
}

// Keyframe is a (time, value) anchor on a curve.
type Keyframe struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Point is a location in graph view space.
type Point struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Func adapts a plain function and keyframe list to the Curve interface.
type Func struct {
	Fn     func(t float64) float64
	Keys   []Keyframe
	Hidden bool
}

func (f Func) Evaluate(t float64) float64 { return f.Fn(t) }
func (f Func) Keyframes() []Keyframe      { return f.Keys }
func (f Func) IsHidden() bool             { return f.Hidden }
