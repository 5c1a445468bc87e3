package curve

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned region in (time, value) space. Bounds are inclusive.
type Rect struct {
	MinTime  float64 `json:"minTime"`
	MaxTime  float64 `json:"maxTime"`
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
}

// RectFromCorners builds a rect from two unordered drag corners. An axis with
// zero extent (a click, or a perfectly straight drag) is widened by eps on
// each side so the result is never an empty set.
func RectFromCorners(a, b Point, eps float64) Rect {
	r := Rect{
		MinTime:  math.Min(a.Time, b.Time),
		MaxTime:  math.Max(a.Time, b.Time),
		MinValue: math.Min(a.Value, b.Value),
		MaxValue: math.Max(a.Value, b.Value),
	}
	return r.Inflate(eps)
}

// Normalize returns r with swapped bounds put back in order.
func (r Rect) Normalize() Rect {
	if r.MinTime > r.MaxTime {
		r.MinTime, r.MaxTime = r.MaxTime, r.MinTime
	}
	if r.MinValue > r.MaxValue {
		r.MinValue, r.MaxValue = r.MaxValue, r.MinValue
	}
	return r
}

// Inflate widens each degenerate axis by eps on both sides.
func (r Rect) Inflate(eps float64) Rect {
	if r.MinTime == r.MaxTime {
		r.MinTime -= eps
		r.MaxTime += eps
	}
	if r.MinValue == r.MaxValue {
		r.MinValue -= eps
		r.MaxValue += eps
	}
	return r
}

func (r Rect) Width() float64  { return r.MaxTime - r.MinTime }
func (r Rect) Height() float64 { return r.MaxValue - r.MinValue }

// Validate returns ErrInvalidRect if any bound is NaN or a time bound is
// infinite. An infinite value band is allowed and matches every finite value.
func (r Rect) Validate() error {
	if math.IsNaN(r.MinValue) || math.IsNaN(r.MaxValue) ||
		math.IsNaN(r.MinTime) || math.IsNaN(r.MaxTime) ||
		math.IsInf(r.MinTime, 0) || math.IsInf(r.MaxTime, 0) {
		return fmt.Errorf("%w: %+v", ErrInvalidRect, r)
	}
	return nil
}

// IsDegenerate reports whether either axis has zero extent.
func (r Rect) IsDegenerate() bool {
	return r.Width() == 0 || r.Height() == 0
}

// ContainsValue reports whether v lies within the value band. NaN never does.
func (r Rect) ContainsValue(v float64) bool {
	return r.MinValue <= v && v <= r.MaxValue
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return r.MinTime <= p.Time && p.Time <= r.MaxTime && r.ContainsValue(p.Value)
}

// Center returns the middle of the rect.
func (r Rect) Center() Point {
	return Point{Time: (r.MinTime + r.MaxTime) / 2, Value: (r.MinValue + r.MaxValue) / 2}
}
