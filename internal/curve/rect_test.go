package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectFromCornersClick(t *testing.T) {
	p := Point{Time: 3, Value: 5}
	r := RectFromCorners(p, p, DefaultInflateEpsilon)

	assert.InDelta(t, 0.2, r.Width(), 1e-12)
	assert.InDelta(t, 0.2, r.Height(), 1e-12)
	c := r.Center()
	assert.InDelta(t, 3.0, c.Time, 1e-12)
	assert.InDelta(t, 5.0, c.Value, 1e-12)
}

func TestRectFromCornersHorizontalDrag(t *testing.T) {
	r := RectFromCorners(Point{Time: 8, Value: 2}, Point{Time: 1, Value: 2}, 0.1)

	assert.Equal(t, 1.0, r.MinTime)
	assert.Equal(t, 8.0, r.MaxTime)
	assert.InDelta(t, 1.9, r.MinValue, 1e-12)
	assert.InDelta(t, 2.1, r.MaxValue, 1e-12)
	assert.False(t, r.IsDegenerate())
}

func TestRectFromCornersOrdersBounds(t *testing.T) {
	r := RectFromCorners(Point{Time: 6, Value: -2}, Point{Time: 4, Value: -4}, 0.1)

	assert.Equal(t, Rect{MinTime: 4, MaxTime: 6, MinValue: -4, MaxValue: -2}, r)
}

func TestRectNormalize(t *testing.T) {
	r := Rect{MinTime: 5, MaxTime: 1, MinValue: 9, MaxValue: -9}.Normalize()

	assert.Equal(t, Rect{MinTime: 1, MaxTime: 5, MinValue: -9, MaxValue: 9}, r)
	assert.True(t, r.Contains(Point{Time: 1, Value: 9}))
	assert.False(t, r.Contains(Point{Time: 0.99, Value: 0}))
}

func TestRectValidate(t *testing.T) {
	require.NoError(t, Rect{MinTime: 0, MaxTime: 1, MinValue: math.Inf(-1), MaxValue: math.Inf(1)}.Validate())

	r := RectFromCorners(Point{Time: math.NaN(), Value: 0}, Point{Time: 1, Value: 1}, DefaultInflateEpsilon)
	assert.ErrorIs(t, r.Validate(), ErrInvalidRect)
}
