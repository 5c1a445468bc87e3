package engine

import (
	"github.com/inamate/graphselect/internal/curve"
)

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Determinant returns the determinant of the matrix.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// GraphView maps between graph view space (frame, value) and region pixels.
// Region y grows downward, so larger values sit higher on screen.
type GraphView struct {
	Width    float64
	Height   float64
	Bounds   curve.Rect
	toRegion Matrix2D
	toView   Matrix2D
}

// NewGraphView fits bounds into a width x height region. A region or bounds
// with no area yields the identity mapping.
func NewGraphView(width, height float64, bounds curve.Rect) *GraphView {
	bounds = bounds.Normalize()
	v := &GraphView{Width: width, Height: height, Bounds: bounds}

	if width <= 0 || height <= 0 || bounds.IsDegenerate() {
		v.toRegion = Identity()
		v.toView = Identity()
		return v
	}

	sx := width / bounds.Width()
	sy := height / bounds.Height()
	// T(0, h) * S(sx, -sy) * T(-minTime, -minValue)
	v.toRegion = Translate(0, height).
		Multiply(Scale(sx, -sy)).
		Multiply(Translate(-bounds.MinTime, -bounds.MinValue))
	v.toView = v.toRegion.Invert()
	return v
}

// IsIdentity reports whether region and view coordinates coincide.
func (v *GraphView) IsIdentity() bool {
	return v.toRegion == Identity()
}

// RegionToView converts a region pixel position into a view point.
func (v *GraphView) RegionToView(x, y float64) curve.Point {
	t, val := v.toView.TransformPoint(x, y)
	return curve.Point{Time: t, Value: val}
}

// ViewToRegion converts a view point into region pixels.
func (v *GraphView) ViewToRegion(p curve.Point) (float64, float64) {
	return v.toRegion.TransformPoint(p.Time, p.Value)
}

// Matrix returns the view-to-region matrix.
func (v *GraphView) Matrix() Matrix2D {
	return v.toRegion
}
