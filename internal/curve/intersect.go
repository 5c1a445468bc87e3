package curve

import (
	"fmt"
	"math"
)

// Tester samples curves against rectangles.
type Tester struct {
	step       float64
	maxSamples int
	normalizer *Normalizer
}

// NewTester creates a tester. The range cache is consulted only for
// normalized tests and may be nil.
func NewTester(opts Options, cache RangeCache) (*Tester, error) {
	n, err := NewNormalizer(opts, cache)
	if err != nil {
		return nil, err
	}
	return &Tester{step: opts.SampleStep, maxSamples: opts.MaxSamples, normalizer: n}, nil
}

// Normalizer returns the range normalizer used for normalized tests.
func (t *Tester) Normalizer() *Normalizer {
	return t.normalizer
}

// CheckSpan reports whether [from, to] is finite and can be sampled within
// the sample cap.
func (t *Tester) CheckSpan(from, to float64) error {
	for _, v := range [...]float64{from, to} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: span [%v, %v]", ErrInvalidRect, from, to)
		}
	}
	if n := math.Abs(to-from) / t.step; n > float64(t.maxSamples) {
		return fmt.Errorf("%w: span [%v, %v] needs %.0f samples, limit %d", ErrRectTooLarge, from, to, n, t.maxSamples)
	}
	return nil
}

// Intersects reports whether any sample of c over [r.MinTime, r.MaxTime]
// falls inside the value band of r. Samples are taken every step from
// MinTime and always once more at exactly MaxTime. With normalize set, each
// sample is first mapped into [-1, 1] using the curve's own range.
func (t *Tester) Intersects(c Curve, r Rect, normalize bool) (bool, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return false, err
	}
	if err := t.CheckSpan(r.MinTime, r.MaxTime); err != nil {
		return false, err
	}

	var rng Range
	if normalize {
		var err error
		rng, err = t.normalizer.Range(c)
		if err != nil {
			return false, err
		}
	}

	sample := func(at float64) bool {
		v := c.Evaluate(at)
		if normalize {
			v = rng.Normalize(v)
		}
		return r.ContainsValue(v)
	}

	for i := 0; ; i++ {
		at := r.MinTime + float64(i)*t.step
		if at >= r.MaxTime {
			break
		}
		if sample(at) {
			return true, nil
		}
	}
	return sample(r.MaxTime), nil
}

// Samples returns the curve points the tester would visit over [from, to].
func (t *Tester) Samples(c Curve, from, to float64) ([]Point, error) {
	if from > to {
		from, to = to, from
	}
	if err := t.CheckSpan(from, to); err != nil {
		return nil, err
	}
	pts := make([]Point, 0, int((to-from)/t.step)+2)
	for i := 0; ; i++ {
		at := from + float64(i)*t.step
		if at >= to {
			break
		}
		pts = append(pts, Point{Time: at, Value: c.Evaluate(at)})
	}
	return append(pts, Point{Time: to, Value: c.Evaluate(to)}), nil
}
