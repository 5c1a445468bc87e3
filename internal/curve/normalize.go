package curve

import "fmt"

// Range is the value span of a curve over its whole domain.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns max - min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// IsDegenerate reports whether the range collapses to a single value.
func (r Range) IsDegenerate() bool {
	return r.Max == r.Min
}

// Validate returns ErrDegenerateRange for a collapsed range.
func (r Range) Validate() error {
	if r.IsDegenerate() {
		return fmt.Errorf("%w: min and max are both %v", ErrDegenerateRange, r.Min)
	}
	return nil
}

// Normalize maps v from [Min, Max] onto [-1, 1]. A degenerate range maps
// every value to the midpoint 0.
func (r Range) Normalize(v float64) float64 {
	if r.IsDegenerate() {
		return 0
	}
	return ((v-r.Min)/r.Span())*2 - 1
}

// RangeCache stores normalization ranges by curve key.
type RangeCache interface {
	Get(key string) (Range, bool)
	Set(key string, r Range)
}

// Normalizer derives curve ranges by hill-climbing outward from the most
// extreme keyframes, so overshoot between keyframes is accounted for.
type Normalizer struct {
	step     float64
	maxSteps int
	cache    RangeCache
}

// NewNormalizer creates a normalizer. cache may be nil.
func NewNormalizer(opts Options, cache RangeCache) (*Normalizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{
		step:     opts.SampleStep,
		maxSteps: opts.MaxClimbSteps,
		cache:    cache,
	}, nil
}

// Range returns the min and max of c. Curves implementing Keyed are served
// from the cache when one is configured.
func (n *Normalizer) Range(c Curve) (Range, error) {
	var key string
	if k, ok := c.(Keyed); ok && n.cache != nil {
		key = k.Key()
		if r, ok := n.cache.Get(key); ok {
			return r, nil
		}
	}

	keys := c.Keyframes()
	if len(keys) == 0 {
		return Range{}, ErrEmptyCurve
	}

	maxSeed, minSeed := keys[0], keys[0]
	for _, k := range keys[1:] {
		if k.Value > maxSeed.Value {
			maxSeed = k
		}
		if k.Value < minSeed.Value {
			minSeed = k
		}
	}

	r := Range{
		Min: n.climb(c, minSeed, lower),
		Max: n.climb(c, maxSeed, higher),
	}
	if key != "" {
		n.cache.Set(key, r)
	}
	return r, nil
}

// NormalizedValue evaluates c at t and maps it into [-1, 1] using the
// curve's own range.
func (n *Normalizer) NormalizedValue(c Curve, t float64) (float64, error) {
	r, err := n.Range(c)
	if err != nil {
		return 0, err
	}
	return r.Normalize(c.Evaluate(t)), nil
}

// extremer reports whether a is strictly more extreme than b.
type extremer func(a, b float64) bool

func higher(a, b float64) bool { return a > b }
func lower(a, b float64) bool  { return a < b }

// climb walks away from the seed keyframe in whichever direction first
// improves on it and stops at the first sample that does not improve on the
// running extreme, or after maxSteps samples.
func (n *Normalizer) climb(c Curve, seed Keyframe, better extremer) float64 {
	back := c.Evaluate(seed.Time - n.step)
	fwd := c.Evaluate(seed.Time + n.step)

	var dir float64
	extreme := seed.Value
	switch {
	case better(fwd, seed.Value) && !better(back, fwd):
		dir, extreme = 1, fwd
	case better(back, seed.Value):
		dir, extreme = -1, back
	default:
		return seed.Value
	}

	for i := 2; i <= n.maxSteps; i++ {
		v := c.Evaluate(seed.Time + dir*float64(i)*n.step)
		if !better(v, extreme) {
			break
		}
		extreme = v
	}
	return extreme
}
