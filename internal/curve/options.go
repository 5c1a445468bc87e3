package curve

import "fmt"

const (
	DefaultSampleStep     = 0.1
	DefaultMaxClimbSteps  = 10000
	DefaultInflateEpsilon = 0.1
	DefaultMaxSamples     = 1_000_000
)

// Options tunes sampling density and the range search.
type Options struct {
	// SampleStep is the time increment between samples.
	SampleStep float64
	// MaxClimbSteps bounds the outward walk of the range search.
	MaxClimbSteps int
	// InflateEpsilon is added on each side of a degenerate rectangle axis.
	InflateEpsilon float64
	// MaxSamples caps the samples taken per curve for one rectangle.
	MaxSamples int
}

// DefaultOptions returns the stock sampling configuration.
func DefaultOptions() Options {
	return Options{
		SampleStep:     DefaultSampleStep,
		MaxClimbSteps:  DefaultMaxClimbSteps,
		InflateEpsilon: DefaultInflateEpsilon,
		MaxSamples:     DefaultMaxSamples,
	}
}

// Validate reports whether the options can drive a terminating search.
func (o Options) Validate() error {
	if !(o.SampleStep > 0) {
		return fmt.Errorf("%w: sample step %v must be positive", ErrInvalidStep, o.SampleStep)
	}
	if o.MaxClimbSteps <= 0 {
		return fmt.Errorf("%w: max climb steps %d must be positive", ErrInvalidStep, o.MaxClimbSteps)
	}
	if o.InflateEpsilon < 0 {
		return fmt.Errorf("%w: inflate epsilon %v must not be negative", ErrInvalidStep, o.InflateEpsilon)
	}
	if o.MaxSamples <= 0 {
		return fmt.Errorf("%w: max samples %d must be positive", ErrInvalidStep, o.MaxSamples)
	}
	return nil
}
