package curve

import "errors"

var (
	// ErrEmptyCurve is returned when a normalization range is requested for
	// a curve without keyframes.
	ErrEmptyCurve = errors.New("curve has no keyframes")

	// ErrDegenerateRange is returned by Range.Validate when min equals max.
	ErrDegenerateRange = errors.New("normalization range is degenerate")

	ErrInvalidStep = errors.New("invalid sampling options")

	// ErrInvalidRect is returned for a rectangle with a NaN or infinite bound.
	ErrInvalidRect = errors.New("rectangle bounds are not finite")

	// ErrRectTooLarge is returned when a time span needs more samples than
	// Options.MaxSamples allows.
	ErrRectTooLarge = errors.New("rectangle spans too many samples")
)
