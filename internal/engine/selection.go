package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/inamate/graphselect/internal/curve"
	"github.com/inamate/graphselect/internal/document"
)

const DefaultSelectWorkers = 4

// BoxSelect describes a finished box-select gesture in view space.
type BoxSelect struct {
	Start     curve.Point `json:"start"`
	End       curve.Point `json:"end"`
	Normalize bool        `json:"normalize"`
	Extend    bool        `json:"extend"`
	Deselect  bool        `json:"deselect"`
}

// SkippedCurve is a curve that could not be tested.
type SkippedCurve struct {
	TrackID string `json:"trackId"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// SelectResult lists the curves a box select hit, in timeline order.
type SelectResult struct {
	Rect    curve.Rect     `json:"rect"`
	Hits    []string       `json:"hits"`
	Skipped []SkippedCurve `json:"skipped,omitempty"`
}

// SelectOptions configures a selection pass.
type SelectOptions struct {
	Curve   curve.Options
	Workers int
	// Cache is shared across passes when set. Otherwise a cache scoped to
	// the pass is used.
	Cache curve.RangeCache
}

// DefaultSelectOptions returns the stock sampling options with four workers.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{Curve: curve.DefaultOptions(), Workers: DefaultSelectWorkers}
}

// FindCurves tests every visible curve of a timeline against the gesture
// rectangle without touching the document. A curve that fails (for example
// an empty curve under normalization) is reported in Skipped and does not
// stop the pass. A rectangle that is not finite or too wide to sample fails
// the whole pass, as does cancelling ctx.
func FindCurves(ctx context.Context, doc *document.InDocument, timelineID string, req BoxSelect, opts SelectOptions) (SelectResult, error) {
	cache := opts.Cache
	if cache == nil {
		cache = curve.NewGestureCache()
	}
	tester, err := curve.NewTester(opts.Curve, cache)
	if err != nil {
		return SelectResult{}, err
	}

	rect := curve.RectFromCorners(req.Start, req.End, opts.Curve.InflateEpsilon)
	if err := rect.Validate(); err != nil {
		return SelectResult{}, err
	}
	if err := tester.CheckSpan(rect.MinTime, rect.MaxTime); err != nil {
		return SelectResult{}, err
	}
	result := SelectResult{Rect: rect, Hits: []string{}}

	var candidates []*TrackCurve
	for _, c := range TrackCurves(doc, timelineID) {
		if !c.IsHidden() {
			candidates = append(candidates, c)
		}
	}

	hits := make([]bool, len(candidates))
	errs := make([]error, len(candidates))

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hits[i], errs[i] = tester.Intersects(c, rect, req.Normalize)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SelectResult{}, fmt.Errorf("select curves: %w", err)
	}

	for i, c := range candidates {
		switch {
		case errs[i] != nil:
			result.Skipped = append(result.Skipped, SkippedCurve{
				TrackID: c.TrackID(),
				Reason:  skipReason(errs[i]),
				Err:     errs[i],
			})
		case hits[i]:
			result.Hits = append(result.Hits, c.TrackID())
		}
	}
	return result, nil
}

// SelectCurves runs FindCurves and applies the result to doc.
func SelectCurves(ctx context.Context, doc *document.InDocument, timelineID string, req BoxSelect, opts SelectOptions) (SelectResult, error) {
	result, err := FindCurves(ctx, doc, timelineID, req, opts)
	if err != nil {
		return SelectResult{}, err
	}
	ApplySelection(doc, req, result.Hits)
	return result, nil
}

// ApplySelection marks each hit track together with all its keyframes and
// handles. Unless the gesture extends or deselects, the previous selection is
// cleared first. A deselect gesture clears the flags of the hits instead.
func ApplySelection(doc *document.InDocument, req BoxSelect, hits []string) {
	if !req.Extend && !req.Deselect {
		doc.ClearSelection()
	}
	for _, id := range hits {
		doc.SetTrackSelected(id, !req.Deselect)
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, curve.ErrEmptyCurve):
		return "empty"
	default:
		return fmt.Sprintf("error: %v", err)
	}
}
