package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/spf13/cast"

	"github.com/inamate/graphselect/internal/curve"
	"github.com/inamate/graphselect/internal/document"
	"github.com/inamate/graphselect/internal/engine"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidParams    = errors.New("invalid operation params")
)

// DocumentState holds the authoritative document for a room.
type DocumentState struct {
	mu         sync.RWMutex
	doc        *document.InDocument
	serverSeq  int64
	dirty      bool
	selectOpts engine.SelectOptions
}

// NewDocumentState wraps doc. Box selects run with opts; a range cache set
// on opts is shared by every box select of the room.
func NewDocumentState(doc *document.InDocument, opts engine.SelectOptions) *DocumentState {
	return &DocumentState{doc: doc, selectOpts: opts}
}

// OpResult is the outcome of an applied operation.
type OpResult struct {
	ServerSeq int64
	// Selection is the selected tracks of the affected timeline, set for
	// selection operations.
	Selection []string
	Skipped   []engine.SkippedCurve
}

// ApplyOperation applies op and bumps the server sequence. A failed
// operation leaves the document untouched.
// ctx bounds long-running operations such as box selects.
func (ds *DocumentState) ApplyOperation(ctx context.Context, op Operation) (OpResult, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	res, err := ds.applyLocked(ctx, op)
	if err != nil {
		return OpResult{}, err
	}
	ds.serverSeq++
	ds.dirty = true
	res.ServerSeq = ds.serverSeq
	return res, nil
}

func (ds *DocumentState) applyLocked(ctx context.Context, op Operation) (OpResult, error) {
	switch op.Type {
	case OpCurvesSelect:
		return ds.applyCurvesSelect(op)
	case OpCurvesBoxSelect:
		return ds.applyBoxSelect(ctx, op)
	case OpTrackHidden:
		return OpResult{}, ds.applyTrackHidden(op)
	case OpProjectRename:
		return OpResult{}, ds.applyProjectRename(op)
	default:
		return OpResult{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func (ds *DocumentState) applyCurvesSelect(op Operation) (OpResult, error) {
	ids, err := cast.ToStringSliceE(op.Params["trackIds"])
	if err != nil {
		return OpResult{}, fmt.Errorf("%w: trackIds: %v", ErrInvalidParams, err)
	}
	selected, err := boolParam(op.Params, "select", true)
	if err != nil {
		return OpResult{}, err
	}
	extend, err := boolParam(op.Params, "extend", false)
	if err != nil {
		return OpResult{}, err
	}
	for _, id := range ids {
		if _, ok := ds.doc.Tracks[id]; !ok {
			return OpResult{}, fmt.Errorf("%w: %s", engine.ErrTrackNotFound, id)
		}
	}

	engine.ApplySelection(ds.doc, engine.BoxSelect{Extend: extend, Deselect: !selected}, ids)
	return OpResult{Selection: ds.doc.SelectedTracks(ds.doc.Project.RootTimeline)}, nil
}

func (ds *DocumentState) applyBoxSelect(ctx context.Context, op Operation) (OpResult, error) {
	p := op.Params
	timelineID := cast.ToString(p["timelineId"])
	if timelineID == "" {
		timelineID = ds.doc.Project.RootTimeline
	}
	if _, ok := ds.doc.Timelines[timelineID]; !ok {
		return OpResult{}, fmt.Errorf("%w: timeline %s not found", ErrInvalidParams, timelineID)
	}

	var coords [4]float64
	for i, key := range []string{"startTime", "startValue", "endTime", "endValue"} {
		v, err := cast.ToFloat64E(p[key])
		if err != nil || p[key] == nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return OpResult{}, fmt.Errorf("%w: %s must be a finite number", ErrInvalidParams, key)
		}
		coords[i] = v
	}
	req := engine.BoxSelect{
		Start: curve.Point{Time: coords[0], Value: coords[1]},
		End:   curve.Point{Time: coords[2], Value: coords[3]},
	}
	var err error
	if req.Normalize, err = boolParam(p, "normalize", false); err != nil {
		return OpResult{}, err
	}
	if req.Extend, err = boolParam(p, "extend", false); err != nil {
		return OpResult{}, err
	}
	if req.Deselect, err = boolParam(p, "deselect", false); err != nil {
		return OpResult{}, err
	}

	result, err := engine.SelectCurves(ctx, ds.doc, timelineID, req, ds.selectOpts)
	if err != nil {
		if errors.Is(err, curve.ErrRectTooLarge) || errors.Is(err, curve.ErrInvalidRect) {
			return OpResult{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return OpResult{}, err
	}
	for _, s := range result.Skipped {
		slog.Debug("curve skipped during box select", "track", s.TrackID, "reason", s.Reason)
	}
	return OpResult{
		Selection: ds.doc.SelectedTracks(timelineID),
		Skipped:   result.Skipped,
	}, nil
}

func (ds *DocumentState) applyTrackHidden(op Operation) error {
	id := cast.ToString(op.Params["trackId"])
	tr, ok := ds.doc.Tracks[id]
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrTrackNotFound, id)
	}
	hidden, err := boolParam(op.Params, "hidden", true)
	if err != nil {
		return err
	}
	tr.Hidden = hidden
	ds.doc.Tracks[id] = tr
	return nil
}

func (ds *DocumentState) applyProjectRename(op Operation) error {
	name := cast.ToString(op.Params["name"])
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidParams)
	}
	ds.doc.Project.Name = name
	return nil
}

func boolParam(params map[string]any, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidParams, key, err)
	}
	return b, nil
}

// Snapshot returns the document as JSON with the current server sequence.
func (ds *DocumentState) Snapshot() (json.RawMessage, int64, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	data, err := json.Marshal(ds.doc)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal document: %w", err)
	}
	return data, ds.serverSeq, nil
}

// TakeDirty returns a copy of the document if it changed since the last
// call, clearing the dirty flag.
func (ds *DocumentState) TakeDirty() (*document.InDocument, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.dirty {
		return nil, false
	}
	ds.dirty = false
	return ds.doc.Clone(), true
}

// MarkDirty flags the document for the next save, used when a save fails.
func (ds *DocumentState) MarkDirty() {
	ds.mu.Lock()
	ds.dirty = true
	ds.mu.Unlock()
}
