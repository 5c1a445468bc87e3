package document

import (
	"encoding/json"
	"slices"
)

type InDocument struct {
	Project   Project               `json:"project"`
	Objects   map[string]ObjectNode `json:"objects"`
	Timelines map[string]Timeline   `json:"timelines"`
	Tracks    map[string]Track      `json:"tracks"`
	Keyframes map[string]Keyframe   `json:"keyframes"`
}

type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      int    `json:"version"`
	FPS          int    `json:"fps"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	RootTimeline string `json:"rootTimeline"`
}

type ObjectType string

const (
	ObjectTypeGroup  ObjectType = "Group"
	ObjectTypeShape  ObjectType = "Shape"
	ObjectTypeCamera ObjectType = "Camera"
	ObjectTypeLight  ObjectType = "Light"
)

// ObjectNode is an animated object. Tracks reference it by ID and name one
// of its numeric properties.
type ObjectNode struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type ObjectType `json:"type"`
}

type Timeline struct {
	ID     string   `json:"id"`
	Length int      `json:"length"`
	Tracks []string `json:"tracks"`
}

// Track is one animation curve: a numeric object property keyed over time.
type Track struct {
	ID       string   `json:"id"`
	ObjectID string   `json:"objectId"`
	Property string   `json:"property"`
	Keys     []string `json:"keys"`
	Hidden   bool     `json:"hidden"`
	Selected bool     `json:"selected"`
	Color    string   `json:"color,omitempty"`
}

type EasingType string

const (
	EasingLinear     EasingType = "linear"
	EasingStep       EasingType = "step"
	EasingEaseIn     EasingType = "easeIn"
	EasingEaseOut    EasingType = "easeOut"
	EasingEaseInOut  EasingType = "easeInOut"
	EasingCubicIn    EasingType = "cubicIn"
	EasingCubicOut   EasingType = "cubicOut"
	EasingCubicInOut EasingType = "cubicInOut"
	EasingBackIn     EasingType = "backIn"
	EasingBackOut    EasingType = "backOut"
	EasingBackInOut  EasingType = "backInOut"
	EasingElasticOut EasingType = "elasticOut"
	EasingBounceOut  EasingType = "bounceOut"
)

// Keyframe anchors a track at a frame. Frames may be fractional (subframe
// keys). The selection flags mirror what the graph editor highlights: the
// control point and the two tangent handles.
type Keyframe struct {
	ID                 string          `json:"id"`
	Frame              float64         `json:"frame"`
	Value              json.RawMessage `json:"value"`
	Easing             EasingType      `json:"easing"`
	SelectControlPoint bool            `json:"selectControlPoint"`
	SelectLeftHandle   bool            `json:"selectLeftHandle"`
	SelectRightHandle  bool            `json:"selectRightHandle"`
}

// SetSelected sets the control point and both handles at once.
func (k *Keyframe) SetSelected(selected bool) {
	k.SelectControlPoint = selected
	k.SelectLeftHandle = selected
	k.SelectRightHandle = selected
}

// IsSelected reports whether any part of the keyframe is selected.
func (k *Keyframe) IsSelected() bool {
	return k.SelectControlPoint || k.SelectLeftHandle || k.SelectRightHandle
}

// NewEmptyDocument creates an empty document for a new project
func NewEmptyDocument(projectID, projectName, timelineID string) *InDocument {
	return &InDocument{
		Project: Project{
			ID:           projectID,
			Name:         projectName,
			Version:      1,
			FPS:          24,
			CreatedAt:    "", // Will be set by caller
			UpdatedAt:    "",
			RootTimeline: timelineID,
		},
		Objects: map[string]ObjectNode{},
		Timelines: map[string]Timeline{
			timelineID: {
				ID:     timelineID,
				Length: 48,
				Tracks: []string{},
			},
		},
		Tracks:    map[string]Track{},
		Keyframes: map[string]Keyframe{},
	}
}

// Clone returns a deep copy of the document. Track key slices and keyframe
// values are copied so selection passes can mutate the clone freely.
func (d *InDocument) Clone() *InDocument {
	out := &InDocument{
		Project:   d.Project,
		Objects:   make(map[string]ObjectNode, len(d.Objects)),
		Timelines: make(map[string]Timeline, len(d.Timelines)),
		Tracks:    make(map[string]Track, len(d.Tracks)),
		Keyframes: make(map[string]Keyframe, len(d.Keyframes)),
	}
	for id, o := range d.Objects {
		out.Objects[id] = o
	}
	for id, tl := range d.Timelines {
		tl.Tracks = slices.Clone(tl.Tracks)
		out.Timelines[id] = tl
	}
	for id, tr := range d.Tracks {
		tr.Keys = slices.Clone(tr.Keys)
		out.Tracks[id] = tr
	}
	for id, kf := range d.Keyframes {
		kf.Value = slices.Clone(kf.Value)
		out.Keyframes[id] = kf
	}
	return out
}

// ClearSelection deselects every track and keyframe.
func (d *InDocument) ClearSelection() {
	for id, tr := range d.Tracks {
		tr.Selected = false
		d.Tracks[id] = tr
	}
	for id, kf := range d.Keyframes {
		kf.SetSelected(false)
		d.Keyframes[id] = kf
	}
}

// SetTrackSelected marks a track and all of its keyframes, including both
// handles, as selected or deselected. Unknown tracks are ignored.
func (d *InDocument) SetTrackSelected(trackID string, selected bool) bool {
	tr, ok := d.Tracks[trackID]
	if !ok {
		return false
	}
	tr.Selected = selected
	d.Tracks[trackID] = tr
	for _, kfID := range tr.Keys {
		kf, ok := d.Keyframes[kfID]
		if !ok {
			continue
		}
		kf.SetSelected(selected)
		d.Keyframes[kfID] = kf
	}
	return true
}

// SelectedTracks returns the IDs of selected tracks in timeline order.
func (d *InDocument) SelectedTracks(timelineID string) []string {
	tl, ok := d.Timelines[timelineID]
	if !ok {
		return nil
	}
	var ids []string
	for _, id := range tl.Tracks {
		if tr, ok := d.Tracks[id]; ok && tr.Selected {
			ids = append(ids, id)
		}
	}
	return ids
}
