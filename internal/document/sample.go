package document

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/inamate/graphselect/internal/typeid"
)

type sampleKey struct {
	frame  float64
	value  float64
	easing EasingType
}

// NewSampleDocument builds a small graph editor scene: a ball with a linear
// x track, an overshooting y track, a hidden rotation track and a flat
// opacity track.
func NewSampleDocument(projectID string) *InDocument {
	now := time.Now().UTC().Format(time.RFC3339)

	timelineID := typeid.NewTimelineID()
	ballID := typeid.NewObjectID()

	doc := NewEmptyDocument(projectID, "Untitled", timelineID)
	doc.Project.CreatedAt = now
	doc.Project.UpdatedAt = now
	doc.Objects[ballID] = ObjectNode{ID: ballID, Name: "Ball", Type: ObjectTypeShape}

	addSampleTrack(doc, timelineID, ballID, "transform.x", "#e94560", false, []sampleKey{
		{0, 0, EasingLinear},
		{24, 240, EasingLinear},
		{48, 480, EasingLinear},
	})
	addSampleTrack(doc, timelineID, ballID, "transform.y", "#0f3460", false, []sampleKey{
		{0, 0, EasingBackOut},
		{24, 100, EasingEaseInOut},
		{48, 0, EasingLinear},
	})
	addSampleTrack(doc, timelineID, ballID, "transform.r", "#16c79a", true, []sampleKey{
		{0, 0, EasingLinear},
		{48, 360, EasingLinear},
	})
	addSampleTrack(doc, timelineID, ballID, "style.opacity", "#f5a623", false, []sampleKey{
		{0, 1, EasingLinear},
	})

	return doc
}

func addSampleTrack(doc *InDocument, timelineID, objectID, property, color string, hidden bool, keys []sampleKey) {
	trackID := typeid.NewTrackID()
	track := Track{
		ID:       trackID,
		ObjectID: objectID,
		Property: property,
		Hidden:   hidden,
		Color:    color,
	}
	for _, k := range keys {
		kfID := typeid.NewKeyframeID()
		doc.Keyframes[kfID] = Keyframe{
			ID:     kfID,
			Frame:  k.frame,
			Value:  json.RawMessage(strconv.FormatFloat(k.value, 'f', -1, 64)),
			Easing: k.easing,
		}
		track.Keys = append(track.Keys, kfID)
	}
	doc.Tracks[trackID] = track

	tl := doc.Timelines[timelineID]
	tl.Tracks = append(tl.Tracks, trackID)
	doc.Timelines[timelineID] = tl
}
