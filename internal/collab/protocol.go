package collab

import "encoding/json"

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// PresencePayload is what a client shares about itself: where its pointer
// is in the graph editor and which tracks it has selected locally.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a point in graph space.
type CursorPos struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type PresenceStatePayload struct {
	Presences   map[string]*PresencePayload `json:"presences"`
	TrackOwners map[string][]string         `json:"trackOwners,omitempty"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type DocSyncPayload struct {
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	TypeWelcome = "welcome"
	TypeDocSync = "doc.sync"

	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types.
const (
	OpCurvesSelect    = "curves.select"
	OpCurvesBoxSelect = "curves.boxSelect"
	OpTrackHidden     = "track.hidden"
	OpProjectRename   = "project.rename"
)

// Operation is a document mutation submitted by a client. Params carries
// the type-specific arguments as loose JSON so clients may send numbers
// and booleans as strings.
//
//	curves.select     trackIds, select (default true), extend
//	curves.boxSelect  timelineId, startTime, startValue, endTime, endValue,
//	                  normalize, extend, deselect
//	track.hidden      trackId, hidden
//	project.rename    name
type Operation struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	ClientSeq int64          `json:"clientSeq"`
	Params    map[string]any `json:"params,omitempty"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string   `json:"operationId"`
	ServerSeq       int64    `json:"serverSeq"`
	ServerTimestamp int64    `json:"serverTimestamp"`
	Selection       []string `json:"selection,omitempty"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload relays an applied operation. Selection is the
// track selection of the timeline after the operation, so peers do not need
// to rerun a box select to stay in sync.
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
	Selection []string  `json:"selection,omitempty"`
}
