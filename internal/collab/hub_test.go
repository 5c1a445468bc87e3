package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/graphselect/internal/document"
	"github.com/inamate/graphselect/internal/engine"
)

type memDocs struct {
	mu    sync.Mutex
	docs  map[string]*document.InDocument
	saves int
}

func (m *memDocs) load(_ context.Context, projectID string) (*document.InDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[projectID]
	if !ok {
		return nil, errors.New("no such project")
	}
	return doc.Clone(), nil
}

func (m *memDocs) save(_ context.Context, projectID string, doc *document.InDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[projectID] = doc
	m.saves++
	return nil
}

func (m *memDocs) get(projectID string) (*document.InDocument, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[projectID], m.saves
}

func next(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "client closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

// nextOfType skips messages until one of the given type arrives.
func nextOfType(t *testing.T, c *Client, typ string) *Message {
	t.Helper()
	for {
		if msg := next(t, c); msg.Type == typ {
			return msg
		}
	}
}

func TestHubOperationRoundTrip(t *testing.T) {
	doc := document.NewSampleDocument("proj_1")
	var xTrack string
	for id, tr := range doc.Tracks {
		if tr.Property == "transform.x" {
			xTrack = id
		}
	}
	docs := &memDocs{docs: map[string]*document.InDocument{"proj_1": doc}}

	hub := NewHub(docs.load, docs.save, HubOptions{Select: engine.DefaultSelectOptions(), RangeCacheTTL: time.Minute})
	go hub.Run()

	alice := NewClient(hub, nil, "user_a", "Alice", "proj_1", "c1")
	bob := NewClient(hub, nil, "user_b", "Bob", "proj_1", "c2")
	hub.Register(alice)
	assert.Equal(t, TypeWelcome, next(t, alice).Type)
	docSync := next(t, alice)
	require.Equal(t, TypeDocSync, docSync.Type)

	hub.Register(bob)
	nextOfType(t, bob, TypePresenceState)
	join := nextOfType(t, alice, TypePresenceJoin)
	assert.Equal(t, "user_b", join.UserID)

	submit, err := json.Marshal(OperationSubmitPayload{Operation: Operation{
		ID:   "op_1",
		Type: OpCurvesBoxSelect,
		Params: map[string]any{
			"startTime": 30, "startValue": 295, "endTime": 32, "endValue": 330,
		},
	}})
	require.NoError(t, err)
	hub.handleMessage(alice, &Message{Type: TypeOpSubmit, Payload: submit})

	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(nextOfType(t, alice, TypeOpAck).Payload, &ack))
	assert.Equal(t, "op_1", ack.OperationID)
	assert.Equal(t, int64(1), ack.ServerSeq)
	assert.Equal(t, []string{xTrack}, ack.Selection)

	var bc OperationBroadcastPayload
	require.NoError(t, json.Unmarshal(nextOfType(t, bob, TypeOpBroadcast).Payload, &bc))
	assert.Equal(t, "user_a", bc.UserID)
	assert.Equal(t, []string{xTrack}, bc.Selection)

	room, ok := hub.room("proj_1")
	require.True(t, ok)
	assert.Equal(t, map[string][]string{xTrack: {"user_a"}}, room.presence.TrackOwners())

	bad, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{ID: "op_2", Type: "nope"}})
	hub.handleMessage(bob, &Message{Type: TypeOpSubmit, Payload: bad})
	var nack OperationNackPayload
	require.NoError(t, json.Unmarshal(nextOfType(t, bob, TypeOpNack).Payload, &nack))
	assert.Equal(t, "op_2", nack.OperationID)

	hub.Stop()
	saved, saves := docs.get("proj_1")
	assert.Equal(t, 1, saves)
	assert.True(t, saved.Tracks[xTrack].Selected)
}

func TestHubSavesWhenRoomEmpties(t *testing.T) {
	docs := &memDocs{docs: map[string]*document.InDocument{"proj_1": document.NewSampleDocument("proj_1")}}
	hub := NewHub(docs.load, docs.save, HubOptions{Select: engine.DefaultSelectOptions()})
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub, nil, "user_a", "Alice", "proj_1", "c1")
	hub.Register(c)
	nextOfType(t, c, TypeDocSync)

	rename, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{
		ID: "op_1", Type: OpProjectRename, Params: map[string]any{"name": "Renamed"},
	}})
	hub.handleMessage(c, &Message{Type: TypeOpSubmit, Payload: rename})
	nextOfType(t, c, TypeOpAck)

	hub.Unregister(c)
	require.Eventually(t, func() bool {
		doc, saves := docs.get("proj_1")
		return saves == 1 && doc.Project.Name == "Renamed"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubLoadFailureClosesClient(t *testing.T) {
	docs := &memDocs{docs: map[string]*document.InDocument{}}
	hub := NewHub(docs.load, docs.save, HubOptions{Select: engine.DefaultSelectOptions()})
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub, nil, "user_a", "Alice", "proj_missing", "c1")
	hub.Register(c)
	assert.Equal(t, TypeError, next(t, c).Type)

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("client was not closed")
	}
}
