package collab

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceTrackOwners(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("user_b", &PresencePayload{Cursor: &CursorPos{Time: 3, Value: 1}, Selection: []string{"trk_1"}})
	pm.SetSelection("user_a", "Alice", []string{"trk_1", "trk_2"})
	pm.SetSelection("user_b", "Bob", []string{"trk_1", "trk_1"})

	want := map[string][]string{
		"trk_1": {"user_a", "user_b"},
		"trk_2": {"user_a"},
	}
	if diff := cmp.Diff(want, pm.TrackOwners()); diff != "" {
		t.Errorf("TrackOwners() mismatch (-want +got):\n%s", diff)
	}

	// SetSelection keeps the cursor the client reported.
	bob := pm.GetAll()["user_b"]
	require.NotNil(t, bob.Cursor)
	assert.Equal(t, 3.0, bob.Cursor.Time)

	pm.Remove("user_a")
	assert.Equal(t, map[string][]string{"trk_1": {"user_b"}}, pm.TrackOwners())
}

func TestPresenceSetSelectionCopies(t *testing.T) {
	pm := NewPresenceManager()
	sel := []string{"trk_1"}
	pm.SetSelection("user_a", "Alice", sel)
	sel[0] = "trk_9"

	assert.Equal(t, []string{"trk_1"}, pm.GetAll()["user_a"].Selection)
	assert.Equal(t, "Alice", pm.GetAll()["user_a"].DisplayName)
}

func TestPresenceStateMessage(t *testing.T) {
	pm := NewPresenceManager()
	pm.SetSelection("user_a", "Alice", []string{"trk_1"})

	msg := pm.StateMessage()
	require.NotNil(t, msg)
	assert.Equal(t, TypePresenceState, msg.Type)

	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(t, []string{"user_a"}, state.TrackOwners["trk_1"])
	assert.Contains(t, state.Presences, "user_a")
}
