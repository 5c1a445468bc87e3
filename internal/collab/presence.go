package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// PresenceManager tracks what each user in a room is pointing at and which
// tracks they hold selected.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

// Update replaces the user's presence with a client-reported one.
func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[userID] = p
}

// SetSelection records the tracks a user's last accepted selection op left
// selected, keeping the rest of their presence.
func (pm *PresenceManager) SetSelection(userID, displayName string, selection []string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	next := &PresencePayload{DisplayName: displayName}
	if cur, ok := pm.presences[userID]; ok {
		cp := *cur
		next = &cp
	}
	next.Selection = slices.Clone(selection)
	pm.presences[userID] = next
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

// TrackOwners maps each selected track ID to the sorted IDs of the users
// holding it.
func (pm *PresenceManager) TrackOwners() map[string][]string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	owners := make(map[string][]string)
	for userID, p := range pm.presences {
		for _, trackID := range p.Selection {
			if !slices.Contains(owners[trackID], userID) {
				owners[trackID] = append(owners[trackID], userID)
			}
		}
	}
	for _, users := range owners {
		slices.Sort(users)
	}
	return owners
}

func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{
		Presences:   pm.GetAll(),
		TrackOwners: pm.TrackOwners(),
	})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
