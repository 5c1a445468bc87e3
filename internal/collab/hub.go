package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/graphselect/internal/document"
	"github.com/inamate/graphselect/internal/engine"
)

// opTimeout bounds a single operation, which holds the room's document lock.
const opTimeout = 5 * time.Second

// DocLoader fetches the stored document of a project.
type DocLoader func(ctx context.Context, projectID string) (*document.InDocument, error)

// DocSaver persists a document of a project.
type DocSaver func(ctx context.Context, projectID string, doc *document.InDocument) error

type Room struct {
	projectID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	state     *DocumentState
}

func NewRoom(projectID string, state *DocumentState) *Room {
	return &Room{
		projectID: projectID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		state:     state,
	}
}

// HubOptions configures how rooms run box selects. RangeCacheTTL > 0 gives
// every room its own range cache that lives as long as the room.
type HubOptions struct {
	Select        engine.SelectOptions
	RangeCacheTTL time.Duration
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // projectID -> room
	register   chan *Client
	unregister chan *Client
	load       DocLoader
	save       DocSaver
	opts       HubOptions

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewHub(load DocLoader, save DocSaver, opts HubOptions) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		load:       load,
		save:       save,
		opts:       opts,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			h.saveAll()
			return
		}
	}
}

// Stop saves every dirty document and stops Run. It blocks until Run has
// returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.ProjectID]
	h.mu.RUnlock()

	if !ok {
		doc, err := h.load(context.Background(), client.ProjectID)
		if err != nil {
			slog.Error("load document", "project", client.ProjectID, "error", err)
			client.Send(errorMessage("could not load document"))
			client.Close()
			return
		}
		room = NewRoom(client.ProjectID, NewDocumentState(doc, h.roomSelectOptions()))
	}

	h.mu.Lock()
	h.rooms[client.ProjectID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, UserID: client.UserID})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})

	if data, seq, err := room.state.Snapshot(); err != nil {
		slog.Error("snapshot document", "project", client.ProjectID, "error", err)
	} else {
		syncPayload, _ := json.Marshal(DocSyncPayload{Document: data, ServerSeq: seq})
		client.Send(&Message{Type: TypeDocSync, Seq: seq, Payload: syncPayload})
	}

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.ProjectID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) roomSelectOptions() engine.SelectOptions {
	opts := h.opts.Select
	if h.opts.RangeCacheTTL > 0 {
		opts.Cache = engine.NewRangeCache(h.opts.RangeCacheTTL)
	}
	return opts
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.Close()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	} else {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		h.broadcastToRoom(client.ProjectID, &Message{
			Type:    TypePresenceLeave,
			UserID:  client.UserID,
			Payload: leavePayload,
		}, "")
	}

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) saveRoom(room *Room) {
	doc, dirty := room.state.TakeDirty()
	if !dirty {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.save(ctx, room.projectID, doc); err != nil {
		slog.Error("save document", "project", room.projectID, "error", err)
		room.state.MarkDirty()
		return
	}
	slog.Info("document saved", "project", room.projectID)
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) room(projectID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[projectID]
	return room, ok
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.ProjectID)
	if !ok {
		return
	}
	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.ProjectID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		sender.Send(errorMessage("invalid op.submit payload"))
		return
	}
	op := submit.Operation

	room, ok := h.room(sender.ProjectID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	res, err := room.state.ApplyOperation(ctx, op)
	if err != nil {
		slog.Warn("operation rejected", "op", op.Type, "user", sender.UserID, "error", err)
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	if op.Type == OpCurvesSelect || op.Type == OpCurvesBoxSelect {
		room.presence.SetSelection(sender.UserID, sender.DisplayName, res.Selection)
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       res.ServerSeq,
		ServerTimestamp: time.Now().UnixMilli(),
		Selection:       res.Selection,
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: res.ServerSeq, Payload: ack})

	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: res.ServerSeq,
		Selection: res.Selection,
	})
	h.broadcastToRoom(sender.ProjectID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Seq:     res.ServerSeq,
		Payload: broadcast,
	}, sender.ClientID)
}

// broadcastToRoom sends msg to every client of the room except
// excludeClientID.
func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[projectID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: payload}
}
