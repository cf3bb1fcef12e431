package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// SchemeLoader fetches the scheme for a room being opened.
type SchemeLoader func(schemeID string) (*scheme.Scheme, error)

// SchemeSaver persists the serialized scheme of a dirty room.
type SchemeSaver func(schemeID string, data []byte) error

// saveInterval is how often dirty rooms are flushed to storage.
const saveInterval = 30 * time.Second

// Room is one live-edited scheme with its connected clients.
type Room struct {
	schemeID string
	clients  map[string]*Client
	presence *PresenceManager
	state    *SchemeState
}

func NewRoom(schemeID string, state *SchemeState) *Room {
	return &Room{
		schemeID: schemeID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    state,
	}
}

// Hub routes clients into per-scheme rooms and fans messages out. Dirty
// schemes are flushed periodically and on Stop.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopped    chan struct{}

	loadScheme SchemeLoader
	saveScheme SchemeSaver
}

func NewHub(loader SchemeLoader, saver SchemeSaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		loadScheme: loader,
		saveScheme: saver,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.saveDirtyRooms()
		case <-h.stop:
			h.saveDirtyRooms()
			close(h.stopped)
			return
		}
	}
}

// Stop flushes every dirty room and shuts the hub loop down.
func (h *Hub) Stop() {
	close(h.stop)
	<-h.stopped
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SchemeID]
	if !ok {
		sch, err := h.loadScheme(client.SchemeID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("load scheme for room", "scheme", client.SchemeID, "err", err)
			client.SendError("scheme not available")
			close(client.send)
			return
		}
		room = NewRoom(client.SchemeID, NewSchemeState(sch))
		h.rooms[client.SchemeID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		SchemeID:  client.SchemeID,
		ServerSeq: room.state.ServerSeq(),
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})

	if data, err := room.state.MarshalScheme(); err == nil {
		sync, _ := json.Marshal(DocSyncPayload{Scheme: data, ServerSeq: room.state.ServerSeq()})
		client.Send(&Message{Type: TypeDocSync, Payload: sync})
	} else {
		slog.Error("marshal scheme for sync", "scheme", client.SchemeID, "err", err)
	}

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.SchemeID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "scheme", client.SchemeID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SchemeID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.SchemeID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	} else {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		h.broadcastToRoom(client.SchemeID, &Message{
			Type:    TypePresenceLeave,
			UserID:  client.UserID,
			Payload: leavePayload,
		}, "")
	}

	slog.Info("client left", "user", client.UserID, "scheme", client.SchemeID)
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

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "err", err)
		return
	}
	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.SchemeID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.SchemeID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid operation payload", "err", err, "user", sender.UserID)
		return
	}
	op := submit.Operation

	h.mu.RLock()
	room, ok := h.rooms[sender.SchemeID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	serverSeq, err := room.state.ApplyOperation(op)
	if err != nil {
		nack, _ := json.Marshal(OperationNackPayload{
			OperationID: op.ID,
			Reason:      err.Error(),
		})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       serverSeq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Payload: ack})

	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: serverSeq,
	})
	h.broadcastToRoom(sender.SchemeID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Payload: broadcast,
	}, sender.ClientID)
}

func (h *Hub) saveDirtyRooms() {
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

func (h *Hub) saveRoom(room *Room) {
	if !room.state.Dirty() {
		return
	}
	data, err := room.state.MarshalScheme()
	if err != nil {
		slog.Error("marshal scheme for save", "scheme", room.schemeID, "err", err)
		return
	}
	if err := h.saveScheme(room.schemeID, data); err != nil {
		slog.Error("save scheme", "scheme", room.schemeID, "err", err)
		return
	}
	room.state.MarkSaved()
}

func (h *Hub) broadcastToRoom(schemeID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[schemeID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
