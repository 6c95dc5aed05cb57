// Package realtime pushes preference and session events to connected
// clients over websockets. Rooms are keyed by user id; a user's browser
// tabs and paired devices all land in the same room.
package realtime

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"sync"
)

const (
	EventPreferencesUpdated  = "preferences_updated"
	EventSessionCountUpdated = "session_count_updated"
)

// Outgoing messages are dropped rather than blocking the hub when a
// client's buffer is full.
const sendBuffer = 16

const shardCount = 16

// Event is the wire envelope pushed to clients
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one live websocket connection inside a room
type Client struct {
	UserID    string
	SessionID string
	send      chan []byte
}

// Send exposes the client's outgoing message stream. The channel closes
// when the client leaves the hub.
func (c *Client) Send() <-chan []byte {
	return c.send
}

type shard struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// Hub is the in-process connection registry
type Hub struct {
	shards [shardCount]*shard
}

// NewHub creates an empty hub
func NewHub() *Hub {
	h := &Hub{}
	for i := range h.shards {
		h.shards[i] = &shard{rooms: make(map[string]map[*Client]struct{})}
	}
	return h
}

func (h *Hub) shardFor(userID string) *shard {
	f := fnv.New32a()
	f.Write([]byte(userID))
	return h.shards[f.Sum32()%shardCount]
}

// Join registers a connection in the user's room and announces the new
// session count to everyone in it.
func (h *Hub) Join(userID, sessionID string) *Client {
	client := &Client{
		UserID:    userID,
		SessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
	}

	s := h.shardFor(userID)
	s.mu.Lock()
	room, ok := s.rooms[userID]
	if !ok {
		room = make(map[*Client]struct{})
		s.rooms[userID] = room
	}
	room[client] = struct{}{}
	s.mu.Unlock()

	h.broadcastSessionCount(userID)
	return client
}

// Leave removes a connection; the last leave prunes the room entry
func (h *Hub) Leave(client *Client) {
	s := h.shardFor(client.UserID)
	s.mu.Lock()
	room, ok := s.rooms[client.UserID]
	if ok {
		if _, present := room[client]; present {
			delete(room, client)
			close(client.send)
		}
		if len(room) == 0 {
			delete(s.rooms, client.UserID)
		}
	}
	s.mu.Unlock()

	h.broadcastSessionCount(client.UserID)
}

// RoomSize returns the number of live connections for a user
func (h *Hub) RoomSize(userID string) int {
	s := h.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[userID])
}

// BroadcastPreferences pushes a preference change to every connection in
// the user's room except the one that made it.
func (h *Hub) BroadcastPreferences(userID string, preferences map[string]any, version int, originSessionID string) {
	h.emit(userID, Event{
		Event: EventPreferencesUpdated,
		Data: map[string]any{
			"preferences":       preferences,
			"version":           version,
			"origin_session_id": originSessionID,
		},
	}, originSessionID)
}

func (h *Hub) broadcastSessionCount(userID string) {
	h.emit(userID, Event{
		Event: EventSessionCountUpdated,
		Data:  map[string]any{"count": h.RoomSize(userID)},
	}, "")
}

// emit fans an event out to the room, skipping connections whose session
// id matches skipSession.
func (h *Hub) emit(userID string, ev Event, skipSession string) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal realtime event", "error", err, "event", ev.Event)
		return
	}

	s := h.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.rooms[userID] {
		if skipSession != "" && client.SessionID == skipSession {
			continue
		}
		select {
		case client.send <- payload:
		default:
			slog.Debug("dropping realtime event for slow client", "user_id", userID, "event", ev.Event)
		}
	}
}
