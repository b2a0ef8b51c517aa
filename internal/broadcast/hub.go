// Package broadcast delivers room events to websocket sessions.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Gateway is the fire-and-forget delivery surface used by the game coordinator.
type Gateway interface {
	// BroadcastToRoom sends msg to every session in the room except the excluded session ids.
	BroadcastToRoom(roomID string, msg interface{}, exclude ...string)
	// SendToSession sends msg to a single session.
	SendToSession(sessionID string, msg interface{})
}

// Writer is the part of *websocket.Conn a session writes through.
type Writer interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

// Session is one connected client in a room. Messages are queued and written in order
// by a single writer goroutine, so a client observes events in send order.
type Session struct {
	ID     string
	RoomID string
	UserID string

	conn Writer
	out  chan []byte
}

// NewSession returns a session with an outbound buffer of size buf.
func NewSession(id, roomID, userID string, conn Writer, buf int) *Session {
	if buf <= 0 {
		buf = 64
	}
	return &Session{ID: id, RoomID: roomID, UserID: userID, conn: conn, out: make(chan []byte, buf)}
}

// enqueue pushes data without blocking. Reports false when the buffer is full.
func (s *Session) enqueue(data []byte) bool {
	select {
	case s.out <- data:
		return true
	default:
		return false
	}
}

// Hub tracks sessions by id and by room.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	rooms        map[string]map[string]*Session
	logger       logrus.FieldLogger
	writeTimeout time.Duration
}

// NewHub returns an empty hub.
func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		sessions:     make(map[string]*Session),
		rooms:        make(map[string]map[string]*Session),
		logger:       logger,
		writeTimeout: 5 * time.Second,
	}
}

// Register adds the session to the hub.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
	if h.rooms[s.RoomID] == nil {
		h.rooms[s.RoomID] = make(map[string]*Session)
	}
	h.rooms[s.RoomID][s.ID] = s
}

// Unregister removes the session. Pending messages are dropped.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)
	if room := h.rooms[s.RoomID]; room != nil {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(h.rooms, s.RoomID)
		}
	}
}

// RoomSize returns the number of sessions connected to the room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastToRoom implements Gateway.
func (h *Hub) BroadcastToRoom(roomID string, msg interface{}, exclude ...string) {
	data, ok := h.marshal(msg)
	if !ok {
		return
	}
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.rooms[roomID]))
	for id, s := range h.rooms[roomID] {
		if !skip[id] {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.deliver(s, data)
	}
}

// SendToSession implements Gateway.
func (h *Hub) SendToSession(sessionID string, msg interface{}) {
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	data, ok := h.marshal(msg)
	if !ok {
		return
	}
	h.deliver(s, data)
}

func (h *Hub) deliver(s *Session, data []byte) {
	if !s.enqueue(data) {
		h.logger.WithFields(logrus.Fields{"session_id": s.ID, "room_id": s.RoomID}).
			Warn("Session outbound buffer full, dropping message")
	}
}

func (h *Hub) marshal(msg interface{}) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal outbound message")
		return nil, false
	}
	return data, true
}

// WriteLoop writes queued messages to the session's connection until ctx is done or a
// write fails. It must run in exactly one goroutine per session.
func (h *Hub) WriteLoop(ctx context.Context, s *Session) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-s.out:
			writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := s.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.WithFields(logrus.Fields{"session_id": s.ID, "room_id": s.RoomID}).
					WithError(err).Warn("Failed to write to session")
				return err
			}
		}
	}
}
