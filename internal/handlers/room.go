// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/game"
	"github.com/jason-s-yu/peekmatch/internal/models"
)

// roomView is the public listing of a room.
type roomView struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Settings  models.RoomSettings `json:"settings"`
	Players   []roomMember        `json:"players"`
	Started   bool                `json:"started"`
	GameID    string              `json:"game_id,omitempty"`
}

type roomMember struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

func viewOf(room *game.Room) roomView {
	seats, settings := room.Snapshot()
	members := make([]roomMember, 0, len(seats))
	for _, p := range seats {
		members = append(members, roomMember{ID: p.ID, Name: p.Name, Connected: p.SessionID != ""})
	}
	return roomView{
		ID:        room.ID,
		CreatedAt: room.CreatedAt,
		Settings:  settings,
		Players:   members,
		Started:   room.Started(),
		GameID:    room.GameID(),
	}
}

// CreateRoomHandler creates an in-memory room. The optional body is a settings update map.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad room request payload", http.StatusBadRequest)
		return
	}

	room := game.NewRoom("", s.DefaultSettings)
	if len(updates) > 0 {
		if _, err := room.UpdateSettings(updates); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	s.Rooms.AddRoom(room)
	s.Logger.WithField("room_id", room.ID).Info("Room created")

	writeJSON(w, http.StatusOK, viewOf(room))
}

// ListRoomsHandler returns every open room, oldest first.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	rooms := s.Rooms.ListRooms()
	out := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, viewOf(room))
	}
	writeJSON(w, http.StatusOK, out)
}
