// internal/game/room.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/jason-s-yu/peekmatch/internal/timers"
)

// Room is the per-room context the coordinator operates on. Every event touching the
// room (inbound actions and timer callbacks) runs with Mu held, so a room's state is
// only ever mutated by one logical actor at a time.
type Room struct {
	ID        string
	CreatedAt time.Time

	Mu       sync.Mutex
	Settings models.RoomSettings
	Timers   *timers.Registry
	// Rand drives AI peek choices; only used with Mu held.
	Rand *rand.Rand

	joined      []*models.Player
	gameID      string
	started     bool
	closed      bool
	actionIndex int
}

// NewRoom returns a room with the given settings and a fresh timer registry.
func NewRoom(id string, settings models.RoomSettings) *Room {
	if id == "" {
		id = uuid.NewString()
	}
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		Settings:  settings,
		Timers:    timers.NewRegistry(),
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Join adds a human seat bound to sessionID, or rebinds the session of an existing seat
// with the same user id. It reports whether the seat was newly added.
func (r *Room) Join(userID, name, sessionID string) (bool, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.closed {
		return false, ErrRoomNotFound
	}
	for _, p := range r.joined {
		if p.ID == userID {
			p.SessionID = sessionID
			return false, nil
		}
	}
	if r.started {
		return false, ErrMatchAlreadyStarted
	}
	p := models.NewSeat(userID, name, true, "")
	p.SessionID = sessionID
	r.joined = append(r.joined, p)
	return true, nil
}

// Leave removes the user's seat before the match starts. After the start the seat stays
// and only its session binding is cleared. A seat already rebound to another session is left alone.
func (r *Room) Leave(userID, sessionID string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	for i, p := range r.joined {
		if p.ID != userID {
			continue
		}
		if p.SessionID != sessionID {
			return
		}
		if r.started {
			p.SessionID = ""
			return
		}
		r.joined = append(r.joined[:i], r.joined[i+1:]...)
		return
	}
}

// JoinedCount returns the number of joined humans.
func (r *Room) JoinedCount() int {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return len(r.joined)
}

// Snapshot returns the joined seats and settings for listing.
func (r *Room) Snapshot() ([]*models.Player, models.RoomSettings) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.joinedSeats(), r.Settings
}

// GameID returns the id of the running match, if any.
func (r *Room) GameID() string {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.gameID
}

// Started reports whether a match was started in the room.
func (r *Room) Started() bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.started
}

// UpdateSettings validates and applies a settings change. Settings are frozen once a match started.
func (r *Room) UpdateSettings(updates map[string]interface{}) (models.RoomSettings, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.started {
		return r.Settings, ErrMatchAlreadyStarted
	}
	next, err := models.ParseSettings(updates, r.Settings)
	if err != nil {
		return r.Settings, err
	}
	r.Settings = next
	return next, nil
}

// close tears the room down. Caller holds Mu.
func (r *Room) close() {
	r.closed = true
	r.Timers.Close()
}

// joinedSeats returns copies of the joined seats so assembly cannot touch the room's records.
func (r *Room) joinedSeats() []*models.Player {
	out := make([]*models.Player, len(r.joined))
	for i, p := range r.joined {
		cp := *p
		out[i] = &cp
	}
	return out
}

// nextActionIndex increments the per-match action counter. Caller holds Mu.
func (r *Room) nextActionIndex() int {
	r.actionIndex++
	return r.actionIndex
}
