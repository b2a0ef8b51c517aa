// internal/game/events.go
package game

import (
	"time"

	"github.com/jason-s-yu/peekmatch/internal/models"
)

// EventType names the messages pushed to room sessions.
type EventType string

const (
	EventGameStateUpdated        EventType = "game_state_updated"
	EventMatchStarted            EventType = "match_started"
	EventInitialPeekResolved     EventType = "initial_peek_resolved"
	EventSyncState               EventType = "sync_state"
	EventCompletedInitialPeekErr EventType = "completed_initial_peek_error"
	EventStartMatchErr           EventType = "start_match_error"
	EventRoomError               EventType = "room_error"
)

// ActionInitialPeek tags the transient action metadata of a reveal.
const ActionInitialPeek = "initial_peek"

// PeekAction is per-recipient animation metadata. It rides on a single targeted update
// and is never written to the game state.
type PeekAction struct {
	Action   string `json:"action"`
	PlayerID string `json:"player_id"`
	Indices  []int  `json:"indices"`
}

// StateEvent carries a rendered game state to its audience.
type StateEvent struct {
	Type      EventType          `json:"type"`
	GameID    string             `json:"game_id"`
	GameState *models.MatchState `json:"game_state"`
	OwnerID   string             `json:"owner_id,omitempty"`
	Timestamp int64              `json:"timestamp"`
	Action    *PeekAction        `json:"action,omitempty"`
}

// ErrorEvent reports a rejected action to the originating session only.
type ErrorEvent struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"room_id"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
}

func newStateEvent(typ EventType, view *models.MatchState, ownerID string, now time.Time) StateEvent {
	return StateEvent{
		Type:      typ,
		GameID:    view.GameID,
		GameState: view,
		OwnerID:   ownerID,
		Timestamp: now.UnixMilli(),
	}
}

func newErrorEvent(typ EventType, roomID string, err error, now time.Time) ErrorEvent {
	return ErrorEvent{
		Type:      typ,
		RoomID:    roomID,
		Message:   err.Error(),
		Timestamp: now.UnixMilli(),
	}
}

// NewErrorEvent builds an error event for a rejected action, stamped now.
func NewErrorEvent(typ EventType, roomID string, err error) ErrorEvent {
	return newErrorEvent(typ, roomID, err, time.Now())
}
