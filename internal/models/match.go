// internal/models/match.go
package models

import "time"

// Match phases covered by the bootstrap coordinator.
const (
	PhaseWaitingForPlayers = "waiting_for_players"
	PhaseInitialPeek       = "initial_peek"
	PhasePlayerTurn        = "player_turn"
)

// TimerConfig carries the phase timers a match was started with, in seconds.
type TimerConfig struct {
	InitialPeekSec  int `json:"initial_peek_sec"`
	RevealExpirySec int `json:"reveal_expiry_sec"`
}

// MatchState is the game_state of a room.
type MatchState struct {
	GameID string `json:"game_id"`
	RoomID string `json:"room_id"`
	Phase  string `json:"phase"`

	Players []*Player `json:"players"`

	// DiscardPile holds full cards, DrawPile masked ones.
	DiscardPile []Card `json:"discard_pile"`
	DrawPile    []Card `json:"draw_pile"`

	// OriginalDeck resolves any card id back to its full data. Written once at deal time.
	OriginalDeck map[string]Card `json:"original_deck,omitempty"`

	IsClearAndCollect bool        `json:"is_clear_and_collect"`
	ShowInstructions  bool        `json:"show_instructions"`
	TimerConfig       TimerConfig `json:"timer_config"`

	CoinCostPerPlayer int `json:"coin_cost_per_player"`
	Pot               int `json:"pot"`
}

// FindPlayer returns the seat with the given id.
func (m *MatchState) FindPlayer(id string) *Player {
	for _, p := range m.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindPlayerBySession returns the human seat bound to the given session.
func (m *MatchState) FindPlayerBySession(sessionID string) *Player {
	if sessionID == "" {
		return nil
	}
	for _, p := range m.Players {
		if p.IsHuman && p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

// ResolveCard looks up full card data in the original deck.
func (m *MatchState) ResolveCard(id string) (Card, bool) {
	c, ok := m.OriginalDeck[id]
	return c, ok
}

// AllPeekComplete reports whether every seat satisfied the initial peek.
func (m *MatchState) AllPeekComplete() bool {
	if len(m.Players) == 0 {
		return false
	}
	for _, p := range m.Players {
		if !p.IsPeekComplete(m.IsClearAndCollect) {
			return false
		}
	}
	return true
}

// InitialSnapshot is the unmasked deck order and dealt hands of a match, persisted so a
// match can be replayed from its start.
type InitialSnapshot struct {
	GameID    string            `json:"game_id"`
	RoomID    string            `json:"room_id"`
	Deck      []Card            `json:"deck"`
	Players   map[string][]Card `json:"players"`
	Pot       int               `json:"pot"`
	CreatedAt time.Time         `json:"created_at"`
}
