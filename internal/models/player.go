package models

// Player statuses used during match bootstrap.
const (
	StatusWaiting     = "waiting"
	StatusInitialPeek = "initial_peek"
)

// AI difficulties. Humans carry an empty difficulty.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyExpert = "expert"
)

// CompProfile holds the extra data of an externally sourced comp player seat.
type CompProfile struct {
	UserID         string `json:"user_id"`
	Rank           string `json:"rank"`
	Level          int    `json:"level"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Player is one seat in a match roster.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHuman    bool   `json:"is_human"`
	Difficulty string `json:"difficulty,omitempty"`
	Status     string `json:"status"`
	Points     int    `json:"points"`
	IsActive   bool   `json:"is_active"`

	// SessionID is the live connection of a human seat; empty for computer seats.
	SessionID string `json:"session_id,omitempty"`

	Hand []Card `json:"hand"`

	// KnownCards maps owner id -> card id -> full card data this player has seen.
	KnownCards map[string]map[string]Card `json:"known_cards"`

	CollectionRank      string `json:"collection_rank,omitempty"`
	CollectionRankCards []Card `json:"collection_rank_cards"`

	// CardsToPeek is the transient reveal field: masked for observers, full for the owner.
	CardsToPeek []Card `json:"cards_to_peek"`

	Comp *CompProfile `json:"comp,omitempty"`
}

// NewSeat returns a player initialized for roster assembly.
func NewSeat(id, name string, isHuman bool, difficulty string) *Player {
	return &Player{
		ID:                  id,
		Name:                name,
		IsHuman:             isHuman,
		Difficulty:          difficulty,
		Status:              StatusWaiting,
		IsActive:            true,
		Hand:                []Card{},
		KnownCards:          make(map[string]map[string]Card),
		CollectionRankCards: []Card{},
		CardsToPeek:         []Card{},
	}
}

// IsComputer reports whether the seat is AI driven (local CPU or sourced comp player).
func (p *Player) IsComputer() bool {
	return !p.IsHuman
}

// Remember stores full card data in the player's knowledge of owner's cards.
func (p *Player) Remember(ownerID string, c Card) {
	if p.KnownCards == nil {
		p.KnownCards = make(map[string]map[string]Card)
	}
	if p.KnownCards[ownerID] == nil {
		p.KnownCards[ownerID] = make(map[string]Card)
	}
	p.KnownCards[ownerID][c.ID] = c
}

// HandIndex returns the index of the card id in the player's hand, or -1.
func (p *Player) HandIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// IsPeekComplete reports whether the player satisfied the initial peek.
// Collect mode requires a collection rank with at least one card; clear mode
// requires both peeked cards to be recorded in the player's own known cards.
func (p *Player) IsPeekComplete(collectMode bool) bool {
	if collectMode {
		return p.CollectionRank != "" && len(p.CollectionRankCards) > 0
	}
	return len(p.KnownCards[p.ID]) >= 2
}
