// internal/models/card.go
package models

// HiddenValue replaces rank and suit on a face-down card.
const HiddenValue = "?"

// Card ranks used by the deck builder. Number ranks are their digit strings ("2".."10").
const (
	RankAce   = "ace"
	RankJack  = "jack"
	RankQueen = "queen"
	RankKing  = "king"
	RankJoker = "joker"
)

// Card is the authoritative card value. It is never mutated once the deck is built;
// visibility is handled by rendering either the full card or its Masked() view.
type Card struct {
	ID           string `json:"card_id"`
	Rank         string `json:"rank"`
	Suit         string `json:"suit"`
	Points       int    `json:"points"`
	SpecialPower string `json:"special_power,omitempty"`
}

// Masked returns the face-down rendering of the card: id only, rank/suit hidden and points zeroed.
func (c Card) Masked() Card {
	return Card{
		ID:     c.ID,
		Rank:   HiddenValue,
		Suit:   HiddenValue,
		Points: 0,
	}
}

// IsMasked reports whether the card is a face-down rendering.
func (c Card) IsMasked() bool {
	return c.Rank == HiddenValue
}

// IsJoker reports whether the card is a joker.
func (c Card) IsJoker() bool {
	return c.Rank == RankJoker
}

// MaskCards returns masked copies of the given cards.
func MaskCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = c.Masked()
	}
	return out
}

// CardIDs returns the ids of the given cards, preserving order.
func CardIDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

// CardSpec identifies a card by rank and suit without an id, e.g. in predefined hand configs.
type CardSpec struct {
	Rank string `json:"rank" yaml:"rank"`
	Suit string `json:"suit" yaml:"suit"`
}

// Matches reports whether the card has the spec's rank and suit.
func (s CardSpec) Matches(c Card) bool {
	return c.Rank == s.Rank && c.Suit == s.Suit
}
