// internal/game/view.go
package game

import (
	"github.com/jason-s-yu/peekmatch/internal/models"
)

// renderFor returns the state as seen by viewerID. The original deck is never rendered;
// hands and the draw pile stay face-down; another player's knowledge and revealed cards
// are hidden. An empty viewerID renders the observer view used for room broadcasts.
func renderFor(st *models.MatchState, viewerID string) *models.MatchState {
	view := *st
	view.OriginalDeck = nil
	view.DrawPile = models.MaskCards(st.DrawPile)
	view.DiscardPile = append([]models.Card(nil), st.DiscardPile...)

	view.Players = make([]*models.Player, len(st.Players))
	for i, p := range st.Players {
		pv := *p
		pv.Hand = models.MaskCards(p.Hand)
		pv.CollectionRankCards = append([]models.Card{}, p.CollectionRankCards...)
		if p.Comp != nil {
			comp := *p.Comp
			pv.Comp = &comp
		}
		if p.ID == viewerID {
			pv.KnownCards = copyKnown(p.KnownCards)
			pv.CardsToPeek = append([]models.Card{}, p.CardsToPeek...)
		} else {
			pv.KnownCards = map[string]map[string]models.Card{}
			pv.CardsToPeek = models.MaskCards(p.CardsToPeek)
			pv.SessionID = ""
		}
		view.Players[i] = &pv
	}
	return &view
}

func copyKnown(in map[string]map[string]models.Card) map[string]map[string]models.Card {
	out := make(map[string]map[string]models.Card, len(in))
	for owner, cards := range in {
		m := make(map[string]models.Card, len(cards))
		for id, c := range cards {
			m[id] = c
		}
		out[owner] = m
	}
	return out
}
