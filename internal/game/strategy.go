// internal/game/strategy.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/peekmatch/internal/deck"
	"github.com/jason-s-yu/peekmatch/internal/models"
)

// rankPriority orders ranks for the collection tie-break; lower wins.
func rankPriority(rank string) int {
	switch {
	case rank == models.RankAce:
		return 1
	case deck.IsNumberRank(rank):
		return 2
	case rank == models.RankKing:
		return 3
	case rank == models.RankQueen:
		return 4
	case rank == models.RankJack:
		return 5
	default:
		return 6
	}
}

// SelectForCollection picks which of two revealed cards becomes the collection card.
// Jokers are never collected unless both cards are jokers; otherwise the lower point value
// wins, then the lower rank priority. True ties are broken with rng.
func SelectForCollection(a, b models.Card, rng *rand.Rand) models.Card {
	switch {
	case a.IsJoker() && !b.IsJoker():
		return b
	case b.IsJoker() && !a.IsJoker():
		return a
	case a.IsJoker() && b.IsJoker():
		return pick(a, b, rng)
	}
	if a.Points != b.Points {
		if a.Points < b.Points {
			return a
		}
		return b
	}
	pa, pb := rankPriority(a.Rank), rankPriority(b.Rank)
	if pa != pb {
		if pa < pb {
			return a
		}
		return b
	}
	return pick(a, b, rng)
}

func pick(a, b models.Card, rng *rand.Rand) models.Card {
	if rng.Intn(2) == 0 {
		return a
	}
	return b
}

// PeekOutcome describes one completed initial peek.
type PeekOutcome struct {
	Indices  [2]int
	Cards    [2]models.Card
	Selected *models.Card // collection card, nil in clear mode
}

// applyPeek records two revealed full cards on the player. In collect mode the selected
// card becomes the collection card and the other one is remembered; in clear mode both are
// remembered and no collection is set.
func applyPeek(p *models.Player, cards [2]models.Card, collectMode bool, rng *rand.Rand) *models.Card {
	if !collectMode {
		p.Remember(p.ID, cards[0])
		p.Remember(p.ID, cards[1])
		return nil
	}
	selected := SelectForCollection(cards[0], cards[1], rng)
	for _, c := range cards {
		if c.ID != selected.ID {
			p.Remember(p.ID, c)
		}
	}
	p.CollectionRankCards = append(p.CollectionRankCards, selected)
	p.CollectionRank = selected.Rank
	return &selected
}

// resolvePair looks both hand cards up in the original deck.
func resolvePair(st *models.MatchState, ids [2]string) ([2]models.Card, error) {
	var out [2]models.Card
	for i, id := range ids {
		c, ok := st.ResolveCard(id)
		if !ok {
			return out, fmt.Errorf("%w: %s", ErrCardNotFound, id)
		}
		out[i] = c
	}
	return out, nil
}

// AutoPeek runs the computer peek for p: two distinct random hand cards are revealed and
// recorded as a human peek would be, and a masked reveal stub is set. It returns nil and no
// error when the hand is too small to peek. Nothing is mutated on error.
func AutoPeek(p *models.Player, st *models.MatchState, rng *rand.Rand) (*PeekOutcome, error) {
	if len(p.Hand) < 2 {
		return nil, nil
	}
	perm := rng.Perm(len(p.Hand))
	idx := [2]int{perm[0], perm[1]}

	cards, err := resolvePair(st, [2]string{p.Hand[idx[0]].ID, p.Hand[idx[1]].ID})
	if err != nil {
		return nil, err
	}

	out := &PeekOutcome{Indices: idx, Cards: cards}
	out.Selected = applyPeek(p, cards, st.IsClearAndCollect, rng)
	p.CardsToPeek = models.MaskCards(cards[:])
	return out, nil
}
