// internal/deck/builder.go
package deck

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/peekmatch/internal/models"
)

// Deck types understood by the StandardBuilder.
const (
	TypeStandard = "standard"
	TypeDemo     = "demo"
)

// Special power tags carried by cards.
const (
	PowerPeek = "peek"
	PowerSwap = "swap"
)

// Suits of a standard deck. Jokers use SuitRed/SuitBlack.
const (
	SuitHearts   = "hearts"
	SuitDiamonds = "diamonds"
	SuitClubs    = "clubs"
	SuitSpades   = "spades"
	SuitRed      = "red"
	SuitBlack    = "black"
)

// Config is the per-match deck configuration.
type Config struct {
	// DeckType selects the card set when no override is given. Empty means TypeStandard.
	DeckType      string `json:"deck_type"`
	IncludeJokers bool   `json:"include_jokers"`
}

// Summary describes a built deck.
type Summary struct {
	DeckType   string         `json:"deck_type"`
	TotalCards int            `json:"total_cards"`
	RankCounts map[string]int `json:"rank_counts"`
}

// Result is the shuffled deck plus its summary.
type Result struct {
	Cards   []models.Card
	Summary Summary
}

// Builder builds a shuffled deck for a room. deckTypeOverride, when non-empty, wins over cfg.DeckType.
type Builder interface {
	Build(ctx context.Context, roomID string, cfg Config, deckTypeOverride string) (Result, error)
}

// StandardBuilder builds standard or demo decks with uuid card ids.
type StandardBuilder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStandardBuilder returns a builder shuffling with src; nil seeds from the clock.
func NewStandardBuilder(src rand.Source) *StandardBuilder {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &StandardBuilder{rng: rand.New(src)}
}

var numberRanks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10"}

// Points returns the point value of a rank.
func Points(rank string) int {
	switch rank {
	case models.RankAce:
		return 1
	case models.RankJack, models.RankQueen, models.RankKing:
		return 10
	case models.RankJoker:
		return 0
	}
	if n, err := strconv.Atoi(rank); err == nil {
		return n
	}
	return 0
}

// SpecialPower returns the special power tag of a rank, or "".
func SpecialPower(rank string) string {
	switch rank {
	case models.RankQueen:
		return PowerPeek
	case models.RankJack:
		return PowerSwap
	}
	return ""
}

// IsNumberRank reports whether rank is one of 2..10.
func IsNumberRank(rank string) bool {
	for _, r := range numberRanks {
		if r == rank {
			return true
		}
	}
	return false
}

// Build implements Builder.
func (b *StandardBuilder) Build(ctx context.Context, roomID string, cfg Config, deckTypeOverride string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	deckType := cfg.DeckType
	if deckTypeOverride != "" {
		deckType = deckTypeOverride
	}
	if deckType == "" {
		deckType = TypeStandard
	}

	var cards []models.Card
	switch deckType {
	case TypeStandard:
		ranks := append([]string{models.RankAce}, numberRanks...)
		ranks = append(ranks, models.RankJack, models.RankQueen, models.RankKing)
		cards = buildSuited([]string{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}, ranks)
		if cfg.IncludeJokers {
			cards = append(cards, newCard(models.RankJoker, SuitRed), newCard(models.RankJoker, SuitBlack))
		}
	case TypeDemo:
		// small deck so the instruction walkthrough sees every card kind quickly
		ranks := []string{models.RankAce, "2", "3", "4", "5", "6", models.RankJack, models.RankQueen, models.RankKing}
		cards = buildSuited([]string{SuitHearts, SuitSpades}, ranks)
		cards = append(cards, newCard(models.RankJoker, SuitRed), newCard(models.RankJoker, SuitBlack))
	default:
		return Result{}, fmt.Errorf("unknown deck type %q for room %s", deckType, roomID)
	}

	b.mu.Lock()
	b.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	b.mu.Unlock()

	return Result{Cards: cards, Summary: Summarize(deckType, cards)}, nil
}

// Summarize counts cards per rank.
func Summarize(deckType string, cards []models.Card) Summary {
	counts := make(map[string]int)
	for _, c := range cards {
		counts[c.Rank]++
	}
	return Summary{DeckType: deckType, TotalCards: len(cards), RankCounts: counts}
}

func buildSuited(suits, ranks []string) []models.Card {
	cards := make([]models.Card, 0, len(suits)*len(ranks)+2)
	for _, suit := range suits {
		for _, rank := range ranks {
			cards = append(cards, newCard(rank, suit))
		}
	}
	return cards
}

func newCard(rank, suit string) models.Card {
	return models.Card{
		ID:           "card_" + uuid.NewString(),
		Rank:         rank,
		Suit:         suit,
		Points:       Points(rank),
		SpecialPower: SpecialPower(rank),
	}
}
