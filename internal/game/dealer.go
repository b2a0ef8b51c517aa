// internal/game/dealer.go
package game

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/peekmatch/internal/deck"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/jason-s-yu/peekmatch/internal/predefined"
	"github.com/sirupsen/logrus"
)

// HandSize is the number of cards dealt to every seat.
const HandSize = 4

// Dealer builds the deck of a match and deals the initial hands.
type Dealer struct {
	Decks             deck.Builder
	Predefined        predefined.Source // optional
	DeckConfig        deck.Config
	CoinCostPerPlayer int
	Logger            logrus.FieldLogger
}

// DealResult is the freshly dealt match plus the unmasked data needed to persist it.
type DealResult struct {
	State *models.MatchState
	// Deck is the built deck in draw order, full data.
	Deck []models.Card
	// Hands holds each seat's dealt hand by player id, full data.
	Hands          map[string][]models.Card
	OverlayApplied bool
	Summary        deck.Summary
}

// Deal builds the deck and deals HandSize cards to every seat. The seats are modified in
// place and end up in the returned state. Only a deck build failure is returned as an error;
// a missing or inconsistent predefined overlay falls back to a random deal.
func (d *Dealer) Deal(ctx context.Context, roomID string, seats []*models.Player, settings models.RoomSettings) (*DealResult, error) {
	log := d.logger().WithField("room_id", roomID)

	override := ""
	if settings.ShowInstructions {
		override = deck.TypeDemo
	}
	built, err := d.Decks.Build(ctx, roomID, d.DeckConfig, override)
	if err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}

	original := make(map[string]models.Card, len(built.Cards))
	for _, c := range built.Cards {
		if _, dup := original[c.ID]; dup {
			return nil, fmt.Errorf("build deck: duplicate card id %s", c.ID)
		}
		original[c.ID] = c
	}

	overlay := d.loadOverlay(ctx, log, settings, built.Cards)

	stack := make([]models.Card, len(built.Cards))
	copy(stack, built.Cards)

	res := &DealResult{
		Deck:           built.Cards,
		Hands:          make(map[string][]models.Card, len(seats)),
		OverlayApplied: overlay != nil,
		Summary:        built.Summary,
	}

	for i, p := range seats {
		var hand []models.Card
		if specs, ok := overlay[i]; ok && len(specs) == HandSize {
			hand, stack = dealPredefined(stack, specs)
		} else {
			hand, stack = drawTop(stack, HandSize)
		}
		if len(hand) < HandSize {
			log.WithFields(logrus.Fields{"player_id": p.ID, "dealt": len(hand)}).
				Error("Deck exhausted during initial deal, seat has a short hand")
		}
		res.Hands[p.ID] = hand

		p.Hand = models.MaskCards(hand)
		p.Status = models.StatusInitialPeek
		p.CollectionRank = ""
		p.CollectionRankCards = []models.Card{}
		p.CardsToPeek = []models.Card{}
		if p.KnownCards == nil {
			p.KnownCards = make(map[string]map[string]models.Card)
		}
	}

	discard := []models.Card{}
	if len(stack) > 0 {
		discard = append(discard, stack[0])
		stack = stack[1:]
	} else {
		log.Error("Deck exhausted before seeding the discard pile")
	}

	res.State = &models.MatchState{
		RoomID:            roomID,
		Phase:             models.PhaseInitialPeek,
		Players:           seats,
		DiscardPile:       discard,
		DrawPile:          models.MaskCards(stack),
		OriginalDeck:      original,
		IsClearAndCollect: settings.IsClearAndCollect,
		ShowInstructions:  settings.ShowInstructions,
		CoinCostPerPlayer: d.CoinCostPerPlayer,
		Pot:               d.CoinCostPerPlayer * len(seats),
	}
	return res, nil
}

// loadOverlay returns the predefined hands to apply, or nil when the overlay is off for this match.
func (d *Dealer) loadOverlay(ctx context.Context, log logrus.FieldLogger, settings models.RoomSettings, cards []models.Card) map[int][]models.CardSpec {
	if d.Predefined == nil || !settings.ShowInstructions {
		return nil
	}
	cfg, err := d.Predefined.LoadConfig(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to load predefined hands, dealing randomly")
		return nil
	}
	if !cfg.Enabled {
		return nil
	}
	if missing := predefined.MissingSpecs(cfg, cards); len(missing) > 0 {
		log.WithField("missing", missing).Warn("Predefined hands reference cards absent from the deck, overlay disabled")
		return nil
	}
	return cfg.Hands
}

// drawTop takes up to n cards off the top of the stack.
func drawTop(stack []models.Card, n int) ([]models.Card, []models.Card) {
	if n > len(stack) {
		n = len(stack)
	}
	hand := make([]models.Card, n)
	copy(hand, stack[:n])
	return hand, stack[n:]
}

// dealPredefined pulls the first card matching each spec out of the stack, falling back to
// the top card when a spec has no match, then pads the hand from the top.
func dealPredefined(stack []models.Card, specs []models.CardSpec) ([]models.Card, []models.Card) {
	hand := make([]models.Card, 0, HandSize)
	for _, spec := range specs {
		if len(stack) == 0 {
			break
		}
		idx := 0
		for j, c := range stack {
			if spec.Matches(c) {
				idx = j
				break
			}
		}
		hand = append(hand, stack[idx])
		stack = append(stack[:idx:idx], stack[idx+1:]...)
	}
	if len(hand) < HandSize {
		var pad []models.Card
		pad, stack = drawTop(stack, HandSize-len(hand))
		hand = append(hand, pad...)
	}
	return hand, stack
}

func (d *Dealer) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}
