// internal/game/reveal.go
package game

import (
	"context"
	"fmt"
	"sort"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/sirupsen/logrus"
)

// HandleCompletedInitialPeek runs a human's initial peek of two of their own cards.
// A rejected submission is reported to the session as a completed_initial_peek_error and
// leaves the state untouched.
func (c *Coordinator) HandleCompletedInitialPeek(ctx context.Context, room *Room, sessionID string, cardIDs []string) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	err := c.completeInitialPeek(ctx, room, sessionID, cardIDs)
	if err != nil {
		c.log().WithFields(logrus.Fields{"room_id": room.ID, "session_id": sessionID}).
			WithError(err).Info("Rejected initial peek")
		c.sendError(room.ID, sessionID, EventCompletedInitialPeekErr, err)
	}
	return err
}

func (c *Coordinator) completeInitialPeek(ctx context.Context, room *Room, sessionID string, cardIDs []string) error {
	if room.closed {
		return ErrRoomNotFound
	}
	st, err := c.loadState(ctx, room.ID)
	if err != nil {
		return err
	}
	if st.Phase != models.PhaseInitialPeek {
		return ErrWrongPhase
	}
	p := st.FindPlayerBySession(sessionID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.Status != models.StatusInitialPeek {
		return fmt.Errorf("%w: initial peek already completed", ErrWrongPhase)
	}
	if len(cardIDs) != 2 || cardIDs[0] == cardIDs[1] {
		return ErrInvalidPeekSelection
	}
	ids := [2]string{cardIDs[0], cardIDs[1]}
	var indices [2]int
	for i, id := range ids {
		indices[i] = p.HandIndex(id)
		if indices[i] < 0 {
			return fmt.Errorf("%w: %s is not in your hand", ErrInvalidPeekSelection, id)
		}
	}
	cards, err := resolvePair(st, ids)
	if err != nil {
		return err
	}

	log := c.log().WithFields(logrus.Fields{"room_id": room.ID, "game_id": st.GameID, "player_id": p.ID})

	// Render every step first so a failed write leaves both the store and the clients untouched.
	// Others only learn which cards were looked at.
	p.CardsToPeek = models.MaskCards(cards[:])
	out := c.stateDeliveries(room.ID, st, EventGameStateUpdated, p.ID, sessionID)

	p.CardsToPeek = []models.Card{cards[0], cards[1]}
	if d, ok := c.ownView(st, p, EventGameStateUpdated, &PeekAction{
		Action:   ActionInitialPeek,
		PlayerID: p.ID,
		Indices:  []int{indices[0], indices[1]},
	}); ok {
		out = append(out, d)
	}

	selected := applyPeek(p, cards, st.IsClearAndCollect, room.Rand)
	p.Status = models.StatusWaiting
	out = append(out, c.stateDeliveries(room.ID, st, EventGameStateUpdated, p.ID)...)

	if err := c.Store.SetGameState(ctx, room.ID, st); err != nil {
		return fmt.Errorf("write peek result: %w", err)
	}
	c.deliver(out...)

	payload := map[string]interface{}{"indices": []int{indices[0], indices[1]}}
	if selected != nil {
		payload["collection_rank"] = selected.Rank
	}
	c.logAction(room, st.GameID, p.ID, ActionInitialPeekCompleted, payload)
	log.Debug("Initial peek completed")

	playerID := p.ID
	room.Timers.StartReveal(playerID, c.revealExpiry(), ids[:], func(snapshot []string) {
		c.onRevealExpiry(room, playerID, snapshot)
	})

	c.checkCompletion(ctx, log, room, st)
	return nil
}

// onRevealExpiry clears the player's revealed cards unless a newer reveal replaced them.
func (c *Coordinator) onRevealExpiry(room *Room, playerID string, snapshot []string) {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.ioTimeout())
	defer cancel()

	log := c.log().WithFields(logrus.Fields{"room_id": room.ID, "player_id": playerID})
	st, err := c.loadState(ctx, room.ID)
	if err != nil {
		log.WithError(err).Warn("Reveal expired without a readable game state")
		return
	}
	p := st.FindPlayer(playerID)
	if p == nil {
		return
	}
	if len(p.CardsToPeek) > 0 {
		if !sameIDSet(models.CardIDs(p.CardsToPeek), snapshot) {
			log.Debug("Reveal superseded, leaving revealed cards in place")
			return
		}
		p.CardsToPeek = []models.Card{}
		if err := c.Store.SetGameState(ctx, room.ID, st); err != nil {
			log.WithError(err).Error("Failed to clear revealed cards")
			return
		}
	}
	c.sendOwnView(st, p, EventGameStateUpdated, nil)
}

// sameIDSet reports whether a and b hold the same ids, ignoring order.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
