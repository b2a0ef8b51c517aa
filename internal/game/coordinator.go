// internal/game/coordinator.go
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/broadcast"
	"github.com/jason-s-yu/peekmatch/internal/cache"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/jason-s-yu/peekmatch/internal/roster"
	"github.com/jason-s-yu/peekmatch/internal/store"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Default phase timers.
const (
	DefaultPeekDeadline = 10 * time.Second
	DefaultRevealExpiry = 8 * time.Second
)

// Action log types published to the historian.
const (
	ActionMatchStarted             = "match_started"
	ActionInitialPeekCompleted     = "initial_peek_completed"
	ActionInitialPeekAutoCompleted = "initial_peek_auto_completed"
	ActionInitialPeekResolved      = "initial_peek_resolved"
)

// RoundInitializer is the turn engine entry point. It is called once per match, after the
// initial peek resolved, with the state as written to the store.
type RoundInitializer interface {
	InitializeRound(ctx context.Context, roomID string, state *models.MatchState) error
}

// ActionPublisher queues action records for the historian.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.ActionRecord) error
}

// MatchRecorder persists the initial deck and hands of a match.
type MatchRecorder interface {
	UpsertInitialGameState(ctx context.Context, snap models.InitialSnapshot) error
}

// Options tunes the coordinator. Zero values use the defaults.
type Options struct {
	PeekDeadline time.Duration
	RevealExpiry time.Duration
	// IOTimeout bounds store calls made from timer callbacks.
	IOTimeout time.Duration
}

// Coordinator drives a room from match start through the initial peek to the hand-off to
// the turn engine.
type Coordinator struct {
	Store     store.Store
	Gateway   broadcast.Gateway
	Assembler *roster.Assembler
	Dealer    *Dealer
	Engine    RoundInitializer

	Actions  ActionPublisher // optional
	Recorder MatchRecorder   // optional

	Logger  logrus.FieldLogger
	Options Options

	Now       func() time.Time
	NewGameID func() string
}

// StartMatch assembles the roster, deals, writes the initial state and enters the initial
// peek phase. Computer seats complete their peek before StartMatch returns.
func (c *Coordinator) StartMatch(ctx context.Context, room *Room) (*models.MatchState, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.closed {
		return nil, ErrRoomNotFound
	}
	if room.started {
		return nil, ErrMatchAlreadyStarted
	}
	log := c.log().WithField("room_id", room.ID)
	settings := room.Settings

	seats := c.Assembler.Assemble(ctx, roster.Request{
		RoomID:   room.ID,
		Joined:   room.joinedSeats(),
		Settings: settings,
	})
	dealt, err := c.Dealer.Deal(ctx, room.ID, seats, settings)
	if err != nil {
		log.WithError(err).Error("Failed to deal match")
		return nil, err
	}

	st := dealt.State
	st.GameID = c.newGameID()
	deadline := c.peekDeadline(settings)
	st.TimerConfig = models.TimerConfig{RevealExpirySec: int(c.revealExpiry() / time.Second)}
	if !settings.ShowInstructions {
		st.TimerConfig.InitialPeekSec = int(deadline / time.Second)
	}

	if err := c.Store.SetGameState(ctx, room.ID, st); err != nil {
		return nil, fmt.Errorf("write initial game state: %w", err)
	}
	root := map[string]interface{}{
		"game_id":              st.GameID,
		"phase":                st.Phase,
		"pot":                  st.Pot,
		"coin_cost_per_player": st.CoinCostPerPlayer,
		"settings":             settings,
		"started_at":           c.now().UnixMilli(),
	}
	if err := c.Store.MergeRoot(ctx, room.ID, root); err != nil {
		log.WithError(err).Warn("Failed to merge room root fields")
	}

	room.started = true
	room.gameID = st.GameID
	room.actionIndex = 0
	log = log.WithField("game_id", st.GameID)
	log.WithFields(logrus.Fields{
		"seats":           len(st.Players),
		"deck_type":       dealt.Summary.DeckType,
		"overlay_applied": dealt.OverlayApplied,
	}).Info("Match started")

	c.persistInitialState(log, models.InitialSnapshot{
		GameID:    st.GameID,
		RoomID:    room.ID,
		Deck:      dealt.Deck,
		Players:   dealt.Hands,
		Pot:       st.Pot,
		CreatedAt: c.now(),
	})
	c.logAction(room, st.GameID, "", ActionMatchStarted, map[string]interface{}{
		"seats":     len(st.Players),
		"pot":       st.Pot,
		"deck_size": len(dealt.Deck),
	})
	c.broadcast(room.ID, st, EventMatchStarted, "")

	c.enterInitialPeek(ctx, log, room, st, deadline)
	return st, nil
}

// enterInitialPeek starts the deadline timer and completes every computer seat. Caller holds room.Mu.
func (c *Coordinator) enterInitialPeek(ctx context.Context, log logrus.FieldLogger, room *Room, st *models.MatchState, deadline time.Duration) {
	if !st.ShowInstructions {
		room.Timers.StartDeadline(deadline, func() { c.onDeadline(room) })
	}

	changed := false
	for _, p := range st.Players {
		if p.IsComputer() && c.autoComplete(log, room, st, p) {
			changed = true
		}
	}
	if changed {
		if err := c.Store.SetGameState(ctx, room.ID, st); err != nil {
			log.WithError(err).Error("Failed to write computer peeks")
			return
		}
		c.broadcast(room.ID, st, EventGameStateUpdated, "")
	}
	c.checkCompletion(ctx, log, room, st)
}

// autoComplete runs the AI peek on p and marks it waiting. Caller holds room.Mu.
func (c *Coordinator) autoComplete(log logrus.FieldLogger, room *Room, st *models.MatchState, p *models.Player) bool {
	plog := log.WithField("player_id", p.ID)
	out, err := AutoPeek(p, st, room.Rand)
	if err != nil {
		plog.WithError(err).Error("AI initial peek failed")
		return false
	}
	if out == nil {
		plog.WithField("hand_size", len(p.Hand)).Warn("Hand too small for initial peek, skipping")
		return false
	}
	p.Status = models.StatusWaiting

	payload := map[string]interface{}{
		"indices":  []int{out.Indices[0], out.Indices[1]},
		"is_human": p.IsHuman,
	}
	if out.Selected != nil {
		payload["collection_rank"] = out.Selected.Rank
	}
	c.logAction(room, st.GameID, p.ID, ActionInitialPeekAutoCompleted, payload)
	return true
}

// checkCompletion resolves the phase once every seat is peek-complete. Caller holds room.Mu.
func (c *Coordinator) checkCompletion(ctx context.Context, log logrus.FieldLogger, room *Room, st *models.MatchState) {
	if st.Phase != models.PhaseInitialPeek || !st.AllPeekComplete() {
		return
	}
	room.Timers.CancelDeadline()
	if err := c.resolveLocked(ctx, log, room, st); err != nil {
		log.WithError(err).Error("Failed to resolve initial peek")
	}
}

// onDeadline auto-completes the human stragglers and resolves the phase.
func (c *Coordinator) onDeadline(room *Room) {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.ioTimeout())
	defer cancel()

	log := c.log().WithFields(logrus.Fields{"room_id": room.ID, "game_id": room.gameID})
	st, err := c.Store.GetState(ctx, room.ID)
	if err != nil {
		log.WithError(err).Error("Initial peek deadline fired without a readable game state")
		return
	}
	if st.Phase != models.PhaseInitialPeek {
		return
	}

	auto := 0
	for _, p := range st.Players {
		if !p.IsHuman || p.IsPeekComplete(st.IsClearAndCollect) {
			continue
		}
		if c.autoComplete(log, room, st, p) {
			auto++
		}
	}
	log.WithField("auto_completed", auto).Info("Initial peek deadline reached")

	if auto > 0 {
		if err := c.Store.SetGameState(ctx, room.ID, st); err != nil {
			log.WithError(err).Error("Failed to write auto-completed peeks")
			return
		}
		c.broadcast(room.ID, st, EventGameStateUpdated, "")
	}
	if err := c.resolveLocked(ctx, log, room, st); err != nil {
		log.WithError(err).Error("Failed to resolve initial peek")
	}
}

// Resolve ends the initial peek phase. Calling it after the phase already advanced is a no-op.
func (c *Coordinator) Resolve(ctx context.Context, room *Room) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.closed {
		return ErrRoomNotFound
	}
	st, err := c.loadState(ctx, room.ID)
	if err != nil {
		return err
	}
	log := c.log().WithFields(logrus.Fields{"room_id": room.ID, "game_id": st.GameID})
	return c.resolveLocked(ctx, log, room, st)
}

// resolveLocked performs the phase transition on st. Caller holds room.Mu.
func (c *Coordinator) resolveLocked(ctx context.Context, log logrus.FieldLogger, room *Room, st *models.MatchState) error {
	if st.Phase != models.PhaseInitialPeek {
		return nil
	}
	room.Timers.CancelDeadline()
	for _, p := range st.Players {
		room.Timers.CancelReveal(p.ID)
		p.CardsToPeek = []models.Card{}
		p.Status = models.StatusWaiting
	}
	st.Phase = models.PhasePlayerTurn

	if err := c.Store.SetGameState(ctx, room.ID, st); err != nil {
		return fmt.Errorf("write resolved state: %w", err)
	}
	if err := c.Store.MergeRoot(ctx, room.ID, map[string]interface{}{"phase": st.Phase}); err != nil {
		log.WithError(err).Warn("Failed to merge room phase")
	}

	c.broadcast(room.ID, st, EventInitialPeekResolved, "")
	c.logAction(room, st.GameID, "", ActionInitialPeekResolved, map[string]interface{}{
		"seats": len(st.Players),
	})
	log.Info("Initial peek resolved")

	if c.Engine == nil {
		log.Warn("No turn engine configured")
		return nil
	}
	if err := c.Engine.InitializeRound(ctx, room.ID, st); err != nil {
		return fmt.Errorf("initialize round: %w", err)
	}
	return nil
}

// SyncState sends the current state, as seen by the session's player, to that session.
func (c *Coordinator) SyncState(ctx context.Context, room *Room, sessionID string) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	st, err := c.loadState(ctx, room.ID)
	if err != nil {
		return err
	}
	viewer := ""
	if p := st.FindPlayerBySession(sessionID); p != nil {
		viewer = p.ID
	}
	c.Gateway.SendToSession(sessionID, newStateEvent(EventSyncState, renderFor(st, viewer), viewer, c.now()))
	return nil
}

// BindSession points the seat of userID at a new session after a reconnect.
func (c *Coordinator) BindSession(ctx context.Context, room *Room, userID, sessionID string) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	st, err := c.loadState(ctx, room.ID)
	if err != nil {
		return err
	}
	p := st.FindPlayer(userID)
	if p == nil || !p.IsHuman {
		return ErrPlayerNotFound
	}
	if p.SessionID == sessionID {
		return nil
	}
	p.SessionID = sessionID
	return c.Store.SetGameState(ctx, room.ID, st)
}

// Teardown removes the room from rooms, stops its timers and deletes its stored state.
// Events already queued on the room see it closed and do nothing.
func (c *Coordinator) Teardown(ctx context.Context, rooms *RoomStore, room *Room) error {
	rooms.DeleteRoom(room.ID)

	room.Mu.Lock()
	defer room.Mu.Unlock()
	room.close()
	if err := c.Store.Delete(ctx, room.ID); err != nil {
		return fmt.Errorf("delete room state %s: %w", room.ID, err)
	}
	c.log().WithField("room_id", room.ID).Debug("Room torn down")
	return nil
}

func (c *Coordinator) loadState(ctx context.Context, roomID string) (*models.MatchState, error) {
	st, err := c.Store.GetState(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoGameState
	}
	if err != nil {
		return nil, fmt.Errorf("read game state: %w", err)
	}
	return st, nil
}

// delivery is one pending gateway call. An empty session means a room broadcast.
type delivery struct {
	roomID  string
	session string
	exclude []string
	msg     interface{}
}

func (c *Coordinator) deliver(ds ...delivery) {
	for _, d := range ds {
		if d.session != "" {
			c.Gateway.SendToSession(d.session, d.msg)
			continue
		}
		c.Gateway.BroadcastToRoom(d.roomID, d.msg, d.exclude...)
	}
}

// stateDeliveries renders st for each audience: every seated human with a session gets
// their own view, any other session in the room gets the observer view. Sessions in
// excludeSessions get nothing.
func (c *Coordinator) stateDeliveries(roomID string, st *models.MatchState, typ EventType, ownerID string, excludeSessions ...string) []delivery {
	now := c.now()
	skip := make(map[string]bool, len(excludeSessions)+len(st.Players))
	exclude := make([]string, 0, len(excludeSessions)+len(st.Players))
	for _, sid := range excludeSessions {
		if !skip[sid] {
			skip[sid] = true
			exclude = append(exclude, sid)
		}
	}

	var own []delivery
	for _, p := range st.Players {
		if !p.IsHuman || p.SessionID == "" || skip[p.SessionID] {
			continue
		}
		skip[p.SessionID] = true
		exclude = append(exclude, p.SessionID)
		own = append(own, delivery{
			session: p.SessionID,
			msg:     newStateEvent(typ, renderFor(st, p.ID), ownerID, now),
		})
	}

	out := make([]delivery, 0, len(own)+1)
	out = append(out, delivery{
		roomID:  roomID,
		exclude: exclude,
		msg:     newStateEvent(typ, renderFor(st, ""), ownerID, now),
	})
	return append(out, own...)
}

// broadcast sends st to the room, each recipient seeing its own view.
func (c *Coordinator) broadcast(roomID string, st *models.MatchState, typ EventType, ownerID string, excludeSessions ...string) {
	c.deliver(c.stateDeliveries(roomID, st, typ, ownerID, excludeSessions...)...)
}

// ownView renders st for p alone. ok is false when p has no session.
func (c *Coordinator) ownView(st *models.MatchState, p *models.Player, typ EventType, action *PeekAction) (d delivery, ok bool) {
	if p.SessionID == "" {
		return d, false
	}
	ev := newStateEvent(typ, renderFor(st, p.ID), p.ID, c.now())
	ev.Action = action
	return delivery{session: p.SessionID, msg: ev}, true
}

// sendOwnView sends p its own view of st.
func (c *Coordinator) sendOwnView(st *models.MatchState, p *models.Player, typ EventType, action *PeekAction) {
	if d, ok := c.ownView(st, p, typ, action); ok {
		c.deliver(d)
	}
}

func (c *Coordinator) sendError(roomID, sessionID string, typ EventType, err error) {
	if sessionID == "" {
		return
	}
	c.Gateway.SendToSession(sessionID, newErrorEvent(typ, roomID, err, c.now()))
}

// logAction queues an action record for the historian without blocking the room. Caller holds room.Mu.
func (c *Coordinator) logAction(room *Room, gameID, actorID, actionType string, payload map[string]interface{}) {
	if c.Actions == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.ActionRecord{
		GameID:        gameID,
		RoomID:        room.ID,
		ActionIndex:   room.nextActionIndex(),
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     c.now().UnixMilli(),
	}
	go func(rec cache.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Actions.PublishGameAction(ctx, rec); err != nil {
			c.log().WithFields(logrus.Fields{"game_id": rec.GameID, "action_index": rec.ActionIndex}).
				WithError(err).Warn("Failed to publish game action")
		}
	}(record)
}

// persistInitialState saves the deck order and dealt hands asynchronously.
func (c *Coordinator) persistInitialState(log logrus.FieldLogger, snap models.InitialSnapshot) {
	if c.Recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.ioTimeout())
		defer cancel()
		if err := c.Recorder.UpsertInitialGameState(ctx, snap); err != nil {
			log.WithError(err).Warn("Failed to persist initial game state")
		}
	}()
}

func (c *Coordinator) peekDeadline(settings models.RoomSettings) time.Duration {
	if settings.InitialPeekSec > 0 {
		return time.Duration(settings.InitialPeekSec) * time.Second
	}
	if c.Options.PeekDeadline > 0 {
		return c.Options.PeekDeadline
	}
	return DefaultPeekDeadline
}

func (c *Coordinator) revealExpiry() time.Duration {
	if c.Options.RevealExpiry > 0 {
		return c.Options.RevealExpiry
	}
	return DefaultRevealExpiry
}

func (c *Coordinator) ioTimeout() time.Duration {
	if c.Options.IOTimeout > 0 {
		return c.Options.IOTimeout
	}
	return 5 * time.Second
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Coordinator) newGameID() string {
	if c.NewGameID != nil {
		return c.NewGameID()
	}
	return ulid.Make().String()
}

func (c *Coordinator) log() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
