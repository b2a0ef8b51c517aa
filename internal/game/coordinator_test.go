// internal/game/coordinator_test.go
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/cache"
	"github.com/jason-s-yu/peekmatch/internal/deck"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/jason-s-yu/peekmatch/internal/roster"
	"github.com/jason-s-yu/peekmatch/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sent is one message handed to the gateway.
type sent struct {
	room    string // set for room broadcasts
	session string // set for targeted sends
	exclude []string
	msg     interface{}
}

// recordingGateway collects messages instead of sending them over WS.
type recordingGateway struct {
	mu  sync.Mutex
	log []sent
}

func (g *recordingGateway) BroadcastToRoom(roomID string, msg interface{}, exclude ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = append(g.log, sent{room: roomID, exclude: exclude, msg: msg})
}

func (g *recordingGateway) SendToSession(sessionID string, msg interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = append(g.log, sent{session: sessionID, msg: msg})
}

func (g *recordingGateway) all() []sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sent, len(g.log))
	copy(out, g.log)
	return out
}

func (g *recordingGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = nil
}

func (g *recordingGateway) count(typ EventType) int {
	n := 0
	for _, s := range g.all() {
		if s.room == "" {
			continue
		}
		if ev, ok := s.msg.(StateEvent); ok && ev.Type == typ {
			n++
		}
	}
	return n
}

type fakeEngine struct {
	mu     sync.Mutex
	calls  int
	states []*models.MatchState
}

func (f *fakeEngine) InitializeRound(_ context.Context, _ string, st *models.MatchState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.states = append(f.states, st)
	return nil
}

func (f *fakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu      sync.Mutex
	records []cache.ActionRecord
}

func (f *fakePublisher) PublishGameAction(_ context.Context, rec cache.ActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.records))
	for i, r := range f.records {
		out[i] = r.ActionType
	}
	return out
}

type fakeRecorder struct {
	mu    sync.Mutex
	snaps []models.InitialSnapshot
}

func (f *fakeRecorder) UpsertInitialGameState(_ context.Context, snap models.InitialSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeRecorder) last() (models.InitialSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snaps) == 0 {
		return models.InitialSnapshot{}, false
	}
	return f.snaps[len(f.snaps)-1], true
}

// fixedDeck returns the same deck order on every build.
type fixedDeck struct {
	cards     []models.Card
	overrides []string
}

func (f *fixedDeck) Build(_ context.Context, _ string, _ deck.Config, override string) (deck.Result, error) {
	f.overrides = append(f.overrides, override)
	cards := make([]models.Card, len(f.cards))
	copy(cards, f.cards)
	return deck.Result{Cards: cards, Summary: deck.Summarize("fixed", cards)}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func card(id, rank, suit string) models.Card {
	return models.Card{ID: id, Rank: rank, Suit: suit, Points: deck.Points(rank), SpecialPower: deck.SpecialPower(rank)}
}

// orderedDeck returns n cards with ids c00..c(n-1) cycling through ranks 2..10.
func orderedDeck(n int) []models.Card {
	out := make([]models.Card, n)
	for i := range out {
		out[i] = card(fmt.Sprintf("c%02d", i), fmt.Sprint(2+i%9), deck.SuitClubs)
	}
	return out
}

type harness struct {
	c       *Coordinator
	gw      *recordingGateway
	engine  *fakeEngine
	actions *fakePublisher
	rec     *fakeRecorder
	store   *store.MemoryStore
	rooms   *RoomStore
	room    *Room
}

// newHarness builds a coordinator over an in-memory store with the given humans joined.
// A nil builder deals from a seeded standard deck.
func newHarness(t *testing.T, settings models.RoomSettings, builder deck.Builder, humans ...string) *harness {
	t.Helper()
	if builder == nil {
		builder = deck.NewStandardBuilder(rand.NewSource(7))
	}
	h := &harness{
		gw:      &recordingGateway{},
		engine:  &fakeEngine{},
		actions: &fakePublisher{},
		rec:     &fakeRecorder{},
		store:   store.NewMemoryStore(),
		rooms:   NewRoomStore(),
	}
	logger := quietLogger()
	h.c = &Coordinator{
		Store:     h.store,
		Gateway:   h.gw,
		Assembler: roster.NewAssembler(nil, logger),
		Dealer: &Dealer{
			Decks:             builder,
			DeckConfig:        deck.Config{IncludeJokers: true},
			CoinCostPerPlayer: 5,
			Logger:            logger,
		},
		Engine:   h.engine,
		Actions:  h.actions,
		Recorder: h.rec,
		Logger:   logger,
		Options: Options{
			PeekDeadline: 10 * time.Second,
			RevealExpiry: 8 * time.Second,
		},
	}
	h.room = NewRoom("room-1", settings)
	h.room.Rand = rand.New(rand.NewSource(1))
	h.rooms.AddRoom(h.room)
	for _, name := range humans {
		_, err := h.room.Join("user-"+name, name, "sess-"+name)
		require.NoError(t, err)
	}
	t.Cleanup(func() { h.rooms.DeleteRoom(h.room.ID) })
	return h
}

func (h *harness) state(t *testing.T) *models.MatchState {
	t.Helper()
	st, err := h.store.GetState(context.Background(), h.room.ID)
	require.NoError(t, err)
	return st
}

// firstTwo returns the ids of the first two hand cards of the player.
func (h *harness) firstTwo(t *testing.T, playerID string) []string {
	t.Helper()
	p := h.state(t).FindPlayer(playerID)
	require.NotNil(t, p)
	require.GreaterOrEqual(t, len(p.Hand), 2)
	return []string{p.Hand[0].ID, p.Hand[1].ID}
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func settingsFor(minP, maxP int) models.RoomSettings {
	s := models.DefaultRoomSettings()
	s.MinPlayers, s.MaxPlayers = minP, maxP
	return s
}

func TestStartMatchDealsAndCompletesComputers(t *testing.T) {
	h := newHarness(t, settingsFor(2, 4), nil, "alice")
	ctx := context.Background()

	st, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)
	require.Len(t, st.Players, 2)
	assert.Equal(t, models.PhaseInitialPeek, st.Phase)
	assert.NotEmpty(t, st.GameID)
	assert.Equal(t, 10, st.Pot)
	assert.Equal(t, 10, st.TimerConfig.InitialPeekSec)
	assert.True(t, h.room.Timers.HasDeadline())
	assert.True(t, h.room.Started())
	assert.Equal(t, st.GameID, h.room.GameID())

	stored := h.state(t)
	human, cpu := stored.Players[0], stored.Players[1]
	assert.True(t, human.IsHuman)
	assert.Equal(t, models.StatusInitialPeek, human.Status)
	assert.False(t, human.IsPeekComplete(true))

	assert.False(t, cpu.IsHuman)
	assert.Equal(t, models.StatusWaiting, cpu.Status)
	assert.True(t, cpu.IsPeekComplete(true))
	require.Len(t, cpu.CardsToPeek, 2)
	for _, c := range cpu.CardsToPeek {
		assert.True(t, c.IsMasked())
	}

	root, err := h.store.GetRoot(ctx, h.room.ID)
	require.NoError(t, err)
	assert.Equal(t, st.GameID, root["game_id"])

	assert.Equal(t, 1, h.gw.count(EventMatchStarted))
	for _, s := range h.gw.all() {
		ev, ok := s.msg.(StateEvent)
		require.True(t, ok)
		assert.Nil(t, ev.GameState.OriginalDeck, "original deck must never reach clients")
	}

	require.Eventually(t, func() bool {
		snap, ok := h.rec.last()
		return ok && len(snap.Players) == 2 && len(snap.Players["user-alice"]) == HandSize
	}, time.Second, 5*time.Millisecond)

	_, err = h.c.StartMatch(ctx, h.room)
	assert.ErrorIs(t, err, ErrMatchAlreadyStarted)
}

func TestAllSeatsCompleteBeforeDeadline(t *testing.T) {
	h := newHarness(t, settingsFor(4, 4), nil, "a", "b", "c", "d")
	ctx := context.Background()

	_, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)
	require.True(t, h.room.Timers.HasDeadline())

	for i, name := range []string{"a", "b", "c", "d"} {
		ids := h.firstTwo(t, "user-"+name)
		require.NoError(t, h.c.HandleCompletedInitialPeek(ctx, h.room, "sess-"+name, ids))
		if i < 3 {
			assert.Equal(t, models.PhaseInitialPeek, h.state(t).Phase)
			assert.Zero(t, h.engine.Calls())
		}
	}

	st := h.state(t)
	assert.Equal(t, models.PhasePlayerTurn, st.Phase)
	assert.False(t, h.room.Timers.HasDeadline(), "deadline must be cancelled")
	assert.Zero(t, h.room.Timers.PendingReveals())
	assert.Equal(t, 1, h.engine.Calls())
	assert.Equal(t, 1, h.gw.count(EventInitialPeekResolved))
	for _, p := range st.Players {
		assert.Equal(t, models.StatusWaiting, p.Status)
		assert.Empty(t, p.CardsToPeek)
	}

	// a late deadline or second resolve changes nothing
	require.NoError(t, h.c.Resolve(ctx, h.room))
	assert.Equal(t, 1, h.engine.Calls())
	assert.Equal(t, 1, h.gw.count(EventInitialPeekResolved))

	require.Eventually(t, func() bool {
		types := h.actions.types()
		return hasString(types, ActionMatchStarted) && hasString(types, ActionInitialPeekResolved)
	}, time.Second, 5*time.Millisecond)
}

func TestDeadlineAutoCompletesStragglers(t *testing.T) {
	h := newHarness(t, settingsFor(2, 4), nil, "alice")
	h.c.Options.PeekDeadline = 30 * time.Millisecond
	ctx := context.Background()

	_, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.engine.Calls() == 1 }, time.Second, 5*time.Millisecond)

	st := h.state(t)
	assert.Equal(t, models.PhasePlayerTurn, st.Phase)
	human := st.FindPlayer("user-alice")
	require.NotNil(t, human)
	assert.True(t, human.IsPeekComplete(true), "straggler completed by the AI procedure")
	assert.Equal(t, models.StatusWaiting, human.Status)
	assert.Empty(t, human.CardsToPeek)
	assert.False(t, h.room.Timers.HasDeadline())

	// the human can no longer submit
	err = h.c.HandleCompletedInitialPeek(ctx, h.room, "sess-alice", []string{human.Hand[0].ID, human.Hand[1].ID})
	assert.ErrorIs(t, err, ErrWrongPhase)

	require.Eventually(t, func() bool {
		return hasString(h.actions.types(), ActionInitialPeekAutoCompleted)
	}, time.Second, 5*time.Millisecond)
}

func TestInstructionsMatchHasNoDeadline(t *testing.T) {
	s := settingsFor(2, 2)
	s.ShowInstructions = true
	h := newHarness(t, s, nil, "alice")
	h.c.Options.PeekDeadline = 10 * time.Millisecond
	ctx := context.Background()

	st, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)
	assert.False(t, h.room.Timers.HasDeadline())
	assert.Zero(t, st.TimerConfig.InitialPeekSec)
	assert.Len(t, st.OriginalDeck, 20, "instructions use the demo deck")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, models.PhaseInitialPeek, h.state(t).Phase)
	assert.Zero(t, h.engine.Calls())

	require.NoError(t, h.c.HandleCompletedInitialPeek(ctx, h.room, "sess-alice", h.firstTwo(t, "user-alice")))
	assert.Equal(t, models.PhasePlayerTurn, h.state(t).Phase)
	assert.Equal(t, 1, h.engine.Calls())
}

func TestResolveIsIdempotent(t *testing.T) {
	h := newHarness(t, settingsFor(2, 4), nil, "alice")
	ctx := context.Background()
	_, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)

	require.NoError(t, h.c.Resolve(ctx, h.room))
	once, err := json.Marshal(h.state(t))
	require.NoError(t, err)

	require.NoError(t, h.c.Resolve(ctx, h.room))
	twice, err := json.Marshal(h.state(t))
	require.NoError(t, err)

	assert.JSONEq(t, string(once), string(twice))
	assert.Equal(t, 1, h.engine.Calls())
}

func TestConcurrentResolveAndDeadline(t *testing.T) {
	h := newHarness(t, settingsFor(2, 4), nil, "alice")
	h.c.Options.PeekDeadline = 5 * time.Millisecond
	ctx := context.Background()
	_, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.c.Resolve(ctx, h.room)
		}()
	}
	wg.Wait()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, models.PhasePlayerTurn, h.state(t).Phase)
	assert.Equal(t, 1, h.engine.Calls())
	assert.Equal(t, 1, h.gw.count(EventInitialPeekResolved))
}

func TestTeardownCancelsTimers(t *testing.T) {
	h := newHarness(t, settingsFor(3, 3), nil, "alice", "bob")
	h.c.Options.PeekDeadline = 30 * time.Millisecond
	h.c.Options.RevealExpiry = 30 * time.Millisecond
	ctx := context.Background()

	_, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)
	require.NoError(t, h.c.HandleCompletedInitialPeek(ctx, h.room, "sess-alice", h.firstTwo(t, "user-alice")))
	require.Equal(t, 1, h.room.Timers.PendingReveals())

	h.gw.reset()
	require.NoError(t, h.c.Teardown(ctx, h.rooms, h.room))
	_, ok := h.rooms.GetRoom(h.room.ID)
	assert.False(t, ok)
	assert.False(t, h.room.Timers.HasDeadline())
	assert.Zero(t, h.room.Timers.PendingReveals())

	_, err = h.store.GetState(ctx, h.room.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	root, err := h.store.GetRoot(ctx, h.room.ID)
	require.NoError(t, err)
	assert.Empty(t, root)

	time.Sleep(80 * time.Millisecond)
	_, err = h.store.GetState(ctx, h.room.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "no timer wrote the state back")
	assert.Empty(t, h.gw.all())
	assert.Zero(t, h.engine.Calls())

	require.NoError(t, h.c.Teardown(ctx, h.rooms, h.room), "teardown is repeatable")

	_, err = h.c.StartMatch(ctx, h.room)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSyncStateRendersForViewer(t *testing.T) {
	h := newHarness(t, settingsFor(2, 2), nil, "alice", "bob")
	ctx := context.Background()
	_, err := h.c.StartMatch(ctx, h.room)
	require.NoError(t, err)
	require.NoError(t, h.c.HandleCompletedInitialPeek(ctx, h.room, "sess-alice", h.firstTwo(t, "user-alice")))

	require.NoError(t, h.c.BindSession(ctx, h.room, "user-alice", "sess-alice-2"))
	h.gw.reset()
	require.NoError(t, h.c.SyncState(ctx, h.room, "sess-alice-2"))

	msgs := h.gw.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "sess-alice-2", msgs[0].session)
	ev := msgs[0].msg.(StateEvent)
	assert.Equal(t, EventSyncState, ev.Type)
	self := ev.GameState.FindPlayer("user-alice")
	assert.NotEmpty(t, self.KnownCards["user-alice"])
	for _, c := range self.CardsToPeek {
		assert.False(t, c.IsMasked())
	}
	assert.Empty(t, ev.GameState.FindPlayer("user-bob").KnownCards)

	assert.ErrorIs(t, h.c.BindSession(ctx, h.room, "nobody", "x"), ErrPlayerNotFound)
}

func TestSyncStateWithoutMatch(t *testing.T) {
	h := newHarness(t, settingsFor(2, 2), nil, "alice")
	assert.ErrorIs(t, h.c.SyncState(context.Background(), h.room, "sess-alice"), ErrNoGameState)
}
