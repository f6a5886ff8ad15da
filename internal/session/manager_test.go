package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
)

// memStore keeps cloned states in memory.
type memStore struct {
	mu     sync.Mutex
	games  map[string]*game.GameState
	events map[string][]engine.Event
	saves  int
	broken map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		games:  make(map[string]*game.GameState),
		events: make(map[string][]engine.Event),
		broken: make(map[string]bool),
	}
}

func (m *memStore) SaveGame(s *game.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[s.ID] = s.Clone()
	m.saves++
	return nil
}

func (m *memStore) LoadGame(id string) (*game.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken[id] {
		return nil, gameerr.Integrity(gameerr.CodeCorruptSnapshot, "game %s", id)
	}
	s, ok := m.games[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return s.Clone(), nil
}

func (m *memStore) AppendEvents(id string, events []engine.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[id] = append(m.events[id], events...)
	return nil
}

func (m *memStore) saved(id string) *game.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.games[id]
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type ManagerTestSuite struct {
	suite.Suite
	store *memStore
	mgr   *Manager
	seats []engine.Seat
}

func (s *ManagerTestSuite) SetupTest() {
	s.store = newMemStore()
	s.mgr = NewManager(engine.New(nil), WithStore(s.store))
	s.seats = []engine.Seat{{ID: "a", Civilization: "rome"}, {ID: "b", Civilization: "egypt"}}
}

func (s *ManagerTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.NoError(s.mgr.Shutdown(ctx))
}

func (s *ManagerTestSuite) create(settings game.Settings) *game.GameState {
	st, err := s.mgr.Create(settings, s.seats, 5)
	s.Require().NoError(err)
	return st
}

func (s *ManagerTestSuite) TestCreateSubmitAndState() {
	st := s.create(game.DefaultSettings(32, 24))
	s.NotEmpty(st.ID)
	s.Equal(1, st.Turn)
	s.NotNil(s.store.saved(st.ID), "new games are saved immediately")

	ctx := context.Background()
	res, err := s.mgr.Submit(ctx, st.ID, "a", engine.EndTurn{})
	s.Require().NoError(err)
	s.True(res.Success)
	s.False(res.TurnAdvanced)

	res, err = s.mgr.Submit(ctx, st.ID, "b", engine.EndTurn{})
	s.Require().NoError(err)
	s.True(res.TurnAdvanced)
	s.Equal(2, res.State.Turn)

	cur, err := s.mgr.State(st.ID)
	s.Require().NoError(err)
	s.Equal(2, cur.Turn)
	s.Equal(2, s.store.saved(st.ID).Turn, "turn advance autosaves")

	// Returned states are copies.
	cur.Turn = 99
	again, err := s.mgr.State(st.ID)
	s.Require().NoError(err)
	s.Equal(2, again.Turn)
}

func (s *ManagerTestSuite) TestRejectionLeavesStateAndReachesOnlyItsPlayer() {
	st := s.create(game.DefaultSettings(32, 24))

	aUpdates, cancelA, err := s.mgr.Subscribe(st.ID, "a")
	s.Require().NoError(err)
	defer cancelA()
	bUpdates, cancelB, err := s.mgr.Subscribe(st.ID, "b")
	s.Require().NoError(err)
	defer cancelB()

	before, err := s.mgr.State(st.ID)
	s.Require().NoError(err)

	res, err := s.mgr.Submit(context.Background(), st.ID, "b", engine.EndTurn{})
	s.Equal(gameerr.CodeNotYourTurn, gameerr.CodeOf(err))
	s.False(res.Success)

	after, err := s.mgr.State(st.ID)
	s.Require().NoError(err)
	s.Equal(before, after)

	select {
	case u := <-bUpdates:
		s.Require().NotNil(u.Rejection)
		s.Equal(gameerr.CodeNotYourTurn, u.Rejection.Code)
		s.Equal("not your turn", u.Rejection.Reason)
		s.Nil(u.State)
	case <-time.After(time.Second):
		s.Fail("rejection not delivered")
	}
	s.Empty(aUpdates, "other players do not see rejections")
}

func (s *ManagerTestSuite) TestSubscribersReceiveUpdates() {
	st := s.create(game.DefaultSettings(32, 24))

	var chans []<-chan Update
	for _, id := range []string{"a", "b", ""} {
		ch, cancel, err := s.mgr.Subscribe(st.ID, id)
		s.Require().NoError(err)
		defer cancel()
		chans = append(chans, ch)
	}

	_, err := s.mgr.Submit(context.Background(), st.ID, "a", engine.EndTurn{})
	s.Require().NoError(err)

	for _, ch := range chans {
		select {
		case u := <-ch:
			s.Nil(u.Rejection)
			s.Equal(st.ID, u.GameID)
			s.Equal(engine.KindEndTurn, u.Action)
			s.Equal("a", u.PlayerID)
			s.NotEmpty(u.Digest)
			s.Require().NotNil(u.State)
		case <-time.After(time.Second):
			s.Fail("update not delivered")
		}
	}
}

func (s *ManagerTestSuite) TestCancelClosesSubscription() {
	st := s.create(game.DefaultSettings(32, 24))
	ch, cancel, err := s.mgr.Subscribe(st.ID, "a")
	s.Require().NoError(err)
	cancel()
	cancel()
	_, open := <-ch
	s.False(open)
}

func (s *ManagerTestSuite) TestConcurrentSubmitsAreSerialized() {
	settings := game.DefaultSettings(32, 24)
	settings.Simultaneous = true
	st := s.create(settings)

	// Both players race to end the turn many times; exactly one EndTurn per
	// player per turn can succeed.
	const rounds = 5
	var wg sync.WaitGroup
	accepted := make(map[string]int)
	var mu sync.Mutex
	for _, seat := range s.seats {
		for i := 0; i < rounds*4; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				res, err := s.mgr.Submit(context.Background(), st.ID, id, engine.EndTurn{})
				if err == nil && res.Success {
					mu.Lock()
					accepted[id]++
					mu.Unlock()
				}
			}(seat.ID)
		}
	}
	wg.Wait()

	cur, err := s.mgr.State(st.ID)
	s.Require().NoError(err)
	s.Empty(cur.Validate())
	s.Equal(accepted["a"], accepted["b"]+boolToInt(cur.Player("a").EndedTurn)-boolToInt(cur.Player("b").EndedTurn))
	s.Equal(1+min(accepted["a"], accepted["b"]), cur.Turn)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *ManagerTestSuite) TestTurnTimerEndsTurns() {
	settings := game.DefaultSettings(32, 24)
	settings.TurnTimeout = 20 * time.Millisecond
	st := s.create(settings)

	s.Eventually(func() bool {
		cur, err := s.mgr.State(st.ID)
		return err == nil && cur.Turn >= 3
	}, 5*time.Second, 10*time.Millisecond)

	cur, err := s.mgr.State(st.ID)
	s.Require().NoError(err)
	s.Empty(cur.Validate())
}

func (s *ManagerTestSuite) TestMaxGames() {
	mgr := NewManager(engine.New(nil), WithMaxGames(1))
	defer mgr.Shutdown(context.Background())

	first, err := mgr.Create(game.DefaultSettings(32, 24), s.seats, 5)
	s.Require().NoError(err)
	_, err = mgr.Create(game.DefaultSettings(32, 24), s.seats, 5)
	s.Equal(gameerr.CodeTooManyGames, gameerr.CodeOf(err))

	s.Require().NoError(mgr.Close(first.ID))
	_, err = mgr.Create(game.DefaultSettings(32, 24), s.seats, 5)
	s.NoError(err)
}

func (s *ManagerTestSuite) TestBadSeatsReleaseTheSlot() {
	mgr := NewManager(engine.New(nil), WithMaxGames(1))
	defer mgr.Shutdown(context.Background())

	_, err := mgr.Create(game.DefaultSettings(32, 24), nil, 5)
	s.Equal(gameerr.CodeInvalidRequest, gameerr.CodeOf(err))
	_, err = mgr.Create(game.DefaultSettings(32, 24), s.seats, 5)
	s.NoError(err)
}

func (s *ManagerTestSuite) TestCloseAndRestore() {
	st := s.create(game.DefaultSettings(32, 24))
	_, err := s.mgr.Submit(context.Background(), st.ID, "a", engine.EndTurn{})
	s.Require().NoError(err)

	s.Require().NoError(s.mgr.Close(st.ID))
	s.Equal(1, s.store.saved(st.ID).CurrentPlayerIndex, "close saves the latest state")

	_, err = s.mgr.Submit(context.Background(), st.ID, "b", engine.EndTurn{})
	s.Equal(gameerr.CodeGameNotFound, gameerr.CodeOf(err))
	s.Equal(gameerr.CodeGameNotFound, gameerr.CodeOf(s.mgr.Close(st.ID)))

	restored, err := s.mgr.Restore(st.ID)
	s.Require().NoError(err)
	s.Equal(1, restored.CurrentPlayerIndex)

	again, err := s.mgr.Restore(st.ID)
	s.Require().NoError(err)
	s.Equal(restored, again)
	s.Len(s.mgr.List(), 1)

	res, err := s.mgr.Submit(context.Background(), st.ID, "b", engine.EndTurn{})
	s.Require().NoError(err)
	s.True(res.TurnAdvanced)
}

func (s *ManagerTestSuite) TestRestoreFailures() {
	_, err := s.mgr.Restore("missing")
	s.Equal(gameerr.CodeGameNotFound, gameerr.CodeOf(err))

	st := s.create(game.DefaultSettings(32, 24))
	s.Require().NoError(s.mgr.Close(st.ID))
	s.store.mu.Lock()
	s.store.broken[st.ID] = true
	s.store.mu.Unlock()

	_, err = s.mgr.Restore(st.ID)
	s.Equal(gameerr.KindIntegrity, gameerr.KindOf(err))
	s.Empty(s.mgr.List())

	noStore := NewManager(engine.New(nil))
	_, err = noStore.Restore(st.ID)
	s.Equal(gameerr.CodeGameNotFound, gameerr.CodeOf(err))
}

func (s *ManagerTestSuite) TestTurnAdvanceAutosaves() {
	st := s.create(game.DefaultSettings(32, 24))
	before := s.store.saveCount()
	for _, id := range []string{"a", "b"} {
		_, err := s.mgr.Submit(context.Background(), st.ID, id, engine.EndTurn{})
		s.Require().NoError(err)
	}
	s.Greater(s.store.saveCount(), before)
}

func (s *ManagerTestSuite) TestShutdownStopsEverything() {
	a := s.create(game.DefaultSettings(32, 24))
	b := s.create(game.DefaultSettings(32, 24))
	ch, _, err := s.mgr.Subscribe(a.ID, "")
	s.Require().NoError(err)

	s.Require().NoError(s.mgr.Shutdown(context.Background()))
	s.Empty(s.mgr.List())
	_, open := <-ch
	s.False(open, "subscriptions close on shutdown")

	_, err = s.mgr.State(b.ID)
	s.Equal(gameerr.CodeGameNotFound, gameerr.CodeOf(err))
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
