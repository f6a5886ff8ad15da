package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
	"github.com/talgya/hexempire/internal/units"
	"github.com/talgya/hexempire/internal/world"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	state *game.GameState
}

func (s *StoreTestSuite) SetupTest() {
	store, err := Open(filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.store = store

	st := game.New("g1", world.NewMap(12, 12), game.DefaultSettings(12, 12), 7)
	st.Players = append(st.Players, game.NewPlayer("p1", "rome", 20), game.NewPlayer("p2", "egypt", 20))
	st.AddUnit(units.KindWarrior, "p1", world.Axial(2, 2))
	st.AddCity("Rome", "p1", world.Axial(5, 5))
	st.Phase = game.PhasePlayerTurn
	s.state = st
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *StoreTestSuite) TestSaveAndLoadGame() {
	s.Require().NoError(s.store.SaveGame(s.state))

	loaded, err := s.store.LoadGame("g1")
	s.Require().NoError(err)
	s.Equal(s.state, loaded)

	games, err := s.store.ListGames()
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal("g1", games[0].ID)
	s.Equal("p1,p2", games[0].Players)
	s.Equal("player_turn", games[0].Phase)
}

func (s *StoreTestSuite) TestLatestSnapshotWins() {
	s.Require().NoError(s.store.SaveGame(s.state))
	s.state.Turn = 2
	s.Require().NoError(s.store.SaveGame(s.state))
	s.Require().NoError(s.store.SaveGame(s.state))

	_, info, err := s.store.LoadSnapshot("g1")
	s.Require().NoError(err)
	s.Equal(2, info.Turn)
	s.Equal(codecLZ4, info.Codec)

	snaps, err := s.store.Snapshots("g1")
	s.Require().NoError(err)
	s.Len(snaps, 2)

	n, err := s.store.PruneSnapshots("g1", 1)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	games, err := s.store.ListGames()
	s.Require().NoError(err)
	s.Equal(2, games[0].Turn)
}

func (s *StoreTestSuite) TestUncompressedStore() {
	raw, err := Open(filepath.Join(s.T().TempDir(), "raw.db"), WithCompression(false))
	s.Require().NoError(err)
	defer raw.Close()

	s.Require().NoError(raw.SaveGame(s.state))
	_, info, err := raw.LoadSnapshot("g1")
	s.Require().NoError(err)
	s.Equal(codecNone, info.Codec)
}

func (s *StoreTestSuite) TestCorruptSnapshotIsRefused() {
	s.Require().NoError(s.store.SaveGame(s.state))
	_, err := s.store.conn.Exec("UPDATE snapshots SET checksum = 'bad'")
	s.Require().NoError(err)

	_, err = s.store.LoadGame("g1")
	s.Equal(gameerr.CodeCorruptSnapshot, gameerr.CodeOf(err))
	s.Equal(gameerr.KindIntegrity, gameerr.KindOf(err))
}

func (s *StoreTestSuite) TestBrokenStateIsRefused() {
	// A unit that no tile references breaks the occupancy invariant.
	s.state.Map.Get(world.Axial(2, 2)).UnitID = 0
	data, err := game.Marshal(s.state)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveSnapshot("g1", 1, data))

	_, err = s.store.LoadGame("g1")
	s.Error(err)
	s.Equal(gameerr.KindIntegrity, gameerr.KindOf(err))
}

func (s *StoreTestSuite) TestMissingGame() {
	_, err := s.store.LoadGame("nope")
	s.True(errors.Is(err, ErrNotFound))
}

func (s *StoreTestSuite) TestEvents() {
	var events []engine.Event
	for i := 1; i <= 5; i++ {
		events = append(events, engine.Event{Turn: i, Category: "city", Description: "grew"})
	}
	s.Require().NoError(s.store.AppendEvents("g1", events))
	s.Require().NoError(s.store.AppendEvents("g2", events[:1]))
	s.Require().NoError(s.store.AppendEvents("g1", nil))

	recent, err := s.store.RecentEvents("g1", 3)
	s.Require().NoError(err)
	s.Equal(events[2:], recent)

	s.Require().NoError(s.store.DeleteGame("g1"))
	recent, err = s.store.RecentEvents("g1", 10)
	s.Require().NoError(err)
	s.Empty(recent)
	other, err := s.store.RecentEvents("g2", 10)
	s.Require().NoError(err)
	s.Len(other, 1)
}

func (s *StoreTestSuite) TestMeta() {
	_, err := s.store.GetMeta("schema")
	s.True(errors.Is(err, ErrNotFound))

	s.Require().NoError(s.store.SaveMeta("schema", "1"))
	s.Require().NoError(s.store.SaveMeta("schema", "2"))
	v, err := s.store.GetMeta("schema")
	s.Require().NoError(err)
	s.Equal("2", v)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
