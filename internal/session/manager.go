// Package session runs live games. Each game is owned by one goroutine that
// applies actions from its mailbox one at a time; games share no mutable
// state, and the registry needs no global lock.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/entropy"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
)

// Store is the persistence the manager needs. *persistence.Store satisfies it.
type Store interface {
	SaveGame(s *game.GameState) error
	LoadGame(gameID string) (*game.GameState, error)
	AppendEvents(gameID string, events []engine.Event) error
}

// Summary is a live game's index entry.
type Summary struct {
	ID      string   `json:"id"`
	Turn    int      `json:"turn"`
	Phase   string   `json:"phase"`
	Players []string `json:"players"`
	Winner  string   `json:"winner,omitempty"`
}

// Manager owns every running game.
type Manager struct {
	eng      *engine.Engine
	store    Store
	log      *zap.Logger
	maxGames int
	mailbox  int

	games   sync.Map // id -> *instance
	running atomic.Int64
	wg      sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore enables autosave after every turn advance and event logging.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithLogger sets the manager's logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMaxGames caps concurrently running games; 0 means no cap.
func WithMaxGames(n int) Option {
	return func(m *Manager) { m.maxGames = n }
}

// WithMailboxSize sets how many submissions may queue per game.
func WithMailboxSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.mailbox = n
		}
	}
}

// NewManager returns a Manager applying actions with eng.
func NewManager(eng *engine.Engine, opts ...Option) *Manager {
	m := &Manager{eng: eng, log: zap.NewNop(), mailbox: 64}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new game. A zero seed draws a random one.
func (m *Manager) Create(settings game.Settings, seats []engine.Seat, seed int64) (*game.GameState, error) {
	if err := m.reserve(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = entropy.NewSeed()
	}
	s, err := m.eng.NewGame(uuid.NewString(), settings, seats, seed)
	if err != nil {
		m.running.Add(-1)
		return nil, err
	}
	if m.store != nil {
		if err := m.store.SaveGame(s); err != nil {
			m.running.Add(-1)
			return nil, gameerr.Wrap(gameerr.CodeStorage, err)
		}
	}
	m.start(s)
	return s.Clone(), nil
}

// Restore loads a stored game and runs it. A game already running is
// returned as is.
func (m *Manager) Restore(gameID string) (*game.GameState, error) {
	if inst, ok := m.lookup(gameID); ok {
		return inst.snapshot(), nil
	}
	if m.store == nil {
		return nil, gameerr.Newf(gameerr.CodeGameNotFound, "%s (no store)", gameID)
	}
	s, err := m.store.LoadGame(gameID)
	if err != nil {
		if gameerr.KindOf(err) == gameerr.KindIntegrity {
			m.log.Error("refusing corrupt game", zap.String("game_id", gameID), zap.Error(err))
			return nil, err
		}
		return nil, gameerr.Wrap(gameerr.CodeGameNotFound, err)
	}
	if err := m.reserve(); err != nil {
		return nil, err
	}
	inst, started := m.start(s)
	if !started {
		m.running.Add(-1)
	}
	return inst.snapshot(), nil
}

func (m *Manager) reserve() error {
	if n := m.running.Add(1); m.maxGames > 0 && n > int64(m.maxGames) {
		m.running.Add(-1)
		return gameerr.Newf(gameerr.CodeTooManyGames, "limit %d", m.maxGames)
	}
	return nil
}

// start registers and launches the game's goroutine. If another caller
// registered the same id first, that instance is returned with false.
func (m *Manager) start(s *game.GameState) (*instance, bool) {
	inst := newInstance(m, s)
	if prev, loaded := m.games.LoadOrStore(s.ID, inst); loaded {
		return prev.(*instance), false
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		inst.run()
	}()
	m.log.Info("game started",
		zap.String("game_id", s.ID),
		zap.Int("turn", s.Turn),
		zap.Int("players", len(s.Players)),
	)
	return inst, true
}

func (m *Manager) lookup(gameID string) (*instance, bool) {
	v, ok := m.games.Load(gameID)
	if !ok {
		return nil, false
	}
	return v.(*instance), true
}

func (m *Manager) get(gameID string) (*instance, error) {
	inst, ok := m.lookup(gameID)
	if !ok {
		return nil, gameerr.Newf(gameerr.CodeGameNotFound, "%s", gameID)
	}
	return inst, nil
}

// Submit queues a for playerID and waits for the result. A rejected action
// returns the result together with its *gameerr.Error. If ctx ends after the
// action was queued it may still be applied.
func (m *Manager) Submit(ctx context.Context, gameID, playerID string, a engine.Action) (engine.Result, error) {
	inst, err := m.get(gameID)
	if err != nil {
		return engine.Result{}, err
	}
	res, err := inst.submit(ctx, playerID, a)
	if err != nil {
		return res, err
	}
	if res.Err != nil {
		return res, res.Err
	}
	return res, nil
}

// State returns a copy of the game's current state.
func (m *Manager) State(gameID string) (*game.GameState, error) {
	inst, err := m.get(gameID)
	if err != nil {
		return nil, err
	}
	return inst.snapshot(), nil
}

// Subscribe streams updates for gameID. playerID may be empty for a
// spectator; rejections are only delivered to the player who caused them.
// cancel releases the subscription.
func (m *Manager) Subscribe(gameID, playerID string) (<-chan Update, func(), error) {
	inst, err := m.get(gameID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel, ok := inst.subscribe(playerID)
	if !ok {
		return nil, nil, gameerr.Newf(gameerr.CodeGameClosed, "%s", gameID)
	}
	return ch, cancel, nil
}

// List summarises the running games.
func (m *Manager) List() []Summary {
	var out []Summary
	m.games.Range(func(_, v any) bool {
		s := v.(*instance).current.Load()
		sum := Summary{ID: s.ID, Turn: s.Turn, Phase: s.Phase.String(), Winner: s.Winner}
		for _, p := range s.Players {
			sum.Players = append(sum.Players, p.ID)
		}
		out = append(out, sum)
		return true
	})
	return out
}

// Close stops gameID after a final save.
func (m *Manager) Close(gameID string) error {
	v, ok := m.games.LoadAndDelete(gameID)
	if !ok {
		return gameerr.Newf(gameerr.CodeGameNotFound, "%s", gameID)
	}
	inst := v.(*instance)
	inst.stop()
	m.running.Add(-1)
	return nil
}

// Shutdown closes every game and waits for their goroutines, or for ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	m.games.Range(func(k, _ any) bool {
		if err := m.Close(k.(string)); err != nil && gameerr.CodeOf(err) != gameerr.CodeGameNotFound {
			errs = append(errs, err)
		}
		return true
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}
