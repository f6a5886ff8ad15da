// Package engine validates and applies player actions against a game state
// and runs the turn-advance batch.
package engine

import (
	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
	"github.com/talgya/hexempire/internal/units"
	"github.com/talgya/hexempire/internal/world"
)

// Engine is stateless apart from its logger and victory rules; one Engine
// serves any number of games.
type Engine struct {
	log     *zap.Logger
	victory []VictoryCondition
}

// Option configures an Engine.
type Option func(*Engine)

// WithVictoryConditions replaces the default victory predicates. They are
// checked in slice order and the first match wins.
func WithVictoryConditions(conds ...VictoryCondition) Option {
	return func(e *Engine) { e.victory = conds }
}

// New returns an Engine. A nil logger discards output.
func New(log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{log: log, victory: DefaultVictoryConditions()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one Process call. On rejection State is nil and
// the input state is untouched.
type Result struct {
	Success      bool                `json:"success"`
	State        *game.GameState     `json:"-"`
	Err          *gameerr.Error      `json:"-"`
	Events       []Event             `json:"events"`
	Combat       *units.CombatResult `json:"combat,omitempty"`
	TurnAdvanced bool                `json:"turn_advanced"`
}

// Seat is one player joining a new game.
type Seat struct {
	ID           string `json:"id"`
	Civilization string `json:"civilization"`
}

// NewGame generates the map, places a settler and a warrior for every seat,
// and opens the first turn.
func (e *Engine) NewGame(id string, settings game.Settings, seats []Seat, seed int64) (*game.GameState, error) {
	if len(seats) == 0 {
		return nil, gameerr.Validation(gameerr.CodeInvalidRequest, "no players")
	}
	seen := make(map[string]bool, len(seats))
	for _, seat := range seats {
		if seat.ID == "" || seen[seat.ID] {
			return nil, gameerr.Validation(gameerr.CodeInvalidRequest, "player id %q is empty or repeated", seat.ID)
		}
		seen[seat.ID] = true
	}
	if settings.MapWidth <= 0 || settings.MapHeight <= 0 {
		return nil, gameerr.Validation(gameerr.CodeInvalidRequest, "map size %dx%d", settings.MapWidth, settings.MapHeight)
	}

	m := world.Generate(world.DefaultGenConfig(settings.MapWidth, settings.MapHeight, seed))
	starts, err := world.StartPositions(m, len(seats), settings.StartMinDistance)
	if err != nil {
		return nil, gameerr.Wrap(gameerr.CodeInvalidRequest, err)
	}

	s := game.New(id, m, settings, seed)
	for i, seat := range seats {
		s.Players = append(s.Players, game.NewPlayer(seat.ID, seat.Civilization, settings.StartingGold))
		s.AddUnit(units.KindSettler, seat.ID, starts[i].Settler)
		s.AddUnit(units.KindWarrior, seat.ID, starts[i].Escort)
	}
	updateVisibility(s)
	s.Phase = game.PhasePlayerTurn

	e.log.Info("game created",
		zap.String("game_id", id),
		zap.Int("players", len(seats)),
		zap.Int("width", settings.MapWidth),
		zap.Int("height", settings.MapHeight),
		zap.Int64("seed", seed),
		zap.Strings("terrain", world.TerrainSummary(m)),
	)
	return s, nil
}

// Process validates a for playerID and applies it to a copy of s. Rejected
// actions leave s unchanged; accepted ones return the new state. When the
// last player ends the turn the turn-advance batch runs as part of the same
// call.
func (e *Engine) Process(s *game.GameState, playerID string, a Action) Result {
	if a == nil {
		return e.reject(s, playerID, "", gameerr.Validation(gameerr.CodeUnknownAction, "nil action"))
	}
	if err := checkTurn(s, playerID); err != nil {
		return e.reject(s, playerID, a.Kind(), err)
	}

	next := s.Clone()
	ctx := &actionContext{
		state:  next,
		player: next.Player(playerID),
	}

	var err *gameerr.Error
	switch act := a.(type) {
	case MoveUnit:
		err = ctx.moveUnit(act)
	case Attack:
		err = ctx.attack(act)
	case FoundCity:
		err = ctx.foundCity(act)
	case ChangeProduction:
		err = ctx.changeProduction(act)
	case BuildImprovement:
		err = ctx.buildImprovement(act)
	case QueueProduction:
		err = ctx.queueProduction(act)
	case ResearchTechnology:
		err = ctx.research(act)
	case EndTurn:
		err = ctx.endTurn(e)
	case PromoteUnit:
		err = ctx.promote(act)
	case SetOrder:
		err = ctx.setOrder(act)
	case AssignSpecialist:
		err = ctx.assignSpecialist(act)
	case RemoveSpecialist:
		err = ctx.removeSpecialist(act)
	case WorkerImprove:
		err = ctx.workerImprove(act)
	default:
		err = gameerr.Validation(gameerr.CodeUnknownAction, "%T", a)
	}
	if err != nil {
		return e.reject(s, playerID, a.Kind(), err)
	}

	e.log.Debug("action applied",
		zap.String("game_id", s.ID),
		zap.String("player", playerID),
		zap.String("action", string(a.Kind())),
		zap.Int("turn", next.Turn),
	)
	return Result{
		Success:      true,
		State:        next,
		Events:       ctx.events,
		Combat:       ctx.combat,
		TurnAdvanced: ctx.advanced,
	}
}

func (e *Engine) reject(s *game.GameState, playerID string, kind ActionKind, err *gameerr.Error) Result {
	gameID := ""
	if s != nil {
		gameID = s.ID
	}
	e.log.Debug("action rejected",
		zap.String("game_id", gameID),
		zap.String("player", playerID),
		zap.String("action", string(kind)),
		zap.Int("code", int(err.Code)),
		zap.String("reason", err.Reason),
	)
	return Result{Err: err}
}

// checkTurn admits only a living player whose turn it is.
func checkTurn(s *game.GameState, playerID string) *gameerr.Error {
	if s == nil || s.Map == nil {
		return gameerr.Validation(gameerr.CodeInvalidRequest, "no game state")
	}
	switch s.Phase {
	case game.PhasePlayerTurn:
	case game.PhaseEndGame:
		return gameerr.New(gameerr.CodeGameOver)
	default:
		return gameerr.Newf(gameerr.CodeWrongPhase, "phase %s", s.Phase)
	}
	p := s.Player(playerID)
	if p == nil {
		return gameerr.Validation(gameerr.CodeUnknownPlayer, "%q", playerID)
	}
	if !p.Alive {
		return gameerr.New(gameerr.CodePlayerEliminated)
	}
	if s.Settings.Simultaneous {
		if p.EndedTurn {
			return gameerr.Newf(gameerr.CodeNotYourTurn, "%s already ended turn %d", playerID, s.Turn)
		}
		return nil
	}
	if cur := s.CurrentPlayer(); cur == nil || cur.ID != playerID {
		return gameerr.New(gameerr.CodeNotYourTurn)
	}
	return nil
}

// AwaitingPlayers lists the players who still owe an EndTurn this turn, in
// turn order. A turn timer issues EndTurn on their behalf.
func AwaitingPlayers(s *game.GameState) []string {
	if s == nil || s.Phase != game.PhasePlayerTurn {
		return nil
	}
	if !s.Settings.Simultaneous {
		if cur := s.CurrentPlayer(); cur != nil && cur.Alive {
			return []string{cur.ID}
		}
		return nil
	}
	var out []string
	for _, p := range s.Players {
		if p.Alive && !p.EndedTurn {
			out = append(out, p.ID)
		}
	}
	return out
}
