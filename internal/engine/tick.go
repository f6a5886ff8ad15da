// Turn advance: the batch that runs once every living player has ended the
// turn. Income, maintenance, production, growth, unit refresh, visibility,
// elimination and victory, in that order.
package engine

import (
	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/economy"
	"github.com/talgya/hexempire/internal/game"
)

// TurnStats summarises the world after a turn advance.
type TurnStats struct {
	PlayersAlive int `json:"players_alive"`
	Cities       int `json:"cities"`
	Units        int `json:"units"`
	Population   int `json:"population"`
}

// AdvanceTurn runs the batch in place on s and returns its events. The turn
// counter increases by exactly one and the turn pointer returns to the first
// living player, unless a victory condition ends the game.
func (e *Engine) AdvanceTurn(s *game.GameState) []Event {
	s.Phase = game.PhaseBetweenTurns
	b := &batch{state: s}

	for _, p := range s.Players {
		if !p.Alive {
			continue
		}
		b.collectIncome(p)
		b.payMaintenance(p)
		b.processCities(p)
	}
	b.refreshUnits()
	updateVisibility(s)
	b.eliminate()

	for _, p := range s.Players {
		p.Score = s.ComputeScore(p)
		p.EndedTurn = false
	}
	s.Turn++
	s.CurrentPlayerIndex = firstAlive(s)

	if winner, vt, ok := e.checkVictory(s); ok {
		s.Phase = game.PhaseEndGame
		s.Winner = winner
		s.VictoryType = vt
		b.record("victory", "%s wins by %s", winner, vt)
		e.log.Info("game over",
			zap.String("game_id", s.ID),
			zap.Int("turn", s.Turn),
			zap.String("winner", winner),
			zap.String("victory", string(vt)),
		)
	} else {
		s.Phase = game.PhasePlayerTurn
	}

	stats := Stats(s)
	e.log.Info("turn advanced",
		zap.String("game_id", s.ID),
		zap.Int("turn", s.Turn),
		zap.Int("players_alive", stats.PlayersAlive),
		zap.Int("cities", stats.Cities),
		zap.Int("units", stats.Units),
		zap.Int("population", stats.Population),
		zap.Int("events", len(b.events)),
	)
	return b.events
}

// Stats counts living players, cities, units and total population.
func Stats(s *game.GameState) TurnStats {
	st := TurnStats{Cities: len(s.Cities), Units: len(s.Units)}
	for _, p := range s.Players {
		if p.Alive {
			st.PlayersAlive++
		}
	}
	for _, c := range s.Cities {
		st.Population += c.Population
	}
	return st
}

func firstAlive(s *game.GameState) int {
	for i, p := range s.Players {
		if p.Alive {
			return i
		}
	}
	return 0
}

type batch struct {
	state  *game.GameState
	events []Event
}

func (b *batch) record(category, format string, args ...any) {
	b.events = append(b.events, newEvent(b.state.Turn, category, format, args...))
}

// collectIncome adds every city's output plus its worked tiles.
func (b *batch) collectIncome(p *game.Player) {
	for _, c := range b.state.CitiesOf(p) {
		p.Resources = p.Resources.Add(cityIncome(b.state, c))
	}
}

// payMaintenance charges building, population and unit upkeep in gold. A
// deficit stops at zero and is not carried over.
func (b *batch) payMaintenance(p *game.Player) {
	cost := 0
	for _, c := range b.state.CitiesOf(p) {
		cost += c.CalculateMaintenance()
	}
	for _, u := range b.state.UnitsOf(p) {
		cost += u.Kind.Upkeep()
	}
	if cost > p.Resources.Gold {
		b.record("economy", "%s cannot cover upkeep of %d gold", p.ID, cost)
	}
	p.Resources = p.Resources.Sub(economy.Yields{Gold: cost})
}

// refreshUnits starts the new turn for every unit.
func (b *batch) refreshUnits() {
	s := b.state
	for _, p := range s.Players {
		for _, u := range s.UnitsOf(p) {
			u.StartTurn(s.TerritoryOwner(u.Position) == p.ID)
		}
	}
}

// eliminate marks players with no cities and no units as dead.
func (b *batch) eliminate() {
	for _, p := range b.state.Players {
		if p.Alive && len(p.CityIDs) == 0 && len(p.UnitIDs) == 0 {
			p.Alive = false
			b.record("elimination", "%s has been eliminated", p.ID)
		}
	}
}
