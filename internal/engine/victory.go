package engine

import (
	"github.com/talgya/hexempire/internal/game"
)

// VictoryCondition is one win predicate. Check returns the winner when the
// condition holds.
type VictoryCondition struct {
	Type  game.VictoryType
	Check func(s *game.GameState) (winner string, ok bool)
}

// DefaultVictoryConditions returns domination, science, culture and the
// turn-limit score victory, in that order.
func DefaultVictoryConditions() []VictoryCondition {
	return []VictoryCondition{
		{Type: game.VictoryDomination, Check: dominationVictory},
		{Type: game.VictoryScience, Check: scienceVictory},
		{Type: game.VictoryCulture, Check: cultureVictory},
		{Type: game.VictoryScore, Check: scoreVictory},
	}
}

func (e *Engine) checkVictory(s *game.GameState) (string, game.VictoryType, bool) {
	for _, vc := range e.victory {
		if winner, ok := vc.Check(s); ok {
			return winner, vc.Type, true
		}
	}
	return "", game.VictoryNone, false
}

// dominationVictory: exactly one player holds cities and every rival has
// either founded a city at some point or been eliminated.
func dominationVictory(s *game.GameState) (string, bool) {
	if len(s.Players) < 2 {
		return "", false
	}
	holder := ""
	for _, p := range s.Players {
		if len(p.CityIDs) == 0 {
			if p.Alive && !p.FoundedCity {
				return "", false
			}
			continue
		}
		if holder != "" {
			return "", false
		}
		holder = p.ID
	}
	return holder, holder != ""
}

func scienceVictory(s *game.GameState) (string, bool) {
	need := s.Settings.ScienceVictoryTechs
	if need <= 0 {
		return "", false
	}
	for _, p := range s.Players {
		if p.Alive && len(p.Researched) >= need {
			return p.ID, true
		}
	}
	return "", false
}

func cultureVictory(s *game.GameState) (string, bool) {
	need := s.Settings.CultureVictoryPoints
	if need <= 0 {
		return "", false
	}
	for _, p := range s.Players {
		if p.Alive && p.Resources.Culture >= need {
			return p.ID, true
		}
	}
	return "", false
}

// scoreVictory ends the game after MaxTurns; ties go to the earlier seat.
func scoreVictory(s *game.GameState) (string, bool) {
	if s.Settings.MaxTurns <= 0 || s.Turn <= s.Settings.MaxTurns {
		return "", false
	}
	winner, best := "", -1
	for _, p := range s.Players {
		if p.Alive && p.Score > best {
			winner, best = p.ID, p.Score
		}
	}
	return winner, winner != ""
}
