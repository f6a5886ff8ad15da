package engine

import (
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/world"
)

// CitySight is how far a city sees beyond its territory.
const CitySight = 2

// updateVisibility recomputes every player's view: tiles seen before fall
// back to discovered, then tiles in sight of a unit or city, and all owned
// territory, become visible.
func updateVisibility(s *game.GameState) {
	for _, t := range s.Map.Tiles {
		for id, v := range t.Visibility {
			if v == world.Visible {
				t.Visibility[id] = world.Discovered
			}
		}
	}

	for _, p := range s.Players {
		if !p.Alive {
			continue
		}
		reveal := func(coords []world.HexCoord) {
			for _, at := range coords {
				if t := s.Map.Get(at); t != nil {
					t.SetVisibility(p.ID, world.Visible)
				}
			}
		}
		for _, u := range s.UnitsOf(p) {
			reveal(world.FieldOfView(s.Map, u.Position, u.CombatStats().Sight))
		}
		for _, c := range s.CitiesOf(p) {
			reveal(c.Territory)
			reveal(world.FieldOfView(s.Map, c.Position, CitySight))
		}
	}
}
