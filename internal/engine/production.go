// City processing during turn advance: production, unit placement, growth,
// territory expansion and healing.
package engine

import (
	"sort"

	"github.com/talgya/hexempire/internal/city"
	"github.com/talgya/hexempire/internal/economy"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/world"
)

const (
	// SpawnRadius bounds the search for a free tile for a finished unit.
	SpawnRadius = 2
	// ExpansionRadius bounds the search for a tile to claim on growth.
	ExpansionRadius = 4
)

// cityIncome is the city's output plus the yields of its own tile and of
// every improved tile in its territory.
func cityIncome(s *game.GameState, c *city.City) economy.Yields {
	out := c.CalculateOutput()
	for _, at := range c.Territory {
		t := s.Map.Get(at)
		if t == nil {
			continue
		}
		if at == c.Position || t.Improvement != world.ImprovementNone {
			out = out.Add(t.Yields())
		}
	}
	return out
}

// processCities runs production and growth for each of p's cities.
func (b *batch) processCities(p *game.Player) {
	s := b.state
	for _, c := range s.CitiesOf(p) {
		income := cityIncome(s, c)

		if done := c.ProcessProduction(income.Production); done != nil {
			b.completed(c, *done)
		}

		// Each citizen eats one food; the rest is stored.
		if c.ProcessGrowth(income.Food - c.Population) {
			b.record("city", "%s grew to %d", c.Name, c.Population)
			if c.Population%2 == 0 {
				if at, ok := expandTerritory(s, c); ok {
					b.record("city", "%s claimed %s", c.Name, at)
				}
			}
		}

		if c.Health < c.MaxHealth {
			c.Heal()
		}
	}
}

// completed places a finished unit, or puts it back one point short when
// there is no room.
func (b *batch) completed(c *city.City, item city.Item) {
	if item.Kind == city.ItemBuilding {
		b.record("production", "%s completed %s", c.Name, item.Building)
		return
	}
	at, ok := spawnTile(b.state, c)
	if !ok {
		c.Requeue(item)
		b.record("production", "%s has no room for a %s", c.Name, item.Unit)
		return
	}
	b.state.AddUnit(item.Unit, c.OwnerID, at)
	b.record("production", "%s trained a %s", c.Name, item.Unit)
}

// spawnTile picks the city tile if free, then the nearest free land tile
// within SpawnRadius, in map order among equals.
func spawnTile(s *game.GameState, c *city.City) (world.HexCoord, bool) {
	candidates := s.Map.CoordinatesInRange(c.Position, SpawnRadius)
	sort.SliceStable(candidates, func(i, j int) bool {
		return world.Distance(c.Position, candidates[i]) < world.Distance(c.Position, candidates[j])
	})
	for _, at := range candidates {
		t := s.Map.Get(at)
		if t.UnitID != 0 || !t.Passable() || t.IsWater() {
			continue
		}
		if t.CityID != 0 && t.CityID != c.ID {
			continue
		}
		return at, true
	}
	return world.HexCoord{}, false
}

// expandTerritory claims one unclaimed non-ocean tile: nearest to the city
// first, then highest total yield, then lowest (r, q).
func expandTerritory(s *game.GameState, c *city.City) (world.HexCoord, bool) {
	var (
		best      *world.Tile
		bestDist  int
		bestScore int
	)
	for _, at := range s.Map.CoordinatesInRange(c.Position, ExpansionRadius) {
		t := s.Map.Get(at)
		if t.OwnerCityID != 0 || t.Terrain == world.TerrainOcean {
			continue
		}
		dist := world.Distance(c.Position, at)
		score := t.Yields().Total()
		if best != nil {
			switch {
			case dist > bestDist:
				continue
			case dist == bestDist && score < bestScore:
				continue
			case dist == bestDist && score == bestScore && !rowMajorLess(at, best.Coord):
				continue
			}
		}
		best, bestDist, bestScore = t, dist, score
	}
	if best == nil {
		return world.HexCoord{}, false
	}
	claim(s, c, best.Coord)
	return best.Coord, true
}

func rowMajorLess(a, b world.HexCoord) bool {
	if a.R != b.R {
		return a.R < b.R
	}
	return a.Q < b.Q
}
