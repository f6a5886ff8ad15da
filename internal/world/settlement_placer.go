// Start placement: finds spread-out land tiles for each player's opening
// settler and warrior, and generates city names.
package world

import (
	"errors"
	"sort"

	"github.com/talgya/hexempire/internal/entropy"
)

// ErrNoStartPositions means the map has too little usable land.
var ErrNoStartPositions = errors.New("not enough land for start positions")

// StartPosition is one player's opening location: the settler tile and an
// adjacent tile for the escort.
type StartPosition struct {
	Settler HexCoord `json:"settler"`
	Escort  HexCoord `json:"escort"`
	Score   float64  `json:"score"`
}

// StartPositions picks count start positions, best first, keeping them at
// least minDist apart. The distance requirement is relaxed one step at a
// time when the map is too crowded.
func StartPositions(m *Map, count, minDist int) ([]StartPosition, error) {
	type scored struct {
		tile   *Tile
		escort HexCoord
		score  float64
	}
	var candidates []scored

	for _, t := range LandTiles(m) {
		escort, ok := escortTile(m, t.Coord)
		if !ok {
			continue
		}
		if s := startScore(m, t); s > 0 {
			candidates = append(candidates, scored{tile: t, escort: escort, score: s})
		}
	}

	// Stable sort keeps map order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for dist := minDist; dist >= 1; dist-- {
		var picks []StartPosition
		for _, c := range candidates {
			if len(picks) == count {
				break
			}
			if tooClose(c.tile.Coord, c.escort, picks, dist) {
				continue
			}
			picks = append(picks, StartPosition{Settler: c.tile.Coord, Escort: c.escort, Score: c.score})
		}
		if len(picks) == count {
			return picks, nil
		}
	}
	return nil, ErrNoStartPositions
}

func escortTile(m *Map, c HexCoord) (HexCoord, bool) {
	for _, n := range m.Neighbors(c) {
		t := m.Get(n)
		if t.Passable() && !t.IsWater() {
			return n, true
		}
	}
	return HexCoord{}, false
}

// startScore evaluates how good a tile is to found a first city on.
// Prefers food, rivers, coast access and varied surroundings.
func startScore(m *Map, t *Tile) float64 {
	score := 0.0
	switch t.Terrain {
	case TerrainGrassland, TerrainPlains:
		score += 3.0
	case TerrainHills:
		score += 2.5
	case TerrainDesert, TerrainTundra:
		score += 0.5
	default:
		return 0
	}
	if t.River {
		score += 1.5
	}

	kinds := make(map[Terrain]bool)
	for _, c := range m.CoordinatesInRange(t.Coord, 2) {
		nt := m.Get(c)
		score += float64(nt.Yields().Total()) * 0.1
		kinds[nt.Terrain] = true
		if nt.Terrain == TerrainCoast && Distance(c, t.Coord) == 1 {
			score += 0.3
		}
	}
	score += float64(len(kinds)) * 0.2
	return score
}

func tooClose(settler, escort HexCoord, picks []StartPosition, minDist int) bool {
	for _, p := range picks {
		if Distance(settler, p.Settler) < minDist || escort == p.Escort || escort == p.Settler || settler == p.Escort {
			return true
		}
	}
	return false
}

var namePrefixes = []string{
	"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
	"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
	"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
	"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
}

var nameSuffixes = []string{
	"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
	"stead", "wood", "field", "dale", "crest", "vale", "port",
	"town", "bury", "marsh", "well", "brook", "cliff", "moor",
	"ridge", "watch", "fall", "rest", "point", "reach", "helm",
}

// CityName produces the n-th procedural city name for a game seed. Names are
// reproducible and a game never hands out the same name twice until the
// combination space is exhausted.
func CityName(seed int64, n int) string {
	total := len(namePrefixes) * len(nameSuffixes)
	perm := entropy.Stream(seed, entropy.StreamNames).Perm(total)
	idx := perm[n%total]
	return namePrefixes[idx/len(nameSuffixes)] + nameSuffixes[idx%len(nameSuffixes)]
}
