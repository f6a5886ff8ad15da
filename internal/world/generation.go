// World generation using layered simplex noise.
// Generates elevation, rainfall, and temperature maps, then derives terrain,
// features, rivers and resources. Output depends only on the config.
package world

import (
	"math"
	"sort"
	"strconv"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/hexempire/internal/entropy"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width       int     // Tiles along q
	Height      int     // Tiles along r
	Seed        int64   // Noise and stream seed; 0 is a valid seed
	SeaLevel    float64 // Elevation threshold for water (0.0–1.0)
	HillLvl     float64 // Elevation threshold for hills (0.0–1.0)
	MountainLvl float64 // Elevation threshold for mountains (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig(width, height int, seed int64) GenConfig {
	return GenConfig{
		Width:       width,
		Height:      height,
		Seed:        seed,
		SeaLevel:    0.28,
		HillLvl:     0.62,
		MountainLvl: 0.74,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return DefaultGenConfig(12, 12, 42)
}

// GenerateMap creates a map with default thresholds.
func GenerateMap(width, height int, seed int64) *Map {
	return Generate(DefaultGenConfig(width, height, seed))
}

// Generate creates a complete world map with terrain and resources.
func Generate(cfg GenConfig) *Map {
	// Three noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	tempNoise := opensimplex.NewNormalized(cfg.Seed + 2)

	m := NewMap(cfg.Width, cfg.Height)

	cx, cy := axialToCartesian(float64(cfg.Width-1)/2, float64(cfg.Height-1)/2)
	halfW := math.Max(float64(cfg.Width)/2, 1)
	halfH := math.Max(float64(cfg.Height)*sqrt3/4, 1)

	for _, tile := range m.Tiles {
		x, y := axialToCartesian(float64(tile.Coord.Q), float64(tile.Coord.R))

		// Multi-octave noise for natural-looking terrain.
		elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
		rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)
		temp := octaveNoise(tempNoise, x, y, 3, 0.05, 0.5)

		// Continental shaping: reduce elevation near edges to create an ocean border.
		dx, dy := (x-cx)/halfW, (y-cy)/halfH
		edgeFalloff := 1.0 - math.Pow(math.Sqrt(dx*dx+dy*dy)/1.2, 3.5)
		if edgeFalloff < 0 {
			edgeFalloff = 0
		}
		elev *= edgeFalloff

		// Temperature decreases with elevation and distance from the equator row.
		temp = temp*0.6 + (1.0-math.Abs(dy))*0.3 + (1.0-elev)*0.1

		tile.Elevation = elev
		tile.Rainfall = rain
		tile.Temperature = temp
		tile.Terrain = deriveTerrain(elev, rain, temp, cfg)
		tile.Feature = deriveFeature(tile, cfg)
	}

	// Post-pass: shallow water next to land becomes coast.
	markCoast(m)

	// Post-pass: rivers flowing from high elevation to the sea.
	placeRivers(m, cfg.Seed)

	placeResources(m, cfg.Seed)

	return m
}

func axialToCartesian(q, r float64) (float64, float64) {
	return q + r*0.5, r * sqrt3 / 2.0
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, rain, temp float64, cfg GenConfig) Terrain {
	switch {
	case elev < cfg.SeaLevel:
		return TerrainOcean
	case elev > cfg.MountainLvl:
		return TerrainMountains
	case elev > cfg.HillLvl:
		return TerrainHills
	case temp < 0.22:
		return TerrainSnow
	case temp < 0.34:
		return TerrainTundra
	case rain < 0.32 && temp > 0.55:
		return TerrainDesert
	case rain > 0.5:
		return TerrainGrassland
	default:
		return TerrainPlains
	}
}

// deriveFeature overlays vegetation and wetland on land, and ice on frozen sea.
func deriveFeature(t *Tile, cfg GenConfig) Feature {
	switch t.Terrain {
	case TerrainOcean:
		if t.Temperature < 0.2 {
			return FeatureIce
		}
		return FeatureNone
	case TerrainMountains, TerrainSnow:
		return FeatureNone
	case TerrainDesert:
		if t.Rainfall > 0.3 && t.Elevation < cfg.SeaLevel+0.05 {
			return FeatureOasis
		}
		return FeatureNone
	}
	switch {
	case t.Rainfall > 0.68 && t.Temperature > 0.62:
		return FeatureJungle
	case t.Rainfall > 0.66 && t.Elevation < cfg.SeaLevel+0.06:
		return FeatureMarsh
	case t.Rainfall > 0.56:
		return FeatureForest
	}
	return FeatureNone
}

// markCoast converts ocean tiles adjacent to land into coast.
func markCoast(m *Map) {
	var toMark []*Tile
	for _, t := range m.Tiles {
		if t.Terrain != TerrainOcean {
			continue
		}
		for _, n := range m.Neighbors(t.Coord) {
			if !m.Get(n).IsWater() {
				toMark = append(toMark, t)
				break
			}
		}
	}
	for _, t := range toMark {
		t.Terrain = TerrainCoast
		if t.Feature == FeatureIce {
			t.Feature = FeatureNone
		}
	}
}

// placeRivers traces paths from highlands to the sea.
func placeRivers(m *Map, seed int64) {
	rng := entropy.Stream(seed, entropy.StreamRivers)

	// Highland sources, in map order so the shuffle is reproducible.
	var sources []HexCoord
	for _, t := range m.Tiles {
		if t.Elevation > 0.6 && !t.IsWater() {
			sources = append(sources, t.Coord)
		}
	}

	// Only a handful of rivers; not every mountain needs one.
	numRivers := len(sources) / 8
	numRivers = max(numRivers, 2)
	numRivers = min(numRivers, 10)

	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > numRivers {
		sources = sources[:numRivers]
	}

	for _, start := range sources {
		traceRiver(m, start)
	}
}

// traceRiver follows the steepest descent from a source until reaching
// water or running out of downhill path.
func traceRiver(m *Map, start HexCoord) {
	current := start
	visited := make(map[HexCoord]bool)
	maxSteps := 50

	for step := 0; step < maxSteps; step++ {
		visited[current] = true
		t := m.Get(current)
		if t == nil || t.IsWater() {
			break
		}

		if t.Terrain != TerrainMountains {
			t.River = true
			if t.Terrain == TerrainDesert {
				t.Feature = FeatureFloodplain
			}
		}

		// Lowest unvisited neighbor; direction order breaks ties.
		var next *Tile
		bestElev := t.Elevation
		for _, nc := range m.Neighbors(current) {
			if visited[nc] {
				continue
			}
			nt := m.Get(nc)
			if nt.Elevation < bestElev {
				bestElev = nt.Elevation
				next = nt
			}
		}
		if next == nil {
			break // No downhill path; the river ends in a lake.
		}
		current = next.Coord
	}
}

// resourceCandidates lists which resources may spawn on a terrain.
var resourceCandidates = map[Terrain][]Resource{
	TerrainGrassland: {ResourceWheat, ResourceCattle, ResourceHorses},
	TerrainPlains:    {ResourceWheat, ResourceHorses, ResourceStone},
	TerrainDesert:    {ResourceGold, ResourceStone},
	TerrainTundra:    {ResourceDeer, ResourceIron},
	TerrainHills:     {ResourceIron, ResourceStone, ResourceGold},
	TerrainMountains: {ResourceGems, ResourceIron},
	TerrainCoast:     {ResourceFish},
}

// placeResources sprinkles resources over roughly one tile in eight.
func placeResources(m *Map, seed int64) {
	rng := entropy.Stream(seed, entropy.StreamResources)
	for _, t := range m.Tiles {
		roll := rng.Intn(100)
		if roll >= 12 {
			continue
		}
		var options []Resource
		switch t.Feature {
		case FeatureForest:
			options = []Resource{ResourceDeer}
		case FeatureJungle:
			options = []Resource{ResourceSpices, ResourceGems}
		case FeatureIce:
			continue
		default:
			options = resourceCandidates[t.Terrain]
		}
		if len(options) == 0 {
			continue
		}
		t.Resource = options[rng.Intn(len(options))]
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// LandTiles returns passable land tiles in map order.
func LandTiles(m *Map) []*Tile {
	var out []*Tile
	for _, t := range m.Tiles {
		if !t.IsWater() && t.Passable() {
			out = append(out, t)
		}
	}
	return out
}

// TerrainSummary returns terrain names with counts, sorted by name, for logs.
func TerrainSummary(m *Map) []string {
	counts := TerrainCounts(m)
	out := make([]string, 0, len(counts))
	for terrain, n := range counts {
		out = append(out, terrain.String()+"="+strconv.Itoa(n))
	}
	sort.Strings(out)
	return out
}
