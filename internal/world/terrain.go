package world

import "github.com/talgya/hexempire/internal/economy"

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainGrassland Terrain = iota // Best food
	TerrainPlains                   // Balanced food and production
	TerrainDesert                   // Barren unless watered
	TerrainTundra                   // Cold, thin yields
	TerrainSnow                     // Nothing grows
	TerrainOcean                    // Deep water, impassable to land units
	TerrainCoast                    // Shallow water, impassable to land units
	TerrainHills                    // Production and defense
	TerrainMountains                // Slow, defensible, blocks sight
)

// Feature is an overlay on top of the base terrain.
type Feature uint8

const (
	FeatureNone Feature = iota
	FeatureForest
	FeatureJungle
	FeatureMarsh
	FeatureOasis
	FeatureFloodplain
	FeatureIce
)

// Resource is a special tile resource.
type Resource uint8

const (
	ResourceNone Resource = iota
	ResourceWheat
	ResourceCattle
	ResourceDeer
	ResourceFish
	ResourceHorses
	ResourceIron
	ResourceStone
	ResourceGold
	ResourceGems
	ResourceSpices
)

// Improvement is a worker-built tile upgrade.
type Improvement uint8

const (
	ImprovementNone Improvement = iota
	ImprovementFarm
	ImprovementMine
	ImprovementPasture
	ImprovementCamp
)

type terrainInfo struct {
	Name        string
	MoveCost    int
	Defense     int
	Yields      economy.Yields
	Passable    bool
	Water       bool
	BlocksSight bool
}

var terrainTable = map[Terrain]terrainInfo{
	TerrainGrassland: {Name: "grassland", MoveCost: 1, Yields: economy.Yields{Food: 2}, Passable: true},
	TerrainPlains:    {Name: "plains", MoveCost: 1, Yields: economy.Yields{Food: 1, Production: 1}, Passable: true},
	TerrainDesert:    {Name: "desert", MoveCost: 1, Passable: true},
	TerrainTundra:    {Name: "tundra", MoveCost: 1, Yields: economy.Yields{Food: 1}, Passable: true},
	TerrainSnow:      {Name: "snow", MoveCost: 1, Passable: true},
	TerrainOcean:     {Name: "ocean", Yields: economy.Yields{Food: 1}, Water: true},
	TerrainCoast:     {Name: "coast", Yields: economy.Yields{Food: 1, Gold: 1}, Water: true},
	TerrainHills:     {Name: "hills", MoveCost: 2, Defense: 3, Yields: economy.Yields{Production: 2}, Passable: true},
	TerrainMountains: {Name: "mountains", MoveCost: 3, Defense: 5, Yields: economy.Yields{Production: 1}, Passable: true, BlocksSight: true},
}

type featureInfo struct {
	Name        string
	ExtraCost   int
	Defense     int
	Yields      economy.Yields
	Impassable  bool
	BlocksSight bool
}

var featureTable = map[Feature]featureInfo{
	FeatureNone:       {Name: "none"},
	FeatureForest:     {Name: "forest", ExtraCost: 1, Defense: 2, Yields: economy.Yields{Production: 1}, BlocksSight: true},
	FeatureJungle:     {Name: "jungle", ExtraCost: 1, Defense: 2, Yields: economy.Yields{Food: 1}, BlocksSight: true},
	FeatureMarsh:      {Name: "marsh", ExtraCost: 1, Yields: economy.Yields{Food: 1}},
	FeatureOasis:      {Name: "oasis", Yields: economy.Yields{Food: 3, Gold: 1}},
	FeatureFloodplain: {Name: "floodplain", Yields: economy.Yields{Food: 2}},
	FeatureIce:        {Name: "ice", Impassable: true},
}

type resourceInfo struct {
	Name        string
	Yields      economy.Yields
	Improvement Improvement // improvement that works the resource
}

var resourceTable = map[Resource]resourceInfo{
	ResourceNone:   {Name: "none"},
	ResourceWheat:  {Name: "wheat", Yields: economy.Yields{Food: 1}, Improvement: ImprovementFarm},
	ResourceCattle: {Name: "cattle", Yields: economy.Yields{Food: 1}, Improvement: ImprovementPasture},
	ResourceDeer:   {Name: "deer", Yields: economy.Yields{Food: 1}, Improvement: ImprovementCamp},
	ResourceFish:   {Name: "fish", Yields: economy.Yields{Food: 2}},
	ResourceHorses: {Name: "horses", Yields: economy.Yields{Production: 1}, Improvement: ImprovementPasture},
	ResourceIron:   {Name: "iron", Yields: economy.Yields{Production: 1}, Improvement: ImprovementMine},
	ResourceStone:  {Name: "stone", Yields: economy.Yields{Production: 1}, Improvement: ImprovementMine},
	ResourceGold:   {Name: "gold", Yields: economy.Yields{Gold: 2}, Improvement: ImprovementMine},
	ResourceGems:   {Name: "gems", Yields: economy.Yields{Gold: 3}, Improvement: ImprovementMine},
	ResourceSpices: {Name: "spices", Yields: economy.Yields{Gold: 2}, Improvement: ImprovementCamp},
}

var improvementTable = map[Improvement]struct {
	Name   string
	Yields economy.Yields
}{
	ImprovementNone:    {Name: "none"},
	ImprovementFarm:    {Name: "farm", Yields: economy.Yields{Food: 1}},
	ImprovementMine:    {Name: "mine", Yields: economy.Yields{Production: 1}},
	ImprovementPasture: {Name: "pasture", Yields: economy.Yields{Production: 1}},
	ImprovementCamp:    {Name: "camp", Yields: economy.Yields{Gold: 1}},
}

func (t Terrain) String() string {
	if info, ok := terrainTable[t]; ok {
		return info.Name
	}
	return "unknown"
}

// IsWater reports whether the terrain is ocean or coast.
func (t Terrain) IsWater() bool {
	return terrainTable[t].Water
}

func (f Feature) String() string {
	if info, ok := featureTable[f]; ok {
		return info.Name
	}
	return "unknown"
}

func (r Resource) String() string {
	if info, ok := resourceTable[r]; ok {
		return info.Name
	}
	return "unknown"
}

func (i Improvement) String() string {
	if info, ok := improvementTable[i]; ok {
		return info.Name
	}
	return "unknown"
}

// ParseImprovement maps a name back to an Improvement.
func ParseImprovement(name string) (Improvement, bool) {
	for imp, info := range improvementTable {
		if info.Name == name {
			return imp, true
		}
	}
	return ImprovementNone, false
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.Tiles {
		counts[t.Terrain]++
	}
	return counts
}
