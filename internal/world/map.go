package world

import (
	"fmt"

	"github.com/talgya/hexempire/internal/economy"
)

// Visibility is a player's knowledge of a tile.
type Visibility uint8

const (
	Hidden     Visibility = iota // Never seen
	Discovered                   // Seen before, not currently in sight
	Visible                      // Currently in sight
)

func (v Visibility) String() string {
	switch v {
	case Discovered:
		return "discovered"
	case Visible:
		return "visible"
	default:
		return "hidden"
	}
}

// Tile is a single cell on the world map.
type Tile struct {
	Coord       HexCoord    `json:"coord"`
	Terrain     Terrain     `json:"terrain"`
	Feature     Feature     `json:"feature"`
	Resource    Resource    `json:"resource"`
	Improvement Improvement `json:"improvement"`
	River       bool        `json:"river"`

	// Elevation and climate data (set during world generation).
	Elevation   float64 `json:"elevation"`   // 0.0 (sea level) to 1.0 (peak)
	Rainfall    float64 `json:"rainfall"`    // 0.0 (arid) to 1.0 (tropical)
	Temperature float64 `json:"temperature"` // 0.0 (frozen) to 1.0 (hot)

	// Occupancy back-references; 0 means none. A tile holds a unit or a
	// city, and a city tile may additionally host one friendly unit.
	UnitID uint64 `json:"unit_id"`
	CityID uint64 `json:"city_id"`

	// City whose territory includes this tile; 0 means unclaimed.
	OwnerCityID uint64 `json:"owner_city_id"`

	Visibility map[string]Visibility `json:"visibility"`
}

// Passable reports whether land units may enter the tile.
func (t *Tile) Passable() bool {
	return terrainTable[t.Terrain].Passable && !featureTable[t.Feature].Impassable
}

// MoveCost is the movement points needed to enter the tile. The second
// result is false for impassable tiles.
func (t *Tile) MoveCost() (int, bool) {
	if !t.Passable() {
		return 0, false
	}
	return terrainTable[t.Terrain].MoveCost + featureTable[t.Feature].ExtraCost, true
}

// DefenseBonus is the flat defense added to a unit fighting on this tile.
func (t *Tile) DefenseBonus() int {
	return terrainTable[t.Terrain].Defense + featureTable[t.Feature].Defense
}

// IsWater reports whether the tile is ocean or coast.
func (t *Tile) IsWater() bool {
	return t.Terrain.IsWater()
}

// BlocksSight reports whether the tile stops a line of sight past it.
func (t *Tile) BlocksSight() bool {
	return terrainTable[t.Terrain].BlocksSight || featureTable[t.Feature].BlocksSight
}

// Elevated reports whether a viewer standing here sees over blockers.
func (t *Tile) Elevated() bool {
	return t.Terrain == TerrainHills || t.Terrain == TerrainMountains
}

// Yields returns the tile's base output plus feature, river, resource and
// improvement bonuses. Resource bonuses count only when the matching
// improvement is built, except for resources that need none.
func (t *Tile) Yields() economy.Yields {
	y := terrainTable[t.Terrain].Yields.Add(featureTable[t.Feature].Yields)
	if t.River {
		y.Gold++
	}
	if t.Resource != ResourceNone {
		info := resourceTable[t.Resource]
		if info.Improvement == ImprovementNone || info.Improvement == t.Improvement {
			y = y.Add(info.Yields)
		}
	}
	return y.Add(improvementTable[t.Improvement].Yields)
}

// CanImprove reports whether imp can be built on the tile.
func (t *Tile) CanImprove(imp Improvement) bool {
	if imp == ImprovementNone || t.IsWater() || !t.Passable() || t.Improvement == imp {
		return false
	}
	if t.Resource != ResourceNone && resourceTable[t.Resource].Improvement == imp {
		return true
	}
	switch imp {
	case ImprovementFarm:
		if t.Feature == FeatureForest || t.Feature == FeatureJungle {
			return false
		}
		return t.Terrain == TerrainGrassland || t.Terrain == TerrainPlains ||
			(t.Terrain == TerrainDesert && (t.River || t.Feature == FeatureFloodplain))
	case ImprovementMine:
		return t.Terrain == TerrainHills || t.Terrain == TerrainMountains
	case ImprovementCamp:
		return t.Feature == FeatureForest || t.Feature == FeatureJungle
	}
	return false
}

// VisibilityFor returns playerID's visibility of the tile.
func (t *Tile) VisibilityFor(playerID string) Visibility {
	return t.Visibility[playerID]
}

// SetVisibility records playerID's visibility, allocating lazily.
func (t *Tile) SetVisibility(playerID string, v Visibility) {
	if t.Visibility == nil {
		t.Visibility = make(map[string]Visibility)
	}
	t.Visibility[playerID] = v
}

// Map holds the complete hex grid. Tiles cover 0 <= q < Width and
// 0 <= r < Height in axial coordinates and are stored row-major, so
// iterating Tiles is deterministic.
type Map struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Tiles  []*Tile `json:"tiles"`
}

// NewMap creates a map of plain grassland tiles.
func NewMap(width, height int) *Map {
	m := &Map{
		Width:  width,
		Height: height,
		Tiles:  make([]*Tile, 0, width*height),
	}
	for r := 0; r < height; r++ {
		for q := 0; q < width; q++ {
			m.Tiles = append(m.Tiles, &Tile{Coord: Axial(q, r), Terrain: TerrainGrassland})
		}
	}
	return m
}

// InBounds reports whether the coordinate is valid and on the map.
func (m *Map) InBounds(c HexCoord) bool {
	return c.Valid() && c.Q >= 0 && c.Q < m.Width && c.R >= 0 && c.R < m.Height
}

// Get returns the tile at c, or nil if out of bounds.
func (m *Map) Get(c HexCoord) *Tile {
	if !m.InBounds(c) {
		return nil
	}
	return m.Tiles[c.R*m.Width+c.Q]
}

// Lookup is Get with a *GeometryError for bad coordinates.
func (m *Map) Lookup(c HexCoord) (*Tile, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	t := m.Get(c)
	if t == nil {
		return nil, &GeometryError{Coord: c, Reason: "out of bounds"}
	}
	return t, nil
}

// Neighbors returns the in-bounds neighbors of c in direction order.
func (m *Map) Neighbors(c HexCoord) []HexCoord {
	out := make([]HexCoord, 0, 6)
	for _, n := range c.Neighbors() {
		if m.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// CoordinatesInRange returns the in-bounds coordinates within radius of c.
func (m *Map) CoordinatesInRange(c HexCoord, radius int) []HexCoord {
	all := Range(c, radius)
	out := all[:0]
	for _, h := range all {
		if m.InBounds(h) {
			out = append(out, h)
		}
	}
	return out
}

// TileCount returns the total number of tiles in the map.
func (m *Map) TileCount() int {
	return len(m.Tiles)
}

// Clone deep-copies the map, preserving nil versus empty visibility maps.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{Width: m.Width, Height: m.Height}
	if m.Tiles != nil {
		out.Tiles = make([]*Tile, len(m.Tiles))
	}
	for i, t := range m.Tiles {
		if t == nil {
			continue
		}
		cp := *t
		if t.Visibility != nil {
			cp.Visibility = make(map[string]Visibility, len(t.Visibility))
			for k, v := range t.Visibility {
				cp.Visibility[k] = v
			}
		}
		out.Tiles[i] = &cp
	}
	return out
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, tiles=%d)", m.Width, m.Height, m.TileCount())
}
