package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexempire/internal/economy"
)

func TestMapBounds(t *testing.T) {
	m := NewMap(10, 10)
	require.Equal(t, 100, m.TileCount())

	assert.True(t, m.InBounds(Axial(0, 0)))
	assert.True(t, m.InBounds(Axial(9, 9)))
	assert.False(t, m.InBounds(Axial(10, 0)))
	assert.False(t, m.InBounds(Axial(0, -1)))
	assert.False(t, m.InBounds(HexCoord{Q: 1, R: 1, S: 0}))

	assert.Equal(t, Axial(5, 5), m.Get(Axial(5, 5)).Coord)
	assert.Nil(t, m.Get(Axial(-1, 0)))

	_, err := m.Lookup(Axial(12, 3))
	var gerr *GeometryError
	assert.True(t, errors.As(err, &gerr))
}

func TestMapNeighborsClipped(t *testing.T) {
	m := NewMap(10, 10)
	assert.ElementsMatch(t, []HexCoord{Axial(1, 0), Axial(0, 1)}, m.Neighbors(Axial(0, 0)))
	assert.Len(t, m.Neighbors(Axial(5, 5)), 6)
	assert.Len(t, m.CoordinatesInRange(Axial(0, 0), 1), 3)
	assert.Len(t, m.CoordinatesInRange(Axial(5, 5), 2), 19)
}

func TestTileMovement(t *testing.T) {
	cases := []struct {
		name     string
		terrain  Terrain
		feature  Feature
		cost     int
		passable bool
	}{
		{"plains", TerrainPlains, FeatureNone, 1, true},
		{"forest grassland", TerrainGrassland, FeatureForest, 2, true},
		{"hills", TerrainHills, FeatureNone, 2, true},
		{"forest hills", TerrainHills, FeatureForest, 3, true},
		{"mountains", TerrainMountains, FeatureNone, 3, true},
		{"ocean", TerrainOcean, FeatureNone, 0, false},
		{"coast", TerrainCoast, FeatureNone, 0, false},
		{"ice", TerrainSnow, FeatureIce, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tile := &Tile{Terrain: tc.terrain, Feature: tc.feature}
			cost, ok := tile.MoveCost()
			assert.Equal(t, tc.passable, ok)
			assert.Equal(t, tc.cost, cost)
		})
	}
}

func TestTileYields(t *testing.T) {
	tile := &Tile{Terrain: TerrainGrassland, River: true}
	assert.Equal(t, economy.Yields{Food: 2, Gold: 1}, tile.Yields())

	wheat := &Tile{Terrain: TerrainPlains, Resource: ResourceWheat}
	assert.Equal(t, economy.Yields{Food: 1, Production: 1}, wheat.Yields())
	require.True(t, wheat.CanImprove(ImprovementFarm))
	wheat.Improvement = ImprovementFarm
	assert.Equal(t, economy.Yields{Food: 3, Production: 1}, wheat.Yields())
	assert.False(t, wheat.CanImprove(ImprovementFarm))

	fish := &Tile{Terrain: TerrainCoast, Resource: ResourceFish}
	assert.Equal(t, economy.Yields{Food: 3, Gold: 1}, fish.Yields())
	assert.False(t, fish.CanImprove(ImprovementFarm))
}

func TestCanImprove(t *testing.T) {
	assert.True(t, (&Tile{Terrain: TerrainHills}).CanImprove(ImprovementMine))
	assert.False(t, (&Tile{Terrain: TerrainGrassland}).CanImprove(ImprovementMine))
	assert.True(t, (&Tile{Terrain: TerrainPlains, Feature: FeatureForest}).CanImprove(ImprovementCamp))
	assert.False(t, (&Tile{Terrain: TerrainPlains, Feature: FeatureForest}).CanImprove(ImprovementFarm))
	assert.True(t, (&Tile{Terrain: TerrainDesert, River: true}).CanImprove(ImprovementFarm))
	assert.True(t, (&Tile{Terrain: TerrainGrassland, Resource: ResourceCattle}).CanImprove(ImprovementPasture))
	assert.False(t, (&Tile{Terrain: TerrainGrassland}).CanImprove(ImprovementNone))
}

func TestMapClone(t *testing.T) {
	m := NewMap(4, 4)
	m.Get(Axial(1, 1)).SetVisibility("p1", Visible)
	m.Get(Axial(2, 2)).Visibility = map[string]Visibility{}

	cp := m.Clone()
	require.Equal(t, m, cp)
	assert.NotNil(t, cp.Get(Axial(2, 2)).Visibility)
	assert.Nil(t, cp.Get(Axial(0, 0)).Visibility)

	cp.Get(Axial(1, 1)).SetVisibility("p1", Discovered)
	cp.Get(Axial(3, 3)).Terrain = TerrainOcean
	assert.Equal(t, Visible, m.Get(Axial(1, 1)).VisibilityFor("p1"))
	assert.Equal(t, TerrainGrassland, m.Get(Axial(3, 3)).Terrain)
}

func TestParseImprovement(t *testing.T) {
	imp, ok := ParseImprovement("mine")
	require.True(t, ok)
	assert.Equal(t, ImprovementMine, imp)
	_, ok = ParseImprovement("castle")
	assert.False(t, ok)
}
