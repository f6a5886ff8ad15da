package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	a := GenerateMap(20, 16, 7)
	b := GenerateMap(20, 16, 7)
	require.Equal(t, a, b)

	c := GenerateMap(20, 16, 8)
	assert.NotEqual(t, a, c)
}

func TestGenerateZeroSeedIsFixed(t *testing.T) {
	assert.Equal(t, GenerateMap(8, 8, 0), GenerateMap(8, 8, 0))
}

func TestSmallTestConfig(t *testing.T) {
	m := Generate(SmallTestConfig())
	assert.Equal(t, 144, m.TileCount())
	assert.Equal(t, m, GenerateMap(12, 12, 42))
}

func TestGenerateShape(t *testing.T) {
	m := GenerateMap(20, 16, 3)
	require.Equal(t, 20*16, m.TileCount())
	for i, tile := range m.Tiles {
		require.True(t, tile.Coord.Valid())
		require.Equal(t, i, tile.Coord.R*m.Width+tile.Coord.Q)
		assert.Zero(t, tile.UnitID)
		assert.Zero(t, tile.CityID)
	}
}

func TestGenerateCoastline(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		m := GenerateMap(24, 18, seed)
		for _, tile := range m.Tiles {
			landNeighbor := false
			for _, n := range m.Neighbors(tile.Coord) {
				if !m.Get(n).IsWater() {
					landNeighbor = true
				}
			}
			switch tile.Terrain {
			case TerrainOcean:
				assert.False(t, landNeighbor, "ocean %s touches land", tile.Coord)
			case TerrainCoast:
				assert.True(t, landNeighbor, "coast %s has no land", tile.Coord)
			}
		}
	}
}

func TestGenerateRiversAndFeatures(t *testing.T) {
	m := GenerateMap(32, 24, 21)
	for _, tile := range m.Tiles {
		if tile.River {
			assert.False(t, tile.IsWater())
			assert.NotEqual(t, TerrainMountains, tile.Terrain)
			if tile.Terrain == TerrainDesert {
				assert.Equal(t, FeatureFloodplain, tile.Feature)
			}
		}
		if tile.Feature == FeatureIce {
			assert.Equal(t, TerrainOcean, tile.Terrain)
		}
	}
}

func TestTerrainSummary(t *testing.T) {
	m := NewMap(3, 2)
	m.Get(Axial(0, 0)).Terrain = TerrainHills
	assert.Equal(t, []string{"grassland=5", "hills=1"}, TerrainSummary(m))
}
