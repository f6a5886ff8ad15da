package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPositionsSpread(t *testing.T) {
	m := NewMap(20, 20)
	picks, err := StartPositions(m, 3, 6)
	require.NoError(t, err)
	require.Len(t, picks, 3)

	for i, p := range picks {
		assert.Equal(t, 1, Distance(p.Settler, p.Escort))
		for j := i + 1; j < len(picks); j++ {
			assert.GreaterOrEqual(t, Distance(p.Settler, picks[j].Settler), 6)
		}
	}
}

func TestStartPositionsOnGeneratedMap(t *testing.T) {
	m := GenerateMap(32, 24, 5)
	picks, err := StartPositions(m, 4, 6)
	require.NoError(t, err)
	for _, p := range picks {
		settler := m.Get(p.Settler)
		escort := m.Get(p.Escort)
		assert.True(t, settler.Passable() && !settler.IsWater())
		assert.True(t, escort.Passable() && !escort.IsWater())
	}

	again, err := StartPositions(m, 4, 6)
	require.NoError(t, err)
	assert.Equal(t, picks, again)
}

func TestStartPositionsNotEnoughLand(t *testing.T) {
	m := NewMap(2, 1)
	_, err := StartPositions(m, 2, 3)
	assert.ErrorIs(t, err, ErrNoStartPositions)
}

func TestCityName(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		name := CityName(99, i)
		require.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
	}
	assert.Equal(t, CityName(99, 3), CityName(99, 3))
}
