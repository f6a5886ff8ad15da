package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamIsReproducible(t *testing.T) {
	a := Stream(42, StreamCombat)
	b := Stream(42, StreamCombat)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Intn(1000), b.Intn(1000), "draw %d", i)
	}
}

func TestStreamsDiffer(t *testing.T) {
	draws := func(seed int64, stream uint64) []int {
		r := Stream(seed, stream)
		out := make([]int, 16)
		for i := range out {
			out[i] = r.Intn(1 << 20)
		}
		return out
	}
	assert.NotEqual(t, draws(42, StreamTerrain), draws(42, StreamRivers))
	assert.NotEqual(t, draws(42, StreamTerrain), draws(43, StreamTerrain))
	assert.NotEqual(t, draws(7, StreamCombat), draws(7, StreamCombat+1))
}

func TestRollInclusive(t *testing.T) {
	r := Stream(1, StreamCombat)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := Roll(r, 0, 10)
		require.GreaterOrEqual(t, v, 0)
		require.LessOrEqual(t, v, 10)
		seen[v] = true
	}
	assert.Len(t, seen, 11)
	assert.Equal(t, 3, Roll(r, 3, 3))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, 10, Roll(Fixed(10), 0, 10))
	assert.Equal(t, 0, Roll(Fixed(0), 0, 10))
	assert.Equal(t, 10, Roll(Fixed(99), 0, 10))
}

func TestNewSeed(t *testing.T) {
	assert.NotZero(t, NewSeed())
}
