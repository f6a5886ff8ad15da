package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYieldsArithmetic(t *testing.T) {
	a := Yields{Gold: 5, Science: 3, Culture: 1, Production: 2, Food: 4}
	b := Yields{Gold: 2, Science: 5, Culture: 1, Production: 0, Food: 10}

	t.Run("add", func(t *testing.T) {
		assert.Equal(t, Yields{Gold: 7, Science: 8, Culture: 2, Production: 2, Food: 14}, a.Add(b))
	})

	t.Run("sub absorbs deficit", func(t *testing.T) {
		got := a.Sub(b)
		assert.Equal(t, Yields{Gold: 3, Science: 0, Culture: 0, Production: 2, Food: 0}, got)
		assert.True(t, got.NonNegative())
	})

	t.Run("scale", func(t *testing.T) {
		assert.Equal(t, Yields{Gold: 10, Science: 6, Culture: 2, Production: 4, Food: 8}, a.Scale(2))
		assert.Equal(t, Yields{}, a.Scale(-1))
	})

	t.Run("total", func(t *testing.T) {
		assert.Equal(t, 15, a.Total())
	})
}
