package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHexCoord(t *testing.T) {
	c, err := NewHexCoord(1, -3, 2)
	require.NoError(t, err)
	assert.Equal(t, Axial(1, -3), c)

	_, err = NewHexCoord(1, 1, 1)
	var gerr *GeometryError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, HexCoord{Q: 1, R: 1, S: 1}, gerr.Coord)
}

func TestDistanceProperties(t *testing.T) {
	coords := Range(Axial(0, 0), 3)
	for _, a := range coords {
		assert.Zero(t, Distance(a, a))
		for _, b := range coords {
			d := Distance(a, b)
			require.Equal(t, d, Distance(b, a), "symmetry %s %s", a, b)
			if a != b {
				require.Positive(t, d)
			}
		}
		for _, n := range a.Neighbors() {
			require.Equal(t, 1, Distance(a, n))
			require.True(t, n.Valid())
		}
	}
	assert.Equal(t, 3, Distance(Axial(0, 0), Axial(3, -3)))
	assert.Equal(t, 4, Distance(Axial(-2, 0), Axial(2, 0)))
}

func TestRangeCardinality(t *testing.T) {
	for radius := 0; radius <= 5; radius++ {
		got := Range(Axial(2, -1), radius)
		assert.Len(t, got, 3*radius*radius+3*radius+1, "radius %d", radius)
		for _, c := range got {
			assert.LessOrEqual(t, Distance(Axial(2, -1), c), radius)
		}
	}
	assert.Nil(t, Range(Axial(0, 0), -1))
}

func TestLine(t *testing.T) {
	a, b := Axial(0, 0), Axial(4, -2)
	line := Line(a, b)
	require.Len(t, line, Distance(a, b)+1)
	assert.Equal(t, a, line[0])
	assert.Equal(t, b, line[len(line)-1])
	for i := 1; i < len(line); i++ {
		assert.Equal(t, 1, Distance(line[i-1], line[i]))
	}
	assert.Equal(t, []HexCoord{a}, Line(a, a))
}

func TestCubeRoundKeepsConstraint(t *testing.T) {
	cases := [][3]float64{
		{0.4, -0.2, -0.2},
		{1.49, -0.51, -0.98},
		{-2.5, 1.2, 1.3},
		{0.33, 0.33, -0.66},
	}
	for _, c := range cases {
		h := CubeRound(c[0], c[1], c[2])
		assert.True(t, h.Valid(), "%v -> %s", c, h)
	}
	assert.Equal(t, Axial(0, 0), CubeRound(0.4, -0.2, -0.2))
}

func TestLayoutRoundTrip(t *testing.T) {
	for _, o := range []Orientation{PointyTop, FlatTop} {
		l := Layout{Orientation: o, Size: Point{X: 10, Y: 10}, Origin: Point{X: 3, Y: -7}}
		for _, h := range Range(Axial(0, 0), 4) {
			p := l.HexToPixel(h)
			assert.Equal(t, h, l.PixelToHex(p), "orientation %d hex %s", o, h)
		}
	}
}

func TestLayoutPixelNearCenter(t *testing.T) {
	l := Layout{Size: Point{X: 20, Y: 20}}
	center := l.HexToPixel(Axial(2, 1))
	got := l.PixelToHex(Point{X: center.X + 4, Y: center.Y - 3})
	assert.Equal(t, Axial(2, 1), got)
}
