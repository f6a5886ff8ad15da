package world

import "math"

// Orientation selects pointy-top or flat-top hex rendering.
type Orientation uint8

const (
	PointyTop Orientation = iota
	FlatTop
)

// Point is a position in presentation space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout converts between hex and pixel space for presentation layers.
// Conversions are pure; nothing here touches game state.
type Layout struct {
	Orientation Orientation
	Size        Point // Hex radius in pixels along each axis
	Origin      Point // Pixel position of hex (0,0,0)
}

var sqrt3 = math.Sqrt(3.0)

// HexToPixel returns the pixel center of h.
func (l Layout) HexToPixel(h HexCoord) Point {
	q, r := float64(h.Q), float64(h.R)
	var x, y float64
	if l.Orientation == FlatTop {
		x = 1.5 * q
		y = sqrt3/2*q + sqrt3*r
	} else {
		x = sqrt3*q + sqrt3/2*r
		y = 1.5 * r
	}
	return Point{X: x*l.Size.X + l.Origin.X, Y: y*l.Size.Y + l.Origin.Y}
}

// PixelToHex returns the hex containing p, rounded with CubeRound.
func (l Layout) PixelToHex(p Point) HexCoord {
	px := (p.X - l.Origin.X) / l.Size.X
	py := (p.Y - l.Origin.Y) / l.Size.Y
	var q, r float64
	if l.Orientation == FlatTop {
		q = 2.0 / 3.0 * px
		r = -1.0/3.0*px + sqrt3/3.0*py
	} else {
		q = sqrt3/3.0*px - 1.0/3.0*py
		r = 2.0 / 3.0 * py
	}
	return CubeRound(q, r, -q-r)
}
