// Package world provides the hex grid, terrain, and spatial data structures.
// Uses cube coordinates (q, r, s) with q + r + s == 0.
package world

import (
	"fmt"
)

// HexCoord represents a position on the hex grid using cube coordinates.
// Values are never mutated in place, only replaced.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// GeometryError reports an invalid coordinate. It is an input-validation
// failure and coordinates are never silently clamped.
type GeometryError struct {
	Coord  HexCoord
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("invalid hex %s: %s", e.Coord, e.Reason)
}

// NewHexCoord builds a coordinate from all three cube components.
func NewHexCoord(q, r, s int) (HexCoord, error) {
	c := HexCoord{Q: q, R: r, S: s}
	if q+r+s != 0 {
		return c, &GeometryError{Coord: c, Reason: "q + r + s must be 0"}
	}
	return c, nil
}

// Axial builds a coordinate from axial (q, r); s is derived.
func Axial(q, r int) HexCoord {
	return HexCoord{Q: q, R: r, S: -q - r}
}

// Valid reports whether the cube constraint holds.
func (h HexCoord) Valid() bool {
	return h.Q+h.R+h.S == 0
}

// Check returns a *GeometryError if the cube constraint is broken.
func (h HexCoord) Check() error {
	if !h.Valid() {
		return &GeometryError{Coord: h, Reason: "q + r + s must be 0"}
	}
	return nil
}

func (h HexCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", h.Q, h.R, h.S)
}

// Add returns h + o.
func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R, S: h.S + o.S}
}

// Sub returns h - o.
func (h HexCoord) Sub(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q - o.Q, R: h.R - o.R, S: h.S - o.S}
}

// Scale returns h * k.
func (h HexCoord) Scale(k int) HexCoord {
	return HexCoord{Q: h.Q * k, R: h.R * k, S: h.S * k}
}

// HexNeighborDirections defines the six neighbor offsets, starting east and
// turning counter-clockwise.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0, S: -1},
	{Q: 1, R: -1, S: 0},
	{Q: 0, R: -1, S: 1},
	{Q: -1, R: 0, S: 1},
	{Q: -1, R: 1, S: 0},
	{Q: 0, R: 1, S: -1},
}

// Neighbors returns the six adjacent hex coordinates, unbounded.
// Use Map.Neighbors for the in-bounds subset.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = h.Add(dir)
	}
	return result
}

// Neighbor returns the adjacent coordinate in direction dir (0..5).
func (h HexCoord) Neighbor(dir int) HexCoord {
	return h.Add(HexNeighborDirections[((dir%6)+6)%6])
}

// Distance returns the hex distance between two coordinates: the max of the
// three absolute cube differences.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S-b.S))
}

// Range returns every coordinate within radius of center, ordered by q then r.
// Its length is 3r² + 3r + 1.
func Range(center HexCoord, radius int) []HexCoord {
	if radius < 0 {
		return nil
	}
	out := make([]HexCoord, 0, 3*radius*radius+3*radius+1)
	for dq := -radius; dq <= radius; dq++ {
		lo := max(-radius, -dq-radius)
		hi := min(radius, -dq+radius)
		for dr := lo; dr <= hi; dr++ {
			out = append(out, center.Add(Axial(dq, dr)))
		}
	}
	return out
}

// Line returns the hexes on the straight line from a to b inclusive.
// A small nudge keeps samples off hex edges so results are deterministic.
func Line(a, b HexCoord) []HexCoord {
	n := Distance(a, b)
	out := make([]HexCoord, 0, n+1)
	if n == 0 {
		return append(out, a)
	}
	const eps = 1e-6
	aq, ar, as := float64(a.Q)+eps, float64(a.R)+eps, float64(a.S)-2*eps
	bq, br, bs := float64(b.Q)+eps, float64(b.R)+eps, float64(b.S)-2*eps
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		out = append(out, CubeRound(lerp(aq, bq, t), lerp(ar, br, t), lerp(as, bs, t)))
	}
	return out
}

// CubeRound rounds fractional cube coordinates to the nearest hex. The
// component with the largest rounding error is recomputed from the other two
// so q + r + s == 0 always holds.
func CubeRound(fq, fr, fs float64) HexCoord {
	q, r, s := roundHalfAway(fq), roundHalfAway(fr), roundHalfAway(fs)
	dq, dr, ds := absf(float64(q)-fq), absf(float64(r)-fr), absf(float64(s)-fs)
	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	default:
		s = -q - r
	}
	return HexCoord{Q: q, R: r, S: s}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func roundHalfAway(x float64) int {
	if x < 0 {
		return -int(-x + 0.5)
	}
	return int(x + 0.5)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
