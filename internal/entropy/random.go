// Package entropy provides seeded random streams for the simulation.
// Every stochastic event draws from a stream derived from the game seed and a
// stream id, so a fixed seed reproduces a fixed game.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"

	"golang.org/x/exp/rand"
)

// Dice is the minimal source combat and generation need.
type Dice interface {
	Intn(n int) int
}

// Stream ids for independent consumers of the game seed.
const (
	StreamTerrain uint64 = iota + 1
	StreamRivers
	StreamResources
	StreamPlacement
	StreamNames
	StreamCombat uint64 = 1 << 32 // combat streams are StreamCombat + combat index
)

// Stream returns a PCG generator seeded from (seed, stream). Distinct
// stream ids give uncorrelated sequences for the same seed.
func Stream(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewSource(mix(uint64(seed) ^ mix(stream))))
}

// Combat returns the dice for the n-th combat of a game.
func Combat(seed int64, n uint64) *rand.Rand {
	return Stream(seed, StreamCombat+n)
}

// Roll returns an integer in [lo, hi] inclusive.
func Roll(d Dice, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + d.Intn(hi-lo+1)
}

// Fixed is a Dice that always returns the same value, clamped to n-1.
// Useful for tests and for replaying a known roll.
type Fixed int

func (f Fixed) Intn(n int) int {
	v := int(f)
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// NewSeed returns a fresh non-zero seed from crypto/rand.
func NewSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 1
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		s = 1
	}
	return s
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
