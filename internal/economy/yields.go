// Package economy provides the five-yield bundle used for tile, city and
// player resources. All arithmetic keeps every component non-negative.
package economy

import "fmt"

// Yields is a bundle of per-turn output or a stockpile of resources.
type Yields struct {
	Gold       int `json:"gold"`
	Science    int `json:"science"`
	Culture    int `json:"culture"`
	Production int `json:"production"`
	Food       int `json:"food"`
}

// Add returns the component-wise sum, clamped at zero.
func (y Yields) Add(o Yields) Yields {
	return Yields{
		Gold:       clamp(y.Gold + o.Gold),
		Science:    clamp(y.Science + o.Science),
		Culture:    clamp(y.Culture + o.Culture),
		Production: clamp(y.Production + o.Production),
		Food:       clamp(y.Food + o.Food),
	}
}

// Sub subtracts o and absorbs any deficit: no component drops below zero and
// the shortfall is not carried forward.
func (y Yields) Sub(o Yields) Yields {
	return Yields{
		Gold:       clamp(y.Gold - o.Gold),
		Science:    clamp(y.Science - o.Science),
		Culture:    clamp(y.Culture - o.Culture),
		Production: clamp(y.Production - o.Production),
		Food:       clamp(y.Food - o.Food),
	}
}

// Scale multiplies every component by n.
func (y Yields) Scale(n int) Yields {
	return Yields{
		Gold:       clamp(y.Gold * n),
		Science:    clamp(y.Science * n),
		Culture:    clamp(y.Culture * n),
		Production: clamp(y.Production * n),
		Food:       clamp(y.Food * n),
	}
}

// Total is the sum of all components, used for tile scoring.
func (y Yields) Total() int {
	return y.Gold + y.Science + y.Culture + y.Production + y.Food
}

// NonNegative reports whether the bundle satisfies the resource invariant.
func (y Yields) NonNegative() bool {
	return y.Gold >= 0 && y.Science >= 0 && y.Culture >= 0 && y.Production >= 0 && y.Food >= 0
}

func (y Yields) String() string {
	return fmt.Sprintf("gold=%d science=%d culture=%d production=%d food=%d",
		y.Gold, y.Science, y.Culture, y.Production, y.Food)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
