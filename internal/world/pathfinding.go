package world

import (
	"container/heap"
	"errors"
	"fmt"
)

var (
	// ErrNoPath means the destination cannot be reached at all.
	ErrNoPath = errors.New("no path")
	// ErrOverBudget means the cheapest path costs more than the budget.
	ErrOverBudget = fmt.Errorf("%w: movement budget exceeded", ErrNoPath)
)

// Unlimited disables the movement budget in FindPath.
const Unlimited = -1

// Path is a route from start to end inclusive, with the total cost of
// entering every tile after the start.
type Path struct {
	Steps []HexCoord `json:"steps"`
	Cost  int        `json:"cost"`
}

// BlockFunc reports tiles a mover may not enter, such as occupied ones.
type BlockFunc func(HexCoord) bool

type pathNode struct {
	coord HexCoord
	g     int // cost so far
	h     int // heuristic to goal
	seq   int // discovery order
	index int
}

// openSet orders by f = g + h, then lower h, then earlier discovery, so the
// result never depends on map iteration order.
type openSet []*pathNode

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	fi, fj := o[i].g+o[i].h, o[j].g+o[j].h
	if fi != fj {
		return fi < fj
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}

func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	return n
}

// FindPath runs A* from start to end where entering a tile costs its
// MoveCost. budget caps the total cost; pass Unlimited for none. blocked
// may be nil. Invalid coordinates return a *GeometryError.
func FindPath(m *Map, start, end HexCoord, budget int, blocked BlockFunc) (Path, error) {
	if _, err := m.Lookup(start); err != nil {
		return Path{}, err
	}
	goal, err := m.Lookup(end)
	if err != nil {
		return Path{}, err
	}
	if start == end {
		return Path{Steps: []HexCoord{start}}, nil
	}
	if !goal.Passable() || (blocked != nil && blocked(end)) {
		return Path{}, ErrNoPath
	}

	open := &openSet{}
	best := map[HexCoord]*pathNode{}
	cameFrom := map[HexCoord]HexCoord{}
	closed := map[HexCoord]bool{}
	seq := 0

	startNode := &pathNode{coord: start, h: Distance(start, end), seq: seq}
	best[start] = startNode
	heap.Push(open, startNode)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if closed[cur.coord] {
			continue
		}
		if cur.coord == end {
			path := Path{Steps: reconstruct(cameFrom, start, end), Cost: cur.g}
			if budget != Unlimited && path.Cost > budget {
				return Path{}, ErrOverBudget
			}
			return path, nil
		}
		closed[cur.coord] = true

		for _, nc := range m.Neighbors(cur.coord) {
			if closed[nc] {
				continue
			}
			if blocked != nil && nc != end && blocked(nc) {
				continue
			}
			cost, ok := m.Get(nc).MoveCost()
			if !ok {
				continue
			}
			g := cur.g + cost
			if prev, seen := best[nc]; seen && prev.g <= g {
				continue
			}
			seq++
			n := &pathNode{coord: nc, g: g, h: Distance(nc, end), seq: seq}
			best[nc] = n
			cameFrom[nc] = cur.coord
			heap.Push(open, n)
		}
	}
	return Path{}, ErrNoPath
}

func reconstruct(cameFrom map[HexCoord]HexCoord, start, end HexCoord) []HexCoord {
	steps := []HexCoord{end}
	for c := end; c != start; {
		c = cameFrom[c]
		steps = append(steps, c)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
