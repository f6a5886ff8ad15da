// Package units provides the unit data model, stat and promotion tables,
// the per-turn unit lifecycle, and combat resolution.
package units

import (
	"github.com/talgya/hexempire/internal/world"
)

// Kind is a closed set of unit types.
type Kind uint8

const (
	KindWarrior Kind = iota
	KindArcher
	KindSpearman
	KindHorseman
	KindSwordsman
	KindSettler
	KindScout
	KindWorker
)

// Stats are a unit's combat and movement values.
type Stats struct {
	Attack    int `json:"attack"`
	Defense   int `json:"defense"`
	Range     int `json:"range"` // 1 = melee
	Movement  int `json:"movement"`
	MaxHealth int `json:"max_health"`
	Sight     int `json:"sight"`
	Heal      int `json:"heal"` // HP regained per resting turn
}

type kindInfo struct {
	Name   string
	Stats  Stats
	Cost   int // production
	Upkeep int // gold per turn
}

var kindTable = map[Kind]kindInfo{
	KindWarrior:   {Name: "warrior", Stats: Stats{Attack: 6, Defense: 4, Range: 1, Movement: 1, MaxHealth: 100, Sight: 2, Heal: 10}, Cost: 20, Upkeep: 1},
	KindArcher:    {Name: "archer", Stats: Stats{Attack: 5, Defense: 3, Range: 2, Movement: 1, MaxHealth: 100, Sight: 2, Heal: 10}, Cost: 30, Upkeep: 1},
	KindSpearman:  {Name: "spearman", Stats: Stats{Attack: 4, Defense: 7, Range: 1, Movement: 1, MaxHealth: 100, Sight: 2, Heal: 10}, Cost: 30, Upkeep: 1},
	KindHorseman:  {Name: "horseman", Stats: Stats{Attack: 8, Defense: 3, Range: 1, Movement: 2, MaxHealth: 100, Sight: 2, Heal: 10}, Cost: 40, Upkeep: 1},
	KindSwordsman: {Name: "swordsman", Stats: Stats{Attack: 10, Defense: 6, Range: 1, Movement: 1, MaxHealth: 100, Sight: 2, Heal: 10}, Cost: 45, Upkeep: 2},
	KindSettler:   {Name: "settler", Stats: Stats{Movement: 2, MaxHealth: 100, Sight: 2, Heal: 10}, Cost: 50, Upkeep: 1},
	KindScout:     {Name: "scout", Stats: Stats{Attack: 2, Defense: 2, Range: 1, Movement: 3, MaxHealth: 60, Sight: 3, Heal: 10}, Cost: 15},
	KindWorker:    {Name: "worker", Stats: Stats{Movement: 2, MaxHealth: 100, Sight: 2, Heal: 10}, Cost: 25},
}

// Kinds lists every unit kind in declaration order.
var Kinds = []Kind{KindWarrior, KindArcher, KindSpearman, KindHorseman, KindSwordsman, KindSettler, KindScout, KindWorker}

func (k Kind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.Name
	}
	return "unknown"
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// BaseStats returns the unmodified stats for k.
func (k Kind) BaseStats() Stats { return kindTable[k].Stats }

// Cost returns the production cost of k.
func (k Kind) Cost() int { return kindTable[k].Cost }

// Upkeep returns the per-turn gold upkeep of k.
func (k Kind) Upkeep() int { return kindTable[k].Upkeep }

// Civilian reports whether k never fights.
func (k Kind) Civilian() bool {
	s := kindTable[k].Stats
	return s.Attack == 0 && s.Defense == 0
}

// ParseKind maps a name to a Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if kindTable[k].Name == name {
			return k, true
		}
	}
	return 0, false
}

// Order is a standing instruction processed at the start of each turn.
type Order uint8

const (
	OrderNone Order = iota
	OrderFortify
	OrderSleep
)

func (o Order) String() string {
	switch o {
	case OrderFortify:
		return "fortify"
	case OrderSleep:
		return "sleep"
	default:
		return "none"
	}
}

// ParseOrder maps a name to an Order.
func ParseOrder(name string) (Order, bool) {
	for _, o := range []Order{OrderNone, OrderFortify, OrderSleep} {
		if o.String() == name {
			return o, true
		}
	}
	return OrderNone, false
}

// Unit is a single unit on the map. Units are owned by the game state; tiles
// only hold back-references by id.
type Unit struct {
	ID      uint64         `json:"id"`
	Kind    Kind           `json:"kind"`
	OwnerID string         `json:"owner_id"`
	Position world.HexCoord `json:"position"`

	Health            int `json:"health"`
	MaxHealth         int `json:"max_health"`
	MovementPoints    int `json:"movement_points"`
	MaxMovementPoints int `json:"max_movement_points"`

	Experience int         `json:"experience"`
	Promotions []Promotion `json:"promotions"` // acquisition order

	Order        Order `json:"order"`
	FortifyTurns int   `json:"fortify_turns"`

	// Per-turn bookkeeping.
	Moved         bool `json:"moved"`
	Attacked      bool `json:"attacked"`
	MovedLastTurn bool `json:"moved_last_turn"`
}

// New creates a full-health unit of kind k.
func New(id uint64, k Kind, owner string, pos world.HexCoord) *Unit {
	s := k.BaseStats()
	return &Unit{
		ID:                id,
		Kind:              k,
		OwnerID:           owner,
		Position:          pos,
		Health:            s.MaxHealth,
		MaxHealth:         s.MaxHealth,
		MovementPoints:    s.Movement,
		MaxMovementPoints: s.Movement,
	}
}

// Clone returns a deep copy, preserving a nil promotion list.
func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Promotions != nil {
		cp.Promotions = append(make([]Promotion, 0, len(u.Promotions)), u.Promotions...)
	}
	return &cp
}
