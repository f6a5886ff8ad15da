// Package city provides the city model: buildings, the production queue,
// population growth, specialists, happiness, maintenance and city defense.
package city

import (
	"fmt"

	"github.com/talgya/hexempire/internal/economy"
	"github.com/talgya/hexempire/internal/units"
)

// Building is a closed set of city buildings.
type Building uint8

const (
	BuildingMonument Building = iota
	BuildingGranary
	BuildingBarracks
	BuildingLibrary
	BuildingMarket
	BuildingTemple
	BuildingWalls
	BuildingWorkshop
	BuildingColosseum
)

type buildingInfo struct {
	Name        string
	Cost        int
	Maintenance int
	Yields      economy.Yields
	Happiness   int
	Defense     int
}

var buildingTable = map[Building]buildingInfo{
	BuildingMonument:  {Name: "monument", Cost: 30, Yields: economy.Yields{Culture: 2}},
	BuildingGranary:   {Name: "granary", Cost: 40, Maintenance: 1, Yields: economy.Yields{Food: 2}},
	BuildingBarracks:  {Name: "barracks", Cost: 40, Maintenance: 1},
	BuildingLibrary:   {Name: "library", Cost: 60, Maintenance: 1, Yields: economy.Yields{Science: 3}},
	BuildingMarket:    {Name: "market", Cost: 60, Yields: economy.Yields{Gold: 3}},
	BuildingTemple:    {Name: "temple", Cost: 50, Maintenance: 1, Yields: economy.Yields{Culture: 1}, Happiness: 2},
	BuildingWalls:     {Name: "walls", Cost: 50, Maintenance: 1, Defense: 5},
	BuildingWorkshop:  {Name: "workshop", Cost: 60, Maintenance: 1, Yields: economy.Yields{Production: 2}},
	BuildingColosseum: {Name: "colosseum", Cost: 70, Maintenance: 2, Happiness: 3},
}

// Buildings lists every building in declaration order.
var Buildings = []Building{
	BuildingMonument, BuildingGranary, BuildingBarracks, BuildingLibrary, BuildingMarket,
	BuildingTemple, BuildingWalls, BuildingWorkshop, BuildingColosseum,
}

// unitRequirements lists buildings a city needs before training a unit kind.
var unitRequirements = map[units.Kind][]Building{
	units.KindArcher:    {BuildingBarracks},
	units.KindSpearman:  {BuildingBarracks},
	units.KindSwordsman: {BuildingBarracks},
}

func (b Building) String() string {
	if info, ok := buildingTable[b]; ok {
		return info.Name
	}
	return "unknown"
}

// Valid reports whether b is a known building.
func (b Building) Valid() bool {
	_, ok := buildingTable[b]
	return ok
}

// Cost returns the production cost of b.
func (b Building) Cost() int { return buildingTable[b].Cost }

// Maintenance returns the per-turn gold cost of b.
func (b Building) Maintenance() int { return buildingTable[b].Maintenance }

// Yields returns the flat per-turn bonus of b.
func (b Building) Yields() economy.Yields { return buildingTable[b].Yields }

// Happiness returns the happiness bonus of b.
func (b Building) Happiness() int { return buildingTable[b].Happiness }

// Defense returns the city defense bonus of b.
func (b Building) Defense() int { return buildingTable[b].Defense }

// ParseBuilding maps a name to a Building.
func ParseBuilding(name string) (Building, bool) {
	for _, b := range Buildings {
		if buildingTable[b].Name == name {
			return b, true
		}
	}
	return 0, false
}

// MarshalText encodes the building by name.
func (b Building) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("unknown building %d", uint8(b))
	}
	return []byte(b.String()), nil
}

func (b *Building) UnmarshalText(text []byte) error {
	v, ok := ParseBuilding(string(text))
	if !ok {
		return fmt.Errorf("unknown building %q", text)
	}
	*b = v
	return nil
}

// UnitRequirements returns the buildings needed to train k.
func UnitRequirements(k units.Kind) []Building {
	return unitRequirements[k]
}

// Specialist is a citizen assigned to a specialist job instead of a tile.
type Specialist uint8

const (
	SpecialistScientist Specialist = iota
	SpecialistMerchant
	SpecialistArtist
	SpecialistEngineer
)

// SpecialistBonus is the yield each specialist adds to its kind's output.
const SpecialistBonus = 3

func (s Specialist) String() string {
	switch s {
	case SpecialistScientist:
		return "scientist"
	case SpecialistMerchant:
		return "merchant"
	case SpecialistArtist:
		return "artist"
	case SpecialistEngineer:
		return "engineer"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known specialist kind.
func (s Specialist) Valid() bool { return s <= SpecialistEngineer }

// ParseSpecialist maps a name to a Specialist.
func ParseSpecialist(name string) (Specialist, bool) {
	for s := SpecialistScientist; s <= SpecialistEngineer; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Yields returns the bonus of one specialist of kind s.
func (s Specialist) Yields() economy.Yields {
	switch s {
	case SpecialistScientist:
		return economy.Yields{Science: SpecialistBonus}
	case SpecialistMerchant:
		return economy.Yields{Gold: SpecialistBonus}
	case SpecialistArtist:
		return economy.Yields{Culture: SpecialistBonus}
	case SpecialistEngineer:
		return economy.Yields{Production: SpecialistBonus}
	}
	return economy.Yields{}
}
