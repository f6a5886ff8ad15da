package game

import (
	"fmt"

	"github.com/talgya/hexempire/internal/city"
	"github.com/talgya/hexempire/internal/units"
	"github.com/talgya/hexempire/internal/world"
)

// Tech is a closed set of researchable technologies.
type Tech uint8

const (
	TechPottery Tech = iota
	TechAnimalHusbandry
	TechArchery
	TechMining
	TechMasonry
	TechMysticism
	TechBronzeWorking
	TechWriting
	TechHorsebackRiding
	TechIronWorking
	TechCurrency
	TechMathematics
	TechConstruction
	TechPhilosophy
)

type techInfo struct {
	Name         string
	Cost         int
	Prereqs      []Tech
	Buildings    []city.Building
	Units        []units.Kind
	Improvements []world.Improvement
}

var techTable = map[Tech]techInfo{
	TechPottery:         {Name: "pottery", Cost: 20, Buildings: []city.Building{city.BuildingGranary}},
	TechAnimalHusbandry: {Name: "animal_husbandry", Cost: 20, Improvements: []world.Improvement{world.ImprovementPasture}},
	TechArchery:         {Name: "archery", Cost: 25, Units: []units.Kind{units.KindArcher}},
	TechMining:          {Name: "mining", Cost: 20, Improvements: []world.Improvement{world.ImprovementMine}},
	TechMasonry:         {Name: "masonry", Cost: 25, Buildings: []city.Building{city.BuildingWalls}},
	TechMysticism:       {Name: "mysticism", Cost: 25, Buildings: []city.Building{city.BuildingTemple}},
	TechBronzeWorking:   {Name: "bronze_working", Cost: 35, Prereqs: []Tech{TechMining}, Units: []units.Kind{units.KindSpearman}},
	TechWriting:         {Name: "writing", Cost: 35, Prereqs: []Tech{TechPottery}, Buildings: []city.Building{city.BuildingLibrary}},
	TechHorsebackRiding: {Name: "horseback_riding", Cost: 35, Prereqs: []Tech{TechAnimalHusbandry}, Units: []units.Kind{units.KindHorseman}},
	TechIronWorking:     {Name: "iron_working", Cost: 50, Prereqs: []Tech{TechBronzeWorking}, Units: []units.Kind{units.KindSwordsman}},
	TechCurrency:        {Name: "currency", Cost: 50, Prereqs: []Tech{TechBronzeWorking}, Buildings: []city.Building{city.BuildingMarket}},
	TechMathematics:     {Name: "mathematics", Cost: 60, Prereqs: []Tech{TechWriting, TechMasonry}, Buildings: []city.Building{city.BuildingWorkshop}},
	TechConstruction:    {Name: "construction", Cost: 70, Prereqs: []Tech{TechMasonry, TechCurrency}, Buildings: []city.Building{city.BuildingColosseum}},
	TechPhilosophy:      {Name: "philosophy", Cost: 90, Prereqs: []Tech{TechMathematics, TechMysticism}},
}

// Techs lists every technology in declaration order.
var Techs = []Tech{
	TechPottery, TechAnimalHusbandry, TechArchery, TechMining, TechMasonry, TechMysticism,
	TechBronzeWorking, TechWriting, TechHorsebackRiding, TechIronWorking, TechCurrency,
	TechMathematics, TechConstruction, TechPhilosophy,
}

func (t Tech) String() string {
	if info, ok := techTable[t]; ok {
		return info.Name
	}
	return "unknown"
}

// Valid reports whether t is a known technology.
func (t Tech) Valid() bool {
	_, ok := techTable[t]
	return ok
}

// Cost returns the science cost of t.
func (t Tech) Cost() int { return techTable[t].Cost }

// Prereqs returns the technologies t requires.
func (t Tech) Prereqs() []Tech { return techTable[t].Prereqs }

// ParseTech maps a name to a Tech.
func ParseTech(name string) (Tech, bool) {
	for _, t := range Techs {
		if techTable[t].Name == name {
			return t, true
		}
	}
	return 0, false
}

// MarshalText encodes the tech by name.
func (t Tech) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown tech %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Tech) UnmarshalText(text []byte) error {
	v, ok := ParseTech(string(text))
	if !ok {
		return fmt.Errorf("unknown tech %q", text)
	}
	*t = v
	return nil
}

// RequiredTech returns the tech unlocking a production item, if any.
func RequiredTech(item city.Item) (Tech, bool) {
	for _, t := range Techs {
		info := techTable[t]
		switch item.Kind {
		case city.ItemBuilding:
			for _, b := range info.Buildings {
				if b == item.Building {
					return t, true
				}
			}
		case city.ItemUnit:
			for _, k := range info.Units {
				if k == item.Unit {
					return t, true
				}
			}
		}
	}
	return 0, false
}

// ImprovementTech returns the tech unlocking a tile improvement, if any.
func ImprovementTech(imp world.Improvement) (Tech, bool) {
	for _, t := range Techs {
		for _, i := range techTable[t].Improvements {
			if i == imp {
				return t, true
			}
		}
	}
	return 0, false
}
