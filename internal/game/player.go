package game

import (
	"github.com/talgya/hexempire/internal/economy"
)

// Player is one participant. Entity ids refer into GameState.Units and
// GameState.Cities.
type Player struct {
	ID           string         `json:"id"`
	Civilization string         `json:"civilization"`
	Resources    economy.Yields `json:"resources"`
	Researched   []Tech         `json:"researched"` // research order
	UnitIDs      []uint64       `json:"unit_ids"`
	CityIDs      []uint64       `json:"city_ids"`
	Score        int            `json:"score"`
	Alive        bool           `json:"alive"`

	// EndedTurn is set when the player has ended the current turn.
	EndedTurn bool `json:"ended_turn"`
	// FoundedCity records that the player has owned a city at some point.
	FoundedCity bool `json:"founded_city"`
}

// NewPlayer returns a living player with starting gold.
func NewPlayer(id, civ string, startingGold int) *Player {
	return &Player{
		ID:           id,
		Civilization: civ,
		Resources:    economy.Yields{Gold: startingGold},
		UnitIDs:      []uint64{},
		CityIDs:      []uint64{},
		Alive:        true,
	}
}

// HasTech reports whether t has been researched.
func (p *Player) HasTech(t Tech) bool {
	for _, have := range p.Researched {
		if have == t {
			return true
		}
	}
	return false
}

// MissingPrereqs returns the prerequisites of t the player lacks.
func (p *Player) MissingPrereqs(t Tech) []Tech {
	var missing []Tech
	for _, req := range t.Prereqs() {
		if !p.HasTech(req) {
			missing = append(missing, req)
		}
	}
	return missing
}

func (p *Player) addUnit(id uint64) {
	p.UnitIDs = append(p.UnitIDs, id)
}

func (p *Player) removeUnit(id uint64) {
	p.UnitIDs = removeID(p.UnitIDs, id)
}

func (p *Player) addCity(id uint64) {
	p.CityIDs = append(p.CityIDs, id)
	p.FoundedCity = true
}

func (p *Player) removeCity(id uint64) {
	p.CityIDs = removeID(p.CityIDs, id)
}

func removeID(ids []uint64, id uint64) []uint64 {
	for i, have := range ids {
		if have == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// Clone returns a deep copy, preserving nil versus empty slices.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Researched = cloneSlice(p.Researched)
	cp.UnitIDs = cloneSlice(p.UnitIDs)
	cp.CityIDs = cloneSlice(p.CityIDs)
	return &cp
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
