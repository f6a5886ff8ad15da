package game

import (
	"errors"

	"github.com/talgya/hexempire/internal/gameerr"
	"github.com/talgya/hexempire/internal/world"
)

// Validate checks the aggregate's structural invariants and returns every
// violation found as a *gameerr.Error of kind integrity. A nil result means
// the state is consistent.
func (s *GameState) Validate() []error {
	var errs []error
	fail := func(code gameerr.Code, format string, args ...any) {
		errs = append(errs, gameerr.Integrity(code, format, args...))
	}

	if s.Map == nil {
		fail(gameerr.CodeCorruptSnapshot, "state has no map")
		return errs
	}
	if len(s.Map.Tiles) != s.Map.Width*s.Map.Height {
		fail(gameerr.CodeCorruptSnapshot, "map has %d tiles, want %d", len(s.Map.Tiles), s.Map.Width*s.Map.Height)
		return errs
	}
	if s.Turn < 1 {
		fail(gameerr.CodeCorruptSnapshot, "turn %d is below 1", s.Turn)
	}

	players := make(map[string]*Player, len(s.Players))
	for _, p := range s.Players {
		if _, dup := players[p.ID]; dup {
			fail(gameerr.CodeDuplicateOwner, "player %q listed twice", p.ID)
		}
		players[p.ID] = p
		if !p.Resources.NonNegative() {
			fail(gameerr.CodeNegativeResource, "player %q has resources %s", p.ID, p.Resources)
		}
	}
	liveOwner := func(id string) bool {
		p, ok := players[id]
		return ok && p.Alive
	}

	// Occupant back-references.
	unitTiles := make(map[uint64]int)
	cityTiles := make(map[uint64]int)
	for i, t := range s.Map.Tiles {
		if t == nil {
			fail(gameerr.CodeCorruptSnapshot, "tile %d is missing", i)
			continue
		}
		if t.UnitID != 0 {
			unitTiles[t.UnitID]++
			u, ok := s.Units[t.UnitID]
			switch {
			case !ok:
				fail(gameerr.CodeOrphanedOccupant, "tile %s holds unknown unit %d", t.Coord, t.UnitID)
			case u.Position != t.Coord:
				fail(gameerr.CodeOrphanedOccupant, "tile %s holds unit %d positioned at %s", t.Coord, u.ID, u.Position)
			case !liveOwner(u.OwnerID):
				fail(gameerr.CodeOrphanedOccupant, "unit %d on %s has no live owner %q", u.ID, t.Coord, u.OwnerID)
			}
		}
		if t.CityID != 0 {
			cityTiles[t.CityID]++
			c, ok := s.Cities[t.CityID]
			switch {
			case !ok:
				fail(gameerr.CodeOrphanedOccupant, "tile %s holds unknown city %d", t.Coord, t.CityID)
			case c.Position != t.Coord:
				fail(gameerr.CodeOrphanedOccupant, "tile %s holds city %d positioned at %s", t.Coord, c.ID, c.Position)
			case !liveOwner(c.OwnerID):
				fail(gameerr.CodeOrphanedOccupant, "city %d on %s has no live owner %q", c.ID, t.Coord, c.OwnerID)
			}
			if t.UnitID != 0 && ok {
				if u, uok := s.Units[t.UnitID]; uok && u.OwnerID != c.OwnerID {
					fail(gameerr.CodeDuplicateOccupant, "enemy unit %d stands in city %d", u.ID, c.ID)
				}
			}
		}
	}
	for id, n := range unitTiles {
		if n > 1 {
			fail(gameerr.CodeDuplicateOccupant, "unit %d occupies %d tiles", id, n)
		}
	}
	for id, n := range cityTiles {
		if n > 1 {
			fail(gameerr.CodeDuplicateOccupant, "city %d occupies %d tiles", id, n)
		}
	}

	// Entity → tile and entity → owner references.
	unitOwners := make(map[uint64]string)
	cityOwners := make(map[uint64]string)
	for _, p := range s.Players {
		for _, id := range p.UnitIDs {
			if prev, dup := unitOwners[id]; dup {
				fail(gameerr.CodeDuplicateOwner, "unit %d owned by %q and %q", id, prev, p.ID)
				continue
			}
			unitOwners[id] = p.ID
			if _, ok := s.Units[id]; !ok {
				fail(gameerr.CodeDanglingReference, "player %q lists unknown unit %d", p.ID, id)
			}
		}
		for _, id := range p.CityIDs {
			if prev, dup := cityOwners[id]; dup {
				fail(gameerr.CodeDuplicateOwner, "city %d owned by %q and %q", id, prev, p.ID)
				continue
			}
			cityOwners[id] = p.ID
			if _, ok := s.Cities[id]; !ok {
				fail(gameerr.CodeDanglingReference, "player %q lists unknown city %d", p.ID, id)
			}
		}
	}
	for id, u := range s.Units {
		if u.ID != id {
			fail(gameerr.CodeCorruptSnapshot, "unit keyed %d has id %d", id, u.ID)
		}
		if unitOwners[id] != u.OwnerID {
			fail(gameerr.CodeDanglingReference, "unit %d owner %q does not list it", id, u.OwnerID)
		}
		if t := s.Map.Get(u.Position); t == nil || t.UnitID != id {
			fail(gameerr.CodeDanglingReference, "unit %d at %s is not on its tile", id, u.Position)
		}
		if u.Health <= 0 {
			fail(gameerr.CodeOrphanedOccupant, "unit %d is dead but present", id)
		}
	}
	for id, c := range s.Cities {
		if c.ID != id {
			fail(gameerr.CodeCorruptSnapshot, "city keyed %d has id %d", id, c.ID)
		}
		if cityOwners[id] != c.OwnerID {
			fail(gameerr.CodeDanglingReference, "city %d owner %q does not list it", id, c.OwnerID)
		}
		if t := s.Map.Get(c.Position); t == nil || t.CityID != id {
			fail(gameerr.CodeDanglingReference, "city %d at %s is not on its tile", id, c.Position)
		}
		if c.FoodStored < 0 || c.Population < 1 {
			fail(gameerr.CodeNegativeResource, "city %d has population %d and food %d", id, c.Population, c.FoodStored)
		}
	}

	// Territory: every claimed tile is listed by exactly its owner city.
	listed := make(map[world.HexCoord]uint64)
	for id, c := range s.Cities {
		for _, at := range c.Territory {
			if prev, dup := listed[at]; dup {
				fail(gameerr.CodeDuplicateOwner, "tile %s claimed by cities %d and %d", at, prev, id)
				continue
			}
			listed[at] = id
			if t := s.Map.Get(at); t == nil || t.OwnerCityID != id {
				fail(gameerr.CodeDanglingReference, "city %d lists %s but does not own it", id, at)
			}
		}
	}
	for _, t := range s.Map.Tiles {
		if t == nil || t.OwnerCityID == 0 {
			continue
		}
		if _, ok := listed[t.Coord]; !ok {
			fail(gameerr.CodeDanglingReference, "tile %s owned by city %d that does not list it", t.Coord, t.OwnerCityID)
		}
	}
	return errs
}

// ValidateGameState is the advisory boolean form of Validate.
func ValidateGameState(s *GameState) bool {
	return s != nil && len(s.Validate()) == 0
}

// Restore decodes a serialized state and refuses it when any invariant is
// broken. The returned error is a *gameerr.Error of kind integrity whose
// cause joins every violation.
func Restore(data []byte) (*GameState, error) {
	s, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if errs := s.Validate(); len(errs) > 0 {
		first := gameerr.CodeOf(errs[0])
		return nil, gameerr.Wrap(first, errors.Join(errs...))
	}
	return s, nil
}
