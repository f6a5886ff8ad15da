// Package game holds the single mutable aggregate of one game: the map, the
// players, and every unit and city, plus the technology tree.
package game

import (
	"time"

	"github.com/talgya/hexempire/internal/city"
	"github.com/talgya/hexempire/internal/units"
	"github.com/talgya/hexempire/internal/world"
)

// Phase is the game-level state machine position.
type Phase uint8

const (
	PhaseSetup Phase = iota
	PhasePlayerTurn
	PhaseBetweenTurns
	PhaseEndGame
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseBetweenTurns:
		return "between_turns"
	case PhaseEndGame:
		return "end_game"
	default:
		return "unknown"
	}
}

// VictoryType names the condition that ended the game.
type VictoryType string

const (
	VictoryNone       VictoryType = ""
	VictoryDomination VictoryType = "domination"
	VictoryScience    VictoryType = "science"
	VictoryCulture    VictoryType = "culture"
	VictoryScore      VictoryType = "score"
)

// Settings are the per-game rules fixed at creation.
type Settings struct {
	MapWidth        int `json:"map_width"`
	MapHeight       int `json:"map_height"`
	MinCityDistance int `json:"min_city_distance"`
	// StartMinDistance keeps opening positions apart.
	StartMinDistance int `json:"start_min_distance"`

	ScienceVictoryTechs  int `json:"science_victory_techs"`
	CultureVictoryPoints int `json:"culture_victory_points"`
	MaxTurns             int `json:"max_turns"` // 0 = no limit

	Simultaneous bool          `json:"simultaneous"`
	TurnTimeout  time.Duration `json:"turn_timeout"` // 0 = no timer
	StartingGold int           `json:"starting_gold"`
}

// DefaultSettings returns the standard rules for a w×h map.
func DefaultSettings(w, h int) Settings {
	return Settings{
		MapWidth:             w,
		MapHeight:            h,
		MinCityDistance:      3,
		StartMinDistance:     6,
		ScienceVictoryTechs:  len(Techs),
		CultureVictoryPoints: 1000,
		StartingGold:         20,
	}
}

// GameState is the aggregate of one game. Units and cities are owned here;
// players and tiles refer to them by id.
type GameState struct {
	ID    string `json:"id"`
	Turn  int    `json:"turn"`
	Phase Phase  `json:"phase"`

	// CurrentPlayerIndex indexes Players. Unused in simultaneous mode.
	CurrentPlayerIndex int `json:"current_player_index"`

	Map     *world.Map             `json:"map"`
	Players []*Player              `json:"players"` // turn order
	Units   map[uint64]*units.Unit `json:"units"`
	Cities  map[uint64]*city.City  `json:"cities"`

	NextUnitID uint64 `json:"next_unit_id"`
	NextCityID uint64 `json:"next_city_id"`

	// Seed and CombatCount select the combat dice stream, so a replay of the
	// same actions rolls the same numbers.
	Seed        int64  `json:"seed"`
	CombatCount uint64 `json:"combat_count"`
	// CityNames counts generated default city names.
	CityNames int `json:"city_names"`

	Winner      string      `json:"winner"`
	VictoryType VictoryType `json:"victory_type"`

	Settings Settings `json:"settings"`
}

// New returns an empty setup-phase state on m.
func New(id string, m *world.Map, settings Settings, seed int64) *GameState {
	return &GameState{
		ID:         id,
		Turn:       1,
		Phase:      PhaseSetup,
		Map:        m,
		Players:    []*Player{},
		Units:      make(map[uint64]*units.Unit),
		Cities:     make(map[uint64]*city.City),
		NextUnitID: 1,
		NextCityID: 1,
		Seed:       seed,
		Settings:   settings,
	}
}

// Player returns the player with id, or nil.
func (s *GameState) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerIndex returns the turn-order index of id, or -1.
func (s *GameState) PlayerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is, or nil in simultaneous
// mode.
func (s *GameState) CurrentPlayer() *Player {
	if s.Settings.Simultaneous || s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// UnitAt returns the unit on c, or nil.
func (s *GameState) UnitAt(c world.HexCoord) *units.Unit {
	t := s.Map.Get(c)
	if t == nil || t.UnitID == 0 {
		return nil
	}
	return s.Units[t.UnitID]
}

// CityAt returns the city on c, or nil.
func (s *GameState) CityAt(c world.HexCoord) *city.City {
	t := s.Map.Get(c)
	if t == nil || t.CityID == 0 {
		return nil
	}
	return s.Cities[t.CityID]
}

// AddUnit creates a unit of kind k for owner at pos and records it on the
// player and the tile. The caller checks the tile is free.
func (s *GameState) AddUnit(k units.Kind, owner string, pos world.HexCoord) *units.Unit {
	u := units.New(s.NextUnitID, k, owner, pos)
	s.NextUnitID++
	s.Units[u.ID] = u
	if p := s.Player(owner); p != nil {
		p.addUnit(u.ID)
	}
	if t := s.Map.Get(pos); t != nil {
		t.UnitID = u.ID
	}
	return u
}

// RemoveUnit deletes a unit and clears every reference to it.
func (s *GameState) RemoveUnit(id uint64) {
	u, ok := s.Units[id]
	if !ok {
		return
	}
	if t := s.Map.Get(u.Position); t != nil && t.UnitID == id {
		t.UnitID = 0
	}
	if p := s.Player(u.OwnerID); p != nil {
		p.removeUnit(id)
	}
	delete(s.Units, id)
}

// RelocateUnit moves a unit's tile back-reference. Unit.Move handles the
// unit's own position and movement points.
func (s *GameState) RelocateUnit(u *units.Unit, from, to world.HexCoord) {
	if t := s.Map.Get(from); t != nil && t.UnitID == u.ID {
		t.UnitID = 0
	}
	if t := s.Map.Get(to); t != nil {
		t.UnitID = u.ID
	}
}

// AddCity founds a city for owner at pos, claiming the tile.
func (s *GameState) AddCity(name, owner string, pos world.HexCoord) *city.City {
	c := city.New(s.NextCityID, name, owner, pos, s.Turn)
	s.NextCityID++
	s.Cities[c.ID] = c
	if p := s.Player(owner); p != nil {
		p.addCity(c.ID)
	}
	if t := s.Map.Get(pos); t != nil {
		if prev, ok := s.Cities[t.OwnerCityID]; ok && prev != c {
			prev.Release(pos)
		}
		t.CityID = c.ID
		t.OwnerCityID = c.ID
	}
	return c
}

// TransferCity hands a captured city to newOwner.
func (s *GameState) TransferCity(c *city.City, newOwner string) {
	if p := s.Player(c.OwnerID); p != nil {
		p.removeCity(c.ID)
	}
	c.Capture(newOwner)
	if p := s.Player(newOwner); p != nil {
		p.addCity(c.ID)
	}
}

// TerritoryOwner returns the owner of the city whose territory covers c, or
// "" for unclaimed tiles.
func (s *GameState) TerritoryOwner(c world.HexCoord) string {
	t := s.Map.Get(c)
	if t == nil || t.OwnerCityID == 0 {
		return ""
	}
	if cty, ok := s.Cities[t.OwnerCityID]; ok {
		return cty.OwnerID
	}
	return ""
}

// UnitsOf returns a player's units in id order.
func (s *GameState) UnitsOf(p *Player) []*units.Unit {
	out := make([]*units.Unit, 0, len(p.UnitIDs))
	for _, id := range p.UnitIDs {
		if u, ok := s.Units[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// CitiesOf returns a player's cities in founding order.
func (s *GameState) CitiesOf(p *Player) []*city.City {
	out := make([]*city.City, 0, len(p.CityIDs))
	for _, id := range p.CityIDs {
		if c, ok := s.Cities[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ComputeScore is 10 per city, plus population, plus 4 per technology, plus
// one per 50 culture.
func (s *GameState) ComputeScore(p *Player) int {
	score := 4*len(p.Researched) + p.Resources.Culture/50
	for _, c := range s.CitiesOf(p) {
		score += 10 + c.Population
	}
	return score
}

// GameOver reports whether the game has reached its terminal phase.
func (s *GameState) GameOver() bool {
	return s.Phase == PhaseEndGame
}

// Clone returns a deep copy sharing no mutable data with s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Map = s.Map.Clone()
	if s.Players != nil {
		cp.Players = make([]*Player, len(s.Players))
		for i, p := range s.Players {
			cp.Players[i] = p.Clone()
		}
	}
	if s.Units != nil {
		cp.Units = make(map[uint64]*units.Unit, len(s.Units))
		for id, u := range s.Units {
			cp.Units[id] = u.Clone()
		}
	}
	if s.Cities != nil {
		cp.Cities = make(map[uint64]*city.City, len(s.Cities))
		for id, c := range s.Cities {
			cp.Cities[id] = c.Clone()
		}
	}
	return &cp
}
