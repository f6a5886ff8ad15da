package city

import (
	"errors"

	"github.com/talgya/hexempire/internal/economy"
	"github.com/talgya/hexempire/internal/world"
)

const (
	// BaseHealth is a city's health before building bonuses.
	BaseHealth = 100
	// HealPerTurn is the health a damaged city regains each turn advance.
	HealPerTurn = 10
	// BaseHappiness before buildings and population.
	BaseHappiness = 4
)

var (
	ErrSpecialistLimit   = errors.New("no free citizen for a specialist")
	ErrNoSpecialist      = errors.New("no specialist of that kind")
	ErrUnknownSpecialist = errors.New("unknown specialist")
)

// City is a settlement owned by a player.
type City struct {
	ID       uint64         `json:"id"`
	Name     string         `json:"name"`
	OwnerID  string         `json:"owner_id"`
	Position world.HexCoord `json:"position"`

	Population int `json:"population"`
	Health     int `json:"health"`
	MaxHealth  int `json:"max_health"`

	Buildings []Building `json:"buildings"` // construction order

	CurrentProduction  *Item  `json:"current_production"`
	ProductionProgress int    `json:"production_progress"`
	ProductionQueue    []Item `json:"production_queue"` // FIFO

	FoodStored  int                `json:"food_stored"`
	Territory   []world.HexCoord   `json:"territory"`
	Specialists map[Specialist]int `json:"specialists"`

	FoundedTurn int `json:"founded_turn"`
}

// New founds a population-1 city at pos. Territory starts with the city tile.
func New(id uint64, name, owner string, pos world.HexCoord, turn int) *City {
	return &City{
		ID:          id,
		Name:        name,
		OwnerID:     owner,
		Position:    pos,
		Population:  1,
		Health:      BaseHealth,
		MaxHealth:   BaseHealth,
		Territory:   []world.HexCoord{pos},
		Specialists: make(map[Specialist]int),
		FoundedTurn: turn,
	}
}

// HasBuilding reports whether b has been constructed.
func (c *City) HasBuilding(b Building) bool {
	for _, have := range c.Buildings {
		if have == b {
			return true
		}
	}
	return false
}

// CalculateOutput returns the city's per-turn yields: food = 2·pop and the
// rest = pop, plus flat building bonuses and specialist bonuses.
func (c *City) CalculateOutput() economy.Yields {
	out := economy.Yields{
		Food:       2 * c.Population,
		Gold:       c.Population,
		Science:    c.Population,
		Culture:    c.Population,
		Production: c.Population,
	}
	for _, b := range c.Buildings {
		out = out.Add(b.Yields())
	}
	for s := SpecialistScientist; s <= SpecialistEngineer; s++ {
		if n := c.Specialists[s]; n > 0 {
			out = out.Add(s.Yields().Scale(n))
		}
	}
	return out
}

// CalculateMaintenance is the gold the city costs each turn.
func (c *City) CalculateMaintenance() int {
	total := c.Population / 2
	for _, b := range c.Buildings {
		total += b.Maintenance()
	}
	return total
}

// Happiness is base 4 plus building bonuses minus one per four citizens.
func (c *City) Happiness() int {
	h := BaseHappiness - c.Population/4
	for _, b := range c.Buildings {
		h += b.Happiness()
	}
	return h
}

// GrowthThreshold is the food needed to grow from pop. It strictly increases
// with population.
func GrowthThreshold(pop int) int {
	return 15*pop + 15
}

// ProcessGrowth stores food and grows the city by one when the threshold is
// reached. Population never decreases here. Returns true when the city grew.
func (c *City) ProcessGrowth(food int) bool {
	c.FoodStored += food
	if c.FoodStored < 0 {
		c.FoodStored = 0
	}
	threshold := GrowthThreshold(c.Population)
	if c.FoodStored < threshold {
		return false
	}
	c.Population++
	c.FoodStored = 0
	return true
}

// SpecialistCount returns the number of assigned specialists.
func (c *City) SpecialistCount() int {
	n := 0
	for _, v := range c.Specialists {
		n += v
	}
	return n
}

// AssignSpecialist moves a citizen to a specialist job. One citizen always
// works the city tile, so at most population-1 specialists.
func (c *City) AssignSpecialist(s Specialist) error {
	if !s.Valid() {
		return ErrUnknownSpecialist
	}
	if c.SpecialistCount() >= c.Population-1 {
		return ErrSpecialistLimit
	}
	if c.Specialists == nil {
		c.Specialists = make(map[Specialist]int)
	}
	c.Specialists[s]++
	return nil
}

// RemoveSpecialist returns a specialist of kind s to the tiles.
func (c *City) RemoveSpecialist(s Specialist) error {
	if !s.Valid() {
		return ErrUnknownSpecialist
	}
	if c.Specialists[s] == 0 {
		return ErrNoSpecialist
	}
	c.Specialists[s]--
	if c.Specialists[s] == 0 {
		delete(c.Specialists, s)
	}
	return nil
}

// InTerritory reports whether coord is one of the city's tiles.
func (c *City) InTerritory(coord world.HexCoord) bool {
	for _, t := range c.Territory {
		if t == coord {
			return true
		}
	}
	return false
}

// Claim adds coord to the territory.
func (c *City) Claim(coord world.HexCoord) {
	if !c.InTerritory(coord) {
		c.Territory = append(c.Territory, coord)
	}
}

// Release drops coord from the territory. The city tile itself is never
// released.
func (c *City) Release(coord world.HexCoord) {
	if coord == c.Position {
		return
	}
	for i, t := range c.Territory {
		if t == coord {
			c.Territory = append(c.Territory[:i], c.Territory[i+1:]...)
			return
		}
	}
}

// DefenseStrength is 5 + 2·population + building defense.
func (c *City) DefenseStrength() int {
	d := 5 + 2*c.Population
	for _, b := range c.Buildings {
		d += b.Defense()
	}
	return d
}

// CanCounter is true while the city stands.
func (c *City) CanCounter() bool { return c.Health > 0 }

// TakeDamage lowers health, clamped to [0, MaxHealth].
func (c *City) TakeDamage(n int) {
	c.Health -= n
	if c.Health < 0 {
		c.Health = 0
	}
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
}

// HealthPoints returns current health.
func (c *City) HealthPoints() int { return c.Health }

// Heal restores HealPerTurn health.
func (c *City) Heal() {
	c.Health = min(c.Health+HealPerTurn, c.MaxHealth)
}

// Capture transfers the city to newOwner. Health resets to a quarter,
// production and specialists are cleared, and the city loses a citizen.
func (c *City) Capture(newOwner string) {
	c.OwnerID = newOwner
	c.Health = c.MaxHealth / 4
	c.CurrentProduction = nil
	c.ProductionProgress = 0
	c.ProductionQueue = nil
	c.Specialists = make(map[Specialist]int)
	if c.Population > 1 {
		c.Population--
	}
	c.FoodStored = 0
}

// refreshMaxHealth adds 10 health per point of building defense.
func (c *City) refreshMaxHealth() {
	maxHealth := BaseHealth
	for _, b := range c.Buildings {
		maxHealth += 10 * b.Defense()
	}
	if maxHealth > c.MaxHealth {
		c.Health += maxHealth - c.MaxHealth
	}
	c.MaxHealth = maxHealth
}

// Clone returns a deep copy, preserving nil versus empty collections.
func (c *City) Clone() *City {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Buildings != nil {
		cp.Buildings = append(make([]Building, 0, len(c.Buildings)), c.Buildings...)
	}
	if c.CurrentProduction != nil {
		item := *c.CurrentProduction
		cp.CurrentProduction = &item
	}
	if c.ProductionQueue != nil {
		cp.ProductionQueue = append(make([]Item, 0, len(c.ProductionQueue)), c.ProductionQueue...)
	}
	if c.Territory != nil {
		cp.Territory = append(make([]world.HexCoord, 0, len(c.Territory)), c.Territory...)
	}
	if c.Specialists != nil {
		cp.Specialists = make(map[Specialist]int, len(c.Specialists))
		for k, v := range c.Specialists {
			cp.Specialists[k] = v
		}
	}
	return &cp
}
