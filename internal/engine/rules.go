package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/hexempire/internal/city"
	"github.com/talgya/hexempire/internal/entropy"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
	"github.com/talgya/hexempire/internal/units"
	"github.com/talgya/hexempire/internal/world"
)

// actionContext carries one action's working copy and its side outputs.
type actionContext struct {
	state    *game.GameState
	player   *game.Player
	events   []Event
	combat   *units.CombatResult
	advanced bool
}

func (c *actionContext) record(category, format string, args ...any) {
	c.events = append(c.events, Event{
		Turn:        c.state.Turn,
		Category:    category,
		Description: fmt.Sprintf(format, args...),
	})
}

// tile resolves a coordinate or returns a validation error.
func (c *actionContext) tile(at world.HexCoord) (*world.Tile, *gameerr.Error) {
	if !at.Valid() {
		return nil, gameerr.Validation(gameerr.CodeInvalidCoordinate, "%s", at)
	}
	t := c.state.Map.Get(at)
	if t == nil {
		return nil, gameerr.Validation(gameerr.CodeOutOfBounds, "%s", at)
	}
	return t, nil
}

// ownUnit returns the acting player's unit on at.
func (c *actionContext) ownUnit(at world.HexCoord) (*units.Unit, *world.Tile, *gameerr.Error) {
	t, err := c.tile(at)
	if err != nil {
		return nil, nil, err
	}
	u := c.state.Units[t.UnitID]
	if t.UnitID == 0 || u == nil {
		return nil, nil, gameerr.Newf(gameerr.CodeNoUnit, "%s", at)
	}
	if u.OwnerID != c.player.ID {
		return nil, nil, gameerr.Newf(gameerr.CodeNotOwner, "unit %d belongs to %s", u.ID, u.OwnerID)
	}
	return u, t, nil
}

// ownCity returns the acting player's city with id.
func (c *actionContext) ownCity(id uint64) (*city.City, *gameerr.Error) {
	cty, ok := c.state.Cities[id]
	if !ok {
		return nil, gameerr.Newf(gameerr.CodeNoCity, "city %d", id)
	}
	if cty.OwnerID != c.player.ID {
		return nil, gameerr.Newf(gameerr.CodeNotOwner, "city %d belongs to %s", id, cty.OwnerID)
	}
	return cty, nil
}

func (c *actionContext) moveUnit(a MoveUnit) *gameerr.Error {
	u, _, err := c.ownUnit(a.From)
	if err != nil {
		return err
	}
	dest, err := c.tile(a.To)
	if err != nil {
		return err
	}
	if a.From == a.To {
		return gameerr.Validation(gameerr.CodeMalformedAction, "destination equals origin")
	}
	if dest.UnitID != 0 {
		return gameerr.Newf(gameerr.CodeOccupied, "%s", a.To)
	}
	if dest.CityID != 0 && c.state.Cities[dest.CityID].OwnerID != c.player.ID {
		return gameerr.Newf(gameerr.CodeOccupied, "enemy city on %s", a.To)
	}
	if !dest.Passable() {
		return gameerr.Newf(gameerr.CodeImpassable, "%s is %s", a.To, dest.Terrain)
	}
	if !u.CanMove() {
		return gameerr.Newf(gameerr.CodeInsufficientMovement, "unit %d has no movement left", u.ID)
	}

	path, perr := world.FindPath(c.state.Map, a.From, a.To, u.MovementPoints, c.blocker())
	switch {
	case errors.Is(perr, world.ErrOverBudget):
		return gameerr.Newf(gameerr.CodeInsufficientMovement, "path to %s costs more than %d", a.To, u.MovementPoints)
	case perr != nil:
		return gameerr.Newf(gameerr.CodeImpassable, "no path to %s", a.To)
	}
	if merr := u.Move(a.To, path.Cost); merr != nil {
		return gameerr.Wrap(gameerr.CodeInsufficientMovement, merr)
	}
	c.state.RelocateUnit(u, a.From, a.To)
	c.record("move", "%s %s moved %s -> %s", c.player.ID, u.Kind, a.From, a.To)
	return nil
}

// blocker stops paths at other units and at enemy cities.
func (c *actionContext) blocker() world.BlockFunc {
	return func(h world.HexCoord) bool {
		t := c.state.Map.Get(h)
		if t.UnitID != 0 {
			return true
		}
		if t.CityID != 0 {
			if cty, ok := c.state.Cities[t.CityID]; ok && cty.OwnerID != c.player.ID {
				return true
			}
		}
		return false
	}
}

func (c *actionContext) attack(a Attack) *gameerr.Error {
	att, _, err := c.ownUnit(a.From)
	if err != nil {
		return err
	}
	target, err := c.tile(a.Target)
	if err != nil {
		return err
	}
	if att.HasActed() {
		return gameerr.Newf(gameerr.CodeAlreadyActed, "unit %d", att.ID)
	}
	if !att.CanAttack() {
		return gameerr.Newf(gameerr.CodeNotCombatant, "%s", att.Kind)
	}

	var (
		defUnit *units.Unit
		defCity *city.City
	)
	switch {
	case target.UnitID != 0:
		defUnit = c.state.Units[target.UnitID]
		if defUnit.OwnerID == c.player.ID {
			return gameerr.Newf(gameerr.CodeFriendlyFire, "unit %d", defUnit.ID)
		}
	case target.CityID != 0:
		defCity = c.state.Cities[target.CityID]
		if defCity.OwnerID == c.player.ID {
			return gameerr.Newf(gameerr.CodeFriendlyFire, "city %s", defCity.Name)
		}
	default:
		return gameerr.Newf(gameerr.CodeNoTarget, "%s", a.Target)
	}

	stats := att.CombatStats()
	if dist := world.Distance(a.From, a.Target); dist > stats.Range {
		return gameerr.Newf(gameerr.CodeOutOfRange, "distance %d, range %d", dist, stats.Range)
	}

	dice := entropy.Combat(c.state.Seed, c.state.CombatCount)
	c.state.CombatCount++

	var res units.CombatResult
	if defUnit != nil {
		res = units.ResolveCombat(att, defUnit, target.DefenseBonus(), dice)
		c.record("combat", "%s %s hit %s %s for %d (counter %d)",
			att.OwnerID, att.Kind, defUnit.OwnerID, defUnit.Kind, res.Damage, res.CounterDamage)
		if res.DefenderKilled {
			c.state.RemoveUnit(defUnit.ID)
			c.record("combat", "%s %s destroyed at %s", defUnit.OwnerID, defUnit.Kind, a.Target)
		}
	} else {
		res = units.ResolveCombat(att, defCity, 0, dice)
		c.record("combat", "%s %s hit %s for %d (counter %d)",
			att.OwnerID, att.Kind, defCity.Name, res.Damage, res.CounterDamage)
		if res.DefenderKilled {
			if res.Ranged {
				defCity.Health = 1
				res.DefenderKilled = false
			} else if att.Alive() {
				c.capture(att, defCity, a.From)
			}
		}
	}

	if res.AttackerKilled {
		c.state.RemoveUnit(att.ID)
		c.record("combat", "%s %s destroyed at %s", att.OwnerID, att.Kind, a.From)
	}
	c.combat = &res
	return nil
}

// capture transfers cty to the attacker, who moves into it.
func (c *actionContext) capture(att *units.Unit, cty *city.City, from world.HexCoord) {
	prev := cty.OwnerID
	c.state.TransferCity(cty, att.OwnerID)
	att.Position = cty.Position
	c.state.RelocateUnit(att, from, cty.Position)
	c.record("city", "%s captured %s from %s", att.OwnerID, cty.Name, prev)
}

func (c *actionContext) foundCity(a FoundCity) *gameerr.Error {
	u, t, err := c.ownUnit(a.Position)
	if err != nil {
		return err
	}
	if u.Kind != units.KindSettler {
		return gameerr.Newf(gameerr.CodeNotSettler, "%s", u.Kind)
	}
	if t.IsWater() {
		return gameerr.Newf(gameerr.CodeWater, "%s is %s", a.Position, t.Terrain)
	}
	if !t.Passable() {
		return gameerr.Newf(gameerr.CodeImpassable, "%s", a.Position)
	}
	for _, other := range c.state.Cities {
		if d := world.Distance(other.Position, a.Position); d < c.state.Settings.MinCityDistance || d == 0 {
			return gameerr.Newf(gameerr.CodeTooCloseToCity, "%s is %d from %s", a.Position, d, other.Name)
		}
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = world.CityName(c.state.Seed, c.state.CityNames)
		c.state.CityNames++
	}

	c.state.RemoveUnit(u.ID)
	cty := c.state.AddCity(name, c.player.ID, a.Position)
	for _, n := range c.state.Map.Neighbors(a.Position) {
		claim(c.state, cty, n)
	}
	c.record("city", "%s founded %s at %s", c.player.ID, name, a.Position)
	return nil
}

// claim adds an unclaimed tile to cty's territory.
func claim(s *game.GameState, cty *city.City, at world.HexCoord) bool {
	t := s.Map.Get(at)
	if t == nil || t.OwnerCityID != 0 {
		return false
	}
	t.OwnerCityID = cty.ID
	cty.Claim(at)
	return true
}

// productionItem parses an item and checks the player's technology.
func (c *actionContext) productionItem(name string) (city.Item, *gameerr.Error) {
	item, err := city.ParseItem(name)
	if err != nil {
		return city.Item{}, gameerr.Validation(gameerr.CodeUnknownItem, "%q", name)
	}
	if tech, ok := game.RequiredTech(item); ok && !c.player.HasTech(tech) {
		return city.Item{}, gameerr.Newf(gameerr.CodeMissingPrerequisite, "%s needs %s", item, tech)
	}
	return item, nil
}

func productionError(err error) *gameerr.Error {
	switch {
	case errors.Is(err, city.ErrAlreadyBuilt):
		return gameerr.Wrap(gameerr.CodeAlreadyBuilt, err)
	case errors.Is(err, city.ErrAlreadyQueued):
		return gameerr.Wrap(gameerr.CodeAlreadyBuilt, err)
	case errors.Is(err, city.ErrMissingPrerequisite):
		return gameerr.Wrap(gameerr.CodeMissingPrerequisite, err)
	default:
		return gameerr.Wrap(gameerr.CodeUnknownItem, err)
	}
}

func (c *actionContext) changeProduction(a ChangeProduction) *gameerr.Error {
	cty, err := c.ownCity(a.CityID)
	if err != nil {
		return err
	}
	item, err := c.productionItem(a.Item)
	if err != nil {
		return err
	}
	if perr := cty.StartProduction(item); perr != nil {
		return productionError(perr)
	}
	c.record("production", "%s now producing %s", cty.Name, item)
	return nil
}

func (c *actionContext) queueProduction(a QueueProduction) *gameerr.Error {
	cty, err := c.ownCity(a.CityID)
	if err != nil {
		return err
	}
	item, err := c.productionItem(a.Item)
	if err != nil {
		return err
	}
	if perr := cty.AddToProductionQueue(item); perr != nil {
		return productionError(perr)
	}
	c.record("production", "%s queued %s", cty.Name, item)
	return nil
}

func (c *actionContext) buildImprovement(a BuildImprovement) *gameerr.Error {
	b, ok := city.ParseBuilding(a.Building)
	if !ok {
		return gameerr.Validation(gameerr.CodeUnknownItem, "%q", a.Building)
	}
	return c.queueProduction(QueueProduction{CityID: a.CityID, Item: city.BuildingItem(b).String()})
}

func (c *actionContext) research(a ResearchTechnology) *gameerr.Error {
	tech, ok := game.ParseTech(a.Tech)
	if !ok {
		return gameerr.Validation(gameerr.CodeUnknownItem, "tech %q", a.Tech)
	}
	p := c.player
	if p.HasTech(tech) {
		return gameerr.Newf(gameerr.CodeAlreadyResearched, "%s", tech)
	}
	if missing := p.MissingPrereqs(tech); len(missing) > 0 {
		return gameerr.Newf(gameerr.CodeMissingPrerequisite, "%s needs %v", tech, missing)
	}
	if p.Resources.Science < tech.Cost() {
		return gameerr.Newf(gameerr.CodeInsufficientScience, "%s costs %d, have %d", tech, tech.Cost(), p.Resources.Science)
	}
	p.Resources.Science -= tech.Cost()
	p.Researched = append(p.Researched, tech)
	c.record("research", "%s researched %s", p.ID, tech)
	return nil
}

func (c *actionContext) promote(a PromoteUnit) *gameerr.Error {
	u, _, err := c.ownUnit(a.At)
	if err != nil {
		return err
	}
	promo, ok := units.ParsePromotion(a.Promotion)
	if !ok {
		return gameerr.Validation(gameerr.CodeUnknownItem, "promotion %q", a.Promotion)
	}
	if perr := u.Promote(promo); perr != nil {
		switch {
		case errors.Is(perr, units.ErrNoPromotionAvailable):
			return gameerr.Wrap(gameerr.CodeNoPromotionAvailable, perr)
		case errors.Is(perr, units.ErrAlreadyPromoted):
			return gameerr.Wrap(gameerr.CodeAlreadyPromoted, perr)
		case errors.Is(perr, units.ErrCivilian):
			return gameerr.Wrap(gameerr.CodeNotCombatant, perr)
		default:
			return gameerr.Wrap(gameerr.CodeUnknownItem, perr)
		}
	}
	c.record("unit", "%s %s promoted: %s", u.OwnerID, u.Kind, promo)
	return nil
}

func (c *actionContext) setOrder(a SetOrder) *gameerr.Error {
	u, _, err := c.ownUnit(a.At)
	if err != nil {
		return err
	}
	order, ok := units.ParseOrder(a.Order)
	if !ok {
		return gameerr.Validation(gameerr.CodeMalformedAction, "order %q", a.Order)
	}
	if order == units.OrderFortify && u.Kind.Civilian() {
		return gameerr.Newf(gameerr.CodeNotCombatant, "%s cannot fortify", u.Kind)
	}
	u.SetOrder(order)
	return nil
}

func (c *actionContext) specialistFor(cityID uint64, name string) (*city.City, city.Specialist, *gameerr.Error) {
	cty, err := c.ownCity(cityID)
	if err != nil {
		return nil, 0, err
	}
	sp, ok := city.ParseSpecialist(name)
	if !ok {
		return nil, 0, gameerr.Validation(gameerr.CodeUnknownItem, "specialist %q", name)
	}
	return cty, sp, nil
}

func (c *actionContext) assignSpecialist(a AssignSpecialist) *gameerr.Error {
	cty, sp, err := c.specialistFor(a.CityID, a.Specialist)
	if err != nil {
		return err
	}
	if serr := cty.AssignSpecialist(sp); serr != nil {
		return gameerr.Wrap(gameerr.CodeSpecialistLimit, serr)
	}
	return nil
}

func (c *actionContext) removeSpecialist(a RemoveSpecialist) *gameerr.Error {
	cty, sp, err := c.specialistFor(a.CityID, a.Specialist)
	if err != nil {
		return err
	}
	if serr := cty.RemoveSpecialist(sp); serr != nil {
		return gameerr.Wrap(gameerr.CodeNoSpecialist, serr)
	}
	return nil
}

func (c *actionContext) workerImprove(a WorkerImprove) *gameerr.Error {
	u, t, err := c.ownUnit(a.At)
	if err != nil {
		return err
	}
	if u.Kind != units.KindWorker {
		return gameerr.Newf(gameerr.CodeNotWorker, "%s", u.Kind)
	}
	imp, ok := world.ParseImprovement(a.Improvement)
	if !ok || imp == world.ImprovementNone {
		return gameerr.Validation(gameerr.CodeInvalidImprovement, "%q", a.Improvement)
	}
	if !u.CanMove() {
		return gameerr.Newf(gameerr.CodeInsufficientMovement, "unit %d has no movement left", u.ID)
	}
	if c.state.TerritoryOwner(a.At) != c.player.ID {
		return gameerr.Newf(gameerr.CodeOutsideTerritory, "%s", a.At)
	}
	if tech, ok := game.ImprovementTech(imp); ok && !c.player.HasTech(tech) {
		return gameerr.Newf(gameerr.CodeMissingPrerequisite, "%s needs %s", imp, tech)
	}
	if t.Improvement == imp {
		return gameerr.Newf(gameerr.CodeAlreadyBuilt, "%s on %s", imp, a.At)
	}
	if !t.CanImprove(imp) {
		return gameerr.Newf(gameerr.CodeInvalidImprovement, "%s on %s %s", imp, t.Terrain, t.Feature)
	}
	t.Improvement = imp
	u.MovementPoints = 0
	u.Moved = true
	c.record("unit", "%s built %s at %s", u.OwnerID, imp, a.At)
	return nil
}

// endTurn marks the player done and advances the turn pointer. When every
// living player is done the batch runs.
func (c *actionContext) endTurn(e *Engine) *gameerr.Error {
	s := c.state
	c.player.EndedTurn = true
	for _, u := range s.UnitsOf(c.player) {
		u.EndTurn()
	}

	if !s.Settings.Simultaneous {
		for i := s.CurrentPlayerIndex + 1; i < len(s.Players); i++ {
			if s.Players[i].Alive {
				s.CurrentPlayerIndex = i
				return nil
			}
		}
	} else {
		for _, p := range s.Players {
			if p.Alive && !p.EndedTurn {
				return nil
			}
		}
	}

	c.events = append(c.events, e.AdvanceTurn(s)...)
	c.advanced = true
	return nil
}
