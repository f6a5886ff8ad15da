package city

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/hexempire/internal/units"
)

var (
	ErrAlreadyBuilt        = errors.New("already built")
	ErrAlreadyQueued       = errors.New("already built or queued")
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	ErrUnknownItem         = errors.New("unknown production item")
)

// ItemKind tags a production item.
type ItemKind uint8

const (
	ItemBuilding ItemKind = iota
	ItemUnit
)

// Item is one thing a city can produce: a building or a unit.
type Item struct {
	Kind     ItemKind   `json:"kind"`
	Building Building   `json:"building"`
	Unit     units.Kind `json:"unit"`
}

// BuildingItem wraps a building as a production item.
func BuildingItem(b Building) Item { return Item{Kind: ItemBuilding, Building: b} }

// UnitItem wraps a unit kind as a production item.
func UnitItem(k units.Kind) Item { return Item{Kind: ItemUnit, Unit: k} }

// Cost returns the production needed to complete the item.
func (i Item) Cost() int {
	if i.Kind == ItemUnit {
		return i.Unit.Cost()
	}
	return i.Building.Cost()
}

// Valid reports whether the item names a known building or unit.
func (i Item) Valid() bool {
	switch i.Kind {
	case ItemBuilding:
		return i.Building.Valid()
	case ItemUnit:
		return i.Unit.Valid()
	}
	return false
}

func (i Item) String() string {
	if i.Kind == ItemUnit {
		return "unit:" + i.Unit.String()
	}
	return "building:" + i.Building.String()
}

// ParseItem accepts "building:library", "unit:warrior" or a bare name.
func ParseItem(s string) (Item, error) {
	kind, name, found := strings.Cut(s, ":")
	if !found {
		name = kind
		kind = ""
	}
	if kind == "" || kind == "building" {
		if b, ok := ParseBuilding(name); ok {
			return BuildingItem(b), nil
		}
	}
	if kind == "" || kind == "unit" {
		if k, ok := units.ParseKind(name); ok {
			return UnitItem(k), nil
		}
	}
	return Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, s)
}

// CanBuild reports whether the city may produce item: a building must not
// already be built, and a unit needs every prerequisite building.
func (c *City) CanBuild(item Item) error {
	if !item.Valid() {
		return ErrUnknownItem
	}
	switch item.Kind {
	case ItemBuilding:
		if c.HasBuilding(item.Building) {
			return ErrAlreadyBuilt
		}
	case ItemUnit:
		for _, req := range UnitRequirements(item.Unit) {
			if !c.HasBuilding(req) {
				return fmt.Errorf("%w: %s needs %s", ErrMissingPrerequisite, item.Unit, req)
			}
		}
	}
	return nil
}

// pending reports whether a building is already current or queued.
func (c *City) pending(item Item) bool {
	if item.Kind != ItemBuilding {
		return false
	}
	if c.CurrentProduction != nil && *c.CurrentProduction == item {
		return true
	}
	for _, q := range c.ProductionQueue {
		if q == item {
			return true
		}
	}
	return false
}

// StartProduction replaces the current item. Progress on the previous item
// is discarded; the queue is untouched.
func (c *City) StartProduction(item Item) error {
	if err := c.CanBuild(item); err != nil {
		return err
	}
	if c.CurrentProduction != nil && *c.CurrentProduction == item {
		return nil
	}
	if c.pending(item) {
		return ErrAlreadyQueued
	}
	it := item
	c.CurrentProduction = &it
	c.ProductionProgress = 0
	return nil
}

// AddToProductionQueue appends item, or starts it when nothing is in
// production.
func (c *City) AddToProductionQueue(item Item) error {
	if err := c.CanBuild(item); err != nil {
		return err
	}
	if c.pending(item) {
		return ErrAlreadyQueued
	}
	if c.CurrentProduction == nil {
		it := item
		c.CurrentProduction = &it
		c.ProductionProgress = 0
		return nil
	}
	c.ProductionQueue = append(c.ProductionQueue, item)
	return nil
}

// ProcessProduction adds points to the current item. When progress reaches
// the item's cost the item completes: a building joins the built set, progress
// resets, and the next buildable queued item starts. The completed item is
// returned; unit placement is the caller's job.
func (c *City) ProcessProduction(points int) *Item {
	if c.CurrentProduction == nil || points <= 0 {
		return nil
	}
	c.ProductionProgress += points
	item := *c.CurrentProduction
	if c.ProductionProgress < item.Cost() {
		return nil
	}

	if item.Kind == ItemBuilding {
		c.Buildings = append(c.Buildings, item.Building)
		c.refreshMaxHealth()
	}
	c.ProductionProgress = 0
	c.CurrentProduction = nil
	c.advanceQueue()
	return &item
}

// advanceQueue pops queued items until one is still buildable.
func (c *City) advanceQueue() {
	for len(c.ProductionQueue) > 0 {
		next := c.ProductionQueue[0]
		c.ProductionQueue = c.ProductionQueue[1:]
		if c.CanBuild(next) == nil {
			c.CurrentProduction = &next
			return
		}
	}
}

// Requeue puts item back in front one point short of completion, for a unit
// that could not be placed. Whatever was started is pushed back to the head of
// the queue.
func (c *City) Requeue(item Item) {
	if c.CurrentProduction != nil {
		c.ProductionQueue = append([]Item{*c.CurrentProduction}, c.ProductionQueue...)
	}
	it := item
	c.CurrentProduction = &it
	c.ProductionProgress = item.Cost() - 1
}
