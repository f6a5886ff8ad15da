package units

import (
	"errors"

	"github.com/talgya/hexempire/internal/world"
)

var (
	ErrInsufficientMovement = errors.New("insufficient movement")
	ErrInvalidCost          = errors.New("movement cost must be positive")
)

const (
	// FortifyBonus is added to defense per consecutive fortified turn.
	FortifyBonus = 2
	// MaxFortifyTurns caps the fortify bonus.
	MaxFortifyTurns = 2
)

// Alive reports whether the unit still has health.
func (u *Unit) Alive() bool { return u.Health > 0 }

// CanMove is true iff the unit is alive and has movement left.
func (u *Unit) CanMove() bool {
	return u.Health > 0 && u.MovementPoints > 0
}

// CanAttack is true iff the unit is alive and has an attack stat.
func (u *Unit) CanAttack() bool {
	return u.Health > 0 && u.CombatStats().Attack > 0
}

// HasActed reports whether the unit already attacked or spent all movement.
func (u *Unit) HasActed() bool {
	return u.Attacked || u.MovementPoints == 0
}

// Move relocates the unit, spending cost. No partial moves: a cost above the
// remaining movement fails and changes nothing. Moving cancels any order.
func (u *Unit) Move(dest world.HexCoord, cost int) error {
	if cost <= 0 {
		return ErrInvalidCost
	}
	if cost > u.MovementPoints {
		return ErrInsufficientMovement
	}
	u.Position = dest
	u.MovementPoints -= cost
	u.Moved = true
	u.Order = OrderNone
	u.FortifyTurns = 0
	return nil
}

// SetOrder sets a standing order; anything but fortify resets the bonus.
func (u *Unit) SetOrder(o Order) {
	if o != OrderFortify {
		u.FortifyTurns = 0
	}
	u.Order = o
}

// DefenseStrength is defense including fortification.
func (u *Unit) DefenseStrength() int {
	d := u.CombatStats().Defense
	if u.Order == OrderFortify && d > 0 {
		d += FortifyBonus * u.FortifyTurns
	}
	return d
}

// EndTurn records whether the unit acted this turn, for next turn's healing.
func (u *Unit) EndTurn() {
	u.MovedLastTurn = u.Moved || u.Attacked
	u.Moved = false
	u.Attacked = false
}

// StartTurn refreshes movement, heals a unit that rested inside friendly
// territory, and processes its standing order. Sleeping units also heal at
// half rate outside friendly territory.
func (u *Unit) StartTurn(inFriendlyTerritory bool) {
	s := u.CombatStats()
	u.MaxMovementPoints = s.Movement
	u.MovementPoints = s.Movement

	if !u.MovedLastTurn {
		switch {
		case inFriendlyTerritory:
			u.heal(s.Heal)
		case u.Order == OrderSleep:
			u.heal(s.Heal / 2)
		}
	}

	if u.Order == OrderFortify && u.FortifyTurns < MaxFortifyTurns {
		u.FortifyTurns++
	}
	if u.Order == OrderSleep && u.Health == u.MaxHealth {
		u.Order = OrderNone
	}
}

func (u *Unit) heal(n int) {
	u.Health = clampHealth(u.Health+n, u.MaxHealth)
}

func clampHealth(h, maxHealth int) int {
	if h < 0 {
		return 0
	}
	if h > maxHealth {
		return maxHealth
	}
	return h
}
