package units

import (
	"github.com/talgya/hexempire/internal/entropy"
)

const (
	// RollMax is the top of the inclusive uniform(0, RollMax) combat roll.
	RollMax = 10

	AttackerXP = 5
	DefenderXP = 3
)

// Combatant is anything that can be attacked: units and cities.
type Combatant interface {
	DefenseStrength() int
	// CanCounter reports whether the defender strikes back at a melee attacker.
	CanCounter() bool
	TakeDamage(n int)
	HealthPoints() int
}

// CombatResult describes one resolved exchange.
type CombatResult struct {
	AttackRoll     int  `json:"attack_roll"`
	DefenseRoll    int  `json:"defense_roll"`
	Attack         int  `json:"attack"`
	Defense        int  `json:"defense"`
	Damage         int  `json:"damage"`
	CounterDamage  int  `json:"counter_damage"`
	Ranged         bool `json:"ranged"`
	DefenderKilled bool `json:"defender_killed"`
	AttackerKilled bool `json:"attacker_killed"`
}

// CanCounter is true for living units with an attack stat.
func (u *Unit) CanCounter() bool {
	return u.Alive() && u.CombatStats().Attack > 0
}

// TakeDamage lowers health, clamped to [0, MaxHealth].
func (u *Unit) TakeDamage(n int) {
	u.Health = clampHealth(u.Health-n, u.MaxHealth)
}

// HealthPoints returns current health.
func (u *Unit) HealthPoints() int { return u.Health }

// ResolveCombat resolves an attack from att against def standing on terrain
// worth terrainBonus defense.
//
//	attack  = attackStat + uniform(0,10)
//	defense = defenseStat + terrainBonus + uniform(0,10)
//	damage  = floor(30 * attack / (attack + defense)) + 10
//	counter = floor(damage * 0.3)
//
// Counter-damage applies only to melee attacks when the defender survives the
// hit and can strike back. The attacker's movement is always spent. Both
// sides gain experience when the defender is a unit; promotions are granted
// separately.
func ResolveCombat(att *Unit, def Combatant, terrainBonus int, dice entropy.Dice) CombatResult {
	stats := att.CombatStats()
	res := CombatResult{Ranged: stats.Range > 1}

	res.AttackRoll = entropy.Roll(dice, 0, RollMax)
	res.DefenseRoll = entropy.Roll(dice, 0, RollMax)
	res.Attack = stats.Attack + res.AttackRoll
	res.Defense = def.DefenseStrength() + terrainBonus + res.DefenseRoll
	if res.Defense < 0 {
		res.Defense = 0
	}

	total := res.Attack + res.Defense
	if total == 0 {
		total = 1
	}
	res.Damage = 30*res.Attack/total + 10
	def.TakeDamage(res.Damage)
	res.DefenderKilled = def.HealthPoints() <= 0

	if !res.Ranged && !res.DefenderKilled && def.CanCounter() {
		res.CounterDamage = res.Damage * 3 / 10
		att.TakeDamage(res.CounterDamage)
		res.AttackerKilled = att.Health <= 0
	}

	att.MovementPoints = 0
	att.Attacked = true
	att.Order = OrderNone
	att.FortifyTurns = 0
	att.Experience += AttackerXP
	if du, ok := def.(*Unit); ok {
		du.Experience += DefenderXP
	}
	return res
}
