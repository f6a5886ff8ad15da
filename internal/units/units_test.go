package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexempire/internal/entropy"
	"github.com/talgya/hexempire/internal/world"
)

func TestNewUnitFromTable(t *testing.T) {
	u := New(1, KindHorseman, "p1", world.Axial(2, 3))
	assert.Equal(t, 100, u.Health)
	assert.Equal(t, 2, u.MovementPoints)
	assert.Equal(t, 2, u.MaxMovementPoints)
	assert.Nil(t, u.Promotions)

	for _, k := range []Kind{KindSettler, KindWorker} {
		s := New(2, k, "p1", world.Axial(0, 0)).CombatStats()
		assert.Zero(t, s.Attack, k.String())
		assert.Zero(t, s.Defense, k.String())
		assert.True(t, k.Civilian())
	}
	assert.False(t, KindScout.Civilian())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("catapult")
	assert.False(t, ok)
}

func TestMove(t *testing.T) {
	u := New(1, KindWarrior, "p1", world.Axial(3, 3))
	require.True(t, u.CanMove())

	err := u.Move(world.Axial(3, 4), 2)
	assert.ErrorIs(t, err, ErrInsufficientMovement)
	assert.Equal(t, world.Axial(3, 3), u.Position)
	assert.Equal(t, 1, u.MovementPoints)

	require.NoError(t, u.Move(world.Axial(3, 4), 1))
	assert.Equal(t, world.Axial(3, 4), u.Position)
	assert.Zero(t, u.MovementPoints)
	assert.False(t, u.CanMove())
	assert.True(t, u.Moved)

	assert.ErrorIs(t, u.Move(world.Axial(3, 5), 1), ErrInsufficientMovement)
	assert.ErrorIs(t, u.Move(world.Axial(3, 5), 0), ErrInvalidCost)
}

func TestCanAttack(t *testing.T) {
	assert.True(t, New(1, KindWarrior, "p1", world.Axial(0, 0)).CanAttack())
	assert.False(t, New(1, KindSettler, "p1", world.Axial(0, 0)).CanAttack())

	dead := New(1, KindWarrior, "p1", world.Axial(0, 0))
	dead.Health = 0
	assert.False(t, dead.CanAttack())
	assert.False(t, dead.CanMove())
}

func TestTurnLifecycleHealing(t *testing.T) {
	u := New(1, KindWarrior, "p1", world.Axial(0, 0))
	u.Health = 50

	t.Run("rested in territory heals", func(t *testing.T) {
		u.EndTurn()
		u.StartTurn(true)
		assert.Equal(t, 60, u.Health)
	})

	t.Run("outside territory does not heal", func(t *testing.T) {
		u.EndTurn()
		u.StartTurn(false)
		assert.Equal(t, 60, u.Health)
	})

	t.Run("moved last turn does not heal", func(t *testing.T) {
		require.NoError(t, u.Move(world.Axial(1, 0), 1))
		u.EndTurn()
		u.StartTurn(true)
		assert.Equal(t, 60, u.Health)
		assert.Equal(t, 1, u.MovementPoints)
	})

	t.Run("sleeping heals at half rate anywhere", func(t *testing.T) {
		u.SetOrder(OrderSleep)
		u.EndTurn()
		u.StartTurn(false)
		assert.Equal(t, 65, u.Health)
	})

	t.Run("healing is clamped", func(t *testing.T) {
		u.Health = 95
		u.SetOrder(OrderNone)
		u.EndTurn()
		u.StartTurn(true)
		assert.Equal(t, 100, u.Health)
	})
}

func TestSleepingUnitWakesWhenHealed(t *testing.T) {
	u := New(1, KindWarrior, "p1", world.Axial(0, 0))
	u.Health = 95
	u.SetOrder(OrderSleep)
	u.EndTurn()
	u.StartTurn(true)
	assert.Equal(t, 100, u.Health)
	assert.Equal(t, OrderNone, u.Order)
}

func TestFortify(t *testing.T) {
	u := New(1, KindWarrior, "p1", world.Axial(0, 0))
	u.SetOrder(OrderFortify)
	assert.Equal(t, 4, u.DefenseStrength())

	u.EndTurn()
	u.StartTurn(true)
	assert.Equal(t, 6, u.DefenseStrength())
	u.EndTurn()
	u.StartTurn(true)
	assert.Equal(t, 8, u.DefenseStrength())
	u.EndTurn()
	u.StartTurn(true)
	assert.Equal(t, 8, u.DefenseStrength(), "bonus is capped")

	require.NoError(t, u.Move(world.Axial(1, 0), 1))
	assert.Equal(t, OrderNone, u.Order)
	assert.Equal(t, 4, u.DefenseStrength())
}

func TestPromotions(t *testing.T) {
	u := New(1, KindWarrior, "p1", world.Axial(0, 0))
	u.Experience = XPPerPromotion - 1
	assert.Zero(t, u.AvailablePromotions())
	assert.ErrorIs(t, u.Promote(PromotionStrength), ErrNoPromotionAvailable)

	u.Experience = XPPerPromotion
	require.Equal(t, 1, u.AvailablePromotions())
	require.NoError(t, u.Promote(PromotionStrength))
	assert.Equal(t, 8, u.CombatStats().Attack)
	assert.ErrorIs(t, u.Promote(PromotionDrill), ErrNoPromotionAvailable)

	u.Experience = 3 * XPPerPromotion
	assert.ErrorIs(t, u.Promote(PromotionStrength), ErrAlreadyPromoted)
	require.NoError(t, u.Promote(PromotionMobility))
	assert.Equal(t, 2, u.MaxMovementPoints)
	assert.Equal(t, 2, u.MovementPoints)
	require.NoError(t, u.Promote(PromotionShock))
	assert.Equal(t, 11, u.CombatStats().Attack)
	assert.Equal(t, []Promotion{PromotionStrength, PromotionMobility, PromotionShock}, u.Promotions)

	settler := New(2, KindSettler, "p1", world.Axial(0, 0))
	settler.Experience = 100
	assert.ErrorIs(t, settler.Promote(PromotionDrill), ErrCivilian)
}

func TestResolveCombatFormula(t *testing.T) {
	att := New(1, KindWarrior, "p1", world.Axial(0, 0))
	def := New(2, KindWarrior, "p2", world.Axial(1, 0))

	res := ResolveCombat(att, def, 0, entropy.Fixed(5))
	assert.Equal(t, 11, res.Attack)
	assert.Equal(t, 9, res.Defense)
	assert.Equal(t, 26, res.Damage)
	assert.Equal(t, 7, res.CounterDamage)
	assert.Equal(t, 74, def.Health)
	assert.Equal(t, 93, att.Health)
	assert.Zero(t, att.MovementPoints)
	assert.True(t, att.Attacked)
	assert.Equal(t, AttackerXP, att.Experience)
	assert.Equal(t, DefenderXP, def.Experience)
	assert.Greater(t, att.Experience, def.Experience)
}

func TestResolveCombatTerrain(t *testing.T) {
	att := New(1, KindWarrior, "p1", world.Axial(0, 0))
	def := New(2, KindWarrior, "p2", world.Axial(1, 0))

	res := ResolveCombat(att, def, 3, entropy.Fixed(0))
	assert.Equal(t, 7, res.Defense)
	assert.Equal(t, 23, res.Damage)
}

func TestResolveCombatRangedNoCounter(t *testing.T) {
	att := New(1, KindArcher, "p1", world.Axial(0, 0))
	def := New(2, KindWarrior, "p2", world.Axial(2, 0))

	res := ResolveCombat(att, def, 0, entropy.Fixed(5))
	assert.True(t, res.Ranged)
	assert.Equal(t, 25, res.Damage)
	assert.Zero(t, res.CounterDamage)
	assert.Equal(t, 100, att.Health)
}

func TestResolveCombatCivilianDefender(t *testing.T) {
	att := New(1, KindWarrior, "p1", world.Axial(0, 0))
	def := New(2, KindSettler, "p2", world.Axial(1, 0))

	res := ResolveCombat(att, def, 0, entropy.Fixed(0))
	assert.Equal(t, 40, res.Damage)
	assert.Zero(t, res.CounterDamage)
	assert.Equal(t, 60, def.Health)
}

func TestResolveCombatKill(t *testing.T) {
	att := New(1, KindSwordsman, "p1", world.Axial(0, 0))
	def := New(2, KindWarrior, "p2", world.Axial(1, 0))
	def.Health = 10

	res := ResolveCombat(att, def, 0, entropy.Fixed(5))
	assert.True(t, res.DefenderKilled)
	assert.Zero(t, def.Health, "health is clamped at zero")
	assert.Zero(t, res.CounterDamage)
	assert.Equal(t, 100, att.Health)
}

func TestResolveCombatDeterministic(t *testing.T) {
	run := func() (CombatResult, *Unit, *Unit) {
		att := New(1, KindHorseman, "p1", world.Axial(0, 0))
		def := New(2, KindSpearman, "p2", world.Axial(1, 0))
		res := ResolveCombat(att, def, 2, entropy.Combat(42, 3))
		return res, att, def
	}
	r1, a1, d1 := run()
	for i := 0; i < 5; i++ {
		r2, a2, d2 := run()
		require.Equal(t, r1, r2)
		require.Equal(t, a1, a2)
		require.Equal(t, d1, d2)
	}
}

func TestResolveCombatBounds(t *testing.T) {
	for i := uint64(0); i < 200; i++ {
		att := New(1, KindSwordsman, "p1", world.Axial(0, 0))
		def := New(2, KindScout, "p2", world.Axial(1, 0))
		res := ResolveCombat(att, def, 0, entropy.Combat(7, i))
		require.GreaterOrEqual(t, res.Damage, 10)
		require.LessOrEqual(t, res.Damage, 40)
		require.GreaterOrEqual(t, def.Health, 0)
		require.GreaterOrEqual(t, att.Health, 0)
		require.LessOrEqual(t, att.Health, att.MaxHealth)
	}
}

func TestUnitClone(t *testing.T) {
	u := New(1, KindWarrior, "p1", world.Axial(0, 0))
	u.Promotions = []Promotion{}
	cp := u.Clone()
	require.Equal(t, u, cp)
	cp.Promotions = append(cp.Promotions, PromotionDrill)
	assert.Empty(t, u.Promotions)
	assert.NotNil(t, u.Promotions)
}
