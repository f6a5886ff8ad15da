package city

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexempire/internal/economy"
	"github.com/talgya/hexempire/internal/units"
	"github.com/talgya/hexempire/internal/world"
)

func newCity() *City {
	return New(1, "Rome", "p1", world.Axial(5, 5), 1)
}

func TestCalculateOutput(t *testing.T) {
	c := newCity()
	c.Population = 3
	assert.Equal(t, economy.Yields{Food: 6, Gold: 3, Science: 3, Culture: 3, Production: 3}, c.CalculateOutput())

	c.Buildings = []Building{BuildingLibrary, BuildingGranary}
	require.NoError(t, c.AssignSpecialist(SpecialistMerchant))
	require.NoError(t, c.AssignSpecialist(SpecialistMerchant))
	assert.Equal(t, economy.Yields{Food: 8, Gold: 9, Science: 6, Culture: 3, Production: 3}, c.CalculateOutput())
}

func TestCalculateMaintenance(t *testing.T) {
	c := newCity()
	assert.Zero(t, c.CalculateMaintenance())
	c.Population = 5
	c.Buildings = []Building{BuildingGranary, BuildingColosseum, BuildingMarket}
	assert.Equal(t, 2+1+2+0, c.CalculateMaintenance())
}

func TestHappiness(t *testing.T) {
	c := newCity()
	assert.Equal(t, 4, c.Happiness())
	c.Population = 9
	assert.Equal(t, 2, c.Happiness())
	c.Buildings = []Building{BuildingTemple}
	assert.Equal(t, 4, c.Happiness())
}

func TestCanBuild(t *testing.T) {
	c := newCity()
	assert.NoError(t, c.CanBuild(BuildingItem(BuildingBarracks)))
	assert.NoError(t, c.CanBuild(UnitItem(units.KindWarrior)))
	assert.ErrorIs(t, c.CanBuild(UnitItem(units.KindArcher)), ErrMissingPrerequisite)
	assert.ErrorIs(t, c.CanBuild(UnitItem(units.KindSpearman)), ErrMissingPrerequisite)

	c.Buildings = []Building{BuildingBarracks}
	assert.ErrorIs(t, c.CanBuild(BuildingItem(BuildingBarracks)), ErrAlreadyBuilt)
	assert.NoError(t, c.CanBuild(UnitItem(units.KindArcher)))

	assert.ErrorIs(t, c.CanBuild(Item{Kind: ItemBuilding, Building: 99}), ErrUnknownItem)
}

func TestStartProductionDiscardsProgress(t *testing.T) {
	c := newCity()
	require.NoError(t, c.StartProduction(BuildingItem(BuildingMonument)))
	assert.Nil(t, c.ProcessProduction(10))
	assert.Equal(t, 10, c.ProductionProgress)

	require.NoError(t, c.StartProduction(UnitItem(units.KindWarrior)))
	assert.Zero(t, c.ProductionProgress)
	assert.Equal(t, UnitItem(units.KindWarrior), *c.CurrentProduction)

	assert.ErrorIs(t, c.StartProduction(UnitItem(units.KindArcher)), ErrMissingPrerequisite)
	assert.Equal(t, UnitItem(units.KindWarrior), *c.CurrentProduction, "rejected change leaves production alone")
}

func TestProductionQueueFIFO(t *testing.T) {
	c := newCity()
	require.NoError(t, c.AddToProductionQueue(BuildingItem(BuildingMonument)))
	require.NotNil(t, c.CurrentProduction)
	assert.Empty(t, c.ProductionQueue)

	require.NoError(t, c.AddToProductionQueue(BuildingItem(BuildingBarracks)))
	require.NoError(t, c.AddToProductionQueue(UnitItem(units.KindWarrior)))
	assert.ErrorIs(t, c.AddToProductionQueue(BuildingItem(BuildingBarracks)), ErrAlreadyQueued)

	done := c.ProcessProduction(30)
	require.NotNil(t, done)
	assert.Equal(t, BuildingItem(BuildingMonument), *done)
	assert.True(t, c.HasBuilding(BuildingMonument))
	assert.Equal(t, BuildingItem(BuildingBarracks), *c.CurrentProduction)
	assert.Zero(t, c.ProductionProgress)

	assert.Nil(t, c.ProcessProduction(39))
	done = c.ProcessProduction(5)
	require.NotNil(t, done)
	assert.Equal(t, BuildingItem(BuildingBarracks), *done)
	assert.Equal(t, UnitItem(units.KindWarrior), *c.CurrentProduction)

	done = c.ProcessProduction(100)
	require.NotNil(t, done)
	assert.Equal(t, ItemUnit, done.Kind)
	assert.Nil(t, c.CurrentProduction)
	assert.Zero(t, c.ProductionProgress)
	assert.Nil(t, c.ProcessProduction(10))
}

func TestProductionNeverExceedsCost(t *testing.T) {
	c := newCity()
	items := []Item{
		BuildingItem(BuildingMonument), UnitItem(units.KindWarrior), BuildingItem(BuildingLibrary),
		UnitItem(units.KindScout), BuildingItem(BuildingMarket),
	}
	for _, it := range items {
		require.NoError(t, c.AddToProductionQueue(it))
	}
	completed := 0
	for i := 0; i < 100 && c.CurrentProduction != nil; i++ {
		if c.ProcessProduction(7) != nil {
			completed++
		}
		if c.CurrentProduction != nil {
			require.Less(t, c.ProductionProgress, c.CurrentProduction.Cost())
		}
	}
	assert.Equal(t, len(items), completed)
}

func TestRequeue(t *testing.T) {
	c := newCity()
	require.NoError(t, c.AddToProductionQueue(UnitItem(units.KindWarrior)))
	require.NoError(t, c.AddToProductionQueue(BuildingItem(BuildingMonument)))

	done := c.ProcessProduction(20)
	require.NotNil(t, done)
	c.Requeue(*done)

	assert.Equal(t, UnitItem(units.KindWarrior), *c.CurrentProduction)
	assert.Equal(t, 19, c.ProductionProgress)
	assert.Equal(t, []Item{BuildingItem(BuildingMonument)}, c.ProductionQueue)
}

func TestProcessGrowth(t *testing.T) {
	c := newCity()
	assert.Equal(t, 30, GrowthThreshold(1))
	assert.False(t, c.ProcessGrowth(29))
	assert.True(t, c.ProcessGrowth(1))
	assert.Equal(t, 2, c.Population)
	assert.Zero(t, c.FoodStored)

	assert.False(t, c.ProcessGrowth(-100))
	assert.Zero(t, c.FoodStored)
	assert.Equal(t, 2, c.Population)

	for pop := 1; pop < 30; pop++ {
		require.Greater(t, GrowthThreshold(pop+1), GrowthThreshold(pop))
	}
}

func TestUnhappyCityStillGrows(t *testing.T) {
	c := newCity()
	c.Population = 20
	require.Negative(t, c.Happiness())
	assert.True(t, c.ProcessGrowth(GrowthThreshold(20)))
	assert.Equal(t, 21, c.Population)
	assert.Zero(t, c.FoodStored)
}

func TestGrowthNeverShrinks(t *testing.T) {
	c := newCity()
	food := []int{5, -3, 40, 0, -50, 100, 7, 7, 7}
	prev := c.Population
	for _, f := range food {
		c.ProcessGrowth(f)
		require.GreaterOrEqual(t, c.Population, prev)
		require.GreaterOrEqual(t, c.FoodStored, 0)
		prev = c.Population
	}
}

func TestSpecialists(t *testing.T) {
	c := newCity()
	assert.ErrorIs(t, c.AssignSpecialist(SpecialistScientist), ErrSpecialistLimit)

	c.Population = 3
	require.NoError(t, c.AssignSpecialist(SpecialistScientist))
	require.NoError(t, c.AssignSpecialist(SpecialistArtist))
	assert.ErrorIs(t, c.AssignSpecialist(SpecialistEngineer), ErrSpecialistLimit)
	assert.Equal(t, 2, c.SpecialistCount())

	assert.ErrorIs(t, c.RemoveSpecialist(SpecialistEngineer), ErrNoSpecialist)
	require.NoError(t, c.RemoveSpecialist(SpecialistArtist))
	assert.Equal(t, 1, c.SpecialistCount())
	assert.ErrorIs(t, c.AssignSpecialist(Specialist(9)), ErrUnknownSpecialist)
}

func TestCityDefenseAndCapture(t *testing.T) {
	c := newCity()
	c.Population = 3
	assert.Equal(t, 11, c.DefenseStrength())

	require.NoError(t, c.StartProduction(BuildingItem(BuildingWalls)))
	require.NotNil(t, c.ProcessProduction(50))
	assert.Equal(t, 16, c.DefenseStrength())
	assert.Equal(t, 150, c.MaxHealth)
	assert.Equal(t, 150, c.Health)

	c.TakeDamage(500)
	assert.Zero(t, c.Health)
	assert.False(t, c.CanCounter())

	require.NoError(t, c.AddToProductionQueue(UnitItem(units.KindWarrior)))
	c.Capture("p2")
	assert.Equal(t, "p2", c.OwnerID)
	assert.Equal(t, 37, c.Health)
	assert.Equal(t, 2, c.Population)
	assert.Zero(t, c.FoodStored)
	assert.Empty(t, c.Specialists)
	assert.Nil(t, c.CurrentProduction)
	assert.Empty(t, c.ProductionQueue)

	c.Heal()
	assert.Equal(t, 47, c.Health)
}

func TestClaimAndRelease(t *testing.T) {
	c := newCity()
	at := world.Axial(c.Position.Q+1, c.Position.R)
	c.Claim(at)
	c.Claim(at)
	assert.Len(t, c.Territory, 2)

	c.Release(at)
	assert.False(t, c.InTerritory(at))
	c.Release(c.Position)
	assert.Equal(t, []world.HexCoord{c.Position}, c.Territory)
}

func TestParseItem(t *testing.T) {
	it, err := ParseItem("building:library")
	require.NoError(t, err)
	assert.Equal(t, BuildingItem(BuildingLibrary), it)

	it, err = ParseItem("warrior")
	require.NoError(t, err)
	assert.Equal(t, UnitItem(units.KindWarrior), it)

	_, err = ParseItem("unit:library")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, "unit:archer", UnitItem(units.KindArcher).String())
}

func TestCityClone(t *testing.T) {
	c := newCity()
	require.NoError(t, c.AddToProductionQueue(BuildingItem(BuildingMonument)))
	require.NoError(t, c.AddToProductionQueue(BuildingItem(BuildingGranary)))
	c.Population = 2
	require.NoError(t, c.AssignSpecialist(SpecialistMerchant))

	cp := c.Clone()
	require.Equal(t, c, cp)

	cp.ProductionQueue[0] = UnitItem(units.KindWarrior)
	cp.Specialists[SpecialistMerchant] = 5
	cp.Territory = append(cp.Territory, world.Axial(6, 5))
	cp.CurrentProduction.Building = BuildingWalls
	assert.Equal(t, BuildingItem(BuildingGranary), c.ProductionQueue[0])
	assert.Equal(t, 1, c.Specialists[SpecialistMerchant])
	assert.Len(t, c.Territory, 1)
	assert.Equal(t, BuildingMonument, c.CurrentProduction.Building)
}
