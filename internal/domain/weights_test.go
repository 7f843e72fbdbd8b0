package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())

	bad := DefaultWeights()
	bad.Yield = 0.50
	assert.Error(t, bad.Validate())

	negative := DefaultWeights()
	negative.Charm = -0.05
	assert.Error(t, negative.Validate())
}

func TestAdjustWeights_AlwaysSumsToOne(t *testing.T) {
	contexts := []WeightContext{
		{},
		{SweetSpotAffinity: 1.0, DaysToExpiry: 8.5},
		{SweetSpotAffinity: 0.2, DaysToExpiry: 0.5, Misalignment: 1.0},
		{DaysToExpiry: 120},
		{SweetSpotAffinity: 5.0, Misalignment: -3.0, DaysToExpiry: 1}, // fuera de rango: se clampa
	}
	for _, ctx := range contexts {
		w := AdjustWeights(DefaultWeights(), ctx, DefaultWeightShifts())
		assert.InDelta(t, 1.0, w.Sum(), weightSumTolerance, "%+v", ctx)
	}
}

func TestAdjustWeights_SweetSpotRaisesDistanceTime(t *testing.T) {
	base := DefaultWeights()
	shifts := DefaultWeightShifts()

	far := AdjustWeights(base, WeightContext{SweetSpotAffinity: 0, DaysToExpiry: 30}, shifts)
	near := AdjustWeights(base, WeightContext{SweetSpotAffinity: 1, DaysToExpiry: 30}, shifts)

	assert.Greater(t, near.DistanceTime, far.DistanceTime)
}

func TestAdjustWeights_MisalignmentShiftsToMomentum(t *testing.T) {
	base := DefaultWeights()
	shifts := DefaultWeightShifts()

	aligned := AdjustWeights(base, WeightContext{DaysToExpiry: 30}, shifts)
	against := AdjustWeights(base, WeightContext{DaysToExpiry: 30, Misalignment: 1}, shifts)

	assert.Greater(t, against.Momentum, aligned.Momentum)
	assert.Less(t, against.DistanceTime, aligned.DistanceTime)
}

func TestAdjustWeights_ExpiryPressureFavorsShortTerm(t *testing.T) {
	base := DefaultWeights()
	shifts := DefaultWeightShifts()

	lejos := AdjustWeights(base, WeightContext{DaysToExpiry: 60}, shifts)
	cerca := AdjustWeights(base, WeightContext{DaysToExpiry: 1}, shifts)

	assert.Greater(t, cerca.Momentum, lejos.Momentum)
	assert.Greater(t, cerca.Charm, lejos.Charm)
}

func TestAdjustWeights_IsPure(t *testing.T) {
	base := DefaultWeights()
	before := base

	_ = AdjustWeights(base, WeightContext{SweetSpotAffinity: 1, Misalignment: 1, DaysToExpiry: 0.5}, DefaultWeightShifts())

	// la base no cambia: el ajuste trabaja sobre una copia
	assert.Equal(t, before, base)
}

func TestAdjustWeights_FloorKeepsAllComponentsAlive(t *testing.T) {
	// misalignment máximo drena distancia-tiempo, pero el floor lo sostiene
	base := ComponentWeights{DistanceTime: 0.05, Yield: 0.35, Liquidity: 0.25, Spread: 0.15, Momentum: 0.10, Charm: 0.10}
	w := AdjustWeights(base, WeightContext{Misalignment: 1, DaysToExpiry: 60}, DefaultWeightShifts())

	assert.Greater(t, w.DistanceTime, 0.0)
	assert.InDelta(t, 1.0, w.Sum(), weightSumTolerance)
}
