package domain

import (
	"fmt"
	"math"
)

// weightSumTolerance es la tolerancia de punto flotante para la suma de pesos.
const weightSumTolerance = 1e-9

// weightFloor evita que un ajuste dinámico anule por completo un componente.
const weightFloor = 0.01

// ComponentWeights contiene los pesos de los seis componentes del
// opportunity scorer. Los pesos base deben sumar 1.0.
type ComponentWeights struct {
	DistanceTime float64 `yaml:"distance_time"`
	Yield        float64 `yaml:"yield"`
	Liquidity    float64 `yaml:"liquidity"`
	Spread       float64 `yaml:"spread"`
	Momentum     float64 `yaml:"momentum"`
	Charm        float64 `yaml:"charm"`
}

// DefaultWeights devuelve los pesos base: el fit distancia-tiempo domina.
func DefaultWeights() ComponentWeights {
	return ComponentWeights{
		DistanceTime: 0.35,
		Yield:        0.25,
		Liquidity:    0.15,
		Spread:       0.10,
		Momentum:     0.10,
		Charm:        0.05,
	}
}

// Sum devuelve la suma de todos los pesos.
func (w ComponentWeights) Sum() float64 {
	return w.DistanceTime + w.Yield + w.Liquidity + w.Spread + w.Momentum + w.Charm
}

// Validate comprueba que los pesos sean no-negativos y sumen 1.0.
func (w ComponentWeights) Validate() error {
	for name, v := range map[string]float64{
		ComponentDistanceTime: w.DistanceTime,
		ComponentYield:        w.Yield,
		ComponentLiquidity:    w.Liquidity,
		ComponentSpread:       w.Spread,
		ComponentMomentum:     w.Momentum,
		ComponentCharm:        w.Charm,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("domain.ComponentWeights: %s weight %g is invalid", name, v)
		}
	}
	if diff := math.Abs(w.Sum() - 1.0); diff > 1e-6 {
		return fmt.Errorf("domain.ComponentWeights: weights sum to %g, want 1.0", w.Sum())
	}
	return nil
}

// WeightShifts contiene las magnitudes máximas de los ajustes dinámicos.
// Cada delta se escala con una función suave del contexto, nunca con un if.
type WeightShifts struct {
	// SweetSpot sube el peso del fit distancia-tiempo según la afinidad al sweet spot.
	SweetSpot float64 `yaml:"sweet_spot"`
	// Expiry sube momentum y charm cuando el mercado está cerca de resolverse.
	Expiry float64 `yaml:"expiry"`
	// Misalign transfiere peso de distancia-tiempo a momentum cuando la
	// tendencia va en contra de la posición.
	Misalign float64 `yaml:"misalign"`
	// ExpiryPressureDays es el centro de la sigmoide de presión por expiry.
	ExpiryPressureDays float64 `yaml:"expiry_pressure_days"`
	// ExpiryPressureWidth es la anchura de esa sigmoide, en días.
	ExpiryPressureWidth float64 `yaml:"expiry_pressure_width"`
}

// DefaultWeightShifts devuelve deltas dentro del rango ±0.08.
func DefaultWeightShifts() WeightShifts {
	return WeightShifts{
		SweetSpot:           0.08,
		Expiry:              0.04,
		Misalign:            0.05,
		ExpiryPressureDays:  5.0,
		ExpiryPressureWidth: 1.5,
	}
}

// WeightContext resume el contexto de un snapshot para el ajuste de pesos.
type WeightContext struct {
	// SweetSpotAffinity es el producto de las dos gaussianas, 0..1.
	SweetSpotAffinity float64
	// DaysToExpiry son los días hasta la resolución.
	DaysToExpiry float64
	// Misalignment es el grado de momentum en contra, 0..1.
	Misalignment float64
}

// AdjustWeights aplica los deltas contextuales sobre una copia de base y
// renormaliza. Nunca modifica base; el resultado siempre suma 1.0 dentro
// de la tolerancia.
func AdjustWeights(base ComponentWeights, ctx WeightContext, shifts WeightShifts) ComponentWeights {
	affinity := Clamp(ctx.SweetSpotAffinity, 0, 1)
	misalign := Clamp(ctx.Misalignment, 0, 1)
	pressure := Sigmoid((shifts.ExpiryPressureDays - ctx.DaysToExpiry) / shifts.ExpiryPressureWidth)

	w := base
	w.DistanceTime += shifts.SweetSpot*affinity - shifts.Misalign*misalign
	w.Momentum += shifts.Misalign*misalign + shifts.Expiry*pressure
	w.Charm += shifts.Expiry * pressure

	return normalizeWeights(w)
}

// normalizeWeights aplica el floor por componente y reescala para sumar 1.0.
func normalizeWeights(w ComponentWeights) ComponentWeights {
	w.DistanceTime = math.Max(w.DistanceTime, weightFloor)
	w.Yield = math.Max(w.Yield, weightFloor)
	w.Liquidity = math.Max(w.Liquidity, weightFloor)
	w.Spread = math.Max(w.Spread, weightFloor)
	w.Momentum = math.Max(w.Momentum, weightFloor)
	w.Charm = math.Max(w.Charm, weightFloor)

	sum := w.Sum()
	w.DistanceTime /= sum
	w.Yield /= sum
	w.Liquidity /= sum
	w.Spread /= sum
	w.Momentum /= sum
	w.Charm /= sum
	return w
}
