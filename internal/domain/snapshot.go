package domain

import (
	"errors"
	"fmt"
	"math"
)

// Errores de contrato: inputs que el caller debe sanear antes de puntuar.
var (
	ErrInvalidProbability = errors.New("probability must be strictly inside (0,1)")
	ErrInvalidExpiry      = errors.New("days to expiry must be positive")
	ErrInvalidSpread      = errors.New("spread must be in [0,1)")
	ErrNegativeInput      = errors.New("volume, charm and apy must be non-negative")
)

// Direction es el lado implícito de una posición o un trade.
type Direction int

const (
	DirectionNeutral Direction = iota
	DirectionBullish
	DirectionBearish
)

// String devuelve la etiqueta de la dirección.
func (d Direction) String() string {
	switch d {
	case DirectionBullish:
		return "BULLISH"
	case DirectionBearish:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// MarketSnapshot es el estado numérico de un mercado binario en el momento
// de puntuarlo. Es un value record inmutable: se construye por cada llamada
// de scoring y se descarta después. El engine no hace I/O con él.
type MarketSnapshot struct {
	// Probability es la probabilidad YES del mercado, estrictamente en (0,1).
	Probability float64
	// Direction indica qué extremo se está siguiendo: bullish → 100%, bearish → 0%.
	Direction Direction
	// Volume es el volumen en USDC (≥ 0).
	Volume float64
	// Spread es el spread bid/ask relativo al precio, en [0,1).
	Spread float64
	// OneDayChange y OneWeekChange son cambios fraccionales de precio, con signo.
	OneDayChange  float64
	OneWeekChange float64
	// Momentum es la magnitud del movimiento reciente, 0..1.
	Momentum float64
	// Charm es |Δprobabilidad| por día, en puntos porcentuales (≥ 0).
	Charm float64
	// DaysToExpiry son los días hasta la resolución (> 0).
	DaysToExpiry float64
	// APY es el yield anualizado como múltiplo (1.0 = 100%). Derivado por el
	// caller, típicamente con AnnualizedYield.
	APY float64
}

// Validate comprueba los invariantes de contrato. Probabilidad exactamente
// 0 o 1, o expiry no positivo, son errores del caller — el scorer no los
// recupera. Volumen, momentum y charm en cero son válidos.
func (m MarketSnapshot) Validate() error {
	if !(m.Probability > 0 && m.Probability < 1) || math.IsNaN(m.Probability) {
		return fmt.Errorf("domain.MarketSnapshot: %w (got %g)", ErrInvalidProbability, m.Probability)
	}
	if m.DaysToExpiry <= 0 || math.IsNaN(m.DaysToExpiry) {
		return fmt.Errorf("domain.MarketSnapshot: %w (got %g)", ErrInvalidExpiry, m.DaysToExpiry)
	}
	if m.Spread < 0 || m.Spread >= 1 || math.IsNaN(m.Spread) {
		return fmt.Errorf("domain.MarketSnapshot: %w (got %g)", ErrInvalidSpread, m.Spread)
	}
	if m.Volume < 0 || m.Charm < 0 || m.APY < 0 {
		return fmt.Errorf("domain.MarketSnapshot: %w", ErrNegativeInput)
	}
	return nil
}

// DistanceToExtreme devuelve la distancia al extremo que se persigue:
// 1-p para posiciones bullish, p para bearish. Un mercado a 0.965 con
// dirección bullish está a 3.5 puntos de la certeza.
func (m MarketSnapshot) DistanceToExtreme() float64 {
	if m.Direction == DirectionBearish {
		return m.Probability
	}
	return 1.0 - m.Probability
}

// AnnualizedYield deriva el APY como múltiplo asumiendo que el mercado
// resuelve en la dirección seguida: comprar a p paga 1.0 al resolver.
func AnnualizedYield(prob, daysToExpiry float64) float64 {
	if prob <= 0 || prob >= 1 || daysToExpiry <= 0 {
		return 0
	}
	profit := (1.0 - prob) / prob
	return profit * (365.0 / daysToExpiry)
}
