package domain

// Nombres de los componentes del opportunity scorer.
const (
	ComponentDistanceTime = "distance_time_fit"
	ComponentYield        = "apy"
	ComponentLiquidity    = "volume"
	ComponentSpread       = "spread"
	ComponentMomentum     = "momentum"
	ComponentCharm        = "charm"
)

// Nombres de los componentes del conviction scorer.
const (
	ComponentSize      = "size"
	ComponentExtremity = "extremity"
	ComponentRecency   = "recency"
	ComponentConsensus = "consensus"
)

// OpportunityComponents lista los componentes del opportunity scorer en el
// orden de presentación.
var OpportunityComponents = []string{
	ComponentDistanceTime,
	ComponentYield,
	ComponentLiquidity,
	ComponentSpread,
	ComponentMomentum,
	ComponentCharm,
}

// ConvictionComponents lista los componentes del conviction scorer.
var ConvictionComponents = []string{
	ComponentSize,
	ComponentExtremity,
	ComponentRecency,
	ComponentConsensus,
}

// Component es el sub-score crudo de un componente (0-100) junto con su
// peso efectivo después del ajuste dinámico.
type Component struct {
	Score  float64
	Weight float64
}

// ScoreBreakdown es el único output del engine: score final acotado,
// desglose por componente y los flags/penalties aplicados. Es de solo
// lectura una vez producido.
type ScoreBreakdown struct {
	// Components mapea nombre → sub-score y peso efectivo. Los pesos suman
	// 1.0 dentro de la tolerancia de punto flotante.
	Components map[string]Component
	// Total es el score combinado final, acotado a [0,100].
	Total float64
	// Penalty es el multiplicador aplicado después de combinar (1.0 = ninguno).
	// Se registra aparte del sub-score de momentum para que sea auditable.
	Penalty float64
	// CounterTrend marca que ambos horizontes de momentum van contra la posición.
	CounterTrend bool
	// InSweetSpot marca que distancia y tiempo caen en el rectángulo configurado.
	InSweetSpot bool
	// Direction es el lado dominante (solo conviction scorer).
	Direction Direction
	// AgreeingTraders es el número de traders del lado dominante (solo conviction).
	AgreeingTraders int
}

// Grade devuelve la banda de calidad del score total.
func (b ScoreBreakdown) Grade() string {
	switch {
	case b.Total >= 75:
		return "A"
	case b.Total >= 60:
		return "B"
	case b.Total >= 45:
		return "C"
	case b.Total >= 30:
		return "D"
	default:
		return "F"
	}
}
