package domain

// scoring.go — opportunity scorer: mapea un MarketSnapshot a un score 0-100.
//
// Diseño: seis sub-scores continuos e independientes, combinados con pesos
// ajustados dinámicamente según el contexto. Ningún componente usa
// thresholds duros; cada corte nominal es una sigmoide o una gaussiana
// centrada en el borde. El scorer es una función pura: mismo snapshot y
// misma config → resultado bit a bit idéntico.

import (
	"fmt"
	"math"
)

// OpportunityConfig contiene todos los tunables del opportunity scorer.
// Ningún tunable vive hardcodeado en la lógica: los tests pueden construir
// varias configs en paralelo sin interferencia.
type OpportunityConfig struct {
	Weights ComponentWeights `yaml:"weights"`
	Shifts  WeightShifts     `yaml:"shifts"`

	// Sweet spot: gaussiana 2D sobre (distancia al extremo, días a expiry).
	DistanceCenter float64 `yaml:"distance_center"`
	DistanceSigma  float64 `yaml:"distance_sigma"`
	TimeCenter     float64 `yaml:"time_center"`
	TimeSigma      float64 `yaml:"time_sigma"`

	// Rectángulo del sweet spot y bonus de interacción. Los bordes del
	// bonus se suavizan con sigmoides de anchura BonusRamp*.
	SweetSpotDistanceMin float64 `yaml:"sweet_spot_distance_min"`
	SweetSpotDistanceMax float64 `yaml:"sweet_spot_distance_max"`
	SweetSpotDaysMin     float64 `yaml:"sweet_spot_days_min"`
	SweetSpotDaysMax     float64 `yaml:"sweet_spot_days_max"`
	InteractionBonus     float64 `yaml:"interaction_bonus"`
	BonusRampDistance    float64 `yaml:"bonus_ramp_distance"`
	BonusRampDays        float64 `yaml:"bonus_ramp_days"`

	// Curvas por regímenes para yield y charm, continuas en cada breakpoint.
	YieldCurve []CurveSegment `yaml:"yield_curve"`
	CharmCurve []CurveSegment `yaml:"charm_curve"`

	// Liquidez: logística sobre log10(volumen) centrada en el volumen de referencia.
	VolumeReference float64 `yaml:"volume_reference"`
	VolumeSteepness float64 `yaml:"volume_steepness"`

	// Spread: (1-spread)^convexity × 100.
	SpreadConvexity float64 `yaml:"spread_convexity"`

	// Momentum: multiplicadores por alineación, interpolados sobre una señal
	// tanh suave. MomentumSoftness es la escala del tanh (0.05 ≈ un movimiento
	// del 5% satura la señal).
	MomentumBoost    float64 `yaml:"momentum_boost"`
	MomentumNeutral  float64 `yaml:"momentum_neutral"`
	MomentumPenalty  float64 `yaml:"momentum_penalty"`
	MomentumSoftness float64 `yaml:"momentum_softness"`

	// CounterTrendRiskFactor multiplica el score ya combinado cuando ambos
	// horizontes van contra la posición. Se aplica una sola vez, después de
	// los pesos, para que su efecto sea auditable en el breakdown.
	CounterTrendRiskFactor float64 `yaml:"counter_trend_risk_factor"`
}

// DefaultOpportunityConfig devuelve la configuración canónica: sweet spot
// a 3.5pp del extremo y 8.5 días, con el fit distancia-tiempo dominando.
func DefaultOpportunityConfig() OpportunityConfig {
	return OpportunityConfig{
		Weights: DefaultWeights(),
		Shifts:  DefaultWeightShifts(),

		DistanceCenter: 0.035,
		DistanceSigma:  0.020,
		TimeCenter:     8.5,
		TimeSigma:      3.5,

		SweetSpotDistanceMin: 0.02,
		SweetSpotDistanceMax: 0.05,
		SweetSpotDaysMin:     7.0,
		SweetSpotDaysMax:     10.0,
		InteractionBonus:     1.3,
		BonusRampDistance:    0.005,
		BonusRampDays:        0.75,

		// APY como múltiplo: sub-lineal hasta 100%, potencia suave hasta
		// 1000%, logarítmico por encima. Continua en 1.0 y 10.0.
		YieldCurve: []CurveSegment{
			{Until: 1.0, Kind: SegmentPower, Exponent: 0.85, Gain: 45.0},
			{Until: 10.0, Kind: SegmentPower, Exponent: 0.60, Gain: 15.77},
			{Until: math.Inf(1), Kind: SegmentLog, Gain: 3.47},
		},
		// Charm en pp/día: cuatro regímenes, continuos en 2, 8 y 20.
		CharmCurve: []CurveSegment{
			{Until: 2.0, Kind: SegmentPower, Exponent: 1.0, Gain: 16.0},
			{Until: 8.0, Kind: SegmentPower, Exponent: 0.7, Gain: 16.14},
			{Until: 20.0, Kind: SegmentPower, Exponent: 0.5, Gain: 10.34},
			{Until: math.Inf(1), Kind: SegmentLog, Gain: 5.77},
		},

		VolumeReference: 500_000,
		VolumeSteepness: 2.2,

		SpreadConvexity: 20.0,

		MomentumBoost:    1.5,
		MomentumNeutral:  1.0,
		MomentumPenalty:  0.5,
		MomentumSoftness: 0.05,

		CounterTrendRiskFactor: 0.95,
	}
}

// OpportunityScorer puntúa mercados individuales. Inmutable después de
// construirse; seguro para uso concurrente.
type OpportunityScorer struct {
	cfg   OpportunityConfig
	yield *PiecewiseCurve
	charm *PiecewiseCurve
}

// NewOpportunityScorer valida la configuración completa y precompila las
// curvas por regímenes. Los errores de config se detectan aquí, nunca
// dentro de una llamada de scoring.
func NewOpportunityScorer(cfg OpportunityConfig) (*OpportunityScorer, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: %w", err)
	}
	if cfg.DistanceSigma <= 0 || cfg.TimeSigma <= 0 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: sigmas must be positive (distance %g, time %g)", cfg.DistanceSigma, cfg.TimeSigma)
	}
	if cfg.DistanceCenter <= 0 || cfg.TimeCenter <= 0 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: sweet spot centers must be positive")
	}
	if cfg.SweetSpotDistanceMin >= cfg.SweetSpotDistanceMax || cfg.SweetSpotDaysMin >= cfg.SweetSpotDaysMax {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: sweet spot rectangle is inverted")
	}
	if cfg.InteractionBonus < 1 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: interaction bonus %g must be >= 1", cfg.InteractionBonus)
	}
	if cfg.BonusRampDistance <= 0 || cfg.BonusRampDays <= 0 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: bonus ramps must be positive")
	}
	if cfg.VolumeReference <= 0 || cfg.VolumeSteepness <= 0 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: volume reference/steepness must be positive")
	}
	if cfg.SpreadConvexity <= 0 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: spread convexity must be positive")
	}
	if cfg.MomentumSoftness <= 0 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: momentum softness must be positive")
	}
	if !(cfg.MomentumPenalty < cfg.MomentumNeutral && cfg.MomentumNeutral < cfg.MomentumBoost) {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: momentum multipliers must order penalty < neutral < boost")
	}
	if cfg.CounterTrendRiskFactor <= 0 || cfg.CounterTrendRiskFactor > 1 {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: counter-trend risk factor %g must be in (0,1]", cfg.CounterTrendRiskFactor)
	}

	yield, err := NewPiecewiseCurve(cfg.YieldCurve)
	if err != nil {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: yield curve: %w", err)
	}
	charm, err := NewPiecewiseCurve(cfg.CharmCurve)
	if err != nil {
		return nil, fmt.Errorf("domain.NewOpportunityScorer: charm curve: %w", err)
	}

	return &OpportunityScorer{cfg: cfg, yield: yield, charm: charm}, nil
}

// Score puntúa un snapshot. Determinista y total para cualquier snapshot
// válido; devuelve error solo ante violaciones de contrato del caller.
func (s *OpportunityScorer) Score(m MarketSnapshot) (ScoreBreakdown, error) {
	if err := m.Validate(); err != nil {
		return ScoreBreakdown{}, err
	}

	distance := m.DistanceToExtreme()

	gaussDistance := Gaussian(distance, s.cfg.DistanceCenter, s.cfg.DistanceSigma)
	gaussTime := Gaussian(m.DaysToExpiry, s.cfg.TimeCenter, s.cfg.TimeSigma)
	affinity := gaussDistance * gaussTime

	fitScore, inSweetSpot := s.distanceTimeFit(distance, m.DaysToExpiry, affinity)
	yieldScore := Clamp(s.yield.Eval(m.APY), 0, 100)
	liquidityScore := s.liquidityScore(m.Volume)
	spreadScore := math.Pow(1.0-m.Spread, s.cfg.SpreadConvexity) * 100
	momentumScore, alignment, counterTrend := s.momentumScore(m)
	charmScore := Clamp(s.charm.Eval(m.Charm), 0, 100)

	weights := AdjustWeights(s.cfg.Weights, WeightContext{
		SweetSpotAffinity: affinity,
		DaysToExpiry:      m.DaysToExpiry,
		Misalignment:      math.Max(0, -alignment),
	}, s.cfg.Shifts)

	total := fitScore*weights.DistanceTime +
		yieldScore*weights.Yield +
		liquidityScore*weights.Liquidity +
		spreadScore*weights.Spread +
		momentumScore*weights.Momentum +
		charmScore*weights.Charm

	penalty := 1.0
	if counterTrend {
		penalty = s.cfg.CounterTrendRiskFactor
	}
	total = Clamp(total*penalty, 0, 100)

	return ScoreBreakdown{
		Components: map[string]Component{
			ComponentDistanceTime: {Score: fitScore, Weight: weights.DistanceTime},
			ComponentYield:        {Score: yieldScore, Weight: weights.Yield},
			ComponentLiquidity:    {Score: liquidityScore, Weight: weights.Liquidity},
			ComponentSpread:       {Score: spreadScore, Weight: weights.Spread},
			ComponentMomentum:     {Score: momentumScore, Weight: weights.Momentum},
			ComponentCharm:        {Score: charmScore, Weight: weights.Charm},
		},
		Total:        total,
		Penalty:      penalty,
		CounterTrend: counterTrend,
		InSweetSpot:  inSweetSpot,
	}, nil
}

// distanceTimeFit combina las dos gaussianas con el bonus de interacción.
// El bonus se aplica con una membresía suave al rectángulo: producto de
// cuatro sigmoides centradas en los bordes, sin saltos.
func (s *OpportunityScorer) distanceTimeFit(distance, days, affinity float64) (float64, bool) {
	membership := Sigmoid((distance-s.cfg.SweetSpotDistanceMin)/s.cfg.BonusRampDistance) *
		Sigmoid((s.cfg.SweetSpotDistanceMax-distance)/s.cfg.BonusRampDistance) *
		Sigmoid((days-s.cfg.SweetSpotDaysMin)/s.cfg.BonusRampDays) *
		Sigmoid((s.cfg.SweetSpotDaysMax-days)/s.cfg.BonusRampDays)

	bonus := 1.0 + (s.cfg.InteractionBonus-1.0)*membership
	score := Clamp(affinity*100*bonus, 0, 100)

	inside := distance >= s.cfg.SweetSpotDistanceMin && distance <= s.cfg.SweetSpotDistanceMax &&
		days >= s.cfg.SweetSpotDaysMin && days <= s.cfg.SweetSpotDaysMax
	return score, inside
}

// liquidityScore es una S-curve sobre log10 del volumen: sube con fuerza
// cerca del volumen de referencia y satura en ambas colas. log1p evita
// -Inf con volumen cero.
func (s *OpportunityScorer) liquidityScore(volume float64) float64 {
	logVol := math.Log10(volume + 1)
	logRef := math.Log10(s.cfg.VolumeReference)
	return 100 * Sigmoid(s.cfg.VolumeSteepness*(logVol-logRef))
}

// momentumScore devuelve el sub-score, la señal de alineación en [-1,1] y
// el flag counter-trend. El multiplicador interpola linealmente entre
// penalty, neutral y boost sobre la señal tanh, así pequeños cambios de
// precio nunca producen saltos de score.
func (s *OpportunityScorer) momentumScore(m MarketSnapshot) (score, alignment float64, counterTrend bool) {
	dirSign := 1.0
	if m.Direction == DirectionBearish {
		dirSign = -1.0
	}

	a1 := math.Tanh(m.OneDayChange/s.cfg.MomentumSoftness) * dirSign
	a7 := math.Tanh(m.OneWeekChange/s.cfg.MomentumSoftness) * dirSign
	alignment = (a1 + a7) / 2

	var mult float64
	if alignment >= 0 {
		mult = s.cfg.MomentumNeutral + (s.cfg.MomentumBoost-s.cfg.MomentumNeutral)*alignment
	} else {
		mult = s.cfg.MomentumNeutral + (s.cfg.MomentumNeutral-s.cfg.MomentumPenalty)*alignment
	}

	// Counter-trend estricto: ambos horizontes con signo contrario a la
	// posición. Cambios exactamente cero son neutrales, no contrarios.
	counterTrend = m.OneDayChange*dirSign < 0 && m.OneWeekChange*dirSign < 0

	score = Clamp(Clamp(m.Momentum, 0, 1)*100*mult, 0, 100)
	return score, alignment, counterTrend
}
