package domain

// conviction.go — conviction scorer: puntúa un cluster de trades de
// traders tracked sobre un mismo mercado.
//
// Convicción por trade = tamaño (log) × extremidad del precio × recencia
// (decay exponencial), amortiguada por la volatilidad histórica del
// mercado. El multiplicador de consenso premia que varios traders
// independientes coincidan en dirección; el clustering bonus detecta
// actividad coordinada dentro de una ventana corta.

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ConsensusMode selecciona la forma de crecimiento del multiplicador de consenso.
type ConsensusMode string

const (
	// ConsensusExponential usa base^(n-1): tres traders de acuerdo pesan
	// desproporcionadamente más que dos.
	ConsensusExponential ConsensusMode = "exponential"
	// ConsensusLinear usa 1 + (n-1)×growth.
	ConsensusLinear ConsensusMode = "linear"
)

// ConvictionConfig contiene los tunables del conviction scorer.
type ConvictionConfig struct {
	// SizeScale normaliza el notional antes del log (USDC).
	SizeScale float64 `yaml:"size_scale"`
	// SizeWeight escala el componente de tamaño.
	SizeWeight float64 `yaml:"size_weight"`
	// ExtremityFloor es el mínimo del componente de extremidad para trades
	// cerca del midpoint.
	ExtremityFloor float64 `yaml:"extremity_floor"`
	// HalfLifeHours controla el decay exponencial de recencia: exp(-h/halfLife).
	HalfLifeHours float64 `yaml:"half_life_hours"`
	// VolatilityNorm normaliza la desviación típica de cambios de precio
	// (0.3 ≈ volatilidad alta en mercados de predicción).
	VolatilityNorm float64 `yaml:"volatility_norm"`
	// VolatilityDampingMax es la reducción máxima por volatilidad (0.5 = 50%).
	VolatilityDampingMax float64 `yaml:"volatility_damping_max"`

	ConsensusMode   ConsensusMode `yaml:"consensus_mode"`
	ConsensusBase   float64       `yaml:"consensus_base"`
	ConsensusGrowth float64       `yaml:"consensus_growth"`

	// ClusteringWindowHours y ClusteringBonus modelan el copy-trading: si más
	// de la mitad de los gaps consecutivos del mismo lado caen dentro de la
	// ventana, el lado recibe el bonus plano.
	ClusteringWindowHours float64 `yaml:"clustering_window_hours"`
	ClusteringBonus       float64 `yaml:"clustering_bonus"`
}

// DefaultConvictionConfig devuelve la configuración de referencia.
func DefaultConvictionConfig() ConvictionConfig {
	return ConvictionConfig{
		SizeScale:            10_000,
		SizeWeight:           15.0,
		ExtremityFloor:       0.25,
		HalfLifeHours:        6.0,
		VolatilityNorm:       0.3,
		VolatilityDampingMax: 0.5,

		ConsensusMode:   ConsensusExponential,
		ConsensusBase:   1.5,
		ConsensusGrowth: 0.5,

		ClusteringWindowHours: 1.0,
		ClusteringBonus:       1.3,
	}
}

// ConvictionScorer puntúa clusters de trades. Inmutable y seguro para uso
// concurrente; todo el estado temporal vive en la llamada.
type ConvictionScorer struct {
	cfg ConvictionConfig
}

// NewConvictionScorer valida la configuración en construcción.
func NewConvictionScorer(cfg ConvictionConfig) (*ConvictionScorer, error) {
	if cfg.SizeScale <= 0 || cfg.SizeWeight <= 0 {
		return nil, fmt.Errorf("domain.NewConvictionScorer: size scale/weight must be positive")
	}
	if cfg.ExtremityFloor < 0 || cfg.ExtremityFloor >= 1 {
		return nil, fmt.Errorf("domain.NewConvictionScorer: extremity floor %g must be in [0,1)", cfg.ExtremityFloor)
	}
	if cfg.HalfLifeHours <= 0 {
		return nil, fmt.Errorf("domain.NewConvictionScorer: half-life %g must be positive", cfg.HalfLifeHours)
	}
	if cfg.VolatilityNorm <= 0 || cfg.VolatilityDampingMax < 0 || cfg.VolatilityDampingMax > 1 {
		return nil, fmt.Errorf("domain.NewConvictionScorer: volatility damping out of range")
	}
	switch cfg.ConsensusMode {
	case ConsensusExponential:
		if cfg.ConsensusBase <= 1 {
			return nil, fmt.Errorf("domain.NewConvictionScorer: consensus base %g must be > 1", cfg.ConsensusBase)
		}
	case ConsensusLinear:
		if cfg.ConsensusGrowth < 0 {
			return nil, fmt.Errorf("domain.NewConvictionScorer: consensus growth %g must be >= 0", cfg.ConsensusGrowth)
		}
	default:
		return nil, fmt.Errorf("domain.NewConvictionScorer: unknown consensus mode %q", cfg.ConsensusMode)
	}
	if cfg.ClusteringWindowHours <= 0 || cfg.ClusteringBonus < 1 {
		return nil, fmt.Errorf("domain.NewConvictionScorer: clustering window/bonus out of range")
	}
	return &ConvictionScorer{cfg: cfg}, nil
}

// directionTally acumula el estado de un lado del cluster.
type directionTally struct {
	conviction float64
	traders    map[string]struct{}
	times      []time.Time
	prices     []float64

	// medias para el breakdown, informativas
	sizeSum      float64
	extremitySum float64
	recencySum   float64
	count        int
}

// Score puntúa el cluster en el instante now. Un hint no-neutral puntúa
// solo ese lado ("¿este cluster apoya mi dirección?"); con hint neutral
// gana el lado dominante y un empate exacto produce score 0.
func (s *ConvictionScorer) Score(cluster TradeCluster, now time.Time, hint Direction) (ScoreBreakdown, error) {
	if len(cluster.Trades) == 0 {
		return ScoreBreakdown{}, fmt.Errorf("domain.ConvictionScorer: %w", ErrEmptyCluster)
	}

	bull := newTally()
	bear := newTally()

	for _, trade := range cluster.Trades {
		dir, err := trade.Direction()
		if err != nil {
			return ScoreBreakdown{}, fmt.Errorf("domain.ConvictionScorer: market %s: %w", cluster.MarketID, err)
		}

		tally := bull
		if dir == DirectionBearish {
			tally = bear
		}

		sizeComp := math.Log1p(trade.Notional()/s.cfg.SizeScale) * s.cfg.SizeWeight
		extremityComp := s.cfg.ExtremityFloor + (1-s.cfg.ExtremityFloor)*math.Abs(trade.Price-0.5)*2
		recencyComp := s.recency(now, trade.Time)

		tally.conviction += sizeComp * extremityComp * recencyComp
		tally.traders[strings.ToLower(trade.Trader)] = struct{}{}
		tally.times = append(tally.times, trade.Time)
		tally.prices = append(tally.prices, trade.Price)
		tally.sizeSum += sizeComp
		tally.extremitySum += extremityComp
		tally.recencySum += recencyComp
		tally.count++
	}

	bullScore := s.directionScore(bull)
	bearScore := s.directionScore(bear)

	var total float64
	var direction Direction
	switch hint {
	case DirectionBullish:
		total, direction = bullScore, DirectionBullish
	case DirectionBearish:
		total, direction = bearScore, DirectionBearish
	default:
		switch {
		case bullScore > bearScore:
			total, direction = bullScore-bearScore, DirectionBullish
		case bearScore > bullScore:
			total, direction = bearScore-bullScore, DirectionBearish
		default:
			// empate exacto: señal neutral, nunca amplificada
			total, direction = 0, DirectionNeutral
		}
	}

	dominant := bull
	if direction == DirectionBearish {
		dominant = bear
	}

	return ScoreBreakdown{
		Components:      s.breakdownComponents(dominant),
		Total:           Clamp(total, 0, 100),
		Penalty:         1.0,
		Direction:       direction,
		AgreeingTraders: len(dominant.traders),
	}, nil
}

func newTally() *directionTally {
	return &directionTally{traders: make(map[string]struct{})}
}

// directionScore aplica damping por volatilidad, consenso y clustering
// sobre la convicción acumulada de un lado.
func (s *ConvictionScorer) directionScore(t *directionTally) float64 {
	if t.count == 0 {
		return 0
	}
	damping := 1.0 - s.volatility(t.prices)*s.cfg.VolatilityDampingMax
	return t.conviction * damping * s.consensusMultiplier(len(t.traders)) * s.clusteringBonus(t.times)
}

// recency es el decay exponencial exp(-horas/halfLife). Trades con
// timestamp futuro cuentan como recién ejecutados.
func (s *ConvictionScorer) recency(now, tradeTime time.Time) float64 {
	hours := now.Sub(tradeTime).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Exp(-hours / s.cfg.HalfLifeHours)
}

// volatility es la desviación típica de los cambios absolutos de precio,
// normalizada a [0,1]. Con menos de dos precios no hay señal de ruido.
func (s *ConvictionScorer) volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	changes := make([]float64, 0, len(prices)-1)
	var mean float64
	for i := 1; i < len(prices); i++ {
		c := math.Abs(prices[i] - prices[i-1])
		changes = append(changes, c)
		mean += c
	}
	mean /= float64(len(changes))

	var variance float64
	for _, c := range changes {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(changes))

	return Clamp(math.Sqrt(variance)/s.cfg.VolatilityNorm, 0, 1)
}

// consensusMultiplier crece con el número de traders distintos del lado.
func (s *ConvictionScorer) consensusMultiplier(traders int) float64 {
	if traders <= 0 {
		return 0
	}
	if s.cfg.ConsensusMode == ConsensusLinear {
		return 1.0 + float64(traders-1)*s.cfg.ConsensusGrowth
	}
	return math.Pow(s.cfg.ConsensusBase, float64(traders-1))
}

// clusteringBonus detecta trades del mismo lado agrupados en el tiempo.
// Asume times en orden cronológico (responsabilidad del caller).
func (s *ConvictionScorer) clusteringBonus(times []time.Time) float64 {
	if len(times) < 2 {
		return 1.0
	}
	window := time.Duration(s.cfg.ClusteringWindowHours * float64(time.Hour))
	clustered := 0
	for i := 1; i < len(times); i++ {
		if times[i].Sub(times[i-1]) <= window {
			clustered++
		}
	}
	if float64(clustered)/float64(len(times)-1) > 0.5 {
		return s.cfg.ClusteringBonus
	}
	return 1.0
}

// breakdownComponents expone las medias por trade del lado dominante en la
// escala 0-100. Los pesos son informativos (el modelo es multiplicativo,
// no una suma ponderada) y reparten 1.0 a partes iguales.
func (s *ConvictionScorer) breakdownComponents(t *directionTally) map[string]Component {
	n := float64(t.count)
	if n == 0 {
		n = 1
	}
	w := 1.0 / float64(len(ConvictionComponents))
	return map[string]Component{
		ComponentSize:      {Score: Clamp(t.sizeSum/n, 0, 100), Weight: w},
		ComponentExtremity: {Score: Clamp(t.extremitySum/n*100, 0, 100), Weight: w},
		ComponentRecency:   {Score: Clamp(t.recencySum/n*100, 0, 100), Weight: w},
		ComponentConsensus: {Score: Clamp((s.consensusMultiplier(len(t.traders))-1.0)*100, 0, 100), Weight: w},
	}
}
