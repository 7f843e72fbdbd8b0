package scanner

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

// momentumScale convierte la media de los cambios 1d/7d en una magnitud
// 0..1: un 25% de movimiento medio satura la escala.
const momentumScale = 4.0

// Analyzer convierte un Market de Gamma en un MarketSnapshot saneado y
// listo para puntuar. Mercados degenerados (precio en 0/1, ya resueltos,
// spread imposible) se rechazan aquí, antes de tocar el scorer.
type Analyzer struct {
	scorer *domain.OpportunityScorer
}

// NewAnalyzer crea un Analyzer sobre un scorer ya validado.
func NewAnalyzer(scorer *domain.OpportunityScorer) *Analyzer {
	return &Analyzer{scorer: scorer}
}

// Analyze construye el snapshot del mercado y lo puntúa.
func (a *Analyzer) Analyze(market domain.Market, now time.Time) (domain.Opportunity, error) {
	snapshot, err := buildSnapshot(market, now)
	if err != nil {
		return domain.Opportunity{}, err
	}

	breakdown, err := a.scorer.Score(snapshot)
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("scanner.Analyze: market %s: %w", market.ID, err)
	}

	return domain.Opportunity{
		Market:    market,
		Snapshot:  snapshot,
		Breakdown: breakdown,
		ScannedAt: now,
	}, nil
}

// buildSnapshot sanea la metadata de Gamma. El lado tracked es el favorito
// actual del mercado: YES si p >= 0.5, NO en caso contrario.
func buildSnapshot(m domain.Market, now time.Time) (domain.MarketSnapshot, error) {
	if m.Closed || !m.Active {
		return domain.MarketSnapshot{}, fmt.Errorf("scanner.buildSnapshot: market %s is not tradeable", m.ID)
	}
	if !(m.Probability > 0 && m.Probability < 1) {
		return domain.MarketSnapshot{}, fmt.Errorf("scanner.buildSnapshot: market %s: %w", m.ID, domain.ErrInvalidProbability)
	}

	days := m.DaysToResolution(now)
	if days <= 0 {
		return domain.MarketSnapshot{}, fmt.Errorf("scanner.buildSnapshot: market %s: %w", m.ID, domain.ErrInvalidExpiry)
	}

	spread := m.RelativeSpread()
	if spread >= 1 {
		return domain.MarketSnapshot{}, fmt.Errorf("scanner.buildSnapshot: market %s: %w", m.ID, domain.ErrInvalidSpread)
	}

	direction := domain.DirectionBullish
	entryPrice := m.Probability
	oneDay, oneWeek := m.OneDayChange, m.OneWeekChange
	if m.Probability < 0.5 {
		// seguimos el lado NO: el precio de entrada y los cambios se miran
		// desde esa perspectiva
		direction = domain.DirectionBearish
		entryPrice = 1.0 - m.Probability
	}

	return domain.MarketSnapshot{
		Probability:   m.Probability,
		Direction:     direction,
		Volume:        m.Volume24h,
		Spread:        spread,
		OneDayChange:  oneDay,
		OneWeekChange: oneWeek,
		Momentum:      momentumMagnitude(oneDay, oneWeek),
		Charm:         math.Abs(oneDay) * 100,
		DaysToExpiry:  days,
		APY:           domain.AnnualizedYield(entryPrice, days),
	}, nil
}

// momentumMagnitude resume los dos horizontes en una magnitud 0..1,
// sin signo: la dirección la juzga el scorer con los cambios crudos.
func momentumMagnitude(oneDay, oneWeek float64) float64 {
	avg := (math.Abs(oneDay) + math.Abs(oneWeek)) / 2
	return domain.Clamp(avg*momentumScale, 0, 1)
}
