package scanner

import (
	"github.com/alejandrodnm/polyrank/internal/domain"
)

// FilterConfig contiene los parámetros configurables de filtrado.
type FilterConfig struct {
	// MinScore descarta oportunidades por debajo de este total.
	MinScore float64
	// MinVolume descarta mercados ilíquidos (USDC 24h).
	MinVolume float64
	// MaxDaysToExpiry descarta mercados demasiado lejanos.
	MaxDaysToExpiry float64
	// RequireSweetSpot si true, solo incluye oportunidades dentro del rectángulo.
	RequireSweetSpot bool
}

// DefaultFilterConfig devuelve una configuración de filtrado conservadora.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinScore:        45.0,
		MinVolume:       10_000,
		MaxDaysToExpiry: 60,
	}
}

// Filter aplica los filtros configurados sobre una lista de oportunidades.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply devuelve las oportunidades que pasan todos los filtros.
func (f *Filter) Apply(opps []domain.Opportunity) []domain.Opportunity {
	result := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if f.passes(opp) {
			result = append(result, opp)
		}
	}
	return result
}

// passes devuelve true si la oportunidad supera todos los criterios.
func (f *Filter) passes(opp domain.Opportunity) bool {
	if f.cfg.MinScore > 0 && opp.Score() < f.cfg.MinScore {
		return false
	}
	if f.cfg.MinVolume > 0 && opp.Snapshot.Volume < f.cfg.MinVolume {
		return false
	}
	if f.cfg.MaxDaysToExpiry > 0 && opp.Snapshot.DaysToExpiry > f.cfg.MaxDaysToExpiry {
		return false
	}
	if f.cfg.RequireSweetSpot && !opp.Breakdown.InSweetSpot {
		return false
	}
	return true
}
