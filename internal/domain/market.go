package domain

import "time"

// Market representa un mercado de predicción binario en Polymarket,
// con la metadata de Gamma necesaria para construir un MarketSnapshot.
type Market struct {
	ID            string // id numérico de Gamma
	ConditionID   string
	Question      string
	Slug          string
	EndDate       time.Time // fecha de resolución
	Probability   float64   // último precio YES (0-1)
	BestBid       float64
	BestAsk       float64
	Volume24h     float64 // volumen últimas 24h en USDC
	OneDayChange  float64 // cambio fraccional de precio en 24h, con signo
	OneWeekChange float64 // cambio fraccional de precio en 7d, con signo
	Active        bool
	Closed        bool
}

// DaysToResolution devuelve los días hasta que el mercado se resuelve.
// Devuelve 0 si EndDate no está definido o ya pasó.
func (m Market) DaysToResolution(now time.Time) float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	d := m.EndDate.Sub(now).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// RelativeSpread devuelve el spread bid/ask relativo al precio.
// Devuelve 0 si faltan cotizaciones.
func (m Market) RelativeSpread() float64 {
	if m.BestAsk <= m.BestBid || m.Probability <= 0 {
		return 0
	}
	return (m.BestAsk - m.BestBid) / m.Probability
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		if len(conditionID) > 20 {
			q = conditionID[:20] + "..."
		} else {
			q = conditionID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
