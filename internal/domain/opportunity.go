package domain

import "time"

// ScanCycle resume un ciclo de escaneo completo.
type ScanCycle struct {
	ID             string // uuid v4
	StartedAt      time.Time
	MarketsScanned int
	Opportunities  int
	Signals        int
	BestScore      float64
}

// Opportunity es el resultado de puntuar un mercado en un ciclo de scan:
// el mercado, el snapshot que se puntuó y el breakdown del engine.
type Opportunity struct {
	Market    Market
	Snapshot  MarketSnapshot
	Breakdown ScoreBreakdown
	CycleID   string // uuid del ciclo de scan que la produjo
	ScannedAt time.Time
}

// Score devuelve el score total del breakdown.
func (o Opportunity) Score() float64 {
	return o.Breakdown.Total
}

// Grade devuelve la banda de calidad (A-F).
func (o Opportunity) Grade() string {
	return o.Breakdown.Grade()
}

// ConvictionSignal es el resultado de puntuar un cluster de trades de
// traders tracked sobre un mercado.
type ConvictionSignal struct {
	Cluster   TradeCluster
	Breakdown ScoreBreakdown
	CycleID   string
	ScoredAt  time.Time
}

// Score devuelve el score total del breakdown.
func (s ConvictionSignal) Score() float64 {
	return s.Breakdown.Total
}
