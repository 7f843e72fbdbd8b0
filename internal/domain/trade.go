package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownSide indica un trade con side/outcome que no se puede clasificar.
// Es un error de contrato: se devuelve al caller, nunca se coacciona a una dirección.
var ErrUnknownSide = errors.New("trade side/outcome cannot be classified")

// ErrEmptyCluster indica un cluster sin trades. El caller debe filtrar antes de puntuar.
var ErrEmptyCluster = errors.New("trade cluster is empty")

// TradeRecord es un trade de un trader tracked sobre un mercado.
type TradeRecord struct {
	Trader  string // wallet address
	Side    string // "BUY" | "SELL"
	Outcome string // "Yes" | "No"
	Size    float64
	Price   float64
	Time    time.Time
}

// Direction clasifica el trade: comprar YES o vender NO es bullish,
// comprar NO o vender YES es bearish. Valores desconocidos devuelven error.
func (t TradeRecord) Direction() (Direction, error) {
	side := strings.ToUpper(strings.TrimSpace(t.Side))
	outcome := strings.ToUpper(strings.TrimSpace(t.Outcome))

	var yes bool
	switch {
	case strings.Contains(outcome, "YES"):
		yes = true
	case strings.Contains(outcome, "NO"):
		yes = false
	default:
		return DirectionNeutral, fmt.Errorf("domain.TradeRecord: %w (outcome %q)", ErrUnknownSide, t.Outcome)
	}

	switch side {
	case "BUY":
		if yes {
			return DirectionBullish, nil
		}
		return DirectionBearish, nil
	case "SELL":
		if yes {
			return DirectionBearish, nil
		}
		return DirectionBullish, nil
	default:
		return DirectionNeutral, fmt.Errorf("domain.TradeRecord: %w (side %q)", ErrUnknownSide, t.Side)
	}
}

// Notional devuelve el volumen en USDC del trade.
func (t TradeRecord) Notional() float64 {
	return t.Price * t.Size
}

// WalletTrade es un TradeRecord junto con el mercado donde ocurrió,
// tal como lo devuelve la Data API.
type WalletTrade struct {
	MarketID string
	Slug     string
	TradeRecord
}

// TradeCluster agrupa los trades de traders tracked sobre un mismo mercado.
// El caller debe entregar Trades en orden cronológico: la detección del
// clustering bonus asume un scan ordenado por tiempo.
type TradeCluster struct {
	MarketID string
	Slug     string
	Trades   []TradeRecord
}

// Traders devuelve el set de traders distintos del cluster (lowercase).
func (c TradeCluster) Traders() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Trades))
	for _, t := range c.Trades {
		set[strings.ToLower(t.Trader)] = struct{}{}
	}
	return set
}
