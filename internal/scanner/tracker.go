package scanner

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
	"github.com/alejandrodnm/polyrank/internal/ports"
)

// Tracker agrupa los trades recientes de las wallets tracked en clusters
// por mercado y los puntúa con el conviction scorer.
type Tracker struct {
	trades  ports.TradeProvider
	scorer  *domain.ConvictionScorer
	wallets []string

	lookback      time.Duration
	minConviction float64
}

// NewTracker crea un Tracker con las dependencias inyectadas.
func NewTracker(trades ports.TradeProvider, scorer *domain.ConvictionScorer, wallets []string, lookback time.Duration, minConviction float64) *Tracker {
	return &Tracker{
		trades:        trades,
		scorer:        scorer,
		wallets:       wallets,
		lookback:      lookback,
		minConviction: minConviction,
	}
}

// Signals descarga los trades de cada wallet, los agrupa por mercado y
// devuelve las señales que superan el umbral, ordenadas por score.
// hints mapea market ID → dirección de la oportunidad detectada en el
// mismo ciclo; los mercados sin oportunidad se puntúan en neutral.
func (t *Tracker) Signals(ctx context.Context, now time.Time, hints map[string]domain.Direction) ([]domain.ConvictionSignal, error) {
	if len(t.wallets) == 0 {
		return nil, nil
	}

	since := now.Add(-t.lookback)
	byMarket := make(map[string]*domain.TradeCluster)

	for _, wallet := range t.wallets {
		trades, err := t.trades.FetchTradesByUser(ctx, wallet, since)
		if err != nil {
			// un 404 o un timeout en una wallet no tumba el ciclo entero
			slog.Warn("tracker: fetch trades failed", "wallet", wallet, "err", err)
			continue
		}
		for _, wt := range trades {
			cluster, ok := byMarket[wt.MarketID]
			if !ok {
				cluster = &domain.TradeCluster{MarketID: wt.MarketID, Slug: wt.Slug}
				byMarket[wt.MarketID] = cluster
			}
			cluster.Trades = append(cluster.Trades, wt.TradeRecord)
		}
	}

	signals := make([]domain.ConvictionSignal, 0, len(byMarket))
	for _, cluster := range byMarket {
		sort.Slice(cluster.Trades, func(i, j int) bool {
			return cluster.Trades[i].Time.Before(cluster.Trades[j].Time)
		})

		breakdown, err := t.scorer.Score(*cluster, now, hints[cluster.MarketID])
		if err != nil {
			slog.Debug("tracker: cluster rejected", "market", cluster.MarketID, "err", err)
			continue
		}
		if breakdown.Total < t.minConviction {
			continue
		}
		signals = append(signals, domain.ConvictionSignal{
			Cluster:   *cluster,
			Breakdown: breakdown,
			ScoredAt:  now,
		})
	}

	sort.Slice(signals, func(i, j int) bool {
		return signals[i].Score() > signals[j].Score()
	})
	return signals, nil
}
