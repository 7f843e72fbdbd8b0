package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100
)

// FetchActiveMarkets obtiene los mercados activos de Gamma ordenados por
// volumen 24h descendente, paginando hasta limit mercados.
func (c *Client) FetchActiveMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	if limit <= 0 {
		limit = gammaPageSize
	}

	var all []domain.Market
	for offset := 0; offset < limit; offset += gammaPageSize {
		pageSize := gammaPageSize
		if remaining := limit - offset; remaining < pageSize {
			pageSize = remaining
		}

		url := fmt.Sprintf("%s%s?active=true&closed=false&order=volume24hr&ascending=false&limit=%d&offset=%d",
			c.gammaBase, gammaMarketsPath, pageSize, offset)

		var resp gammaMarketsResponse
		if err := c.get(ctx, c.gammaLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("gamma.FetchActiveMarkets: page at offset %d: %w", offset, err)
		}
		if len(resp) == 0 {
			break
		}

		for _, gm := range resp {
			all = append(all, mapGammaMarket(gm))
		}

		slog.Debug("fetched gamma markets page",
			"offset", offset,
			"count", len(resp),
			"total", len(all),
		)

		if len(resp) < pageSize {
			break
		}
	}
	return all, nil
}
