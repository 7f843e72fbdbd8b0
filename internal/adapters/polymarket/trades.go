package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

const (
	tradesPerPage  = 500
	tradesMaxPages = 4
)

// FetchTradesByUser obtiene los trades recientes de una wallet desde la
// Data API pública, paginando hasta salir de la ventana since.
func (c *Client) FetchTradesByUser(ctx context.Context, wallet string, since time.Time) ([]domain.WalletTrade, error) {
	var all []domain.WalletTrade

	for page := 0; page < tradesMaxPages; page++ {
		offset := page * tradesPerPage
		url := fmt.Sprintf("%s/trades?user=%s&limit=%d&offset=%d",
			c.dataBase, wallet, tradesPerPage, offset)

		var resp []rawDataTrade
		if err := c.get(ctx, c.dataLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("data-api.FetchTradesByUser: %w", err)
		}
		if len(resp) == 0 {
			break
		}

		stale := false
		for _, rt := range resp {
			trade := mapDataTrade(rt)
			if trade.Time.Before(since) {
				// la API devuelve trades en orden descendente: el resto
				// de la página y las siguientes son más viejos
				stale = true
				break
			}
			all = append(all, trade)
		}

		slog.Debug("fetched trades page",
			"wallet", wallet,
			"page", page,
			"count", len(resp),
			"kept", len(all),
		)

		if stale || len(resp) < tradesPerPage {
			break
		}
	}
	return all, nil
}
