package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

// TradeProvider obtiene los trades recientes de una wallet tracked
// desde la Data API.
type TradeProvider interface {
	FetchTradesByUser(ctx context.Context, wallet string, since time.Time) ([]domain.WalletTrade, error)
}
