package ports

import (
	"context"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

// MarketProvider obtiene mercados binarios activos desde la Gamma API.
type MarketProvider interface {
	// FetchActiveMarkets devuelve los mercados activos ordenados por
	// volumen, hasta el límite dado. Pagina automáticamente.
	FetchActiveMarkets(ctx context.Context, limit int) ([]domain.Market, error)
}
