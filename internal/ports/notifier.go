package ports

import (
	"context"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

// Notifier presenta los resultados de un ciclo al usuario.
type Notifier interface {
	// Notify muestra las oportunidades ordenadas por score.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, opportunities []domain.Opportunity) error

	// NotifyConviction muestra las señales de convicción de wallets tracked.
	NotifyConviction(ctx context.Context, signals []domain.ConvictionSignal) error
}
