package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

// Storage persiste los resultados de cada ciclo de escaneo.
type Storage interface {
	// SaveCycle registra el resumen del ciclo (mercados escaneados,
	// oportunidades encontradas, mejor score).
	SaveCycle(ctx context.Context, cycle domain.ScanCycle) error

	// SaveOpportunities persiste las oportunidades de un ciclo. Las repetidas
	// sin cambio material de score pueden deduplicarse.
	SaveOpportunities(ctx context.Context, opportunities []domain.Opportunity) error

	// SaveConvictionSignals persiste las señales de convicción de un ciclo.
	SaveConvictionSignals(ctx context.Context, signals []domain.ConvictionSignal) error

	// GetHistory devuelve las oportunidades registradas en el rango de tiempo dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.Opportunity, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
