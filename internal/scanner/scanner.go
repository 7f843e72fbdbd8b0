package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyrank/internal/domain"
	"github.com/alejandrodnm/polyrank/internal/ports"
)

// Config contiene la configuración del scanner.
type Config struct {
	ScanInterval time.Duration
	Filter       FilterConfig
	// MaxMarkets limita cuántos mercados se piden por ciclo.
	MaxMarkets int
	// TopN limita cuántas oportunidades se reportan.
	TopN int
	// DryRun ejecuta un solo ciclo y termina.
	DryRun bool
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		ScanInterval: 5 * time.Minute,
		Filter:       DefaultFilterConfig(),
		MaxMarkets:   500,
		TopN:         20,
	}
}

// Scanner es el orquestador principal del loop de escaneo.
type Scanner struct {
	cfg      Config
	markets  ports.MarketProvider
	storage  ports.Storage
	notifier ports.Notifier
	analyzer *Analyzer
	tracker  *Tracker
	filter   *Filter
}

// New crea un Scanner con todas las dependencias inyectadas.
// tracker y storage pueden ser nil: sin wallets tracked no hay señales de
// convicción, y sin storage el scanner solo notifica.
func New(
	cfg Config,
	markets ports.MarketProvider,
	storage ports.Storage,
	notifier ports.Notifier,
	analyzer *Analyzer,
	tracker *Tracker,
) *Scanner {
	return &Scanner{
		cfg:      cfg,
		markets:  markets,
		storage:  storage,
		notifier: notifier,
		analyzer: analyzer,
		tracker:  tracker,
		filter:   NewFilter(cfg.Filter),
	}
}

// Run ejecuta el loop de escaneo hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.ScanInterval,
		"dry_run", s.cfg.DryRun,
	)

	if err := s.runCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
		if s.cfg.DryRun {
			return err
		}
	}

	if s.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve oportunidades y señales.
func (s *Scanner) RunOnce(ctx context.Context) ([]domain.Opportunity, []domain.ConvictionSignal, error) {
	_, opps, signals, err := s.cycle(ctx)
	return opps, signals, err
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
func (s *Scanner) runCycle(ctx context.Context) error {
	start := time.Now()

	cycle, opps, signals, err := s.cycle(ctx)
	if err != nil {
		return err
	}

	if err := s.notifier.Notify(ctx, opps); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	if len(signals) > 0 {
		if err := s.notifier.NotifyConviction(ctx, signals); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	if s.storage != nil {
		if err := s.storage.SaveCycle(ctx, cycle); err != nil {
			slog.Warn("storage error", "err", err)
		}
		if err := s.storage.SaveOpportunities(ctx, opps); err != nil {
			slog.Warn("storage error", "err", err)
		}
		if err := s.storage.SaveConvictionSignals(ctx, signals); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	slog.Info("scan cycle complete",
		"cycle_id", cycle.ID,
		"markets", cycle.MarketsScanned,
		"opportunities", len(opps),
		"signals", len(signals),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch → analyze → filter → rank, y cruza las oportunidades
// con los trades de las wallets tracked.
func (s *Scanner) cycle(ctx context.Context) (domain.ScanCycle, []domain.Opportunity, []domain.ConvictionSignal, error) {
	now := time.Now()
	cycleID := uuid.NewString()

	markets, err := s.markets.FetchActiveMarkets(ctx, s.cfg.MaxMarkets)
	if err != nil {
		return domain.ScanCycle{}, nil, nil, fmt.Errorf("scanner.cycle: fetch markets: %w", err)
	}

	var opps []domain.Opportunity
	for _, market := range markets {
		opp, err := s.analyzer.Analyze(market, now)
		if err != nil {
			slog.Debug("analyze skipped market", "market_id", market.ID, "err", err)
			continue
		}
		opp.CycleID = cycleID
		opps = append(opps, opp)
	}

	ranked := rankByScore(s.filter.Apply(opps))
	if s.cfg.TopN > 0 && len(ranked) > s.cfg.TopN {
		ranked = ranked[:s.cfg.TopN]
	}

	var signals []domain.ConvictionSignal
	if s.tracker != nil {
		signals, err = s.tracker.Signals(ctx, now, directionHints(ranked))
		if err != nil {
			slog.Warn("tracker failed", "err", err)
		}
		for i := range signals {
			signals[i].CycleID = cycleID
		}
	}

	cycle := domain.ScanCycle{
		ID:             cycleID,
		StartedAt:      now,
		MarketsScanned: len(markets),
		Opportunities:  len(ranked),
		Signals:        len(signals),
	}
	if len(ranked) > 0 {
		cycle.BestScore = ranked[0].Score()
	}
	return cycle, ranked, signals, nil
}

// directionHints mapea market ID → dirección tracked de cada oportunidad,
// para que el conviction scorer responda "¿los tracked apoyan este lado?".
func directionHints(opps []domain.Opportunity) map[string]domain.Direction {
	hints := make(map[string]domain.Direction, len(opps))
	for _, opp := range opps {
		hints[opp.Market.ConditionID] = opp.Snapshot.Direction
	}
	return hints
}

// rankByScore ordena las oportunidades por score total descendente.
func rankByScore(opps []domain.Opportunity) []domain.Opportunity {
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].Score() > opps[j].Score()
	})
	return opps
}
