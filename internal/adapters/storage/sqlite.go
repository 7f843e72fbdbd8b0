package storage

// sqlite.go — almacenamiento eficiente y sin ruido.
//
// Estrategia:
//   - `cycles`: resumen ligero por ciclo (mercados, oportunidades, señales,
//     best score). Siempre 1 fila.
//   - `opportunities`: UNA fila por mercado (UPSERT). Solo las que pasan el
//     filtro del scanner — el resto no aporta señal útil como histórico.
//   - Cache en memoria: evita writes si el estado no cambió (> 5% en score,
//     o cambio de grade). En un ciclo normal la mayoría de mercados no se
//     mueve → reducción grande de escrituras a disco.
//   - `conviction_signals`: una fila por mercado con actividad tracked.
//   - Prune automático al arrancar: cycles > 30d, el resto no visto en 14d.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS cycles (
    id            TEXT PRIMARY KEY,
    started_at    DATETIME NOT NULL,
    markets       INTEGER  NOT NULL DEFAULT 0,
    opportunities INTEGER  NOT NULL DEFAULT 0,
    signals       INTEGER  NOT NULL DEFAULT 0,
    best_score    REAL     NOT NULL DEFAULT 0
);

-- Una fila por mercado que pasó el filtro, sin duplicados
CREATE TABLE IF NOT EXISTS opportunities (
    condition_id  TEXT PRIMARY KEY,
    question      TEXT,
    slug          TEXT,
    grade         TEXT    NOT NULL,
    score         REAL    NOT NULL DEFAULT 0,
    probability   REAL    NOT NULL DEFAULT 0,
    direction     TEXT    NOT NULL,
    days_left     REAL    NOT NULL DEFAULT 0,
    volume        REAL    NOT NULL DEFAULT 0,
    spread        REAL    NOT NULL DEFAULT 0,
    apy           REAL    NOT NULL DEFAULT 0,
    in_sweet_spot INTEGER NOT NULL DEFAULT 0,
    counter_trend INTEGER NOT NULL DEFAULT 0,
    penalty       REAL    NOT NULL DEFAULT 1,
    cycle_id      TEXT,
    end_date      DATETIME,
    first_seen    DATETIME NOT NULL,
    last_seen     DATETIME NOT NULL,
    peak_score    REAL    NOT NULL DEFAULT 0
);

-- Una fila por mercado con actividad de wallets tracked
CREATE TABLE IF NOT EXISTS conviction_signals (
    market_id  TEXT PRIMARY KEY,
    slug       TEXT,
    direction  TEXT    NOT NULL,
    score      REAL    NOT NULL DEFAULT 0,
    traders    INTEGER NOT NULL DEFAULT 0,
    trades     INTEGER NOT NULL DEFAULT 0,
    cycle_id   TEXT,
    first_seen DATETIME NOT NULL,
    last_seen  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_at   ON cycles(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_grade   ON opportunities(grade);
CREATE INDEX IF NOT EXISTS idx_opp_last    ON opportunities(last_seen DESC);
CREATE INDEX IF NOT EXISTS idx_opp_score   ON opportunities(score DESC);
CREATE INDEX IF NOT EXISTS idx_sig_last    ON conviction_signals(last_seen DESC);
`

const (
	retentionCycles = 30 * 24 * time.Hour // ciclos: 30 días
	retentionRows   = 14 * 24 * time.Hour // el resto: 14 días (la mayoría de mercados resuelve antes)
	scoreChangePct  = 0.05                // 5% de cambio en score → reescribir
)

// cachedState es el snapshot del último estado guardado de un mercado.
type cachedState struct {
	grade string
	score float64
}

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]cachedState // conditionID → estado guardado
	mu    sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]cachedState),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SaveCycle persiste el resumen del ciclo — siempre una fila, pesa ~60 bytes.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, c domain.ScanCycle) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (id, started_at, markets, opportunities, signals, best_score)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.StartedAt.UTC(), c.MarketsScanned, c.Opportunities, c.Signals, c.BestScore,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert: %w", err)
	}
	return nil
}

// SaveOpportunities hace upsert de las oportunidades que cambiaron respecto
// al ciclo anterior (usando caché en memoria).
func (s *SQLiteStorage) SaveOpportunities(ctx context.Context, opportunities []domain.Opportunity) error {
	toWrite := s.filterChanged(opportunities)
	if len(toWrite) == 0 {
		return nil // nada nuevo — la gran mayoría de ciclos terminan aquí
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveOpportunities: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities
			(condition_id, question, slug, grade, score, probability, direction,
			 days_left, volume, spread, apy, in_sweet_spot, counter_trend, penalty,
			 cycle_id, end_date, first_seen, last_seen, peak_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(condition_id) DO UPDATE SET
			question      = excluded.question,
			grade         = excluded.grade,
			score         = excluded.score,
			probability   = excluded.probability,
			direction     = excluded.direction,
			days_left     = excluded.days_left,
			volume        = excluded.volume,
			spread        = excluded.spread,
			apy           = excluded.apy,
			in_sweet_spot = excluded.in_sweet_spot,
			counter_trend = excluded.counter_trend,
			penalty       = excluded.penalty,
			cycle_id      = excluded.cycle_id,
			end_date      = excluded.end_date,
			last_seen     = excluded.last_seen,
			peak_score    = MAX(peak_score, excluded.score)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveOpportunities: prepare: %w", err)
	}
	defer stmt.Close()

	for _, opp := range toWrite {
		var endDate *time.Time
		if !opp.Market.EndDate.IsZero() {
			t := opp.Market.EndDate.UTC()
			endDate = &t
		}

		if _, err := stmt.ExecContext(ctx,
			opp.Market.ConditionID,
			opp.Market.Question,
			opp.Market.Slug,
			opp.Grade(),
			opp.Score(),
			opp.Snapshot.Probability,
			opp.Snapshot.Direction.String(),
			opp.Snapshot.DaysToExpiry,
			opp.Snapshot.Volume,
			opp.Snapshot.Spread,
			opp.Snapshot.APY,
			boolInt(opp.Breakdown.InSweetSpot),
			boolInt(opp.Breakdown.CounterTrend),
			opp.Breakdown.Penalty,
			opp.CycleID,
			endDate,
			now, // first_seen: ignorado en ON CONFLICT (no se sobreescribe)
			now, // last_seen
			opp.Score(),
		); err != nil {
			return fmt.Errorf("storage.SaveOpportunities: upsert %s: %w", opp.Market.ConditionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveOpportunities: commit: %w", err)
	}
	return nil
}

// SaveConvictionSignals hace upsert de las señales del ciclo. Las señales
// son pocas (una por mercado con actividad tracked): no hace falta caché.
func (s *SQLiteStorage) SaveConvictionSignals(ctx context.Context, signals []domain.ConvictionSignal) error {
	if len(signals) == 0 {
		return nil
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveConvictionSignals: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conviction_signals
			(market_id, slug, direction, score, traders, trades, cycle_id, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market_id) DO UPDATE SET
			direction = excluded.direction,
			score     = excluded.score,
			traders   = excluded.traders,
			trades    = excluded.trades,
			cycle_id  = excluded.cycle_id,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveConvictionSignals: prepare: %w", err)
	}
	defer stmt.Close()

	for _, sig := range signals {
		if _, err := stmt.ExecContext(ctx,
			sig.Cluster.MarketID,
			sig.Cluster.Slug,
			sig.Breakdown.Direction.String(),
			sig.Score(),
			sig.Breakdown.AgreeingTraders,
			len(sig.Cluster.Trades),
			sig.CycleID,
			now,
			now,
		); err != nil {
			return fmt.Errorf("storage.SaveConvictionSignals: upsert %s: %w", sig.Cluster.MarketID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveConvictionSignals: commit: %w", err)
	}
	return nil
}

// GetHistory devuelve oportunidades cuyo last_seen está en el rango dado.
// Ordenadas por score desc — las mejores primero. Reconstruye el snapshot
// persistido; el breakdown por componente no se almacena.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT condition_id, question, slug, score, probability, direction,
		       days_left, volume, spread, apy, in_sweet_spot, counter_trend,
		       penalty, cycle_id, last_seen
		FROM opportunities
		WHERE last_seen BETWEEN ? AND ?
		ORDER BY score DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var dirStr string
		var inSpot, counter int

		if err := rows.Scan(
			&opp.Market.ConditionID,
			&opp.Market.Question,
			&opp.Market.Slug,
			&opp.Breakdown.Total,
			&opp.Snapshot.Probability,
			&dirStr,
			&opp.Snapshot.DaysToExpiry,
			&opp.Snapshot.Volume,
			&opp.Snapshot.Spread,
			&opp.Snapshot.APY,
			&inSpot,
			&counter,
			&opp.Breakdown.Penalty,
			&opp.CycleID,
			&opp.ScannedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}

		opp.Snapshot.Direction = parseDirection(dirStr)
		opp.Breakdown.Direction = opp.Snapshot.Direction
		opp.Breakdown.InSweetSpot = inSpot == 1
		opp.Breakdown.CounterTrend = counter == 1
		opps = append(opps, opp)
	}

	return opps, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// filterChanged devuelve las oportunidades que cambiaron respecto al estado
// en caché, y actualiza la caché con el nuevo estado.
func (s *SQLiteStorage) filterChanged(opps []domain.Opportunity) []domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toWrite []domain.Opportunity
	for _, opp := range opps {
		cid := opp.Market.ConditionID
		grade := opp.Grade()

		if prev, ok := s.cache[cid]; ok {
			// Saltar si no cambió nada significativo
			unchanged := prev.grade == grade &&
				relChange(prev.score, opp.Score()) < scoreChangePct
			if unchanged {
				continue
			}
		}

		toWrite = append(toWrite, opp)
		s.cache[cid] = cachedState{grade: grade, score: opp.Score()}
	}
	return toWrite
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoffCycles := time.Now().UTC().Add(-retentionCycles)
	cutoffRows := time.Now().UTC().Add(-retentionRows)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, cutoffCycles)
	s.db.ExecContext(ctx, `DELETE FROM opportunities WHERE last_seen < ?`, cutoffRows)
	s.db.ExecContext(ctx, `DELETE FROM conviction_signals WHERE last_seen < ?`, cutoffRows)
}

// warmCache precarga la caché desde la DB al arrancar, evitando escrituras
// redundantes en el primer ciclo tras un reinicio.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT condition_id, grade, score FROM opportunities`,
	)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var cid, grade string
		var score float64
		if rows.Scan(&cid, &grade, &score) == nil {
			s.cache[cid] = cachedState{grade: grade, score: score}
		}
	}
}

// parseDirection deshace Direction.String().
func parseDirection(s string) domain.Direction {
	switch s {
	case "BULLISH":
		return domain.DirectionBullish
	case "BEARISH":
		return domain.DirectionBearish
	default:
		return domain.DirectionNeutral
	}
}

// relChange devuelve el cambio relativo entre dos valores (0.0 – ∞).
func relChange(old, new float64) float64 {
	if old == 0 {
		return 1.0 // forzar escritura si antes era 0
	}
	return math.Abs(new-old) / math.Abs(old)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
