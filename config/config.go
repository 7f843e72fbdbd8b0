package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyrank/internal/domain"
)

// Config es la configuración completa del ranker.
type Config struct {
	Scanner    ScannerConfig            `yaml:"scanner"`
	Scoring    domain.OpportunityConfig `yaml:"scoring"`
	Conviction domain.ConvictionConfig  `yaml:"conviction"`
	API        APIConfig                `yaml:"api"`
	Wallets    WalletsConfig            `yaml:"wallets"`
	Storage    StorageConfig            `yaml:"storage"`
	Log        LogConfig                `yaml:"log"`
}

// ScannerConfig controla el ciclo de escaneo y los filtros de salida.
type ScannerConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	// MaxMarkets limita cuántos mercados se puntúan por ciclo.
	MaxMarkets int `yaml:"max_markets"`
	// MinScore descarta oportunidades por debajo de este total.
	MinScore float64 `yaml:"min_score"`
	// MinVolume descarta mercados ilíquidos antes de puntuar.
	MinVolume float64 `yaml:"min_volume"`
	// MaxDaysToExpiry descarta mercados demasiado lejanos.
	MaxDaysToExpiry float64 `yaml:"max_days_to_expiry"`
	// RequireSweetSpot solo reporta oportunidades dentro del rectángulo.
	RequireSweetSpot bool `yaml:"require_sweet_spot"`
	// TopN limita cuántas oportunidades se reportan por ciclo.
	TopN int `yaml:"top_n"`
	// TradeLookbackHours acota la ventana de trades de wallets tracked.
	TradeLookbackHours float64 `yaml:"trade_lookback_hours"`
	// MinConviction descarta señales de convicción por debajo de este total.
	MinConviction float64 `yaml:"min_conviction"`
}

// APIConfig contiene los base URLs de las APIs públicas de Polymarket.
type APIConfig struct {
	GammaBase string `yaml:"gamma_base"`
	DataBase  string `yaml:"data_base"`
}

// WalletsConfig señala el CSV con las wallets tracked.
type WalletsConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig controla dónde se persisten los resultados.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Los bloques de scoring ausentes en el YAML caen a los defaults del dominio.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	cfg := Config{
		Scoring:    domain.DefaultOpportunityConfig(),
		Conviction: domain.DefaultConvictionConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// TradeLookback devuelve la ventana de trades como time.Duration.
func (c *Config) TradeLookback() time.Duration {
	return time.Duration(c.Scanner.TradeLookbackHours * float64(time.Hour))
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYRANK_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POLYRANK_WALLETS"); v != "" {
		cfg.Wallets.Path = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 300
	}
	if cfg.Scanner.MaxMarkets <= 0 {
		cfg.Scanner.MaxMarkets = 500
	}
	if cfg.Scanner.MinVolume <= 0 {
		cfg.Scanner.MinVolume = 10_000
	}
	if cfg.Scanner.MaxDaysToExpiry <= 0 {
		cfg.Scanner.MaxDaysToExpiry = 60
	}
	if cfg.Scanner.TopN <= 0 {
		cfg.Scanner.TopN = 20
	}
	if cfg.Scanner.TradeLookbackHours <= 0 {
		cfg.Scanner.TradeLookbackHours = 48
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyrank.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
