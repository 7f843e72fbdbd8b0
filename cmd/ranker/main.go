package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polyrank/config"
	"github.com/alejandrodnm/polyrank/internal/adapters/notify"
	"github.com/alejandrodnm/polyrank/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyrank/internal/adapters/storage"
	"github.com/alejandrodnm/polyrank/internal/domain"
	"github.com/alejandrodnm/polyrank/internal/scanner"
	"github.com/alejandrodnm/polyrank/internal/wallets"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full table (default: compact 1-line)")
	validate := flag.Bool("validate", false, "print component breakdown for top 3 markets")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polyrank starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"once", *once,
		"validate", *validate,
	)

	opportunityScorer, err := domain.NewOpportunityScorer(cfg.Scoring)
	if err != nil {
		slog.Error("invalid scoring config", "err", err)
		os.Exit(1)
	}
	convictionScorer, err := domain.NewConvictionScorer(cfg.Conviction)
	if err != nil {
		slog.Error("invalid conviction config", "err", err)
		os.Exit(1)
	}

	client := polymarket.NewClient(cfg.API.GammaBase, cfg.API.DataBase)

	var tracker *scanner.Tracker
	if cfg.Wallets.Path != "" {
		tracked, err := wallets.Load(cfg.Wallets.Path)
		if err != nil {
			slog.Error("failed to load tracked wallets", "err", err, "path", cfg.Wallets.Path)
			os.Exit(1)
		}
		slog.Info("tracking wallets", "count", len(tracked))
		tracker = scanner.NewTracker(
			client,
			convictionScorer,
			wallets.Addresses(tracked),
			cfg.TradeLookback(),
			cfg.Scanner.MinConviction,
		)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table, *validate)

	scanCfg := scanner.DefaultConfig()
	scanCfg.ScanInterval = cfg.ScanInterval()
	scanCfg.MaxMarkets = cfg.Scanner.MaxMarkets
	scanCfg.TopN = cfg.Scanner.TopN
	scanCfg.DryRun = *once
	scanCfg.Filter = scanner.FilterConfig{
		MinScore:         cfg.Scanner.MinScore,
		MinVolume:        cfg.Scanner.MinVolume,
		MaxDaysToExpiry:  cfg.Scanner.MaxDaysToExpiry,
		RequireSweetSpot: cfg.Scanner.RequireSweetSpot,
	}

	analyzer := scanner.NewAnalyzer(opportunityScorer)
	s := scanner.New(scanCfg, client, store, notifier, analyzer, tracker)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polyrank stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
