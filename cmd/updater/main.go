package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/api"
	"github.com/rickgao/b3-data/internal/config"
	"github.com/rickgao/b3-data/internal/database"
	"github.com/rickgao/b3-data/internal/exchange"
	"github.com/rickgao/b3-data/internal/fetcher"
	"github.com/rickgao/b3-data/internal/pipeline"
	"github.com/rickgao/b3-data/internal/version"
	"github.com/rickgao/b3-data/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/updater.yaml", "path to config file (empty for defaults)")
	envPath := flag.String("env", ".env", "optional KEY=VALUE file loaded before the config")
	maxPrice := flag.Float64("max-price", 0, "override exchange.max_price")
	workers := flag.Int("workers", 0, "override fetcher.workers")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *maxPrice > 0 {
		cfg.Exchange.MaxPrice = *maxPrice
	}
	if *workers > 0 {
		cfg.Fetcher.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting updater",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"max_price", cfg.Exchange.MaxPrice,
		"workers", cfg.Fetcher.Workers,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		if errors.Is(err, pipeline.ErrEmptyResultSet) {
			logger.Error("no instruments qualified, previous snapshot kept", "error", err)
		} else {
			logger.Error("update failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.UpdaterConfig, logger *slog.Logger) error {
	start := time.Now()

	opts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.Provider.Timeout),
		api.WithRetries(cfg.Provider.MaxRetries, cfg.Provider.RetryBackoff),
		api.WithSymbolSuffix(*cfg.Provider.SymbolSuffix),
	}
	if cfg.Provider.UserAgent != "" {
		opts = append(opts, api.WithUserAgent(cfg.Provider.UserAgent))
	}
	client := api.NewClient(cfg.Provider.RestURL, opts...)

	pool := fetcher.New(fetcher.Config{
		Workers:       cfg.Fetcher.Workers,
		Timeout:       cfg.Fetcher.Timeout,
		MaxPrice:      decimal.NewFromFloat(cfg.Exchange.MaxPrice),
		ProgressEvery: cfg.Fetcher.ProgressEvery,
	}, client, logger)

	p := pipeline.New(pipeline.Config{
		OutputPath:      cfg.Paths.Output,
		CSVPath:         cfg.Paths.CSV,
		SeedPath:        cfg.Paths.Seed,
		DatasetCache:    cfg.Paths.DatasetCache,
		ProviderName:    api.ProviderName,
		ArchiveRequired: cfg.Database.Required,
	}, exchangeSource(cfg, logger), pool, logger)

	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Timescale.Host,
			"port", cfg.Database.Timescale.Port,
			"database", cfg.Database.Timescale.Name,
		)
		db, err := connectArchive(ctx, cfg.Database.Timescale)
		switch {
		case err == nil:
			defer db.Close()
			p.WithArchiver(writer.NewSnapshotWriter(writer.WriterConfig{BatchSize: cfg.Writers.BatchSize}, db, logger))
			logger.Info("database connected")
		case cfg.Database.Required:
			return fmt.Errorf("connect database: %w", err)
		default:
			logger.Warn("database unavailable, snapshot will not be archived", "error", err)
		}
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("update complete",
		"instruments", res.Snapshot.Total,
		"universe", res.Universe,
		"accepted", res.Fetch.Accepted,
		"skipped", res.Fetch.Skipped,
		"failed", res.Fetch.Failed,
		"enriched", res.Enriched,
		"source", res.Snapshot.Source,
		"run_id", res.Snapshot.RunID.String(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// exchangeSource builds the primary source chain: external script, then a
// pre-built file, then the daily archive download.
func exchangeSource(cfg *config.UpdaterConfig, logger *slog.Logger) exchange.Source {
	maxPrice := strconv.FormatFloat(cfg.Exchange.MaxPrice, 'f', -1, 64)

	var sources []exchange.Source
	if cfg.Exchange.Script != "" {
		sources = append(sources, exchange.NewScriptSource(
			cfg.Exchange.Script,
			cfg.Exchange.ScriptArgs,
			cfg.Paths.DatasetCache,
			[]string{"MAX_PRECO=" + maxPrice},
			logger,
		))
	}
	if cfg.Exchange.File != "" {
		sources = append(sources, exchange.NewFileSource(cfg.Exchange.File))
	}
	if cfg.Exchange.DownloadEnabled() {
		// The raw file is decoded with some headroom over the published
		// ceiling; the fetcher applies the exact limit.
		limit := decimal.NewFromFloat(cfg.Exchange.MaxPrice + cfg.Exchange.PriceMargin)
		sources = append(sources, exchange.NewDownloadSource(
			cfg.Exchange.DownloadURL,
			exchange.WithDownloadTimeout(cfg.Exchange.DownloadTimeout),
			exchange.WithDownloadLogger(logger),
			exchange.WithLookback(cfg.Exchange.LookbackDays),
			exchange.WithMaxPrice(limit),
		))
	}
	return exchange.NewChain(logger, sources...)
}

// connectArchive opens the database pool and creates the snapshot tables.
func connectArchive(ctx context.Context, dbCfg config.DBConfig) (*pgxpool.Pool, error) {
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
