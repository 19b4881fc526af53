package config

import "time"

// UpdaterConfig is the root configuration for a snapshot update run.
type UpdaterConfig struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Provider ProviderConfig `yaml:"provider"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Paths    PathsConfig    `yaml:"paths"`
	Database DatabaseConfig `yaml:"database"`
	Writers  WritersConfig  `yaml:"writers"`
	Log      LogConfig      `yaml:"log"`
}

// ExchangeConfig holds the COTAHIST source settings.
type ExchangeConfig struct {
	MaxPrice     float64  `yaml:"max_price"`    // Price ceiling for published instruments
	PriceMargin  float64  `yaml:"price_margin"` // Added to max_price when decoding the raw file
	Script       string   `yaml:"script"`       // External command producing a JSON dataset
	ScriptArgs   []string `yaml:"script_args"`
	File         string   `yaml:"file"` // Pre-built JSON dataset
	Download     *bool    `yaml:"download"`
	DownloadURL  string   `yaml:"download_url"`
	LookbackDays int      `yaml:"lookback_days"`

	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// DownloadEnabled reports whether the daily archive may be downloaded.
func (e ExchangeConfig) DownloadEnabled() bool {
	return e.Download == nil || *e.Download
}

// ProviderConfig holds market data provider settings.
type ProviderConfig struct {
	RestURL      string        `yaml:"rest_url"`
	SymbolSuffix *string       `yaml:"symbol_suffix"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// FetcherConfig holds worker pool settings.
type FetcherConfig struct {
	Workers       int           `yaml:"workers"`
	Timeout       time.Duration `yaml:"timeout"` // Per ticker, all provider requests included
	ProgressEvery int           `yaml:"progress_every"`
}

// PathsConfig holds file locations.
type PathsConfig struct {
	Output       string `yaml:"output"`        // Snapshot JSON, also read as the prior snapshot
	CSV          string `yaml:"csv"`           // Optional CSV export
	Seed         string `yaml:"seed"`          // {"tickers": [...]} file
	DatasetCache string `yaml:"dataset_cache"` // Script output and decoded dataset cache
}

// DatabaseConfig holds the optional TimescaleDB sink.
type DatabaseConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Required  bool     `yaml:"required"` // Fail the run when the sink fails
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
