package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultMaxPrice        = 10.0
	DefaultPriceMargin     = 5.0
	DefaultLookbackDays    = 6
	DefaultDownloadTimeout = 60 * time.Second
	DefaultRestURL         = "https://query1.finance.yahoo.com"
	DefaultSymbolSuffix    = ".SA"
	DefaultAPITimeout      = 15 * time.Second
	DefaultRetryBackoff    = 1 * time.Second
	DefaultWorkers         = 10
	DefaultFetchTimeout    = 60 * time.Second
	DefaultProgressEvery   = 10
	DefaultOutputPath      = "public/stocks.json"
	DefaultSeedPath        = "configs/base_tickers.json"
	DefaultDatasetCache    = "data/cotahist.json"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultBatchSize       = 500
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// ApplyDefaults fills unset fields with their default values.
func (c *UpdaterConfig) ApplyDefaults() {
	// Exchange defaults
	if c.Exchange.MaxPrice == 0 {
		c.Exchange.MaxPrice = DefaultMaxPrice
	}
	if c.Exchange.PriceMargin == 0 {
		c.Exchange.PriceMargin = DefaultPriceMargin
	}
	if c.Exchange.LookbackDays == 0 {
		c.Exchange.LookbackDays = DefaultLookbackDays
	}
	if c.Exchange.DownloadTimeout == 0 {
		c.Exchange.DownloadTimeout = DefaultDownloadTimeout
	}

	// Provider defaults
	if c.Provider.RestURL == "" {
		c.Provider.RestURL = DefaultRestURL
	}
	if c.Provider.SymbolSuffix == nil {
		suffix := DefaultSymbolSuffix
		c.Provider.SymbolSuffix = &suffix
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultAPITimeout
	}
	if c.Provider.RetryBackoff == 0 {
		c.Provider.RetryBackoff = DefaultRetryBackoff
	}

	// Fetcher defaults
	if c.Fetcher.Workers == 0 {
		c.Fetcher.Workers = DefaultWorkers
	}
	if c.Fetcher.Timeout == 0 {
		c.Fetcher.Timeout = DefaultFetchTimeout
	}
	if c.Fetcher.ProgressEvery == 0 {
		c.Fetcher.ProgressEvery = DefaultProgressEvery
	}

	// Path defaults
	if c.Paths.Output == "" {
		c.Paths.Output = DefaultOutputPath
	}
	if c.Paths.Seed == "" {
		c.Paths.Seed = DefaultSeedPath
	}
	if c.Paths.DatasetCache == "" {
		c.Paths.DatasetCache = DefaultDatasetCache
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
