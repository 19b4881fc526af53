package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *UpdaterConfig) Validate() error {
	if c.Exchange.MaxPrice <= 0 {
		return fmt.Errorf("exchange.max_price must be > 0, got %v", c.Exchange.MaxPrice)
	}
	if c.Exchange.PriceMargin < 0 {
		return fmt.Errorf("exchange.price_margin must be >= 0, got %v", c.Exchange.PriceMargin)
	}
	if c.Exchange.LookbackDays < 1 {
		return errors.New("exchange.lookback_days must be >= 1")
	}

	if c.Provider.MaxRetries < 0 {
		return errors.New("provider.max_retries must be >= 0")
	}

	if c.Fetcher.Workers < 1 {
		return errors.New("fetcher.workers must be >= 1")
	}
	if c.Fetcher.Timeout <= 0 {
		return errors.New("fetcher.timeout must be > 0")
	}

	if c.Paths.Output == "" {
		return errors.New("paths.output is required")
	}

	if c.Database.Enabled {
		if err := c.Database.Timescale.validate("database.timescale"); err != nil {
			return err
		}
		if c.Writers.BatchSize < 1 {
			return errors.New("writers.batch_size must be >= 1")
		}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
