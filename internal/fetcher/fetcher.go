package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/b3-data/internal/api"
	"github.com/rickgao/b3-data/internal/model"
)

// ErrPriceFiltered marks a ticker whose price is outside (0, MaxPrice].
var ErrPriceFiltered = api.ErrPriceFiltered

// Provider fetches the provider record of one ticker.
type Provider interface {
	FetchRecord(ctx context.Context, ticker string, maxPrice decimal.Decimal) (model.ProviderRecord, error)
}

// Config holds pool configuration.
type Config struct {
	Workers       int             // Max concurrent fetches (default: 10)
	Timeout       time.Duration   // Per-ticker timeout (default: 30s)
	MaxPrice      decimal.Decimal // Price ceiling; zero disables the filter
	ProgressEvery int             // Log progress every N tickers (default: 10)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:       10,
		Timeout:       30 * time.Second,
		ProgressEvery: 10,
	}
}

// Status classifies the outcome of one ticker.
type Status int

const (
	Accepted Status = iota
	Skipped         // Not eligible: no price or price filtered
	Failed          // Provider or network error
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of one unit of work.
type Outcome struct {
	Ticker string
	Status Status
	Record model.ProviderRecord
	Err    error
}

// Stats summarizes a run.
type Stats struct {
	Total    int
	Accepted int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Pool fetches provider records concurrently.
type Pool struct {
	cfg      Config
	provider Provider
	logger   *slog.Logger
}

// New creates a new Pool. Zero config fields take their defaults.
func New(cfg Config, provider Provider, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = def.ProgressEvery
	}
	return &Pool{
		cfg:      cfg,
		provider: provider,
		logger:   logger,
	}
}

// Run fetches every ticker and returns the outcomes in input order.
func (p *Pool) Run(ctx context.Context, tickers []string) ([]Outcome, Stats) {
	start := time.Now()
	outcomes := make([]Outcome, len(tickers))

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)

	var done, accepted, skipped, failed atomic.Int64

	for i, ticker := range tickers {
		g.Go(func() error {
			out := p.fetch(ctx, ticker)
			outcomes[i] = out

			switch out.Status {
			case Accepted:
				accepted.Add(1)
			case Skipped:
				skipped.Add(1)
				p.logger.Debug("ticker skipped", "ticker", ticker, "reason", out.Err)
			case Failed:
				failed.Add(1)
				p.logger.Debug("ticker failed", "ticker", ticker, "error", out.Err)
			}

			if n := done.Add(1); n%int64(p.cfg.ProgressEvery) == 0 {
				p.logger.Info("fetch progress",
					"done", n,
					"total", len(tickers),
					"accepted", accepted.Load(),
				)
			}
			return nil
		})
	}

	// Units never return errors.
	_ = g.Wait()

	stats := Stats{
		Total:    len(tickers),
		Accepted: int(accepted.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}

	p.logger.Info("fetch complete",
		"tickers", stats.Total,
		"accepted", stats.Accepted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)

	return outcomes, stats
}

// fetch runs one unit of work under the per-ticker timeout.
func (p *Pool) fetch(ctx context.Context, ticker string) Outcome {
	out := Outcome{Ticker: ticker}

	if err := ctx.Err(); err != nil {
		out.Status, out.Err = Failed, err
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	rec, err := p.provider.FetchRecord(ctx, ticker, p.cfg.MaxPrice)
	if err != nil {
		out.Err = err
		if errors.Is(err, api.ErrNoPrice) || errors.Is(err, ErrPriceFiltered) {
			out.Status = Skipped
		} else {
			out.Status = Failed
		}
		return out
	}

	if !inRange(rec.Price, p.cfg.MaxPrice) {
		out.Status = Skipped
		out.Err = fmt.Errorf("%s at %s: %w", ticker, rec.Price, ErrPriceFiltered)
		return out
	}

	rec.Ticker = model.NormalizeTicker(ticker)
	out.Status, out.Record = Accepted, rec
	return out
}

func inRange(price, max decimal.Decimal) bool {
	if !price.IsPositive() {
		return false
	}
	return !max.IsPositive() || price.LessThanOrEqual(max)
}

// Records returns the accepted records of outcomes, preserving order.
func Records(outcomes []Outcome) []model.ProviderRecord {
	out := make([]model.ProviderRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status == Accepted {
			out = append(out, o.Record)
		}
	}
	return out
}
