package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/b3-data/internal/exchange"
	"github.com/rickgao/b3-data/internal/fetcher"
	"github.com/rickgao/b3-data/internal/model"
	"github.com/rickgao/b3-data/internal/options"
	"github.com/rickgao/b3-data/internal/output"
	"github.com/rickgao/b3-data/internal/reconcile"
	"github.com/rickgao/b3-data/internal/universe"
)

// ErrEmptyResultSet is returned when no instrument qualifies.
var ErrEmptyResultSet = errors.New("no instruments qualified")

// Fetcher runs the per-ticker provider fetches. *fetcher.Pool satisfies it.
type Fetcher interface {
	Run(ctx context.Context, tickers []string) ([]fetcher.Outcome, fetcher.Stats)
}

// Archiver stores a published snapshot. *writer.SnapshotWriter satisfies it.
type Archiver interface {
	Write(ctx context.Context, snap *model.Snapshot) error
}

// Config holds pipeline settings.
type Config struct {
	OutputPath   string // Snapshot JSON, also read as the prior snapshot
	CSVPath      string // Optional
	CSVComma     rune   // Default ','
	SeedPath     string
	DatasetCache string // Where downloaded datasets are cached; empty disables
	ProviderName string
	// ArchiveRequired makes an archiver failure fail the run.
	ArchiveRequired bool
}

// Result summarizes a completed run.
type Result struct {
	Snapshot   *model.Snapshot
	Universe   int
	Fetch      fetcher.Stats
	Enriched   int // Instruments with exchange overrides
	Links      options.Stats
	Exchange   string // Exchange dataset label, empty when provider-only
	ArchiveErr error
}

// Pipeline wires the update stages together.
type Pipeline struct {
	cfg      Config
	source   exchange.Source
	fetcher  Fetcher
	archiver Archiver
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Pipeline. source may be nil for a provider-only run.
func New(cfg Config, source exchange.Source, f Fetcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CSVComma == 0 {
		cfg.CSVComma = ','
	}
	return &Pipeline{
		cfg:     cfg,
		source:  source,
		fetcher: f,
		logger:  logger,
		now:     time.Now,
	}
}

// WithArchiver sets the optional database sink.
func (p *Pipeline) WithArchiver(a Archiver) *Pipeline {
	p.archiver = a
	return p
}

// WithClock sets the time source.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run executes one update. On ErrEmptyResultSet nothing is written.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	now := p.now()

	ds, err := p.loadExchange(ctx)
	if err != nil {
		return nil, err
	}

	prior, err := output.ReadSnapshot(p.cfg.OutputPath)
	if err != nil {
		p.logger.Warn("prior snapshot unreadable", "path", p.cfg.OutputPath, "error", err)
	}
	seed, err := universe.LoadSeed(p.cfg.SeedPath)
	if err != nil {
		seed = universe.DefaultSeed()
		p.logger.Warn("seed file unavailable, using built-in list",
			"path", p.cfg.SeedPath,
			"tickers", len(seed),
			"error", err,
		)
	}

	tickers := universe.Build(ds, prior, seed)
	res.Universe = len(tickers)
	p.logger.Info("ticker universe built",
		"tickers", len(tickers),
		"from_exchange", len(ds.Tickers()),
		"from_prior", len(prior.Tickers()),
		"from_seed", len(seed),
	)

	outcomes, stats := p.fetcher.Run(ctx, tickers)
	res.Fetch = stats
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var idx reconcile.Index
	var records []model.OptionRecord
	ref := model.DateOf(now)
	if ds != nil {
		idx = reconcile.NewIndex(ds.Equities)
		records = ds.Options
		res.Exchange = ds.Source
		if !ds.ReferenceDate.IsZero() {
			ref = ds.ReferenceDate
		}
	}

	instruments, enriched := reconcile.All(fetcher.Records(outcomes), idx)
	res.Enriched = enriched
	if len(instruments) == 0 {
		return nil, fmt.Errorf("%w (%d tickers, %d skipped, %d failed)",
			ErrEmptyResultSet, stats.Total, stats.Skipped, stats.Failed)
	}

	linked, links := options.Link(records, instruments, ref)
	res.Links = links
	p.logger.Info("options linked",
		"records", links.Records,
		"expired", links.Expired,
		"unmatched", links.Unmatched,
		"from_exchange", links.FromExchange,
		"from_provider", links.FromProvider,
		"empty", links.Empty,
	)

	snap := output.Assemble(linked, output.AssembleInput{
		ExchangeSource: res.Exchange,
		ReferenceDate:  ref,
		ProviderName:   p.cfg.ProviderName,
		Now:            now,
		RunID:          uuid.New(),
	})
	res.Snapshot = snap

	if err := output.WriteSnapshot(p.cfg.OutputPath, snap); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}
	if p.cfg.CSVPath != "" {
		if err := output.WriteCSV(p.cfg.CSVPath, snap, p.cfg.CSVComma); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	p.logger.Info("snapshot written",
		"path", p.cfg.OutputPath,
		"instruments", snap.Total,
		"enriched", enriched,
		"source", snap.Source,
		"reference_date", snap.ReferenceDate.String(),
	)

	if p.archiver != nil {
		if err := p.archiver.Write(ctx, snap); err != nil {
			res.ArchiveErr = err
			if p.cfg.ArchiveRequired {
				return res, fmt.Errorf("archive snapshot: %w", err)
			}
			p.logger.Error("archive snapshot failed", "error", err)
		}
	}

	return res, nil
}

// loadExchange returns the exchange dataset, or nil when no source could
// provide one. Only context errors are returned.
func (p *Pipeline) loadExchange(ctx context.Context) (*exchange.Dataset, error) {
	if p.source == nil {
		p.logger.Warn("no exchange source configured")
		return nil, nil
	}

	ds, err := p.source.Fetch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.logger.Warn("continuing without exchange dataset", "error", err)
		return nil, nil
	}
	if ds == nil {
		return nil, nil
	}
	if ds.Source == "" {
		ds.Source = "cotahist"
	}

	if p.cfg.DatasetCache != "" && ds.Source == exchange.DownloadSourceName {
		if err := exchange.SaveDataset(p.cfg.DatasetCache, ds); err != nil {
			p.logger.Warn("dataset cache not written", "path", p.cfg.DatasetCache, "error", err)
		} else {
			p.logger.Debug("dataset cached", "path", p.cfg.DatasetCache)
		}
	}
	return ds, nil
}
