package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/b3-data/internal/model"
)

const insertRun = `
	INSERT INTO snapshot_runs (run_id, reference_date, source, total)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (run_id) DO NOTHING`

const upsertInstrument = `
	INSERT INTO instrument_snapshots (reference_date, ticker, run_id, name, sector, price, volume, day_change, week_change, five_year_change, dividend_yield, price_earnings, price_to_book, graham_upside)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (ticker, reference_date) DO UPDATE SET
		run_id = EXCLUDED.run_id, name = EXCLUDED.name, sector = EXCLUDED.sector,
		price = EXCLUDED.price, volume = EXCLUDED.volume, day_change = EXCLUDED.day_change,
		week_change = EXCLUDED.week_change, five_year_change = EXCLUDED.five_year_change,
		dividend_yield = EXCLUDED.dividend_yield, price_earnings = EXCLUDED.price_earnings,
		price_to_book = EXCLUDED.price_to_book, graham_upside = EXCLUDED.graham_upside`

const upsertOption = `
	INSERT INTO option_snapshots (reference_date, ticker, underlying, run_id, option_type, strike, price, expiry)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (underlying, ticker, reference_date) DO UPDATE SET
		run_id = EXCLUDED.run_id, option_type = EXCLUDED.option_type,
		strike = EXCLUDED.strike, price = EXCLUDED.price, expiry = EXCLUDED.expiry`

// Batcher sends a pgx batch. *pgxpool.Pool satisfies it.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// SnapshotWriter archives snapshots into TimescaleDB.
type SnapshotWriter struct {
	cfg    WriterConfig
	db     Batcher
	logger *slog.Logger

	metrics WriterMetrics
}

// NewSnapshotWriter creates a new SnapshotWriter.
func NewSnapshotWriter(cfg WriterConfig, db Batcher, logger *slog.Logger) *SnapshotWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	return &SnapshotWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

// Stats returns current metrics.
func (w *SnapshotWriter) Stats() WriterMetrics {
	return w.metrics
}

// Write stores one snapshot. Rows already sent stay written when a later
// batch fails.
func (w *SnapshotWriter) Write(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return nil
	}
	start := time.Now()

	run := w.transformRun(snap)
	instruments, options := w.transform(snap)

	if err := w.send(ctx, []queued{runQuery(run)}); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	queries := make([]queued, 0, len(instruments)+len(options))
	for _, r := range instruments {
		queries = append(queries, instrumentQuery(r))
	}
	for _, r := range options {
		queries = append(queries, optionQuery(r))
	}

	for lo := 0; lo < len(queries); lo += w.cfg.BatchSize {
		hi := min(lo+w.cfg.BatchSize, len(queries))
		if err := w.send(ctx, queries[lo:hi]); err != nil {
			return fmt.Errorf("write rows %d-%d: %w", lo, hi, err)
		}
	}

	w.logger.Info("snapshot archived",
		"run_id", snap.RunID.String(),
		"instruments", len(instruments),
		"options", len(options),
		"duration", time.Since(start),
	)
	return nil
}

// transformRun converts the snapshot header to a runRow.
func (w *SnapshotWriter) transformRun(snap *model.Snapshot) runRow {
	return runRow{
		RunID:         snap.RunID,
		ReferenceDate: snap.ReferenceDate.Time(),
		Source:        snap.Source,
		Total:         len(snap.Instruments),
	}
}

// transform flattens instruments and their linked options into rows.
func (w *SnapshotWriter) transform(snap *model.Snapshot) ([]instrumentRow, []optionRow) {
	ref := snap.ReferenceDate.Time()
	instruments := make([]instrumentRow, 0, len(snap.Instruments))
	var options []optionRow

	for _, inst := range snap.Instruments {
		ticker := model.NormalizeTicker(inst.Ticker)
		instruments = append(instruments, instrumentRow{
			ReferenceDate:  ref,
			Ticker:         ticker,
			RunID:          snap.RunID,
			Name:           inst.Name,
			Sector:         inst.Sector,
			Price:          inst.Price,
			Volume:         inst.Volume,
			DayChange:      inst.DayChangePct,
			WeekChange:     inst.WeekChangePct,
			FiveYearChange: inst.FiveYearChangePct,
			DividendYield:  inst.DividendYield,
			PriceEarnings:  inst.PriceEarnings,
			PriceToBook:    inst.PriceToBook,
			GrahamUpside:   inst.GrahamUpside,
		})
		for _, o := range inst.Options {
			options = append(options, optionRow{
				ReferenceDate: ref,
				Ticker:        model.NormalizeTicker(o.Ticker),
				Underlying:    ticker,
				RunID:         snap.RunID,
				Type:          string(o.Type),
				Strike:        o.Strike,
				Price:         o.Price,
				Expiry:        o.Expiry.Time(),
			})
		}
	}
	return instruments, options
}

type queued struct {
	sql  string
	args []any
}

func runQuery(r runRow) queued {
	return queued{insertRun, []any{r.RunID, r.ReferenceDate, r.Source, r.Total}}
}

func instrumentQuery(r instrumentRow) queued {
	return queued{upsertInstrument, []any{
		r.ReferenceDate, r.Ticker, r.RunID, r.Name, r.Sector, r.Price, r.Volume,
		r.DayChange, r.WeekChange, r.FiveYearChange,
		r.DividendYield, r.PriceEarnings, r.PriceToBook, r.GrahamUpside,
	}}
}

func optionQuery(r optionRow) queued {
	return queued{upsertOption, []any{
		r.ReferenceDate, r.Ticker, r.Underlying, r.RunID, r.Type, r.Strike, r.Price, r.Expiry,
	}}
}

// send executes queries as one pgx.Batch.
func (w *SnapshotWriter) send(ctx context.Context, queries []queued) error {
	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.sql, q.args...)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range queries {
		ct, err := results.Exec()
		if err != nil {
			w.metrics.Errors++
			return err
		}
		if ct.RowsAffected() == 0 {
			w.metrics.Skipped++
		} else {
			w.metrics.Inserts++
		}
	}
	w.metrics.Flushes++

	w.logger.Debug("flushed snapshot batch", "count", len(queries))
	return nil
}
