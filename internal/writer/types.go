package writer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of statements sent per pgx batch.
	BatchSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize: 500,
	}
}

// WriterMetrics tracks writer activity.
type WriterMetrics struct {
	Inserts int64 // Rows written or replaced
	Skipped int64 // Statements that affected no row
	Flushes int64 // Batches sent
	Errors  int64
}

// runRow represents a row for the snapshot_runs table.
type runRow struct {
	RunID         uuid.UUID
	ReferenceDate time.Time
	Source        string
	Total         int
}

// instrumentRow represents a row for the instrument_snapshots table.
type instrumentRow struct {
	ReferenceDate  time.Time
	Ticker         string
	RunID          uuid.UUID
	Name           string
	Sector         string
	Price          decimal.Decimal
	Volume         decimal.NullDecimal
	DayChange      decimal.NullDecimal
	WeekChange     decimal.NullDecimal
	FiveYearChange decimal.NullDecimal
	DividendYield  decimal.NullDecimal
	PriceEarnings  decimal.NullDecimal
	PriceToBook    decimal.NullDecimal
	GrahamUpside   decimal.NullDecimal
}

// optionRow represents a row for the option_snapshots table.
type optionRow struct {
	ReferenceDate time.Time
	Ticker        string
	Underlying    string // Instrument the contract was linked to
	RunID         uuid.UUID
	Type          string // CALL or PUT
	Strike        decimal.NullDecimal
	Price         decimal.NullDecimal
	Expiry        time.Time
}
