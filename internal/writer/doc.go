// Package writer implements the batch writer that archives snapshots.
//
// A run writes one snapshot_runs row, then instrument and option rows in
// pgx batches of at most BatchSize statements. Instrument and option rows
// are upserted on (ticker, reference_date) so a rerun on the same session
// replaces the earlier values.
package writer
