// Package database provides the optional TimescaleDB connection used to
// archive published snapshots.
//
// Tables:
//   - snapshot_runs: one row per run (run id, reference date, provenance)
//   - instrument_snapshots: one row per published instrument (hypertable on reference_date)
//   - option_snapshots: one row per linked option contract
//
// The JSON snapshot file stays the source of truth; the database is a history sink.
package database
