package database

// Prices and volumes are NUMERIC so decimal values round-trip exactly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS snapshot_runs (
		run_id         UUID PRIMARY KEY,
		reference_date DATE NOT NULL,
		source         TEXT NOT NULL,
		total          INTEGER NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS instrument_snapshots (
		reference_date  DATE NOT NULL,
		ticker          TEXT NOT NULL,
		run_id          UUID NOT NULL,
		name            TEXT NOT NULL,
		sector          TEXT NOT NULL,
		price           NUMERIC NOT NULL,
		volume          NUMERIC,
		day_change      NUMERIC,
		week_change     NUMERIC,
		five_year_change NUMERIC,
		dividend_yield  NUMERIC,
		price_earnings  NUMERIC,
		price_to_book   NUMERIC,
		graham_upside   NUMERIC,
		PRIMARY KEY (ticker, reference_date)
	)`,
	`CREATE TABLE IF NOT EXISTS option_snapshots (
		reference_date DATE NOT NULL,
		ticker         TEXT NOT NULL,
		underlying     TEXT NOT NULL,
		run_id         UUID NOT NULL,
		option_type    TEXT NOT NULL,
		strike         NUMERIC,
		price          NUMERIC,
		expiry         DATE NOT NULL,
		PRIMARY KEY (underlying, ticker, reference_date)
	)`,
	`SELECT create_hypertable('instrument_snapshots', 'reference_date', if_not_exists => TRUE, migrate_data => TRUE)`,
}

// SchemaStatements returns the DDL applied by EnsureSchema, in order.
func SchemaStatements() []string {
	out := make([]string, len(schema))
	copy(out, schema)
	return out
}
