package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
exchange:
  max_price: 12.5
  script: Rscript
  script_args: [scripts/fetch_cotahist.R]
  download: false
provider:
  rest_url: https://provider.example.com
  symbol_suffix: ""
fetcher:
  workers: 4
paths:
  output: out/stocks.json
  csv: out/stocks.csv
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Exchange.MaxPrice != 12.5 {
		t.Errorf("Exchange.MaxPrice = %v, want 12.5", cfg.Exchange.MaxPrice)
	}
	if cfg.Exchange.Script != "Rscript" || len(cfg.Exchange.ScriptArgs) != 1 {
		t.Errorf("Exchange script = %q %v", cfg.Exchange.Script, cfg.Exchange.ScriptArgs)
	}
	if cfg.Exchange.DownloadEnabled() {
		t.Error("download should be disabled")
	}
	if cfg.Provider.SymbolSuffix == nil || *cfg.Provider.SymbolSuffix != "" {
		t.Errorf("Provider.SymbolSuffix = %v, want explicit empty", cfg.Provider.SymbolSuffix)
	}
	if cfg.Fetcher.Workers != 4 {
		t.Errorf("Fetcher.Workers = %d, want 4", cfg.Fetcher.Workers)
	}
	if cfg.Paths.CSV != "out/stocks.csv" {
		t.Errorf("Paths.CSV = %q", cfg.Paths.CSV)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := LoadAndValidate("")
	if err != nil {
		t.Fatalf("LoadAndValidate(\"\") failed: %v", err)
	}
	if cfg.Paths.Output != DefaultOutputPath {
		t.Errorf("Paths.Output = %q, want default", cfg.Paths.Output)
	}
	if !cfg.Exchange.DownloadEnabled() {
		t.Error("download should default to enabled")
	}
	if cfg.Exchange.MaxPrice != 10 || cfg.Exchange.MaxPrice+cfg.Exchange.PriceMargin != 15 {
		t.Errorf("price ceiling = %v (+%v), want 10 published and 15 decoded",
			cfg.Exchange.MaxPrice, cfg.Exchange.PriceMargin)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
database:
  enabled: true
  timescale:
    host: localhost
    name: b3
    user: b3
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Database.Timescale.Password != "secret123" {
		t.Errorf("Database.Timescale.Password = %q, want %q", cfg.Database.Timescale.Password, "secret123")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("B3_TEST_FROM_FILE=file\nB3_TEST_PRESET=file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("B3_TEST_PRESET", "env")
	t.Setenv("B3_TEST_FROM_FILE", "")
	os.Unsetenv("B3_TEST_FROM_FILE")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("B3_TEST_FROM_FILE"); got != "file" {
		t.Errorf("B3_TEST_FROM_FILE = %q, want file", got)
	}
	if got := os.Getenv("B3_TEST_PRESET"); got != "env" {
		t.Errorf("B3_TEST_PRESET = %q, existing variables must win", got)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "log:\n  level: debug\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Exchange.MaxPrice", cfg.Exchange.MaxPrice, DefaultMaxPrice},
		{"Exchange.PriceMargin", cfg.Exchange.PriceMargin, DefaultPriceMargin},
		{"Exchange.LookbackDays", cfg.Exchange.LookbackDays, DefaultLookbackDays},
		{"Provider.RestURL", cfg.Provider.RestURL, DefaultRestURL},
		{"Provider.SymbolSuffix", *cfg.Provider.SymbolSuffix, DefaultSymbolSuffix},
		{"Provider.Timeout", cfg.Provider.Timeout, DefaultAPITimeout},
		{"Provider.MaxRetries", cfg.Provider.MaxRetries, 0},
		{"Fetcher.Workers", cfg.Fetcher.Workers, DefaultWorkers},
		{"Fetcher.Timeout", cfg.Fetcher.Timeout, DefaultFetchTimeout},
		{"Paths.DatasetCache", cfg.Paths.DatasetCache, DefaultDatasetCache},
		{"Database.Timescale.Port", cfg.Database.Timescale.Port, DefaultDBPort},
		{"Writers.BatchSize", cfg.Writers.BatchSize, DefaultBatchSize},
		{"Log.Level", cfg.Log.Level, "debug"},
		{"Log.Format", cfg.Log.Format, DefaultLogFormat},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() UpdaterConfig {
		var c UpdaterConfig
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *UpdaterConfig)
		wantErr string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *UpdaterConfig) {},
			wantErr: "",
		},
		{
			name:    "negative max price",
			mutate:  func(c *UpdaterConfig) { c.Exchange.MaxPrice = -1 },
			wantErr: "exchange.max_price must be > 0, got -1",
		},
		{
			name:    "zero workers",
			mutate:  func(c *UpdaterConfig) { c.Fetcher.Workers = -2 },
			wantErr: "fetcher.workers must be >= 1",
		},
		{
			name:    "negative retries",
			mutate:  func(c *UpdaterConfig) { c.Provider.MaxRetries = -1 },
			wantErr: "provider.max_retries must be >= 0",
		},
		{
			name: "database enabled without host",
			mutate: func(c *UpdaterConfig) {
				c.Database.Enabled = true
			},
			wantErr: "database.timescale.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *UpdaterConfig) {
				c.Database.Enabled = true
				c.Database.Timescale = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "database.timescale.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "database disabled skips connection checks",
			mutate:  func(c *UpdaterConfig) { c.Database.Timescale = DBConfig{} },
			wantErr: "",
		},
		{
			name:    "bad log format",
			mutate:  func(c *UpdaterConfig) { c.Log.Format = "xml" },
			wantErr: `log.format must be text or json, got "xml"`,
		},
		{
			name:    "bad log level",
			mutate:  func(c *UpdaterConfig) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if !strings.HasPrefix(err.Error(), tt.wantErr) {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	for _, in := range []string{"debug", "INFO", "Warn", "error"} {
		if _, err := (LogConfig{Level: in}).SlogLevel(); err != nil {
			t.Errorf("SlogLevel(%q) failed: %v", in, err)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeTempFile(t, "fetcher: [unclosed")); err == nil {
		t.Error("expected error for invalid yaml")
	}
	if _, err := LoadAndValidate(writeTempFile(t, "fetcher:\n  timeout: -1s\n")); err == nil {
		t.Error("expected validation error")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

