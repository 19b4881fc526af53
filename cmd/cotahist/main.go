// cotahist decodes a local COTAHIST file and prints a summary.
// Usage: go run ./cmd/cotahist --file COTAHIST_D20052025.ZIP [--max-price 15] [--out data/cotahist.json]
//
// Both the daily ZIP and the extracted TXT are accepted.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/cotahist"
	"github.com/rickgao/b3-data/internal/exchange"
)

type summary struct {
	File          string         `json:"file"`
	ReferenceDate string         `json:"data_referencia"`
	Lines         int            `json:"linhas"`
	Equities      int            `json:"acoes"`
	Options       int            `json:"opcoes"`
	Filtered      int            `json:"filtradas"`
	Skipped       map[string]int `json:"ignoradas"`
	Tickers       []string       `json:"tickers"`
}

func main() {
	file := flag.String("file", "", "COTAHIST .ZIP or .TXT file")
	maxPrice := flag.Float64("max-price", 0, "keep equities priced at or below this value (0 keeps all)")
	out := flag.String("out", "", "write the decoded dataset as JSON")
	top := flag.Int("top", 20, "number of tickers listed in the summary")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	r, err := open(*file)
	if err != nil {
		logger.Error("failed to open file", "file", *file, "error", err)
		os.Exit(1)
	}

	raw, stats, err := cotahist.Parse(r, cotahist.ParseOptions{
		MaxPrice: decimal.NewFromFloat(*maxPrice),
	})
	if err != nil {
		logger.Error("failed to decode file", "error", err)
		os.Exit(1)
	}
	ds := exchange.FromCotahist(raw, exchange.DownloadSourceName)

	if *out != "" {
		if err := exchange.SaveDataset(*out, ds); err != nil {
			logger.Error("failed to write dataset", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("dataset written", "path", *out)
	}

	s := summary{
		File:          filepath.Base(*file),
		ReferenceDate: ds.ReferenceDate.String(),
		Lines:         stats.Lines,
		Equities:      stats.Equities,
		Options:       stats.Options,
		Filtered:      stats.Filtered,
		Skipped:       make(map[string]int, len(stats.Skipped)),
		Tickers:       ds.Tickers(),
	}
	for reason, n := range stats.Skipped {
		s.Skipped[string(reason)] = n
	}
	if len(s.Tickers) > *top {
		s.Tickers = s.Tickers[:*top]
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func open(path string) (io.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return exchange.OpenArchive(data)
	}
	return strings.NewReader(string(data)), nil
}
