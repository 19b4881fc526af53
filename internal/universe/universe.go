package universe

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/rickgao/b3-data/internal/exchange"
	"github.com/rickgao/b3-data/internal/model"
)

// Build returns the sorted, de-duplicated union of tickers from the primary
// dataset, the prior snapshot and the seed list. Any input may be nil.
func Build(primary *exchange.Dataset, prior *model.Snapshot, seed []string) []string {
	set := make(map[string]struct{})
	add := func(tickers []string) {
		for _, t := range tickers {
			if t = model.NormalizeTicker(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}

	add(primary.Tickers())
	add(prior.Tickers())
	add(seed)

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

//go:embed base_tickers.json
var defaultSeed []byte

type seedFile struct {
	Tickers []string `json:"tickers"`
}

// DefaultSeed returns the built-in seed list.
func DefaultSeed() []string {
	tickers, err := decodeSeed(defaultSeed)
	if err != nil {
		panic("universe: invalid built-in seed: " + err.Error())
	}
	return tickers
}

// LoadSeed reads a {"tickers": [...]} file. An empty path yields the
// built-in list; a missing file is an error wrapping fs.ErrNotExist.
func LoadSeed(path string) ([]string, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	tickers, err := decodeSeed(data)
	if err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return tickers, nil
}

func decodeSeed(data []byte) ([]string, error) {
	var f seedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Tickers, nil
}
