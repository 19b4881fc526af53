package options

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/cotahist"
	"github.com/rickgao/b3-data/internal/fundamentals"
	"github.com/rickgao/b3-data/internal/model"
)

// Stats counts linking results.
type Stats struct {
	Records      int // Option records received
	Expired      int // Dropped for missing or past expiry
	Unmatched    int // Eligible records whose root matched no instrument
	FromExchange int // Instruments linked to exchange options
	FromProvider int // Instruments using the provider chain
	Empty        int // Instruments left without options
}

// Link attaches options to each instrument and returns the updated
// instruments in their original order. Records with a nil expiry or an
// expiry before ref are ignored, and so are provider contracts expiring
// before ref.
func Link(records []model.OptionRecord, instruments []model.Instrument, ref model.Date) ([]model.Instrument, Stats) {
	stats := Stats{Records: len(records)}

	groups := make(map[string][]model.OptionRecord)
	for _, r := range records {
		if r.Expiry == nil || r.Expiry.Before(ref) {
			stats.Expired++
			continue
		}
		prefix := model.NormalizeTicker(r.UnderlyingPrefix)
		if prefix == "" {
			prefix = cotahist.UnderlyingPrefix(r.Ticker)
		}
		if prefix == "" {
			stats.Expired++
			continue
		}
		groups[prefix] = append(groups[prefix], r)
	}

	prefixes := make([]string, 0, len(groups))
	for p := range groups {
		prefixes = append(prefixes, p)
	}
	slices.Sort(prefixes)

	matched := make(map[string]bool, len(prefixes))
	out := make([]model.Instrument, len(instruments))

	for i, inst := range instruments {
		ticker := model.NormalizeTicker(inst.Ticker)

		var candidates []model.OptionRecord
		for _, p := range prefixes {
			if strings.HasPrefix(ticker, p) {
				candidates = append(candidates, groups[p]...)
				matched[p] = true
			}
		}

		linked := nearestExpiry(candidates)
		fallback := current(inst.ProviderOptions, ref)
		switch {
		case len(linked) > 0:
			stats.FromExchange++
		case len(fallback) > 0:
			linked = fallback
			stats.FromProvider++
		default:
			linked = []model.LinkedOption{}
			stats.Empty++
		}

		fundamentals.SortByStrike(linked)
		inst.Options = linked
		out[i] = inst
	}

	for _, p := range prefixes {
		if !matched[p] {
			stats.Unmatched += len(groups[p])
		}
	}

	return out, stats
}

// nearestExpiry keeps, per option type, the records at the earliest expiry.
func nearestExpiry(records []model.OptionRecord) []model.LinkedOption {
	var out []model.LinkedOption
	for _, typ := range []model.OptionType{model.Call, model.Put} {
		var nearest *model.Date
		for _, r := range records {
			if r.Type == typ && (nearest == nil || r.Expiry.Before(*nearest)) {
				nearest = r.Expiry
			}
		}
		if nearest == nil {
			continue
		}
		for _, r := range records {
			if r.Type == typ && *r.Expiry == *nearest {
				out = append(out, toLinked(r))
			}
		}
	}
	return out
}

func toLinked(r model.OptionRecord) model.LinkedOption {
	return model.LinkedOption{
		Ticker: model.NormalizeTicker(r.Ticker),
		Type:   r.Type,
		Strike: fundamentals.Round(decimal.NewNullDecimal(r.Strike)),
		Price:  fundamentals.Round(decimal.NewNullDecimal(r.LastPrice)),
		Expiry: *r.Expiry,
	}
}

// current returns a copy of opts without contracts expiring before ref.
// A zero expiry is kept.
func current(opts []model.LinkedOption, ref model.Date) []model.LinkedOption {
	var out []model.LinkedOption
	for _, o := range opts {
		if !o.Expiry.IsZero() && o.Expiry.Before(ref) {
			continue
		}
		out = append(out, o)
	}
	return out
}
