package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/fundamentals"
	"github.com/rickgao/b3-data/internal/model"
)

// Index maps normalized tickers to exchange equities. Later rows for the
// same ticker replace earlier ones.
type Index map[string]model.ExchangeEquity

// NewIndex builds an Index from equities. Rows without a ticker are ignored.
func NewIndex(equities []model.ExchangeEquity) Index {
	idx := make(Index, len(equities))
	for _, e := range equities {
		t := model.NormalizeTicker(e.Ticker)
		if t == "" {
			continue
		}
		e.Ticker = t
		idx[t] = e
	}
	return idx
}

// Lookup returns the equity for ticker, or nil.
func (idx Index) Lookup(ticker string) *model.ExchangeEquity {
	e, ok := idx[model.NormalizeTicker(ticker)]
	if !ok {
		return nil
	}
	return &e
}

// Reconcile merges an optional exchange equity into a provider record.
func Reconcile(p model.ProviderRecord, e *model.ExchangeEquity) model.Instrument {
	inst := model.Instrument{
		Ticker:            model.NormalizeTicker(p.Ticker),
		Name:              p.Name,
		Price:             p.Price,
		Sector:            p.Sector,
		FiveYearChangePct: p.FiveYearChangePct,
		DayChangePct:      p.DayChangePct,
		WeekChangePct:     p.WeekChangePct,
		Volume:            p.Volume,
		Fundamentals:      p.Fundamentals,
		UpdatedAt:         p.UpdatedAt,
		ProviderOptions:   p.Options,
	}
	if e == nil {
		return inst
	}

	if usable(e.Price) {
		inst.Price = e.Price.Decimal.Round(fundamentals.Places)
	}
	if usable(e.Volume) {
		inst.Volume = decimal.NewNullDecimal(e.Volume.Decimal.Truncate(0))
	}
	if usable(e.DayChangePct) {
		inst.DayChangePct = fundamentals.Round(e.DayChangePct)
	}
	return inst
}

// All reconciles every record against idx and reports how many were
// matched by an exchange row.
func All(records []model.ProviderRecord, idx Index) ([]model.Instrument, int) {
	out := make([]model.Instrument, 0, len(records))
	enriched := 0
	for _, p := range records {
		e := idx.Lookup(p.Ticker)
		if e != nil {
			enriched++
		}
		out = append(out, Reconcile(p, e))
	}
	return out, enriched
}

func usable(d decimal.NullDecimal) bool {
	return d.Valid && !d.Decimal.IsZero()
}
