package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/fundamentals"
	"github.com/rickgao/b3-data/internal/model"
)

// UpdatedAtFormat is the local timestamp layout of ProviderRecord.UpdatedAt.
const UpdatedAtFormat = "02/01/2006 15:04"

// lookup evaluates a JSONPath expression, returning nil when the path does
// not resolve.
func lookup(doc any, path string) any {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	return v
}

// toDecimal converts a JSON scalar into a decimal. Objects of the form
// {"raw": 1.5, "fmt": "1.50"} resolve to their raw value.
func toDecimal(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case float64:
		return fundamentals.FromFloat(x)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	case map[string]any:
		return toDecimal(x["raw"])
	default:
		return decimal.NullDecimal{}
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// firstPositive returns the first valid, non-zero value. Absent and zero
// values fall through.
func firstPositive(values ...decimal.NullDecimal) decimal.NullDecimal {
	for _, v := range values {
		if v.Valid && !v.Decimal.IsZero() {
			return v
		}
	}
	return decimal.NullDecimal{}
}

func parseQuote(doc any) (*Quote, bool) {
	obj, ok := lookup(doc, pathQuote).(map[string]any)
	if !ok {
		return nil, false
	}
	field := func(name string) decimal.NullDecimal { return toDecimal(obj[name]) }

	return &Quote{
		Symbol:    toString(obj["symbol"]),
		ShortName: toString(obj["shortName"]),
		LongName:  toString(obj["longName"]),
		Sector:    toString(obj["sector"]),

		CurrentPrice:       field("currentPrice"),
		RegularMarketPrice: field("regularMarketPrice"),
		PreviousClose:      field("previousClose"),
		RegularMarketPrev:  field("regularMarketPreviousClose"),
		Volume:             field("volume"),
		RegularMarketVol:   field("regularMarketVolume"),

		TrailingEps:   field("trailingEps"),
		ForwardEps:    field("forwardEps"),
		BookValue:     field("bookValue"),
		TrailingPE:    field("trailingPE"),
		DividendYield: field("dividendYield"),
	}, true
}

// parseCloses returns the daily closes of a chart response, skipping the
// null entries of non-trading days.
func parseCloses(doc any) []decimal.Decimal {
	raw, ok := lookup(doc, pathChartCloses).([]any)
	if !ok {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(raw))
	for _, v := range raw {
		if d := toDecimal(v); d.Valid {
			out = append(out, d.Decimal)
		}
	}
	return out
}

func parseOptionChain(doc any) (*OptionChain, bool) {
	expiry := toDecimal(lookup(doc, pathOptionsExpiry))
	if !expiry.Valid {
		return nil, false
	}
	chain := &OptionChain{
		Expiry: model.DateOf(time.Unix(expiry.Decimal.IntPart(), 0).UTC()),
		Calls:  parseContracts(lookup(doc, pathOptionsCalls)),
		Puts:   parseContracts(lookup(doc, pathOptionsPuts)),
	}
	return chain, true
}

func parseContracts(v any) []Contract {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Contract, 0, len(rows))
	for _, r := range rows {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		sym := toString(obj["contractSymbol"])
		if sym == "" {
			continue
		}
		out = append(out, Contract{
			Symbol:    sym,
			Strike:    toDecimal(obj["strike"]),
			LastPrice: toDecimal(obj["lastPrice"]),
		})
	}
	return out
}

// Price returns currentPrice, then regularMarketPrice, then previousClose.
func (q *Quote) Price() decimal.NullDecimal {
	return firstPositive(q.CurrentPrice, q.RegularMarketPrice, q.PreviousClose)
}

// Name returns the short name, then the long name, then ticker.
func (q *Quote) Name(ticker string) string {
	switch {
	case q.ShortName != "":
		return q.ShortName
	case q.LongName != "":
		return q.LongName
	default:
		return ticker
	}
}

// ToRecord converts a quote into a provider record. History changes and
// options are filled in separately.
func (q *Quote) ToRecord(ticker string, now time.Time) model.ProviderRecord {
	price := q.Price().Decimal
	prev := firstPositive(q.PreviousClose, q.RegularMarketPrev)
	eps := firstPositive(q.TrailingEps, q.ForwardEps)

	volume := firstPositive(q.Volume, q.RegularMarketVol)
	if volume.Valid {
		volume.Decimal = volume.Decimal.Truncate(0)
	}

	return model.ProviderRecord{
		Ticker:        ticker,
		Name:          q.Name(ticker),
		Sector:        fundamentals.SectorLabel(q.Sector),
		Price:         price.Round(fundamentals.Places),
		PreviousClose: prev,
		Volume:        volume,
		DayChangePct:  fundamentals.DayChange(price, prev),
		Fundamentals: model.Fundamentals{
			DividendYield: fundamentals.DividendYield(q.DividendYield),
			PriceEarnings: fundamentals.Round(q.TrailingPE),
			PriceToBook:   fundamentals.PriceToBook(price, q.BookValue),
			GrahamUpside:  fundamentals.GrahamUpside(eps, q.BookValue, price),
		},
		UpdatedAt: now.Local().Format(UpdatedAtFormat),
	}
}

// Linked converts the chain into option entries, keeping the perType
// strikes nearest to price for each type. suffix is stripped from symbols.
func (ch *OptionChain) Linked(price decimal.Decimal, suffix string, perType int) []model.LinkedOption {
	all := make([]model.LinkedOption, 0, len(ch.Calls)+len(ch.Puts))
	add := func(contracts []Contract, typ model.OptionType) {
		for _, c := range contracts {
			all = append(all, model.LinkedOption{
				Ticker: model.NormalizeTicker(strings.TrimSuffix(c.Symbol, suffix)),
				Type:   typ,
				Strike: fundamentals.Round(c.Strike),
				Price:  fundamentals.Round(c.LastPrice),
				Expiry: ch.Expiry,
			})
		}
	}
	add(ch.Calls, model.Call)
	add(ch.Puts, model.Put)
	return fundamentals.NearestStrikes(all, price, perType)
}
