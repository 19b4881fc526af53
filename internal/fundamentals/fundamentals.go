package fundamentals

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/model"
)

// Places is the rounding applied to every published value.
const Places int32 = 2

var (
	hundred     = decimal.NewFromInt(100)
	grahamConst = 22.5
)

// Round rounds d to Places. Invalid inputs stay invalid.
func Round(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(Places))
}

// FromFloat converts a float, mapping NaN and infinities to null.
func FromFloat(f float64) decimal.NullDecimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(f))
}

// GrahamUpside returns (sqrt(22.5 * eps * bvps) / price - 1) * 100.
// It is null unless eps, bvps and price are all positive.
func GrahamUpside(eps, bvps decimal.NullDecimal, price decimal.Decimal) decimal.NullDecimal {
	if !eps.Valid || !bvps.Valid || !eps.Decimal.IsPositive() || !bvps.Decimal.IsPositive() || !price.IsPositive() {
		return decimal.NullDecimal{}
	}
	product := eps.Decimal.Mul(bvps.Decimal).InexactFloat64() * grahamConst
	graham := FromFloat(math.Sqrt(product))
	if !graham.Valid {
		return graham
	}
	return Round(decimal.NewNullDecimal(ChangePct(price, graham.Decimal)))
}

// PriceToBook returns price / bvps, null when bvps is missing or zero.
func PriceToBook(price decimal.Decimal, bvps decimal.NullDecimal) decimal.NullDecimal {
	if !bvps.Valid || bvps.Decimal.IsZero() || price.IsZero() {
		return decimal.NullDecimal{}
	}
	return Round(decimal.NewNullDecimal(price.DivRound(bvps.Decimal, 8)))
}

// DividendYield converts a fractional yield into a percentage. A zero
// yield is reported as missing.
func DividendYield(raw decimal.NullDecimal) decimal.NullDecimal {
	if !raw.Valid || raw.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return Round(decimal.NewNullDecimal(raw.Decimal.Mul(hundred)))
}

// ChangePct returns (to / from - 1) * 100, unrounded. from must be non-zero.
func ChangePct(from, to decimal.Decimal) decimal.Decimal {
	return to.DivRound(from, 8).Sub(decimal.NewFromInt(1)).Mul(hundred)
}

// DayChange returns the percentage change of price over the previous close.
func DayChange(price decimal.Decimal, previousClose decimal.NullDecimal) decimal.NullDecimal {
	if !previousClose.Valid || previousClose.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return Round(decimal.NewNullDecimal(ChangePct(previousClose.Decimal, price)))
}

// SeriesChange returns the percentage change between the first and last
// closes. It needs at least two points and a non-zero first close.
func SeriesChange(closes []decimal.Decimal) decimal.NullDecimal {
	if len(closes) < 2 || closes[0].IsZero() {
		return decimal.NullDecimal{}
	}
	return Round(decimal.NewNullDecimal(ChangePct(closes[0], closes[len(closes)-1])))
}

// NearestStrikes keeps at most perType contracts of each type, choosing the
// strikes closest to price, and returns them sorted by strike.
// A missing strike counts as zero.
func NearestStrikes(contracts []model.LinkedOption, price decimal.Decimal, perType int) []model.LinkedOption {
	var calls, puts []model.LinkedOption
	for _, c := range contracts {
		switch c.Type {
		case model.Call:
			calls = append(calls, c)
		case model.Put:
			puts = append(puts, c)
		}
	}

	nearest := func(list []model.LinkedOption) []model.LinkedOption {
		slices.SortStableFunc(list, func(a, b model.LinkedOption) int {
			da := StrikeOf(a).Sub(price).Abs()
			db := StrikeOf(b).Sub(price).Abs()
			return da.Cmp(db)
		})
		if len(list) > perType {
			list = list[:perType]
		}
		return list
	}

	out := append(nearest(calls), nearest(puts)...)
	SortByStrike(out)
	return out
}

// StrikeOf returns the option strike, or zero when missing.
func StrikeOf(o model.LinkedOption) decimal.Decimal {
	if !o.Strike.Valid {
		return decimal.Zero
	}
	return o.Strike.Decimal
}

// SortByStrike orders options by ascending strike, missing strikes before
// a zero strike, then by ticker.
func SortByStrike(opts []model.LinkedOption) {
	slices.SortStableFunc(opts, func(a, b model.LinkedOption) int {
		if c := StrikeOf(a).Cmp(StrikeOf(b)); c != 0 {
			return c
		}
		if a.Strike.Valid != b.Strike.Valid {
			if !a.Strike.Valid {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Ticker, b.Ticker)
	})
}
