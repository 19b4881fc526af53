package cotahist

import (
	"bufio"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/model"
)

// Dataset holds the records decoded from one COTAHIST file.
type Dataset struct {
	ReferenceDate model.Date
	Equities      []model.EquityRecord
	Options       []model.OptionRecord
}

// Stats counts lines by outcome.
type Stats struct {
	Lines    int
	Equities int
	Options  int
	Filtered int // Equities outside the price bounds
	Skipped  map[SkipReason]int
}

// SkippedTotal returns the number of lines that produced no record.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// MaxPrice keeps only equities with 0 < price <= MaxPrice.
	// Zero disables the filter.
	MaxPrice decimal.Decimal

	// Today supplies the fallback reference date. Defaults to model.Today.
	Today func() model.Date
}

// Parse reads a raw (ISO-8859-1) COTAHIST stream line by line.
//
// The reference date comes from the first decoded line whose session date
// parses; without one it falls back to opts.Today.
func Parse(r io.Reader, opts ParseOptions) (*Dataset, Stats, error) {
	stats := Stats{Skipped: make(map[SkipReason]int)}
	ds := &Dataset{}

	var refDate *model.Date
	filter := opts.MaxPrice.IsPositive()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		stats.Lines++

		res := Decode(line)
		if !res.OK() {
			stats.Skipped[res.Reason]++
			continue
		}

		if refDate == nil {
			refDate = ReferenceDate(line)
		}

		switch res.Kind {
		case KindEquity:
			if filter && !InPriceRange(res.Equity.LastPrice, opts.MaxPrice) {
				stats.Filtered++
				continue
			}
			ds.Equities = append(ds.Equities, res.Equity)
			stats.Equities++
		case KindOption:
			ds.Options = append(ds.Options, res.Option)
			stats.Options++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan cotahist: %w", err)
	}

	if refDate != nil {
		ds.ReferenceDate = *refDate
	} else if opts.Today != nil {
		ds.ReferenceDate = opts.Today()
	} else {
		ds.ReferenceDate = model.Today()
	}

	return ds, stats, nil
}

// InPriceRange reports whether 0 < price <= max.
func InPriceRange(price, max decimal.Decimal) bool {
	return price.IsPositive() && price.LessThanOrEqual(max)
}
