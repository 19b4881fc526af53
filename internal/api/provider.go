package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/fundamentals"
	"github.com/rickgao/b3-data/internal/model"
)

var (
	// ErrNoPrice is returned when the quote has no positive price.
	ErrNoPrice = errors.New("no positive price")

	// ErrPriceFiltered is returned when the price is above the ceiling.
	ErrPriceFiltered = errors.New("price above ceiling")
)

// OptionsPerType is how many provider contracts of each type are kept.
const OptionsPerType = 5

// FetchRecord builds the provider record of one ticker. The quote decides
// eligibility: no positive price yields ErrNoPrice, and a price above a
// positive maxPrice yields ErrPriceFiltered before any other request is
// made. History and option chain failures leave the related fields empty.
func (c *Client) FetchRecord(ctx context.Context, ticker string, maxPrice decimal.Decimal) (model.ProviderRecord, error) {
	q, err := c.GetQuote(ctx, ticker)
	if err != nil {
		return model.ProviderRecord{}, err
	}

	price := q.Price()
	if !price.Valid || !price.Decimal.IsPositive() {
		return model.ProviderRecord{}, fmt.Errorf("%s: %w", ticker, ErrNoPrice)
	}
	if maxPrice.IsPositive() && price.Decimal.GreaterThan(maxPrice) {
		return model.ProviderRecord{}, fmt.Errorf("%s at %s: %w", ticker, price.Decimal, ErrPriceFiltered)
	}

	rec := q.ToRecord(ticker, c.now())

	if closes, err := c.GetCloses(ctx, ticker, "5d"); err != nil {
		c.logger.Debug("week history unavailable", "ticker", ticker, "error", err)
	} else {
		rec.WeekChangePct = fundamentals.SeriesChange(closes)
	}

	if closes, err := c.GetCloses(ctx, ticker, "5y"); err != nil {
		c.logger.Debug("5y history unavailable", "ticker", ticker, "error", err)
	} else {
		rec.FiveYearChangePct = fundamentals.SeriesChange(closes)
	}

	if chain, err := c.GetOptionChain(ctx, ticker); err != nil {
		c.logger.Debug("option chain unavailable", "ticker", ticker, "error", err)
	} else {
		rec.Options = chain.Linked(price.Decimal, c.symbolSuffix, OptionsPerType)
	}

	return rec, nil
}
