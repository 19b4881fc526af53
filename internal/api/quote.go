package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a response carries no result for the symbol.
var ErrNotFound = errors.New("symbol not found")

// GetQuote retrieves the quote of one ticker.
func (c *Client) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	query := url.Values{}
	query.Set("symbols", c.Symbol(ticker))

	doc, err := c.get(ctx, "/v7/finance/quote", query)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	q, ok := parseQuote(doc)
	if !ok {
		return nil, fmt.Errorf("get quote %s: %w", ticker, ErrNotFound)
	}
	return q, nil
}

// GetCloses retrieves daily closes over rng ("5d", "5y", ...).
func (c *Client) GetCloses(ctx context.Context, ticker, rng string) ([]decimal.Decimal, error) {
	query := url.Values{}
	query.Set("range", rng)
	query.Set("interval", "1d")

	doc, err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(c.Symbol(ticker)), query)
	if err != nil {
		return nil, fmt.Errorf("get chart %s: %w", rng, err)
	}
	return parseCloses(doc), nil
}

// GetOptionChain retrieves the option chain of the nearest expiry.
func (c *Client) GetOptionChain(ctx context.Context, ticker string) (*OptionChain, error) {
	doc, err := c.get(ctx, "/v7/finance/options/"+url.PathEscape(c.Symbol(ticker)), nil)
	if err != nil {
		return nil, fmt.Errorf("get options: %w", err)
	}

	chain, ok := parseOptionChain(doc)
	if !ok {
		return nil, fmt.Errorf("get options %s: %w", ticker, ErrNotFound)
	}
	return chain, nil
}
