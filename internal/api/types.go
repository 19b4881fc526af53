package api

import (
	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/model"
)

// Quote holds the quote and fundamentals fields of one symbol.
type Quote struct {
	Symbol    string
	ShortName string
	LongName  string
	Sector    string

	CurrentPrice       decimal.NullDecimal
	RegularMarketPrice decimal.NullDecimal
	PreviousClose      decimal.NullDecimal
	RegularMarketPrev  decimal.NullDecimal
	Volume             decimal.NullDecimal
	RegularMarketVol   decimal.NullDecimal

	TrailingEps   decimal.NullDecimal
	ForwardEps    decimal.NullDecimal
	BookValue     decimal.NullDecimal
	TrailingPE    decimal.NullDecimal
	DividendYield decimal.NullDecimal // Fraction, 0.05 = 5%
}

// Contract is one row of an option chain.
type Contract struct {
	Symbol    string
	Strike    decimal.NullDecimal
	LastPrice decimal.NullDecimal
}

// OptionChain is the chain of the nearest listed expiry.
type OptionChain struct {
	Expiry model.Date
	Calls  []Contract
	Puts   []Contract
}

// JSONPath expressions into provider responses.
const (
	pathQuote         = "$.quoteResponse.result[0]"
	pathChartCloses   = "$.chart.result[0].indicators.quote[0].close"
	pathOptionsExpiry = "$.optionChain.result[0].options[0].expirationDate"
	pathOptionsCalls  = "$.optionChain.result[0].options[0].calls"
	pathOptionsPuts   = "$.optionChain.result[0].options[0].puts"
)
