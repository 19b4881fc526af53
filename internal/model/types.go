package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Published documents carry decimals as JSON numbers. The flag is set once
// here, before any encoder can run.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// OptionType is the right granted by an option contract.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// -----------------------------------------------------------------------------
// Exchange Types (COTAHIST)
// -----------------------------------------------------------------------------

// EquityRecord is a spot trade summary (market segment 010).
type EquityRecord struct {
	Ticker    string          // Normalized ticker (e.g., "TASA4")
	LastPrice decimal.Decimal // PREULT, 2 implied decimals
	Volume    decimal.Decimal // VOLTOT, 2 implied decimals
}

// OptionRecord is an option trade summary (market segments 070/080).
type OptionRecord struct {
	Ticker           string          // Option symbol (e.g., "TASAF120")
	UnderlyingPrefix string          // First 4 chars of Ticker
	Type             OptionType      // CALL for 070, PUT for 080
	Strike           decimal.Decimal // PREEXE
	LastPrice        decimal.Decimal // PREULT
	Expiry           *Date           // DATVEN, nil when unparsable
}

// ExchangeEquity is the exchange-sourced view of an equity used for
// reconciliation. Any field may be missing depending on the source shape.
type ExchangeEquity struct {
	Ticker       string
	Price        decimal.NullDecimal
	Volume       decimal.NullDecimal
	DayChangePct decimal.NullDecimal
}

// FromEquityRecord converts a decoded COTAHIST equity row.
func FromEquityRecord(r EquityRecord) ExchangeEquity {
	return ExchangeEquity{
		Ticker: NormalizeTicker(r.Ticker),
		Price:  decimal.NewNullDecimal(r.LastPrice),
		Volume: decimal.NewNullDecimal(r.Volume),
	}
}

// -----------------------------------------------------------------------------
// Provider and Output Types
// -----------------------------------------------------------------------------

// Fundamentals are provider-only metrics; the exchange never overrides them.
type Fundamentals struct {
	DividendYield decimal.NullDecimal `json:"dy"`           // Percent
	PriceEarnings decimal.NullDecimal `json:"pl"`           // Trailing P/E
	PriceToBook   decimal.NullDecimal `json:"pvp"`          // Price / book value per share
	GrahamUpside  decimal.NullDecimal `json:"upsideGraham"` // Percent over price
}

// LinkedOption is an option contract attached to one underlying instrument.
type LinkedOption struct {
	Ticker string              `json:"ticker"`
	Type   OptionType          `json:"tipo"`
	Strike decimal.NullDecimal `json:"strike"`
	Price  decimal.NullDecimal `json:"preco"`
	Expiry Date                `json:"vencimento"`
}

// ProviderRecord is the per-ticker data returned by the secondary provider.
type ProviderRecord struct {
	Ticker            string
	Name              string
	Sector            string
	Price             decimal.Decimal
	PreviousClose     decimal.NullDecimal
	Volume            decimal.NullDecimal
	DayChangePct      decimal.NullDecimal
	WeekChangePct     decimal.NullDecimal
	FiveYearChangePct decimal.NullDecimal
	Fundamentals
	UpdatedAt string // Local "02/01/2006 15:04"

	// Options is the provider chain, pre-filtered to the contracts nearest
	// to Price (at most 5 per type).
	Options []LinkedOption
}

// Instrument is a reconciled equity as published in the snapshot.
type Instrument struct {
	Ticker            string              `json:"ticker"`
	Name              string              `json:"empresa"`
	Price             decimal.Decimal     `json:"preco"`
	Sector            string              `json:"setor"`
	FiveYearChangePct decimal.NullDecimal `json:"var5a"`
	DayChangePct      decimal.NullDecimal `json:"varDia"`
	WeekChangePct     decimal.NullDecimal `json:"varSemana"`
	Volume            decimal.NullDecimal `json:"volume"`
	Fundamentals
	UpdatedAt string         `json:"ultimaAtualizacao"`
	Options   []LinkedOption `json:"opcoes"`

	// ProviderOptions carries the provider chain until option linking
	// decides which source wins. It is never published.
	ProviderOptions []LinkedOption `json:"-"`
}

// Snapshot is the persisted output document of one run.
type Snapshot struct {
	RunID         uuid.UUID    `json:"runId"`
	UpdatedAt     string       `json:"atualizadoEm"`
	ReferenceDate Date         `json:"dataReferencia"`
	Source        string       `json:"fonte"`
	Total         int          `json:"totalAcoes"`
	Instruments   []Instrument `json:"acoes"`
}

// Tickers returns the normalized tickers present in the snapshot.
func (s *Snapshot) Tickers() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Instruments))
	for _, inst := range s.Instruments {
		if t := NormalizeTicker(inst.Ticker); t != "" {
			out = append(out, t)
		}
	}
	return out
}
