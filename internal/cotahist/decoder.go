package cotahist

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/rickgao/b3-data/internal/model"
)

// MinLineLength is the shortest line that can hold a full data record.
const MinLineLength = 245

// DataRecordMarker identifies trade records (TIPREG = 01).
const DataRecordMarker = "01"

// Market segment codes (TPMERC).
const (
	SegmentSpot = "010"
	SegmentCall = "070"
	SegmentPut  = "080"
)

// Field offsets, 0-based half-open ranges.
const (
	markerStart, markerEnd       = 0, 2
	refDateStart, refDateEnd     = 2, 10
	tickerStart, tickerEnd       = 12, 24
	segmentStart, segmentEnd     = 24, 27
	lastPriceStart, lastPriceEnd = 108, 121
	volumeStart, volumeEnd       = 170, 188
	strikeStart, strikeEnd       = 188, 201
	expiryStart, expiryEnd       = 202, 210
)

const (
	underlyingPrefixLen = 4

	// Numeric fields carry 2 implied decimals.
	impliedDecimals int32 = 2
)

// Status tells whether a line produced a record.
type Status int

const (
	Skipped Status = iota
	Decoded
)

// SkipReason explains why a line was skipped.
type SkipReason string

const (
	ReasonNone           SkipReason = ""
	ReasonTooShort       SkipReason = "too_short"
	ReasonNotDataRecord  SkipReason = "not_data_record"
	ReasonUnknownSegment SkipReason = "unknown_segment"
	ReasonBadNumber      SkipReason = "bad_number"
)

// Kind is the record variant of a decoded line.
type Kind int

const (
	KindNone Kind = iota
	KindEquity
	KindOption
)

// Result is the outcome of decoding one line.
type Result struct {
	Status Status
	Reason SkipReason
	Kind   Kind
	Equity model.EquityRecord
	Option model.OptionRecord
}

// OK reports whether the line decoded into a record.
func (r Result) OK() bool { return r.Status == Decoded }

func skip(reason SkipReason) Result {
	return Result{Status: Skipped, Reason: reason}
}

// Decode parses a single COTAHIST line.
func Decode(line string) Result {
	if len(line) < MinLineLength {
		return skip(ReasonTooShort)
	}
	if line[markerStart:markerEnd] != DataRecordMarker {
		return skip(ReasonNotDataRecord)
	}

	segment := strings.TrimSpace(line[segmentStart:segmentEnd])
	if segment != SegmentSpot && segment != SegmentCall && segment != SegmentPut {
		return skip(ReasonUnknownSegment)
	}

	ticker := model.NormalizeTicker(latin1(line[tickerStart:tickerEnd]))
	lastPrice, ok := fixedPoint(line[lastPriceStart:lastPriceEnd])
	if !ok {
		return skip(ReasonBadNumber)
	}
	volume, ok := fixedPoint(line[volumeStart:volumeEnd])
	if !ok {
		return skip(ReasonBadNumber)
	}

	if segment == SegmentSpot {
		return Result{
			Status: Decoded,
			Kind:   KindEquity,
			Equity: model.EquityRecord{
				Ticker:    ticker,
				LastPrice: lastPrice,
				Volume:    volume,
			},
		}
	}

	strike, ok := fixedPoint(line[strikeStart:strikeEnd])
	if !ok {
		return skip(ReasonBadNumber)
	}

	optType := model.Call
	if segment == SegmentPut {
		optType = model.Put
	}

	return Result{
		Status: Decoded,
		Kind:   KindOption,
		Option: model.OptionRecord{
			Ticker:           ticker,
			UnderlyingPrefix: UnderlyingPrefix(ticker),
			Type:             optType,
			Strike:           strike,
			LastPrice:        lastPrice,
			Expiry:           parseDate(line[expiryStart:expiryEnd]),
		},
	}
}

// ReferenceDate extracts the session date (DATA DO PREGÃO) of a data line.
// It returns nil when the line is too short or the date does not parse.
func ReferenceDate(line string) *model.Date {
	if len(line) < refDateEnd {
		return nil
	}
	return parseDate(line[refDateStart:refDateEnd])
}

// UnderlyingPrefix returns the 4-character root of an option symbol.
func UnderlyingPrefix(optionTicker string) string {
	t := model.NormalizeTicker(optionTicker)
	if len(t) > underlyingPrefixLen {
		return t[:underlyingPrefixLen]
	}
	return t
}

// fixedPoint decodes a zero-padded integer with 2 implied decimals.
func fixedPoint(field string) (decimal.Decimal, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return decimal.Decimal{}, false
	}
	for i := 0; i < len(field); i++ {
		if field[i] < '0' || field[i] > '9' {
			return decimal.Decimal{}, false
		}
	}
	n, err := decimal.NewFromString(field)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return n.Shift(-impliedDecimals), true
}

func parseDate(field string) *model.Date {
	d, err := model.ParseCompactDate(strings.TrimSpace(field))
	if err != nil {
		return nil
	}
	return &d
}

// latin1 converts a raw ISO-8859-1 field to UTF-8. Lines are sliced as raw
// bytes so offsets stay valid; only extracted text is transcoded.
func latin1(field string) string {
	ascii := true
	for i := 0; i < len(field); i++ {
		if field[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return field
	}
	s, err := charmap.ISO8859_1.NewDecoder().String(field)
	if err != nil {
		return field
	}
	return s
}
