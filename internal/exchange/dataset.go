package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/cotahist"
	"github.com/rickgao/b3-data/internal/model"
)

// Dataset is the normalized primary exchange dataset.
type Dataset struct {
	Source        string
	ReferenceDate model.Date
	Equities      []model.ExchangeEquity
	Options       []model.OptionRecord
}

// Tickers returns the normalized equity tickers of the dataset.
func (d *Dataset) Tickers() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Equities))
	for _, e := range d.Equities {
		if t := model.NormalizeTicker(e.Ticker); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FromCotahist wraps a decoded COTAHIST file.
func FromCotahist(ds *cotahist.Dataset, source string) *Dataset {
	out := &Dataset{
		Source:        source,
		ReferenceDate: ds.ReferenceDate,
		Equities:      make([]model.ExchangeEquity, 0, len(ds.Equities)),
		Options:       ds.Options,
	}
	for _, e := range ds.Equities {
		out.Equities = append(out.Equities, model.FromEquityRecord(e))
	}
	return out
}

// number is a lenient decimal: null, "", "NA" and unparsable values decode
// as missing instead of failing the whole document.
type number struct {
	decimal.NullDecimal
}

func (n *number) UnmarshalJSON(data []byte) error {
	n.NullDecimal = decimal.NullDecimal{}
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" || strings.EqualFold(s, "NA") {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	n.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

// text accepts any JSON scalar and keeps its string form.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
		return nil
	}
	if string(data) == "null" {
		*t = ""
		return nil
	}
	*t = text(strings.TrimSpace(string(data)))
	return nil
}

type equityRow struct {
	Ticker       text   `json:"ticker"`
	Price        number `json:"preco"`
	Volume       number `json:"volume"`
	DayChangePct number `json:"var_dia_pct"`
}

type optionRow struct {
	Ticker     text   `json:"ticker"`
	Underlying text   `json:"ticker_objeto"`
	Type       text   `json:"tipo"`
	Price      number `json:"preco"`
	Strike     number `json:"strike"`
	Expiry     text   `json:"vencimento"`
}

type datasetDoc struct {
	Source        string          `json:"fonte"`
	ReferenceDate string          `json:"data_referencia"`
	Total         int             `json:"total"`
	Equities      json.RawMessage `json:"acoes"`
	Options       json.RawMessage `json:"opcoes"`
}

// DecodeDataset parses a JSON dataset in row or column orientation.
func DecodeDataset(data []byte) (*Dataset, error) {
	var doc datasetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	var equities []equityRow
	if err := decodeTable(doc.Equities, &equities); err != nil {
		return nil, fmt.Errorf("parse dataset acoes: %w", err)
	}
	var options []optionRow
	if err := decodeTable(doc.Options, &options); err != nil {
		return nil, fmt.Errorf("parse dataset opcoes: %w", err)
	}

	ds := &Dataset{Source: doc.Source}
	if doc.ReferenceDate != "" {
		if d, ok := parseAnyDate(doc.ReferenceDate); ok {
			ds.ReferenceDate = d
		}
	}

	for _, r := range equities {
		ticker := model.NormalizeTicker(string(r.Ticker))
		if ticker == "" {
			continue
		}
		ds.Equities = append(ds.Equities, model.ExchangeEquity{
			Ticker:       ticker,
			Price:        r.Price.NullDecimal,
			Volume:       r.Volume.NullDecimal,
			DayChangePct: r.DayChangePct.NullDecimal,
		})
	}

	for _, r := range options {
		rec, ok := r.toRecord()
		if !ok {
			continue
		}
		ds.Options = append(ds.Options, rec)
	}

	return ds, nil
}

func (r optionRow) toRecord() (model.OptionRecord, bool) {
	ticker := model.NormalizeTicker(string(r.Ticker))
	if ticker == "" {
		return model.OptionRecord{}, false
	}

	var optType model.OptionType
	switch strings.ToUpper(strings.TrimSpace(string(r.Type))) {
	case "CALL", "C", cotahist.SegmentCall:
		optType = model.Call
	case "PUT", "P", cotahist.SegmentPut:
		optType = model.Put
	default:
		return model.OptionRecord{}, false
	}

	rec := model.OptionRecord{
		Ticker:           ticker,
		UnderlyingPrefix: cotahist.UnderlyingPrefix(ticker),
		Type:             optType,
		Strike:           r.Strike.Decimal,
		LastPrice:        r.Price.Decimal,
	}
	if d, ok := parseAnyDate(string(r.Expiry)); ok {
		rec.Expiry = &d
	}
	return rec, true
}

// decodeTable fills rows from either a JSON array of objects or an object
// of equally indexed column arrays.
func decodeTable[T any](raw json.RawMessage, rows *[]T) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '[':
		return json.Unmarshal(raw, rows)
	case '{':
		var columns map[string][]json.RawMessage
		if err := json.Unmarshal(raw, &columns); err != nil {
			return err
		}
		n := 0
		for _, col := range columns {
			n = max(n, len(col))
		}
		out := make([]T, 0, n)
		for i := 0; i < n; i++ {
			obj := make(map[string]json.RawMessage, len(columns))
			for name, col := range columns {
				if i < len(col) {
					obj[name] = col[i]
				}
			}
			buf, err := json.Marshal(obj)
			if err != nil {
				return err
			}
			var row T
			if err := json.Unmarshal(buf, &row); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			out = append(out, row)
		}
		*rows = out
		return nil
	default:
		return fmt.Errorf("unexpected table shape %q", string(raw[:1]))
	}
}

func parseAnyDate(s string) (model.Date, bool) {
	s = strings.TrimSpace(s)
	if d, err := model.ParseDate(s); err == nil {
		return d, true
	}
	if d, err := model.ParseCompactDate(s); err == nil {
		return d, true
	}
	return model.Date{}, false
}

// EncodeDataset renders a dataset in row orientation.
func EncodeDataset(ds *Dataset) ([]byte, error) {
	type outEquity struct {
		Ticker       string              `json:"ticker"`
		Price        decimal.NullDecimal `json:"preco"`
		Volume       decimal.NullDecimal `json:"volume"`
		DayChangePct decimal.NullDecimal `json:"var_dia_pct"`
	}
	type outOption struct {
		Ticker     string           `json:"ticker"`
		Underlying string           `json:"ticker_objeto"`
		Type       model.OptionType `json:"tipo"`
		Price      decimal.Decimal  `json:"preco"`
		Strike     decimal.Decimal  `json:"strike"`
		Expiry     *model.Date      `json:"vencimento"`
	}
	doc := struct {
		Source        string      `json:"fonte"`
		ReferenceDate model.Date  `json:"data_referencia"`
		Total         int         `json:"total"`
		Equities      []outEquity `json:"acoes"`
		Options       []outOption `json:"opcoes"`
	}{
		Source:        ds.Source,
		ReferenceDate: ds.ReferenceDate,
		Total:         len(ds.Equities),
		Equities:      make([]outEquity, 0, len(ds.Equities)),
		Options:       make([]outOption, 0, len(ds.Options)),
	}
	for _, e := range ds.Equities {
		doc.Equities = append(doc.Equities, outEquity(e))
	}
	for _, o := range ds.Options {
		doc.Options = append(doc.Options, outOption{
			Ticker:     o.Ticker,
			Underlying: o.UnderlyingPrefix,
			Type:       o.Type,
			Price:      o.LastPrice,
			Strike:     o.Strike,
			Expiry:     o.Expiry,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// LoadDataset reads a JSON dataset file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return DecodeDataset(data)
}

// SaveDataset writes ds to path in row orientation, creating parent dirs.
func SaveDataset(path string, ds *Dataset) error {
	data, err := EncodeDataset(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
