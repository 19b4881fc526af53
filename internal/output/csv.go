package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/model"
)

// csvRow is one instrument flattened for spreadsheets. Options are
// summarized by count.
type csvRow struct {
	Ticker            string `csv:"ticker"`
	Name              string `csv:"empresa"`
	Sector            string `csv:"setor"`
	Price             string `csv:"preco"`
	Volume            string `csv:"volume"`
	DayChangePct      string `csv:"varDia"`
	WeekChangePct     string `csv:"varSemana"`
	FiveYearChangePct string `csv:"var5a"`
	DividendYield     string `csv:"dy"`
	PriceEarnings     string `csv:"pl"`
	PriceToBook       string `csv:"pvp"`
	GrahamUpside      string `csv:"upsideGraham"`
	Options           int    `csv:"opcoes"`
	UpdatedAt         string `csv:"ultimaAtualizacao"`
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func toRows(snap *model.Snapshot) []csvRow {
	rows := make([]csvRow, 0, len(snap.Instruments))
	for _, inst := range snap.Instruments {
		rows = append(rows, csvRow{
			Ticker:            inst.Ticker,
			Name:              inst.Name,
			Sector:            inst.Sector,
			Price:             inst.Price.String(),
			Volume:            nullString(inst.Volume),
			DayChangePct:      nullString(inst.DayChangePct),
			WeekChangePct:     nullString(inst.WeekChangePct),
			FiveYearChangePct: nullString(inst.FiveYearChangePct),
			DividendYield:     nullString(inst.DividendYield),
			PriceEarnings:     nullString(inst.PriceEarnings),
			PriceToBook:       nullString(inst.PriceToBook),
			GrahamUpside:      nullString(inst.GrahamUpside),
			Options:           len(inst.Options),
			UpdatedAt:         inst.UpdatedAt,
		})
	}
	return rows
}

// EncodeCSV renders the snapshot instruments as CSV with the given field
// separator.
func EncodeCSV(snap *model.Snapshot, comma rune) ([]byte, error) {
	rows := toRows(snap)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if comma != 0 {
		w.Comma = comma
	}
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(w)); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCSV atomically replaces path with the CSV export of snap.
func WriteCSV(path string, snap *model.Snapshot, comma rune) error {
	data, err := EncodeCSV(snap, comma)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}
