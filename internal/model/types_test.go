package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TASA4", "TASA4"},
		{"  tasa4 ", "TASA4"},
		{"\tpetr4\n", "PETR4"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTicker(tt.in); got != tt.want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	t.Run("parse compact", func(t *testing.T) {
		d, err := ParseCompactDate("20250601")
		if err != nil {
			t.Fatalf("ParseCompactDate failed: %v", err)
		}
		if d != NewDate(2025, time.June, 1) {
			t.Errorf("ParseCompactDate = %v, want 2025-06-01", d)
		}
		if d.String() != "2025-06-01" {
			t.Errorf("String() = %q, want %q", d.String(), "2025-06-01")
		}
	})

	t.Run("parse compact rejects garbage", func(t *testing.T) {
		for _, s := range []string{"", "2025060", "99999999", "2025-06-01", "abcdefgh"} {
			if _, err := ParseCompactDate(s); err == nil {
				t.Errorf("ParseCompactDate(%q) expected error", s)
			}
		}
	})

	t.Run("ordering", func(t *testing.T) {
		a := NewDate(2025, time.June, 1)
		b := NewDate(2025, time.June, 15)
		if !a.Before(b) || b.Before(a) {
			t.Error("Before ordering incorrect")
		}
		if !b.After(a) {
			t.Error("After ordering incorrect")
		}
		if a.Compare(a) != 0 || a.Compare(b) != -1 || b.Compare(a) != 1 {
			t.Error("Compare ordering incorrect")
		}
	})

	t.Run("normalizes overflow", func(t *testing.T) {
		d := NewDate(2025, time.January, 32)
		if d != NewDate(2025, time.February, 1) {
			t.Errorf("NewDate overflow = %v, want 2025-02-01", d)
		}
		if got := NewDate(2025, time.March, 1).AddDays(-1); got != NewDate(2025, time.February, 28) {
			t.Errorf("AddDays(-1) = %v, want 2025-02-28", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(NewDate(2025, time.July, 1))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != `"2025-07-01"` {
			t.Errorf("Marshal = %s, want %q", data, `"2025-07-01"`)
		}

		data, _ = json.Marshal(Date{})
		if string(data) != "null" {
			t.Errorf("Marshal zero = %s, want null", data)
		}

		var d Date
		if err := json.Unmarshal([]byte(`"2025-07-01"`), &d); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if d != NewDate(2025, time.July, 1) {
			t.Errorf("Unmarshal = %v", d)
		}
		for _, in := range []string{`null`, `""`} {
			d = NewDate(2025, time.July, 1)
			if err := json.Unmarshal([]byte(in), &d); err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", in, err)
			}
			if !d.IsZero() {
				t.Errorf("Unmarshal(%s) = %v, want zero", in, d)
			}
		}
		if err := json.Unmarshal([]byte(`"01/07/2025"`), &d); err == nil {
			t.Error("Unmarshal expected error for non ISO date")
		}
	})
}

func TestFromEquityRecord(t *testing.T) {
	e := FromEquityRecord(EquityRecord{
		Ticker:    " tasa4",
		LastPrice: decimal.RequireFromString("8.40"),
		Volume:    decimal.RequireFromString("12000"),
	})

	if e.Ticker != "TASA4" {
		t.Errorf("Ticker = %q, want TASA4", e.Ticker)
	}
	if !e.Price.Valid || !e.Price.Decimal.Equal(decimal.RequireFromString("8.4")) {
		t.Errorf("Price = %v, want 8.40", e.Price)
	}
	if e.DayChangePct.Valid {
		t.Error("DayChangePct should be null for decoded rows")
	}
}

func TestSnapshotTickers(t *testing.T) {
	var nilSnap *Snapshot
	if got := nilSnap.Tickers(); got != nil {
		t.Errorf("nil snapshot Tickers() = %v, want nil", got)
	}

	s := &Snapshot{Instruments: []Instrument{{Ticker: "petr4"}, {Ticker: " "}, {Ticker: "VALE3 "}}}
	got := s.Tickers()
	if strings.Join(got, ",") != "PETR4,VALE3" {
		t.Errorf("Tickers() = %v, want [PETR4 VALE3]", got)
	}
}

func TestInstrumentJSON(t *testing.T) {
	inst := Instrument{
		Ticker: "TASA4",
		Price:  decimal.RequireFromString("8.40"),
		Fundamentals: Fundamentals{
			PriceToBook: decimal.NewNullDecimal(decimal.RequireFromString("1.25")),
		},
		ProviderOptions: []LinkedOption{{Ticker: "HIDDEN"}},
	}

	data, err := json.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if price, ok := fields["preco"].(float64); !ok || price != 8.4 {
		t.Errorf("preco = %#v, want JSON number 8.4", fields["preco"])
	}
	if _, ok := fields["pvp"]; !ok {
		t.Error("embedded fundamentals should be flattened (pvp missing)")
	}
	if fields["dy"] != nil {
		t.Errorf("dy = %v, want null", fields["dy"])
	}
	if fields["volume"] != nil {
		t.Errorf("volume = %v, want null", fields["volume"])
	}
	if strings.Contains(string(data), "HIDDEN") {
		t.Error("provider options must not be published")
	}
}
