package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/model"
)

const quoteTASA4 = `{"quoteResponse": {"result": [{
  "symbol": "TASA4.SA",
  "shortName": "TAURUS ARMAS PN",
  "sector": "Industrials",
  "regularMarketPrice": 8.4,
  "previousClose": 8.0,
  "regularMarketVolume": 1234567.8,
  "trailingEps": {"raw": 1.0, "fmt": "1.00"},
  "bookValue": 2.1,
  "trailingPE": 8.4012,
  "dividendYield": 0.0523
}], "error": null}}`

const chartWeek = `{"chart": {"result": [{"indicators": {"quote": [{"close": [8.0, null, 8.2, 8.8]}]}}]}}`

const chart5y = `{"chart": {"result": [{"indicators": {"quote": [{"close": [16.8, 12.0, 8.4]}]}}]}}`

// 2025-06-20T00:00:00Z
const optionChain = `{"optionChain": {"result": [{"options": [{
  "expirationDate": 1750377600,
  "calls": [
    {"contractSymbol": "TASAF60.SA", "strike": 6.0, "lastPrice": 2.5},
    {"contractSymbol": "TASAF80.SA", "strike": 8.0, "lastPrice": 0.7},
    {"contractSymbol": "TASAF90.SA", "strike": 9.0, "lastPrice": 0.2},
    {"contractSymbol": "TASAF95.SA", "strike": 9.5, "lastPrice": 0.1},
    {"contractSymbol": "TASAF99.SA", "strike": 12.0, "lastPrice": 0.01},
    {"contractSymbol": "TASAF20.SA", "strike": 2.0, "lastPrice": 6.4},
    {"strike": 8.5}
  ],
  "puts": [
    {"contractSymbol": "TASAR80.SA", "strike": 8.0, "lastPrice": 0.3}
  ]
}]}]}}`

func providerServer(t *testing.T, routes map[string]string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		key := r.URL.Path
		if rng := r.URL.Query().Get("range"); rng != "" {
			key += "?" + rng
		}
		body, ok := routes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
}

func fixedNow() time.Time { return time.Date(2025, time.May, 20, 15, 4, 0, 0, time.Local) }

func TestFetchRecord(t *testing.T) {
	server := providerServer(t, map[string]string{
		"/v7/finance/quote":             quoteTASA4,
		"/v8/finance/chart/TASA4.SA?5d": chartWeek,
		"/v8/finance/chart/TASA4.SA?5y": chart5y,
		"/v7/finance/options/TASA4.SA":  optionChain,
	}, nil)
	defer server.Close()

	c := NewClient(server.URL, WithClock(fixedNow))
	rec, err := c.FetchRecord(context.Background(), "TASA4", decimal.NewFromInt(15))
	if err != nil {
		t.Fatalf("FetchRecord failed: %v", err)
	}

	checks := []struct {
		name string
		got  decimal.NullDecimal
		want string
	}{
		{"DayChangePct", rec.DayChangePct, "5"},
		{"WeekChangePct", rec.WeekChangePct, "10"},
		{"FiveYearChangePct", rec.FiveYearChangePct, "-50"},
		{"DividendYield", rec.DividendYield, "5.23"},
		{"PriceEarnings", rec.PriceEarnings, "8.4"},
		{"PriceToBook", rec.PriceToBook, "4"},
		{"Volume", rec.Volume, "1234567"},
	}
	for _, c := range checks {
		if !c.got.Valid || !c.got.Decimal.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %v (valid=%v), want %s", c.name, c.got.Decimal, c.got.Valid, c.want)
		}
	}

	if !rec.Price.Equal(decimal.RequireFromString("8.40")) {
		t.Errorf("Price = %s, want 8.40", rec.Price)
	}
	if rec.Name != "TAURUS ARMAS PN" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.Sector != "Bens Industriais" {
		t.Errorf("Sector = %q, want Bens Industriais", rec.Sector)
	}
	if rec.GrahamUpside.Valid {
		// sqrt(22.5 * 1.0 * 2.1) = 6.87 < 8.40
		if !rec.GrahamUpside.Decimal.IsNegative() {
			t.Errorf("GrahamUpside = %s, want negative", rec.GrahamUpside.Decimal)
		}
	} else {
		t.Error("GrahamUpside should be set")
	}
	if rec.UpdatedAt != "20/05/2025 15:04" {
		t.Errorf("UpdatedAt = %q", rec.UpdatedAt)
	}

	if len(rec.Options) != 6 {
		t.Fatalf("len(Options) = %d, want 5 calls + 1 put", len(rec.Options))
	}
	expiry := model.NewDate(2025, time.June, 20)
	for i, o := range rec.Options {
		if strings.HasSuffix(o.Ticker, ".SA") {
			t.Errorf("option ticker %q keeps suffix", o.Ticker)
		}
		if o.Expiry != expiry {
			t.Errorf("option %s expiry = %v, want %v", o.Ticker, o.Expiry, expiry)
		}
		if o.Ticker == "TASAF20" {
			t.Error("farthest call should be dropped")
		}
		if i > 0 && rec.Options[i-1].Strike.Decimal.GreaterThan(o.Strike.Decimal) {
			t.Errorf("options not sorted by strike: %v", rec.Options)
		}
	}
}

func TestFetchRecord_Exclusions(t *testing.T) {
	t.Run("price above ceiling", func(t *testing.T) {
		var hits int32
		server := providerServer(t, map[string]string{"/v7/finance/quote": quoteTASA4}, &hits)
		defer server.Close()

		_, err := NewClient(server.URL).FetchRecord(context.Background(), "TASA4", decimal.NewFromInt(5))
		if !errors.Is(err, ErrPriceFiltered) {
			t.Fatalf("error = %v, want ErrPriceFiltered", err)
		}
		if hits != 1 {
			t.Errorf("hits = %d, want only the quote request", hits)
		}
	})

	t.Run("no price", func(t *testing.T) {
		server := providerServer(t, map[string]string{
			"/v7/finance/quote": `{"quoteResponse": {"result": [{"symbol": "X.SA", "regularMarketPrice": 0}]}}`,
		}, nil)
		defer server.Close()

		_, err := NewClient(server.URL).FetchRecord(context.Background(), "X", decimal.Zero)
		if !errors.Is(err, ErrNoPrice) {
			t.Errorf("error = %v, want ErrNoPrice", err)
		}
	})

	t.Run("unknown symbol", func(t *testing.T) {
		server := providerServer(t, map[string]string{
			"/v7/finance/quote": `{"quoteResponse": {"result": []}}`,
		}, nil)
		defer server.Close()

		_, err := NewClient(server.URL).FetchRecord(context.Background(), "ZZZZ3", decimal.Zero)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestFetchRecord_PartialData(t *testing.T) {
	server := providerServer(t, map[string]string{
		"/v7/finance/quote": `{"quoteResponse": {"result": [{"longName": "Oi S.A.", "previousClose": 1.2, "regularMarketVolume": 0}]}}`,
	}, nil)
	defer server.Close()

	rec, err := NewClient(server.URL, WithClock(fixedNow)).FetchRecord(context.Background(), "OIBR3", decimal.NewFromInt(15))
	if err != nil {
		t.Fatalf("FetchRecord failed: %v", err)
	}
	if !rec.Price.Equal(decimal.RequireFromString("1.2")) {
		t.Errorf("Price = %s, want previousClose fallback 1.2", rec.Price)
	}
	if rec.Name != "Oi S.A." {
		t.Errorf("Name = %q, want long name fallback", rec.Name)
	}
	if rec.Sector != "N/A" {
		t.Errorf("Sector = %q, want N/A", rec.Sector)
	}
	if rec.Volume.Valid || rec.WeekChangePct.Valid || rec.FiveYearChangePct.Valid || rec.DividendYield.Valid {
		t.Errorf("missing inputs should stay null: %+v", rec)
	}
	if rec.Options != nil {
		t.Errorf("Options = %v, want nil", rec.Options)
	}
}
