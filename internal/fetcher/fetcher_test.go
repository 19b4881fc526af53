package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/api"
	"github.com/rickgao/b3-data/internal/model"
)

// mockProvider serves fixed prices and errors by ticker.
type mockProvider struct {
	prices map[string]string
	errs   map[string]error
	delay  time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (m *mockProvider) FetchRecord(ctx context.Context, ticker string, maxPrice decimal.Decimal) (model.ProviderRecord, error) {
	m.mu.Lock()
	m.inFlight++
	m.maxInFlight = max(m.maxInFlight, m.inFlight)
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return model.ProviderRecord{}, ctx.Err()
		}
	}
	if err := m.errs[ticker]; err != nil {
		return model.ProviderRecord{}, err
	}
	return model.ProviderRecord{Ticker: ticker, Price: decimal.RequireFromString(m.prices[ticker])}, nil
}

func TestPool_Run(t *testing.T) {
	provider := &mockProvider{
		prices: map[string]string{
			"TASA4": "8.40",
			"OIBR3": "1.20",
			"PETR4": "38.50",
			"ZERO3": "0",
		},
		errs: map[string]error{
			"NOPX3": fmt.Errorf("NOPX3: %w", api.ErrNoPrice),
			"DOWN3": errors.New("connection reset"),
		},
	}

	cfg := Config{Workers: 3, MaxPrice: decimal.NewFromInt(15)}
	p := New(cfg, provider, nil)

	tickers := []string{"TASA4", "PETR4", "NOPX3", "DOWN3", "OIBR3", "ZERO3"}
	outcomes, stats := p.Run(context.Background(), tickers)

	want := map[string]Status{
		"TASA4": Accepted,
		"OIBR3": Accepted,
		"PETR4": Skipped,
		"ZERO3": Skipped,
		"NOPX3": Skipped,
		"DOWN3": Failed,
	}
	for i, o := range outcomes {
		if o.Ticker != tickers[i] {
			t.Errorf("outcomes[%d].Ticker = %q, want input order %q", i, o.Ticker, tickers[i])
		}
		if o.Status != want[o.Ticker] {
			t.Errorf("%s status = %s, want %s (err=%v)", o.Ticker, o.Status, want[o.Ticker], o.Err)
		}
	}

	if stats.Total != 6 || stats.Accepted != 2 || stats.Skipped != 3 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}

	records := Records(outcomes)
	if len(records) != 2 || records[0].Ticker != "TASA4" || records[1].Ticker != "OIBR3" {
		t.Errorf("Records = %+v", records)
	}
	if !errors.Is(outcomes[1].Err, ErrPriceFiltered) {
		t.Errorf("PETR4 err = %v, want ErrPriceFiltered", outcomes[1].Err)
	}
}

func TestPool_RespectsWorkerLimit(t *testing.T) {
	provider := &mockProvider{prices: map[string]string{}, delay: 20 * time.Millisecond}
	var tickers []string
	for i := 0; i < 20; i++ {
		tk := fmt.Sprintf("TK%02d3", i)
		tickers = append(tickers, tk)
		provider.prices[tk] = "1"
	}

	p := New(Config{Workers: 4}, provider, nil)
	_, stats := p.Run(context.Background(), tickers)

	if stats.Accepted != 20 {
		t.Errorf("Accepted = %d, want 20", stats.Accepted)
	}
	if provider.maxInFlight > 4 {
		t.Errorf("maxInFlight = %d, want <= 4", provider.maxInFlight)
	}
}

func TestPool_Timeout(t *testing.T) {
	provider := &mockProvider{prices: map[string]string{"SLOW3": "1"}, delay: time.Second}
	p := New(Config{Workers: 1, Timeout: 20 * time.Millisecond}, provider, nil)

	outcomes, stats := p.Run(context.Background(), []string{"SLOW3"})
	if stats.Failed != 1 {
		t.Fatalf("stats = %+v, want one failure", stats)
	}
	if !errors.Is(outcomes[0].Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", outcomes[0].Err)
	}
}

func TestPool_Canceled(t *testing.T) {
	var calls atomic.Int32
	provider := providerFunc(func(ctx context.Context, ticker string, _ decimal.Decimal) (model.ProviderRecord, error) {
		calls.Add(1)
		return model.ProviderRecord{Price: decimal.NewFromInt(1)}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stats := New(Config{}, provider, nil).Run(ctx, []string{"A", "B", "C"})
	if stats.Failed != 3 {
		t.Errorf("Failed = %d, want 3", stats.Failed)
	}
	if calls.Load() != 0 {
		t.Errorf("provider called %d times after cancellation", calls.Load())
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{}, nil, nil)
	def := DefaultConfig()
	if p.cfg.Workers != def.Workers || p.cfg.Timeout != def.Timeout || p.cfg.ProgressEvery != def.ProgressEvery {
		t.Errorf("cfg = %+v, want defaults %+v", p.cfg, def)
	}
}

type providerFunc func(ctx context.Context, ticker string, maxPrice decimal.Decimal) (model.ProviderRecord, error)

func (f providerFunc) FetchRecord(ctx context.Context, ticker string, maxPrice decimal.Decimal) (model.ProviderRecord, error) {
	return f(ctx, ticker, maxPrice)
}
