package exchange

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/cotahist"
	"github.com/rickgao/b3-data/internal/model"
)

// DefaultDownloadURL serves the daily COTAHIST_D<DDMMYYYY>.ZIP files.
const DefaultDownloadURL = "https://bvmf.bmfbovespa.com.br/InstDados/SerHist"

// DownloadSourceName labels datasets decoded from the daily ZIP.
const DownloadSourceName = "cotahist-go"

// minArchiveSize filters out HTML error pages served with status 200.
const minArchiveSize = 500

// DownloadSource fetches and decodes the daily COTAHIST file.
type DownloadSource struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	lookback   int
	maxPrice   decimal.Decimal
	now        func() time.Time
}

// DownloadOption configures a DownloadSource.
type DownloadOption func(*DownloadSource)

// NewDownloadSource creates a DownloadSource for baseURL.
func NewDownloadSource(baseURL string, opts ...DownloadOption) *DownloadSource {
	if baseURL == "" {
		baseURL = DefaultDownloadURL
	}
	s := &DownloadSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:   slog.Default(),
		lookback: 6,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithDownloadTimeout sets the per-request timeout.
func WithDownloadTimeout(d time.Duration) DownloadOption {
	return func(s *DownloadSource) {
		s.httpClient.Timeout = d
	}
}

// WithDownloadHTTPClient sets a custom HTTP client.
func WithDownloadHTTPClient(hc *http.Client) DownloadOption {
	return func(s *DownloadSource) {
		s.httpClient = hc
	}
}

// WithDownloadLogger sets the logger.
func WithDownloadLogger(logger *slog.Logger) DownloadOption {
	return func(s *DownloadSource) {
		s.logger = logger
	}
}

// WithLookback sets how many calendar days (today included) are tried.
func WithLookback(days int) DownloadOption {
	return func(s *DownloadSource) {
		s.lookback = days
	}
}

// WithMaxPrice drops equities priced above max while decoding.
func WithMaxPrice(max decimal.Decimal) DownloadOption {
	return func(s *DownloadSource) {
		s.maxPrice = max
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) DownloadOption {
	return func(s *DownloadSource) {
		s.now = now
	}
}

// Name implements Source.
func (s *DownloadSource) Name() string { return "download" }

// Fetch implements Source. It walks back from today, skipping weekends,
// and decodes the first archive it can download.
func (s *DownloadSource) Fetch(ctx context.Context) (*Dataset, error) {
	today := model.DateOf(s.now())
	var tried []string

	for delta := 0; delta < s.lookback; delta++ {
		day := today.AddDays(-delta)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		addr := s.URLFor(day)
		tried = append(tried, addr)

		s.logger.Info("downloading cotahist", "url", addr)
		raw, err := s.download(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Debug("cotahist download failed", "url", addr, "error", err)
			continue
		}

		cds, stats, err := cotahist.Parse(raw, cotahist.ParseOptions{
			MaxPrice: s.maxPrice,
			Today:    func() model.Date { return model.DateOf(s.now()) },
		})
		if err != nil {
			return nil, fmt.Errorf("decode cotahist %s: %w", day, err)
		}

		s.logger.Info("cotahist decoded",
			"date", day.String(),
			"lines", stats.Lines,
			"equities", stats.Equities,
			"options", stats.Options,
			"filtered", stats.Filtered,
			"skipped", stats.SkippedTotal(),
		)

		if len(cds.Equities) == 0 {
			return nil, fmt.Errorf("%w: cotahist %s has no equities", ErrUnavailable, day)
		}
		return FromCotahist(cds, DownloadSourceName), nil
	}

	return nil, fmt.Errorf("%w: no cotahist archive in %d days (tried %d urls)", ErrUnavailable, s.lookback, len(tried))
}

// URLFor returns the archive address for a session date.
func (s *DownloadSource) URLFor(day model.Date) string {
	return fmt.Sprintf("%s/COTAHIST_D%s.ZIP", s.baseURL, day.Format("02012006"))
}

// download returns a reader over the first file of the archive at addr.
func (s *DownloadSource) download(ctx context.Context, addr string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if len(body) <= minArchiveSize {
		return nil, fmt.Errorf("archive too small (%d bytes)", len(body))
	}

	return OpenArchive(body)
}

// OpenArchive returns a reader over the first file of a ZIP archive.
func OpenArchive(data []byte) (io.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, fmt.Errorf("empty archive")
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", zr.File[0].Name, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", zr.File[0].Name, err)
	}
	return bytes.NewReader(content), nil
}
