package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/b3-data/internal/version"
)

// DefaultBaseURL is the public provider endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// DefaultSymbolSuffix maps B3 tickers to provider symbols.
const DefaultSymbolSuffix = ".SA"

// ProviderName labels provider data in snapshot provenance.
const ProviderName = "yfinance"

// Client provides access to the provider REST API.
type Client struct {
	baseURL      string
	symbolSuffix string
	userAgent    string
	httpClient   *http.Client
	logger       *slog.Logger
	now          func() time.Time

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. Requests are not retried unless
// WithRetries is given.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:      baseURL,
		symbolSuffix: DefaultSymbolSuffix,
		userAgent:    version.UserAgent(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		now:          time.Now,
		maxRetries:   0,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSymbolSuffix sets the suffix appended to tickers.
func WithSymbolSuffix(suffix string) ClientOption {
	return func(c *Client) {
		c.symbolSuffix = suffix
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// Symbol returns the provider symbol for a B3 ticker.
func (c *Client) Symbol(ticker string) string {
	return ticker + c.symbolSuffix
}
