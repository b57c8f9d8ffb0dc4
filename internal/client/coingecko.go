package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	apiKeyHeader   = "x-cg-demo-api-key"

	// MinSearchQueryLen is the shortest query sent upstream
	MinSearchQueryLen = 2
	// MaxSearchResults caps the coins returned by SearchCoins
	MaxSearchResults = 10
)

var (
	// ErrRateLimited is returned on HTTP 429; it is never retried
	ErrRateLimited = errors.New("rate limit exceeded, please wait a moment and try again")
	// ErrNotFound is returned when the coin id is unknown upstream
	ErrNotFound = errors.New("coin not found")
	// ErrUpstream matches transport failures and unexpected statuses
	ErrUpstream = errors.New("market data upstream error")
)

// StatusError is a non-2xx upstream response other than 429
type StatusError struct {
	Op     string
	Status int
}

// Error implements error
func (e *StatusError) Error() string {
	return fmt.Sprintf("coingecko %s: unexpected status %d", e.Op, e.Status)
}

// Is makes every StatusError match ErrUpstream
func (e *StatusError) Is(target error) bool {
	return target == ErrUpstream
}

// CoinSearchResult is one hit of /search
type CoinSearchResult struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Thumb         string `json:"thumb,omitempty"`
	MarketCapRank int    `json:"market_cap_rank,omitempty"`
}

// CoinMarketData is one row of /coins/markets. The 24h change is null for
// coins without recent trades.
type CoinMarketData struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	CirculatingSupply        float64 `json:"circulating_supply"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

// Options configures CoinGeckoClient
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// RetryInitial and RetryMax bound the exponential delay between attempts
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// CoinGeckoClient talks to the public CoinGecko v3 API
type CoinGeckoClient struct {
	http       *resty.Client
	maxRetries int
	retryInit  time.Duration
	retryMax   time.Duration
	logger     *zap.Logger
}

// NewCoinGeckoClient builds a client; zero option values fall back to defaults.
func NewCoinGeckoClient(opts Options, logger *zap.Logger) *CoinGeckoClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = time.Second
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		rc.SetHeader(apiKeyHeader, opts.APIKey)
	}

	return &CoinGeckoClient{
		http:       rc,
		maxRetries: opts.MaxRetries,
		retryInit:  opts.RetryInitial,
		retryMax:   opts.RetryMax,
		logger:     logger.With(zap.String("component", "coingecko")),
	}
}

// SearchCoins looks coins up by name or symbol. Queries shorter than
// MinSearchQueryLen return nothing without a request.
func (c *CoinGeckoClient) SearchCoins(ctx context.Context, query string) ([]CoinSearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchQueryLen {
		return []CoinSearchResult{}, nil
	}

	var body struct {
		Coins []CoinSearchResult `json:"coins"`
	}
	err := c.get(ctx, "search", "/search", map[string]string{"query": query}, &body)
	if err != nil {
		return nil, err
	}

	coins := body.Coins
	if len(coins) > MaxSearchResults {
		coins = coins[:MaxSearchResults]
	}
	if coins == nil {
		coins = []CoinSearchResult{}
	}
	return coins, nil
}

// GetCoinPrice returns the USD spot price of one coin
func (c *CoinGeckoClient) GetCoinPrice(ctx context.Context, coinID string) (float64, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return 0, ErrNotFound
	}

	var body map[string]struct {
		USD *float64 `json:"usd"`
	}
	err := c.get(ctx, "price", "/simple/price", map[string]string{"ids": coinID, "vs_currencies": "usd"}, &body)
	if err != nil {
		return 0, err
	}

	entry, ok := body[coinID]
	if !ok || entry.USD == nil {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, coinID)
	}
	return *entry.USD, nil
}

// GetCoinMarketData returns price, market cap and supply for one coin
func (c *CoinGeckoClient) GetCoinMarketData(ctx context.Context, coinID string) (*CoinMarketData, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, ErrNotFound
	}

	var rows []CoinMarketData
	params := map[string]string{
		"vs_currency": "usd",
		"ids":         coinID,
		"order":       "market_cap_desc",
		"sparkline":   "false",
	}
	if err := c.get(ctx, "market data", "/coins/markets", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, coinID)
	}
	return &rows[0], nil
}

// get issues a GET with retries. Transport errors and 5xx are retried with
// exponential delay; 429 and other 4xx fail immediately.
func (c *CoinGeckoClient) get(ctx context.Context, op, path string, params map[string]string, out any) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInit
	policy.MaxInterval = c.retryMax
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	notify := func(err error, d time.Duration) {
		c.logger.Warn("retrying request", zap.String("op", op), zap.Error(err), zap.Duration("backoff", d))
	}

	operation := func() (struct{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(out).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(ctx.Err())
			}
			return struct{}{}, fmt.Errorf("%w: coingecko %s: %v", ErrUpstream, op, err)
		}

		switch status := resp.StatusCode(); {
		case status == http.StatusTooManyRequests:
			return struct{}{}, backoff.Permanent(ErrRateLimited)
		case status == http.StatusNotFound:
			return struct{}{}, backoff.Permanent(ErrNotFound)
		case status >= 500:
			return struct{}{}, &StatusError{Op: op, Status: status}
		case resp.IsError():
			return struct{}{}, backoff.Permanent(&StatusError{Op: op, Status: status})
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(notify))
	if err != nil {
		c.logger.Debug("request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}
