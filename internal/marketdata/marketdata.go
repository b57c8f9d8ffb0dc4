// Package marketdata serves cached live quotes and coin search on top of the
// CoinGecko client.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cryptowise-backend/internal/cache"
	"cryptowise-backend/internal/calculator"
	"cryptowise-backend/internal/client"
	"cryptowise-backend/internal/model"
)

const keyPrefix = "cryptowise:"

// Fetcher is the upstream market data API
type Fetcher interface {
	SearchCoins(ctx context.Context, query string) ([]client.CoinSearchResult, error)
	GetCoinPrice(ctx context.Context, coinID string) (float64, error)
	GetCoinMarketData(ctx context.Context, coinID string) (*client.CoinMarketData, error)
}

// Options tunes caching
type Options struct {
	QuoteTTL  time.Duration
	SearchTTL time.Duration
	// RefreshCooldown is the minimum age a cached quote must reach before a
	// refresh request goes upstream
	RefreshCooldown time.Duration
	// FetchTimeout bounds one shared upstream call
	FetchTimeout time.Duration
}

// Service resolves quotes through the cache, collapsing concurrent misses
// for the same key into one upstream call.
type Service struct {
	fetcher Fetcher
	cache   cache.Provider
	opts    Options
	group   singleflight.Group
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a market data service; a nil provider means an in-memory cache
func NewService(fetcher Fetcher, provider cache.Provider, opts Options, logger *zap.Logger) *Service {
	if provider == nil {
		provider = cache.NewMemoryProvider()
	}
	if opts.QuoteTTL <= 0 {
		opts.QuoteTTL = time.Minute
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = 5 * time.Minute
	}
	if opts.RefreshCooldown < 0 {
		opts.RefreshCooldown = 0
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher: fetcher,
		cache:   provider,
		opts:    opts,
		logger:  logger.With(zap.String("component", "marketdata")),
		now:     time.Now,
	}
}

// Quote returns price, market cap, supply and 24h change for one coin.
// refresh bypasses the cache once the cached quote is older than the
// refresh cooldown.
func (s *Service) Quote(ctx context.Context, coinID string, refresh bool) (model.Quote, error) {
	coinID = normalizeID(coinID)
	if coinID == "" {
		return model.Quote{}, client.ErrNotFound
	}
	key := keyPrefix + "quote:" + coinID

	return s.cached(ctx, key, refresh, s.fetchQuote(coinID))
}

// Price returns a price-only quote from the lighter simple price endpoint.
// A fresh full quote already in the cache is reused.
func (s *Service) Price(ctx context.Context, coinID string) (model.Quote, error) {
	coinID = normalizeID(coinID)
	if coinID == "" {
		return model.Quote{}, client.ErrNotFound
	}

	var full model.Quote
	if err := s.cache.Get(keyPrefix+"quote:"+coinID, &full); err == nil {
		return full, nil
	}

	key := keyPrefix + "price:" + coinID
	return s.cached(ctx, key, false, func(ctx context.Context) (model.Quote, error) {
		price, err := s.fetcher.GetCoinPrice(ctx, coinID)
		if err != nil {
			return model.Quote{}, err
		}
		return model.Quote{CoinID: coinID, Price: price, FetchedAt: s.now()}, nil
	})
}

// Search looks coins up by name or symbol; results are cached per query.
func (s *Service) Search(ctx context.Context, query string) ([]model.Coin, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < client.MinSearchQueryLen {
		return []model.Coin{}, nil
	}
	key := keyPrefix + "search:" + strings.ToLower(query)

	var coins []model.Coin
	if err := s.cache.Get(key, &coins); err == nil {
		return coins, nil
	}

	v, _, err := s.share(ctx, key, func(ctx context.Context) (any, error) {
		results, err := s.fetcher.SearchCoins(ctx, query)
		if err != nil {
			return nil, err
		}
		out := make([]model.Coin, 0, len(results))
		for _, r := range results {
			out = append(out, model.Coin{
				ID:            r.ID,
				Symbol:        r.Symbol,
				Name:          r.Name,
				Thumb:         r.Thumb,
				MarketCapRank: r.MarketCapRank,
			})
		}
		if err := s.cache.Set(key, out, s.opts.SearchTTL); err != nil {
			s.logger.Warn("cache search results", zap.String("query", query), zap.Error(err))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Coin), nil
}

// Warm refetches the full quote of every coin, ignoring the cooldown. It
// returns the first error after trying all of them.
func (s *Service) Warm(ctx context.Context, coinIDs []string) error {
	var firstErr error
	for _, id := range coinIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		id = normalizeID(id)
		if id == "" {
			continue
		}
		q, err := s.load(ctx, keyPrefix+"quote:"+id, s.fetchQuote(id))
		if err != nil {
			s.logger.Warn("warm quote", zap.String("coin_id", id), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("warm %s: %w", id, err)
			}
			continue
		}
		s.logger.Debug("warmed quote", zap.String("coin_id", id), zap.Float64("price", q.Price))
	}
	return firstErr
}

func (s *Service) fetchQuote(coinID string) func(context.Context) (model.Quote, error) {
	return func(ctx context.Context) (model.Quote, error) {
		md, err := s.fetcher.GetCoinMarketData(ctx, coinID)
		if err != nil {
			return model.Quote{}, err
		}
		return model.Quote{
			CoinID:            md.ID,
			Symbol:            md.Symbol,
			Name:              md.Name,
			Price:             md.CurrentPrice,
			MarketCap:         md.MarketCap,
			CirculatingSupply: md.CirculatingSupply,
			PriceChange24h:    calculator.FromPtr(md.PriceChangePercentage24h),
			FetchedAt:         s.now(),
		}, nil
	}
}

func (s *Service) cached(ctx context.Context, key string, refresh bool, fetch func(context.Context) (model.Quote, error)) (model.Quote, error) {
	var q model.Quote
	err := s.cache.Get(key, &q)
	switch {
	case err == nil:
		if !refresh || q.Age(s.now()) < s.opts.RefreshCooldown {
			return q, nil
		}
	case !errors.Is(err, cache.ErrMiss):
		s.logger.Warn("cache read", zap.String("key", key), zap.Error(err))
	}
	return s.load(ctx, key, fetch)
}

func (s *Service) load(ctx context.Context, key string, fetch func(context.Context) (model.Quote, error)) (model.Quote, error) {
	v, shared, err := s.share(ctx, key, func(ctx context.Context) (any, error) {
		q, err := fetch(ctx)
		if err != nil {
			return model.Quote{}, err
		}
		if err := s.cache.Set(key, q, s.opts.QuoteTTL); err != nil {
			s.logger.Warn("cache write", zap.String("key", key), zap.Error(err))
		}
		return q, nil
	})
	if err != nil {
		return model.Quote{}, err
	}
	if shared {
		s.logger.Debug("shared upstream fetch", zap.String("key", key))
	}
	return v.(model.Quote), nil
}

// share runs fn once per key for all concurrent callers. The call is detached
// from the caller that started it and bounded by FetchTimeout; each caller
// stops waiting when its own ctx is done.
func (s *Service) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FetchTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		return r.Val, r.Shared, r.Err
	}
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
