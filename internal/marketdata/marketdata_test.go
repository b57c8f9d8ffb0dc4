package marketdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptowise-backend/internal/cache"
	"cryptowise-backend/internal/calculator"
	"cryptowise-backend/internal/client"
	"cryptowise-backend/internal/model"
)

type fakeFetcher struct {
	marketCalls int32
	priceCalls  int32
	searchCalls int32

	price   float64
	err     error
	release chan struct{}
}

func (f *fakeFetcher) SearchCoins(ctx context.Context, query string) ([]client.CoinSearchResult, error) {
	atomic.AddInt32(&f.searchCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return []client.CoinSearchResult{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCapRank: 1}}, nil
}

func (f *fakeFetcher) GetCoinPrice(ctx context.Context, coinID string) (float64, error) {
	atomic.AddInt32(&f.priceCalls, 1)
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

func (f *fakeFetcher) GetCoinMarketData(ctx context.Context, coinID string) (*client.CoinMarketData, error) {
	atomic.AddInt32(&f.marketCalls, 1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	change := 2.5
	return &client.CoinMarketData{
		ID:                       coinID,
		Symbol:                   "btc",
		Name:                     "Bitcoin",
		CurrentPrice:             f.price,
		MarketCap:                1.2e12,
		CirculatingSupply:        19.7e6,
		PriceChangePercentage24h: &change,
	}, nil
}

func newTestService(f *fakeFetcher, cooldown time.Duration) (*Service, *time.Time) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewService(f, cache.NewMemoryProvider(), Options{
		QuoteTTL:        time.Hour,
		SearchTTL:       time.Hour,
		RefreshCooldown: cooldown,
	}, nil)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestQuote_CachesUntilRefresh(t *testing.T) {
	f := &fakeFetcher{price: 60000}
	s, now := newTestService(f, 30*time.Second)
	ctx := context.Background()

	q, err := s.Quote(ctx, " Bitcoin ", false)
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", q.CoinID)
	assert.Equal(t, 60000.0, q.Price)
	assert.Equal(t, 1.2e12, q.MarketCap)
	assert.Equal(t, calculator.Some(2.5), q.PriceChange24h)

	f.price = 61000
	q, err = s.Quote(ctx, "bitcoin", false)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, q.Price)

	// refresh inside the cooldown is served from cache
	*now = now.Add(10 * time.Second)
	q, err = s.Quote(ctx, "bitcoin", true)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, q.Price)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.marketCalls))

	*now = now.Add(30 * time.Second)
	q, err = s.Quote(ctx, "bitcoin", true)
	require.NoError(t, err)
	assert.Equal(t, 61000.0, q.Price)
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.marketCalls))
}

func TestQuote_ConcurrentMissesShareOneFetch(t *testing.T) {
	f := &fakeFetcher{price: 100, release: make(chan struct{})}
	s, _ := newTestService(f, 0)

	var wg sync.WaitGroup
	results := make([]float64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := s.Quote(context.Background(), "bitcoin", false)
			if err == nil {
				results[i] = q.Price
			}
		}(i)
	}

	// let the goroutines pile up on the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()

	for _, p := range results {
		assert.Equal(t, 100.0, p)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&f.marketCalls), int32(2))
}

func TestQuote_CancelledCallerLeavesSharedFetchRunning(t *testing.T) {
	f := &fakeFetcher{price: 100, release: make(chan struct{})}
	s, _ := newTestService(f, 0)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Quote(first, "bitcoin", false)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&f.marketCalls) == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		price float64
		err   error
	}
	second := make(chan result, 1)
	go func() {
		q, err := s.Quote(context.Background(), "bitcoin", false)
		second <- result{q.Price, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(f.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 100.0, got.price)
}

func TestQuote_RefreshesQuoteWithoutFetchTime(t *testing.T) {
	f := &fakeFetcher{price: 70000}
	s, _ := newTestService(f, time.Hour)
	ctx := context.Background()
	require.NoError(t, s.cache.Set("cryptowise:quote:bitcoin", model.Quote{CoinID: "bitcoin", Price: 1}, time.Hour))

	q, err := s.Quote(ctx, "bitcoin", false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q.Price)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.marketCalls))

	q, err = s.Quote(ctx, "bitcoin", true)
	require.NoError(t, err)
	assert.Equal(t, 70000.0, q.Price)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.marketCalls))
}

func TestQuote_ErrorsAreNotCached(t *testing.T) {
	f := &fakeFetcher{err: client.ErrRateLimited}
	s, _ := newTestService(f, 0)

	_, err := s.Quote(context.Background(), "bitcoin", false)
	assert.ErrorIs(t, err, client.ErrRateLimited)

	f.err = nil
	f.price = 5
	q, err := s.Quote(context.Background(), "bitcoin", false)
	require.NoError(t, err)
	assert.Equal(t, 5.0, q.Price)

	_, err = s.Quote(context.Background(), "  ", false)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestPrice_ReusesFullQuote(t *testing.T) {
	f := &fakeFetcher{price: 3000}
	s, _ := newTestService(f, 0)
	ctx := context.Background()

	q, err := s.Price(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, q.Price)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.priceCalls))

	_, err = s.Quote(ctx, "solana", false)
	require.NoError(t, err)
	q, err = s.Price(ctx, "solana")
	require.NoError(t, err)
	assert.Equal(t, 1.2e12, q.MarketCap)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.priceCalls))
}

func TestSearch(t *testing.T) {
	f := &fakeFetcher{}
	s, _ := newTestService(f, 0)
	ctx := context.Background()

	coins, err := s.Search(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, coins)
	assert.Zero(t, atomic.LoadInt32(&f.searchCalls))

	coins, err = s.Search(ctx, "Bit")
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "bitcoin", coins[0].ID)

	_, err = s.Search(ctx, "bit")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.searchCalls))
}

func TestWarm_ContinuesPastFailures(t *testing.T) {
	f := &fakeFetcher{price: 1}
	s, now := newTestService(f, time.Hour)
	ctx := context.Background()

	_, err := s.Quote(ctx, "bitcoin", false)
	require.NoError(t, err)

	f.price = 2
	*now = now.Add(time.Minute)
	require.NoError(t, s.Warm(ctx, []string{"bitcoin", "", "ethereum"}))
	assert.EqualValues(t, 3, atomic.LoadInt32(&f.marketCalls))

	q, err := s.Quote(ctx, "bitcoin", false)
	require.NoError(t, err)
	assert.Equal(t, 2.0, q.Price)

	f.err = errors.New("upstream down")
	err = s.Warm(ctx, []string{"bitcoin", "ethereum"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warm bitcoin")
	assert.EqualValues(t, 5, atomic.LoadInt32(&f.marketCalls))
}
