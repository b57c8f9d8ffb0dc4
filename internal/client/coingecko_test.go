package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *CoinGeckoClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCoinGeckoClient(Options{
		BaseURL:      srv.URL,
		APIKey:       "demo-key",
		Timeout:      2 * time.Second,
		MaxRetries:   retries,
		RetryInitial: time.Millisecond,
		RetryMax:     2 * time.Millisecond,
	}, nil)
}

func TestSearchCoins_CapsResultsAndSendsKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "pepe", r.URL.Query().Get("query"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"coins":[`)
		for i := 0; i < 15; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":"coin-%d","symbol":"c%d","name":"Coin %d"}`, i, i, i)
		}
		fmt.Fprint(w, `]}`)
	}, 0)

	coins, err := c.SearchCoins(context.Background(), " pepe ")
	require.NoError(t, err)
	require.Len(t, coins, MaxSearchResults)
	assert.Equal(t, "coin-0", coins[0].ID)
}

func TestSearchCoins_ShortQuerySkipsRequest(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, 0)

	for _, q := range []string{"", "b", "  x  "} {
		coins, err := c.SearchCoins(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, coins)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGetCoinPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"bitcoin":{"usd":64123.5}}`)
	}, 0)

	price, err := c.GetCoinPrice(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 64123.5, price)

	_, err = c.GetCoinPrice(context.Background(), "dogecoin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCoinMarketData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("ids") {
		case "missing":
			fmt.Fprint(w, `[]`)
			return
		case "illiquid":
			fmt.Fprint(w, `[{"id":"illiquid","symbol":"ill","name":"Illiquid","current_price":0.01,"market_cap":1000,"circulating_supply":100000,"price_change_percentage_24h":null}]`)
			return
		}
		fmt.Fprint(w, `[{"id":"solana","symbol":"sol","name":"Solana","current_price":150.25,"market_cap":70000000000,"circulating_supply":465000000,"price_change_percentage_24h":-1.75}]`)
	}, 0)

	md, err := c.GetCoinMarketData(context.Background(), "solana")
	require.NoError(t, err)
	assert.Equal(t, 150.25, md.CurrentPrice)
	assert.Equal(t, 7e10, md.MarketCap)
	assert.Equal(t, 4.65e8, md.CirculatingSupply)
	require.NotNil(t, md.PriceChangePercentage24h)
	assert.Equal(t, -1.75, *md.PriceChangePercentage24h)

	md, err = c.GetCoinMarketData(context.Background(), "illiquid")
	require.NoError(t, err)
	assert.Nil(t, md.PriceChangePercentage24h)

	_, err = c.GetCoinMarketData(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_RateLimitIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, 2)

	_, err := c.GetCoinPrice(context.Background(), "bitcoin")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGet_ServerErrorsAreRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ethereum":{"usd":3000}}`)
	}, 2)

	price, err := c.GetCoinPrice(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, price)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, 2)

	_, err := c.GetCoinPrice(context.Background(), "ethereum")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGet_ClientErrorFailsFast(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}, 2)

	_, err := c.SearchCoins(context.Background(), "bitcoin")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGet_TransportErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewCoinGeckoClient(Options{BaseURL: url, MaxRetries: 1, RetryInitial: time.Millisecond}, nil)
	_, err := c.GetCoinPrice(context.Background(), "bitcoin")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrNotFound)
}
