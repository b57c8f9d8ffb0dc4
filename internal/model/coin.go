package model

import (
	"math"
	"time"

	"cryptowise-backend/internal/calculator"
)

// Coin is one coin search hit
type Coin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Thumb         string `json:"thumb,omitempty"`
	MarketCapRank int    `json:"market_cap_rank,omitempty"`
}

// Quote is a live market snapshot of one coin, all figures in USD
type Quote struct {
	CoinID            string                      `json:"coin_id"`
	Symbol            string                      `json:"symbol"`
	Name              string                      `json:"name"`
	Price             float64                     `json:"price"`
	MarketCap         float64                     `json:"market_cap"`
	CirculatingSupply float64                     `json:"circulating_supply"`
	PriceChange24h    calculator.Optional[float64] `json:"price_change_24h"` // percent, null when unknown
	FetchedAt         time.Time                   `json:"fetched_at"`
}

// Age is how long ago the quote was fetched. A quote without a fetch time
// is as old as it gets.
func (q Quote) Age(now time.Time) time.Duration {
	if q.FetchedAt.IsZero() {
		return math.MaxInt64
	}
	return now.Sub(q.FetchedAt)
}

// CoinSearchResponse wraps search results
type CoinSearchResponse struct {
	Query string `json:"query"`
	Coins []Coin `json:"coins"`
}
