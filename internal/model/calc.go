package model

import "cryptowise-backend/internal/calculator"

// PnLRequest profit and loss request. With CoinID set and no buy price, the
// live price is used as the buy price.
type PnLRequest struct {
	calculator.PnLInput
	CoinID string `json:"coin_id,omitempty"`
}

// RiskRequest position sizing request. With CoinID set and no entry price,
// the live price is used as the entry price.
type RiskRequest struct {
	calculator.RiskInput
	CoinID string `json:"coin_id,omitempty"`
}

// DCARequest dollar-cost averaging request
type DCARequest struct {
	Entries []calculator.DCAEntry `json:"entries"`
}

// MoonMathRequest market cap comparison request. AssetAID fills asset A's
// price and supply, AssetBID fills asset B's market cap; explicit numbers win.
type MoonMathRequest struct {
	calculator.MoonMathInput
	AssetAID string `json:"asset_a_id,omitempty"`
	AssetBID string `json:"asset_b_id,omitempty"`
}

// FutureValueRequest compound growth projection request
type FutureValueRequest struct {
	calculator.FutureValueInput
}

// DecisionRequest decision checklist request. CoinID fills current price,
// market cap and 24h change when they are absent.
type DecisionRequest struct {
	calculator.DecisionInputs
	CoinID string `json:"coin_id,omitempty"`
	// MinMarketCapBillions is used when MinMarketCap is absent
	MinMarketCapBillions calculator.Optional[float64] `json:"min_market_cap_billions"`
}

// CalcResponse carries an engine result and the quotes used to fill it
type CalcResponse[T any] struct {
	Result T       `json:"result"`
	Quotes []Quote `json:"quotes,omitempty"`
}
