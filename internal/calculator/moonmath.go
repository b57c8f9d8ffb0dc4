package calculator

// MoonMathInput compares asset A against the market cap of asset B.
type MoonMathInput struct {
	AssetAPrice             float64 `json:"asset_a_price"`
	AssetACirculatingSupply float64 `json:"asset_a_circulating_supply"`
	AssetBMarketCap         float64 `json:"asset_b_market_cap"`
}

// MoonMathOutput implied price of asset A
type MoonMathOutput struct {
	ImpliedPrice    float64 `json:"implied_price"`
	ImpliedMultiple float64 `json:"implied_multiple"` // below 1 means a lower price
}

// CalculateMoonMath returns the price asset A would trade at with asset B's
// market cap, and that price as a multiple of A's current price.
func CalculateMoonMath(in MoonMathInput) MoonMathOutput {
	if in.AssetAPrice <= 0 || in.AssetACirculatingSupply <= 0 || in.AssetBMarketCap <= 0 {
		return MoonMathOutput{}
	}

	impliedPrice := in.AssetBMarketCap / in.AssetACirculatingSupply
	return MoonMathOutput{
		ImpliedPrice:    impliedPrice,
		ImpliedMultiple: impliedPrice / in.AssetAPrice,
	}
}
