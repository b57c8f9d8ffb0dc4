// Package calculator implements the trading calculators: profit/loss,
// position sizing, DCA averaging, moon math, future value and the
// rule-based decision helper. Every function here is pure; invalid input
// produces a documented sentinel result instead of an error.
package calculator

// PnLInput one buy/sell round-trip
type PnLInput struct {
	InvestmentAmount   float64 `json:"investment_amount"`
	BuyPrice           float64 `json:"buy_price"`
	SellPrice          float64 `json:"sell_price"`
	TradingFeesPercent float64 `json:"trading_fees_percent"` // charged on both legs
}

// PnLOutput round-trip result
type PnLOutput struct {
	TokenQuantity float64 `json:"token_quantity"`
	NetProfit     float64 `json:"net_profit"`
	ROIPercent    float64 `json:"roi_percent"`
}

// CalculatePnL computes the realized profit of buying with investmentAmount
// at buyPrice and selling everything at sellPrice. The same fee percentage
// is taken from the buy amount and from the gross sell value.
func CalculatePnL(in PnLInput) PnLOutput {
	if in.InvestmentAmount <= 0 || in.BuyPrice <= 0 || in.SellPrice <= 0 {
		return PnLOutput{}
	}

	feeRate := in.TradingFeesPercent / 100

	buyFee := in.InvestmentAmount * feeRate
	netInvestment := in.InvestmentAmount - buyFee
	tokenQuantity := netInvestment / in.BuyPrice

	grossSellValue := tokenQuantity * in.SellPrice
	sellFee := grossSellValue * feeRate
	netSellValue := grossSellValue - sellFee

	netProfit := netSellValue - in.InvestmentAmount
	roi := (netProfit / in.InvestmentAmount) * 100

	return PnLOutput{
		TokenQuantity: tokenQuantity,
		NetProfit:     netProfit,
		ROIPercent:    roi,
	}
}
