package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePnL_Golden(t *testing.T) {
	in := PnLInput{InvestmentAmount: 1000, BuyPrice: 0.5, SellPrice: 1.0, TradingFeesPercent: 0.1}

	tokens := (1000 - 1000*0.001) / 0.5
	gross := tokens * 1.0
	net := gross - gross*0.001
	profit := net - 1000

	out := CalculatePnL(in)
	require.InDelta(t, 1998.0, out.TokenQuantity, 1e-9)
	assert.Equal(t, tokens, out.TokenQuantity)
	assert.Equal(t, profit, out.NetProfit)
	assert.Equal(t, profit/1000*100, out.ROIPercent)
	assert.InDelta(t, 996.002, out.NetProfit, 1e-9)
	assert.InDelta(t, 99.6002, out.ROIPercent, 1e-9)
}

func TestCalculatePnL_InvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		in   PnLInput
	}{
		{"zero investment", PnLInput{InvestmentAmount: 0, BuyPrice: 1, SellPrice: 2, TradingFeesPercent: 0.1}},
		{"negative investment", PnLInput{InvestmentAmount: -10, BuyPrice: 1, SellPrice: 2}},
		{"zero buy price", PnLInput{InvestmentAmount: 100, BuyPrice: 0, SellPrice: 2}},
		{"negative sell price", PnLInput{InvestmentAmount: 100, BuyPrice: 1, SellPrice: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, PnLOutput{}, CalculatePnL(tc.in))
		})
	}
}

func TestCalculatePnL_ZeroFeesAndLoss(t *testing.T) {
	out := CalculatePnL(PnLInput{InvestmentAmount: 500, BuyPrice: 2, SellPrice: 2})
	assert.Equal(t, 250.0, out.TokenQuantity)
	assert.Equal(t, 0.0, out.NetProfit)
	assert.Equal(t, 0.0, out.ROIPercent)

	loss := CalculatePnL(PnLInput{InvestmentAmount: 1000, BuyPrice: 2, SellPrice: 1, TradingFeesPercent: 0})
	assert.Equal(t, -500.0, loss.NetProfit)
	assert.Equal(t, -50.0, loss.ROIPercent)
}

func TestCalculatePnL_Idempotent(t *testing.T) {
	in := PnLInput{InvestmentAmount: 1234.56, BuyPrice: 0.0123, SellPrice: 0.0456, TradingFeesPercent: 0.25}
	assert.Equal(t, CalculatePnL(in), CalculatePnL(in))
}
