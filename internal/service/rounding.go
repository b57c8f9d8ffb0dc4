package service

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"cryptowise-backend/internal/calculator"
)

// Rounding holds decimal places per output kind; a negative value leaves
// that kind unrounded.
type Rounding struct {
	Money   int32
	Price   int32
	Percent int32
}

// DefaultRounding cents for money, 8 places for prices, 4 for percentages
var DefaultRounding = Rounding{Money: 2, Price: 8, Percent: 4}

var (
	roundingMu sync.RWMutex
	rounding   = DefaultRounding
)

// SetRounding replaces the rounding used by every calculation
func SetRounding(r Rounding) {
	roundingMu.Lock()
	rounding = r
	roundingMu.Unlock()
}

func currentRounding() Rounding {
	roundingMu.RLock()
	defer roundingMu.RUnlock()
	return rounding
}

// roundTo rounds half away from zero. NaN and infinities pass through.
func roundTo(v float64, places int32) float64 {
	if places < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundOptional(o calculator.Optional[float64], places int32) calculator.Optional[float64] {
	if v, ok := o.Get(); ok {
		return calculator.Some(roundTo(v, places))
	}
	return o
}

func (r Rounding) pnl(out calculator.PnLOutput) calculator.PnLOutput {
	out.TokenQuantity = roundTo(out.TokenQuantity, r.Price)
	out.NetProfit = roundTo(out.NetProfit, r.Money)
	out.ROIPercent = roundTo(out.ROIPercent, r.Percent)
	return out
}

func (r Rounding) risk(out calculator.RiskOutput) calculator.RiskOutput {
	out.PositionSizeUSD = roundTo(out.PositionSizeUSD, r.Money)
	out.RiskPerUnit = roundTo(out.RiskPerUnit, r.Price)
	out.StopDistancePercent = roundTo(out.StopDistancePercent, r.Percent)
	out.RiskRewardRatio = roundOptional(out.RiskRewardRatio, r.Percent)
	out.PotentialProfit = roundOptional(out.PotentialProfit, r.Money)
	return out
}

func (r Rounding) dca(out calculator.DCAOutput) calculator.DCAOutput {
	out.TotalInvested = roundTo(out.TotalInvested, r.Money)
	out.TotalTokens = roundTo(out.TotalTokens, r.Price)
	out.AverageEntryPrice = roundTo(out.AverageEntryPrice, r.Price)
	return out
}

func (r Rounding) moonMath(out calculator.MoonMathOutput) calculator.MoonMathOutput {
	out.ImpliedPrice = roundTo(out.ImpliedPrice, r.Price)
	out.ImpliedMultiple = roundTo(out.ImpliedMultiple, r.Percent)
	return out
}

func (r Rounding) futureValue(out calculator.FutureValueOutput) calculator.FutureValueOutput {
	out.NominalFutureValue = roundTo(out.NominalFutureValue, r.Money)
	out.TotalContributed = roundTo(out.TotalContributed, r.Money)
	out.RealFutureValue = roundOptional(out.RealFutureValue, r.Money)
	out.AfterTaxFutureValue = roundOptional(out.AfterTaxFutureValue, r.Money)
	return out
}

func (r Rounding) decision(out calculator.DecisionOutput) calculator.DecisionOutput {
	out.Score = roundTo(out.Score, r.Percent)
	return out
}
