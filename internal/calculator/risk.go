package calculator

// RiskInput describes a planned long trade.
type RiskInput struct {
	EntryPrice    float64           `json:"entry_price"`
	StopLossPrice float64           `json:"stop_loss_price"`
	TotalCapital  float64           `json:"total_capital"`
	RiskPercent   float64           `json:"risk_percent"` // share of capital allowed to be lost
	TargetPrice   Optional[float64] `json:"target_price"`
}

// RiskOutput position sizing result. RiskRewardRatio and PotentialProfit are
// absent unless a target above the entry price was given.
type RiskOutput struct {
	PositionSizeUSD     float64           `json:"position_size_usd"`
	RiskPerUnit         float64           `json:"risk_per_unit"`
	StopDistancePercent float64           `json:"stop_distance_percent"`
	RiskRewardRatio     Optional[float64] `json:"risk_reward_ratio"`
	PotentialProfit     Optional[float64] `json:"potential_profit"`
}

// CalculateRisk sizes a long position so that hitting the stop loses exactly
// RiskPercent of TotalCapital. Short setups (stop at or above entry) return
// the zero RiskOutput.
func CalculateRisk(in RiskInput) RiskOutput {
	if in.EntryPrice <= 0 || in.StopLossPrice <= 0 || in.TotalCapital <= 0 || in.RiskPercent <= 0 {
		return RiskOutput{}
	}
	if in.StopLossPrice >= in.EntryPrice {
		return RiskOutput{}
	}

	riskPerUnit := in.EntryPrice - in.StopLossPrice
	stopDistancePercent := (riskPerUnit / in.EntryPrice) * 100
	maxRiskAmount := in.TotalCapital * (in.RiskPercent / 100)
	positionUnits := maxRiskAmount / riskPerUnit

	out := RiskOutput{
		PositionSizeUSD:     positionUnits * in.EntryPrice,
		RiskPerUnit:         riskPerUnit,
		StopDistancePercent: stopDistancePercent,
	}

	if target, ok := in.TargetPrice.Get(); ok && target > in.EntryPrice {
		rewardPerUnit := target - in.EntryPrice
		out.RiskRewardRatio = Some(rewardPerUnit / riskPerUnit)
		out.PotentialProfit = Some(positionUnits * rewardPerUnit)
	}

	return out
}
