package calculator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRisk_WithTarget(t *testing.T) {
	out := CalculateRisk(RiskInput{
		EntryPrice:    1.0,
		StopLossPrice: 0.9,
		TotalCapital:  10000,
		RiskPercent:   1,
		TargetPrice:   Some(1.5),
	})

	require.InDelta(t, 0.1, out.RiskPerUnit, 1e-12)
	require.InDelta(t, 1000.0, out.PositionSizeUSD, 1e-9)
	require.InDelta(t, 10.0, out.StopDistancePercent, 1e-9)

	rr, ok := out.RiskRewardRatio.Get()
	require.True(t, ok)
	assert.InDelta(t, 5.0, rr, 1e-9)

	profit, ok := out.PotentialProfit.Get()
	require.True(t, ok)
	assert.InDelta(t, 500.0, profit, 1e-9)
}

func TestCalculateRisk_TargetAbsentOrBelowEntry(t *testing.T) {
	base := RiskInput{EntryPrice: 100, StopLossPrice: 95, TotalCapital: 5000, RiskPercent: 2}

	for name, target := range map[string]Optional[float64]{
		"absent":      None[float64](),
		"below entry": Some(90.0),
		"at entry":    Some(100.0),
		"zero":        Some(0.0),
	} {
		t.Run(name, func(t *testing.T) {
			in := base
			in.TargetPrice = target
			out := CalculateRisk(in)

			assert.InDelta(t, 2000.0, out.PositionSizeUSD, 1e-9)
			assert.False(t, out.RiskRewardRatio.IsSet())
			assert.False(t, out.PotentialProfit.IsSet())
		})
	}
}

func TestCalculateRisk_StopAtOrAboveEntryIsInvalid(t *testing.T) {
	for _, stop := range []float64{1.0, 1.2, 50} {
		out := CalculateRisk(RiskInput{
			EntryPrice:    1.0,
			StopLossPrice: stop,
			TotalCapital:  10000,
			RiskPercent:   1,
			TargetPrice:   Some(1.5),
		})
		assert.Equal(t, RiskOutput{}, out, "stop=%v", stop)
	}
}

func TestCalculateRisk_NonPositiveInputs(t *testing.T) {
	valid := RiskInput{EntryPrice: 10, StopLossPrice: 9, TotalCapital: 1000, RiskPercent: 1}

	mutations := map[string]func(*RiskInput){
		"entry":   func(in *RiskInput) { in.EntryPrice = 0 },
		"stop":    func(in *RiskInput) { in.StopLossPrice = -1 },
		"capital": func(in *RiskInput) { in.TotalCapital = 0 },
		"risk":    func(in *RiskInput) { in.RiskPercent = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			assert.Equal(t, RiskOutput{}, CalculateRisk(in))
		})
	}
}

func TestRiskOutput_JSONKeepsAbsentDistinctFromZero(t *testing.T) {
	data, err := json.Marshal(CalculateRisk(RiskInput{EntryPrice: 10, StopLossPrice: 9, TotalCapital: 1000, RiskPercent: 1}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["risk_reward_ratio"])
	assert.Nil(t, decoded["potential_profit"])
	assert.Contains(t, decoded, "risk_reward_ratio")

	var in RiskInput
	require.NoError(t, json.Unmarshal([]byte(`{"entry_price":1,"stop_loss_price":0.5,"total_capital":100,"risk_percent":1,"target_price":0}`), &in))
	target, ok := in.TargetPrice.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, target)

	require.NoError(t, json.Unmarshal([]byte(`{"target_price":null}`), &in))
	assert.False(t, in.TargetPrice.IsSet())
}
