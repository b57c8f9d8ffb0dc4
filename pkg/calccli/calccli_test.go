package calccli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Execute(context.Background(), args, &buf))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())
	return out
}

func TestPnL(t *testing.T) {
	out := run(t, "pnl", "--investment", "1000", "--buy", "0.5", "--sell", "1", "--fees", "0.1")
	assert.Equal(t, 996.0, out["net_profit"])
	assert.Equal(t, 1998.0, out["token_quantity"])

	out = run(t, "pnl", "--raw", "--investment", "1000", "--buy", "0.5", "--sell", "1", "--fees", "0.1")
	assert.InDelta(t, 996.002, out["net_profit"], 1e-9)
}

func TestRisk_TargetOnlyWhenGiven(t *testing.T) {
	out := run(t, "risk", "--entry", "1", "--stop", "0.9", "--capital", "10000", "--risk", "1")
	assert.Nil(t, out["risk_reward_ratio"])

	out = run(t, "risk", "--entry", "1", "--stop", "0.9", "--capital", "10000", "--risk", "1", "--target", "1.5")
	assert.Equal(t, 5.0, out["risk_reward_ratio"])
	assert.Equal(t, 500.0, out["potential_profit"])
}

func TestDCA(t *testing.T) {
	out := run(t, "dca", "--buy", "100:1000", "--buy", "50:1000", "--buy", "0:5")
	assert.Equal(t, 2000.0, out["total_invested"])
	assert.Equal(t, 30.0, out["total_tokens"])

	var buf bytes.Buffer
	err := Execute(context.Background(), []string{"dca", "--buy", "100"}, &buf)
	assert.ErrorContains(t, err, "price:amount")
}

func TestMoon(t *testing.T) {
	out := run(t, "moon", "--a-price", "1", "--a-supply", "1000", "--b-mcap", "5000")
	assert.Equal(t, 5.0, out["implied_price"])
	assert.Equal(t, 5.0, out["implied_multiple"])
}

func TestFutureValue(t *testing.T) {
	out := run(t, "fv", "--initial", "1000", "--monthly", "50", "--years", "1.5", "--rate", "0")
	assert.Equal(t, 1900.0, out["future_value"])
	assert.Nil(t, out["real_future_value"])

	out = run(t, "fv", "--initial", "1000", "--years", "0", "--inflation", "3", "--tax", "0")
	assert.Equal(t, 1000.0, out["real_future_value"])
	assert.Equal(t, 1000.0, out["after_tax_future_value"])
}

func TestDecide(t *testing.T) {
	out := run(t, "decide", "--price", "100", "--target", "150", "--min-roi", "10",
		"--min-mcap", "1e9", "--mcap", "2e9", "--change", "3", "--min-change", "1", "--max-change", "2")
	assert.Equal(t, "Buy", out["recommendation"])
	assert.Equal(t, 80.0, out["score"])
	assert.Len(t, out["criteria"], 5)

	out = run(t, "decide")
	assert.Equal(t, "Wait", out["recommendation"])
	assert.Empty(t, out["criteria"])
}
