package calculator

import (
	"fmt"
	"math"
	"strconv"
)

// Recommendation is the outcome of a decision evaluation.
type Recommendation string

const (
	RecommendBuy  Recommendation = "Buy"
	RecommendSell Recommendation = "Sell"
	RecommendHold Recommendation = "Hold"
	RecommendWait Recommendation = "Wait"
)

// DecisionInputs is a sparse set of thresholds and observed market figures.
// A criterion is evaluated only when every value it needs is present.
type DecisionInputs struct {
	MinROI           Optional[float64] `json:"min_roi"`
	MaxRisk          Optional[float64] `json:"max_risk"`
	PriceTarget      Optional[float64] `json:"price_target"`
	CurrentPrice     Optional[float64] `json:"current_price"`
	MinMarketCap     Optional[float64] `json:"min_market_cap"`
	CurrentMarketCap Optional[float64] `json:"current_market_cap"`
	PriceChange24h   Optional[float64] `json:"price_change_24h"`
	MinPriceChange   Optional[float64] `json:"min_price_change"`
	MaxPriceChange   Optional[float64] `json:"max_price_change"`
}

// CriterionResult outcome of one evaluated criterion
type CriterionResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// DecisionOutput recommendation, pass rate in percent and the evaluated criteria
type DecisionOutput struct {
	Recommendation Recommendation    `json:"recommendation"`
	Score          float64           `json:"score"`
	Criteria       []CriterionResult `json:"criteria"`
}

// criterion reads its operands from the inputs; ok is false when one of them
// is missing and the criterion must be skipped.
type criterion struct {
	name     string
	evaluate func(in DecisionInputs) (passed bool, reason string, ok bool)
}

// criteria in evaluation order
var criteria = []criterion{
	{name: "ROI Threshold", evaluate: roiThreshold},
	{name: "Risk Tolerance", evaluate: riskTolerance},
	{name: "Price Target", evaluate: priceTarget},
	{name: "Market Cap", evaluate: marketCap},
	{name: "Minimum Price Movement", evaluate: minPriceMovement},
	{name: "Maximum Price Movement", evaluate: maxPriceMovement},
}

// CriterionNames lists every criterion in evaluation order.
func CriterionNames() []string {
	names := make([]string, len(criteria))
	for i, c := range criteria {
		names[i] = c.name
	}
	return names
}

// EvaluateDecision runs every applicable criterion and maps the pass rate to
// a recommendation.
func EvaluateDecision(in DecisionInputs) DecisionOutput {
	results := make([]CriterionResult, 0, len(criteria))
	passedCount := 0

	for _, c := range criteria {
		passed, reason, ok := c.evaluate(in)
		if !ok {
			continue
		}
		if passed {
			passedCount++
		}
		results = append(results, CriterionResult{Name: c.name, Passed: passed, Reason: reason})
	}

	score := 0.0
	if len(results) > 0 {
		score = float64(passedCount) / float64(len(results)) * 100
	}

	return DecisionOutput{
		Recommendation: Recommend(score, len(results)),
		Score:          score,
		Criteria:       results,
	}
}

// Recommend maps a score to a recommendation. Bands are inclusive at the
// lower edge and checked top-down.
func Recommend(score float64, evaluated int) Recommendation {
	switch {
	case evaluated == 0:
		return RecommendWait
	case score >= 80:
		return RecommendBuy
	case score >= 50:
		return RecommendHold
	case score >= 20:
		return RecommendWait
	default:
		return RecommendSell
	}
}

func roiThreshold(in DecisionInputs) (bool, string, bool) {
	minROI, ok1 := in.MinROI.Get()
	current, ok2 := in.CurrentPrice.Get()
	target, ok3 := in.PriceTarget.Get()
	if !ok1 || !ok2 || !ok3 {
		return false, "", false
	}

	potentialROI := (target - current) / current * 100
	if potentialROI >= minROI {
		return true, fmt.Sprintf("Potential ROI of %.2f%% meets minimum %s%%", potentialROI, num(minROI)), true
	}
	return false, fmt.Sprintf("Potential ROI of %.2f%% below minimum %s%%", potentialROI, num(minROI)), true
}

func riskTolerance(in DecisionInputs) (bool, string, bool) {
	maxRisk, ok1 := in.MaxRisk.Get()
	current, ok2 := in.CurrentPrice.Get()
	target, ok3 := in.PriceTarget.Get()
	if !ok1 || !ok2 || !ok3 {
		return false, "", false
	}

	risk := math.Abs((current - target) / current * 100)
	if risk <= maxRisk {
		return true, fmt.Sprintf("Risk of %.2f%% within tolerance of %s%%", risk, num(maxRisk)), true
	}
	return false, fmt.Sprintf("Risk of %.2f%% exceeds tolerance of %s%%", risk, num(maxRisk)), true
}

func priceTarget(in DecisionInputs) (bool, string, bool) {
	target, ok1 := in.PriceTarget.Get()
	current, ok2 := in.CurrentPrice.Get()
	if !ok1 || !ok2 {
		return false, "", false
	}

	if current < target {
		return true, fmt.Sprintf("Current price $%.4f below target $%.4f", current, target), true
	}
	return false, fmt.Sprintf("Current price $%.4f at or above target $%.4f", current, target), true
}

func marketCap(in DecisionInputs) (bool, string, bool) {
	minCap, ok1 := in.MinMarketCap.Get()
	currentCap, ok2 := in.CurrentMarketCap.Get()
	if !ok1 || !ok2 {
		return false, "", false
	}

	if currentCap >= minCap {
		return true, fmt.Sprintf("Market cap $%.2fB meets minimum $%.2fB", currentCap/1e9, minCap/1e9), true
	}
	return false, fmt.Sprintf("Market cap $%.2fB below minimum $%.2fB", currentCap/1e9, minCap/1e9), true
}

func minPriceMovement(in DecisionInputs) (bool, string, bool) {
	change, ok1 := in.PriceChange24h.Get()
	minChange, ok2 := in.MinPriceChange.Get()
	if !ok1 || !ok2 {
		return false, "", false
	}

	if change >= minChange {
		return true, fmt.Sprintf("24h change of %.2f%% meets minimum %s%%", change, num(minChange)), true
	}
	return false, fmt.Sprintf("24h change of %.2f%% below minimum %s%%", change, num(minChange)), true
}

func maxPriceMovement(in DecisionInputs) (bool, string, bool) {
	change, ok1 := in.PriceChange24h.Get()
	maxChange, ok2 := in.MaxPriceChange.Get()
	if !ok1 || !ok2 {
		return false, "", false
	}

	if change <= maxChange {
		return true, fmt.Sprintf("24h change of %.2f%% within maximum %s%%", change, num(maxChange)), true
	}
	return false, fmt.Sprintf("24h change of %.2f%% exceeds maximum %s%%", change, num(maxChange)), true
}

// num prints a threshold the way the user typed it: shortest form, no
// trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
