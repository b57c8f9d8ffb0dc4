package calculator

import "math"

// FutureValueInput compound growth projection. InflationRatePercent and
// TaxRatePercent switch on the real and after-tax outputs.
type FutureValueInput struct {
	InitialAmount        float64           `json:"initial_amount"`
	MonthlyContribution  float64           `json:"monthly_contribution"`
	Years                float64           `json:"years"`
	AnnualRatePercent    float64           `json:"annual_rate_percent"`
	InflationRatePercent Optional[float64] `json:"inflation_rate_percent"`
	TaxRatePercent       Optional[float64] `json:"tax_rate_percent"`
}

// FutureValueOutput projected values; the optional ones are set only when
// the matching rate was given.
type FutureValueOutput struct {
	NominalFutureValue  float64           `json:"future_value"`
	TotalContributed    float64           `json:"total_contributed"`
	RealFutureValue     Optional[float64] `json:"real_future_value"`
	AfterTaxFutureValue Optional[float64] `json:"after_tax_future_value"`
}

// CalculateFutureValue compounds InitialAmount monthly at AnnualRatePercent/12
// and adds MonthlyContribution at the end of every month.
//
// With an inflation rate the real value is the same projection at the Fisher
// real rate. With a tax rate only the gains above TotalContributed are taxed.
func CalculateFutureValue(in FutureValueInput) FutureValueOutput {
	if in.Years <= 0 {
		out := FutureValueOutput{
			NominalFutureValue: in.InitialAmount,
			TotalContributed:   in.InitialAmount,
		}
		if in.InflationRatePercent.IsSet() {
			out.RealFutureValue = Some(in.InitialAmount)
		}
		if in.TaxRatePercent.IsSet() {
			out.AfterTaxFutureValue = Some(in.InitialAmount)
		}
		return out
	}

	months := in.Years * 12
	nominal := compound(in.InitialAmount, in.MonthlyContribution, months, in.AnnualRatePercent/100)

	out := FutureValueOutput{
		NominalFutureValue: nominal,
		TotalContributed:   in.InitialAmount + in.MonthlyContribution*months,
	}

	if inflation, ok := in.InflationRatePercent.Get(); ok {
		realRate := RealRate(in.AnnualRatePercent/100, inflation/100)
		out.RealFutureValue = Some(compound(in.InitialAmount, in.MonthlyContribution, months, realRate))
	}

	if tax, ok := in.TaxRatePercent.Get(); ok {
		gains := nominal - out.TotalContributed
		if gains > 0 {
			out.AfterTaxFutureValue = Some(out.TotalContributed + gains*(1-tax/100))
		} else {
			out.AfterTaxFutureValue = Some(nominal)
		}
	}

	return out
}

// RealRate converts a nominal annual rate into a real one (Fisher relation).
// Both rates are fractions, not percentages.
func RealRate(nominal, inflation float64) float64 {
	return (1+nominal)/(1+inflation) - 1
}

// compound is the lump sum grown over months plus an ordinary annuity of
// contribution. Contributions earn nothing unless the periodic rate is
// positive; a zero or negative rate only accumulates them.
func compound(initial, contribution, months, annualRate float64) float64 {
	monthlyRate := annualRate / 12
	growth := math.Pow(1+monthlyRate, months)

	fv := initial * growth
	if contribution > 0 {
		if monthlyRate > 0 {
			fv += contribution * ((growth - 1) / monthlyRate)
		} else {
			fv += contribution * months
		}
	}
	return fv
}
