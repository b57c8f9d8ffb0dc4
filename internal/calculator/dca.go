package calculator

import "sort"

// DCAEntry a single purchase lot
type DCAEntry struct {
	ID       string  `json:"id"`
	BuyPrice float64 `json:"buy_price"`
	Amount   float64 `json:"amount"` // quote currency spent
}

// DCAOutput weighted-average summary
type DCAOutput struct {
	TotalInvested     float64 `json:"total_invested"`
	TotalTokens       float64 `json:"total_tokens"`
	AverageEntryPrice float64 `json:"average_entry_price"`
}

// CalculateDCA returns the amount-weighted average entry over all lots with a
// positive price and amount. Other lots are ignored.
//
// Lots are summed in (price, amount) order so that any permutation of the
// same entries yields bit-identical totals.
func CalculateDCA(entries []DCAEntry) DCAOutput {
	valid := make([]DCAEntry, 0, len(entries))
	for _, e := range entries {
		if e.BuyPrice > 0 && e.Amount > 0 {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return DCAOutput{}
	}

	sort.Slice(valid, func(i, j int) bool {
		if valid[i].BuyPrice != valid[j].BuyPrice {
			return valid[i].BuyPrice < valid[j].BuyPrice
		}
		return valid[i].Amount < valid[j].Amount
	})

	var totalInvested, totalTokens float64
	for _, e := range valid {
		totalInvested += e.Amount
		totalTokens += e.Amount / e.BuyPrice
	}

	return DCAOutput{
		TotalInvested:     totalInvested,
		TotalTokens:       totalTokens,
		AverageEntryPrice: totalInvested / totalTokens,
	}
}
