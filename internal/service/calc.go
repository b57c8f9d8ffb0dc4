package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"cryptowise-backend/internal/calculator"
	"cryptowise-backend/internal/model"
)

// ErrNoQuoteSource is returned when a request names a coin but live market
// data is not configured
var ErrNoQuoteSource = errors.New("live market data unavailable")

// ErrOutOfRange is returned when a result overflows to an infinity or NaN
var ErrOutOfRange = errors.New("result out of range")

// QuoteSource provides live market data
type QuoteSource interface {
	Quote(ctx context.Context, coinID string, refresh bool) (model.Quote, error)
	Price(ctx context.Context, coinID string) (model.Quote, error)
	Search(ctx context.Context, query string) ([]model.Coin, error)
}

var (
	quoteMu     sync.RWMutex
	quoteSource QuoteSource
)

// SetQuoteSource installs the market data used to fill coin ids; nil disables it
func SetQuoteSource(q QuoteSource) {
	quoteMu.Lock()
	quoteSource = q
	quoteMu.Unlock()
}

func getQuoteSource() (QuoteSource, error) {
	quoteMu.RLock()
	defer quoteMu.RUnlock()
	if quoteSource == nil {
		return nil, ErrNoQuoteSource
	}
	return quoteSource, nil
}

// CalculatePnL profit and loss of one round trip
func CalculatePnL(ctx context.Context, req *model.PnLRequest, raw bool) (*model.CalcResponse[calculator.PnLOutput], error) {
	in := req.PnLInput
	var quotes []model.Quote

	if req.CoinID != "" && in.BuyPrice <= 0 {
		q, err := livePrice(ctx, req.CoinID)
		if err != nil {
			return nil, err
		}
		in.BuyPrice = q.Price
		quotes = append(quotes, q)
	}

	out := calculator.CalculatePnL(in)
	if err := checkFinite(out.TokenQuantity, out.NetProfit, out.ROIPercent); err != nil {
		return nil, err
	}
	if !raw {
		out = currentRounding().pnl(out)
	}
	return &model.CalcResponse[calculator.PnLOutput]{Result: out, Quotes: quotes}, nil
}

// CalculateRisk position size from a stop distance
func CalculateRisk(ctx context.Context, req *model.RiskRequest, raw bool) (*model.CalcResponse[calculator.RiskOutput], error) {
	in := req.RiskInput
	var quotes []model.Quote

	if req.CoinID != "" && in.EntryPrice <= 0 {
		q, err := livePrice(ctx, req.CoinID)
		if err != nil {
			return nil, err
		}
		in.EntryPrice = q.Price
		quotes = append(quotes, q)
	}

	out := calculator.CalculateRisk(in)
	if err := checkFinite(out.PositionSizeUSD, out.RiskPerUnit, out.StopDistancePercent,
		out.RiskRewardRatio.OrElse(0), out.PotentialProfit.OrElse(0)); err != nil {
		return nil, err
	}
	if !raw {
		out = currentRounding().risk(out)
	}
	return &model.CalcResponse[calculator.RiskOutput]{Result: out, Quotes: quotes}, nil
}

// CalculateDCA weighted average entry over purchases
func CalculateDCA(_ context.Context, req *model.DCARequest, raw bool) (*model.CalcResponse[calculator.DCAOutput], error) {
	out := calculator.CalculateDCA(req.Entries)
	if err := checkFinite(out.TotalInvested, out.TotalTokens, out.AverageEntryPrice); err != nil {
		return nil, err
	}
	if !raw {
		out = currentRounding().dca(out)
	}
	return &model.CalcResponse[calculator.DCAOutput]{Result: out}, nil
}

// CalculateMoonMath price of asset A at asset B's market cap. Both coins
// are looked up concurrently.
func CalculateMoonMath(ctx context.Context, req *model.MoonMathRequest, raw bool) (*model.CalcResponse[calculator.MoonMathOutput], error) {
	in := req.MoonMathInput
	needA := req.AssetAID != "" && (in.AssetAPrice <= 0 || in.AssetACirculatingSupply <= 0)
	needB := req.AssetBID != "" && in.AssetBMarketCap <= 0

	var quoteA, quoteB model.Quote
	if needA || needB {
		src, err := getQuoteSource()
		if err != nil {
			return nil, err
		}

		g, gctx := errgroup.WithContext(ctx)
		if needA {
			g.Go(func() error {
				q, err := src.Quote(gctx, req.AssetAID, false)
				if err != nil {
					return fmt.Errorf("asset a %s: %w", req.AssetAID, err)
				}
				quoteA = q
				return nil
			})
		}
		if needB {
			g.Go(func() error {
				q, err := src.Quote(gctx, req.AssetBID, false)
				if err != nil {
					return fmt.Errorf("asset b %s: %w", req.AssetBID, err)
				}
				quoteB = q
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var quotes []model.Quote
	if needA {
		if in.AssetAPrice <= 0 {
			in.AssetAPrice = quoteA.Price
		}
		if in.AssetACirculatingSupply <= 0 {
			in.AssetACirculatingSupply = quoteA.CirculatingSupply
		}
		quotes = append(quotes, quoteA)
	}
	if needB {
		in.AssetBMarketCap = quoteB.MarketCap
		quotes = append(quotes, quoteB)
	}

	out := calculator.CalculateMoonMath(in)
	if err := checkFinite(out.ImpliedPrice, out.ImpliedMultiple); err != nil {
		return nil, err
	}
	if !raw {
		out = currentRounding().moonMath(out)
	}
	return &model.CalcResponse[calculator.MoonMathOutput]{Result: out, Quotes: quotes}, nil
}

// CalculateFutureValue compound growth with optional inflation and tax
func CalculateFutureValue(_ context.Context, req *model.FutureValueRequest, raw bool) (*model.CalcResponse[calculator.FutureValueOutput], error) {
	out := calculator.CalculateFutureValue(req.FutureValueInput)
	if err := checkFinite(out.NominalFutureValue, out.TotalContributed,
		out.RealFutureValue.OrElse(0), out.AfterTaxFutureValue.OrElse(0)); err != nil {
		return nil, err
	}
	if !raw {
		out = currentRounding().futureValue(out)
	}
	return &model.CalcResponse[calculator.FutureValueOutput]{Result: out}, nil
}

// EvaluateDecision runs the buy/sell checklist
func EvaluateDecision(ctx context.Context, req *model.DecisionRequest, raw bool) (*model.CalcResponse[calculator.DecisionOutput], error) {
	in := req.DecisionInputs
	if !in.MinMarketCap.IsSet() {
		if b, ok := req.MinMarketCapBillions.Get(); ok {
			in.MinMarketCap = calculator.Some(b * 1e9)
		}
	}

	var quotes []model.Quote
	if req.CoinID != "" && (!in.CurrentPrice.IsSet() || !in.CurrentMarketCap.IsSet() || !in.PriceChange24h.IsSet()) {
		src, err := getQuoteSource()
		if err != nil {
			return nil, err
		}
		q, err := src.Quote(ctx, req.CoinID, false)
		if err != nil {
			return nil, err
		}

		// zero price or market cap means the upstream had no figure
		if !in.CurrentPrice.IsSet() && q.Price != 0 {
			in.CurrentPrice = calculator.Some(q.Price)
		}
		if !in.CurrentMarketCap.IsSet() && q.MarketCap != 0 {
			in.CurrentMarketCap = calculator.Some(q.MarketCap)
		}
		if !in.PriceChange24h.IsSet() && q.PriceChange24h.IsSet() {
			in.PriceChange24h = q.PriceChange24h
		}
		quotes = append(quotes, q)
	}

	out := calculator.EvaluateDecision(in)
	if !raw {
		out = currentRounding().decision(out)
	}
	return &model.CalcResponse[calculator.DecisionOutput]{Result: out, Quotes: quotes}, nil
}

// GetQuote live quote for one coin
func GetQuote(ctx context.Context, coinID string, refresh bool) (*model.Quote, error) {
	src, err := getQuoteSource()
	if err != nil {
		return nil, err
	}
	q, err := src.Quote(ctx, coinID, refresh)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// SearchCoins coin lookup by name or symbol
func SearchCoins(ctx context.Context, query string) (*model.CoinSearchResponse, error) {
	src, err := getQuoteSource()
	if err != nil {
		return nil, err
	}
	coins, err := src.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &model.CoinSearchResponse{Query: query, Coins: coins}, nil
}

// checkFinite rejects results JSON cannot carry
func checkFinite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrOutOfRange
		}
	}
	return nil
}

func livePrice(ctx context.Context, coinID string) (model.Quote, error) {
	src, err := getQuoteSource()
	if err != nil {
		return model.Quote{}, err
	}
	q, err := src.Price(ctx, coinID)
	if err != nil {
		return model.Quote{}, fmt.Errorf("price %s: %w", coinID, err)
	}
	return q, nil
}
