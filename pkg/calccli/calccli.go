// Package calccli is the command line front end of the calculators.
package calccli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cryptowise-backend/internal/calculator"
	"cryptowise-backend/internal/model"
	"cryptowise-backend/internal/service"
)

// Execute runs the CLI with args, writing JSON results to out
func Execute(ctx context.Context, args []string, out io.Writer) error {
	root := NewRootCmd(out)
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

// NewRootCmd builds the calc command tree
func NewRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "calc",
		Short:         "Crypto position and planning calculators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("raw", false, "Print unrounded results")
	root.PersistentFlags().Bool("pretty", false, "Indent JSON output")

	root.AddCommand(
		newPnLCmd(out),
		newRiskCmd(out),
		newDCACmd(out),
		newMoonCmd(out),
		newFutureValueCmd(out),
		newDecideCmd(out),
	)
	return root
}

func newPnLCmd(out io.Writer) *cobra.Command {
	var in calculator.PnLInput
	cmd := &cobra.Command{
		Use:   "pnl",
		Short: "Profit and loss of a buy and sell with fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := service.CalculatePnL(cmd.Context(), &model.PnLRequest{PnLInput: in}, rawFlag(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, out, resp.Result)
		},
	}
	cmd.Flags().Float64Var(&in.InvestmentAmount, "investment", 0, "Amount invested")
	cmd.Flags().Float64Var(&in.BuyPrice, "buy", 0, "Buy price per token")
	cmd.Flags().Float64Var(&in.SellPrice, "sell", 0, "Sell price per token")
	cmd.Flags().Float64Var(&in.TradingFeesPercent, "fees", 0, "Fee percent charged on each leg")
	return cmd
}

func newRiskCmd(out io.Writer) *cobra.Command {
	var in calculator.RiskInput
	var target float64
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Position size from a stop loss and risk budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.TargetPrice = optionalFlag(cmd.Flags(), "target", target)
			resp, err := service.CalculateRisk(cmd.Context(), &model.RiskRequest{RiskInput: in}, rawFlag(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, out, resp.Result)
		},
	}
	cmd.Flags().Float64Var(&in.EntryPrice, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&in.StopLossPrice, "stop", 0, "Stop loss price")
	cmd.Flags().Float64Var(&in.TotalCapital, "capital", 0, "Total capital")
	cmd.Flags().Float64Var(&in.RiskPercent, "risk", 0, "Percent of capital at risk")
	cmd.Flags().Float64Var(&target, "target", 0, "Take profit price (optional)")
	return cmd
}

func newDCACmd(out io.Writer) *cobra.Command {
	var buys []string
	cmd := &cobra.Command{
		Use:     "dca",
		Short:   "Weighted average entry of several buys",
		Example: "calc dca --buy 100:1000 --buy 50:1000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := parseBuys(buys)
			if err != nil {
				return err
			}
			resp, err := service.CalculateDCA(cmd.Context(), &model.DCARequest{Entries: entries}, rawFlag(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, out, resp.Result)
		},
	}
	cmd.Flags().StringArrayVar(&buys, "buy", nil, "A purchase as price:amount, repeatable")
	return cmd
}

func newMoonCmd(out io.Writer) *cobra.Command {
	var in calculator.MoonMathInput
	cmd := &cobra.Command{
		Use:   "moon",
		Short: "Price of asset A at asset B's market cap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := service.CalculateMoonMath(cmd.Context(), &model.MoonMathRequest{MoonMathInput: in}, rawFlag(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, out, resp.Result)
		},
	}
	cmd.Flags().Float64Var(&in.AssetAPrice, "a-price", 0, "Asset A price")
	cmd.Flags().Float64Var(&in.AssetACirculatingSupply, "a-supply", 0, "Asset A circulating supply")
	cmd.Flags().Float64Var(&in.AssetBMarketCap, "b-mcap", 0, "Asset B market cap")
	return cmd
}

func newFutureValueCmd(out io.Writer) *cobra.Command {
	var in calculator.FutureValueInput
	var inflation, tax float64
	cmd := &cobra.Command{
		Use:   "fv",
		Short: "Compound growth with monthly contributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.InflationRatePercent = optionalFlag(cmd.Flags(), "inflation", inflation)
			in.TaxRatePercent = optionalFlag(cmd.Flags(), "tax", tax)
			resp, err := service.CalculateFutureValue(cmd.Context(), &model.FutureValueRequest{FutureValueInput: in}, rawFlag(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, out, resp.Result)
		},
	}
	cmd.Flags().Float64Var(&in.InitialAmount, "initial", 0, "Initial amount")
	cmd.Flags().Float64Var(&in.MonthlyContribution, "monthly", 0, "Monthly contribution")
	cmd.Flags().Float64Var(&in.Years, "years", 0, "Years to project")
	cmd.Flags().Float64Var(&in.AnnualRatePercent, "rate", 0, "Annual return percent")
	cmd.Flags().Float64Var(&inflation, "inflation", 0, "Annual inflation percent (optional)")
	cmd.Flags().Float64Var(&tax, "tax", 0, "Tax percent on gains (optional)")
	return cmd
}

func newDecideCmd(out io.Writer) *cobra.Command {
	flags := []struct {
		name  string
		usage string
		dest  func(*calculator.DecisionInputs) *calculator.Optional[float64]
	}{
		{"min-roi", "Minimum ROI percent", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.MinROI }},
		{"max-risk", "Maximum risk percent", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.MaxRisk }},
		{"target", "Price target", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.PriceTarget }},
		{"price", "Current price", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.CurrentPrice }},
		{"min-mcap", "Minimum market cap", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.MinMarketCap }},
		{"mcap", "Current market cap", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.CurrentMarketCap }},
		{"change", "24h price change percent", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.PriceChange24h }},
		{"min-change", "Minimum 24h change percent", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.MinPriceChange }},
		{"max-change", "Maximum 24h change percent", func(d *calculator.DecisionInputs) *calculator.Optional[float64] { return &d.MaxPriceChange }},
	}

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Score a trade against a checklist; omitted flags skip their criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in calculator.DecisionInputs
			for _, f := range flags {
				v, err := cmd.Flags().GetFloat64(f.name)
				if err != nil {
					return err
				}
				*f.dest(&in) = optionalFlag(cmd.Flags(), f.name, v)
			}
			resp, err := service.EvaluateDecision(cmd.Context(), &model.DecisionRequest{DecisionInputs: in}, rawFlag(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, out, resp.Result)
		},
	}
	for _, f := range flags {
		cmd.Flags().Float64(f.name, 0, f.usage)
	}
	return cmd
}

// optionalFlag is present only when the flag was given
func optionalFlag(fs *pflag.FlagSet, name string, v float64) calculator.Optional[float64] {
	if fs.Changed(name) {
		return calculator.Some(v)
	}
	return calculator.None[float64]()
}

func rawFlag(cmd *cobra.Command) bool {
	raw, _ := cmd.Flags().GetBool("raw")
	return raw
}

func parseBuys(buys []string) ([]calculator.DCAEntry, error) {
	entries := make([]calculator.DCAEntry, 0, len(buys))
	for i, b := range buys {
		price, amount, ok := strings.Cut(b, ":")
		if !ok {
			return nil, fmt.Errorf("buy %q: want price:amount", b)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
		if err != nil {
			return nil, fmt.Errorf("buy %q: price: %w", b, err)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil {
			return nil, fmt.Errorf("buy %q: amount: %w", b, err)
		}
		entries = append(entries, calculator.DCAEntry{ID: strconv.Itoa(i + 1), BuyPrice: p, Amount: a})
	}
	return entries, nil
}

func printJSON(cmd *cobra.Command, out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
