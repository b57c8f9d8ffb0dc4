package main

import (
	"context"
	"fmt"
	"os"

	"cryptowise-backend/internal/config"
	"cryptowise-backend/internal/service"
	"cryptowise-backend/pkg/calccli"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	if cfg, err := config.Load(); err == nil {
		service.SetRounding(service.Rounding{
			Money:   int32(cfg.Rounding.MoneyDecimals),
			Price:   int32(cfg.Rounding.PriceDecimals),
			Percent: int32(cfg.Rounding.PercentDecimals),
		})
	}

	if err := calccli.Execute(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "calc: %v\n", err)
		os.Exit(1)
	}
}
