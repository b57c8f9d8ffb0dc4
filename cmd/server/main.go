package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cryptowise-backend/internal/cache"
	"cryptowise-backend/internal/client"
	"cryptowise-backend/internal/config"
	"cryptowise-backend/internal/handler"
	"cryptowise-backend/internal/logger"
	"cryptowise-backend/internal/marketdata"
	"cryptowise-backend/internal/scheduler"
	"cryptowise-backend/internal/service"
	"cryptowise-backend/internal/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync(lg) }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// quote cache
	var provider cache.Provider = cache.NewMemoryProvider()
	if cfg.Cache.Backend == config.CacheBackendRedis {
		rp, err := cache.NewRedisProvider(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			lg.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		} else {
			defer rp.Close()
			provider = rp
			lg.Info("redis cache connected", zap.String("addr", cfg.Cache.RedisAddr))
		}
	}

	cg := client.NewCoinGeckoClient(client.Options{
		BaseURL:    cfg.CoinGecko.BaseURL,
		APIKey:     cfg.CoinGecko.APIKey,
		Timeout:    cfg.CoinGecko.Timeout,
		MaxRetries: cfg.CoinGecko.MaxRetries,
	}, lg)
	market := marketdata.NewService(cg, provider, marketdata.Options{
		QuoteTTL:        cfg.Cache.QuoteTTL,
		SearchTTL:       cfg.Cache.SearchTTL,
		RefreshCooldown: cfg.Cache.RefreshCooldown,
		FetchTimeout:    cfg.CoinGecko.Timeout*time.Duration(cfg.CoinGecko.MaxRetries+1) + 10*time.Second,
	}, lg)
	service.SetQuoteSource(market)

	store, err := storage.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()
	service.SetInputStore(store)

	service.SetRounding(service.Rounding{
		Money:   int32(cfg.Rounding.MoneyDecimals),
		Price:   int32(cfg.Rounding.PriceDecimals),
		Percent: int32(cfg.Rounding.PercentDecimals),
	})

	warmer := scheduler.NewQuoteWarmer(market, cfg.Warmer, lg)
	warmer.Start(ctx)
	defer warmer.Stop()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(lg))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	gate := handler.NewAccessGate(cfg.Auth.AccessCode, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	handler.RegisterRoutes(r, gate)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening", zap.String("port", cfg.Port), zap.Bool("access_gate", gate.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
