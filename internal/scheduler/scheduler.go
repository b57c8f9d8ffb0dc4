package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptowise-backend/internal/config"
)

// Warmer refreshes a set of coins
type Warmer interface {
	Warm(ctx context.Context, coinIDs []string) error
}

// QuoteWarmer keeps the watchlist quotes hot in the cache
type QuoteWarmer struct {
	warmer   Warmer
	cfg      config.WarmerConfig
	logger   *zap.Logger
	timeout  time.Duration
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewQuoteWarmer creates a warmer; each pass is bounded by the interval, at most a minute
func NewQuoteWarmer(w Warmer, cfg config.WarmerConfig, logger *zap.Logger) *QuoteWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Interval
	if timeout <= 0 || timeout > time.Minute {
		timeout = time.Minute
	}
	return &QuoteWarmer{
		warmer:  w,
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "scheduler")),
		timeout: timeout,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start warms once immediately, then on every tick until ctx is done or
// Stop is called. It returns false when the warmer is disabled.
func (q *QuoteWarmer) Start(ctx context.Context) bool {
	if !q.cfg.Enabled() {
		q.logger.Info("quote warmer disabled")
		close(q.done)
		return false
	}

	q.logger.Info("quote warmer started",
		zap.Strings("watchlist", q.cfg.Watchlist),
		zap.Duration("interval", q.cfg.Interval))

	go func() {
		defer close(q.done)
		ticker := time.NewTicker(q.cfg.Interval)
		defer ticker.Stop()

		q.warmOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.stop:
				return
			case <-ticker.C:
				q.warmOnce(ctx)
			}
		}
	}()
	return true
}

// Stop ends the loop and waits for the current pass to finish. Call it
// only after Start.
func (q *QuoteWarmer) Stop() {
	q.stopOnce.Do(func() { close(q.stop) })
	<-q.done
}

func (q *QuoteWarmer) warmOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	start := time.Now()
	if err := q.warmer.Warm(ctx, q.cfg.Watchlist); err != nil {
		q.logger.Warn("quote warm pass failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	q.logger.Debug("quote warm pass done", zap.Int("coins", len(q.cfg.Watchlist)), zap.Duration("took", time.Since(start)))
}
