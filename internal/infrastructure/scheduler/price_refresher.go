// Package scheduler runs background jobs that keep the engine's caches warm.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrInvalidConfig  = errors.New("invalid scheduler configuration")
	ErrAlreadyRunning = errors.New("refresh already in progress")
)

// PriceRefreshTarget fetches live metal prices and stores them for later fallback.
// metals.FallbackPriceSource satisfies it.
type PriceRefreshTarget interface {
	Refresh(ctx context.Context, currencies []string) error
}

// PriceRefresherConfig holds configuration for the price refresher
type PriceRefresherConfig struct {
	// Enabled determines if the refresher is active
	Enabled bool

	// Interval between refresh runs
	Interval time.Duration

	// Timeout bounds a single run
	Timeout time.Duration

	// Currencies to refresh gold and silver prices in
	Currencies []string

	// RunOnStart triggers a refresh immediately instead of waiting one interval
	RunOnStart bool
}

// DefaultPriceRefresherConfig returns default configuration
func DefaultPriceRefresherConfig() PriceRefresherConfig {
	return PriceRefresherConfig{
		Enabled:    true,
		Interval:   30 * time.Minute,
		Timeout:    time.Minute,
		Currencies: []string{"USD"},
		RunOnStart: true,
	}
}

// Validate checks the configuration
func (c PriceRefresherConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if len(c.Currencies) == 0 {
		return fmt.Errorf("%w: at least one currency is required", ErrInvalidConfig)
	}
	return nil
}

// RefreshStats summarizes refresher activity
type RefreshStats struct {
	Runs     int64     `json:"runs"`
	Failures int64     `json:"failures"`
	LastRun  time.Time `json:"last_run"`
	LastErr  string    `json:"last_error,omitempty"`
}

// PriceRefresher warms the stale-price store on an interval so the stale tier
// has recent data when live sources fail.
type PriceRefresher struct {
	target PriceRefreshTarget
	logger *zap.Logger
	config PriceRefresherConfig

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  atomic.Bool

	statsMu sync.Mutex
	stats   RefreshStats
}

// NewPriceRefresher creates a new price refresher
func NewPriceRefresher(target PriceRefreshTarget, logger *zap.Logger, config PriceRefresherConfig) *PriceRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	currencies := make([]string, 0, len(config.Currencies))
	for _, c := range config.Currencies {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			currencies = append(currencies, c)
		}
	}
	config.Currencies = currencies
	return &PriceRefresher{
		target: target,
		logger: logger.Named("price_refresher"),
		config: config,
	}
}

// Start starts the refresh loop. It is a no-op when disabled or already running.
func (r *PriceRefresher) Start(ctx context.Context) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	if !r.config.Enabled {
		r.mu.Unlock()
		r.logger.Info("Price refresher is disabled")
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("Price refresher started",
		zap.Duration("interval", r.config.Interval),
		zap.Strings("currencies", r.config.Currencies),
	)
	return nil
}

// Stop gracefully stops the refresher
func (r *PriceRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Price refresher stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Price refresher stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (r *PriceRefresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// Stats returns a copy of the run counters
func (r *PriceRefresher) Stats() RefreshStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// RunOnce performs a single refresh. Overlapping calls return ErrAlreadyRunning.
func (r *PriceRefresher) RunOnce(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.inFlight.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	err := r.target.Refresh(runCtx, r.config.Currencies)
	duration := time.Since(start)

	r.statsMu.Lock()
	r.stats.Runs++
	r.stats.LastRun = start
	r.stats.LastErr = ""
	if err != nil {
		r.stats.Failures++
		r.stats.LastErr = err.Error()
	}
	r.statsMu.Unlock()

	if err != nil {
		r.logger.Warn("Metal price refresh incomplete",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return err
	}
	r.logger.Debug("Metal prices refreshed", zap.Duration("duration", duration))
	return nil
}

func (r *PriceRefresher) loop(ctx context.Context) {
	defer r.wg.Done()

	if r.config.RunOnStart {
		_ = r.RunOnce(ctx)
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Price refresh loop stopping")
			return
		case <-ticker.C:
			_ = r.RunOnce(ctx)
		}
	}
}
