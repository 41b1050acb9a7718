// Package health runs the background reachability probe for the Steam
// Web API.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds watchdog configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Prober answers whether the upstream provider is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

// StatusFunc is an optional callback invoked on every probe with the
// current reachability.
type StatusFunc func(up bool)

// Watchdog periodically probes the Steam Web API and tracks a
// degraded/healthy transition across a failure threshold.
type Watchdog struct {
	prober    Prober
	cfg       Config
	onStatus  StatusFunc
	logger    *zap.Logger
	mu        sync.Mutex
	failCount int
	degraded  bool
}

// New creates a Watchdog.
func New(prober Prober, cfg Config, logger *zap.Logger) *Watchdog {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	return &Watchdog{prober: prober, cfg: cfg, logger: logger}
}

// SetStatusFunc configures the reachability callback.
func (w *Watchdog) SetStatusFunc(fn StatusFunc) {
	w.onStatus = fn
}

// Start runs the probe loop until ctx is cancelled.
func (w *Watchdog) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, w.cfg.ProbeTimeout)
			w.Check(probeCtx)
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

// Check runs a single probe and updates the degraded state.
func (w *Watchdog) Check(ctx context.Context) {
	err := w.prober.Ping(ctx)
	up := err == nil

	if w.onStatus != nil {
		w.onStatus(up)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if up {
		if w.degraded {
			w.logger.Info("steam api recovered", zap.Int("failed_probes", w.failCount))
		}
		w.failCount = 0
		w.degraded = false
		return
	}

	w.failCount++
	if w.failCount == w.cfg.FailThreshold {
		w.degraded = true
		w.logger.Warn("steam api degraded",
			zap.Int("fail_count", w.failCount),
			zap.Error(err),
		)
	}
}

// Degraded reports whether the provider is past the failure threshold.
func (w *Watchdog) Degraded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.degraded
}
