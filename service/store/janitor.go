package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically evicts terminal contexts past their retention window.
type Janitor struct {
	store     Service
	retention time.Duration
	interval  time.Duration
	logger    *zap.SugaredLogger
}

// NewJanitor creates a janitor; a nil logger disables logging.
func NewJanitor(s Service, retention, interval time.Duration, logger *zap.SugaredLogger) *Janitor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{store: s, retention: retention, interval: interval, logger: logger}
}

// Sweep runs one cleanup pass.
func (j *Janitor) Sweep(ctx context.Context) int {
	removed, err := j.store.CleanupOlderThan(ctx, j.retention)
	if err != nil {
		j.logger.Warnw("workflow cleanup failed", "error", err)
		return 0
	}
	if removed > 0 {
		j.logger.Infow("evicted finished workflows", "count", removed, "retention", j.retention)
	}
	return removed
}

// Start launches the sweep loop. It returns stop(); cancelling ctx also stops it.
func (j *Janitor) Start(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				j.Sweep(ctx)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
