package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsgate/netgate/internal/cache"
)

// CacheSweepJob proactively drops expired cache entries so memory is
// reclaimed between reads.
type CacheSweepJob struct {
	Store  *cache.Store
	Logger *slog.Logger
}

// NewCacheSweepJob creates a new CacheSweepJob.
func NewCacheSweepJob(store *cache.Store, logger *slog.Logger) *CacheSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheSweepJob{Store: store, Logger: logger}
}

// Name implements Runnable interface.
func (j *CacheSweepJob) Name() string {
	return "cache.sweep"
}

// Run implements Runnable interface.
func (j *CacheSweepJob) Run(ctx context.Context) error {
	if j == nil || j.Store == nil {
		return fmt.Errorf("cache sweep job dependencies not configured")
	}

	removed := j.Store.Sweep()
	if removed > 0 {
		j.Logger.Info("swept expired cache entries", "removed", removed, "remaining", j.Store.Len())
	}
	return nil
}
