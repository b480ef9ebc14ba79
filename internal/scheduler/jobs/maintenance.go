package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// StorePurgeJob sweeps expired chart, token and report entries
type StorePurgeJob struct {
	store  kvstore.Purger
	logger *logger.Logger
}

// NewStorePurgeJob creates a new purge job
func NewStorePurgeJob(store kvstore.Purger, log *logger.Logger) *StorePurgeJob {
	return &StorePurgeJob{
		store:  store,
		logger: log,
	}
}

// Name returns the job name
func (j *StorePurgeJob) Name() string {
	return "store_purge"
}

// Schedule returns the cron schedule (매일 06:00)
func (j *StorePurgeJob) Schedule() string {
	return "0 0 6 * * *"
}

// Run executes the purge
func (j *StorePurgeJob) Run(ctx context.Context) error {
	removed, err := j.store.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge store: %w", err)
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Store purge completed")
	}
	return nil
}
