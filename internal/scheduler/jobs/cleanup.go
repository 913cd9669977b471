package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/leapscope/pkg/logger"
)

// HistoryPruner deletes scans older than a cutoff
type HistoryPruner interface {
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryCleanupJob enforces the scan history retention window
type HistoryCleanupJob struct {
	store         HistoryPruner
	retentionDays int
	schedule      string
	logger        *logger.Logger
	now           func() time.Time
}

// NewHistoryCleanupJob creates the scheduled history cleanup
func NewHistoryCleanupJob(store HistoryPruner, retentionDays int, schedule string, log *logger.Logger) *HistoryCleanupJob {
	return &HistoryCleanupJob{
		store:         store,
		retentionDays: retentionDays,
		schedule:      schedule,
		logger:        log,
		now:           time.Now,
	}
}

// Name returns the job name
func (j *HistoryCleanupJob) Name() string {
	return "history_cleanup"
}

// Schedule returns the configured cron expression
func (j *HistoryCleanupJob) Schedule() string {
	return j.schedule
}

// Run deletes scans past the retention window
func (j *HistoryCleanupJob) Run(ctx context.Context) error {
	if j.retentionDays <= 0 {
		j.logger.Debug("History retention disabled, cleanup skipped")
		return nil
	}

	cutoff := j.now().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.store.CleanupOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("history cleanup failed: %w", err)
	}

	if deleted > 0 {
		j.logger.WithFields(map[string]interface{}{
			"deleted": deleted,
			"cutoff":  cutoff.Format("2006-01-02"),
		}).Info("Old scans pruned")
	}

	return nil
}
