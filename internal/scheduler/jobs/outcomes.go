package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/leapscope/pkg/logger"
)

// OutcomeUpdater fills matured forward prices on tracked signals
type OutcomeUpdater interface {
	UpdateOutcomes(ctx context.Context) (int, error)
}

// OutcomeUpdateJob records 30/60/90-day outcomes for tracked signals
type OutcomeUpdateJob struct {
	tracker  OutcomeUpdater
	schedule string
	logger   *logger.Logger
}

// NewOutcomeUpdateJob creates the scheduled outcome update
func NewOutcomeUpdateJob(tracker OutcomeUpdater, schedule string, log *logger.Logger) *OutcomeUpdateJob {
	return &OutcomeUpdateJob{
		tracker:  tracker,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *OutcomeUpdateJob) Name() string {
	return "signal_outcomes"
}

// Schedule returns the configured cron expression
func (j *OutcomeUpdateJob) Schedule() string {
	return j.schedule
}

// Run fills every matured, unfilled outcome horizon
func (j *OutcomeUpdateJob) Run(ctx context.Context) error {
	updated, err := j.tracker.UpdateOutcomes(ctx)
	if err != nil {
		return fmt.Errorf("outcome update failed: %w", err)
	}

	j.logger.WithField("updated", updated).Info("Signal outcomes updated")
	return nil
}
