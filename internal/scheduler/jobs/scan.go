package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/pkg/logger"
)

// ScanRunner runs one full scan over the given universe
type ScanRunner interface {
	ScanSymbols(ctx context.Context, symbols []string) (*contracts.ScanRecord, *contracts.ScanComparison, error)
}

// FailureAlerter raises an alert when a scheduled scan fails outright
type FailureAlerter interface {
	ScanFailed(ctx context.Context, err error) contracts.Alert
}

// DailyScanJob runs the market scan after the close on trading days
type DailyScanJob struct {
	runner   ScanRunner
	alerter  FailureAlerter
	symbols  []string
	schedule string
	logger   *logger.Logger
}

// NewDailyScanJob creates the scheduled scan job
func NewDailyScanJob(runner ScanRunner, alerter FailureAlerter, symbols []string, schedule string, log *logger.Logger) *DailyScanJob {
	return &DailyScanJob{
		runner:   runner,
		alerter:  alerter,
		symbols:  symbols,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the configured cron expression
func (j *DailyScanJob) Schedule() string {
	return j.schedule
}

// Run executes the scan over the configured universe
func (j *DailyScanJob) Run(ctx context.Context) error {
	rec, _, err := j.runner.ScanSymbols(ctx, j.symbols)
	if err != nil {
		if j.alerter != nil {
			j.alerter.ScanFailed(ctx, err)
		}
		return fmt.Errorf("daily scan failed: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"scan_id":  rec.ID,
		"go_count": rec.GoCount,
	}).Info("Scheduled scan finished")

	return nil
}
