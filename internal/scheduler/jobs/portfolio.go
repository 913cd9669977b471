package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/portfolio"
	"github.com/wonny/leapscope/pkg/logger"
)

// PortfolioRefresher reprices open positions and evaluates their signals
type PortfolioRefresher interface {
	RefreshAll(ctx context.Context) ([]portfolio.ManagedPosition, error)
}

// SignalAlerter raises alerts for critical position signals
type SignalAlerter interface {
	FromPortfolioSignals(ctx context.Context, managed []portfolio.ManagedPosition) []contracts.Alert
}

// PortfolioRefreshJob reprices the book after the close and alerts on
// critical signals
type PortfolioRefreshJob struct {
	refresher PortfolioRefresher
	alerter   SignalAlerter
	schedule  string
	logger    *logger.Logger
}

// NewPortfolioRefreshJob creates the scheduled portfolio refresh
func NewPortfolioRefreshJob(refresher PortfolioRefresher, alerter SignalAlerter, schedule string, log *logger.Logger) *PortfolioRefreshJob {
	return &PortfolioRefreshJob{
		refresher: refresher,
		alerter:   alerter,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *PortfolioRefreshJob) Name() string {
	return "portfolio_refresh"
}

// Schedule returns the configured cron expression
func (j *PortfolioRefreshJob) Schedule() string {
	return j.schedule
}

// Run reprices every open position and fans out critical alerts
func (j *PortfolioRefreshJob) Run(ctx context.Context) error {
	managed, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("portfolio refresh failed: %w", err)
	}

	var alerts []contracts.Alert
	if j.alerter != nil {
		alerts = j.alerter.FromPortfolioSignals(ctx, managed)
	}

	j.logger.WithFields(map[string]interface{}{
		"positions": len(managed),
		"alerts":    len(alerts),
	}).Info("Scheduled portfolio refresh finished")

	return nil
}
