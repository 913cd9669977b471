package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscope/internal/history"
	"github.com/wonny/leapscope/internal/scheduler"
	"github.com/wonny/leapscope/internal/scheduler/jobs"
)

// Fixed schedules for the follow-up jobs; the scan schedule itself
// comes from config. All expressions carry a seconds field.
const (
	portfolioRefreshSchedule = "0 45 16 * * MON-FRI"
	outcomeUpdateSchedule    = "0 0 17 * * MON-FRI"
	historyCleanupSchedule   = "0 0 3 * * SUN"
)

// schedulerCmd runs all periodic jobs in the foreground
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scan, portfolio and maintenance schedules",
	Long: `Starts the cron scheduler with:
  daily_scan         configured via SCAN_SCHEDULE (default weekdays 16:30)
  portfolio_refresh  weekdays 16:45
  signal_outcomes    weekdays 17:00
  history_cleanup    Sundays 03:00, enforcing SCAN_RETENTION_DAYS`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	alertManager := a.buildAlertManager()
	sched := scheduler.New(a.log)

	jobList := []scheduler.Job{
		jobs.NewDailyScanJob(a.buildScanner(), alertManager, a.strategy.Scan.Symbols, a.cfg.Scan.Schedule, a.log),
		jobs.NewPortfolioRefreshJob(a.buildPortfolioManager(), alertManager, portfolioRefreshSchedule, a.log),
		jobs.NewOutcomeUpdateJob(a.buildTracker(), outcomeUpdateSchedule, a.log),
		jobs.NewHistoryCleanupJob(history.NewScanStore(a.db.Pool), a.cfg.Scan.RetentionDays, historyCleanupSchedule, a.log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job: %w", err)
		}
	}

	sched.Start()
	fmt.Printf("Scheduler running with %d jobs. Press Ctrl+C to stop.\n", len(jobList))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
