package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// trackCmd groups tracked-signal outcome subcommands
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track and validate scan signal outcomes",
}

var trackUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fill matured 30/60/90-day outcomes on tracked signals",
	RunE:  runTrackUpdate,
}

var trackStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show validation statistics for GO signals",
	RunE:  runTrackStats,
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.AddCommand(trackUpdateCmd, trackStatsCmd)
}

func runTrackUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	updated, err := a.buildTracker().UpdateOutcomes(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Updated %d signal outcome(s)\n", updated)
	return nil
}

func runTrackStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	stats, err := a.buildTracker().ValidationStats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("GO signal validation (%s, %d samples)\n", stats.Status, stats.SampleSize)

	horizons := make([]int, 0, len(stats.Horizons))
	for h := range stats.Horizons {
		horizons = append(horizons, h)
	}
	sort.Ints(horizons)

	for _, h := range horizons {
		hs := stats.Horizons[h]
		fmt.Printf("  %3dd: %3d outcomes, avg return %+.2f%%, win rate %.1f%%\n",
			h, hs.Count, hs.AvgReturn, hs.WinRate)
	}
	return nil
}
