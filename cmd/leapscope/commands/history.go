package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscope/internal/history"
)

var historyLimit int

// historyCmd lists recent scans and diffs them
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scans",
	RunE:  runHistory,
}

var historyCompareCmd = &cobra.Command{
	Use:   "compare [SCAN_ID]",
	Short: "Diff a scan against the one before it (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryCompare,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyCompareCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of scans to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	recs, err := history.NewScanStore(a.db.Pool).RecentScans(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No scans recorded")
		return nil
	}

	fmt.Printf("%-24s %-17s %8s %6s %6s %6s\n", "SCAN ID", "TIMESTAMP", "SYMBOLS", "GO", "WATCH", "NO_GO")
	for _, rec := range recs {
		fmt.Printf("%-24s %-17s %8d %6d %6d %6d\n",
			rec.ID, rec.Timestamp.Format("2006-01-02 15:04"),
			rec.SymbolCount, rec.GoCount, rec.WatchCount, rec.NoGoCount)
	}
	return nil
}

func runHistoryCompare(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	store := history.NewScanStore(a.db.Pool)
	ctx := context.Background()

	current, err := store.LatestScan(ctx)
	if len(args) == 1 {
		current, err = store.GetScan(ctx, args[0])
	}
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("scan not found")
	}

	previous, err := store.PreviousScan(ctx, current.ID)
	if err != nil {
		return err
	}

	cmp := history.Compare(current, previous)
	fmt.Printf("Comparing %s", cmp.CurrentID)
	if cmp.PreviousID != "" {
		fmt.Printf(" against %s", cmp.PreviousID)
	}
	fmt.Println()

	if len(cmp.NewGoSignals) > 0 {
		fmt.Printf("New GO: %v\n", cmp.NewGoSignals)
	}
	for _, up := range cmp.Upgraded {
		fmt.Printf("Upgraded: %s %s -> %s\n", up.Symbol, up.From, up.To)
	}
	for _, down := range cmp.Downgraded {
		fmt.Printf("Downgraded: %s %s -> %s\n", down.Symbol, down.From, down.To)
	}
	if len(cmp.NewSymbols) > 0 {
		fmt.Printf("New symbols: %v\n", cmp.NewSymbols)
	}
	if len(cmp.DroppedSymbols) > 0 {
		fmt.Printf("Dropped symbols: %v\n", cmp.DroppedSymbols)
	}
	if len(cmp.NewGoSignals)+len(cmp.Upgraded)+len(cmp.Downgraded)+len(cmp.NewSymbols)+len(cmp.DroppedSymbols) == 0 {
		fmt.Println("No changes")
	}
	return nil
}
