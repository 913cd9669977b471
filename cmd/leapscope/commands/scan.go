package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscope/internal/contracts"
)

var (
	scanSymbols string
	scanJSON    bool
)

// scanCmd runs one full scan and prints the verdicts
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the universe for LEAPS entry conditions",
	Long: `Runs the full evaluation pipeline over the configured universe:
price history, technical indicators, fundamentals, options chain,
decision gate and conviction scoring. Results are persisted when a
database is configured.

Examples:
  leapscope scan
  leapscope scan --symbols AAPL,MSFT,NVDA
  leapscope scan --json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "comma-separated symbols (default: strategy universe)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the full scan record as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := a.strategy.Scan.Symbols
	if scanSymbols != "" {
		symbols = splitSymbols(scanSymbols)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to scan")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, cmp, err := a.buildScanner().ScanSymbols(ctx, symbols)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if scanJSON {
		return json.NewEncoder(os.Stdout).Encode(rec)
	}

	printScan(rec, cmp)
	return nil
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func printScan(rec *contracts.ScanRecord, cmp *contracts.ScanComparison) {
	fmt.Printf("Scan %s (%s)\n", rec.ID, rec.Timestamp.Format("2006-01-02 15:04 MST"))
	fmt.Printf("GO %d / WATCH %d / NO_GO %d\n\n", rec.GoCount, rec.WatchCount, rec.NoGoCount)

	fmt.Printf("%-8s %-6s %-10s %-7s %s\n", "SYMBOL", "TYPE", "VERDICT", "SCORE", "TOP REASON")
	for _, res := range rec.Results {
		reason := ""
		if len(res.Decision.Reasons) > 0 {
			reason = res.Decision.Reasons[len(res.Decision.Reasons)-1]
		}
		fmt.Printf("%-8s %-6s %-10s %6.1f  %s\n",
			res.Symbol, res.AssetType, res.Decision.Verdict, res.Conviction.Score, reason)
	}

	if cmp == nil {
		return
	}
	if len(cmp.NewGoSignals) > 0 {
		fmt.Printf("\nNew GO signals: %s\n", strings.Join(cmp.NewGoSignals, ", "))
	}
	for _, up := range cmp.Upgraded {
		fmt.Printf("Upgraded: %s %s -> %s\n", up.Symbol, up.From, up.To)
	}
	for _, down := range cmp.Downgraded {
		fmt.Printf("Downgraded: %s %s -> %s\n", down.Symbol, down.From, down.To)
	}
}
