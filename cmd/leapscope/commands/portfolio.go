package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscope/internal/contracts"
)

var (
	posOptionType string
	posStrike     float64
	posExpiration string
	posContracts  int
	posEntryPrice float64
	posUnderlying float64
	posNotes      string
	posStatus     string
)

// portfolioCmd groups position management subcommands
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage and monitor LEAPS positions",
}

var portfolioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List positions",
	RunE:  runPortfolioList,
}

var portfolioAddCmd = &cobra.Command{
	Use:   "add SYMBOL",
	Short: "Open a new position",
	Args:  cobra.ExactArgs(1),
	Example: `  leapscope portfolio add AAPL --strike 200 --expiration 2027-12-17 \
      --contracts 2 --entry-price 15.50`,
	RunE: runPortfolioAdd,
}

var portfolioCloseCmd = &cobra.Command{
	Use:   "close POSITION_ID",
	Short: "Mark a position closed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPortfolioTransition(args[0], contracts.PositionClosed)
	},
}

var portfolioRollCmd = &cobra.Command{
	Use:   "roll POSITION_ID",
	Short: "Mark a position rolled into a new contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPortfolioTransition(args[0], contracts.PositionRolled)
	},
}

var portfolioRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reprice open positions and evaluate management signals",
	RunE:  runPortfolioRefresh,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioListCmd, portfolioAddCmd, portfolioCloseCmd, portfolioRollCmd, portfolioRefreshCmd)

	portfolioListCmd.Flags().StringVar(&posStatus, "status", "", "filter by status (OPEN|CLOSED|ROLLED)")

	portfolioAddCmd.Flags().StringVar(&posOptionType, "type", "CALL", "option type (CALL|PUT)")
	portfolioAddCmd.Flags().Float64Var(&posStrike, "strike", 0, "strike price")
	portfolioAddCmd.Flags().StringVar(&posExpiration, "expiration", "", "expiration date (YYYY-MM-DD)")
	portfolioAddCmd.Flags().IntVar(&posContracts, "contracts", 1, "number of contracts")
	portfolioAddCmd.Flags().Float64Var(&posEntryPrice, "entry-price", 0, "premium paid per contract")
	portfolioAddCmd.Flags().Float64Var(&posUnderlying, "underlying", 0, "underlying price at entry")
	portfolioAddCmd.Flags().StringVar(&posNotes, "notes", "", "free-form notes")

	portfolioCloseCmd.Flags().StringVar(&posNotes, "notes", "", "close notes")
	portfolioRollCmd.Flags().StringVar(&posNotes, "notes", "", "roll notes")
}

func runPortfolioList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	positions, err := a.buildPortfolioManager().ListPositions(context.Background(), contracts.PositionStatus(posStatus))
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("No positions")
		return nil
	}

	fmt.Printf("%-36s %-8s %-5s %8s  %-10s %5s %8s %-7s\n",
		"ID", "SYMBOL", "TYPE", "STRIKE", "EXPIRES", "QTY", "ENTRY", "STATUS")
	for _, p := range positions {
		fmt.Printf("%-36s %-8s %-5s %8.2f  %-10s %5d %8.2f %-7s\n",
			p.ID, p.Symbol, p.OptionType, p.Strike,
			p.Expiration.Format("2006-01-02"), p.Contracts, p.EntryPrice, p.Status)
	}
	return nil
}

func runPortfolioAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	expiration, err := time.Parse("2006-01-02", posExpiration)
	if err != nil {
		return fmt.Errorf("invalid --expiration, expected YYYY-MM-DD: %w", err)
	}

	pos := &contracts.Position{
		Symbol:          args[0],
		OptionType:      contracts.OptionType(posOptionType),
		Strike:          posStrike,
		Expiration:      expiration,
		Contracts:       posContracts,
		EntryPrice:      posEntryPrice,
		EntryDate:       time.Now().UTC(),
		EntryUnderlying: posUnderlying,
		Notes:           posNotes,
	}

	if err := a.buildPortfolioManager().OpenPosition(context.Background(), pos); err != nil {
		return err
	}

	fmt.Printf("Opened %s %s (%s)\n", pos.Symbol, pos.ContractSymbol(), pos.ID)
	return nil
}

func runPortfolioTransition(id string, status contracts.PositionStatus) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	mgr := a.buildPortfolioManager()
	ctx := context.Background()

	switch status {
	case contracts.PositionRolled:
		err = mgr.RollPosition(ctx, id, posNotes)
	default:
		err = mgr.ClosePosition(ctx, id, posNotes)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Position %s marked %s\n", id, status)
	return nil
}

func runPortfolioRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	mgr := a.buildPortfolioManager()
	managed, err := mgr.RefreshAll(context.Background())
	if err != nil {
		return err
	}
	if len(managed) == 0 {
		fmt.Println("No open positions")
		return nil
	}

	fmt.Printf("%-8s %-22s %9s %9s %8s  %-16s %s\n",
		"SYMBOL", "CONTRACT", "MARK", "P&L", "P&L%", "SIGNAL", "ACTION")
	for _, mp := range managed {
		mark := "n/a"
		if mp.Position.Snapshot.Mark != nil {
			mark = fmt.Sprintf("%.2f", *mp.Position.Snapshot.Mark)
		}
		pnl, pnlPct := mp.Position.PnL()
		pnlStr, pctStr := "n/a", "n/a"
		if pnl != nil {
			pnlStr = fmt.Sprintf("%.0f", *pnl)
			pctStr = fmt.Sprintf("%.1f%%", *pnlPct)
		}
		fmt.Printf("%-8s %-22s %9s %9s %8s  %-16s %s\n",
			mp.Position.Symbol, mp.Position.ContractSymbol(), mark, pnlStr, pctStr,
			mp.Signal.Type, mp.Signal.RecommendedAction)
	}

	summary := mgr.Summarize(managed)
	fmt.Printf("\n%d positions, market value %.2f, cost basis %.2f, unrealized %+.1f%%\n",
		summary.TotalPositions, summary.MarketValue, summary.CostBasis, summary.UnrealizedPnLPct)

	if summary.CriticalCount > 0 {
		fmt.Printf("%d position(s) need attention\n", summary.CriticalCount)
	}
	return nil
}
