package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscope/internal/history"
	"github.com/wonny/leapscope/internal/orders"
)

var (
	ticketQuantity int
	ticketsLimit   int
)

// ticketsCmd drafts order tickets from a scan's GO and WATCH results.
// Drafts only; nothing is ever sent to a broker.
var ticketsCmd = &cobra.Command{
	Use:   "tickets [SCAN_ID]",
	Short: "Draft order tickets from a scan (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTickets,
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently drafted tickets",
	RunE:  runTicketsList,
}

func init() {
	rootCmd.AddCommand(ticketsCmd)
	ticketsCmd.AddCommand(ticketsListCmd)

	ticketsCmd.Flags().IntVar(&ticketQuantity, "quantity", 1, "contracts per ticket")
	ticketsListCmd.Flags().IntVar(&ticketsLimit, "limit", 20, "number of tickets to list")
}

func runTickets(cmd *cobra.Command, args []string) error {
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

	rec, err := store.LatestScan(ctx)
	if len(args) == 1 {
		rec, err = store.GetScan(ctx, args[0])
	}
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("scan not found")
	}

	tickets := orders.FromScanRecord(rec, ticketQuantity, time.Now())
	if len(tickets) == 0 {
		fmt.Println("No actionable signals in this scan")
		return nil
	}

	if err := orders.NewTicketRepository(a.db.Pool).SaveAll(ctx, tickets); err != nil {
		a.log.WithError(err).Error("Failed to save draft tickets")
	}

	for _, t := range tickets {
		fmt.Println(t.Display())
	}
	fmt.Printf("%d draft ticket(s) from %s\n", len(tickets), rec.ID)
	return nil
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	tickets, err := orders.NewTicketRepository(a.db.Pool).Recent(context.Background(), ticketsLimit)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		fmt.Println("No draft tickets recorded")
		return nil
	}

	fmt.Printf("%-8s %-22s %-12s %4s %8s %7s %-17s\n",
		"SYMBOL", "CONTRACT", "ACTION", "QTY", "LIMIT", "SCORE", "CREATED")
	for _, t := range tickets {
		limit := "N/A"
		if t.LimitPrice != nil {
			limit = fmt.Sprintf("%.2f", *t.LimitPrice)
		}
		fmt.Printf("%-8s %-22s %-12s %4d %8s %7.1f %-17s\n",
			t.Symbol, t.ContractSymbol, t.Side, t.Quantity, limit,
			t.ConvictionScore, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
