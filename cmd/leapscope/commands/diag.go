package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// diagCmd checks connectivity to every configured dependency
var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Check database, cache and provider connectivity",
	RunE:  runDiag,
}

func init() {
	rootCmd.AddCommand(diagCmd)
}

func runDiag(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.db == nil {
		fmt.Println("database: not configured")
	} else if status, err := a.db.HealthCheck(ctx); err != nil {
		fmt.Printf("database: UNHEALTHY (%v)\n", err)
	} else {
		fmt.Printf("database: ok (%d/%d connections, latency %s)\n",
			status.Stats.AcquiredConns, status.Stats.TotalConns, status.ResponseTime)
	}

	if a.redis == nil {
		fmt.Println("redis: not configured")
	} else if err := a.redis.Redis().Ping(ctx).Err(); err != nil {
		fmt.Printf("redis: UNHEALTHY (%v)\n", err)
	} else {
		fmt.Println("redis: ok")
	}

	price := a.router.FetchLivePrice(ctx, "SPY")
	if price == nil {
		fmt.Println("providers: no live quote for SPY, check tokens and network")
	} else {
		fmt.Printf("providers: ok (SPY %.2f via %s)\n", price.Price, price.Source)
	}

	return nil
}
