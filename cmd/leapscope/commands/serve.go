package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscope/internal/api"
	"github.com/wonny/leapscope/internal/api/handlers"
	"github.com/wonny/leapscope/internal/history"
)

var servePort string

// serveCmd starts the HTTP API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves scan history, portfolio and alert endpoints.

Endpoints:
  GET  /health
  GET  /api/scans/latest
  GET  /api/scans/{id}
  GET  /api/scans/{id}/comparison
  POST /api/scan
  GET  /api/positions
  POST /api/positions
  GET  /api/portfolio/summary
  GET  /api/portfolio/signals
  GET  /api/alerts
  GET  /api/signals/validation`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireDB(); err != nil {
		return err
	}

	if servePort != "" {
		a.cfg.Port = servePort
	}

	scanStore := history.NewScanStore(a.db.Pool)
	scanHandler := handlers.NewScanHandler(scanStore, a.buildScanner(), a.strategy.Scan.Symbols, a.log)
	positionHandler := handlers.NewPositionHandler(a.buildPortfolioManager(), a.log)
	alertHandler := handlers.NewAlertHandler(a.buildAlertManager(), a.buildTracker(), a.log)

	router := api.NewRouter(scanHandler, positionHandler, alertHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
