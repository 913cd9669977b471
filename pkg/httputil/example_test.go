package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/httputil"
	"github.com/wonny/leapscope/pkg/logger"
)

// ExampleNew demonstrates basic HTTP client usage
func ExampleNew() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := httputil.New(cfg, log)

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://api.example.com/data")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("Status: %d\n", resp.StatusCode)
}

// ExampleClient_WithPacing demonstrates caller-side provider pacing
func ExampleClient_WithPacing() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	// At most one request every 500ms, retries capped at 5.
	client := httputil.New(cfg, log).
		WithRetry(5, 2*time.Second).
		WithPacing(500 * time.Millisecond)

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://api.example.com/quotes")
	if err != nil {
		fmt.Printf("Request failed after retries: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded")
}
