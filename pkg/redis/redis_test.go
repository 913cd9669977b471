package redis

import (
	"testing"

	"github.com/wonny/leapscope/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(nil, TradierRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != TradierRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", TradierRateLimit.Limit, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(nil, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "QuoteKey",
			fn:       func() string { return QuoteKey("AAPL") },
			expected: "quote:AAPL",
		},
		{
			name:     "OHLCVKey",
			fn:       func() string { return OHLCVKey("AAPL", "2y", "1d") },
			expected: "ohlcv:AAPL:2y:1d",
		},
		{
			name:     "ChainKey",
			fn:       func() string { return ChainKey("MSFT", 300) },
			expected: "chain:MSFT:300",
		},
		{
			name:     "FundamentalsKey",
			fn:       func() string { return FundamentalsKey("NVDA") },
			expected: "fundamentals:NVDA",
		},
		{
			name:     "EarningsKey",
			fn:       func() string { return EarningsKey("AMD") },
			expected: "earnings:AMD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
