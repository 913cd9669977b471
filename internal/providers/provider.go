package providers

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
)

// =============================================================================
// Provider capability interfaces. Each provider implements the subset
// it can actually serve; the Router composes them per operation.
// =============================================================================

// ErrUnavailable signals the provider cannot currently serve requests
var ErrUnavailable = errors.New("provider unavailable")

// ErrNoData signals the provider answered but had nothing for the symbol
var ErrNoData = errors.New("no data for symbol")

// Provider identifies a data source and its health
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
}

// OHLCVProvider serves daily price history
type OHLCVProvider interface {
	Provider
	FetchOHLCV(ctx context.Context, symbol, period, interval string) ([]contracts.Candle, error)
}

// FundamentalsProvider serves raw fundamental metrics
type FundamentalsProvider interface {
	Provider
	FetchFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error)
}

// OptionsChainProvider serves long-dated option chains
type OptionsChainProvider interface {
	Provider
	FetchOptionsChain(ctx context.Context, symbol string, minDays int) ([]contracts.ChainOption, error)
}

// EarningsProvider serves the next scheduled earnings date
type EarningsProvider interface {
	Provider
	FetchEarningsDate(ctx context.Context, symbol string) (*time.Time, error)
}

// AssetTypeProvider classifies a symbol as stock or ETF
type AssetTypeProvider interface {
	Provider
	FetchAssetType(ctx context.Context, symbol string) contracts.AssetType
}

// QuoteProvider serves a live underlying price
type QuoteProvider interface {
	Provider
	FetchUnderlyingPrice(ctx context.Context, symbol string) (float64, error)
}

// OptionQuoteProvider serves a live quote for one OCC contract symbol
type OptionQuoteProvider interface {
	Provider
	FetchOptionQuote(ctx context.Context, occSymbol string) (*contracts.OptionQuote, error)
}

// PeriodStart converts a lookback period label into a start date.
// Unrecognized labels default to one year.
func PeriodStart(period string, now time.Time) time.Time {
	days := map[string]int{
		"2y": 730, "1y": 365, "6mo": 180, "3mo": 90, "1mo": 30, "5d": 5,
	}
	d, ok := days[period]
	if !ok {
		d = 365
	}
	return now.AddDate(0, 0, -d)
}
