package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
)

func newOptionsAnalyzer(now time.Time) *OptionsAnalyzer {
	a := NewOptionsAnalyzer(strategy.Default().Options, testLogger())
	a.now = func() time.Time { return now }
	return a
}

var optionsNow = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

// leapsCall builds a liquid call that clears every default filter
func leapsCall(strike float64, delta float64) contracts.ChainOption {
	iv := 0.30
	return contracts.ChainOption{
		ContractSymbol: "AAPL270617C00150000",
		OptionType:     contracts.OptionCall,
		Strike:         strike,
		Expiration:     optionsNow.AddDate(0, 0, 500),
		Bid:            49.0,
		Ask:            51.0,
		Last:           50.0,
		Volume:         100,
		OpenInterest:   2000,
		IV:             &iv,
		Greeks:         contracts.Greeks{Delta: &delta},
	}
}

func TestAnalyzeChainHappyPath(t *testing.T) {
	a := newOptionsAnalyzer(optionsNow)

	low := leapsCall(150, 0.70)
	low.OpenInterest = 500
	high := leapsCall(140, 0.80)
	high.OpenInterest = 3000

	report := a.AnalyzeChain("AAPL", 220, []contracts.ChainOption{low, high})

	require.Equal(t, contracts.StatusOK, report.Status)
	require.Equal(t, 2, report.Count)
	// Sorted by open interest, most liquid first
	assert.Equal(t, 3000, report.Candidates[0].OpenInterest)
	assert.Equal(t, 500, report.Candidates[1].OpenInterest)

	c := report.Candidates[0]
	assert.Equal(t, 50.0, c.Mid)
	require.NotNil(t, c.SpreadPct)
	assert.InDelta(t, 0.04, *c.SpreadPct, 1e-9)
	assert.Equal(t, 500, c.DaysToExpiry)
}

func TestAnalyzeChainEmpty(t *testing.T) {
	a := newOptionsAnalyzer(optionsNow)

	report := a.AnalyzeChain("AAPL", 220, nil)

	assert.Equal(t, contracts.StatusNoData, report.Status)
	assert.Zero(t, report.Count)
}

func TestAnalyzeChainLiquidityFilters(t *testing.T) {
	a := newOptionsAnalyzer(optionsNow)

	tests := []struct {
		name   string
		mutate func(*contracts.ChainOption)
	}{
		{"low open interest", func(o *contracts.ChainOption) { o.OpenInterest = 10 }},
		{"low volume", func(o *contracts.ChainOption) { o.Volume = 1 }},
		{"wide spread", func(o *contracts.ChainOption) { o.Bid, o.Ask = 40, 60 }},
		{"no quote", func(o *contracts.ChainOption) { o.Bid, o.Ask = 0, 0 }},
		{"put", func(o *contracts.ChainOption) { o.OptionType = contracts.OptionPut }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := leapsCall(150, 0.70)
			tt.mutate(&opt)

			report := a.AnalyzeChain("AAPL", 220, []contracts.ChainOption{opt})

			assert.Equal(t, contracts.StatusNoLiquidity, report.Status)
			assert.Zero(t, report.Count)
		})
	}
}

func TestAnalyzeChainDeltaAndExpiryFilters(t *testing.T) {
	a := newOptionsAnalyzer(optionsNow)

	nearExpiry := leapsCall(150, 0.70)
	nearExpiry.Expiration = optionsNow.AddDate(0, 0, 100)
	lowDelta := leapsCall(300, 0.30)
	highDelta := leapsCall(50, 0.95)

	report := a.AnalyzeChain("AAPL", 220, []contracts.ChainOption{nearExpiry, lowDelta, highDelta})

	// Liquidity passed but nothing survived the expiry/delta band
	assert.Equal(t, contracts.StatusOK, report.Status)
	assert.Zero(t, report.Count)
}

func TestAnalyzeChainComputesGreeksFromIV(t *testing.T) {
	a := newOptionsAnalyzer(optionsNow)

	// Deep ITM with no provider greeks: Black-Scholes delta decides
	opt := leapsCall(120, 0)
	opt.Greeks = contracts.Greeks{}

	report := a.AnalyzeChain("AAPL", 150, []contracts.ChainOption{opt})

	require.Equal(t, 1, report.Count)
	c := report.Candidates[0]
	require.NotNil(t, c.Greeks.Delta)
	assert.GreaterOrEqual(t, *c.Greeks.Delta, 0.65)
	assert.LessOrEqual(t, *c.Greeks.Delta, 0.85)
	assert.NotNil(t, c.Greeks.Gamma)
	assert.NotNil(t, c.Greeks.Theta)
}

func TestAnalyzeChainNoDeltaAvailable(t *testing.T) {
	a := newOptionsAnalyzer(optionsNow)

	opt := leapsCall(150, 0)
	opt.Greeks = contracts.Greeks{}
	opt.IV = nil

	report := a.AnalyzeChain("AAPL", 220, []contracts.ChainOption{opt})

	assert.Equal(t, contracts.StatusOK, report.Status)
	assert.Zero(t, report.Count, "contract without a usable delta is excluded")
}
