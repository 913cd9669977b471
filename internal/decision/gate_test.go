package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/logger"
)

var gateNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newGate() *Gate {
	g := NewGate(strategy.Default().Decision, logger.New(&config.Config{
		Env: "development", LogLevel: "error", LogFormat: "json",
	}))
	g.now = func() time.Time { return gateNow }
	return g
}

func f64(v float64) *float64 { return &v }

// bullishTechnical is a report that clears the entry checks
func bullishTechnical() *contracts.TechnicalReport {
	return &contracts.TechnicalReport{
		Symbol:    "AAPL",
		Status:    contracts.StatusOK,
		Trend:     contracts.TrendBullish,
		LastClose: 220,
		Indicators: contracts.TechnicalIndicators{
			SMAFast: f64(210),
			SMASlow: f64(195),
			RSI:     f64(55),
			HV:      f64(0.25),
		},
	}
}

func strongFundamental() *contracts.FundamentalReport {
	return &contracts.FundamentalReport{
		Symbol:       "AAPL",
		OverallScore: 85,
		Confidence:   contracts.ConfidenceHigh,
		IsEligible:   true,
		AssetType:    contracts.AssetStock,
	}
}

func liquidOptions(iv float64, count int) *contracts.OptionsReport {
	candidates := make([]contracts.OptionCandidate, count)
	for i := range candidates {
		candidates[i] = contracts.OptionCandidate{IV: &iv, OpenInterest: 1000}
	}
	return &contracts.OptionsReport{
		Symbol:     "AAPL",
		Status:     contracts.StatusOK,
		Count:      count,
		Candidates: candidates,
	}
}

func TestEvaluateAllPass(t *testing.T) {
	g := newGate()

	// IV 0.20 vs HV 0.25: ratio 0.8, comfortably under the ceiling
	d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(), liquidOptions(0.20, 3), nil, contracts.AssetStock)

	assert.Equal(t, contracts.VerdictGo, d.Verdict)
	assert.True(t, d.Passes.Technical)
	assert.True(t, d.Passes.Fundamental)
	assert.True(t, d.Passes.Options)
	assert.False(t, d.EarningsRisk)
	assert.NotEmpty(t, d.Reasons)
}

func TestEvaluateUnknownTrendFailsClosed(t *testing.T) {
	g := newGate()

	ta := bullishTechnical()
	ta.Trend = contracts.TrendUnknown

	// Everything else is perfect; unknown trend alone forces NO_GO
	d := g.Evaluate("AAPL", ta, strongFundamental(), liquidOptions(0.20, 3), nil, contracts.AssetStock)

	assert.Equal(t, contracts.VerdictNoGo, d.Verdict)
	assert.False(t, d.Passes.Technical)
	assert.Contains(t, d.Reasons, "Technical: trend is UNKNOWN, cannot evaluate")
}

func TestEvaluateEarningsDowngradesGoToWatch(t *testing.T) {
	g := newGate()

	earnings := gateNow.AddDate(0, 0, 5)
	d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(), liquidOptions(0.20, 3), &earnings, contracts.AssetStock)

	assert.Equal(t, contracts.VerdictWatch, d.Verdict)
	assert.True(t, d.EarningsRisk)
	// All three dimensions still passed; only the side channel downgraded
	assert.True(t, d.Passes.Technical && d.Passes.Fundamental && d.Passes.Options)
}

func TestEvaluateEarningsNeverVetoesWatch(t *testing.T) {
	g := newGate()

	earnings := gateNow.AddDate(0, 0, 5)
	d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(),
		&contracts.OptionsReport{Status: contracts.StatusNoLiquidity}, &earnings, contracts.AssetStock)

	// Options failed: WATCH, and earnings risk does not push it lower
	assert.Equal(t, contracts.VerdictWatch, d.Verdict)
	assert.True(t, d.EarningsRisk)
}

func TestEvaluatePastEarningsIgnored(t *testing.T) {
	g := newGate()

	past := gateNow.AddDate(0, 0, -3)
	d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(), liquidOptions(0.20, 3), &past, contracts.AssetStock)

	assert.Equal(t, contracts.VerdictGo, d.Verdict)
	assert.False(t, d.EarningsRisk)
}

func TestEvaluateTechnicalFailures(t *testing.T) {
	g := newGate()

	tests := []struct {
		name   string
		mutate func(*contracts.TechnicalReport)
	}{
		{"bearish trend", func(r *contracts.TechnicalReport) { r.Trend = contracts.TrendBearish }},
		{"neutral trend", func(r *contracts.TechnicalReport) { r.Trend = contracts.TrendNeutral }},
		{"overbought RSI", func(r *contracts.TechnicalReport) { r.Indicators.RSI = f64(82) }},
		{"insufficient data", func(r *contracts.TechnicalReport) { r.Status = contracts.StatusInsufficientData }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := bullishTechnical()
			tt.mutate(ta)

			d := g.Evaluate("AAPL", ta, strongFundamental(), liquidOptions(0.20, 3), nil, contracts.AssetStock)

			assert.False(t, d.Passes.Technical)
			assert.Equal(t, contracts.VerdictNoGo, d.Verdict)
		})
	}
}

func TestEvaluateFundamentalFailsClosed(t *testing.T) {
	g := newGate()

	t.Run("nil report", func(t *testing.T) {
		d := g.Evaluate("AAPL", bullishTechnical(), nil, liquidOptions(0.20, 3), nil, contracts.AssetStock)
		assert.False(t, d.Passes.Fundamental)
		assert.Equal(t, contracts.VerdictNoGo, d.Verdict)
	})

	t.Run("unknown means unmeasured, not weak", func(t *testing.T) {
		unknown := &contracts.FundamentalReport{Confidence: contracts.ConfidenceLow}
		d := g.Evaluate("AAPL", bullishTechnical(), unknown, liquidOptions(0.20, 3), nil, contracts.AssetStock)
		assert.False(t, d.Passes.Fundamental)
		assert.Contains(t, d.Reasons, "Fundamental: critical data missing (LOW confidence)")
	})

	t.Run("below floor", func(t *testing.T) {
		weak := strongFundamental()
		weak.OverallScore = 40
		weak.IsEligible = false
		d := g.Evaluate("AAPL", bullishTechnical(), weak, liquidOptions(0.20, 3), nil, contracts.AssetStock)
		assert.False(t, d.Passes.Fundamental)
	})

	t.Run("ineligible despite score", func(t *testing.T) {
		odd := strongFundamental()
		odd.IsEligible = false
		d := g.Evaluate("AAPL", bullishTechnical(), odd, liquidOptions(0.20, 3), nil, contracts.AssetStock)
		assert.False(t, d.Passes.Fundamental)
	})
}

func TestEvaluateETFBypassesFundamentals(t *testing.T) {
	g := newGate()

	d := g.Evaluate("SPY", bullishTechnical(), nil, liquidOptions(0.20, 3), nil, contracts.AssetETF)

	assert.True(t, d.Passes.Fundamental)
	assert.Equal(t, contracts.VerdictGo, d.Verdict)
	assert.Contains(t, d.Reasons, "Fundamental: ETF, check bypassed per policy")
}

func TestEvaluateOptionsFailsClosed(t *testing.T) {
	g := newGate()

	t.Run("nil report", func(t *testing.T) {
		d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(), nil, nil, contracts.AssetStock)
		assert.False(t, d.Passes.Options)
		assert.Equal(t, contracts.VerdictWatch, d.Verdict)
	})

	t.Run("no liquidity", func(t *testing.T) {
		d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(),
			&contracts.OptionsReport{Status: contracts.StatusNoLiquidity}, nil, contracts.AssetStock)
		assert.False(t, d.Passes.Options)
	})

	t.Run("unknown IV fails", func(t *testing.T) {
		opts := &contracts.OptionsReport{
			Status:     contracts.StatusOK,
			Count:      2,
			Candidates: []contracts.OptionCandidate{{OpenInterest: 500}, {OpenInterest: 300}},
		}
		d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(), opts, nil, contracts.AssetStock)
		assert.False(t, d.Passes.Options)
		assert.Contains(t, d.Reasons, "Options: IV unknown, cannot evaluate volatility pricing")
	})

	t.Run("unknown HV fails", func(t *testing.T) {
		ta := bullishTechnical()
		ta.Indicators.HV = nil
		d := g.Evaluate("AAPL", ta, strongFundamental(), liquidOptions(0.20, 3), nil, contracts.AssetStock)
		assert.False(t, d.Passes.Options)
	})

	t.Run("rich IV fails", func(t *testing.T) {
		// IV 0.50 vs HV 0.25: ratio 2.0 over the 1.5 ceiling
		d := g.Evaluate("AAPL", bullishTechnical(), strongFundamental(), liquidOptions(0.50, 3), nil, contracts.AssetStock)
		assert.False(t, d.Passes.Options)
		assert.Equal(t, contracts.VerdictWatch, d.Verdict)
	})
}

func TestGoImpliesAllPassesAndNoEarningsRisk(t *testing.T) {
	g := newGate()

	// Property check over a grid of report mutations
	earnings := []*time.Time{nil}
	near := gateNow.AddDate(0, 0, 10)
	far := gateNow.AddDate(0, 0, 60)
	earnings = append(earnings, &near, &far)

	trends := []contracts.Trend{contracts.TrendBullish, contracts.TrendBearish, contracts.TrendUnknown}
	ivs := []float64{0.20, 0.50}

	for _, trend := range trends {
		for _, iv := range ivs {
			for _, ed := range earnings {
				ta := bullishTechnical()
				ta.Trend = trend

				d := g.Evaluate("AAPL", ta, strongFundamental(), liquidOptions(iv, 2), ed, contracts.AssetStock)
				if d.Verdict == contracts.VerdictGo {
					require.True(t, d.Passes.Technical && d.Passes.Fundamental && d.Passes.Options)
					require.False(t, d.EarningsRisk)
				}
			}
		}
	}
}
