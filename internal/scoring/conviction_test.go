package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/logger"
)

func newScorer() *Scorer {
	return NewScorer(strategy.Default().Scoring, logger.New(&config.Config{
		Env: "development", LogLevel: "error", LogFormat: "json",
	}))
}

func f64(v float64) *float64 { return &v }

func idealInput(symbol string) Input {
	iv := 0.20
	return Input{
		Symbol:    symbol,
		AssetType: contracts.AssetStock,
		Technical: &contracts.TechnicalReport{
			Status: contracts.StatusOK,
			Trend:  contracts.TrendBullish,
			Indicators: contracts.TechnicalIndicators{
				RSI: f64(50),
				HV:  f64(0.25),
			},
			Signals: contracts.CrossSignals{GoldenCross: true},
		},
		Fundamental: &contracts.FundamentalReport{
			OverallScore: 90,
			Confidence:   contracts.ConfidenceHigh,
			IsEligible:   true,
		},
		Options: &contracts.OptionsReport{
			Status: contracts.StatusOK,
			Count:  1,
			Candidates: []contracts.OptionCandidate{
				{Bid: 49.5, Ask: 50.5, IV: &iv, OpenInterest: 6000},
			},
		},
	}
}

func TestScoreIdealSetup(t *testing.T) {
	s := newScorer()

	res := s.Score(idealInput("AAPL"))

	// technical 50+30+15+10=100 (clamped), fundamental 90,
	// volatility ratio 0.8 -> 90, liquidity OI 100*0.6 + spread 100*0.4 = 100
	assert.Equal(t, 100.0, res.Components.Technical)
	assert.Equal(t, 90.0, res.Components.Fundamental)
	assert.Equal(t, 90.0, res.Components.Volatility)
	assert.Equal(t, 100.0, res.Components.Liquidity)
	// 100*.30 + 90*.25 + 90*.25 + 100*.20 = 95.0
	assert.Equal(t, 95.0, res.Score)
	assert.Equal(t, contracts.BandStrong, res.Band)
}

func TestScoreTechnicalBands(t *testing.T) {
	s := newScorer()

	tests := []struct {
		name   string
		mutate func(*contracts.TechnicalReport)
		want   float64
	}{
		{"bearish with death cross", func(r *contracts.TechnicalReport) {
			r.Trend = contracts.TrendBearish
			r.Signals = contracts.CrossSignals{DeathCross: true}
			r.Indicators.RSI = f64(75)
		}, 50 - 30 - 10 - 15},
		{"unknown trend", func(r *contracts.TechnicalReport) {
			r.Trend = contracts.TrendUnknown
			r.Signals = contracts.CrossSignals{}
			r.Indicators.RSI = nil
		}, 50 - 20},
		{"neutral trend oversold", func(r *contracts.TechnicalReport) {
			r.Trend = contracts.TrendNeutral
			r.Signals = contracts.CrossSignals{}
			r.Indicators.RSI = f64(25)
		}, 50 + 5},
		{"mild RSI band", func(r *contracts.TechnicalReport) {
			r.Trend = contracts.TrendNeutral
			r.Signals = contracts.CrossSignals{}
			r.Indicators.RSI = f64(65)
		}, 50 + 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := idealInput("X")
			tt.mutate(in.Technical)

			res := s.Score(in)
			assert.Equal(t, tt.want, res.Components.Technical)
		})
	}
}

func TestScoreTechnicalUnavailable(t *testing.T) {
	s := newScorer()

	in := idealInput("X")
	in.Technical = nil

	res := s.Score(in)
	assert.Equal(t, 30.0, res.Components.Technical)
}

func TestScoreFundamentalConfidenceMultiplier(t *testing.T) {
	s := newScorer()

	for _, tt := range []struct {
		confidence contracts.Confidence
		want       float64
	}{
		{contracts.ConfidenceHigh, 80},
		{contracts.ConfidenceMedium, 72},
		{contracts.ConfidenceLow, 56},
	} {
		in := idealInput("X")
		in.Fundamental.OverallScore = 80
		in.Fundamental.Confidence = tt.confidence

		res := s.Score(in)
		assert.Equal(t, tt.want, res.Components.Fundamental, string(tt.confidence))
	}
}

func TestScoreFundamentalETFProxy(t *testing.T) {
	s := newScorer()

	in := idealInput("SPY")
	in.AssetType = contracts.AssetETF
	in.Fundamental = nil

	res := s.Score(in)
	assert.Equal(t, 70.0, res.Components.Fundamental)
}

func TestScoreVolatilityBands(t *testing.T) {
	s := newScorer()

	for _, tt := range []struct {
		iv   float64
		hv   float64
		want float64
	}{
		{0.20, 0.25, 90}, // ratio 0.8
		{0.25, 0.25, 80}, // ratio 1.0
		{0.30, 0.25, 65}, // ratio 1.2
		{0.36, 0.25, 50}, // ratio 1.44
		{0.50, 0.25, 30}, // ratio 2.0
	} {
		in := idealInput("X")
		in.Technical.Indicators.HV = f64(tt.hv)
		in.Options.Candidates[0].IV = f64(tt.iv)

		res := s.Score(in)
		assert.Equal(t, tt.want, res.Components.Volatility)
	}
}

func TestScoreVolatilityNoHVHeuristic(t *testing.T) {
	s := newScorer()

	for _, tt := range []struct {
		iv   float64
		want float64
	}{
		{0.15, 75},
		{0.30, 60},
		{0.50, 45},
	} {
		in := idealInput("X")
		in.Technical.Indicators.HV = nil
		in.Options.Candidates[0].IV = f64(tt.iv)

		res := s.Score(in)
		assert.Equal(t, tt.want, res.Components.Volatility)
	}
}

func TestScoreVolatilityNoCandidatesNeutral(t *testing.T) {
	s := newScorer()

	in := idealInput("X")
	in.Options = &contracts.OptionsReport{Status: contracts.StatusNoLiquidity}

	res := s.Score(in)
	// Scoring never hard-fails: neutral volatility, low fixed liquidity
	assert.Equal(t, 50.0, res.Components.Volatility)
	assert.Equal(t, 30.0, res.Components.Liquidity)
}

func TestScoreLiquidityBlend(t *testing.T) {
	s := newScorer()

	iv := 0.3
	in := idealInput("X")
	in.Options.Candidates = []contracts.OptionCandidate{
		// OI 800 -> band 70; spread 4% -> 85
		{Bid: 48, Ask: 50, IV: &iv, OpenInterest: 800},
	}

	res := s.Score(in)
	assert.Equal(t, 70*0.6+85*0.4, res.Components.Liquidity)
}

func TestScoreLiquidityBandsMeanSpread(t *testing.T) {
	s := newScorer()

	iv := 0.3
	tight := 0.02
	in := idealInput("X")
	in.Options.Candidates = []contracts.OptionCandidate{
		// Mean OI 3000 -> 85; mean spread (2% + 8%) / 2 = 5% -> 85
		{SpreadPct: &tight, IV: &iv, OpenInterest: 1000},
		{Bid: 46, Ask: 50, IV: &iv, OpenInterest: 5000},
	}

	res := s.Score(in)
	assert.Equal(t, 85.0, res.Components.Liquidity)
}

func TestScoreIsVerdictInvariant(t *testing.T) {
	s := newScorer()

	// The scorer takes only reports; identical reports must produce
	// identical scores no matter what the gate decided.
	a := s.Score(idealInput("AAPL"))
	b := s.Score(idealInput("AAPL"))

	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Components, b.Components)
}

func TestScoreBatchSortsDescending(t *testing.T) {
	s := newScorer()

	weak := idealInput("WEAK")
	weak.Technical.Trend = contracts.TrendBearish
	weak.Fundamental.OverallScore = 20

	mid := idealInput("MID")
	mid.Fundamental.Confidence = contracts.ConfidenceLow

	results := s.ScoreBatch([]Input{weak, idealInput("TOP"), mid})

	require.Len(t, results, 3)
	assert.Equal(t, "TOP", results[0].Symbol)
	assert.Equal(t, "MID", results[1].Symbol)
	assert.Equal(t, "WEAK", results[2].Symbol)
	assert.True(t, results[0].Score >= results[1].Score && results[1].Score >= results[2].Score)
}

func TestBandThresholds(t *testing.T) {
	s := newScorer()

	assert.Equal(t, contracts.BandStrong, s.band(75))
	assert.Equal(t, contracts.BandModerate, s.band(74.9))
	assert.Equal(t, contracts.BandModerate, s.band(50))
	assert.Equal(t, contracts.BandWeak, s.band(49.9))
}
