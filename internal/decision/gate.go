package decision

import (
	"fmt"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// =============================================================================
// Entry decision gate. Fail-closed: an unknown required metric fails
// its dimension, it is never conflated with a measured-and-failing one.
// The reason list records every rule evaluated, passes included, so a
// verdict can be audited after the fact.
// =============================================================================

// Gate combines the three analysis reports and the earnings calendar
// into one verdict per symbol
type Gate struct {
	cfg    strategy.Decision
	logger *logger.Logger
	now    func() time.Time
}

// NewGate creates a new decision gate
func NewGate(cfg strategy.Decision, log *logger.Logger) *Gate {
	return &Gate{
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Evaluate produces the decision for one symbol. GO requires all three
// dimensions to pass with no earnings inside the block window; earnings
// proximity only ever downgrades a GO to WATCH.
func (g *Gate) Evaluate(
	symbol string,
	ta *contracts.TechnicalReport,
	fund *contracts.FundamentalReport,
	opt *contracts.OptionsReport,
	earningsDate *time.Time,
	assetType contracts.AssetType,
) *contracts.Decision {
	var reasons []string

	passes := contracts.DimensionPasses{
		Technical:   g.evaluateTechnical(ta, &reasons),
		Fundamental: g.evaluateFundamental(fund, assetType, &reasons),
		Options:     g.evaluateOptions(opt, ta, &reasons),
	}
	earningsRisk := g.checkEarningsRisk(earningsDate, &reasons)

	verdict := contracts.VerdictNoGo
	switch {
	case passes.Technical && passes.Fundamental && passes.Options:
		verdict = contracts.VerdictGo
		reasons = append(reasons, "All systems GO")
	case passes.Technical && passes.Fundamental:
		verdict = contracts.VerdictWatch
		reasons = append(reasons, "Fundamentals and technicals align, options/volatility conditions not met")
	}

	if earningsRisk && verdict == contracts.VerdictGo {
		verdict = contracts.VerdictWatch
		g.logger.WithField("symbol", symbol).Warn("GO downgraded to WATCH, earnings proximity")
	}

	g.logger.WithFields(map[string]interface{}{
		"symbol":     symbol,
		"verdict":    verdict,
		"asset_type": assetType,
	}).Info("Decision evaluated")

	return &contracts.Decision{
		Symbol:       symbol,
		Verdict:      verdict,
		Reasons:      reasons,
		EarningsRisk: earningsRisk,
		Passes:       passes,
		AssetType:    assetType,
		EvaluatedAt:  g.now(),
	}
}

func (g *Gate) evaluateTechnical(report *contracts.TechnicalReport, reasons *[]string) bool {
	if report == nil || report.Status != contracts.StatusOK {
		*reasons = append(*reasons, "Technical: insufficient data")
		return false
	}

	// Unknown trend fails closed regardless of other indicators
	if report.Trend == contracts.TrendUnknown {
		*reasons = append(*reasons, "Technical: trend is UNKNOWN, cannot evaluate")
		return false
	}

	passed := true

	if g.cfg.RequireBullishTrend && report.Trend != contracts.TrendBullish {
		*reasons = append(*reasons, fmt.Sprintf("Technical: trend is %s, bullish required", report.Trend))
		passed = false
	}

	if rsi := report.Indicators.RSI; rsi != nil && *rsi > g.cfg.MaxRSIEntry {
		*reasons = append(*reasons, fmt.Sprintf("Technical: RSI overbought (%.1f > %.0f)", *rsi, g.cfg.MaxRSIEntry))
		passed = false
	}

	if passed {
		*reasons = append(*reasons, fmt.Sprintf("Technical: %s trend, entry conditions met", report.Trend))
	}
	return passed
}

func (g *Gate) evaluateFundamental(report *contracts.FundamentalReport, assetType contracts.AssetType, reasons *[]string) bool {
	if assetType == contracts.AssetETF && g.cfg.ETFBypassFundamentals {
		*reasons = append(*reasons, "Fundamental: ETF, check bypassed per policy")
		return true
	}

	if report == nil {
		*reasons = append(*reasons, "Fundamental: no data (unknown)")
		return false
	}

	// Zero score at LOW confidence means nothing was measured, which is
	// distinct from verified weakness
	if report.Unknown() {
		*reasons = append(*reasons, "Fundamental: critical data missing (LOW confidence)")
		return false
	}

	if report.OverallScore < g.cfg.MinFundamentalsScore {
		*reasons = append(*reasons, fmt.Sprintf("Fundamental: score %.1f < %.0f", report.OverallScore, g.cfg.MinFundamentalsScore))
		return false
	}
	if !report.IsEligible {
		*reasons = append(*reasons, "Fundamental: marked ineligible")
		return false
	}

	*reasons = append(*reasons, fmt.Sprintf("Fundamental: score %.1f (%s confidence)", report.OverallScore, report.Confidence))
	return true
}

func (g *Gate) evaluateOptions(opt *contracts.OptionsReport, ta *contracts.TechnicalReport, reasons *[]string) bool {
	if opt == nil || opt.Status != contracts.StatusOK {
		status := contracts.StatusNoData
		if opt != nil {
			status = opt.Status
		}
		*reasons = append(*reasons, fmt.Sprintf("Options: %s, no suitable LEAPS chain", status))
		return false
	}

	if opt.Count == 0 || len(opt.Candidates) == 0 {
		*reasons = append(*reasons, "Options: zero candidates matched the filters")
		return false
	}

	meanIV := opt.MeanIV()
	if meanIV == nil {
		*reasons = append(*reasons, "Options: IV unknown, cannot evaluate volatility pricing")
		return false
	}

	var hv *float64
	if ta != nil {
		hv = ta.Indicators.HV
	}
	if hv == nil || *hv <= 0 {
		*reasons = append(*reasons, "Options: historical volatility unknown, cannot compare IV/HV")
		return false
	}

	ratio := *meanIV / *hv
	if ratio > g.cfg.MaxIVHVRatio {
		*reasons = append(*reasons, fmt.Sprintf("Options: volatility too expensive, IV/HV %.2f > %.1f", ratio, g.cfg.MaxIVHVRatio))
		return false
	}

	*reasons = append(*reasons, fmt.Sprintf("Options: %d candidates, IV/HV %.2f within ceiling", opt.Count, ratio))
	return true
}

// checkEarningsRisk reports whether earnings fall inside the block
// window. A missing date is no risk, this check is advisory only.
func (g *Gate) checkEarningsRisk(earningsDate *time.Time, reasons *[]string) bool {
	if earningsDate == nil {
		return false
	}

	days := int(earningsDate.Sub(g.now()).Hours() / 24)
	if days < 0 {
		return false
	}

	if days <= g.cfg.EarningsBlockDays {
		*reasons = append(*reasons, fmt.Sprintf(
			"Earnings within %d days (%s), binary risk avoided (threshold %d days)",
			days, earningsDate.Format("2006-01-02"), g.cfg.EarningsBlockDays))
		return true
	}
	return false
}
