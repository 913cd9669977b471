package analysis

import (
	"fmt"
	"math"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// =============================================================================
// Fundamental quality scoring. Four dimensions, each scored 0-100 from
// two metrics, blended into a weighted composite. Missing metrics lower
// the dimension's confidence instead of scoring as zero quality.
// =============================================================================

const (
	weightGrowth        = 0.30
	weightProfitability = 0.30
	weightBalanceSheet  = 0.25
	weightStability     = 0.15

	revenueGrowthGood  = 0.10
	earningsGrowthGood = 0.10
	netMarginGood      = 0.15
	roeGood            = 0.15
	debtToEquityMax    = 1.5
	currentRatioMin    = 1.2
)

// FundamentalsAnalyzer turns raw provider metrics into an eligibility report
type FundamentalsAnalyzer struct {
	cfg    strategy.Decision
	proxy  float64 // ETF composite stand-in
	logger *logger.Logger
}

// NewFundamentalsAnalyzer creates a new fundamentals analyzer
func NewFundamentalsAnalyzer(cfg strategy.Decision, etfProxy float64, log *logger.Logger) *FundamentalsAnalyzer {
	return &FundamentalsAnalyzer{
		cfg:    cfg,
		proxy:  etfProxy,
		logger: log,
	}
}

type dimensionResult struct {
	score      float64
	confidence contracts.Confidence
	notes      []string
}

// Analyze scores one symbol. ETFs bypass scoring with a neutral passing
// proxy; a symbol with no metrics at all scores zero at LOW confidence,
// which downstream reads as unknown rather than verified-weak.
func (a *FundamentalsAnalyzer) Analyze(symbol string, f *contracts.Fundamentals, assetType contracts.AssetType) *contracts.FundamentalReport {
	if assetType == contracts.AssetETF && a.cfg.ETFBypassFundamentals {
		a.logger.WithField("symbol", symbol).Info("ETF detected, fundamental scoring bypassed")
		return &contracts.FundamentalReport{
			Symbol:       symbol,
			OverallScore: a.proxy,
			Confidence:   contracts.ConfidenceMedium,
			IsEligible:   true,
			AssetType:    contracts.AssetETF,
			Notes:        []string{"ETF: fundamental scoring bypassed per policy"},
		}
	}

	if f.Empty() {
		a.logger.WithField("symbol", symbol).Warn("No fundamental data available")
		return &contracts.FundamentalReport{
			Symbol:     symbol,
			Confidence: contracts.ConfidenceLow,
			AssetType:  assetType,
			Notes:      []string{"No data available"},
		}
	}

	dims := map[string]dimensionResult{
		"growth":        scoreGrowth(f),
		"profitability": scoreProfitability(f),
		"balance_sheet": scoreBalanceSheet(f),
		"stability":     scoreStability(f),
	}
	weights := map[string]float64{
		"growth":        weightGrowth,
		"profitability": weightProfitability,
		"balance_sheet": weightBalanceSheet,
		"stability":     weightStability,
	}

	var weighted, confSum float64
	var notes []string
	dimensions := make(map[string]contracts.DimensionScore, len(dims))
	for key, res := range dims {
		weighted += res.score * weights[key]
		confSum += confidenceValue(res.confidence)
		notes = append(notes, res.notes...)
		dimensions[key] = contracts.DimensionScore{
			Score:      res.score,
			Confidence: res.confidence,
			Notes:      res.notes,
		}
	}

	finalScore := math.Round(weighted*10) / 10
	avgConf := confSum / float64(len(dims))

	var overall contracts.Confidence
	switch {
	case avgConf >= 0.8:
		overall = contracts.ConfidenceHigh
	case avgConf >= 0.5:
		overall = contracts.ConfidenceMedium
	default:
		overall = contracts.ConfidenceLow
	}

	report := &contracts.FundamentalReport{
		Symbol:       symbol,
		OverallScore: finalScore,
		Confidence:   overall,
		IsEligible:   finalScore >= a.cfg.MinFundamentalsScore,
		AssetType:    assetType,
		Dimensions:   dimensions,
		Notes:        notes,
	}

	a.logger.WithFields(map[string]interface{}{
		"symbol":     symbol,
		"score":      finalScore,
		"confidence": overall,
		"eligible":   report.IsEligible,
	}).Info("Fundamentals scored")

	return report
}

func confidenceValue(c contracts.Confidence) float64 {
	switch c {
	case contracts.ConfidenceHigh:
		return 1.0
	case contracts.ConfidenceMedium:
		return 0.5
	default:
		return 0.0
	}
}

// dimensionConfidence grades by how many of the dimension's metrics were missing
func dimensionConfidence(missing, total int) contracts.Confidence {
	switch {
	case missing == 0:
		return contracts.ConfidenceHigh
	case missing < total:
		return contracts.ConfidenceMedium
	default:
		return contracts.ConfidenceLow
	}
}

func scoreGrowth(f *contracts.Fundamentals) dimensionResult {
	var res dimensionResult
	missing := 0

	if f.RevenueGrowth != nil {
		switch {
		case *f.RevenueGrowth >= revenueGrowthGood:
			res.score += 50
		case *f.RevenueGrowth > 0:
			res.score += 25
		default:
			res.notes = append(res.notes, fmt.Sprintf("Negative revenue growth: %.1f%%", *f.RevenueGrowth*100))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing revenue growth")
	}

	if f.EarningsGrowth != nil {
		switch {
		case *f.EarningsGrowth >= earningsGrowthGood:
			res.score += 50
		case *f.EarningsGrowth > 0:
			res.score += 25
		default:
			res.notes = append(res.notes, fmt.Sprintf("Negative earnings growth: %.1f%%", *f.EarningsGrowth*100))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing earnings growth")
	}

	res.confidence = dimensionConfidence(missing, 2)
	return res
}

func scoreProfitability(f *contracts.Fundamentals) dimensionResult {
	var res dimensionResult
	missing := 0

	if f.ProfitMargins != nil {
		switch {
		case *f.ProfitMargins >= netMarginGood:
			res.score += 50
		case *f.ProfitMargins > 0:
			res.score += 25
		default:
			res.notes = append(res.notes, fmt.Sprintf("Negative profit margins: %.1f%%", *f.ProfitMargins*100))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing profit margins")
	}

	if f.ReturnOnEquity != nil {
		switch {
		case *f.ReturnOnEquity >= roeGood:
			res.score += 50
		case *f.ReturnOnEquity > 0:
			res.score += 25
		default:
			res.notes = append(res.notes, fmt.Sprintf("Negative/low ROE: %.2f", *f.ReturnOnEquity))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing return on equity")
	}

	res.confidence = dimensionConfidence(missing, 2)
	return res
}

func scoreBalanceSheet(f *contracts.Fundamentals) dimensionResult {
	var res dimensionResult
	missing := 0

	if f.DebtToEquity != nil {
		// Providers report D/E either as a ratio or a percentage.
		// Values above 10 are assumed to be percentages.
		de := *f.DebtToEquity
		if de > 10 {
			de /= 100
		}
		switch {
		case de <= debtToEquityMax:
			res.score += 50
		case de <= debtToEquityMax*2:
			res.score += 25
		default:
			res.notes = append(res.notes, fmt.Sprintf("High debt/equity: %.2f", de))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing debt to equity")
	}

	if f.CurrentRatio != nil {
		switch {
		case *f.CurrentRatio >= currentRatioMin:
			res.score += 50
		case *f.CurrentRatio >= 1.0:
			res.score += 25
		default:
			res.notes = append(res.notes, fmt.Sprintf("Weak current ratio: %.2f", *f.CurrentRatio))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing current ratio")
	}

	res.confidence = dimensionConfidence(missing, 2)
	return res
}

func scoreStability(f *contracts.Fundamentals) dimensionResult {
	var res dimensionResult
	missing := 0

	if f.OperatingCashflow != nil {
		if *f.OperatingCashflow > 0 {
			res.score += 60
		} else {
			res.notes = append(res.notes, fmt.Sprintf("Negative operating cash flow: %.0f", *f.OperatingCashflow))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing operating cash flow")
	}

	if f.Beta != nil {
		switch beta := *f.Beta; {
		case beta > 0 && beta < 1.5:
			res.score += 40
		case beta >= 1.5 && beta < 2.5:
			res.score += 20
		default:
			res.notes = append(res.notes, fmt.Sprintf("High/abnormal beta: %.2f", beta))
		}
	} else {
		missing++
		res.notes = append(res.notes, "Missing beta")
	}

	res.confidence = dimensionConfidence(missing, 2)
	return res
}
