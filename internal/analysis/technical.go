package analysis

import (
	"math"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// TechnicalAnalyzer computes trend state and indicators from daily bars
type TechnicalAnalyzer struct {
	cfg    strategy.Technical
	logger *logger.Logger
}

// NewTechnicalAnalyzer creates a new technical analyzer
func NewTechnicalAnalyzer(cfg strategy.Technical, log *logger.Logger) *TechnicalAnalyzer {
	return &TechnicalAnalyzer{
		cfg:    cfg,
		logger: log,
	}
}

// Analyze builds the technical report for one symbol. Candles must be
// in ascending date order. History shorter than the slow SMA window
// yields INSUFFICIENT_DATA with every indicator nil.
func (a *TechnicalAnalyzer) Analyze(symbol string, candles []contracts.Candle) *contracts.TechnicalReport {
	report := &contracts.TechnicalReport{
		Symbol: symbol,
		Status: contracts.StatusOK,
		Trend:  contracts.TrendUnknown,
	}

	if len(candles) == 0 {
		report.Status = contracts.StatusNoData
		return report
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	report.LastClose = closes[len(closes)-1]

	if len(candles) < a.cfg.SMASlow {
		a.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"bars":   len(candles),
			"need":   a.cfg.SMASlow,
		}).Warn("Insufficient history for technical analysis")
		report.Status = contracts.StatusInsufficientData
		return report
	}

	smaFast := sma(closes, a.cfg.SMAFast)
	smaSlow := sma(closes, a.cfg.SMASlow)
	report.Indicators.SMAFast = &smaFast
	report.Indicators.SMASlow = &smaSlow

	if rsi, ok := wilderRSI(closes, a.cfg.RSIPeriod); ok {
		report.Indicators.RSI = &rsi
	}
	if hv, ok := historicalVolatility(closes, a.cfg.HVWindow); ok {
		report.Indicators.HV = &hv
	}

	report.Trend = classifyTrend(report.LastClose, smaFast, smaSlow)
	report.Signals = detectCrosses(closes, a.cfg.SMAFast, a.cfg.SMASlow)

	a.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"trend":    report.Trend,
		"sma_fast": smaFast,
		"sma_slow": smaSlow,
	}).Debug("Technical analysis complete")

	return report
}

// sma averages the last window closes. Caller guarantees len >= window.
func sma(closes []float64, window int) float64 {
	var sum float64
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}

// wilderRSI computes RSI with Wilder smoothing over the full series
func wilderRSI(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// historicalVolatility is the sample stddev of daily log returns over
// the trailing window, annualized by sqrt(252)
func historicalVolatility(closes []float64, window int) (float64, bool) {
	if len(closes) < window+1 {
		return 0, false
	}

	returns := make([]float64, 0, window)
	for i := len(closes) - window; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return 0, false
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252), true
}

// classifyTrend applies the stacked moving-average regime rules
func classifyTrend(price, smaFast, smaSlow float64) contracts.Trend {
	switch {
	case price > smaFast && smaFast > smaSlow:
		return contracts.TrendBullish
	case price < smaFast && smaFast < smaSlow:
		return contracts.TrendBearish
	default:
		return contracts.TrendNeutral
	}
}

// detectCrosses compares the last two SMA readings for a crossover.
// Needs one extra close so the previous bar has a full slow window.
func detectCrosses(closes []float64, fast, slow int) contracts.CrossSignals {
	if len(closes) < slow+1 {
		return contracts.CrossSignals{}
	}

	prev := closes[:len(closes)-1]
	prevFast, prevSlow := sma(prev, fast), sma(prev, slow)
	currFast, currSlow := sma(closes, fast), sma(closes, slow)

	return contracts.CrossSignals{
		GoldenCross: prevFast <= prevSlow && currFast > currSlow,
		DeathCross:  prevFast >= prevSlow && currFast < currSlow,
	}
}
