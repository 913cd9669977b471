package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/leapscope/internal/analysis"
	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// =============================================================================
// Position management signals. Rules are checked in strict priority
// order and the first match wins, so a position meeting both stop-loss
// and take-profit resolves to stop-loss. The secondary checks that need
// fresh provider data (trend, earnings) are fail-open: a data error
// skips the check instead of firing a signal on unknowns. That is the
// opposite of the entry gate's fail-closed policy, on purpose; entry
// wants certainty, an open position should not be churned by outages.
// =============================================================================

// SignalMachine recomputes the single active management signal for a
// freshly priced position
type SignalMachine struct {
	cfg            strategy.Portfolio
	earningsWindow int
	data           MarketData
	ta             *analysis.TechnicalAnalyzer
	logger         *logger.Logger
	now            func() time.Time
}

// NewSignalMachine creates a new signal machine
func NewSignalMachine(cfg strategy.Portfolio, earningsWindowDays int, data MarketData, ta *analysis.TechnicalAnalyzer, log *logger.Logger) *SignalMachine {
	return &SignalMachine{
		cfg:            cfg,
		earningsWindow: earningsWindowDays,
		data:           data,
		ta:             ta,
		logger:         log,
		now:            time.Now,
	}
}

// Evaluate returns the position's management signal, first match wins
func (m *SignalMachine) Evaluate(ctx context.Context, pos *contracts.Position) contracts.Signal {
	now := m.now()
	pnl, pnlPct := pos.PnL()

	if sig := m.checkStopLoss(pos, pnl, pnlPct, now); sig != nil {
		return *sig
	}
	if sig := m.checkTechInvalidation(ctx, pos, now); sig != nil {
		return *sig
	}
	if sig := m.checkTakeProfit(pos, pnl, pnlPct, now); sig != nil {
		return *sig
	}
	if sig := m.checkEarningsRisk(ctx, pos, now); sig != nil {
		return *sig
	}
	if sig := m.checkExpiryReview(pos, pnlPct, now); sig != nil {
		return *sig
	}
	return contracts.HoldSignal(pos.ID, pos.Symbol, now)
}

func (m *SignalMachine) checkStopLoss(pos *contracts.Position, pnl, pnlPct *float64, now time.Time) *contracts.Signal {
	if pnlPct == nil || *pnlPct > m.cfg.StopLossPct {
		return nil
	}

	reasons := []string{
		fmt.Sprintf("Position down %.1f%% (threshold: %.0f%%)", *pnlPct, m.cfg.StopLossPct),
	}
	if pnl != nil {
		reasons = append(reasons, fmt.Sprintf("Unrealized loss: $%.2f", *pnl))
	}

	return &contracts.Signal{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Type:       contracts.SignalStopLoss,
		Severity:   contracts.SeverityCritical,
		Reasons:    reasons,
		RecommendedAction: "Consider closing the position to limit further losses. " +
			"Evaluate whether the original thesis is still valid; if a technical " +
			"breakdown is confirmed, exit may be warranted.",
		TriggeredAt: now,
	}
}

// checkTechInvalidation re-reads the trend from current data. A long
// call is invalidated by a bearish flip, a long put by a bullish one.
// Provider failures skip the check.
func (m *SignalMachine) checkTechInvalidation(ctx context.Context, pos *contracts.Position, now time.Time) *contracts.Signal {
	candles := m.data.FetchOHLCV(ctx, pos.Symbol, "1y", "1d")
	if len(candles) == 0 {
		m.logger.WithField("symbol", pos.Symbol).Warn("No OHLCV for invalidation check, skipping")
		return nil
	}

	report := m.ta.Analyze(pos.Symbol, candles)
	if report.Status != contracts.StatusOK {
		return nil
	}

	var reason string
	switch {
	case pos.OptionType == contracts.OptionCall && report.Trend == contracts.TrendBearish:
		reason = "Long call invalidated: trend turned BEARISH"
	case pos.OptionType == contracts.OptionPut && report.Trend == contracts.TrendBullish:
		reason = "Long put invalidated: trend turned BULLISH"
	default:
		return nil
	}

	reasons := []string{reason, fmt.Sprintf("Current trend: %s", report.Trend)}
	if report.Indicators.RSI != nil {
		reasons = append(reasons, fmt.Sprintf("RSI: %.1f", *report.Indicators.RSI))
	}
	if report.Signals.DeathCross {
		reasons = append(reasons, "Death cross detected")
	}
	if report.Signals.GoldenCross {
		reasons = append(reasons, "Golden cross detected")
	}

	return &contracts.Signal{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Type:       contracts.SignalTechInvalidated,
		Severity:   contracts.SeverityCritical,
		Reasons:    reasons,
		RecommendedAction: "Technical thesis invalidated. Consider exiting the position " +
			"to preserve capital and wait for trend confirmation before re-entry.",
		TriggeredAt: now,
	}
}

func (m *SignalMachine) checkTakeProfit(pos *contracts.Position, pnl, pnlPct *float64, now time.Time) *contracts.Signal {
	if pnlPct == nil || *pnlPct < m.cfg.TakeProfitPct {
		return nil
	}

	reasons := []string{
		fmt.Sprintf("Profit target reached: %.1f%% >= %.0f%%", *pnlPct, m.cfg.TakeProfitPct),
	}
	if mv := pos.MarketValue(); mv != nil {
		reasons = append(reasons, fmt.Sprintf("Market value: $%.2f", *mv))
	}

	action := fmt.Sprintf("Position up %.1f%%.", *pnlPct)
	if pnl != nil {
		action = fmt.Sprintf("Position up %.1f%%, unrealized gain $%.2f.", *pnlPct, *pnl)
	}
	if pos.DaysToExpiry(now) <= m.cfg.RollGuidanceDays {
		action += " Consider rolling out 6-12 months while keeping the delta band, locking in gains and extending exposure."
	} else {
		action += " Consider taking partial profits or setting a trailing stop; the thesis may have played out."
	}

	return &contracts.Signal{
		PositionID:        pos.ID,
		Symbol:            pos.Symbol,
		Type:              contracts.SignalTakeProfit,
		Severity:          contracts.SeverityWarn,
		Reasons:           reasons,
		RecommendedAction: action,
		TriggeredAt:       now,
	}
}

// checkEarningsRisk flags earnings inside the risk window. No date or a
// lookup failure means no signal.
func (m *SignalMachine) checkEarningsRisk(ctx context.Context, pos *contracts.Position, now time.Time) *contracts.Signal {
	earningsDate := m.data.FetchEarningsDate(ctx, pos.Symbol)
	if earningsDate == nil {
		return nil
	}

	days := int(earningsDate.Sub(now).Hours() / 24)
	if days < 0 || days > m.earningsWindow {
		return nil
	}

	return &contracts.Signal{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Type:       contracts.SignalEarningsRisk,
		Severity:   contracts.SeverityWarn,
		Reasons: []string{
			fmt.Sprintf("Earnings in %d days (%s)", days, earningsDate.Format("2006-01-02")),
			fmt.Sprintf("Risk window: %d days", m.earningsWindow),
			"Binary event risk, significant price movement possible",
		},
		RecommendedAction: fmt.Sprintf("Earnings report in %d days. Consider reducing size "+
			"before earnings to limit binary risk, or accept the volatility if the thesis "+
			"is strong. IV is typically elevated pre-earnings.", days),
		TriggeredAt: now,
	}
}

func (m *SignalMachine) checkExpiryReview(pos *contracts.Position, pnlPct *float64, now time.Time) *contracts.Signal {
	dte := pos.DaysToExpiry(now)
	if dte > m.cfg.ExpiryReviewDays {
		return nil
	}

	reasons := []string{
		fmt.Sprintf("Expiration approaching: %d days remaining", dte),
		fmt.Sprintf("Expiry date: %s", pos.Expiration.Format("2006-01-02")),
	}
	if pos.Snapshot.Greeks.Theta != nil {
		reasons = append(reasons, fmt.Sprintf("Current theta: %.4f", *pos.Snapshot.Greeks.Theta))
	} else {
		reasons = append(reasons, "Theta unknown")
	}

	action := fmt.Sprintf("Position expires in %d days. Review theta decay impact. ", dte)
	if pnlPct != nil && *pnlPct > 0 {
		action += "Position is profitable; consider rolling out 6-12 months to extend exposure at a similar delta."
	} else {
		action += "Position is at or near a loss; evaluate whether the thesis still holds. Roll if the trend is intact, otherwise consider closing."
	}

	return &contracts.Signal{
		PositionID:        pos.ID,
		Symbol:            pos.Symbol,
		Type:              contracts.SignalExpiryReview,
		Severity:          contracts.SeverityWarn,
		Reasons:           reasons,
		RecommendedAction: action,
		TriggeredAt:       now,
	}
}
