package contracts

import "time"

// SignalType is a position management signal. The set is closed so the
// priority-ordered matching in the signal machine stays exhaustive.
type SignalType string

const (
	SignalStopLoss        SignalType = "STOP_LOSS"
	SignalTechInvalidated SignalType = "TECH_INVALIDATED"
	SignalTakeProfit      SignalType = "TAKE_PROFIT"
	SignalEarningsRisk    SignalType = "EARNINGS_RISK"
	SignalExpiryReview    SignalType = "EXPIRY_REVIEW"
	SignalHold            SignalType = "HOLD"
)

// Priority returns the evaluation rank; lower wins. Stop-loss always
// outranks take-profit when both conditions hold.
func (t SignalType) Priority() int {
	switch t {
	case SignalStopLoss:
		return 0
	case SignalTechInvalidated:
		return 1
	case SignalTakeProfit:
		return 2
	case SignalEarningsRisk:
		return 3
	case SignalExpiryReview:
		return 4
	default:
		return 5
	}
}

// Severity grades a signal for the operator
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityCritical Severity = "CRITICAL"
)

// Signal is the single active management signal on a position,
// fully recomputed each refresh.
type Signal struct {
	PositionID        string     `json:"position_id"`
	Symbol            string     `json:"symbol"`
	Type              SignalType `json:"type"`
	Severity          Severity   `json:"severity"`
	Reasons           []string   `json:"reasons"`
	RecommendedAction string     `json:"recommended_action"`
	TriggeredAt       time.Time  `json:"triggered_at"`
}

// HoldSignal is the default when no management rule fires
func HoldSignal(positionID, symbol string, now time.Time) Signal {
	return Signal{
		PositionID:        positionID,
		Symbol:            symbol,
		Type:              SignalHold,
		Severity:          SeverityInfo,
		Reasons:           []string{"No management rules triggered"},
		RecommendedAction: "Hold position",
		TriggeredAt:       now,
	}
}
