package contracts

import "time"

// AlertType classifies an operator alert
type AlertType string

const (
	AlertNewGo           AlertType = "NEW_GO"
	AlertUpgrade         AlertType = "UPGRADE"
	AlertPortfolioSignal AlertType = "PORTFOLIO_SIGNAL"
	AlertScanFailed      AlertType = "SCAN_FAILED"
)

// AlertSeverity grades alerts independently of signal severity
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "INFO"
	AlertWarning  AlertSeverity = "WARNING"
	AlertCritical AlertSeverity = "CRITICAL"
)

// Alert is an operator notification produced by scans and position
// refreshes. Pure data; delivery is the alert manager's concern.
type Alert struct {
	ID           string        `json:"id"`
	Type         AlertType     `json:"type"`
	Severity     AlertSeverity `json:"severity"`
	Symbol       string        `json:"symbol,omitempty"`
	Title        string        `json:"title"`
	Message      string        `json:"message"`
	ScanID       string        `json:"scan_id,omitempty"`
	Acknowledged bool          `json:"acknowledged"`
	CreatedAt    time.Time     `json:"created_at"`
}
