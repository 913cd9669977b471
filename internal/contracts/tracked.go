package contracts

import "time"

// TrackedSignal records a GO/WATCH verdict at scan time so forward
// returns can be filled in later. Tracking only; no backtesting is
// performed here.
type TrackedSignal struct {
	ID              int64     `json:"id"`
	ScanID          string    `json:"scan_id"`
	Symbol          string    `json:"symbol"`
	Verdict         Verdict   `json:"verdict"`
	ConvictionScore float64   `json:"conviction_score"`
	PriceAtSignal   float64   `json:"price_at_signal"`
	SignalDate      time.Time `json:"signal_date"`

	// Forward prices and simple returns, filled once the horizon passes
	Price30D  *float64 `json:"price_30d,omitempty"`
	Price60D  *float64 `json:"price_60d,omitempty"`
	Price90D  *float64 `json:"price_90d,omitempty"`
	Return30D *float64 `json:"return_30d,omitempty"`
	Return60D *float64 `json:"return_60d,omitempty"`
	Return90D *float64 `json:"return_90d,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Validation statuses for outcome stats
const (
	ValidationInsufficientData = "INSUFFICIENT_DATA"
	ValidationPreliminary      = "PRELIMINARY"
)

// HorizonStats aggregates realized outcomes at one horizon
type HorizonStats struct {
	Count     int     `json:"count"`
	AvgReturn float64 `json:"avg_return"`
	WinRate   float64 `json:"win_rate"`
}

// ValidationStats summarizes how past GO signals performed. The sample
// cutoff is a placeholder, not a derived statistical bound.
type ValidationStats struct {
	SampleSize int                  `json:"sample_size"`
	Status     string               `json:"status"`
	Horizons   map[int]HorizonStats `json:"horizons"`
}
