package contracts

import "time"

// =============================================================================
// Raw market data shapes returned by the provider router.
// =============================================================================

// Candle is one OHLCV bar
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Fundamentals are raw metrics pulled from a provider. Nil means the
// provider did not report the metric; analyzers must not default it.
type Fundamentals struct {
	RevenueGrowth     *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth    *float64 `json:"earnings_growth,omitempty"`
	ProfitMargins     *float64 `json:"profit_margins,omitempty"`
	ReturnOnEquity    *float64 `json:"return_on_equity,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	CurrentRatio      *float64 `json:"current_ratio,omitempty"`
	OperatingCashflow *float64 `json:"operating_cashflow,omitempty"`
	Beta              *float64 `json:"beta,omitempty"`
}

// Empty reports whether no metric was obtained at all
func (f *Fundamentals) Empty() bool {
	if f == nil {
		return true
	}
	return f.RevenueGrowth == nil && f.EarningsGrowth == nil &&
		f.ProfitMargins == nil && f.ReturnOnEquity == nil &&
		f.DebtToEquity == nil && f.CurrentRatio == nil &&
		f.OperatingCashflow == nil && f.Beta == nil
}

// LivePrice is a price with its provenance tag. The tag names which
// lookup produced the value so divergent sources stay auditable.
type LivePrice struct {
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

// OptionQuote is a live quote for one option contract
type OptionQuote struct {
	Bid          *float64 `json:"bid,omitempty"`
	Ask          *float64 `json:"ask,omitempty"`
	Last         *float64 `json:"last,omitempty"`
	Volume       int      `json:"volume"`
	OpenInterest int      `json:"open_interest"`
	IV           *float64 `json:"iv,omitempty"`
	Greeks       Greeks   `json:"greeks"`
	Source       string   `json:"source"`
}

// ChainOption is one raw contract from an options chain, before the
// LEAPS candidate filters run.
type ChainOption struct {
	ContractSymbol string     `json:"contract_symbol"`
	OptionType     OptionType `json:"option_type"`
	Strike         float64    `json:"strike"`
	Expiration     time.Time  `json:"expiration"`
	DaysToExpiry   int        `json:"days_to_expiry"`
	Bid            float64    `json:"bid"`
	Ask            float64    `json:"ask"`
	Last           float64    `json:"last"`
	Volume         int        `json:"volume"`
	OpenInterest   int        `json:"open_interest"`
	IV             *float64   `json:"iv,omitempty"`
	Greeks         Greeks     `json:"greeks"`
}
