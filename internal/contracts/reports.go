package contracts

import "time"

// =============================================================================
// Report shapes consumed by the decision gate and conviction scorer.
// One report per symbol per scan, immutable once produced. Any metric
// that could not be computed is an explicit nil, never a zero value.
// =============================================================================

// Trend classifies the price action regime
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
	TrendUnknown Trend = "UNKNOWN"
)

// Confidence grades how much of a report's inputs were actually measured
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ReportStatus tells downstream consumers whether a report is usable
type ReportStatus string

const (
	StatusOK               ReportStatus = "OK"
	StatusInsufficientData ReportStatus = "INSUFFICIENT_DATA"
	StatusNoData           ReportStatus = "NO_DATA"
	StatusNoLiquidity      ReportStatus = "NO_LIQUIDITY"
)

// AssetType classifies the scanned instrument
type AssetType string

const (
	AssetStock   AssetType = "STOCK"
	AssetETF     AssetType = "ETF"
	AssetUnknown AssetType = "UNKNOWN"
)

// TechnicalReport summarizes trend and indicator state for one symbol
type TechnicalReport struct {
	Symbol     string              `json:"symbol"`
	Status     ReportStatus        `json:"status"`
	Trend      Trend               `json:"trend"`
	LastClose  float64             `json:"last_close"`
	Indicators TechnicalIndicators `json:"indicators"`
	Signals    CrossSignals        `json:"signals"`
	Notes      []string            `json:"notes,omitempty"`
}

// TechnicalIndicators holds computed indicator values.
// Nil means the indicator could not be computed from available history.
type TechnicalIndicators struct {
	SMAFast *float64 `json:"sma_fast,omitempty"`
	SMASlow *float64 `json:"sma_slow,omitempty"`
	RSI     *float64 `json:"rsi,omitempty"`
	HV      *float64 `json:"hv,omitempty"` // annualized historical volatility
}

// CrossSignals holds moving-average crossover events from the last two bars
type CrossSignals struct {
	GoldenCross bool `json:"golden_cross"`
	DeathCross  bool `json:"death_cross"`
}

// FundamentalReport is the composite fundamental quality score
type FundamentalReport struct {
	Symbol       string                    `json:"symbol"`
	OverallScore float64                   `json:"overall_score"` // 0-100
	Confidence   Confidence                `json:"confidence"`
	IsEligible   bool                      `json:"is_eligible"`
	AssetType    AssetType                 `json:"asset_type"`
	Dimensions   map[string]DimensionScore `json:"dimensions,omitempty"`
	Notes        []string                  `json:"notes,omitempty"`
}

// DimensionScore is one fundamental dimension's score with its own confidence
type DimensionScore struct {
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	Notes      []string   `json:"notes,omitempty"`
}

// Unknown reports whether the report signals "no usable metrics" rather
// than verified weakness. A zero score at LOW confidence means nothing
// was measured.
func (f *FundamentalReport) Unknown() bool {
	return f.Confidence == ConfidenceLow && f.OverallScore == 0
}

// OptionsReport holds the post-filter LEAPS candidates for one symbol
type OptionsReport struct {
	Symbol     string            `json:"symbol"`
	Status     ReportStatus      `json:"status"` // OK, NO_DATA or NO_LIQUIDITY
	Count      int               `json:"count"`
	Candidates []OptionCandidate `json:"candidates,omitempty"`
}

// OptionCandidate is one contract that survived the liquidity/delta filters
type OptionCandidate struct {
	ContractSymbol string    `json:"contract_symbol"`
	Strike         float64   `json:"strike"`
	Expiration     time.Time `json:"expiration"`
	DaysToExpiry   int       `json:"days_to_expiry"`
	Bid            float64   `json:"bid"`
	Ask            float64   `json:"ask"`
	Last           float64   `json:"last"`
	Mid            float64   `json:"mid"`
	SpreadPct      *float64  `json:"spread_pct,omitempty"` // nil when the quote is unusable
	IV             *float64  `json:"iv,omitempty"`
	OpenInterest   int       `json:"open_interest"`
	Volume         int       `json:"volume"`
	Greeks         Greeks    `json:"greeks"`
}

// Greeks holds option sensitivities. Nil when the source did not provide
// them and they could not be derived.
type Greeks struct {
	Delta *float64 `json:"delta,omitempty"`
	Gamma *float64 `json:"gamma,omitempty"`
	Theta *float64 `json:"theta,omitempty"`
	Vega  *float64 `json:"vega,omitempty"`
	Rho   *float64 `json:"rho,omitempty"`
}

// MeanIV averages implied volatility over candidates that carry one.
// Returns nil when no candidate has a usable IV.
func (o *OptionsReport) MeanIV() *float64 {
	var sum float64
	var n int
	for _, c := range o.Candidates {
		if c.IV != nil && *c.IV > 0 {
			sum += *c.IV
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// MeanOpenInterest averages open interest over all candidates
func (o *OptionsReport) MeanOpenInterest() float64 {
	if len(o.Candidates) == 0 {
		return 0
	}
	var sum float64
	for _, c := range o.Candidates {
		sum += float64(c.OpenInterest)
	}
	return sum / float64(len(o.Candidates))
}

// MeanSpreadPct averages the bid/ask spread percentage over candidates
// with a usable quote, deriving it from bid/ask when the analyzer has
// not filled it in. Returns nil when none have one.
func (o *OptionsReport) MeanSpreadPct() *float64 {
	var sum float64
	var n int
	for _, c := range o.Candidates {
		switch {
		case c.SpreadPct != nil:
			sum += *c.SpreadPct
			n++
		case c.Bid > 0 && c.Ask > 0:
			sum += (c.Ask - c.Bid) / c.Ask
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}
