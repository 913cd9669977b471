package contracts

import "time"

// Verdict is the entry decision for one symbol
type Verdict string

const (
	VerdictGo    Verdict = "GO"
	VerdictWatch Verdict = "WATCH"
	VerdictNoGo  Verdict = "NO_GO"
)

// Ordinal orders verdicts for comparison: NO_GO < WATCH < GO
func (v Verdict) Ordinal() int {
	switch v {
	case VerdictGo:
		return 2
	case VerdictWatch:
		return 1
	default:
		return 0
	}
}

// DimensionPasses records the outcome of each hard gate
type DimensionPasses struct {
	Technical   bool `json:"technical"`
	Fundamental bool `json:"fundamental"`
	Options     bool `json:"options"`
}

// Decision is the gate output for one symbol. Immutable once created.
// Reasons cover every rule evaluated, not only failures, so the verdict
// can be audited without re-running the gate.
type Decision struct {
	Symbol       string          `json:"symbol"`
	Verdict      Verdict         `json:"verdict"`
	Reasons      []string        `json:"reasons"`
	EarningsRisk bool            `json:"earnings_risk"`
	Passes       DimensionPasses `json:"passes"`
	AssetType    AssetType       `json:"asset_type"`
	EvaluatedAt  time.Time       `json:"evaluated_at"`
}

// Band buckets a conviction score
type Band string

const (
	BandStrong   Band = "STRONG"
	BandModerate Band = "MODERATE"
	BandWeak     Band = "WEAK"
)

// ConvictionComponents are the four sub-scores, each in [0, 100]
type ConvictionComponents struct {
	Technical   float64 `json:"technical"`
	Fundamental float64 `json:"fundamental"`
	Volatility  float64 `json:"volatility"`
	Liquidity   float64 `json:"liquidity"`
}

// ConvictionResult is the ranking score for one symbol. Derived purely
// from the reports; it never feeds back into the Decision.
type ConvictionResult struct {
	Symbol     string               `json:"symbol"`
	Score      float64              `json:"score"` // [0, 100], one decimal
	Band       Band                 `json:"band"`
	Components ConvictionComponents `json:"components"`
	Notes      []string             `json:"notes,omitempty"`
}
