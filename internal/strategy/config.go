package strategy

// Config holds the full scan strategy: thresholds the DecisionGate
// enforces, weights the ConvictionScorer blends, options chain filters,
// and position management rules. Loaded once at startup and passed
// explicitly into each component.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Scan      Scan      `yaml:"scan" json:"scan"`
	Technical Technical `yaml:"technical" json:"technical"`
	Decision  Decision  `yaml:"decision" json:"decision"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Options   Options   `yaml:"options" json:"options"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Tracking  Tracking  `yaml:"tracking" json:"tracking"`
}

// Meta identifies the strategy revision
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Scan lists the universe and history window
type Scan struct {
	Symbols   []string `yaml:"symbols" json:"symbols"`
	Period    string   `yaml:"period" json:"period"`     // e.g. "2y"
	Interval  string   `yaml:"interval" json:"interval"` // e.g. "1d"
	KnownETFs []string `yaml:"known_etfs" json:"known_etfs"`
}

// Technical sets the indicator windows
type Technical struct {
	SMAFast   int `yaml:"sma_fast" json:"sma_fast"`
	SMASlow   int `yaml:"sma_slow" json:"sma_slow"`
	RSIPeriod int `yaml:"rsi_period" json:"rsi_period"`
	HVWindow  int `yaml:"hv_window" json:"hv_window"`
}

// Decision holds the entry gate thresholds
type Decision struct {
	RequireBullishTrend   bool    `yaml:"require_bullish_trend" json:"require_bullish_trend"`
	MaxRSIEntry           float64 `yaml:"max_rsi_entry" json:"max_rsi_entry"`
	MinFundamentalsScore  float64 `yaml:"min_fundamentals_score" json:"min_fundamentals_score"`
	MaxIVHVRatio          float64 `yaml:"max_iv_hv_ratio" json:"max_iv_hv_ratio"`
	EarningsBlockDays     int     `yaml:"earnings_block_days" json:"earnings_block_days"`
	ETFBypassFundamentals bool    `yaml:"etf_bypass_fundamentals" json:"etf_bypass_fundamentals"`
}

// Scoring holds the conviction weights and bands
type Scoring struct {
	Weights             Weights `yaml:"weights" json:"weights"`
	ETFFundamentalProxy float64 `yaml:"etf_fundamental_proxy" json:"etf_fundamental_proxy"`
	StrongThreshold     float64 `yaml:"strong_threshold" json:"strong_threshold"`
	ModerateThreshold   float64 `yaml:"moderate_threshold" json:"moderate_threshold"`
}

// Weights are the conviction component weights, must sum to 1.0
type Weights struct {
	Technical   float64 `yaml:"technical" json:"technical"`
	Fundamental float64 `yaml:"fundamental" json:"fundamental"`
	Volatility  float64 `yaml:"volatility" json:"volatility"`
	Liquidity   float64 `yaml:"liquidity" json:"liquidity"`
}

// Sum returns the sum of all weights
func (w Weights) Sum() float64 {
	return w.Technical + w.Fundamental + w.Volatility + w.Liquidity
}

// Options holds the LEAPS candidate filters
type Options struct {
	MinDaysToExpiry int     `yaml:"min_days_to_expiry" json:"min_days_to_expiry"`
	MinOpenInterest int     `yaml:"min_open_interest" json:"min_open_interest"`
	MinVolume       int     `yaml:"min_volume" json:"min_volume"`
	MaxSpreadPct    float64 `yaml:"max_spread_pct" json:"max_spread_pct"`
	MinDelta        float64 `yaml:"min_delta" json:"min_delta"`
	MaxDelta        float64 `yaml:"max_delta" json:"max_delta"`
	RiskFreeRate    float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// Portfolio holds the position management rules
type Portfolio struct {
	TakeProfitPct    float64 `yaml:"take_profit_pct" json:"take_profit_pct"` // positive, e.g. 50
	StopLossPct      float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`     // negative, e.g. -30
	ExpiryReviewDays int     `yaml:"expiry_review_days" json:"expiry_review_days"`
	RollGuidanceDays int     `yaml:"roll_guidance_days" json:"roll_guidance_days"`
	RiskFreeRate     float64 `yaml:"risk_free_rate" json:"risk_free_rate"` // theoretical pricing fallback
}

// Tracking holds the signal outcome tracking parameters
type Tracking struct {
	HorizonsDays []int `yaml:"horizons_days" json:"horizons_days"`
	// Minimum outcomes before stats are more than preliminary.
	// A placeholder cutoff, not a derived confidence bound.
	MinSampleSize int `yaml:"min_sample_size" json:"min_sample_size"`
}

// Default returns the stock configuration used when no strategy file
// is supplied. Values match the documented operating defaults.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "leaps-default",
			Version:    "1",
			Timezone:   "America/New_York",
		},
		Scan: Scan{
			Symbols:  []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"},
			Period:   "2y",
			Interval: "1d",
			KnownETFs: []string{
				"SPY", "QQQ", "IWM", "DIA", "GLD", "SLV", "TLT", "IEF",
				"VTI", "VOO", "VEA", "VWO", "BND", "LQD", "HYG", "XLF",
				"XLE", "XLK", "XLV", "XLI", "XLP", "XLY", "XLU", "XLB",
				"ARKK", "ARKG", "ARKW", "ARKF", "EEM", "EFA", "AGG",
				"USO", "UNG", "UVXY", "SQQQ", "TQQQ", "SPXU", "SPXL",
			},
		},
		Technical: Technical{
			SMAFast:   50,
			SMASlow:   200,
			RSIPeriod: 14,
			HVWindow:  20,
		},
		Decision: Decision{
			RequireBullishTrend:   true,
			MaxRSIEntry:           70,
			MinFundamentalsScore:  60,
			MaxIVHVRatio:          1.5,
			EarningsBlockDays:     14,
			ETFBypassFundamentals: true,
		},
		Scoring: Scoring{
			Weights: Weights{
				Technical:   0.30,
				Fundamental: 0.25,
				Volatility:  0.25,
				Liquidity:   0.20,
			},
			ETFFundamentalProxy: 70,
			StrongThreshold:     75,
			ModerateThreshold:   50,
		},
		Options: Options{
			MinDaysToExpiry: 300,
			MinOpenInterest: 50,
			MinVolume:       5,
			MaxSpreadPct:    0.10,
			MinDelta:        0.65,
			MaxDelta:        0.85,
			RiskFreeRate:    0.045,
		},
		Portfolio: Portfolio{
			TakeProfitPct:    50,
			StopLossPct:      -30,
			ExpiryReviewDays: 120,
			RollGuidanceDays: 270,
			RiskFreeRate:     0.04,
		},
		Tracking: Tracking{
			HorizonsDays:  []int{30, 60, 90},
			MinSampleSize: 30,
		},
	}
}
