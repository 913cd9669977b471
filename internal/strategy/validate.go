package strategy

import (
	"fmt"
	"math"
)

// ValidationError is a fatal configuration failure. The process does
// not start with a malformed strategy.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a legal but questionable setting
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Scan ===
	if len(cfg.Scan.Symbols) == 0 {
		return ValidationError{"scan.symbols", "must not be empty"}
	}
	if cfg.Scan.Period == "" {
		return ValidationError{"scan.period", "required"}
	}
	if cfg.Scan.Interval == "" {
		return ValidationError{"scan.interval", "required"}
	}

	// === Technical ===
	if cfg.Technical.SMAFast <= 1 {
		return ValidationError{"technical.sma_fast", "must be > 1"}
	}
	if cfg.Technical.SMAFast >= cfg.Technical.SMASlow {
		return ValidationError{"technical", "sma_fast must be < sma_slow"}
	}
	if cfg.Technical.RSIPeriod <= 1 {
		return ValidationError{"technical.rsi_period", "must be > 1"}
	}
	if cfg.Technical.HVWindow <= 1 {
		return ValidationError{"technical.hv_window", "must be > 1"}
	}

	// === Decision ===
	if cfg.Decision.MaxRSIEntry <= 0 || cfg.Decision.MaxRSIEntry > 100 {
		return ValidationError{"decision.max_rsi_entry", "must be in (0, 100]"}
	}
	if cfg.Decision.MinFundamentalsScore < 0 || cfg.Decision.MinFundamentalsScore > 100 {
		return ValidationError{"decision.min_fundamentals_score", "must be in [0, 100]"}
	}
	if cfg.Decision.MaxIVHVRatio <= 0 {
		return ValidationError{"decision.max_iv_hv_ratio", "must be > 0"}
	}
	if cfg.Decision.EarningsBlockDays < 0 {
		return ValidationError{"decision.earnings_block_days", "must be >= 0"}
	}

	// === Scoring ===
	w := cfg.Scoring.Weights
	for field, v := range map[string]float64{
		"scoring.weights.technical":   w.Technical,
		"scoring.weights.fundamental": w.Fundamental,
		"scoring.weights.volatility":  w.Volatility,
		"scoring.weights.liquidity":   w.Liquidity,
	} {
		if v < 0 || v > 1 {
			return ValidationError{field, "must be in [0, 1]"}
		}
	}
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		return ValidationError{"scoring.weights", fmt.Sprintf("must sum to 1.0, got %.4f", w.Sum())}
	}
	if cfg.Scoring.ETFFundamentalProxy < 0 || cfg.Scoring.ETFFundamentalProxy > 100 {
		return ValidationError{"scoring.etf_fundamental_proxy", "must be in [0, 100]"}
	}
	if cfg.Scoring.ModerateThreshold >= cfg.Scoring.StrongThreshold {
		return ValidationError{"scoring", "moderate_threshold must be < strong_threshold"}
	}

	// === Options ===
	if cfg.Options.MinDaysToExpiry <= 0 {
		return ValidationError{"options.min_days_to_expiry", "must be > 0"}
	}
	if cfg.Options.MinOpenInterest < 0 {
		return ValidationError{"options.min_open_interest", "must be >= 0"}
	}
	if cfg.Options.MaxSpreadPct <= 0 || cfg.Options.MaxSpreadPct > 1 {
		return ValidationError{"options.max_spread_pct", "must be in (0, 1]"}
	}
	if cfg.Options.MinDelta <= 0 || cfg.Options.MaxDelta > 1 || cfg.Options.MinDelta >= cfg.Options.MaxDelta {
		return ValidationError{"options", "delta band must satisfy 0 < min < max <= 1"}
	}
	if cfg.Options.RiskFreeRate < 0 || cfg.Options.RiskFreeRate > 0.25 {
		return ValidationError{"options.risk_free_rate", "must be in [0, 0.25]"}
	}

	// === Portfolio ===
	if cfg.Portfolio.TakeProfitPct <= 0 {
		return ValidationError{"portfolio.take_profit_pct", "must be > 0"}
	}
	if cfg.Portfolio.StopLossPct >= 0 {
		return ValidationError{"portfolio.stop_loss_pct", "must be < 0"}
	}
	if cfg.Portfolio.ExpiryReviewDays <= 0 {
		return ValidationError{"portfolio.expiry_review_days", "must be > 0"}
	}
	if cfg.Portfolio.RollGuidanceDays < cfg.Portfolio.ExpiryReviewDays {
		return ValidationError{"portfolio", "roll_guidance_days must be >= expiry_review_days"}
	}

	// === Tracking ===
	if len(cfg.Tracking.HorizonsDays) == 0 {
		return ValidationError{"tracking.horizons_days", "must not be empty"}
	}
	prev := 0
	for i, h := range cfg.Tracking.HorizonsDays {
		if h <= prev {
			return ValidationError{
				Field:   fmt.Sprintf("tracking.horizons_days[%d]", i),
				Message: "must be positive and strictly increasing",
			}
		}
		prev = h
	}
	if cfg.Tracking.MinSampleSize < 1 {
		return ValidationError{"tracking.min_sample_size", "must be >= 1"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Options.MinOpenInterest < 50 {
		warnings = append(warnings, Warning{
			Code:    "LOW_OI_FLOOR",
			Message: "open interest floor below 50 admits thin contracts with wide exits",
		})
	}

	if cfg.Decision.MaxIVHVRatio > 2.0 {
		warnings = append(warnings, Warning{
			Code:    "RICH_IV_CEILING",
			Message: "IV/HV ceiling above 2.0 accepts heavily overpriced premium",
		})
	}

	if cfg.Portfolio.StopLossPct < -50 {
		warnings = append(warnings, Warning{
			Code:    "DEEP_STOP",
			Message: "stop loss below -50% defers exits past typical LEAPS drawdowns",
		})
	}

	return warnings
}
