package analysis

import (
	"sort"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// OptionsAnalyzer filters a raw chain down to tradeable LEAPS candidates
type OptionsAnalyzer struct {
	cfg    strategy.Options
	logger *logger.Logger
	now    func() time.Time
}

// NewOptionsAnalyzer creates a new options analyzer
func NewOptionsAnalyzer(cfg strategy.Options, log *logger.Logger) *OptionsAnalyzer {
	return &OptionsAnalyzer{
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// AnalyzeChain filters call contracts by liquidity, spread, expiry and
// delta band. Contracts without provider greeks get Black-Scholes
// values computed from their implied volatility; a contract with no
// usable delta is excluded rather than assumed in-band.
func (a *OptionsAnalyzer) AnalyzeChain(symbol string, currentPrice float64, chain []contracts.ChainOption) *contracts.OptionsReport {
	report := &contracts.OptionsReport{
		Symbol: symbol,
		Status: contracts.StatusOK,
	}

	if len(chain) == 0 {
		report.Status = contracts.StatusNoData
		return report
	}

	liquid := make([]contracts.ChainOption, 0, len(chain))
	for _, opt := range chain {
		if opt.OptionType != contracts.OptionCall {
			continue
		}
		if opt.OpenInterest < a.cfg.MinOpenInterest || opt.Volume < a.cfg.MinVolume {
			continue
		}
		mid := (opt.Bid + opt.Ask) / 2
		if mid <= 0 {
			continue
		}
		if (opt.Ask-opt.Bid)/mid > a.cfg.MaxSpreadPct {
			continue
		}
		liquid = append(liquid, opt)
	}

	if len(liquid) == 0 {
		a.logger.WithField("symbol", symbol).Info("No options passed liquidity/spread filters")
		report.Status = contracts.StatusNoLiquidity
		return report
	}

	now := a.now()
	for _, opt := range liquid {
		daysToExp := int(opt.Expiration.Sub(now).Hours() / 24)
		if daysToExp < a.cfg.MinDaysToExpiry {
			continue
		}

		greeks := opt.Greeks
		if greeks.Delta == nil && opt.IV != nil && *opt.IV > 0 {
			bs := BlackScholesCall(BlackScholesInput{
				Spot:         currentPrice,
				Strike:       opt.Strike,
				TimeToExpiry: float64(daysToExp) / 365,
				Volatility:   *opt.IV,
				RiskFreeRate: a.cfg.RiskFreeRate,
			})
			greeks = bs.Greeks()
		}
		if greeks.Delta == nil {
			continue
		}
		if *greeks.Delta < a.cfg.MinDelta || *greeks.Delta > a.cfg.MaxDelta {
			continue
		}

		mid := (opt.Bid + opt.Ask) / 2
		spreadPct := (opt.Ask - opt.Bid) / mid
		report.Candidates = append(report.Candidates, contracts.OptionCandidate{
			ContractSymbol: opt.ContractSymbol,
			Strike:         opt.Strike,
			Expiration:     opt.Expiration,
			DaysToExpiry:   daysToExp,
			Bid:            opt.Bid,
			Ask:            opt.Ask,
			Last:           opt.Last,
			Mid:            mid,
			SpreadPct:      &spreadPct,
			IV:             opt.IV,
			OpenInterest:   opt.OpenInterest,
			Volume:         opt.Volume,
			Greeks:         greeks,
		})
	}

	// Most liquid first
	sort.SliceStable(report.Candidates, func(i, j int) bool {
		return report.Candidates[i].OpenInterest > report.Candidates[j].OpenInterest
	})
	report.Count = len(report.Candidates)

	a.logger.WithFields(map[string]interface{}{
		"symbol":     symbol,
		"chain_size": len(chain),
		"candidates": report.Count,
	}).Debug("Options chain analyzed")

	return report
}
