package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// =============================================================================
// Conviction ranking. Purely additive, never gating: a symbol's verdict
// has no input here, and missing data lowers a component instead of
// failing the score outright.
// =============================================================================

// Scorer blends four component scores into a 0-100 conviction rank
type Scorer struct {
	cfg    strategy.Scoring
	logger *logger.Logger
}

// NewScorer creates a new conviction scorer
func NewScorer(cfg strategy.Scoring, log *logger.Logger) *Scorer {
	return &Scorer{
		cfg:    cfg,
		logger: log,
	}
}

// Input carries the reports a single conviction score derives from
type Input struct {
	Symbol      string
	AssetType   contracts.AssetType
	Technical   *contracts.TechnicalReport
	Fundamental *contracts.FundamentalReport
	Options     *contracts.OptionsReport
}

// Score ranks one symbol from its reports
func (s *Scorer) Score(in Input) *contracts.ConvictionResult {
	var notes []string

	components := contracts.ConvictionComponents{
		Technical:   s.scoreTechnical(in.Technical, &notes),
		Fundamental: s.scoreFundamental(in.Fundamental, in.AssetType, &notes),
		Volatility:  s.scoreVolatility(in.Technical, in.Options, &notes),
		Liquidity:   s.scoreLiquidity(in.Options, &notes),
	}

	w := s.cfg.Weights
	total := components.Technical*w.Technical +
		components.Fundamental*w.Fundamental +
		components.Volatility*w.Volatility +
		components.Liquidity*w.Liquidity

	score := math.Round(total*10) / 10

	return &contracts.ConvictionResult{
		Symbol:     in.Symbol,
		Score:      score,
		Band:       s.band(score),
		Components: components,
		Notes:      notes,
	}
}

// ScoreBatch ranks many symbols and returns them sorted by score
// descending. The ordering affects ranking display only.
func (s *Scorer) ScoreBatch(inputs []Input) []*contracts.ConvictionResult {
	results := make([]*contracts.ConvictionResult, 0, len(inputs))
	for _, in := range inputs {
		results = append(results, s.Score(in))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func (s *Scorer) scoreTechnical(ta *contracts.TechnicalReport, notes *[]string) float64 {
	if ta == nil || ta.Status == contracts.StatusNoData {
		*notes = append(*notes, "Technical data unavailable")
		return 30
	}

	score := 50.0

	switch ta.Trend {
	case contracts.TrendBullish:
		score += 30
	case contracts.TrendBearish:
		score -= 30
	case contracts.TrendNeutral:
		// no adjustment
	default:
		score -= 20
		*notes = append(*notes, "Trend unknown, technical score reduced")
	}

	if rsi := ta.Indicators.RSI; rsi != nil {
		switch {
		case *rsi >= 40 && *rsi <= 60:
			score += 15 // neutral zone, good entry
		case (*rsi >= 30 && *rsi < 40) || (*rsi > 60 && *rsi <= 70):
			score += 10
		case *rsi < 30:
			score += 5 // oversold, possible opportunity
		case *rsi > 70:
			score -= 10 // overbought, risky entry
		}
	}

	if ta.Signals.GoldenCross {
		score += 10
		*notes = append(*notes, "Golden cross detected")
	}
	if ta.Signals.DeathCross {
		score -= 15
		*notes = append(*notes, "Death cross detected")
	}

	return clamp(score)
}

func (s *Scorer) scoreFundamental(fund *contracts.FundamentalReport, assetType contracts.AssetType, notes *[]string) float64 {
	if assetType == contracts.AssetETF {
		*notes = append(*notes, fmt.Sprintf("ETF: using proxy fundamental score (%.0f)", s.cfg.ETFFundamentalProxy))
		return s.cfg.ETFFundamentalProxy
	}

	if fund == nil {
		*notes = append(*notes, "Fundamental data unavailable")
		return 30
	}

	// Low confidence can never rank as strongly as verified data at the
	// same raw score
	multiplier := 1.0
	switch fund.Confidence {
	case contracts.ConfidenceMedium:
		multiplier = 0.9
		*notes = append(*notes, "Medium confidence fundamentals")
	case contracts.ConfidenceLow:
		multiplier = 0.7
		*notes = append(*notes, "Low confidence fundamentals, score reduced")
	}

	return math.Min(100, fund.OverallScore*multiplier)
}

func (s *Scorer) scoreVolatility(ta *contracts.TechnicalReport, opt *contracts.OptionsReport, notes *[]string) float64 {
	if opt == nil || len(opt.Candidates) == 0 {
		*notes = append(*notes, "No options candidates, volatility score neutral")
		return 50
	}

	meanIV := opt.MeanIV()
	if meanIV == nil {
		*notes = append(*notes, "IV data unavailable")
		return 40
	}

	var hv *float64
	if ta != nil {
		hv = ta.Indicators.HV
	}
	if hv == nil || *hv <= 0 {
		*notes = append(*notes, "HV unavailable, using IV heuristic")
		switch {
		case *meanIV < 0.20:
			return 75
		case *meanIV < 0.35:
			return 60
		default:
			return 45
		}
	}

	ratio := *meanIV / *hv
	switch {
	case ratio <= 0.9:
		*notes = append(*notes, fmt.Sprintf("IV/HV ratio excellent (%.2f)", ratio))
		return 90
	case ratio <= 1.1:
		return 80
	case ratio <= 1.3:
		return 65
	case ratio <= 1.5:
		return 50
	default:
		*notes = append(*notes, fmt.Sprintf("IV/HV ratio high (%.2f), expensive premium", ratio))
		return 30
	}
}

func (s *Scorer) scoreLiquidity(opt *contracts.OptionsReport, notes *[]string) float64 {
	if opt == nil || len(opt.Candidates) == 0 {
		*notes = append(*notes, "No options candidates for liquidity scoring")
		return 30
	}

	avgOI := opt.MeanOpenInterest()
	var oiScore float64
	switch {
	case avgOI >= 5000:
		oiScore = 100
	case avgOI >= 1000:
		oiScore = 85
	case avgOI >= 500:
		oiScore = 70
	case avgOI >= 100:
		oiScore = 55
	case avgOI >= 50:
		oiScore = 40
	default:
		oiScore = 25
		*notes = append(*notes, "Low open interest, liquidity concern")
	}

	spreadScore := 50.0
	if sp := opt.MeanSpreadPct(); sp != nil {
		switch {
		case *sp <= 0.03:
			spreadScore = 100
		case *sp <= 0.05:
			spreadScore = 85
		case *sp <= 0.10:
			spreadScore = 65
		case *sp <= 0.15:
			spreadScore = 45
		default:
			spreadScore = 25
		}
	}

	return oiScore*0.6 + spreadScore*0.4
}

func (s *Scorer) band(score float64) contracts.Band {
	switch {
	case score >= s.cfg.StrongThreshold:
		return contracts.BandStrong
	case score >= s.cfg.ModerateThreshold:
		return contracts.BandModerate
	default:
		return contracts.BandWeak
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
