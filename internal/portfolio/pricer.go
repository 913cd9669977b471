package portfolio

import (
	"context"
	"math"
	"time"

	"github.com/wonny/leapscope/internal/analysis"
	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// MarketData is the provider surface the portfolio layer needs; the
// provider router satisfies it
type MarketData interface {
	FetchLivePrice(ctx context.Context, symbol string) *contracts.LivePrice
	FetchOptionQuote(ctx context.Context, occSymbol string) *contracts.OptionQuote
	FetchOptionsChain(ctx context.Context, symbol string, minDays int) []contracts.ChainOption
	FetchOHLCV(ctx context.Context, symbol, period, interval string) []contracts.Candle
	FetchEarningsDate(ctx context.Context, symbol string) *time.Time
}

// =============================================================================
// Mark-to-market pricing. Source priority: live option quote, then a
// chain lookup for the exact contract, then a Black-Scholes theoretical
// mark with historical volatility standing in for IV. Each snapshot
// carries its source and a confidence grade so a theoretical mark is
// never mistaken for a traded price.
// =============================================================================

// Pricer refreshes position pricing snapshots
type Pricer struct {
	data   MarketData
	ta     *analysis.TechnicalAnalyzer
	cfg    strategy.Portfolio
	logger *logger.Logger
	now    func() time.Time
}

// NewPricer creates a new position pricer
func NewPricer(data MarketData, ta *analysis.TechnicalAnalyzer, cfg strategy.Portfolio, log *logger.Logger) *Pricer {
	return &Pricer{
		data:   data,
		ta:     ta,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Refresh replaces the position's pricing snapshot with a current one.
// The snapshot is ephemeral; failures leave an explicitly low-confidence
// snapshot rather than stale numbers.
func (p *Pricer) Refresh(ctx context.Context, pos *contracts.Position) {
	snap := contracts.PricingSnapshot{RefreshedAt: p.now()}

	live := p.data.FetchLivePrice(ctx, pos.Symbol)
	if live == nil || live.Price <= 0 {
		snap.Confidence = contracts.ConfidenceLow
		p.logger.WithField("symbol", pos.Symbol).Warn("No underlying price, position left unpriced")
		pos.Snapshot = snap
		return
	}
	snap.UnderlyingPrice = &live.Price
	snap.UnderlyingSource = live.Source

	if p.priceFromLiveQuote(ctx, pos, &snap) ||
		p.priceFromChain(ctx, pos, live.Price, &snap) ||
		p.priceTheoretical(ctx, pos, live.Price, &snap) {
		pos.Snapshot = snap
		return
	}

	snap.Confidence = contracts.ConfidenceLow
	p.logger.WithFields(map[string]interface{}{
		"symbol":   pos.Symbol,
		"contract": pos.ContractSymbol(),
	}).Warn("No option mark from any source")
	pos.Snapshot = snap
}

// RefreshAll refreshes every position in place
func (p *Pricer) RefreshAll(ctx context.Context, positions []contracts.Position) {
	for i := range positions {
		p.Refresh(ctx, &positions[i])
	}
}

func (p *Pricer) priceFromLiveQuote(ctx context.Context, pos *contracts.Position, snap *contracts.PricingSnapshot) bool {
	quote := p.data.FetchOptionQuote(ctx, pos.ContractSymbol())
	if quote == nil {
		return false
	}
	if selectMark(quote.Bid, quote.Ask, quote.Last) == nil {
		return false
	}

	snap.OptionBid = quote.Bid
	snap.OptionAsk = quote.Ask
	snap.OptionLast = quote.Last
	snap.Mark = selectMark(quote.Bid, quote.Ask, quote.Last)
	snap.IV = quote.IV
	snap.Greeks = quote.Greeks
	snap.PricingSource = contracts.PricingSourceLiveQuote
	if quote.IV != nil {
		snap.Confidence = contracts.ConfidenceHigh
	} else {
		snap.Confidence = contracts.ConfidenceMedium
	}
	return true
}

func (p *Pricer) priceFromChain(ctx context.Context, pos *contracts.Position, underlying float64, snap *contracts.PricingSnapshot) bool {
	chain := p.data.FetchOptionsChain(ctx, pos.Symbol, 0)
	if len(chain) == 0 {
		return false
	}

	match := findContract(chain, pos)
	if match == nil {
		p.logger.WithFields(map[string]interface{}{
			"symbol":     pos.Symbol,
			"strike":     pos.Strike,
			"expiration": pos.Expiration.Format("2006-01-02"),
		}).Warn("Contract not found in chain")
		return false
	}
	if selectMark(positivePtr(match.Bid), positivePtr(match.Ask), positivePtr(match.Last)) == nil {
		return false
	}

	snap.OptionBid = positivePtr(match.Bid)
	snap.OptionAsk = positivePtr(match.Ask)
	snap.OptionLast = positivePtr(match.Last)
	snap.Mark = selectMark(snap.OptionBid, snap.OptionAsk, snap.OptionLast)
	snap.IV = match.IV
	snap.Greeks = match.Greeks
	snap.PricingSource = contracts.PricingSourceChain
	snap.Confidence = contracts.ConfidenceMedium

	// Derive greeks from the chain IV when the source had none
	if snap.Greeks.Delta == nil && match.IV != nil && *match.IV > 0 {
		dte := pos.DaysToExpiry(p.now())
		if dte > 0 {
			result := analysis.BlackScholesCall(analysis.BlackScholesInput{
				Spot:         underlying,
				Strike:       pos.Strike,
				TimeToExpiry: float64(dte) / 365.0,
				Volatility:   *match.IV,
				RiskFreeRate: p.cfg.RiskFreeRate,
			})
			snap.Greeks = result.Greeks()
			adjustPutDelta(pos.OptionType, &snap.Greeks)
		}
	}
	return true
}

// priceTheoretical marks the position at the Black-Scholes value with
// historical volatility as the vol input. A model price, flagged as such.
func (p *Pricer) priceTheoretical(ctx context.Context, pos *contracts.Position, underlying float64, snap *contracts.PricingSnapshot) bool {
	hv := p.historicalVolatility(ctx, pos.Symbol)
	if hv == nil {
		return false
	}

	timeToExpiry := float64(pos.DaysToExpiry(p.now())) / 365.0
	if timeToExpiry <= 0 {
		timeToExpiry = 0.01
	}

	result := analysis.BlackScholesCall(analysis.BlackScholesInput{
		Spot:         underlying,
		Strike:       pos.Strike,
		TimeToExpiry: timeToExpiry,
		Volatility:   *hv,
		RiskFreeRate: p.cfg.RiskFreeRate,
	})
	if result.Price <= 0 {
		return false
	}

	mark := math.Round(result.Price*100) / 100
	snap.Mark = &mark
	snap.IV = hv
	snap.Greeks = result.Greeks()
	adjustPutDelta(pos.OptionType, &snap.Greeks)
	snap.PricingSource = contracts.PricingSourceTheoretical
	snap.Confidence = contracts.ConfidenceMedium

	p.logger.WithFields(map[string]interface{}{
		"symbol": pos.Symbol,
		"mark":   mark,
		"hv":     *hv,
	}).Debug("Theoretical mark from historical volatility")
	return true
}

func (p *Pricer) historicalVolatility(ctx context.Context, symbol string) *float64 {
	candles := p.data.FetchOHLCV(ctx, symbol, "6mo", "1d")
	if len(candles) == 0 {
		return nil
	}
	report := p.ta.Analyze(symbol, candles)
	return report.Indicators.HV
}

// selectMark picks the valuation price: mid when both sides quote,
// then last, then whichever side exists
func selectMark(bid, ask, last *float64) *float64 {
	if bid != nil && ask != nil && *bid > 0 && *ask > 0 {
		mid := (*bid + *ask) / 2
		return &mid
	}
	if last != nil && *last > 0 {
		return last
	}
	if bid != nil && *bid > 0 {
		return bid
	}
	if ask != nil && *ask > 0 {
		return ask
	}
	return nil
}

// findContract locates the position's exact contract in a chain
func findContract(chain []contracts.ChainOption, pos *contracts.Position) *contracts.ChainOption {
	expiry := pos.Expiration.Format("2006-01-02")

	for i := range chain {
		c := &chain[i]
		if c.OptionType != pos.OptionType {
			continue
		}
		if c.Expiration.Format("2006-01-02") != expiry {
			continue
		}
		if math.Abs(c.Strike-pos.Strike) > 0.01 {
			continue
		}
		return c
	}
	return nil
}

func positivePtr(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

// adjustPutDelta converts a Black-Scholes call delta for put positions
func adjustPutDelta(optionType contracts.OptionType, greeks *contracts.Greeks) {
	if optionType != contracts.OptionPut || greeks.Delta == nil {
		return
	}
	d := *greeks.Delta - 1
	greeks.Delta = &d
}
