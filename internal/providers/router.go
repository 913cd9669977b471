package providers

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/pkg/logger"
	"github.com/wonny/leapscope/pkg/redis"
)

// =============================================================================
// Router composes providers per operation with priority fallthrough.
// A provider error or empty answer moves to the next source; callers
// only ever see the canonical empty value, never a provider failure.
// =============================================================================

const (
	attemptTimeout = 30 * time.Second

	// How long an availability probe result is trusted before re-probing
	availabilityTTL = time.Minute
)

// Router fans each fetch out across its capability list in priority order
type Router struct {
	ohlcv        []OHLCVProvider
	fundamentals []FundamentalsProvider
	chains       []OptionsChainProvider
	earnings     []EarningsProvider
	assetTypes   []AssetTypeProvider
	quotes       []QuoteProvider
	optionQuotes []OptionQuoteProvider

	knownETFs map[string]struct{}
	cache     *redis.Cache // nil disables caching
	logger    *logger.Logger

	availMu sync.Mutex
	avail   map[string]availability
}

// availability memoizes one provider's last health probe
type availability struct {
	ok      bool
	checked time.Time
}

// RouterOption configures optional router behavior
type RouterOption func(*Router)

// WithCache fronts fetches with a shared cache
func WithCache(cache *redis.Cache) RouterOption {
	return func(r *Router) { r.cache = cache }
}

// WithKnownETFs short-circuits asset type checks for listed symbols
func WithKnownETFs(symbols []string) RouterOption {
	return func(r *Router) {
		for _, s := range symbols {
			r.knownETFs[strings.ToUpper(s)] = struct{}{}
		}
	}
}

// NewRouter builds a router from per-operation priority lists.
// History and fundamentals prefer Yahoo; options prefer Tradier.
func NewRouter(log *logger.Logger, opts ...RouterOption) *Router {
	r := &Router{
		knownETFs: make(map[string]struct{}),
		avail:     make(map[string]availability),
		logger:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterOHLCV appends a price history source, highest priority first
func (r *Router) RegisterOHLCV(p ...OHLCVProvider) { r.ohlcv = append(r.ohlcv, p...) }

// RegisterFundamentals appends a fundamentals source
func (r *Router) RegisterFundamentals(p ...FundamentalsProvider) {
	r.fundamentals = append(r.fundamentals, p...)
}

// RegisterOptionsChain appends an options chain source
func (r *Router) RegisterOptionsChain(p ...OptionsChainProvider) { r.chains = append(r.chains, p...) }

// RegisterEarnings appends an earnings calendar source
func (r *Router) RegisterEarnings(p ...EarningsProvider) { r.earnings = append(r.earnings, p...) }

// RegisterAssetType appends an asset classification source
func (r *Router) RegisterAssetType(p ...AssetTypeProvider) { r.assetTypes = append(r.assetTypes, p...) }

// RegisterQuote appends a live price source
func (r *Router) RegisterQuote(p ...QuoteProvider) { r.quotes = append(r.quotes, p...) }

// RegisterOptionQuote appends a live option quote source
func (r *Router) RegisterOptionQuote(p ...OptionQuoteProvider) {
	r.optionQuotes = append(r.optionQuotes, p...)
}

// FetchOHLCV returns daily bars from the first source that has them,
// or nil when every source failed or came back empty.
func (r *Router) FetchOHLCV(ctx context.Context, symbol, period, interval string) []contracts.Candle {
	key := redis.OHLCVKey(symbol, period, interval)
	var cached []contracts.Candle
	if r.cacheGet(ctx, key, &cached) {
		return cached
	}

	for _, p := range r.ohlcv {
		if !r.available(ctx, p) {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		candles, err := p.FetchOHLCV(attemptCtx, symbol, period, interval)
		cancel()
		if err != nil || len(candles) == 0 {
			r.logAttemptFailure("ohlcv", p.Name(), symbol, err)
			continue
		}

		r.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"provider": p.Name(),
			"bars":     len(candles),
		}).Debug("OHLCV fetched")
		r.cacheSet(ctx, key, candles, redis.TTLDaily)
		return candles
	}

	r.logger.WithField("symbol", symbol).Error("All providers failed to fetch OHLCV")
	return nil
}

// FetchFundamentals returns raw metrics, or nil when no source had any
func (r *Router) FetchFundamentals(ctx context.Context, symbol string) *contracts.Fundamentals {
	key := redis.FundamentalsKey(symbol)
	var cached contracts.Fundamentals
	if r.cacheGet(ctx, key, &cached) {
		return &cached
	}

	for _, p := range r.fundamentals {
		if !r.available(ctx, p) {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		f, err := p.FetchFundamentals(attemptCtx, symbol)
		cancel()
		if err != nil || f.Empty() {
			r.logAttemptFailure("fundamentals", p.Name(), symbol, err)
			continue
		}

		r.cacheSet(ctx, key, f, redis.TTLLong)
		return f
	}

	r.logger.WithField("symbol", symbol).Warn("All providers failed to fetch fundamentals")
	return nil
}

// FetchOptionsChain returns raw LEAPS contracts, or nil when unavailable
func (r *Router) FetchOptionsChain(ctx context.Context, symbol string, minDays int) []contracts.ChainOption {
	key := redis.ChainKey(symbol, minDays)
	var cached []contracts.ChainOption
	if r.cacheGet(ctx, key, &cached) {
		return cached
	}

	for _, p := range r.chains {
		if !r.available(ctx, p) {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		chain, err := p.FetchOptionsChain(attemptCtx, symbol, minDays)
		cancel()
		if err != nil || len(chain) == 0 {
			r.logAttemptFailure("options", p.Name(), symbol, err)
			continue
		}

		r.logger.WithFields(map[string]interface{}{
			"symbol":    symbol,
			"provider":  p.Name(),
			"contracts": len(chain),
		}).Info("Options chain fetched")
		r.cacheSet(ctx, key, chain, redis.TTLMedium)
		return chain
	}

	r.logger.WithField("symbol", symbol).Warn("All providers failed to fetch options chain")
	return nil
}

// FetchEarningsDate returns the next earnings date, or nil when none is
// known. ETFs normally have none, so absence is not an error.
func (r *Router) FetchEarningsDate(ctx context.Context, symbol string) *time.Time {
	key := redis.EarningsKey(symbol)
	var cached time.Time
	if r.cacheGet(ctx, key, &cached) && !cached.IsZero() {
		return &cached
	}

	for _, p := range r.earnings {
		if !r.available(ctx, p) {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		date, err := p.FetchEarningsDate(attemptCtx, symbol)
		cancel()
		if err != nil || date == nil {
			r.logAttemptFailure("earnings", p.Name(), symbol, err)
			continue
		}

		r.cacheSet(ctx, key, *date, redis.TTLLong)
		return date
	}

	r.logger.WithField("symbol", symbol).Info("No earnings date found")
	return nil
}

// FetchAssetType classifies a symbol, consulting the known ETF list
// before any provider
func (r *Router) FetchAssetType(ctx context.Context, symbol string) contracts.AssetType {
	if _, ok := r.knownETFs[strings.ToUpper(symbol)]; ok {
		return contracts.AssetETF
	}

	for _, p := range r.assetTypes {
		if !r.available(ctx, p) {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		t := p.FetchAssetType(attemptCtx, symbol)
		cancel()
		if t != contracts.AssetUnknown {
			return t
		}
	}
	return contracts.AssetUnknown
}

// FetchLivePrice merges live sources in priority order and returns the
// highest-priority hit with its provenance. Divergent answers from
// lower-priority sources are logged for comparison, not blended.
func (r *Router) FetchLivePrice(ctx context.Context, symbol string) *contracts.LivePrice {
	var found []contracts.LivePrice

	for _, p := range r.quotes {
		if !r.available(ctx, p) {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		price, err := p.FetchUnderlyingPrice(attemptCtx, symbol)
		cancel()
		if err != nil || price <= 0 {
			r.logAttemptFailure("quote", p.Name(), symbol, err)
			continue
		}
		found = append(found, contracts.LivePrice{Price: price, Source: p.Name() + "_quote"})
	}

	// Last resort: most recent daily close
	if len(found) == 0 {
		if candles := r.FetchOHLCV(ctx, symbol, "5d", "1d"); len(candles) > 0 {
			found = append(found, contracts.LivePrice{
				Price:  candles[len(candles)-1].Close,
				Source: "ohlcv_close",
			})
		}
	}

	if len(found) == 0 {
		r.logger.WithField("symbol", symbol).Error("No live price available")
		return nil
	}

	best := found[0]
	for _, alt := range found[1:] {
		if diff := math.Abs(alt.Price-best.Price) / best.Price; diff > 0.01 {
			r.logger.WithFields(map[string]interface{}{
				"symbol":         symbol,
				"primary":        best.Source,
				"primary_price":  best.Price,
				"secondary":      alt.Source,
				"secondary_price": alt.Price,
			}).Warn("Live price sources diverge")
		}
	}

	r.cacheSet(ctx, redis.QuoteKey(symbol), best, redis.TTLShort)
	return &best
}

// FetchOptionQuote returns a live option quote, or nil when no live
// source can serve the contract
func (r *Router) FetchOptionQuote(ctx context.Context, occSymbol string) *contracts.OptionQuote {
	for _, p := range r.optionQuotes {
		if !r.available(ctx, p) {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		quote, err := p.FetchOptionQuote(attemptCtx, occSymbol)
		cancel()
		if err != nil || quote == nil {
			r.logAttemptFailure("option_quote", p.Name(), occSymbol, err)
			continue
		}
		return quote
	}

	r.logger.WithField("contract", occSymbol).Warn("No live option quote available")
	return nil
}

// available reports whether a provider can currently serve requests.
// Probe results are memoized so a fetch loop does not re-probe the same
// source on every symbol.
func (r *Router) available(ctx context.Context, p Provider) bool {
	r.availMu.Lock()
	if a, ok := r.avail[p.Name()]; ok && time.Since(a.checked) < availabilityTTL {
		r.availMu.Unlock()
		return a.ok
	}
	r.availMu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	ok := p.Available(probeCtx)
	cancel()

	r.availMu.Lock()
	r.avail[p.Name()] = availability{ok: ok, checked: time.Now()}
	r.availMu.Unlock()

	if !ok {
		r.logger.WithField("provider", p.Name()).Warn("Provider unavailable, skipping")
	}
	return ok
}

func (r *Router) logAttemptFailure(op, provider, symbol string, err error) {
	entry := r.logger.WithFields(map[string]interface{}{
		"op":       op,
		"provider": provider,
		"symbol":   symbol,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("Provider attempt failed, trying next")
}

func (r *Router) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.cache == nil {
		return false
	}
	hit, err := r.cache.Get(ctx, key, dest)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Debug("Cache read failed")
		return false
	}
	return hit
}

func (r *Router) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, value, ttl); err != nil {
		r.logger.WithError(err).WithField("key", key).Debug("Cache write failed")
	}
}
