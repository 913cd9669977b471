package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/leapscope/internal/analysis"
	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/decision"
	"github.com/wonny/leapscope/internal/history"
	"github.com/wonny/leapscope/internal/scoring"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// ============================================================================
// Scanner - per-symbol evaluation pipeline and scan assembly
// ============================================================================

// MarketData is the provider surface the scanner consumes. The provider
// router satisfies it.
type MarketData interface {
	FetchOHLCV(ctx context.Context, symbol, period, interval string) []contracts.Candle
	FetchFundamentals(ctx context.Context, symbol string) *contracts.Fundamentals
	FetchOptionsChain(ctx context.Context, symbol string, minDays int) []contracts.ChainOption
	FetchEarningsDate(ctx context.Context, symbol string) *time.Time
	FetchAssetType(ctx context.Context, symbol string) contracts.AssetType
	FetchLivePrice(ctx context.Context, symbol string) *contracts.LivePrice
}

// ScanStore persists finished scans and serves the previous one for diffing
type ScanStore interface {
	SaveScan(ctx context.Context, rec *contracts.ScanRecord) error
	LatestScan(ctx context.Context) (*contracts.ScanRecord, error)
}

// SignalTracker records GO/WATCH results for outcome validation
type SignalTracker interface {
	TrackScan(ctx context.Context, rec *contracts.ScanRecord) int
}

// Alerter raises alerts from a scan diff
type Alerter interface {
	FromComparison(ctx context.Context, cmp *contracts.ScanComparison, current *contracts.ScanRecord) []contracts.Alert
}

// Scanner runs the full evaluation pipeline: indicators, fundamentals,
// options chain, decision gate, conviction scoring. History persistence,
// signal tracking and alerting are optional attachments.
type Scanner struct {
	cfg    *strategy.Config
	data   MarketData
	logger *logger.Logger

	technical    *analysis.TechnicalAnalyzer
	fundamentals *analysis.FundamentalsAnalyzer
	options      *analysis.OptionsAnalyzer
	gate         *decision.Gate
	scorer       *scoring.Scorer

	store   ScanStore
	tracker SignalTracker
	alerter Alerter

	concurrency int
	now         func() time.Time
}

// Option configures optional scanner attachments
type Option func(*Scanner)

// WithHistory persists every finished scan and enables diffing
func WithHistory(store ScanStore) Option {
	return func(s *Scanner) { s.store = store }
}

// WithTracker records GO/WATCH signals for outcome validation
func WithTracker(t SignalTracker) Option {
	return func(s *Scanner) { s.tracker = t }
}

// WithAlerter raises alerts for new GO signals and verdict upgrades
func WithAlerter(a Alerter) Option {
	return func(s *Scanner) { s.alerter = a }
}

// WithConcurrency evaluates symbols with a worker pool of the given size
func WithConcurrency(n int) Option {
	return func(s *Scanner) { s.concurrency = n }
}

// NewScanner creates a scanner with all analyzers built from the strategy
func NewScanner(cfg *strategy.Config, data MarketData, log *logger.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		cfg:          cfg,
		data:         data,
		logger:       log,
		technical:    analysis.NewTechnicalAnalyzer(cfg.Technical, log),
		fundamentals: analysis.NewFundamentalsAnalyzer(cfg.Decision, cfg.Scoring.ETFFundamentalProxy, log),
		options:      analysis.NewOptionsAnalyzer(cfg.Options, log),
		gate:         decision.NewGate(cfg.Decision, log),
		scorer:       scoring.NewScorer(cfg.Scoring, log),
		concurrency:  1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// ScanSymbols evaluates every symbol, assembles the scan record, persists
// it (best effort), tracks GO/WATCH signals and diffs against the previous
// scan. The returned comparison is nil when history is not attached.
func (s *Scanner) ScanSymbols(ctx context.Context, symbols []string) (*contracts.ScanRecord, *contracts.ScanComparison, error) {
	started := s.now()

	s.logger.WithFields(map[string]interface{}{
		"symbol_count": len(symbols),
		"concurrency":  s.concurrency,
	}).Info("Starting scan")

	results, err := s.evaluateAll(ctx, symbols)
	if err != nil {
		return nil, nil, err
	}
	s.rankByConviction(results)

	fingerprint, err := strategy.Fingerprint(s.cfg)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to fingerprint strategy config")
	}

	rec := &contracts.ScanRecord{
		ID:                history.NewScanID(started),
		Timestamp:         started,
		ConfigFingerprint: fingerprint,
		Results:           results,
	}
	rec.Tally()

	var cmp *contracts.ScanComparison
	if s.store != nil {
		prev, err := s.store.LatestScan(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load previous scan, diff skipped")
		}
		if err := s.store.SaveScan(ctx, rec); err != nil {
			s.logger.WithField("scan_id", rec.ID).WithError(err).Error("Failed to persist scan")
		}
		cmp = history.Compare(rec, prev)
	}

	if s.tracker != nil {
		tracked := s.tracker.TrackScan(ctx, rec)
		s.logger.WithField("tracked", tracked).Debug("Scan signals recorded")
	}

	if s.alerter != nil && cmp != nil {
		s.alerter.FromComparison(ctx, cmp, rec)
	}

	s.logger.WithFields(map[string]interface{}{
		"scan_id":     rec.ID,
		"go_count":    rec.GoCount,
		"watch_count": rec.WatchCount,
		"no_go_count": rec.NoGoCount,
		"duration":    time.Since(started).Round(time.Millisecond).String(),
	}).Info("Scan complete")

	return rec, cmp, nil
}

// EvaluateSymbol runs the pipeline for one symbol without touching history
func (s *Scanner) EvaluateSymbol(ctx context.Context, symbol string) contracts.ScanResult {
	candles := s.data.FetchOHLCV(ctx, symbol, s.cfg.Scan.Period, s.cfg.Scan.Interval)
	taReport := s.technical.Analyze(symbol, candles)

	assetType := s.data.FetchAssetType(ctx, symbol)

	raw := s.data.FetchFundamentals(ctx, symbol)
	fundReport := s.fundamentals.Analyze(symbol, raw, assetType)

	// ETFs have no earnings calendar
	var earningsDate *time.Time
	if assetType != contracts.AssetETF {
		earningsDate = s.data.FetchEarningsDate(ctx, symbol)
	}

	price, priceSource := s.resolvePrice(ctx, symbol, candles)

	var optReport *contracts.OptionsReport
	if price != nil {
		chain := s.data.FetchOptionsChain(ctx, symbol, s.cfg.Options.MinDaysToExpiry)
		optReport = s.options.AnalyzeChain(symbol, *price, chain)
	} else {
		s.logger.WithField("symbol", symbol).Warn("No price available, options analysis skipped")
	}

	dec := s.gate.Evaluate(symbol, taReport, fundReport, optReport, earningsDate, assetType)

	return contracts.ScanResult{
		Symbol:       symbol,
		AssetType:    assetType,
		CurrentPrice: price,
		PriceSource:  priceSource,
		EarningsDate: earningsDate,
		Decision:     *dec,
		Technical:    taReport,
		Fundamentals: fundReport,
		Options:      optReport,
	}
}

// evaluateAll runs the pipeline for every symbol, sequentially or with a
// worker pool. The per-symbol path is stateless so workers share nothing.
func (s *Scanner) evaluateAll(ctx context.Context, symbols []string) ([]contracts.ScanResult, error) {
	if s.concurrency <= 1 {
		results := make([]contracts.ScanResult, 0, len(symbols))
		for _, symbol := range symbols {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results = append(results, s.EvaluateSymbol(ctx, symbol))
		}
		return results, nil
	}

	results := make([]contracts.ScanResult, len(symbols))
	jobCh := make(chan int, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				if ctx.Err() != nil {
					return
				}
				results[idx] = s.EvaluateSymbol(ctx, symbols[idx])
			}
		}()
	}

	for i := range symbols {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// rankByConviction scores the batch and orders results best-first
func (s *Scanner) rankByConviction(results []contracts.ScanResult) {
	inputs := make([]scoring.Input, 0, len(results))
	for _, res := range results {
		inputs = append(inputs, scoring.Input{
			Symbol:      res.Symbol,
			AssetType:   res.AssetType,
			Technical:   res.Technical,
			Fundamental: res.Fundamentals,
			Options:     res.Options,
		})
	}

	ranked := s.scorer.ScoreBatch(inputs)

	bySymbol := make(map[string]*contracts.ConvictionResult, len(ranked))
	rank := make(map[string]int, len(ranked))
	for i, cv := range ranked {
		bySymbol[cv.Symbol] = cv
		rank[cv.Symbol] = i
	}

	for i := range results {
		if cv := bySymbol[results[i].Symbol]; cv != nil {
			results[i].Conviction = *cv
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return rank[results[i].Symbol] < rank[results[j].Symbol]
	})
}

// resolvePrice prefers the live quote and falls back to the last close
func (s *Scanner) resolvePrice(ctx context.Context, symbol string, candles []contracts.Candle) (*float64, string) {
	if live := s.data.FetchLivePrice(ctx, symbol); live != nil && live.Price > 0 {
		return &live.Price, live.Source
	}
	if len(candles) > 0 && candles[len(candles)-1].Close > 0 {
		price := candles[len(candles)-1].Close
		return &price, "last_close"
	}
	return nil, ""
}
