package history

import (
	"context"
	"math"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/logger"
)

// PriceSource resolves a current underlying price; the provider router
// satisfies it
type PriceSource interface {
	FetchLivePrice(ctx context.Context, symbol string) *contracts.LivePrice
}

// SignalRecorder is the persistence surface the tracker needs;
// SignalStore satisfies it
type SignalRecorder interface {
	SaveSignals(ctx context.Context, sigs []*contracts.TrackedSignal) error
	PendingOutcomes(ctx context.Context, horizonDays int, asOf time.Time) ([]contracts.TrackedSignal, error)
	SetOutcome(ctx context.Context, id int64, horizonDays int, price, returnPct float64, asOf time.Time) error
	GoSignalReturns(ctx context.Context, horizonDays int) ([]float64, error)
}

// Tracker records GO/WATCH signals at scan time and fills in their
// forward returns as the configured horizons pass. Missing prices are
// skipped and retried on the next update, never recorded as zero.
type Tracker struct {
	store     SignalRecorder
	prices    PriceSource
	horizons  []int
	minSample int
	logger    *logger.Logger
	now       func() time.Time
}

// NewTracker creates a signal tracker. Horizons and the sample floor
// come from the strategy's tracking section.
func NewTracker(store SignalRecorder, prices PriceSource, cfg strategy.Tracking, log *logger.Logger) *Tracker {
	return &Tracker{
		store:     store,
		prices:    prices,
		horizons:  cfg.HorizonsDays,
		minSample: cfg.MinSampleSize,
		logger:    log,
		now:       time.Now,
	}
}

// TrackScan records every GO and WATCH result of a scan. Results with
// no usable underlying price are skipped; a return cannot be computed
// against an unknown entry price.
func (t *Tracker) TrackScan(ctx context.Context, rec *contracts.ScanRecord) int {
	var sigs []*contracts.TrackedSignal
	for _, res := range rec.Results {
		verdict := res.Decision.Verdict
		if verdict != contracts.VerdictGo && verdict != contracts.VerdictWatch {
			continue
		}
		if res.CurrentPrice == nil || *res.CurrentPrice <= 0 {
			t.logger.WithField("symbol", res.Symbol).Warn("Skipping signal without entry price")
			continue
		}

		sigs = append(sigs, &contracts.TrackedSignal{
			ScanID:          rec.ID,
			Symbol:          res.Symbol,
			Verdict:         verdict,
			ConvictionScore: res.Conviction.Score,
			PriceAtSignal:   *res.CurrentPrice,
			SignalDate:      rec.Timestamp,
			UpdatedAt:       t.now(),
		})
	}

	if err := t.store.SaveSignals(ctx, sigs); err != nil {
		t.logger.WithField("scan_id", rec.ID).WithError(err).Error("Failed to track scan signals")
		return 0
	}

	t.logger.WithFields(map[string]interface{}{
		"scan_id": rec.ID,
		"tracked": len(sigs),
	}).Info("Recorded scan signals for outcome tracking")
	return len(sigs)
}

// UpdateOutcomes backfills forward prices for every signal whose
// horizon has passed. Returns how many outcomes were filled.
func (t *Tracker) UpdateOutcomes(ctx context.Context) (int, error) {
	asOf := t.now()
	updated := 0

	for _, horizon := range t.horizons {
		pending, err := t.store.PendingOutcomes(ctx, horizon, asOf)
		if err != nil {
			return updated, err
		}

		for _, sig := range pending {
			if ctx.Err() != nil {
				return updated, ctx.Err()
			}

			live := t.prices.FetchLivePrice(ctx, sig.Symbol)
			if live == nil || live.Price <= 0 {
				t.logger.WithFields(map[string]interface{}{
					"symbol":  sig.Symbol,
					"horizon": horizon,
				}).Warn("No price for outcome update, will retry next run")
				continue
			}

			returnPct := (live.Price - sig.PriceAtSignal) / sig.PriceAtSignal * 100
			if err := t.store.SetOutcome(ctx, sig.ID, horizon, live.Price, returnPct, asOf); err != nil {
				t.logger.WithField("symbol", sig.Symbol).WithError(err).Error("Failed to record outcome")
				continue
			}
			updated++
		}
	}

	t.logger.WithField("updated", updated).Info("Signal outcomes updated")
	return updated, nil
}

// ValidationStats summarizes how past GO signals performed at each
// horizon. Sample sizes here are typically small; the status field
// says so explicitly rather than letting a thin average look solid.
func (t *Tracker) ValidationStats(ctx context.Context) (*contracts.ValidationStats, error) {
	stats := &contracts.ValidationStats{
		Horizons: make(map[int]contracts.HorizonStats),
	}

	for _, horizon := range t.horizons {
		returns, err := t.store.GoSignalReturns(ctx, horizon)
		if err != nil {
			return nil, err
		}
		if len(returns) == 0 {
			continue
		}

		var sum float64
		wins := 0
		for _, r := range returns {
			sum += r
			if r > 0 {
				wins++
			}
		}
		stats.Horizons[horizon] = contracts.HorizonStats{
			Count:     len(returns),
			AvgReturn: math.Round(sum/float64(len(returns))*100) / 100,
			WinRate:   math.Round(float64(wins)/float64(len(returns))*1000) / 10,
		}
	}

	// The shortest horizon resolves first, so it carries the sample size
	if len(t.horizons) > 0 {
		if h, ok := stats.Horizons[t.horizons[0]]; ok {
			stats.SampleSize = h.Count
		}
	}
	if stats.SampleSize < t.minSample {
		stats.Status = contracts.ValidationInsufficientData
	} else {
		stats.Status = contracts.ValidationPreliminary
	}
	return stats, nil
}
