package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/strategy"
)

func newPricer(data MarketData) *Pricer {
	p := NewPricer(data, technicalAnalyzer(), strategy.Default().Portfolio, testLogger())
	p.now = func() time.Time { return machineNow }
	return p
}

func TestRefreshLiveQuote(t *testing.T) {
	iv := 0.28
	delta := 0.72
	data := &fakeMarketData{
		livePrice: &contracts.LivePrice{Price: 210, Source: "tradier_quote"},
		optionQuote: &contracts.OptionQuote{
			Bid:    markPtr(15),
			Ask:    markPtr(16),
			IV:     &iv,
			Greeks: contracts.Greeks{Delta: &delta},
			Source: "tradier_live",
		},
	}
	pos := leapsPosition(10, 1, nil)

	newPricer(data).Refresh(context.Background(), pos)

	snap := pos.Snapshot
	require.NotNil(t, snap.Mark)
	assert.InDelta(t, 15.5, *snap.Mark, 1e-9)
	assert.Equal(t, contracts.PricingSourceLiveQuote, snap.PricingSource)
	assert.Equal(t, contracts.ConfidenceHigh, snap.Confidence)
	assert.InDelta(t, 210.0, *snap.UnderlyingPrice, 1e-9)
	assert.Equal(t, "tradier_quote", snap.UnderlyingSource)
	require.NotNil(t, snap.Greeks.Delta)
	assert.InDelta(t, 0.72, *snap.Greeks.Delta, 1e-9)
}

func TestRefreshLiveQuoteWithoutIVIsMediumConfidence(t *testing.T) {
	data := &fakeMarketData{
		livePrice:   &contracts.LivePrice{Price: 210, Source: "tradier_quote"},
		optionQuote: &contracts.OptionQuote{Bid: markPtr(15), Ask: markPtr(16)},
	}
	pos := leapsPosition(10, 1, nil)

	newPricer(data).Refresh(context.Background(), pos)

	assert.Equal(t, contracts.ConfidenceMedium, pos.Snapshot.Confidence)
}

func TestRefreshChainFallback(t *testing.T) {
	pos := leapsPosition(10, 1, nil)
	iv := 0.30
	data := &fakeMarketData{
		livePrice: &contracts.LivePrice{Price: 210, Source: "yahoo_quote"},
		chain: []contracts.ChainOption{
			{
				ContractSymbol: pos.ContractSymbol(),
				OptionType:     contracts.OptionCall,
				Strike:         pos.Strike,
				Expiration:     pos.Expiration,
				Bid:            14, Ask: 15, Last: 14.4,
				IV: &iv,
			},
			// Wrong strike, must be skipped
			{OptionType: contracts.OptionCall, Strike: 180, Expiration: pos.Expiration, Bid: 25, Ask: 26},
		},
	}

	newPricer(data).Refresh(context.Background(), pos)

	snap := pos.Snapshot
	require.NotNil(t, snap.Mark)
	assert.InDelta(t, 14.5, *snap.Mark, 1e-9)
	assert.Equal(t, contracts.PricingSourceChain, snap.PricingSource)
	assert.Equal(t, contracts.ConfidenceMedium, snap.Confidence)

	// Greeks were derived from the chain IV
	require.NotNil(t, snap.Greeks.Delta)
	assert.Greater(t, *snap.Greeks.Delta, 0.0)
	assert.Less(t, *snap.Greeks.Delta, 1.0)
}

func TestRefreshChainPutDeltaAdjusted(t *testing.T) {
	pos := leapsPosition(10, 1, nil)
	pos.OptionType = contracts.OptionPut
	iv := 0.30
	data := &fakeMarketData{
		livePrice: &contracts.LivePrice{Price: 210, Source: "yahoo_quote"},
		chain: []contracts.ChainOption{
			{
				OptionType: contracts.OptionPut,
				Strike:     pos.Strike,
				Expiration: pos.Expiration,
				Bid:        8, Ask: 8.6,
				IV: &iv,
			},
		},
	}

	newPricer(data).Refresh(context.Background(), pos)

	require.NotNil(t, pos.Snapshot.Greeks.Delta)
	assert.Negative(t, *pos.Snapshot.Greeks.Delta)
}

func TestRefreshTheoreticalFallback(t *testing.T) {
	data := &fakeMarketData{
		livePrice: &contracts.LivePrice{Price: 210, Source: "ohlcv_close"},
		candles:   trendCandles(contracts.TrendBullish),
	}
	pos := leapsPosition(10, 1, nil)

	newPricer(data).Refresh(context.Background(), pos)

	snap := pos.Snapshot
	require.NotNil(t, snap.Mark)
	assert.Greater(t, *snap.Mark, 0.0)
	assert.Equal(t, contracts.PricingSourceTheoretical, snap.PricingSource)
	assert.Equal(t, contracts.ConfidenceMedium, snap.Confidence)
	require.NotNil(t, snap.IV) // HV standing in for IV
	assert.Greater(t, *snap.IV, 0.0)
}

func TestRefreshNoUnderlyingPrice(t *testing.T) {
	pos := leapsPosition(10, 1, markPtr(12))

	newPricer(&fakeMarketData{}).Refresh(context.Background(), pos)

	snap := pos.Snapshot
	assert.Nil(t, snap.UnderlyingPrice)
	assert.Nil(t, snap.Mark) // the stale mark was cleared, not kept
	assert.Equal(t, contracts.ConfidenceLow, snap.Confidence)
	assert.False(t, snap.RefreshedAt.IsZero())
}

func TestRefreshNoMarkFromAnySource(t *testing.T) {
	// Underlying known, but no quote, no chain match, no HV
	data := &fakeMarketData{livePrice: &contracts.LivePrice{Price: 210, Source: "yahoo_quote"}}
	pos := leapsPosition(10, 1, nil)

	newPricer(data).Refresh(context.Background(), pos)

	snap := pos.Snapshot
	require.NotNil(t, snap.UnderlyingPrice)
	assert.Nil(t, snap.Mark)
	assert.Equal(t, contracts.ConfidenceLow, snap.Confidence)
}

func TestSelectMark(t *testing.T) {
	tests := []struct {
		name           string
		bid, ask, last *float64
		want           *float64
	}{
		{"mid from both sides", markPtr(10), markPtr(12), markPtr(9), markPtr(11)},
		{"last when one side missing", markPtr(10), nil, markPtr(9), markPtr(9)},
		{"bid when only bid", markPtr(10), nil, nil, markPtr(10)},
		{"ask when only ask", nil, markPtr(12), nil, markPtr(12)},
		{"nothing usable", nil, nil, nil, nil},
		{"zero quotes ignored", markPtr(0), markPtr(0), markPtr(0), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectMark(tt.bid, tt.ask, tt.last)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}
