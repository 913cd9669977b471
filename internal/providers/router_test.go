package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// fakeProvider implements every capability with canned answers
type fakeProvider struct {
	name      string
	available bool

	candles    []contracts.Candle
	candleErr  error
	funds      *contracts.Fundamentals
	fundsErr   error
	chain      []contracts.ChainOption
	chainErr   error
	earnings   *time.Time
	assetType  contracts.AssetType
	price      float64
	priceErr   error
	optQuote   *contracts.OptionQuote
	optQuoteErr error

	calls map[string]int
}

func newFake(name string) *fakeProvider {
	return &fakeProvider{name: name, available: true, assetType: contracts.AssetUnknown, calls: map[string]int{}}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Available(ctx context.Context) bool {
	f.calls["available"]++
	return f.available
}

func (f *fakeProvider) FetchOHLCV(ctx context.Context, symbol, period, interval string) ([]contracts.Candle, error) {
	f.calls["ohlcv"]++
	return f.candles, f.candleErr
}

func (f *fakeProvider) FetchFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	f.calls["fundamentals"]++
	return f.funds, f.fundsErr
}

func (f *fakeProvider) FetchOptionsChain(ctx context.Context, symbol string, minDays int) ([]contracts.ChainOption, error) {
	f.calls["chain"]++
	return f.chain, f.chainErr
}

func (f *fakeProvider) FetchEarningsDate(ctx context.Context, symbol string) (*time.Time, error) {
	f.calls["earnings"]++
	return f.earnings, nil
}

func (f *fakeProvider) FetchAssetType(ctx context.Context, symbol string) contracts.AssetType {
	f.calls["asset_type"]++
	return f.assetType
}

func (f *fakeProvider) FetchUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	f.calls["price"]++
	return f.price, f.priceErr
}

func (f *fakeProvider) FetchOptionQuote(ctx context.Context, occSymbol string) (*contracts.OptionQuote, error) {
	f.calls["option_quote"]++
	return f.optQuote, f.optQuoteErr
}

func someCandles(close float64) []contracts.Candle {
	return []contracts.Candle{{
		Date:  time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		Open:  close, High: close, Low: close, Close: close, Volume: 1000,
	}}
}

func TestRouterOHLCVFallsThrough(t *testing.T) {
	primary := newFake("yahoo")
	primary.candleErr = errors.New("rate limited")
	secondary := newFake("tradier")
	secondary.candles = someCandles(100)

	r := NewRouter(testLogger())
	r.RegisterOHLCV(primary, secondary)

	candles := r.FetchOHLCV(context.Background(), "AAPL", "2y", "1d")

	require.Len(t, candles, 1)
	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 1, primary.calls["ohlcv"])
	assert.Equal(t, 1, secondary.calls["ohlcv"])
}

func TestRouterSkipsUnavailableProvider(t *testing.T) {
	primary := newFake("tradier")
	primary.available = false
	primary.candles = someCandles(50)
	secondary := newFake("yahoo")
	secondary.candles = someCandles(100)

	r := NewRouter(testLogger())
	r.RegisterOHLCV(primary, secondary)

	candles := r.FetchOHLCV(context.Background(), "AAPL", "2y", "1d")

	require.Len(t, candles, 1)
	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 0, primary.calls["ohlcv"], "unavailable provider must not be queried")
}

func TestRouterMemoizesAvailabilityProbe(t *testing.T) {
	down := newFake("tradier")
	down.available = false
	up := newFake("yahoo")
	up.candles = someCandles(100)

	r := NewRouter(testLogger())
	r.RegisterOHLCV(down, up)

	r.FetchOHLCV(context.Background(), "AAPL", "2y", "1d")
	r.FetchOHLCV(context.Background(), "MSFT", "2y", "1d")

	assert.Equal(t, 1, down.calls["available"], "probe result should be reused within the TTL")
	assert.Equal(t, 1, up.calls["available"])
}

func TestRouterOHLCVEmptyAnswerFallsThrough(t *testing.T) {
	primary := newFake("yahoo") // returns nil, nil
	secondary := newFake("tradier")
	secondary.candles = someCandles(50)

	r := NewRouter(testLogger())
	r.RegisterOHLCV(primary, secondary)

	candles := r.FetchOHLCV(context.Background(), "AAPL", "2y", "1d")

	require.Len(t, candles, 1)
	assert.Equal(t, 50.0, candles[0].Close)
}

func TestRouterOHLCVAllFail(t *testing.T) {
	p := newFake("yahoo")
	p.candleErr = errors.New("down")

	r := NewRouter(testLogger())
	r.RegisterOHLCV(p)

	assert.Nil(t, r.FetchOHLCV(context.Background(), "AAPL", "2y", "1d"))
}

func TestRouterPriorityOrderRespected(t *testing.T) {
	primary := newFake("yahoo")
	primary.candles = someCandles(10)
	secondary := newFake("tradier")
	secondary.candles = someCandles(99)

	r := NewRouter(testLogger())
	r.RegisterOHLCV(primary, secondary)

	candles := r.FetchOHLCV(context.Background(), "AAPL", "2y", "1d")

	assert.Equal(t, 10.0, candles[0].Close)
	assert.Zero(t, secondary.calls["ohlcv"], "secondary must not be consulted when primary answers")
}

func TestRouterFundamentalsSkipsEmpty(t *testing.T) {
	rg := 0.2
	primary := newFake("yahoo")
	primary.funds = &contracts.Fundamentals{} // empty answer
	secondary := newFake("tradier")
	secondary.funds = &contracts.Fundamentals{RevenueGrowth: &rg}

	r := NewRouter(testLogger())
	r.RegisterFundamentals(primary, secondary)

	f := r.FetchFundamentals(context.Background(), "AAPL")

	require.NotNil(t, f)
	assert.Equal(t, 0.2, *f.RevenueGrowth)
}

func TestRouterFundamentalsAllFail(t *testing.T) {
	p := newFake("yahoo")
	p.fundsErr = ErrNoData

	r := NewRouter(testLogger())
	r.RegisterFundamentals(p)

	assert.Nil(t, r.FetchFundamentals(context.Background(), "GHOST"))
}

func TestRouterEarningsNilIsNotError(t *testing.T) {
	p := newFake("yahoo") // no earnings date

	r := NewRouter(testLogger())
	r.RegisterEarnings(p)

	assert.Nil(t, r.FetchEarningsDate(context.Background(), "SPY"))
}

func TestRouterAssetTypeKnownETFShortCircuit(t *testing.T) {
	p := newFake("yahoo")
	p.assetType = contracts.AssetStock

	r := NewRouter(testLogger(), WithKnownETFs([]string{"SPY", "qqq"}))
	r.RegisterAssetType(p)

	assert.Equal(t, contracts.AssetETF, r.FetchAssetType(context.Background(), "spy"))
	assert.Equal(t, contracts.AssetETF, r.FetchAssetType(context.Background(), "QQQ"))
	assert.Zero(t, p.calls["asset_type"], "known ETFs never hit a provider")

	assert.Equal(t, contracts.AssetStock, r.FetchAssetType(context.Background(), "AAPL"))
	assert.Equal(t, 1, p.calls["asset_type"])
}

func TestRouterAssetTypeUnknownFallsThrough(t *testing.T) {
	first := newFake("yahoo")
	second := newFake("tradier")
	second.assetType = contracts.AssetETF

	r := NewRouter(testLogger())
	r.RegisterAssetType(first, second)

	assert.Equal(t, contracts.AssetETF, r.FetchAssetType(context.Background(), "GLD"))
}

func TestRouterLivePricePriority(t *testing.T) {
	tradier := newFake("tradier")
	tradier.price = 223.50
	yahoo := newFake("yahoo")
	yahoo.price = 223.10

	r := NewRouter(testLogger())
	r.RegisterQuote(tradier, yahoo)

	lp := r.FetchLivePrice(context.Background(), "AAPL")

	require.NotNil(t, lp)
	assert.Equal(t, 223.50, lp.Price)
	assert.Equal(t, "tradier_quote", lp.Source)
}

func TestRouterLivePriceOHLCVFallback(t *testing.T) {
	quotes := newFake("tradier")
	quotes.priceErr = errors.New("down")
	history := newFake("yahoo")
	history.candles = someCandles(187.2)

	r := NewRouter(testLogger())
	r.RegisterQuote(quotes)
	r.RegisterOHLCV(history)

	lp := r.FetchLivePrice(context.Background(), "AAPL")

	require.NotNil(t, lp)
	assert.Equal(t, 187.2, lp.Price)
	assert.Equal(t, "ohlcv_close", lp.Source)
}

func TestRouterLivePriceUnavailable(t *testing.T) {
	r := NewRouter(testLogger())

	assert.Nil(t, r.FetchLivePrice(context.Background(), "AAPL"))
}

func TestRouterOptionQuote(t *testing.T) {
	bid := 4.2
	p := newFake("tradier")
	p.optQuote = &contracts.OptionQuote{Bid: &bid, Source: "tradier_live"}

	r := NewRouter(testLogger())
	r.RegisterOptionQuote(p)

	q := r.FetchOptionQuote(context.Background(), "AAPL270115C00200000")

	require.NotNil(t, q)
	assert.Equal(t, 4.2, *q.Bid)
}

func TestRouterOptionsChainFallsThrough(t *testing.T) {
	primary := newFake("tradier")
	primary.chainErr = errors.New("expired token")
	secondary := newFake("yahoo")
	secondary.chain = []contracts.ChainOption{{ContractSymbol: "AAPL270115C00200000"}}

	r := NewRouter(testLogger())
	r.RegisterOptionsChain(primary, secondary)

	chain := r.FetchOptionsChain(context.Background(), "AAPL", 300)

	require.Len(t, chain, 1)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -730), PeriodStart("2y", now))
	assert.Equal(t, now.AddDate(0, 0, -365), PeriodStart("1y", now))
	assert.Equal(t, now.AddDate(0, 0, -365), PeriodStart("bogus", now), "unknown defaults to 1y")
	assert.Equal(t, now.AddDate(0, 0, -5), PeriodStart("5d", now))
}
