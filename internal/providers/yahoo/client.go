package yahoo

import (
	"context"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/providers"
	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/httputil"
	"github.com/wonny/leapscope/pkg/logger"
)

// Client serves market data from Yahoo Finance. Quotes and history go
// through the finance-go library; fundamentals, option chains and the
// earnings calendar use the public JSON and HTML endpoints directly.
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	quoteURL    string
	calendarURL string
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      log,
		quoteURL:    strings.TrimRight(cfg.Yahoo.QuoteBaseURL, "/"),
		calendarURL: cfg.Yahoo.CalendarURL,
	}
}

// Name implements providers.Provider
func (c *Client) Name() string { return "yahoo" }

// Available always reports true; Yahoo needs no credentials
func (c *Client) Available(ctx context.Context) bool { return true }

// FetchOHLCV fetches daily bars via the chart API
func (c *Client) FetchOHLCV(ctx context.Context, symbol, period, interval string) ([]contracts.Candle, error) {
	c.logger.WithField("symbol", symbol).Debug("Fetching OHLCV from Yahoo")

	end := time.Now()
	start := providers.PeriodStart(period, end)

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var candles []contracts.Candle
	for iter.Next() {
		bar := iter.Bar()
		candles = append(candles, contracts.Candle{
			Date:   time.Unix(int64(bar.Timestamp), 0),
			Open:   bar.Open.InexactFloat64(),
			High:   bar.High.InexactFloat64(),
			Low:    bar.Low.InexactFloat64(),
			Close:  bar.Close.InexactFloat64(),
			Volume: int64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, providers.ErrNoData
	}
	return candles, nil
}

// FetchUnderlyingPrice returns the regular market price from a live quote
func (c *Client) FetchUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return 0, err
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return 0, providers.ErrNoData
	}
	return q.RegularMarketPrice, nil
}

// FetchAssetType classifies the symbol from its quote type
func (c *Client) FetchAssetType(ctx context.Context, symbol string) contracts.AssetType {
	q, err := quote.Get(symbol)
	if err != nil || q == nil {
		return contracts.AssetUnknown
	}

	switch q.QuoteType {
	case "ETF", "MUTUALFUND":
		return contracts.AssetETF
	case "EQUITY":
		return contracts.AssetStock
	default:
		return contracts.AssetUnknown
	}
}
