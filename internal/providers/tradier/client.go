package tradier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/providers"
	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/httputil"
	"github.com/wonny/leapscope/pkg/logger"
)

const (
	defaultBaseURL = "https://api.tradier.com/v1"
	sandboxBaseURL = "https://sandbox.tradier.com/v1"
)

// Client handles communication with the Tradier market data API.
// Primary source for live prices and options chains with greeks.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiToken   string
	live       bool
}

// NewClient creates a new Tradier client. Explicit base URL wins over
// the sandbox flag; requests are paced by the configured interval.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := cfg.Tradier.BaseURL
	switch {
	case baseURL != "":
		baseURL = strings.TrimRight(baseURL, "/")
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL += "/v1"
		}
	case cfg.Tradier.UseSandbox:
		baseURL = sandboxBaseURL
	default:
		baseURL = defaultBaseURL
	}

	c := &Client{
		httpClient: httpClient.WithPacing(cfg.Tradier.RequestInterval),
		logger:     log,
		baseURL:    baseURL,
		apiToken:   cfg.Tradier.APIToken,
		live:       !strings.Contains(strings.ToLower(baseURL), "sandbox"),
	}

	mode := "SANDBOX"
	if c.live {
		mode = "LIVE"
	}
	log.WithField("mode", mode).Info("Tradier client initialized")

	return c
}

// Name implements providers.Provider
func (c *Client) Name() string { return "tradier" }

// IsLive reports whether the client targets the production endpoint
func (c *Client) IsLive() bool { return c.live }

// Available probes the user profile endpoint with the configured token
func (c *Client) Available(ctx context.Context) bool {
	if c.apiToken == "" {
		return false
	}

	resp, err := c.get(ctx, "/user/profile", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// get issues an authenticated GET against the Tradier API
func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	return c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"Authorization": "Bearer " + c.apiToken,
		"Accept":        "application/json",
	})
}

// getJSON issues a GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	resp, err := c.get(ctx, path, params)
	if err != nil {
		return fmt.Errorf("tradier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("tradier %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode tradier response: %w", err)
	}
	return nil
}

// FetchOHLCV fetches daily bars from the history endpoint
func (c *Client) FetchOHLCV(ctx context.Context, symbol, period, interval string) ([]contracts.Candle, error) {
	c.logger.WithField("symbol", symbol).Debug("Fetching OHLCV from Tradier")

	tradierInterval := interval
	if interval == "1d" {
		tradierInterval = "daily"
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", tradierInterval)
	params.Set("start", providers.PeriodStart(period, time.Now()).Format("2006-01-02"))

	var body struct {
		History struct {
			Day flexList[historyDay] `json:"day"`
		} `json:"history"`
	}
	if err := c.getJSON(ctx, "/markets/history", params, &body); err != nil {
		return nil, err
	}
	if len(body.History.Day) == 0 {
		return nil, providers.ErrNoData
	}

	candles := make([]contracts.Candle, 0, len(body.History.Day))
	for _, d := range body.History.Day {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		candles = append(candles, contracts.Candle{
			Date:   date,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: d.Volume,
		})
	}
	return candles, nil
}

// FetchOptionsChain fetches all LEAPS call contracts with greeks.
// One chain request per qualifying expiration.
func (c *Client) FetchOptionsChain(ctx context.Context, symbol string, minDays int) ([]contracts.ChainOption, error) {
	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"min_days": minDays,
	}).Debug("Fetching options chain from Tradier")

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("includeAllRoots", "true")

	var expBody struct {
		Expirations struct {
			Date flexList[string] `json:"date"`
		} `json:"expirations"`
	}
	if err := c.getJSON(ctx, "/markets/options/expirations", params, &expBody); err != nil {
		return nil, err
	}

	now := time.Now()
	var leapsExpirations []time.Time
	for _, s := range expBody.Expirations.Date {
		exp, err := time.Parse("2006-01-02", s)
		if err != nil {
			continue
		}
		if int(exp.Sub(now).Hours()/24) >= minDays {
			leapsExpirations = append(leapsExpirations, exp)
		}
	}
	if len(leapsExpirations) == 0 {
		c.logger.WithField("symbol", symbol).Info("No LEAPS expirations found")
		return nil, providers.ErrNoData
	}

	var all []contracts.ChainOption
	for _, exp := range leapsExpirations {
		opts, err := c.fetchChain(ctx, symbol, exp)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol":     symbol,
				"expiration": exp.Format("2006-01-02"),
			}).Warn("Failed to fetch chain for expiration")
			continue
		}

		daysToExp := int(exp.Sub(now).Hours() / 24)
		for _, o := range opts {
			if o.OptionType != "call" {
				continue
			}
			all = append(all, o.toContract(exp, daysToExp))
		}
	}

	if len(all) == 0 {
		return nil, providers.ErrNoData
	}
	return all, nil
}

// fetchChain fetches one expiration's contracts with greeks attached
func (c *Client) fetchChain(ctx context.Context, symbol string, exp time.Time) ([]chainOption, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("expiration", exp.Format("2006-01-02"))
	params.Set("greeks", "true")

	var body struct {
		Options struct {
			Option flexList[chainOption] `json:"option"`
		} `json:"options"`
	}
	if err := c.getJSON(ctx, "/markets/options/chains", params, &body); err != nil {
		return nil, err
	}
	return body.Options.Option, nil
}

// FetchEarningsDate looks for the next Earnings event in the corporate calendar
func (c *Client) FetchEarningsDate(ctx context.Context, symbol string) (*time.Time, error) {
	params := url.Values{}
	params.Set("symbols", symbol)

	var body struct {
		Items []calendarItem `json:"items"`
	}
	if err := c.getJSON(ctx, "/markets/fundamentals/calendars", params, &body); err != nil {
		return nil, err
	}

	for _, item := range body.Items {
		for _, result := range item.Results {
			for _, event := range result.Tables.CorporateCalendars {
				if event.Event != "Earnings" || event.BeginDateTime == "" {
					continue
				}
				if t, err := time.Parse("2006-01-02", event.BeginDateTime); err == nil {
					return &t, nil
				}
			}
		}
	}
	return nil, nil
}

// FetchUnderlyingPrice returns the last traded price, falling back to
// the bid/ask midpoint. Returns an error rather than guessing.
func (c *Client) FetchUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	quote, err := c.fetchQuote(ctx, symbol, false)
	if err != nil {
		return 0, err
	}

	if quote.Last != nil && *quote.Last > 0 {
		return *quote.Last, nil
	}
	if quote.Bid != nil && quote.Ask != nil && *quote.Bid > 0 && *quote.Ask > 0 {
		return (*quote.Bid + *quote.Ask) / 2, nil
	}
	return 0, providers.ErrNoData
}

// FetchOptionQuote fetches a live quote with greeks for one OCC symbol
func (c *Client) FetchOptionQuote(ctx context.Context, occSymbol string) (*contracts.OptionQuote, error) {
	quote, err := c.fetchQuote(ctx, occSymbol, true)
	if err != nil {
		return nil, err
	}
	if quote.Bid == nil {
		return nil, providers.ErrNoData
	}

	result := &contracts.OptionQuote{
		Bid:          quote.Bid,
		Ask:          quote.Ask,
		Last:         quote.Last,
		Volume:       quote.Volume,
		OpenInterest: quote.OpenInterest,
		Source:       "tradier_live",
	}
	if g := quote.Greeks; g != nil {
		result.Greeks = contracts.Greeks{
			Delta: g.Delta,
			Gamma: g.Gamma,
			Theta: g.Theta,
			Vega:  g.Vega,
		}
		if g.MidIV != nil && *g.MidIV > 0 {
			result.IV = g.MidIV
		} else if g.SmvVol != nil && *g.SmvVol > 0 {
			result.IV = g.SmvVol
		}
	}
	return result, nil
}

func (c *Client) fetchQuote(ctx context.Context, symbol string, greeks bool) (*quote, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	if greeks {
		params.Set("greeks", "true")
	}

	var body struct {
		Quotes struct {
			Quote quote `json:"quote"`
		} `json:"quotes"`
	}
	if err := c.getJSON(ctx, "/markets/quotes", params, &body); err != nil {
		return nil, err
	}
	if body.Quotes.Quote.Symbol == "" {
		return nil, providers.ErrNoData
	}
	return &body.Quotes.Quote, nil
}
