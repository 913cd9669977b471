package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/providers"
)

type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				Calls []yahooOption `json:"calls"`
			} `json:"options"`
		} `json:"result"`
	} `json:"optionChain"`
}

type yahooOption struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            float64  `json:"strike"`
	Expiration        int64    `json:"expiration"`
	Bid               float64  `json:"bid"`
	Ask               float64  `json:"ask"`
	LastPrice         float64  `json:"lastPrice"`
	Volume            int      `json:"volume"`
	OpenInterest      int      `json:"openInterest"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
}

// FetchOptionsChain fetches LEAPS calls from the public options API.
// Yahoo carries no greeks, so candidates rely on computed values.
func (c *Client) FetchOptionsChain(ctx context.Context, symbol string, minDays int) ([]contracts.ChainOption, error) {
	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"min_days": minDays,
	}).Debug("Fetching options chain from Yahoo")

	base, err := c.fetchOptions(ctx, symbol, 0)
	if err != nil {
		return nil, err
	}
	if len(base.OptionChain.Result) == 0 {
		return nil, providers.ErrNoData
	}

	now := time.Now()
	var all []contracts.ChainOption
	for _, expUnix := range base.OptionChain.Result[0].ExpirationDates {
		exp := time.Unix(expUnix, 0).UTC()
		daysToExp := int(exp.Sub(now).Hours() / 24)
		if daysToExp < minDays {
			continue
		}

		body, err := c.fetchOptions(ctx, symbol, expUnix)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol":     symbol,
				"expiration": exp.Format("2006-01-02"),
			}).Warn("Failed to fetch chain for expiration")
			continue
		}
		if len(body.OptionChain.Result) == 0 {
			continue
		}

		for _, block := range body.OptionChain.Result[0].Options {
			for _, o := range block.Calls {
				opt := contracts.ChainOption{
					ContractSymbol: o.ContractSymbol,
					OptionType:     contracts.OptionCall,
					Strike:         o.Strike,
					Expiration:     time.Unix(o.Expiration, 0).UTC(),
					DaysToExpiry:   daysToExp,
					Bid:            o.Bid,
					Ask:            o.Ask,
					Last:           o.LastPrice,
					Volume:         o.Volume,
					OpenInterest:   o.OpenInterest,
				}
				if o.ImpliedVolatility != nil && *o.ImpliedVolatility > 0 {
					opt.IV = o.ImpliedVolatility
				}
				all = append(all, opt)
			}
		}
	}

	if len(all) == 0 {
		return nil, providers.ErrNoData
	}
	return all, nil
}

func (c *Client) fetchOptions(ctx context.Context, symbol string, date int64) (*optionsResponse, error) {
	fullURL := fmt.Sprintf("%s/v7/finance/options/%s", c.quoteURL, url.PathEscape(symbol))
	if date > 0 {
		fullURL += fmt.Sprintf("?date=%d", date)
	}

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("options request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("options endpoint returned status %d", resp.StatusCode)
	}

	var body optionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode options chain: %w", err)
	}
	return &body, nil
}
