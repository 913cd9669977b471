package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/leapscope/internal/contracts"
	"github.com/wonny/leapscope/internal/providers"
)

// browser-like agent, the quote summary endpoint rejects default clients
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// rawValue is Yahoo's {raw, fmt} number wrapper
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			FinancialData *struct {
				RevenueGrowth     rawValue `json:"revenueGrowth"`
				EarningsGrowth    rawValue `json:"earningsGrowth"`
				ProfitMargins     rawValue `json:"profitMargins"`
				ReturnOnEquity    rawValue `json:"returnOnEquity"`
				DebtToEquity      rawValue `json:"debtToEquity"`
				CurrentRatio      rawValue `json:"currentRatio"`
				OperatingCashflow rawValue `json:"operatingCashflow"`
			} `json:"financialData"`
			SummaryDetail *struct {
				Beta rawValue `json:"beta"`
			} `json:"summaryDetail"`
			CalendarEvents *struct {
				Earnings struct {
					EarningsDate []struct {
						Raw *int64 `json:"raw"`
					} `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// fetchQuoteSummary pulls the requested modules for one symbol
func (c *Client) fetchQuoteSummary(ctx context.Context, symbol string, modules string) (*quoteSummaryResponse, error) {
	params := url.Values{}
	params.Set("modules", modules)
	fullURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.quoteURL, url.PathEscape(symbol), params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("quote summary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("quote summary returned status %d", resp.StatusCode)
	}

	var body quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode quote summary: %w", err)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return nil, providers.ErrNoData
	}
	return &body, nil
}

// FetchFundamentals pulls the metrics the quality scorer consumes
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	c.logger.WithField("symbol", symbol).Debug("Fetching fundamentals from Yahoo")

	body, err := c.fetchQuoteSummary(ctx, symbol, "financialData,summaryDetail")
	if err != nil {
		return nil, err
	}

	result := body.QuoteSummary.Result[0]
	f := &contracts.Fundamentals{}
	if fd := result.FinancialData; fd != nil {
		f.RevenueGrowth = fd.RevenueGrowth.Raw
		f.EarningsGrowth = fd.EarningsGrowth.Raw
		f.ProfitMargins = fd.ProfitMargins.Raw
		f.ReturnOnEquity = fd.ReturnOnEquity.Raw
		f.DebtToEquity = fd.DebtToEquity.Raw
		f.CurrentRatio = fd.CurrentRatio.Raw
		f.OperatingCashflow = fd.OperatingCashflow.Raw
	}
	if sd := result.SummaryDetail; sd != nil {
		f.Beta = sd.Beta.Raw
	}

	if f.Empty() {
		return nil, providers.ErrNoData
	}
	return f, nil
}
