package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FetchEarningsDate returns the next scheduled earnings date. The quote
// summary calendar is authoritative; the public earnings calendar page
// is scraped when the API gives nothing.
func (c *Client) FetchEarningsDate(ctx context.Context, symbol string) (*time.Time, error) {
	c.logger.WithField("symbol", symbol).Debug("Fetching earnings date from Yahoo")

	if d, err := c.earningsFromSummary(ctx, symbol); err == nil && d != nil {
		return d, nil
	}

	return c.earningsFromCalendarPage(ctx, symbol)
}

func (c *Client) earningsFromSummary(ctx context.Context, symbol string) (*time.Time, error) {
	body, err := c.fetchQuoteSummary(ctx, symbol, "calendarEvents")
	if err != nil {
		return nil, err
	}

	ce := body.QuoteSummary.Result[0].CalendarEvents
	if ce == nil {
		return nil, nil
	}
	for _, d := range ce.Earnings.EarningsDate {
		if d.Raw != nil {
			t := time.Unix(*d.Raw, 0).UTC()
			return &t, nil
		}
	}
	return nil, nil
}

// earningsFromCalendarPage scrapes the first row of the earnings
// calendar table for the symbol
func (c *Client) earningsFromCalendarPage(ctx context.Context, symbol string) (*time.Time, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	fullURL := fmt.Sprintf("%s?%s", c.calendarURL, params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"User-Agent": userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("earnings calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("earnings calendar returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse earnings calendar: %w", err)
	}

	var found *time.Time
	doc.Find("table tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}
		rowSymbol := strings.TrimSpace(cells.Eq(0).Text())
		if !strings.EqualFold(rowSymbol, symbol) {
			return true
		}

		dateText := strings.TrimSpace(cells.Eq(2).Text())
		for _, layout := range []string{"Jan 2, 2006", "Jan 02, 2006, 3 PMEST", "2006-01-02"} {
			if t, err := time.Parse(layout, dateText); err == nil {
				found = &t
				return false
			}
		}
		return true
	})

	if found == nil {
		c.logger.WithField("symbol", symbol).Debug("No earnings date on calendar page")
	}
	return found, nil
}
