// Package openholidays fetches public holidays from the OpenHolidays API
// (https://openholidaysapi.org).
package openholidays

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	json "github.com/goccy/go-json"
)

// DefaultBaseURL is the production OpenHolidays API endpoint.
const DefaultBaseURL = "https://openholidaysapi.org"

// Holiday is a single public holiday as reported by the API. Date keeps the
// API's "YYYY-MM-DD" form.
type Holiday struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the OpenHolidays public-holiday endpoint.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient creates a client. An empty baseURL selects the production
// endpoint; a nil httpClient falls back to http.DefaultClient.
func NewClient(baseURL string, httpClient HTTPClient, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Holidays fetches the public holidays of a country (or one of its
// subdivisions) valid from January 1st of year through December 31st of the
// following year, so that ranges crossing a year boundary stay covered.
func (c *Client) Holidays(ctx context.Context, country, subdivision string, year int) ([]Holiday, error) {
	query := url.Values{}
	query.Set("countryIsoCode", strings.ToUpper(country))
	if subdivision != "" {
		query.Set("subdivisionCode", strings.ToUpper(subdivision))
	}
	query.Set("languageIsoCode", "EN")
	query.Set("validFrom", fmt.Sprintf("%d-01-01", year))
	query.Set("validTo", fmt.Sprintf("%d-12-31", year+1))
	apiURL := c.baseURL + "/PublicHolidays?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var resp *http.Response
	err = retry.Do(
		func() error {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close() //nolint:errcheck // best effort close on retry
			}
			var doErr error
			resp, doErr = c.httpClient.Do(req) //nolint:bodyclose // closed in defer or on retry
			if doErr != nil {
				return doErr
			}
			// Retry on server errors and rate limiting
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
				if readErr != nil {
					_ = resp.Body.Close() //nolint:errcheck // best effort close on error path
					return fmt.Errorf("HTTP %d: failed to read body: %w", resp.StatusCode, readErr)
				}
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Debug("failed to close response body", "error", closeErr)
				}
				return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying holiday fetch", "attempt", n+1, "country", country, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching holidays for %s: %w", strings.ToUpper(country), err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck // body only used for the message
		return nil, fmt.Errorf("holiday API returned status %d: %s", resp.StatusCode, string(body))
	}

	var items []struct {
		StartDate string `json:"startDate"`
		Name      []struct {
			Language string `json:"language"`
			Text     string `json:"text"`
		} `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse holiday API response: %w", err)
	}

	holidays := make([]Holiday, 0, len(items))
	for _, item := range items {
		description := ""
		if len(item.Name) > 0 {
			description = item.Name[0].Text
		}
		for _, name := range item.Name {
			if name.Language == "EN" {
				description = name.Text
				break
			}
		}
		holidays = append(holidays, Holiday{Date: item.StartDate, Description: description})
	}

	c.logger.Debug("fetched holidays", "country", country, "subdivision", subdivision,
		"year", year, "count", len(holidays))
	return holidays, nil
}
