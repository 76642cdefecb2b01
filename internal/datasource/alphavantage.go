package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/pricecast/pkg/errors"
	"github.com/inferloop/pricecast/pkg/models"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	dateLayout     = "2006-01-02"
)

// Client fetches daily digital-currency closing prices from the Alpha
// Vantage API. Calls are blocking with no retry policy; any failure
// propagates to the caller.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates an Alpha Vantage client.
func NewClient(apiKey string, logger *logrus.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// feedResponse mirrors the daily digital-currency payload. Per-day
// fields arrive as strings keyed by names like "4b. close (USD)".
type feedResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Digital Currency Daily)"`
}

// FetchDailySeries downloads the full daily close-price history for
// symbol quoted in market, ordered oldest first.
func (c *Client) FetchDailySeries(ctx context.Context, symbol, market string) (*models.PriceSeries, error) {
	query := url.Values{}
	query.Set("function", "DIGITAL_CURRENCY_DAILY")
	query.Set("symbol", symbol)
	query.Set("market", market)
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDataSource, errors.CodeFetchFailed,
			"failed to build price feed request")
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"market": market,
	}).Info("Fetching daily price series")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDataSource, errors.CodeFetchFailed,
			fmt.Sprintf("price feed request for %s/%s failed", symbol, market))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewDataSourceError(errors.CodeFetchFailed,
			fmt.Sprintf("price feed returned status %d", resp.StatusCode))
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDataSource, errors.CodeMalformedResponse,
			"failed to decode price feed response")
	}

	if msg := payload.rejection(); msg != "" {
		return nil, errors.NewDataSourceError(errors.CodeFeedRejected, msg)
	}
	if len(payload.TimeSeries) == 0 {
		return nil, errors.NewDataSourceError(errors.CodeMalformedResponse,
			"price feed response contains no daily series")
	}

	series, err := buildSeries(symbol, market, payload.TimeSeries)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"points": series.Len(),
		"range":  series.DisplayRange,
	}).Info("Fetched daily price series")

	return series, nil
}

func (r *feedResponse) rejection() string {
	switch {
	case r.ErrorMessage != "":
		return r.ErrorMessage
	case r.Note != "":
		return r.Note
	case r.Information != "":
		return r.Information
	}
	return ""
}

// buildSeries converts the date-keyed payload into an ascending series.
// Days missing from the feed are simply absent, never interpolated.
func buildSeries(symbol, market string, raw map[string]map[string]string) (*models.PriceSeries, error) {
	closeKey := fmt.Sprintf("4b. close (%s)", market)

	dates := make([]string, 0, len(raw))
	for date := range raw {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]models.PricePoint, 0, len(dates))
	for _, date := range dates {
		day, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeDataSource, errors.CodeMalformedResponse,
				fmt.Sprintf("unparseable date %q in price feed", date))
		}

		fields := raw[date]
		closeStr, ok := fields[closeKey]
		if !ok {
			// Some responses carry only the market-keyed field.
			closeStr, ok = fields["4a. close ("+market+")"]
		}
		if !ok {
			closeStr, ok = fields["4. close"]
		}
		if !ok {
			return nil, errors.NewDataSourceError(errors.CodeMalformedResponse,
				fmt.Sprintf("no close price for %s in price feed", date))
		}

		closePrice, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeDataSource, errors.CodeMalformedResponse,
				fmt.Sprintf("unparseable close price %q for %s", closeStr, date))
		}

		points = append(points, models.PricePoint{Date: day, Close: closePrice})
	}

	return &models.PriceSeries{
		Symbol: symbol,
		Market: market,
		Points: points,
		DisplayRange: fmt.Sprintf("from %s to %s",
			points[0].Date.Format(dateLayout), points[len(points)-1].Date.Format(dateLayout)),
	}, nil
}
