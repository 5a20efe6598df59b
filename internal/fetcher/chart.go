package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

// SourceChart tags quotes produced by Chart.
const SourceChart = "chart"

const defaultChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// ChartOptions parameterise the HTTP chart fetcher.
type ChartOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Chart fetches daily closes from a Yahoo-style chart API (`/{SYMBOL}=X`).
type Chart struct {
	opts    ChartOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewChart constructs a chart fetcher.
func NewChart(opts ChartOptions, logger zerolog.Logger) *Chart {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultChartBaseURL
	}

	return &Chart{
		opts:    opts,
		logger:  logger.With().Str("component", "chart_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchSpot returns the latest close for pair, rounded to 4dp.
func (c *Chart) FetchSpot(ctx context.Context, pair forward.CurrencyPair) (Quote, error) {
	endpoint := fmt.Sprintf("%s/%s=X?%s", c.baseURL, url.PathEscape(pair.Symbol()), url.Values{
		"range":    {"1d"},
		"interval": {"1d"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "fxhedge/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return Quote{}, parseChartError(resp.StatusCode, payload)
	}

	var chartRes chartResponse
	if err := json.Unmarshal(payload, &chartRes); err != nil {
		return Quote{}, fmt.Errorf("decode chart response: %w", err)
	}
	if chartRes.Chart.Error != nil {
		return Quote{}, fmt.Errorf("chart api error: %s", chartRes.Chart.Error.message())
	}
	if len(chartRes.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("%w: %s returned no chart data", ErrPairUnavailable, pair)
	}

	result := chartRes.Chart.Result[0]
	rate, ok := result.lastClose()
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s has no close", ErrPairUnavailable, pair)
	}
	if !rate.IsPositive() {
		return Quote{}, errors.New("chart api returned non-positive rate")
	}

	asOf := time.Now().UTC()
	if result.Meta.RegularMarketTime > 0 {
		asOf = time.Unix(result.Meta.RegularMarketTime, 0).UTC()
	}

	rate = rate.Round(spotPlaces)
	c.logger.Debug().Str("pair", pair.String()).Str("rate", rate.String()).Msg("chart spot")

	return Quote{Pair: pair, Rate: rate, Source: SourceChart, AsOf: asOf}, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string           `json:"symbol"`
		RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice"`
		RegularMarketTime  int64            `json:"regularMarketTime"`
	} `json:"meta"`
	Indicators struct {
		Quote []struct {
			Close []*decimal.Decimal `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// lastClose prefers the last non-null close and falls back to the market price.
func (r chartResult) lastClose() (decimal.Decimal, bool) {
	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				return *closes[i], true
			}
		}
	}
	if r.Meta.RegularMarketPrice != nil {
		return *r.Meta.RegularMarketPrice, true
	}
	return decimal.Decimal{}, false
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *chartError) message() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

func parseChartError(status int, payload []byte) error {
	var body chartResponse
	if err := json.Unmarshal(payload, &body); err == nil && body.Chart.Error != nil {
		return fmt.Errorf("chart api error (%d): %s", status, body.Chart.Error.message())
	}
	if len(payload) > 0 {
		return fmt.Errorf("chart api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("chart api error (%d)", status)
}

var _ SpotFetcher = (*Chart)(nil)
