package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/hedging"
	"fxhedge/internal/service"
	"fxhedge/internal/storage"
)

var asOf = time.Date(2024, 12, 2, 9, 30, 0, 0, time.UTC)

type staticCurves struct {
	spots map[forward.CurrencyPair]decimal.Decimal
	rates forward.RateTable
}

func (s staticCurves) BuildCurve(_ context.Context, pair forward.CurrencyPair, at time.Time) (service.CurveResult, error) {
	spot, ok := s.spots[pair]
	if !ok {
		return service.CurveResult{}, fmt.Errorf("%w: %s", fetcher.ErrPairUnavailable, pair)
	}
	curve, err := forward.BuildCurve(pair, spot, s.rates, at)
	if err != nil {
		return service.CurveResult{}, err
	}
	return service.CurveResult{
		Quote: fetcher.Quote{Pair: pair, Rate: spot, Source: "static", AsOf: at},
		Curve: curve,
	}, nil
}

func (s staticCurves) Pairs() []forward.CurrencyPair {
	return []forward.CurrencyPair{forward.MustParsePair("USD/CAD"), forward.MustParsePair("EUR/USD")}
}

type memoryAnalyses struct {
	mu   sync.Mutex
	rows []storage.HedgeAnalysis
}

func (m *memoryAnalyses) InsertHedgeAnalysis(_ context.Context, rec storage.HedgeAnalysis) (storage.HedgeAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = asOf
	m.rows = append(m.rows, rec)
	return rec, nil
}

func (m *memoryAnalyses) ListRecentAnalyses(_ context.Context, limit int) ([]storage.HedgeAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.HedgeAnalysis(nil), m.rows...), nil
}

func newTestRouter(t *testing.T, opts Options, analyses storage.AnalysisStore) http.Handler {
	t.Helper()
	curves := staticCurves{
		spots: map[forward.CurrencyPair]decimal.Decimal{
			forward.MustParsePair("USD/CAD"): decimal.RequireFromString("1.4320"),
			forward.MustParsePair("EUR/USD"): decimal.RequireFromString("1.0545"),
		},
		rates: forward.RateTableFromFloats(map[string]float64{"USD": 0.045, "CAD": 0.0375, "EUR": 0.03}),
	}
	h := NewHandler(curves, analyses, zerolog.Nop())
	h.now = func() time.Time { return asOf }
	return NewRouter(opts, h)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, Options{}, nil)
	rec := do(t, router, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthzReportsDatabase(t *testing.T) {
	h := NewHandler(staticCurves{}, nil, zerolog.Nop()).WithDatabase(failingPinger{})
	rec := do(t, NewRouter(Options{}, h), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unavailable", body["database"])
}

func TestPairs(t *testing.T) {
	router := newTestRouter(t, Options{}, nil)
	rec := do(t, router, http.MethodGet, "/v1/pairs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"USD/CAD", "EUR/USD"}, decodeBody(t, rec)["pairs"])
}

func TestCurveEndpoint(t *testing.T) {
	router := newTestRouter(t, Options{}, nil)
	rec := do(t, router, http.MethodGet, "/v1/curves/usd/cad", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body curveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "USD/CAD", body.Pair)
	assert.Equal(t, "2024-12-02", body.AsOf)
	assert.Equal(t, "static", body.Source)
	require.Len(t, body.Points, len(forward.Schedule))
	six := body.Points[5]
	assert.Equal(t, "6M", six.Tenor)
	assert.Equal(t, "1.4268", six.ForwardRate.StringFixed(4))
	assert.Equal(t, "-52.00", six.ForwardPoints.StringFixed(2))
	assert.Equal(t, "2025-05-31", six.SettlementDate)
}

func TestCurveEndpointErrors(t *testing.T) {
	router := newTestRouter(t, Options{}, nil)

	cases := []struct {
		name string
		path string
		want int
	}{
		{name: "malformed code", path: "/v1/curves/US/CAD", want: http.StatusBadRequest},
		{name: "same legs", path: "/v1/curves/USD/USD", want: http.StatusBadRequest},
		{name: "unquoted pair", path: "/v1/curves/GBP/USD", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tc.path, "")
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHedgeEndpoint(t *testing.T) {
	store := &memoryAnalyses{}
	router := newTestRouter(t, Options{}, store)

	rec := do(t, router, http.MethodPost, "/v1/hedges/USD/CAD",
		`{"notional": 5000000, "tenor": "6m", "hedge_ratio": 0.75, "market_view": "Neutral"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body hedgeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "USD/CAD", body.Pair)
	assert.Equal(t, "1.4268", body.Cost.ForwardRate.StringFixed(4))
	assert.True(t, body.Cost.HedgedAmount.Equal(decimal.NewFromInt(3_750_000)))
	assert.Len(t, body.Scenarios, len(hedging.DefaultShocks))
	require.Len(t, body.Comparison.Rows, 5)
	assert.True(t, body.Comparison.FutureSpot.Equal(decimal.RequireFromString("1.4320")))
	assert.Equal(t, "neutral", body.Recommendation.View)
	assert.Contains(t, body.Recommendation.Action, "3,750,000 USD vs CAD at 1.4268")

	require.Len(t, store.rows, 1)
	assert.Equal(t, store.rows[0].ID.String(), body.AnalysisID)
	assert.Equal(t, "6M", store.rows[0].Tenor)
}

func TestHedgeEndpointCustomScenarios(t *testing.T) {
	router := newTestRouter(t, Options{}, nil)
	rec := do(t, router, http.MethodPost, "/v1/hedges/EUR/USD",
		`{"notional": 1000000, "tenor": "1Y", "scenarios": [1.00, 1.10], "future_spot": 1.2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body hedgeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Scenarios, 2)
	assert.True(t, body.Scenarios[0].FutureSpot.Equal(decimal.RequireFromString("1.00")))
	assert.True(t, body.Cost.HedgeRatio.Equal(decimal.NewFromInt(1)))
	assert.True(t, body.Comparison.FutureSpot.Equal(decimal.RequireFromString("1.2")))
	assert.Empty(t, body.AnalysisID)
}

func TestHedgeEndpointValidation(t *testing.T) {
	router := newTestRouter(t, Options{}, nil)

	rec := do(t, router, http.MethodPost, "/v1/hedges/USD/CAD", `{"notional": 0, "tenor": "6M", "hedge_ratio": 1.5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields, ok := decodeBody(t, rec)["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "Notional")
	assert.Contains(t, fields, "HedgeRatio")

	rec = do(t, router, http.MethodPost, "/v1/hedges/USD/CAD", `{"notional": 10, "tenor": "5Y"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "tenor not found")

	rec = do(t, router, http.MethodPost, "/v1/hedges/USD/CAD", `{"notional": 10, "tenor": "6M", "extra": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/hedges/GBP/USD", `{"notional": 10, "tenor": "6M"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, Options{RateLimit: 2, RateWindow: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "").Code)
	}
	rec := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
