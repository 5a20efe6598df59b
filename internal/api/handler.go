package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
	"fxhedge/internal/hedging"
	"fxhedge/internal/service"
	"fxhedge/internal/storage"
	"fxhedge/internal/version"
)

const maxBodyBytes = 1 << 16

// CurveProvider builds a forward curve for a pair from a fresh spot.
type CurveProvider interface {
	BuildCurve(ctx context.Context, pair forward.CurrencyPair, asOf time.Time) (service.CurveResult, error)
	Pairs() []forward.CurrencyPair
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the curve and hedge endpoints.
type Handler struct {
	curves    CurveProvider
	analyses  storage.AnalysisStore
	db        Pinger
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHandler wires the HTTP handlers. analyses may be nil to skip recording runs.
func NewHandler(curves CurveProvider, analyses storage.AnalysisStore, logger zerolog.Logger) *Handler {
	return &Handler{
		curves:    curves,
		analyses:  analyses,
		validator: validator.New(),
		logger:    logger.With().Str("component", "api").Logger(),
		now:       time.Now,
	}
}

// WithDatabase makes /healthz report database reachability.
func (h *Handler) WithDatabase(db Pinger) *Handler {
	h.db = db
	return h
}

// MountRoutes registers the endpoints onto r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/pairs", h.handlePairs)
		v1.Get("/curves/{base}/{quote}", h.handleCurve)
		v1.Post("/hedges/{base}/{quote}", h.handleHedge)
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: version.Version}
	status := http.StatusOK
	if h.db != nil {
		resp.Database = "ok"
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("database ping failed")
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handlePairs(w http.ResponseWriter, r *http.Request) {
	pairs := h.curves.Pairs()
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.String())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"pairs": out})
}

func (h *Handler) handleCurve(w http.ResponseWriter, r *http.Request) {
	pair, ok := h.pairFromPath(w, r)
	if !ok {
		return
	}

	res, err := h.curves.BuildCurve(r.Context(), pair, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCurveResponse(res))
}

// HedgeRequest is the body of POST /v1/hedges/{base}/{quote}.
type HedgeRequest struct {
	Notional   float64   `json:"notional" validate:"gt=0"`
	Tenor      string    `json:"tenor" validate:"required"`
	HedgeRatio *float64  `json:"hedge_ratio" validate:"omitempty,gte=0,lte=1"`
	MarketView string    `json:"market_view" validate:"max=32"`
	FutureSpot *float64  `json:"future_spot" validate:"omitempty,gt=0"`
	Scenarios  []float64 `json:"scenarios" validate:"max=50,dive,gt=0"`
}

func (h *Handler) handleHedge(w http.ResponseWriter, r *http.Request) {
	pair, ok := h.pairFromPath(w, r)
	if !ok {
		return
	}

	var req HedgeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.writeValidation(w, err)
		return
	}
	tenor, err := forward.ParseTenor(req.Tenor)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.curves.BuildCurve(r.Context(), pair, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.analyze(r.Context(), res, tenor, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) analyze(ctx context.Context, res service.CurveResult, tenor forward.Tenor, req HedgeRequest) (hedgeResponse, error) {
	analyzer, err := hedging.NewAnalyzer(res.Curve)
	if err != nil {
		return hedgeResponse{}, err
	}

	notional := decimal.NewFromFloat(req.Notional)
	ratio := hedging.FullHedge
	if req.HedgeRatio != nil {
		ratio = decimal.NewFromFloat(*req.HedgeRatio)
	}

	cost, err := analyzer.HedgeCost(notional, tenor, ratio)
	if err != nil {
		return hedgeResponse{}, err
	}

	var spots []decimal.Decimal
	for _, s := range req.Scenarios {
		spots = append(spots, decimal.NewFromFloat(s))
	}
	scenarios, err := analyzer.Scenarios(notional, tenor, ratio, spots)
	if err != nil {
		return hedgeResponse{}, err
	}

	futureSpot := scenarios[len(scenarios)/2].FutureSpot
	if req.FutureSpot != nil {
		futureSpot = decimal.NewFromFloat(*req.FutureSpot)
	}
	comparison, err := analyzer.CompareRatios(notional, tenor, futureSpot)
	if err != nil {
		return hedgeResponse{}, err
	}

	rec, err := analyzer.Recommend(notional, tenor, req.MarketView)
	if err != nil {
		return hedgeResponse{}, err
	}

	out := hedgeResponse{
		Pair:           res.Curve.Pair().String(),
		Source:         res.Quote.Source,
		Cost:           newHedgeInfoDTO(cost),
		Scenarios:      newScenarioDTOs(scenarios),
		Comparison:     comparisonDTO{FutureSpot: futureSpot, Rows: newComparisonDTOs(comparison)},
		Recommendation: newRecommendationDTO(rec),
	}

	if h.analyses != nil {
		stored, err := h.analyses.InsertHedgeAnalysis(ctx, storage.HedgeAnalysis{
			Pair:             out.Pair,
			Notional:         notional,
			Tenor:            tenor.String(),
			HedgeRatio:       ratio,
			MarketView:       string(rec.View),
			RecommendedRatio: rec.HedgeRatio,
			SpotRate:         cost.SpotRate,
			ForwardRate:      cost.ForwardRate,
			PremiumPct:       cost.PremiumDiscountPct,
			Action:           rec.Action,
		})
		if err != nil {
			h.logger.Warn().Err(err).Str("pair", out.Pair).Msg("failed to record hedge analysis")
		} else {
			out.AnalysisID = stored.ID.String()
		}
	}
	return out, nil
}

func (h *Handler) pairFromPath(w http.ResponseWriter, r *http.Request) (forward.CurrencyPair, bool) {
	pair, err := forward.NewPair(chi.URLParam(r, "base"), chi.URLParam(r, "quote"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, err.Error())
		return forward.CurrencyPair{}, false
	}
	return pair, true
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed %q constraint", fe.Tag())
	}
	writeJSON(w, http.StatusBadRequest, Problem{
		Title:  http.StatusText(http.StatusBadRequest),
		Status: http.StatusBadRequest,
		Detail: "request validation failed",
		Fields: fields,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	writeProblem(w, status, err.Error())
}
