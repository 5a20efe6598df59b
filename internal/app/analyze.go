package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/hedging"
	"fxhedge/internal/report"
	"fxhedge/internal/service"
	"fxhedge/internal/storage"
)

const stampLayout = "20060102_150405"

type artifact struct {
	name  string
	write func(path string) error
}

// Analyze runs the full hedging workflow for one exposure and prints each step.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	opts = a.resolveAnalyze(opts)

	pair, err := forward.ParsePair(opts.Pair)
	if err != nil {
		return err
	}
	tenor, err := forward.ParseTenor(opts.Tenor)
	if err != nil {
		return err
	}
	if opts.Notional <= 0 {
		return fmt.Errorf("notional must be greater than zero")
	}
	notional := decimal.NewFromFloat(opts.Notional)
	ratio := decimal.NewFromFloat(*opts.HedgeRatio)

	spots, closeSpots, err := a.newSpotFetcher()
	if err != nil {
		return err
	}
	defer closeSpots()
	svc, err := a.newService(spots)
	if err != nil {
		return err
	}

	w := a.Out
	report.Section(w, "FX FORWARD HEDGING ANALYSIS")
	fmt.Fprintf(w, "Currency Pair:  %s\nNotional:       %s %s\nTenor:          %s\nHedge Ratio:    %s\nMarket View:    %s\n",
		pair, notional.StringFixed(0), pair.Base, tenor, hedging.RatioLabel(ratio), hedging.ParseMarketView(opts.MarketView))

	now := a.now()
	res, err := a.curveWithFallback(ctx, svc, pair, now)
	if err != nil {
		return err
	}
	pair = res.Curve.Pair()

	report.Section(w, "STEP 1: MARKET DATA")
	if err := report.RenderQuotes(w, []fetcher.Quote{res.Quote}); err != nil {
		return err
	}

	report.Section(w, "STEP 2: FORWARD CURVE")
	if err := report.RenderCurve(w, res.Curve); err != nil {
		return err
	}

	analyzer, err := hedging.NewAnalyzer(res.Curve)
	if err != nil {
		return err
	}

	report.Section(w, "STEP 3: HEDGE COST")
	info, err := analyzer.HedgeCost(notional, tenor, ratio)
	if err != nil {
		return err
	}
	if err := report.RenderHedge(w, info); err != nil {
		return err
	}

	report.Section(w, "STEP 4: SCENARIO ANALYSIS")
	scenarios, err := analyzer.Scenarios(notional, tenor, ratio, nil)
	if err != nil {
		return err
	}
	if err := report.RenderScenarios(w, scenarios); err != nil {
		return err
	}

	report.Section(w, "STEP 5: HEDGE RATIO COMPARISON")
	futureSpot := scenarios[len(scenarios)/2].FutureSpot
	fmt.Fprintf(w, "At future spot %s\n", futureSpot.StringFixed(4))
	comparison, err := analyzer.CompareRatios(notional, tenor, futureSpot)
	if err != nil {
		return err
	}
	if err := report.RenderComparison(w, comparison); err != nil {
		return err
	}

	report.Section(w, "STEP 6: RECOMMENDATION")
	rec, err := analyzer.Recommend(notional, tenor, opts.MarketView)
	if err != nil {
		return err
	}
	if err := report.RenderRecommendation(w, rec); err != nil {
		return err
	}

	prefix := filepath.Join(a.Config.ResolveOutputDir(opts.OutputDir), pair.Symbol()+"_")
	stamp := now.UTC().Format(stampLayout)
	var written []string
	if !opts.NoCharts {
		charts := []artifact{
			{"forward_curve", func(p string) error { return report.CurveChart(p, res.Curve) }},
			{"scenarios", func(p string) error { return report.ScenarioChart(p, scenarios, info) }},
			{"comparison", func(p string) error { return report.ComparisonChart(p, comparison, pair, futureSpot.InexactFloat64()) }},
		}
		for _, c := range charts {
			path := prefix + c.name + "_" + stamp + ".png"
			if err := c.write(path); err != nil {
				return fmt.Errorf("render %s chart: %w", c.name, err)
			}
			written = append(written, path)
		}
	}
	if !opts.NoExport {
		exports := []artifact{
			{"forward_curve", func(p string) error { return report.WriteCurveCSV(p, res.Curve) }},
			{"scenarios", func(p string) error { return report.WriteScenariosCSV(p, scenarios) }},
			{"comparison", func(p string) error { return report.WriteComparisonCSV(p, comparison) }},
		}
		for _, e := range exports {
			path := prefix + e.name + "_" + stamp + ".csv"
			if err := e.write(path); err != nil {
				return fmt.Errorf("export %s: %w", e.name, err)
			}
			written = append(written, path)
		}
	}
	if len(written) > 0 {
		report.Section(w, "OUTPUT FILES")
		for _, p := range written {
			fmt.Fprintln(w, p)
		}
	}

	a.recordAnalysis(ctx, storage.HedgeAnalysis{
		Pair:             pair.String(),
		Notional:         notional,
		Tenor:            tenor.String(),
		HedgeRatio:       ratio,
		MarketView:       string(rec.View),
		RecommendedRatio: rec.HedgeRatio,
		SpotRate:         info.SpotRate,
		ForwardRate:      info.ForwardRate,
		PremiumPct:       info.PremiumDiscountPct,
		Action:           rec.Action,
	})
	return nil
}

func (a *App) resolveAnalyze(opts AnalyzeOptions) AnalyzeOptions {
	def := a.Config.Analysis
	if opts.Pair == "" {
		opts.Pair = def.Pair
	}
	if opts.Notional == 0 {
		opts.Notional = def.Notional
	}
	if opts.Tenor == "" {
		opts.Tenor = def.Tenor
	}
	if opts.HedgeRatio == nil {
		ratio := def.HedgeRatio
		opts.HedgeRatio = &ratio
	}
	if opts.MarketView == "" {
		opts.MarketView = def.MarketView
	}
	return opts
}

// curveWithFallback builds the requested curve, or the first configured pair's
// curve when the requested pair cannot be quoted or priced.
func (a *App) curveWithFallback(ctx context.Context, svc *service.Service, pair forward.CurrencyPair, now time.Time) (service.CurveResult, error) {
	res, err := svc.BuildCurve(ctx, pair, now)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, fetcher.ErrPairUnavailable) && !errors.Is(err, forward.ErrUnknownCurrency) {
		return service.CurveResult{}, err
	}

	pairs := svc.Pairs()
	if len(pairs) == 0 || pairs[0] == pair {
		return service.CurveResult{}, err
	}
	a.Logger.Warn().Err(err).Str("requested", pair.String()).Str("fallback", pairs[0].String()).Msg("pair unavailable, using first configured pair")
	return svc.BuildCurve(ctx, pairs[0], now)
}

func (a *App) recordAnalysis(ctx context.Context, rec storage.HedgeAnalysis) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("analysis not recorded")
		return
	}
	if store == nil {
		return
	}
	defer closeStore()

	stored, err := store.InsertHedgeAnalysis(ctx, rec)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("analysis not recorded")
		return
	}
	a.Logger.Info().Str("id", stored.ID.String()).Msg("analysis recorded")
}
