package app

import (
	"context"
	"fmt"
	"path/filepath"

	"fxhedge/internal/forward"
	"fxhedge/internal/report"
)

// Curves prints the forward curve of every configured pair that could be quoted.
func (a *App) Curves(ctx context.Context, opts CurvesOptions) error {
	spots, closeSpots, err := a.newSpotFetcher()
	if err != nil {
		return err
	}
	defer closeSpots()
	svc, err := a.newService(spots)
	if err != nil {
		return err
	}

	now := a.now()
	results, err := svc.BuildCurves(ctx, now)
	if err != nil {
		return err
	}

	w := a.Out
	report.Section(w, "FORWARD CURVES")
	curves := make([]forward.Curve, 0, len(results))
	for _, r := range results {
		fmt.Fprintf(w, "\n%s  spot %s (%s)\n", r.Curve.Pair(), r.Quote.Rate.StringFixed(4), r.Quote.Source)
		if err := report.RenderCurve(w, r.Curve); err != nil {
			return err
		}
		curves = append(curves, r.Curve)
	}

	dir := a.Config.ResolveOutputDir(opts.OutputDir)
	stamp := now.UTC().Format(stampLayout)
	if opts.CSV {
		for _, c := range curves {
			path := filepath.Join(dir, c.Pair().Symbol()+"_forward_curve_"+stamp+".csv")
			if err := report.WriteCurveCSV(path, c); err != nil {
				return fmt.Errorf("export %s curve: %w", c.Pair(), err)
			}
			fmt.Fprintln(w, path)
		}
	}
	if opts.Dashboard {
		path := filepath.Join(dir, "forward_dashboard_"+stamp+".png")
		if err := report.DashboardChart(path, curves); err != nil {
			return fmt.Errorf("render dashboard: %w", err)
		}
		fmt.Fprintln(w, path)
	}
	return nil
}
