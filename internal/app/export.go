package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxhedge/internal/forward"
	"fxhedge/internal/report"
	"fxhedge/internal/storage"
)

// Export renders snapshot history for one pair as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	pairRaw := opts.Pair
	if pairRaw == "" {
		pairRaw = a.Config.Analysis.Pair
	}
	pair, err := forward.ParsePair(pairRaw)
	if err != nil {
		return err
	}
	tenorRaw := opts.Tenor
	if tenorRaw == "" {
		tenorRaw = a.Config.Alerting.Tenor
	}
	tenor, err := forward.ParseTenor(tenorRaw)
	if err != nil {
		return err
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := a.now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	snapshots, err := store.ListSnapshotsBetween(ctx, pair.String(), from, to)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		a.Logger.Info().Str("pair", pair.String()).Msg("no snapshots found for export window")
		return nil
	}

	if opts.CSVPath != "" {
		rows := report.Downsample(snapshots, opts.MaxPoints)
		a.Logger.Info().Int("total", len(snapshots)).Int("exported", len(rows)).Msg("exporting snapshots")
		if err := report.WriteSnapshotsCSV(opts.CSVPath, rows); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		series := report.Downsample(filterTenor(snapshots, tenor), opts.MaxPoints)
		if err := report.HistoryChart(opts.PNGPath, series); err != nil {
			return fmt.Errorf("render %s %s history: %w", pair, tenor, err)
		}
	}

	return nil
}

func filterTenor(rows []storage.CurveSnapshot, tenor forward.Tenor) []storage.CurveSnapshot {
	out := make([]storage.CurveSnapshot, 0, len(rows)/len(forward.Schedule)+1)
	for _, r := range rows {
		if r.Tenor == tenor.String() {
			out = append(out, r)
		}
	}
	return out
}
