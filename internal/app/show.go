package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fxhedge/internal/report"
	"fxhedge/internal/storage"
)

// Record kinds accepted by Show.
const (
	ShowSnapshots = "snapshots"
	ShowAnalyses  = "analyses"
	ShowAlerts    = "alerts"
)

// Show prints recent persisted records.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show records")
	}
	if closeStore != nil {
		defer closeStore()
	}

	switch strings.ToLower(opts.Kind) {
	case "", ShowSnapshots:
		rows, err := store.ListRecentSnapshots(ctx, storage.SnapshotFilter{
			Pair:  strings.ToUpper(opts.Pair),
			Tenor: strings.ToUpper(opts.Tenor),
			Limit: opts.Limit,
		})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(a.Out, "no snapshots found")
			return nil
		}
		return report.RenderSnapshots(a.Out, rows)
	case ShowAnalyses:
		rows, err := store.ListRecentAnalyses(ctx, opts.Limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(a.Out, "no analyses found")
			return nil
		}
		return report.RenderAnalyses(a.Out, rows)
	case ShowAlerts:
		rows, err := store.ListRecentAlerts(ctx, opts.Limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(a.Out, "no alerts found")
			return nil
		}
		return report.RenderAlerts(a.Out, rows)
	default:
		return fmt.Errorf("unknown record kind %q (want %s, %s or %s)", opts.Kind, ShowSnapshots, ShowAnalyses, ShowAlerts)
	}
}
