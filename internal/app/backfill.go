package app

import (
	"context"
	"errors"
	"time"

	"fxhedge/internal/service"
	"fxhedge/internal/storage"
)

// Backfill seeds snapshot history for past slots from the simulated source, so
// that export and show have data before the live service has run for long.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	interval := a.Config.Scheduler.Interval
	if interval <= 0 {
		return errors.New("scheduler.interval must be greater than zero")
	}

	start := alignForward(opts.From.UTC(), interval)
	end := opts.To.UTC()
	if !start.Before(end) {
		return errors.New("backfill range is empty; check --from/--to")
	}

	var snapshots storage.SnapshotStore
	if opts.DryRun {
		a.Logger.Warn().Msg("backfill dry-run: nothing will be written")
	} else {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn not configured; cannot backfill")
		}
		defer closeStore()
		snapshots = store
	}

	sim, err := a.newSimulated()
	if err != nil {
		return err
	}
	svc, err := service.New(a.Config, nil, sim, snapshots, nil, nil, a.Logger)
	if err != nil {
		return err
	}

	processed := 0
	failed := 0
	for slot := start; slot.Before(end); slot = slot.Add(interval) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := svc.ProcessSlot(ctx, slot); err != nil {
			failed++
			a.Logger.Error().Err(err).Time("slot", slot).Msg("backfill slot failed")
			continue
		}
		processed++
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Msg("backfill finished")
	if failed > 0 {
		return errors.New("some backfill slots failed; check the logs")
	}
	return nil
}

func alignForward(t time.Time, interval time.Duration) time.Time {
	truncated := t.Truncate(interval)
	if truncated.Before(t) {
		return truncated.Add(interval)
	}
	return truncated
}
