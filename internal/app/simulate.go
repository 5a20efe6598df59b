package app

import (
	"context"
	"errors"
	"fmt"

	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/service"
)

// SimulateAlert runs one snapshot slot for pair at a fixed spot through the
// configured alert channels.
func (a *App) SimulateAlert(ctx context.Context, pairRaw string, spot float64) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}
	if spot <= 0 {
		return fmt.Errorf("%w: %v", forward.ErrInvalidSpot, spot)
	}
	pair, err := forward.ParsePair(pairRaw)
	if err != nil {
		return err
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	static, err := fetcher.NewSimulated(fetcher.SimulatedOptions{
		Spots: map[string]float64{pair.String(): spot},
		Seed:  1,
		Now:   a.now,
	}, a.Logger)
	if err != nil {
		return err
	}

	cfg := *a.Config
	cfg.Market.Pairs = []string{pair.String()}
	svc, err := service.New(&cfg, nil, static, nil, nil, notifier, a.Logger)
	if err != nil {
		return err
	}

	slot := a.now().UTC().Truncate(a.Config.Scheduler.Interval)
	return svc.ProcessSlot(ctx, slot)
}
