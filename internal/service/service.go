package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxhedge/internal/alerting"
	"fxhedge/internal/config"
	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/scheduler"
	"fxhedge/internal/storage"
)

// ErrNoQuotes is returned when no configured pair could be quoted.
var ErrNoQuotes = errors.New("service: no spot quotes available")

// CurveResult pairs a built curve with the quote it was priced from.
type CurveResult struct {
	Quote fetcher.Quote
	Curve forward.Curve
}

// Service fetches spots, builds forward curves, persists snapshots and raises premium alerts.
type Service struct {
	scheduler  *scheduler.Scheduler
	spots      fetcher.SpotFetcher
	builder    *forward.Builder
	store      storage.SnapshotStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	pairs      []forward.CurrencyPair
	threshold  decimal.Decimal
	alertTenor forward.Tenor
	channels   []string
	alertsOn   bool
	retention  time.Duration
	locker     storage.AdvisoryLocker
	lockKey    int64
}

// New constructs the snapshot service. store, alertStore and notifier may be nil.
func New(cfg *config.Config, sched *scheduler.Scheduler, spots fetcher.SpotFetcher, store storage.SnapshotStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) (*Service, error) {
	if spots == nil {
		return nil, fmt.Errorf("spot fetcher is required")
	}
	pairs, err := cfg.MarketPairs()
	if err != nil {
		return nil, err
	}

	alertTenor := forward.Tenor1Y
	if cfg.Alerting.Tenor != "" {
		alertTenor, err = forward.ParseTenor(cfg.Alerting.Tenor)
		if err != nil {
			return nil, fmt.Errorf("alerting.tenor: %w", err)
		}
	}

	threshold := decimal.Zero
	if cfg.Alerting.Enabled && cfg.Alerting.ThresholdPct > 0 {
		threshold = decimal.NewFromFloat(cfg.Alerting.ThresholdPct)
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:  sched,
		spots:      spots,
		builder:    forward.NewBuilder(cfg.RateTable()),
		store:      store,
		alertStore: alertStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
		pairs:      pairs,
		threshold:  threshold,
		alertTenor: alertTenor,
		channels:   cfg.Alerting.Channels,
		alertsOn:   cfg.Alerting.Enabled,
		retention:  cfg.Alerting.Retention,
		locker:     locker,
		lockKey:    cfg.Scheduler.AdvisoryLockKey,
	}, nil
}

// Pairs returns the configured market pairs in order.
func (s *Service) Pairs() []forward.CurrencyPair {
	return append([]forward.CurrencyPair(nil), s.pairs...)
}

// Run begins the periodic snapshot loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessSlot)
}

// BuildCurve fetches the spot for pair and builds its forward curve as of asOf.
func (s *Service) BuildCurve(ctx context.Context, pair forward.CurrencyPair, asOf time.Time) (CurveResult, error) {
	q, err := s.spots.FetchSpot(ctx, pair)
	if err != nil {
		return CurveResult{}, fmt.Errorf("fetch spot %s: %w", pair, err)
	}
	curve, err := s.builder.Build(pair, q.Rate, asOf)
	if err != nil {
		return CurveResult{}, fmt.Errorf("build curve %s: %w", pair, err)
	}
	return CurveResult{Quote: q, Curve: curve}, nil
}

// BuildCurves builds curves for every configured pair that could be quoted, in
// configured order. Pairs that fail are logged and skipped.
func (s *Service) BuildCurves(ctx context.Context, asOf time.Time) ([]CurveResult, error) {
	quotes, fetchErr := fetcher.FetchAll(ctx, s.spots, s.pairs)
	if fetchErr != nil {
		s.logger.Warn().Err(fetchErr).Int("quoted", len(quotes)).Int("configured", len(s.pairs)).Msg("some pairs could not be quoted")
	}
	if len(quotes) == 0 {
		if fetchErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoQuotes, fetchErr)
		}
		return nil, ErrNoQuotes
	}

	out := make([]CurveResult, 0, len(quotes))
	for _, q := range quotes {
		curve, err := s.builder.Build(q.Pair, q.Rate, asOf)
		if err != nil {
			s.logger.Warn().Err(err).Str("pair", q.Pair.String()).Msg("skipping pair")
			continue
		}
		out = append(out, CurveResult{Quote: q, Curve: curve})
	}
	if len(out) == 0 {
		return nil, ErrNoQuotes
	}
	return out, nil
}

// ProcessSlot takes one snapshot of all configured curves.
func (s *Service) ProcessSlot(ctx context.Context, slot time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("slot", slot).Msg("skip slot because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeSlot(ctx, slot)
}

func (s *Service) executeSlot(ctx context.Context, slot time.Time) error {
	results, err := s.BuildCurves(ctx, slot)
	if err != nil {
		return err
	}

	if s.store != nil {
		var rows []storage.CurveSnapshot
		for _, r := range results {
			rows = append(rows, storage.SnapshotsFromCurve(r.Curve, slot, r.Quote.Source)...)
		}
		if err := s.store.UpsertCurveSnapshots(ctx, rows); err != nil {
			s.logger.Error().Err(err).Time("slot", slot).Msg("failed to persist curve snapshots")
		}
	}

	for _, r := range results {
		point, err := r.Curve.Lookup(s.alertTenor)
		if err != nil {
			continue
		}
		premium := premiumPct(point.ForwardRate, r.Quote.Rate)
		s.logger.Info().Time("slot", slot).
			Str("pair", r.Curve.Pair().String()).
			Str("spot", r.Quote.Rate.String()).
			Str("tenor", s.alertTenor.String()).
			Str("premium_pct", premium.String()).
			Msg("curve snapshot recorded")

		s.maybeAlert(ctx, slot, r, point, premium)
	}

	if s.retention > 0 && s.alertStore != nil {
		if err := s.alertStore.DeleteAlertsBefore(ctx, slot.Add(-s.retention)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to prune old alerts")
		}
	}
	return nil
}

func (s *Service) maybeAlert(ctx context.Context, slot time.Time, r CurveResult, point forward.Point, premium decimal.Decimal) {
	if !s.alertsOn || s.notifier == nil || s.threshold.IsZero() {
		return
	}
	if !premium.Abs().GreaterThan(s.threshold) {
		return
	}

	pair := r.Curve.Pair().String()
	direction := alerting.Direction(premium)
	note := alerting.Notification{
		CapturedAt:    slot,
		Pair:          pair,
		Tenor:         s.alertTenor.String(),
		SpotRate:      r.Quote.Rate,
		ForwardRate:   point.ForwardRate,
		ForwardPoints: point.ForwardPoints,
		PremiumPct:    premium,
		ThresholdPct:  s.threshold,
		Direction:     direction,
		Channels:      s.channels,
	}
	if s.alertStore != nil {
		record := storage.AlertRecord{
			CapturedAt:   slot,
			Pair:         pair,
			Tenor:        s.alertTenor.String(),
			PremiumPct:   premium,
			ThresholdPct: s.threshold,
			Direction:    direction,
			Channels:     s.channels,
		}
		if _, err := s.alertStore.InsertAlert(ctx, record); err != nil {
			s.logger.Error().Err(err).Str("pair", pair).Msg("failed to persist alert record")
		}
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("pair", pair).Msg("failed to dispatch alert")
	}
}

func premiumPct(fwd, spot decimal.Decimal) decimal.Decimal {
	if !spot.IsPositive() {
		return decimal.Zero
	}
	return fwd.Sub(spot).Div(spot).Mul(decimal.NewFromInt(100)).Round(4)
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
