package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxhedge/internal/alerting"
	"fxhedge/internal/config"
	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/storage"
)

type memoryStore struct {
	mu     sync.Mutex
	rows   []storage.CurveSnapshot
	alerts []storage.AlertRecord

	lockFree bool
	locks    int
	unlocks  int
}

func (m *memoryStore) UpsertCurveSnapshots(_ context.Context, rows []storage.CurveSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memoryStore) ListSnapshotsBetween(context.Context, string, time.Time, time.Time) ([]storage.CurveSnapshot, error) {
	return nil, nil
}

func (m *memoryStore) ListRecentSnapshots(context.Context, storage.SnapshotFilter) ([]storage.CurveSnapshot, error) {
	return m.rows, nil
}

func (m *memoryStore) CountSnapshots(context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

func (m *memoryStore) TryAdvisoryLock(context.Context, int64) (func(), bool, error) {
	m.locks++
	if !m.lockFree {
		return nil, false, nil
	}
	return func() { m.unlocks++ }, true, nil
}

func (m *memoryStore) InsertAlert(_ context.Context, rec storage.AlertRecord) (storage.AlertRecord, error) {
	m.alerts = append(m.alerts, rec)
	return rec, nil
}

func (m *memoryStore) ListRecentAlerts(context.Context, int) ([]storage.AlertRecord, error) {
	return m.alerts, nil
}

func (m *memoryStore) DeleteAlertsBefore(_ context.Context, olderThan time.Time) error {
	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if !a.CapturedAt.Before(olderThan) {
			kept = append(kept, a)
		}
	}
	m.alerts = kept
	return nil
}

type recordingNotifier struct {
	notes []alerting.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, note alerting.Notification) error {
	r.notes = append(r.notes, note)
	return nil
}

func testConfig(pairs ...string) *config.Config {
	return &config.Config{
		Rates: map[string]float64{"USD": 0.045, "EUR": 0.03, "CAD": 0.0375, "JPY": 0.001},
		Market: config.MarketConfig{
			Pairs: pairs,
		},
		Alerting: config.AlertingConfig{
			Enabled:      true,
			ThresholdPct: 2,
			Tenor:        "1Y",
			Channels:     []string{"log"},
		},
		Scheduler: config.SchedulerConfig{AdvisoryLockKey: 42},
	}
}

func staticSpots(t *testing.T) fetcher.SpotFetcher {
	t.Helper()
	sim, err := fetcher.NewSimulated(fetcher.SimulatedOptions{Spots: map[string]float64{
		"EUR/USD": 1.0545,
		"USD/CAD": 1.4320,
		"USD/JPY": 149.85,
	}}, zerolog.Nop())
	require.NoError(t, err)
	return sim
}

func TestProcessSlotPersistsAndAlerts(t *testing.T) {
	store := &memoryStore{lockFree: true}
	notifier := &recordingNotifier{}
	svc, err := New(testConfig("EUR/USD", "USD/CAD", "USD/JPY"), nil, staticSpots(t), store, store, notifier, zerolog.Nop())
	require.NoError(t, err)

	slot := time.Date(2024, 12, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.ProcessSlot(context.Background(), slot))

	assert.Len(t, store.rows, 3*len(forward.Schedule))
	assert.Equal(t, 1, store.locks)
	assert.Equal(t, 1, store.unlocks)

	// Only USD/JPY's 1Y discount exceeds 2%.
	require.Len(t, notifier.notes, 1)
	note := notifier.notes[0]
	assert.Equal(t, "USD/JPY", note.Pair)
	assert.Equal(t, "1Y", note.Tenor)
	assert.Equal(t, "discount", note.Direction)
	assert.True(t, note.PremiumPct.LessThan(note.ThresholdPct.Neg()), "premium %s", note.PremiumPct)
	require.Len(t, store.alerts, 1)
	assert.Equal(t, slot, store.alerts[0].CapturedAt)
}

func TestProcessSlotPrunesExpiredAlerts(t *testing.T) {
	cfg := testConfig("USD/JPY")
	cfg.Alerting.Retention = time.Hour
	store := &memoryStore{lockFree: true}
	svc, err := New(cfg, nil, staticSpots(t), store, store, &recordingNotifier{}, zerolog.Nop())
	require.NoError(t, err)

	first := time.Date(2024, 12, 2, 10, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	require.NoError(t, svc.ProcessSlot(context.Background(), first))
	require.NoError(t, svc.ProcessSlot(context.Background(), second))

	require.Len(t, store.alerts, 1)
	assert.Equal(t, second, store.alerts[0].CapturedAt)
}

func TestProcessSlotSkipsWhenLockHeld(t *testing.T) {
	store := &memoryStore{}
	svc, err := New(testConfig("EUR/USD"), nil, staticSpots(t), store, store, &recordingNotifier{}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, svc.ProcessSlot(context.Background(), time.Now()))
	assert.Empty(t, store.rows)
	assert.Equal(t, 1, store.locks)
}

func TestBuildCurvesSkipsUnquotedPairs(t *testing.T) {
	svc, err := New(testConfig("USD/JPY", "GBP/USD", "USD/CAD"), nil, staticSpots(t), nil, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	results, err := svc.BuildCurves(context.Background(), time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "USD/JPY", results[0].Curve.Pair().String())
	assert.Equal(t, "USD/CAD", results[1].Curve.Pair().String())

	sixMonth, err := results[1].Curve.Lookup(forward.Tenor6M)
	require.NoError(t, err)
	assert.Equal(t, "1.4268", sixMonth.ForwardRate.String())
}

func TestBuildCurvesNoQuotes(t *testing.T) {
	svc, err := New(testConfig("GBP/USD"), nil, staticSpots(t), nil, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = svc.BuildCurves(context.Background(), time.Now())
	assert.True(t, errors.Is(err, ErrNoQuotes))
	assert.True(t, errors.Is(err, fetcher.ErrPairUnavailable))
}

func TestBuildCurveSinglePair(t *testing.T) {
	svc, err := New(testConfig("EUR/USD"), nil, staticSpots(t), nil, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	res, err := svc.BuildCurve(context.Background(), forward.MustParsePair("USD/CAD"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceSimulated, res.Quote.Source)
	assert.Equal(t, len(forward.Schedule), res.Curve.Len())

	_, err = svc.BuildCurve(context.Background(), forward.MustParsePair("GBP/USD"), time.Now())
	assert.ErrorIs(t, err, fetcher.ErrPairUnavailable)
}

func TestRunWithoutScheduler(t *testing.T) {
	svc, err := New(testConfig("EUR/USD"), nil, staticSpots(t), nil, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Error(t, svc.Run(context.Background()))
}
