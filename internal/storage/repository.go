package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertCurveSnapshotSQL = `INSERT INTO curve_snapshots (
        captured_at,
        pair,
        tenor,
        days,
        spot_rate,
        forward_rate,
        forward_points,
        premium_pct,
        settlement_date,
        source
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    )
    ON CONFLICT (captured_at, pair, tenor) DO UPDATE
    SET
        days            = EXCLUDED.days,
        spot_rate       = EXCLUDED.spot_rate,
        forward_rate    = EXCLUDED.forward_rate,
        forward_points  = EXCLUDED.forward_points,
        premium_pct     = EXCLUDED.premium_pct,
        settlement_date = EXCLUDED.settlement_date,
        source          = EXCLUDED.source;`

	snapshotColumns = `captured_at,
        pair,
        tenor,
        days,
        spot_rate::text,
        forward_rate::text,
        forward_points::text,
        premium_pct::text,
        settlement_date,
        source,
        created_at`

	listSnapshotsBetweenSQL = `SELECT ` + snapshotColumns + `
    FROM curve_snapshots
    WHERE pair = $1
      AND captured_at >= $2
      AND captured_at < $3
    ORDER BY captured_at, days;`

	listRecentSnapshotsSQL = `SELECT ` + snapshotColumns + `
    FROM curve_snapshots
    WHERE ($1 = '' OR pair = $1)
      AND ($2 = '' OR tenor = $2)
    ORDER BY captured_at DESC, pair, days
    LIMIT $3;`

	countSnapshotsSQL = `SELECT COUNT(*) FROM curve_snapshots;`

	insertHedgeAnalysisSQL = `INSERT INTO hedge_analyses (
        id,
        pair,
        notional,
        tenor,
        hedge_ratio,
        market_view,
        recommended_ratio,
        spot_rate,
        forward_rate,
        premium_pct,
        action
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    RETURNING created_at;`

	listRecentAnalysesSQL = `SELECT
        id,
        pair,
        notional::text,
        tenor,
        hedge_ratio::text,
        market_view,
        recommended_ratio::text,
        spot_rate::text,
        forward_rate::text,
        premium_pct::text,
        action,
        created_at
    FROM hedge_analyses
    ORDER BY created_at DESC
    LIMIT $1;`

	insertAlertSQL = `INSERT INTO premium_alerts (
        captured_at,
        pair,
        tenor,
        premium_pct,
        threshold_pct,
        direction,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (captured_at, pair) DO UPDATE
    SET tenor         = EXCLUDED.tenor,
        premium_pct   = EXCLUDED.premium_pct,
        threshold_pct = EXCLUDED.threshold_pct,
        direction     = EXCLUDED.direction,
        channels      = EXCLUDED.channels
    RETURNING id, captured_at, pair, tenor, premium_pct::text, threshold_pct::text, direction, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        captured_at,
        pair,
        tenor,
        premium_pct::text,
        threshold_pct::text,
        direction,
        channels,
        created_at
    FROM premium_alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM premium_alerts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SnapshotStore defines operations for forward curve snapshot persistence.
type SnapshotStore interface {
	UpsertCurveSnapshots(ctx context.Context, rows []CurveSnapshot) error
	ListSnapshotsBetween(ctx context.Context, pair string, from, to time.Time) ([]CurveSnapshot, error)
	ListRecentSnapshots(ctx context.Context, filter SnapshotFilter) ([]CurveSnapshot, error)
	CountSnapshots(ctx context.Context) (int64, error)
}

// AnalysisStore records analyze runs.
type AnalysisStore interface {
	InsertHedgeAnalysis(ctx context.Context, rec HedgeAnalysis) (HedgeAnalysis, error)
	ListRecentAnalyses(ctx context.Context, limit int) ([]HedgeAnalysis, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// SnapshotFilter narrows ListRecentSnapshots. Empty fields match everything.
type SnapshotFilter struct {
	Pair  string
	Tenor string
	Limit int
}

// Store aggregates access to snapshots, analyses and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Releasing the connection drops a session lock anyway.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertCurveSnapshots persists every row of one or more curves in a single batch.
func (s *Store) UpsertCurveSnapshots(ctx context.Context, rows []CurveSnapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertCurveSnapshotSQL,
			row.CapturedAt,
			row.Pair,
			row.Tenor,
			row.Days,
			row.SpotRate.String(),
			row.ForwardRate.String(),
			row.ForwardPoints.String(),
			row.PremiumPct.String(),
			row.SettlementDate,
			row.Source,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert curve snapshot: %w", execErr)
		}
	}
	return nil
}

// ListSnapshotsBetween lists one pair's snapshot rows within a time window.
func (s *Store) ListSnapshotsBetween(ctx context.Context, pair string, from, to time.Time) ([]CurveSnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsBetweenSQL, pair, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list snapshots between: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows, 0)
}

// ListRecentSnapshots lists the most recent snapshot rows, newest capture first.
func (s *Store) ListRecentSnapshots(ctx context.Context, filter SnapshotFilter) ([]CurveSnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, queryErr := pool.Query(ctx, listRecentSnapshotsSQL, filter.Pair, filter.Tenor, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows, limit)
}

// CountSnapshots counts stored snapshot rows.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSnapshotsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count snapshots: %w", scanErr)
	}
	return count, nil
}

// InsertHedgeAnalysis stores an analyze run, assigning an id when missing.
func (s *Store) InsertHedgeAnalysis(ctx context.Context, rec HedgeAnalysis) (HedgeAnalysis, error) {
	pool, err := s.getPool()
	if err != nil {
		return HedgeAnalysis{}, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	row := pool.QueryRow(ctx, insertHedgeAnalysisSQL,
		rec.ID,
		rec.Pair,
		rec.Notional.String(),
		rec.Tenor,
		rec.HedgeRatio.String(),
		rec.MarketView,
		rec.RecommendedRatio.String(),
		rec.SpotRate.String(),
		rec.ForwardRate.String(),
		rec.PremiumPct.String(),
		rec.Action,
	)
	if scanErr := row.Scan(&rec.CreatedAt); scanErr != nil {
		return HedgeAnalysis{}, fmt.Errorf("insert hedge analysis: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAnalyses lists the most recent analyze runs.
func (s *Store) ListRecentAnalyses(ctx context.Context, limit int) ([]HedgeAnalysis, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAnalysesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent analyses: %w", queryErr)
	}
	defer rows.Close()

	out := make([]HedgeAnalysis, 0, limit)
	for rows.Next() {
		var rec HedgeAnalysis
		var notional, ratio, recommended, spot, forwardRate, premium string
		if err := rows.Scan(
			&rec.ID,
			&rec.Pair,
			&notional,
			&rec.Tenor,
			&ratio,
			&rec.MarketView,
			&recommended,
			&spot,
			&forwardRate,
			&premium,
			&rec.Action,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := parseDecimals(map[string]decimalField{
			"notional":          {notional, &rec.Notional},
			"hedge ratio":       {ratio, &rec.HedgeRatio},
			"recommended ratio": {recommended, &rec.RecommendedRatio},
			"spot rate":         {spot, &rec.SpotRate},
			"forward rate":      {forwardRate, &rec.ForwardRate},
			"premium pct":       {premium, &rec.PremiumPct},
		}); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.CapturedAt,
		alert.Pair,
		alert.Tenor,
		alert.PremiumPct.String(),
		alert.ThresholdPct.String(),
		alert.Direction,
		alert.Channels,
	)

	rec, scanErr := scanAlert(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes historical alerts.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func scanAlert(row pgx.Row) (AlertRecord, error) {
	var rec AlertRecord
	var premiumStr, thresholdStr string
	if err := row.Scan(
		&rec.ID,
		&rec.CapturedAt,
		&rec.Pair,
		&rec.Tenor,
		&premiumStr,
		&thresholdStr,
		&rec.Direction,
		&rec.Channels,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}
	if err := parseDecimals(map[string]decimalField{
		"premium pct":   {premiumStr, &rec.PremiumPct},
		"threshold pct": {thresholdStr, &rec.ThresholdPct},
	}); err != nil {
		return AlertRecord{}, err
	}
	return rec, nil
}

func collectSnapshots(rows pgx.Rows, capacity int) ([]CurveSnapshot, error) {
	out := make([]CurveSnapshot, 0, capacity)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanSnapshot(rows pgx.Rows) (CurveSnapshot, error) {
	var snap CurveSnapshot
	var spotStr, fwdStr, pointsStr, premStr string
	if err := rows.Scan(
		&snap.CapturedAt,
		&snap.Pair,
		&snap.Tenor,
		&snap.Days,
		&spotStr,
		&fwdStr,
		&pointsStr,
		&premStr,
		&snap.SettlementDate,
		&snap.Source,
		&snap.CreatedAt,
	); err != nil {
		return CurveSnapshot{}, err
	}
	if err := parseDecimals(map[string]decimalField{
		"spot rate":      {spotStr, &snap.SpotRate},
		"forward rate":   {fwdStr, &snap.ForwardRate},
		"forward points": {pointsStr, &snap.ForwardPoints},
		"premium pct":    {premStr, &snap.PremiumPct},
	}); err != nil {
		return CurveSnapshot{}, err
	}
	return snap, nil
}

type decimalField struct {
	raw string
	dst *decimal.Decimal
}

func parseDecimals(fields map[string]decimalField) error {
	for name, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*f.dst = v
	}
	return nil
}

var (
	_ SnapshotStore  = (*Store)(nil)
	_ AnalysisStore  = (*Store)(nil)
	_ AlertStore     = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
