package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

func TestSnapshotsFromCurve(t *testing.T) {
	rates := forward.RateTableFromFloats(map[string]float64{"USD": 0.045, "CAD": 0.0375})
	asOf := time.Date(2024, 12, 2, 15, 4, 5, 0, time.UTC)
	curve, err := forward.BuildCurve(forward.MustParsePair("USD/CAD"), decimal.RequireFromString("1.4320"), rates, asOf)
	if err != nil {
		t.Fatalf("BuildCurve: %v", err)
	}

	rows := SnapshotsFromCurve(curve, asOf, "simulated")
	if len(rows) != len(forward.Schedule) {
		t.Fatalf("expected %d rows, got %d", len(forward.Schedule), len(rows))
	}

	spotRow := rows[0]
	if spotRow.Tenor != "Spot" || !spotRow.PremiumPct.IsZero() || !spotRow.ForwardPoints.IsZero() {
		t.Fatalf("unexpected spot row %+v", spotRow)
	}

	var sixMonth CurveSnapshot
	for _, r := range rows {
		if r.Tenor == "6M" {
			sixMonth = r
		}
		if r.Pair != "USD/CAD" || r.Source != "simulated" || !r.CapturedAt.Equal(asOf) {
			t.Fatalf("row metadata not propagated: %+v", r)
		}
		if !r.SpotRate.Equal(decimal.RequireFromString("1.432")) {
			t.Fatalf("spot rate should be carried on every row, got %s", r.SpotRate)
		}
	}
	if !sixMonth.ForwardRate.Equal(decimal.RequireFromString("1.4268")) {
		t.Fatalf("6M forward = %s", sixMonth.ForwardRate)
	}
	if !sixMonth.PremiumPct.Equal(decimal.RequireFromString("-0.3631")) {
		t.Fatalf("6M premium = %s", sixMonth.PremiumPct)
	}
	if sixMonth.Days != 180 {
		t.Fatalf("6M days = %d", sixMonth.Days)
	}
}

func TestMigrationFilesAreEmbedded(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) == 0 || files[0] != "001_init.sql" {
		t.Fatalf("unexpected migrations %v", files)
	}
}

func TestNilStoreNotConfigured(t *testing.T) {
	var s *Store
	ctx := context.Background()
	if err := s.UpsertCurveSnapshots(ctx, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, _, err := s.TryAdvisoryLock(ctx, 1); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := s.Migrate(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	s.Close()
}
