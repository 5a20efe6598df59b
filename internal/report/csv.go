package report

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fxhedge/internal/forward"
	"fxhedge/internal/hedging"
	"fxhedge/internal/storage"
)

const dateLayout = "2006-01-02"

// WriteCurveCSV writes one row per tenor of curve.
func WriteCurveCSV(path string, curve forward.Curve) error {
	header := []string{"pair", "tenor", "days", "forward_rate", "forward_points", "settlement_date"}
	points := curve.Points()
	records := make([][]string, 0, len(points))
	for _, p := range points {
		records = append(records, []string{
			curve.Pair().String(),
			p.Tenor.String(),
			strconv.Itoa(p.Days),
			p.ForwardRate.StringFixed(4),
			p.ForwardPoints.StringFixed(2),
			p.SettlementDate.Format(dateLayout),
		})
	}
	return writeCSV(path, header, records)
}

// WriteScenariosCSV writes scenario results in input order.
func WriteScenariosCSV(path string, scenarios []hedging.ScenarioResult) error {
	header := []string{"future_spot", "spot_change_pct", "hedged_pnl", "unhedged_pnl", "total_pnl", "effective_rate"}
	records := make([][]string, 0, len(scenarios))
	for _, s := range scenarios {
		records = append(records, []string{
			s.FutureSpot.StringFixed(4),
			s.SpotChangePct.StringFixed(2),
			s.HedgedPnL.StringFixed(2),
			s.UnhedgedPnL.StringFixed(2),
			s.TotalPnL.StringFixed(2),
			s.EffectiveRate.StringFixed(4),
		})
	}
	return writeCSV(path, header, records)
}

// WriteComparisonCSV writes one row per hedge ratio.
func WriteComparisonCSV(path string, rows []hedging.ComparisonRow) error {
	header := []string{"hedge_ratio", "hedged_amount", "unhedged_amount", "total_pnl", "effective_rate"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Label,
			r.HedgedAmount.StringFixed(2),
			r.UnhedgedAmount.StringFixed(2),
			r.TotalPnL.StringFixed(2),
			r.EffectiveRate.StringFixed(4),
		})
	}
	return writeCSV(path, header, records)
}

// WriteSnapshotsCSV writes persisted curve snapshot rows.
func WriteSnapshotsCSV(path string, rows []storage.CurveSnapshot) error {
	header := []string{"captured_at", "pair", "tenor", "days", "spot_rate", "forward_rate", "forward_points", "premium_pct", "settlement_date", "source"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.CapturedAt.UTC().Format(time.RFC3339),
			r.Pair,
			r.Tenor,
			strconv.Itoa(r.Days),
			r.SpotRate.String(),
			r.ForwardRate.String(),
			r.ForwardPoints.String(),
			r.PremiumPct.String(),
			r.SettlementDate.Format(dateLayout),
			r.Source,
		})
	}
	return writeCSV(path, header, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// Downsample picks at most max evenly spaced items, always keeping the first and last.
func Downsample[T any](items []T, max int) []T {
	if max <= 0 || len(items) <= max {
		return items
	}
	if max == 1 {
		return items[len(items)-1:]
	}

	result := make([]T, 0, max)
	step := float64(len(items)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(items) {
			idx = len(items) - 1
		}
		result = append(result, items[idx])
	}
	return result
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
