package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

// CurveSnapshot is one persisted tenor row of a forward curve.
type CurveSnapshot struct {
	CapturedAt     time.Time
	Pair           string
	Tenor          string
	Days           int
	SpotRate       decimal.Decimal
	ForwardRate    decimal.Decimal
	ForwardPoints  decimal.Decimal
	PremiumPct     decimal.Decimal
	SettlementDate time.Time
	Source         string
	CreatedAt      time.Time
}

// HedgeAnalysis records one analyze run and its recommendation.
type HedgeAnalysis struct {
	ID               uuid.UUID
	Pair             string
	Notional         decimal.Decimal
	Tenor            string
	HedgeRatio       decimal.Decimal
	MarketView       string
	RecommendedRatio decimal.Decimal
	SpotRate         decimal.Decimal
	ForwardRate      decimal.Decimal
	PremiumPct       decimal.Decimal
	Action           string
	CreatedAt        time.Time
}

// AlertRecord captures an emitted premium alert for de-duplication/auditing.
type AlertRecord struct {
	ID           int64
	CapturedAt   time.Time
	Pair         string
	Tenor        string
	PremiumPct   decimal.Decimal
	ThresholdPct decimal.Decimal
	Direction    string
	Channels     []string
	CreatedAt    time.Time
}

var hundred = decimal.NewFromInt(100)

// SnapshotsFromCurve flattens curve into one row per tenor, stamped with capturedAt.
func SnapshotsFromCurve(curve forward.Curve, capturedAt time.Time, source string) []CurveSnapshot {
	points := curve.Points()
	if len(points) == 0 {
		return nil
	}
	spot := points[0].ForwardRate
	if sp, err := curve.Spot(); err == nil {
		spot = sp.ForwardRate
	}

	out := make([]CurveSnapshot, 0, len(points))
	for _, p := range points {
		premium := decimal.Zero
		if spot.IsPositive() {
			premium = p.ForwardRate.Sub(spot).Div(spot).Mul(hundred).Round(4)
		}
		out = append(out, CurveSnapshot{
			CapturedAt:     capturedAt.UTC(),
			Pair:           curve.Pair().String(),
			Tenor:          p.Tenor.String(),
			Days:           p.Days,
			SpotRate:       spot,
			ForwardRate:    p.ForwardRate,
			ForwardPoints:  p.ForwardPoints,
			PremiumPct:     premium,
			SettlementDate: p.SettlementDate,
			Source:         source,
		})
	}
	return out
}
