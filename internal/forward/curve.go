package forward

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ratePlaces   = 4
	pointsPlaces = 2
)

var (
	daysPerYear = decimal.NewFromInt(365)
	pipScale    = decimal.NewFromInt(10000)
)

// Point is one tenor row of a forward curve.
type Point struct {
	Tenor          Tenor
	Days           int
	ForwardRate    decimal.Decimal
	ForwardPoints  decimal.Decimal
	SettlementDate time.Time
}

// Curve is an immutable forward curve for one pair, ordered by increasing days.
type Curve struct {
	pair   CurrencyPair
	asOf   time.Time
	points []Point
}

// Pair returns the curve's currency pair.
func (c Curve) Pair() CurrencyPair { return c.pair }

// AsOf returns the analysis date the settlement dates are measured from.
func (c Curve) AsOf() time.Time { return c.asOf }

// Len returns the number of points.
func (c Curve) Len() int { return len(c.points) }

// Points returns a copy of the curve rows.
func (c Curve) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Lookup returns the row for tenor.
func (c Curve) Lookup(tenor Tenor) (Point, error) {
	for _, p := range c.points {
		if p.Tenor == tenor {
			return p, nil
		}
	}
	return Point{}, fmt.Errorf("%w: %q not in %s curve", ErrTenorNotFound, string(tenor), c.pair)
}

// Spot returns the Spot row.
func (c Curve) Spot() (Point, error) {
	return c.Lookup(TenorSpot)
}

// ComputeForwardRate prices an outright forward by covered interest parity using
// actual/365 simple interest, rounded to 4 decimal places.
func ComputeForwardRate(spot, domestic, foreign decimal.Decimal, days int) decimal.Decimal {
	t := decimal.NewFromInt(int64(days)).Div(daysPerYear)
	num := decimal.NewFromInt(1).Add(domestic.Mul(t))
	den := decimal.NewFromInt(1).Add(foreign.Mul(t))
	return spot.Mul(num).Div(den).Round(ratePlaces)
}

// ForwardPoints converts a forward/spot difference to pips, rounded to 2 places.
func ForwardPoints(forwardRate, spot decimal.Decimal) decimal.Decimal {
	return forwardRate.Sub(spot).Mul(pipScale).Round(pointsPlaces)
}

// Builder constructs curves from an injected rate table.
type Builder struct {
	rates RateTable
}

// NewBuilder returns a Builder bound to rates.
func NewBuilder(rates RateTable) *Builder {
	return &Builder{rates: rates}
}

// Rates exposes the table the builder prices with.
func (b *Builder) Rates() RateTable {
	return b.rates
}

// Build produces the standard-schedule curve for pair.
func (b *Builder) Build(pair CurrencyPair, spot decimal.Decimal, asOf time.Time) (Curve, error) {
	return BuildCurve(pair, spot, b.rates, asOf)
}

// BuildCurve produces the forward curve for pair at spot, one point per scheduled tenor.
// The Spot row carries spot verbatim with zero points.
func BuildCurve(pair CurrencyPair, spot decimal.Decimal, rates RateTable, asOf time.Time) (Curve, error) {
	if !spot.IsPositive() {
		return Curve{}, fmt.Errorf("%w: %s %s", ErrInvalidSpot, pair, spot.String())
	}

	domestic, foreign, err := ParityRates(pair, rates)
	if err != nil {
		return Curve{}, err
	}

	date := truncateToDate(asOf)
	points := make([]Point, 0, len(Schedule))
	for _, td := range Schedule {
		point := Point{
			Tenor:          td.Tenor,
			Days:           td.Days,
			SettlementDate: date.AddDate(0, 0, td.Days),
		}
		if td.Days == 0 {
			point.ForwardRate = spot
			point.ForwardPoints = decimal.Zero
		} else {
			point.ForwardRate = ComputeForwardRate(spot, domestic, foreign, td.Days)
			point.ForwardPoints = ForwardPoints(point.ForwardRate, spot)
		}
		points = append(points, point)
	}

	return Curve{pair: pair, asOf: date, points: points}, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
