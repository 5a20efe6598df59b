package hedging

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

// ErrEmptyCurve indicates an analyzer was built from a curve without rows.
var ErrEmptyCurve = errors.New("hedging: forward curve has no points")

const (
	ratePlaces    = 4
	pnlPlaces     = 2
	percentPlaces = 2
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	// FullHedge is the conventional default ratio of 100%.
	FullHedge = decimal.NewFromInt(1)
)

// HedgeInfo describes a forward hedge of notional at one tenor and ratio.
type HedgeInfo struct {
	Pair               forward.CurrencyPair
	Notional           decimal.Decimal
	HedgeRatio         decimal.Decimal
	HedgedAmount       decimal.Decimal
	UnhedgedAmount     decimal.Decimal
	Tenor              forward.Tenor
	SettlementDate     time.Time
	SpotRate           decimal.Decimal
	ForwardRate        decimal.Decimal
	ForwardPoints      decimal.Decimal
	PremiumDiscountPct decimal.Decimal
	LockedInRate       decimal.Decimal
}

// Analyzer evaluates hedging strategies against a single forward curve.
// It holds no state besides the curve and is safe for concurrent use.
type Analyzer struct {
	curve forward.Curve
}

// NewAnalyzer binds an analyzer to curve.
func NewAnalyzer(curve forward.Curve) (*Analyzer, error) {
	if curve.Len() == 0 {
		return nil, ErrEmptyCurve
	}
	return &Analyzer{curve: curve}, nil
}

// Pair returns the pair of the underlying curve.
func (a *Analyzer) Pair() forward.CurrencyPair {
	return a.curve.Pair()
}

// Curve returns the underlying curve.
func (a *Analyzer) Curve() forward.Curve {
	return a.curve
}

// HedgeCost prices a forward hedge of notional×ratio at tenor.
//
// The ratio is deliberately not range checked: values outside [0,1] scale the hedged
// and unhedged amounts proportionally, including negative amounts.
func (a *Analyzer) HedgeCost(notional decimal.Decimal, tenor forward.Tenor, ratio decimal.Decimal) (HedgeInfo, error) {
	point, err := a.curve.Lookup(tenor)
	if err != nil {
		return HedgeInfo{}, err
	}
	spot, err := a.curve.Spot()
	if err != nil {
		return HedgeInfo{}, fmt.Errorf("spot row: %w", err)
	}

	spotRate := spot.ForwardRate
	premium := decimal.Zero
	if !spotRate.IsZero() {
		premium = point.ForwardRate.Sub(spotRate).Div(spotRate).Mul(hundred).Round(ratePlaces)
	}

	return HedgeInfo{
		Pair:               a.curve.Pair(),
		Notional:           notional,
		HedgeRatio:         ratio,
		HedgedAmount:       notional.Mul(ratio),
		UnhedgedAmount:     notional.Mul(one.Sub(ratio)),
		Tenor:              point.Tenor,
		SettlementDate:     point.SettlementDate,
		SpotRate:           spotRate,
		ForwardRate:        point.ForwardRate,
		ForwardPoints:      point.ForwardPoints,
		PremiumDiscountPct: premium,
		LockedInRate:       point.ForwardRate,
	}, nil
}
