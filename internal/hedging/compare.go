package hedging

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

// ComparisonRatios is the fixed hedge-ratio grid, ascending.
var ComparisonRatios = [...]decimal.Decimal{
	decimal.RequireFromString("0"),
	decimal.RequireFromString("0.25"),
	decimal.RequireFromString("0.50"),
	decimal.RequireFromString("0.75"),
	decimal.RequireFromString("1"),
}

// ComparisonRow summarises one hedge ratio at a single future spot.
type ComparisonRow struct {
	HedgeRatio     decimal.Decimal
	Label          string
	HedgedAmount   decimal.Decimal
	UnhedgedAmount decimal.Decimal
	TotalPnL       decimal.Decimal
	EffectiveRate  decimal.Decimal
}

// RatioLabel formats a ratio as a whole percent, e.g. 0.25 -> "25%".
func RatioLabel(ratio decimal.Decimal) string {
	return fmt.Sprintf("%d%%", ratio.Mul(hundred).IntPart())
}

// CompareRatios runs a single-scenario analysis at futureSpot for every ratio in
// ComparisonRatios.
func (a *Analyzer) CompareRatios(notional decimal.Decimal, tenor forward.Tenor, futureSpot decimal.Decimal) ([]ComparisonRow, error) {
	rows := make([]ComparisonRow, 0, len(ComparisonRatios))
	for _, ratio := range ComparisonRatios {
		results, err := a.Scenarios(notional, tenor, ratio, []decimal.Decimal{futureSpot})
		if err != nil {
			return nil, err
		}
		rows = append(rows, ComparisonRow{
			HedgeRatio:     ratio,
			Label:          RatioLabel(ratio),
			HedgedAmount:   notional.Mul(ratio),
			UnhedgedAmount: notional.Mul(one.Sub(ratio)),
			TotalPnL:       results[0].TotalPnL,
			EffectiveRate:  results[0].EffectiveRate,
		})
	}
	return rows, nil
}
