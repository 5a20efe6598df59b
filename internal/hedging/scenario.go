package hedging

import (
	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

// DefaultShocks are the multiplicative spot moves used when no scenarios are given.
var DefaultShocks = [...]decimal.Decimal{
	decimal.RequireFromString("0.90"),
	decimal.RequireFromString("0.95"),
	decimal.RequireFromString("1"),
	decimal.RequireFromString("1.05"),
	decimal.RequireFromString("1.10"),
}

// ScenarioResult is the P&L of a hedge if spot settles at FutureSpot.
type ScenarioResult struct {
	FutureSpot    decimal.Decimal
	SpotChangePct decimal.Decimal
	HedgedPnL     decimal.Decimal
	UnhedgedPnL   decimal.Decimal
	TotalPnL      decimal.Decimal
	EffectiveRate decimal.Decimal
}

// DefaultScenarios applies DefaultShocks to spot.
func DefaultScenarios(spot decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(DefaultShocks))
	for _, shock := range DefaultShocks {
		out = append(out, spot.Mul(shock))
	}
	return out
}

// Scenarios evaluates the hedge at each future spot, preserving input order.
// An empty spots slice falls back to DefaultScenarios around the current spot.
func (a *Analyzer) Scenarios(notional decimal.Decimal, tenor forward.Tenor, ratio decimal.Decimal, spots []decimal.Decimal) ([]ScenarioResult, error) {
	info, err := a.HedgeCost(notional, tenor, ratio)
	if err != nil {
		return nil, err
	}

	current := info.SpotRate
	if len(spots) == 0 {
		spots = DefaultScenarios(current)
	}

	results := make([]ScenarioResult, 0, len(spots))
	for _, future := range spots {
		hedgedPnL := info.HedgedAmount.Mul(future.Sub(info.ForwardRate))
		unhedgedPnL := info.UnhedgedAmount.Mul(future.Sub(current))

		effective := future
		if notional.IsPositive() {
			effective = info.ForwardRate.Mul(ratio).Add(future.Mul(one.Sub(ratio)))
		}

		change := decimal.Zero
		if !current.IsZero() {
			change = future.Sub(current).Div(current).Mul(hundred)
		}

		results = append(results, ScenarioResult{
			FutureSpot:    future.Round(ratePlaces),
			SpotChangePct: change.Round(percentPlaces),
			HedgedPnL:     hedgedPnL.Round(pnlPlaces),
			UnhedgedPnL:   unhedgedPnL.Round(pnlPlaces),
			TotalPnL:      hedgedPnL.Add(unhedgedPnL).Round(pnlPlaces),
			EffectiveRate: effective.Round(ratePlaces),
		})
	}
	return results, nil
}
