package hedging

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxhedge/internal/forward"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, context ...any) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "want %s got %s %v", want, got.String(), context)
}

func usdcadAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	rates := forward.RateTableFromFloats(map[string]float64{
		"USD": 0.0450,
		"CAD": 0.0375,
		"EUR": 0.0300,
	})
	asOf := time.Date(2024, time.December, 2, 0, 0, 0, 0, time.UTC)
	curve, err := forward.BuildCurve(forward.MustParsePair("USD/CAD"), dec("1.4320"), rates, asOf)
	require.NoError(t, err)
	analyzer, err := NewAnalyzer(curve)
	require.NoError(t, err)
	return analyzer
}

func TestNewAnalyzerRejectsEmptyCurve(t *testing.T) {
	_, err := NewAnalyzer(forward.Curve{})
	assert.ErrorIs(t, err, ErrEmptyCurve)
}

func TestHedgeCost(t *testing.T) {
	a := usdcadAnalyzer(t)

	info, err := a.HedgeCost(dec("5000000"), forward.Tenor6M, dec("0.75"))
	require.NoError(t, err)

	assert.Equal(t, "USD/CAD", info.Pair.String())
	assert.Equal(t, forward.Tenor6M, info.Tenor)
	assertDec(t, "3750000", info.HedgedAmount)
	assertDec(t, "1250000", info.UnhedgedAmount)
	assertDec(t, "1.4320", info.SpotRate)
	assertDec(t, "1.4268", info.ForwardRate)
	assertDec(t, "1.4268", info.LockedInRate)
	assertDec(t, "-52", info.ForwardPoints)
	assertDec(t, "-0.3631", info.PremiumDiscountPct)
	assert.Equal(t, "2025-05-31", info.SettlementDate.Format("2006-01-02"))
}

func TestHedgeCostDoesNotClampRatio(t *testing.T) {
	a := usdcadAnalyzer(t)

	info, err := a.HedgeCost(dec("1000000"), forward.Tenor3M, dec("1.5"))
	require.NoError(t, err)
	assertDec(t, "1500000", info.HedgedAmount)
	assertDec(t, "-500000", info.UnhedgedAmount)

	info, err = a.HedgeCost(dec("1000000"), forward.Tenor3M, dec("-0.2"))
	require.NoError(t, err)
	assertDec(t, "-200000", info.HedgedAmount)
	assertDec(t, "1200000", info.UnhedgedAmount)
}

func TestHedgeCostUnknownTenor(t *testing.T) {
	a := usdcadAnalyzer(t)
	_, err := a.HedgeCost(dec("1000000"), forward.Tenor("18M"), FullHedge)
	assert.ErrorIs(t, err, forward.ErrTenorNotFound)

	_, err = a.Scenarios(dec("1000000"), forward.Tenor("18M"), FullHedge, nil)
	assert.ErrorIs(t, err, forward.ErrTenorNotFound)

	_, err = a.CompareRatios(dec("1000000"), forward.Tenor("18M"), dec("1.4"))
	assert.ErrorIs(t, err, forward.ErrTenorNotFound)

	_, err = a.Recommend(dec("1000000"), forward.Tenor("18M"), "bullish")
	assert.ErrorIs(t, err, forward.ErrTenorNotFound)
}

func TestScenariosWorkedExample(t *testing.T) {
	a := usdcadAnalyzer(t)

	results, err := a.Scenarios(dec("5000000"), forward.Tenor6M, dec("0.75"), []decimal.Decimal{dec("1.3200")})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assertDec(t, "1.32", r.FutureSpot)
	assertDec(t, "-400500", r.HedgedPnL)
	assertDec(t, "-140000", r.UnhedgedPnL)
	assertDec(t, "-540500", r.TotalPnL)
	assertDec(t, "1.4001", r.EffectiveRate)
	assertDec(t, "-7.82", r.SpotChangePct)
}

func TestScenariosDefaultGrid(t *testing.T) {
	a := usdcadAnalyzer(t)

	results, err := a.Scenarios(dec("5000000"), forward.Tenor6M, dec("0.75"), nil)
	require.NoError(t, err)
	require.Len(t, results, 5)

	wantSpots := []string{"1.2888", "1.3604", "1.432", "1.5036", "1.5752"}
	wantChange := []string{"-10", "-5", "0", "5", "10"}
	for i, r := range results {
		assertDec(t, wantSpots[i], r.FutureSpot, "row %d", i)
		assertDec(t, wantChange[i], r.SpotChangePct, "row %d", i)
	}

	// Unhedged slice is flat at the current spot.
	assertDec(t, "0", results[2].UnhedgedPnL)
}

func TestScenariosPreserveInputOrder(t *testing.T) {
	a := usdcadAnalyzer(t)
	spots := []decimal.Decimal{dec("1.50"), dec("1.30"), dec("1.45")}

	results, err := a.Scenarios(dec("1000000"), forward.Tenor1Y, dec("0.5"), spots)
	require.NoError(t, err)
	require.Len(t, results, len(spots))
	for i, r := range results {
		assertDec(t, spots[i].String(), r.FutureSpot)
	}
}

func TestScenariosFullHedgeHasNoUnhedgedPnL(t *testing.T) {
	a := usdcadAnalyzer(t)

	results, err := a.Scenarios(dec("5000000"), forward.Tenor3M, FullHedge, nil)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.UnhedgedPnL.IsZero(), "unhedged pnl %s", r.UnhedgedPnL)
		assert.True(t, r.HedgedPnL.Equal(r.TotalPnL))
	}
}

func TestScenariosNoHedgeHasNoHedgedPnL(t *testing.T) {
	a := usdcadAnalyzer(t)

	results, err := a.Scenarios(dec("5000000"), forward.Tenor3M, decimal.Zero, nil)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.HedgedPnL.IsZero(), "hedged pnl %s", r.HedgedPnL)
		assert.True(t, r.EffectiveRate.Equal(r.FutureSpot))
	}
}

func TestScenariosZeroNotionalEffectiveRateIsSpot(t *testing.T) {
	a := usdcadAnalyzer(t)

	results, err := a.Scenarios(decimal.Zero, forward.Tenor6M, dec("0.75"), []decimal.Decimal{dec("1.40")})
	require.NoError(t, err)
	assertDec(t, "1.40", results[0].EffectiveRate)
	assertDec(t, "0", results[0].TotalPnL)
}

func TestCompareRatios(t *testing.T) {
	a := usdcadAnalyzer(t)
	notional := dec("5000000")
	future := dec("1.3200")

	rows, err := a.CompareRatios(notional, forward.Tenor6M, future)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Label)
	}
	assert.Equal(t, []string{"0%", "25%", "50%", "75%", "100%"}, labels)

	assertDec(t, "-540500", rows[3].TotalPnL)
	assertDec(t, "3750000", rows[3].HedgedAmount)
	assertDec(t, "1250000", rows[3].UnhedgedAmount)

	for _, ratio := range []decimal.Decimal{decimal.Zero, FullHedge} {
		direct, err := a.Scenarios(notional, forward.Tenor6M, ratio, []decimal.Decimal{future})
		require.NoError(t, err)

		var row ComparisonRow
		for _, r := range rows {
			if r.HedgeRatio.Equal(ratio) {
				row = r
			}
		}
		assert.True(t, row.TotalPnL.Equal(direct[0].TotalPnL), "ratio %s", ratio)
		assert.True(t, row.EffectiveRate.Equal(direct[0].EffectiveRate), "ratio %s", ratio)
	}
}

func TestRecommendPolicy(t *testing.T) {
	a := usdcadAnalyzer(t)
	notional := dec("5000000")

	cases := []struct {
		view  string
		ratio string
		want  MarketView
	}{
		{"bullish", "0.50", ViewBullish},
		{"BULLISH", "0.50", ViewBullish},
		{"bearish", "1", ViewBearish},
		{"neutral", "0.75", ViewNeutral},
		{"unknownvalue", "0.75", ViewNeutral},
		{"", "0.75", ViewNeutral},
	}
	for _, tc := range cases {
		rec, err := a.Recommend(notional, forward.Tenor6M, tc.view)
		require.NoError(t, err, tc.view)
		assertDec(t, tc.ratio, rec.HedgeRatio, tc.view)
		assert.Equal(t, tc.want, rec.View, tc.view)
		assert.True(t, rec.Hedge.HedgeRatio.Equal(rec.HedgeRatio))
	}
}

func TestRecommendFormatting(t *testing.T) {
	a := usdcadAnalyzer(t)

	rec, err := a.Recommend(dec("5000000"), forward.Tenor6M, "Neutral")
	require.NoError(t, err)

	assert.Equal(t, "75% Hedge Ratio", rec.Label)
	assert.Equal(t, "-0.36%", rec.ForwardPremiumDiscount)
	assert.Equal(t, "Enter FX Forward to sell 3,750,000 USD vs CAD at 1.4268 for 6M settlement", rec.Action)
	assert.Contains(t, rec.Rationale, "neutral market view")

	rec, err = a.Recommend(dec("5000000"), forward.Tenor6M, "bullish")
	require.NoError(t, err)
	assert.Contains(t, rec.Rationale, "bullish view on USD")
	assert.Equal(t, "50% Hedge Ratio", rec.Label)
}
