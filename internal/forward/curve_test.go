package forward

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRates() RateTable {
	return RateTableFromFloats(map[string]float64{
		"USD": 0.0450,
		"EUR": 0.0300,
		"GBP": 0.0475,
		"JPY": 0.0010,
		"CAD": 0.0375,
		"AUD": 0.0400,
		"CHF": 0.0125,
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeForwardRateUSDCAD6M(t *testing.T) {
	got := ComputeForwardRate(dec("1.4320"), dec("0.0375"), dec("0.0450"), 180)
	assert.True(t, got.Equal(dec("1.4268")), "forward = %s", got)

	points := ForwardPoints(got, dec("1.4320"))
	assert.True(t, points.Equal(dec("-52")), "points = %s", points)
}

func TestComputeForwardRateEqualRatesCollapseToSpot(t *testing.T) {
	spot := dec("1.2675")
	for _, days := range []int{0, 7, 30, 90, 180, 365, 730} {
		for _, r := range []string{"0", "0.01", "0.0475", "0.12"} {
			got := ComputeForwardRate(spot, dec(r), dec(r), days)
			assert.True(t, got.Equal(spot), "days=%d rate=%s got %s", days, r, got)
		}
	}
}

func TestParityRatesQuoteUSD(t *testing.T) {
	domestic, foreign, err := ParityRates(MustParsePair("EUR/USD"), testRates())
	require.NoError(t, err)
	assert.True(t, domestic.Equal(dec("0.045")), "domestic should be the USD rate")
	assert.True(t, foreign.Equal(dec("0.03")), "foreign should be the EUR rate")
}

func TestParityRatesBaseUSD(t *testing.T) {
	domestic, foreign, err := ParityRates(MustParsePair("USD/CAD"), testRates())
	require.NoError(t, err)
	assert.True(t, domestic.Equal(dec("0.0375")), "domestic should be the CAD rate")
	assert.True(t, foreign.Equal(dec("0.045")), "foreign should be the USD rate")
}

func TestParityRatesCrossPairUsesQuoteAgainstUSD(t *testing.T) {
	domestic, foreign, err := ParityRates(MustParsePair("EUR/GBP"), testRates())
	require.NoError(t, err)
	assert.True(t, domestic.Equal(dec("0.0475")))
	assert.True(t, foreign.Equal(dec("0.045")))
}

func TestParityRatesUnknownCurrency(t *testing.T) {
	_, _, err := ParityRates(MustParsePair("USD/NOK"), testRates())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCurrency))

	noUSD := RateTableFromFloats(map[string]float64{"EUR": 0.03, "GBP": 0.0475})
	_, _, err = ParityRates(MustParsePair("EUR/GBP"), noUSD)
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestBuildCurveOrderAndSettlement(t *testing.T) {
	asOf := time.Date(2024, time.December, 2, 15, 30, 0, 0, time.UTC)
	curve, err := BuildCurve(MustParsePair("USD/CAD"), dec("1.4320"), testRates(), asOf)
	require.NoError(t, err)

	points := curve.Points()
	require.Len(t, points, len(Schedule))
	for i, p := range points {
		assert.Equal(t, Schedule[i].Tenor, p.Tenor)
		assert.Equal(t, Schedule[i].Days, p.Days)
		want := time.Date(2024, time.December, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, p.Days)
		assert.True(t, want.Equal(p.SettlementDate), "%s settles %s", p.Tenor, p.SettlementDate)
		if i > 0 {
			assert.Greater(t, p.Days, points[i-1].Days)
		}
	}

	sixMonth, err := curve.Lookup(Tenor6M)
	require.NoError(t, err)
	assert.True(t, sixMonth.ForwardRate.Equal(dec("1.4268")))
	assert.True(t, sixMonth.ForwardPoints.Equal(dec("-52")))
	assert.Equal(t, "2025-05-31", sixMonth.SettlementDate.Format("2006-01-02"))
	assert.Equal(t, "USD/CAD", curve.Pair().String())
}

func TestBuildCurveSpotRowInvariant(t *testing.T) {
	spots := map[string]string{
		"EUR/USD": "1.0545",
		"GBP/USD": "1.2675",
		"USD/JPY": "149.85",
		"USD/CAD": "1.43205",
		"AUD/USD": "0.6315",
		"USD/CHF": "0.8895",
		"EUR/GBP": "0.8319",
	}
	for pair, spot := range spots {
		curve, err := BuildCurve(MustParsePair(pair), dec(spot), testRates(), time.Now())
		require.NoError(t, err, pair)
		row, err := curve.Spot()
		require.NoError(t, err)
		assert.True(t, row.ForwardRate.Equal(dec(spot)), "%s spot row %s", pair, row.ForwardRate)
		assert.True(t, row.ForwardPoints.IsZero(), "%s spot points %s", pair, row.ForwardPoints)
		assert.Equal(t, 0, row.Days)
	}
}

func TestBuildCurvePointsSignFollowsRateDifferential(t *testing.T) {
	cases := []struct {
		pair    string
		spot    string
		premium bool
	}{
		{"EUR/USD", "1.0545", true},  // USD 4.50% vs EUR 3.00%
		{"AUD/USD", "0.6315", true},  // USD 4.50% vs AUD 4.00%
		{"GBP/USD", "1.2675", false}, // USD 4.50% vs GBP 4.75%
		{"USD/JPY", "149.85", false}, // JPY 0.10% vs USD 4.50%
		{"USD/CHF", "0.8895", false}, // CHF 1.25% vs USD 4.50%
		{"USD/CAD", "1.4320", false}, // CAD 3.75% vs USD 4.50%
	}
	for _, tc := range cases {
		curve, err := BuildCurve(MustParsePair(tc.pair), dec(tc.spot), testRates(), time.Now())
		require.NoError(t, err)
		for _, p := range curve.Points() {
			if p.Days == 0 {
				continue
			}
			if tc.premium {
				assert.True(t, p.ForwardRate.GreaterThan(dec(tc.spot)), "%s %s %s", tc.pair, p.Tenor, p.ForwardRate)
				assert.True(t, p.ForwardPoints.IsPositive(), "%s %s points", tc.pair, p.Tenor)
			} else {
				assert.True(t, p.ForwardRate.LessThan(dec(tc.spot)), "%s %s %s", tc.pair, p.Tenor, p.ForwardRate)
				assert.True(t, p.ForwardPoints.IsNegative(), "%s %s points", tc.pair, p.Tenor)
			}
		}
	}
}

func TestBuildCurveErrors(t *testing.T) {
	_, err := BuildCurve(MustParsePair("USD/SEK"), dec("10.5"), testRates(), time.Now())
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = BuildCurve(MustParsePair("USD/CAD"), decimal.Zero, testRates(), time.Now())
	assert.ErrorIs(t, err, ErrInvalidSpot)
}

func TestCurvePointsIsACopy(t *testing.T) {
	curve, err := NewBuilder(testRates()).Build(MustParsePair("USD/CAD"), dec("1.4320"), time.Now())
	require.NoError(t, err)

	points := curve.Points()
	points[0].ForwardRate = dec("99")

	row, err := curve.Spot()
	require.NoError(t, err)
	assert.True(t, row.ForwardRate.Equal(dec("1.4320")))
}

func TestCurveLookupUnknownTenor(t *testing.T) {
	curve, err := BuildCurve(MustParsePair("EUR/USD"), dec("1.0545"), testRates(), time.Now())
	require.NoError(t, err)

	_, err = curve.Lookup(Tenor("18M"))
	assert.ErrorIs(t, err, ErrTenorNotFound)
}
