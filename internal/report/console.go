package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/hedging"
	"fxhedge/internal/storage"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// Section prints a banner heading.
func Section(w io.Writer, title string) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, title, rule)
}

// RenderQuotes prints spot quotes.
func RenderQuotes(w io.Writer, quotes []fetcher.Quote) error {
	table := newTable(w)
	fmt.Fprintln(table, "Pair\tSpot\tSource\tAs Of (UTC)")
	for _, q := range quotes {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", q.Pair, q.Rate.StringFixed(4), q.Source, q.AsOf.UTC().Format(time.RFC3339))
	}
	return table.Flush()
}

// RenderCurve prints one row per tenor.
func RenderCurve(w io.Writer, curve forward.Curve) error {
	table := newTable(w)
	fmt.Fprintln(table, "Tenor\tDays\tForward Rate\tForward Points\tSettlement Date")
	for _, p := range curve.Points() {
		fmt.Fprintf(table, "%s\t%d\t%s\t%s\t%s\n",
			p.Tenor, p.Days, p.ForwardRate.StringFixed(4), p.ForwardPoints.StringFixed(2), p.SettlementDate.Format(dateLayout))
	}
	return table.Flush()
}

// RenderHedge prints hedge economics.
func RenderHedge(w io.Writer, info hedging.HedgeInfo) error {
	table := newTable(w)
	fmt.Fprintf(table, "Spot Rate:\t%s\n", info.SpotRate.StringFixed(4))
	fmt.Fprintf(table, "Forward Rate (%s):\t%s\n", info.Tenor, info.ForwardRate.StringFixed(4))
	fmt.Fprintf(table, "Forward Points:\t%s pips\n", info.ForwardPoints.StringFixed(2))
	fmt.Fprintf(table, "Premium/Discount:\t%s%%\n", info.PremiumDiscountPct.StringFixed(4))
	fmt.Fprintf(table, "Hedged Amount:\t%s\n", moneyPrinter.Sprintf("%.0f", info.HedgedAmount.InexactFloat64()))
	fmt.Fprintf(table, "Unhedged Amount:\t%s\n", moneyPrinter.Sprintf("%.0f", info.UnhedgedAmount.InexactFloat64()))
	fmt.Fprintf(table, "Settlement Date:\t%s\n", info.SettlementDate.Format(dateLayout))
	return table.Flush()
}

// RenderScenarios prints scenario P&L rows.
func RenderScenarios(w io.Writer, scenarios []hedging.ScenarioResult) error {
	table := newTable(w)
	fmt.Fprintln(table, "Future Spot\tChange %\tHedged P&L\tUnhedged P&L\tTotal P&L\tEffective Rate")
	for _, s := range scenarios {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.FutureSpot.StringFixed(4),
			s.SpotChangePct.StringFixed(2),
			s.HedgedPnL.StringFixed(2),
			s.UnhedgedPnL.StringFixed(2),
			s.TotalPnL.StringFixed(2),
			s.EffectiveRate.StringFixed(4),
		)
	}
	return table.Flush()
}

// RenderComparison prints hedge-ratio comparison rows.
func RenderComparison(w io.Writer, rows []hedging.ComparisonRow) error {
	table := newTable(w)
	fmt.Fprintln(table, "Hedge Ratio\tHedged Amount\tUnhedged Amount\tTotal P&L\tEffective Rate")
	for _, r := range rows {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
			r.Label,
			r.HedgedAmount.StringFixed(2),
			r.UnhedgedAmount.StringFixed(2),
			r.TotalPnL.StringFixed(2),
			r.EffectiveRate.StringFixed(4),
		)
	}
	return table.Flush()
}

// RenderRecommendation prints the recommended strategy.
func RenderRecommendation(w io.Writer, rec hedging.Recommendation) error {
	_, err := fmt.Fprintf(w, "\nRecommended Strategy: %s\n\nRationale:\n%s\n\nForward Premium/Discount: %s\n\nSuggested Action:\n%s\n",
		rec.Label, rec.Rationale, rec.ForwardPremiumDiscount, rec.Action)
	return err
}

// RenderSnapshots prints persisted curve snapshot rows.
func RenderSnapshots(w io.Writer, rows []storage.CurveSnapshot) error {
	table := newTable(w)
	fmt.Fprintln(table, "Captured (UTC)\tPair\tTenor\tSpot\tForward\tPoints\tPremium%\tSource")
	for _, r := range rows {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CapturedAt.UTC().Format(time.RFC3339),
			r.Pair,
			r.Tenor,
			r.SpotRate.StringFixed(4),
			r.ForwardRate.StringFixed(4),
			r.ForwardPoints.StringFixed(2),
			r.PremiumPct.StringFixed(4),
			sanitizeInline(r.Source),
		)
	}
	return table.Flush()
}

// RenderAnalyses prints recorded analyze runs.
func RenderAnalyses(w io.Writer, rows []storage.HedgeAnalysis) error {
	table := newTable(w)
	fmt.Fprintln(table, "Created (UTC)\tID\tPair\tNotional\tTenor\tRatio\tView\tRecommended\tForward\tPremium%")
	for _, r := range rows {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.ID,
			r.Pair,
			moneyPrinter.Sprintf("%.0f", r.Notional.InexactFloat64()),
			r.Tenor,
			hedging.RatioLabel(r.HedgeRatio),
			r.MarketView,
			hedging.RatioLabel(r.RecommendedRatio),
			r.ForwardRate.StringFixed(4),
			r.PremiumPct.StringFixed(4),
		)
	}
	return table.Flush()
}

// RenderAlerts prints recorded premium alerts.
func RenderAlerts(w io.Writer, rows []storage.AlertRecord) error {
	table := newTable(w)
	fmt.Fprintln(table, "Captured (UTC)\tPair\tTenor\tPremium%\tThreshold%\tDirection\tChannels")
	for _, r := range rows {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CapturedAt.UTC().Format(time.RFC3339),
			r.Pair,
			r.Tenor,
			r.PremiumPct.StringFixed(4),
			r.ThresholdPct.StringFixed(2),
			r.Direction,
			strings.Join(r.Channels, ","),
		)
	}
	return table.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
