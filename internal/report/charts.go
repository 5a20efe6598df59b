package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fxhedge/internal/forward"
	"fxhedge/internal/hedging"
	"fxhedge/internal/storage"
)

const (
	chartWidth  = 1280
	chartHeight = 720
)

var (
	colorPositive = drawing.ColorFromHex("2ca02c")
	colorNegative = drawing.ColorFromHex("d62728")
	colorSpot     = drawing.ColorFromHex("ff7f0e")
	colorForward  = drawing.ColorFromHex("9467bd")

	moneyPrinter = message.NewPrinter(language.English)
)

func rateFormatter(v interface{}) string {
	return chart.FloatValueFormatterWithFormat(v, "%.4f")
}

func pctFormatter(v interface{}) string {
	return chart.FloatValueFormatterWithFormat(v, "%.2f%%")
}

func moneyFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return moneyPrinter.Sprintf("$%.0f", f)
	}
	return fmt.Sprint(v)
}

// paddedRange fits values with a 10% margin and never returns a zero-width range.
func paddedRange(values ...float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		return &chart.ContinuousRange{Min: -1, Max: 1}
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Abs(hi) * 0.01
	}
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func tenorTicks(points []forward.Point) []chart.Tick {
	ticks := make([]chart.Tick, 0, len(points))
	for _, p := range points {
		ticks = append(ticks, chart.Tick{Value: float64(p.Days), Label: p.Tenor.String()})
	}
	return ticks
}

// CurveChart plots forward rates against tenor, with forward points on the secondary axis.
func CurveChart(path string, curve forward.Curve) error {
	points := curve.Points()
	days := make([]float64, len(points))
	rates := make([]float64, len(points))
	pips := make([]float64, len(points))
	for i, p := range points {
		days[i] = float64(p.Days)
		rates[i] = p.ForwardRate.InexactFloat64()
		pips[i] = p.ForwardPoints.InexactFloat64()
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Forward Curve (as of %s)", curve.Pair(), curve.AsOf().Format(dateLayout)),
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:  "Tenor",
			Ticks: tenorTicks(points),
		},
		YAxis: chart.YAxis{
			Name:           "Forward Rate",
			ValueFormatter: rateFormatter,
			Range:          paddedRange(rates...),
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Forward Points (pips)",
			ValueFormatter: chart.FloatValueFormatter,
			Range:          paddedRange(pips...),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Forward Rate",
				XValues: days,
				YValues: rates,
				Style:   chart.Style{StrokeWidth: 3, DotWidth: 5},
			},
			chart.ContinuousSeries{
				Name:    "Forward Points",
				XValues: days,
				YValues: pips,
				YAxis:   chart.YAxisSecondary,
				Style:   chart.Style{StrokeWidth: 2, StrokeDashArray: []float64{5, 5}, DotWidth: 4},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(path, graph.Render)
}

// ScenarioChart plots total, hedged and unhedged P&L across future spots, with
// markers at the current spot and the locked-in forward rate.
func ScenarioChart(path string, scenarios []hedging.ScenarioResult, hedge hedging.HedgeInfo) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios to plot")
	}

	x := make([]float64, len(scenarios))
	total := make([]float64, len(scenarios))
	hedged := make([]float64, len(scenarios))
	unhedged := make([]float64, len(scenarios))
	var labels []chart.Value2
	for i, s := range scenarios {
		x[i] = s.FutureSpot.InexactFloat64()
		total[i] = s.TotalPnL.InexactFloat64()
		hedged[i] = s.HedgedPnL.InexactFloat64()
		unhedged[i] = s.UnhedgedPnL.InexactFloat64()
		if i%2 == 0 {
			labels = append(labels, chart.Value2{XValue: x[i], YValue: total[i], Label: moneyFormatter(total[i])})
		}
	}

	all := append(append(append([]float64{}, total...), hedged...), unhedged...)
	yRange := paddedRange(all...)
	spot := hedge.SpotRate.InexactFloat64()
	fwd := hedge.ForwardRate.InexactFloat64()

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Total P&L",
			XValues: x,
			YValues: total,
			Style:   chart.Style{StrokeWidth: 3, DotWidth: 6},
		},
		chart.ContinuousSeries{
			Name:    "Hedged P&L",
			XValues: x,
			YValues: hedged,
			Style:   chart.Style{StrokeWidth: 2, StrokeDashArray: []float64{6, 4}, DotWidth: 4},
		},
		chart.ContinuousSeries{
			Name:    "Unhedged P&L",
			XValues: x,
			YValues: unhedged,
			Style:   chart.Style{StrokeWidth: 2, StrokeDashArray: []float64{6, 4}, DotWidth: 4},
		},
		verticalMarker(fmt.Sprintf("Current Spot: %.4f", spot), spot, yRange, colorSpot),
		verticalMarker(fmt.Sprintf("Forward Rate: %.4f", fwd), fwd, yRange, colorForward),
		chart.AnnotationSeries{Annotations: labels},
	}

	graph := chart.Chart{
		Title: moneyPrinter.Sprintf("FX Hedging Scenario Analysis: %s | Notional: %.0f | Hedge Ratio: %s | Tenor: %s",
			hedge.Pair, hedge.Notional.InexactFloat64(), hedging.RatioLabel(hedge.HedgeRatio), hedge.Tenor),
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:           "Future Spot Rate",
			ValueFormatter: rateFormatter,
			Range:          paddedRange(append(append([]float64{}, x...), spot, fwd)...),
		},
		YAxis: chart.YAxis{
			Name:           "P&L",
			ValueFormatter: moneyFormatter,
			Range:          yRange,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(path, graph.Render)
}

func verticalMarker(name string, x float64, yRange *chart.ContinuousRange, color drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{x, x},
		YValues: []float64{yRange.Min, yRange.Max},
		Style:   chart.Style{StrokeColor: color, StrokeWidth: 2, StrokeDashArray: []float64{2, 4}},
	}
}

// ComparisonChart draws total P&L per hedge ratio at a single future spot.
func ComparisonChart(path string, rows []hedging.ComparisonRow, pair forward.CurrencyPair, futureSpot float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("no comparison rows to plot")
	}

	bars := make([]chart.Value, 0, len(rows))
	values := []float64{0}
	for _, r := range rows {
		pnl := r.TotalPnL.InexactFloat64()
		color := colorPositive
		if pnl < 0 {
			color = colorNegative
		}
		bars = append(bars, chart.Value{
			Value: pnl,
			Label: fmt.Sprintf("%s (%s)", r.Label, r.EffectiveRate.StringFixed(4)),
			Style: chart.Style{FillColor: color.WithAlpha(180), StrokeColor: drawing.ColorBlack, StrokeWidth: 1.5},
		})
		values = append(values, pnl)
	}

	graph := chart.BarChart{
		Title:        fmt.Sprintf("Hedge Ratio Comparison: %s | Future Spot Scenario: %.4f", pair, futureSpot),
		Width:        chartWidth,
		Height:       chartHeight,
		BarWidth:     120,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Name:           "Total P&L",
			ValueFormatter: moneyFormatter,
			Range:          paddedRange(values...),
		},
		Bars: bars,
	}

	return renderPNG(path, graph.Render)
}

// DashboardChart overlays the forward premium/discount term structure of every curve,
// so pairs with very different price levels share one axis.
func DashboardChart(path string, curves []forward.Curve) error {
	if len(curves) == 0 {
		return fmt.Errorf("no curves to plot")
	}

	var series []chart.Series
	var all []float64
	var ticks []chart.Tick
	for _, curve := range curves {
		points := curve.Points()
		spot, err := curve.Spot()
		if err != nil || !spot.ForwardRate.IsPositive() {
			continue
		}
		if ticks == nil {
			ticks = tenorTicks(points)
		}
		days := make([]float64, len(points))
		premium := make([]float64, len(points))
		for i, p := range points {
			days[i] = float64(p.Days)
			premium[i] = p.ForwardRate.Sub(spot.ForwardRate).Div(spot.ForwardRate).InexactFloat64() * 100
		}
		all = append(all, premium...)
		series = append(series, chart.ContinuousSeries{
			Name:    curve.Pair().String(),
			XValues: days,
			YValues: premium,
			Style:   chart.Style{StrokeWidth: 2, DotWidth: 4},
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("no curves with a positive spot to plot")
	}

	graph := chart.Chart{
		Title:  "FX Forward Curves Dashboard",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:  "Tenor",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:           "Forward Premium/Discount",
			ValueFormatter: pctFormatter,
			Range:          paddedRange(all...),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return renderPNG(path, graph.Render)
}

// HistoryChart plots persisted snapshots of one pair and tenor over time: the
// forward rate on the primary axis and the premium on the secondary axis.
func HistoryChart(path string, rows []storage.CurveSnapshot) error {
	if len(rows) < 2 {
		return fmt.Errorf("need at least two snapshots to plot history, got %d", len(rows))
	}

	x := make([]time.Time, len(rows))
	spot := make([]float64, len(rows))
	fwd := make([]float64, len(rows))
	premium := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.CapturedAt
		spot[i] = r.SpotRate.InexactFloat64()
		fwd[i] = r.ForwardRate.InexactFloat64()
		premium[i] = r.PremiumPct.InexactFloat64()
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s %s forward history", rows[0].Pair, rows[0].Tenor),
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Rate",
			ValueFormatter: rateFormatter,
			Range:          paddedRange(append(append([]float64{}, spot...), fwd...)...),
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Premium (%)",
			ValueFormatter: pctFormatter,
			Range:          paddedRange(premium...),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Spot",
				XValues: x,
				YValues: spot,
			},
			chart.TimeSeries{
				Name:    "Forward",
				XValues: x,
				YValues: fwd,
			},
			chart.TimeSeries{
				Name:    "Premium %",
				XValues: x,
				YValues: premium,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(path, graph.Render)
}

type renderFunc func(rp chart.RendererProvider, w io.Writer) error

func renderPNG(path string, render renderFunc) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := render(chart.PNG, file); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
