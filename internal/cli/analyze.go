package cli

import (
	"github.com/spf13/cobra"

	"fxhedge/internal/app"
)

var analyzeOpts app.AnalyzeOptions
var analyzeRatio float64

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full hedging analysis for one exposure",
	Long: `Fetch spot, build the forward curve, then print hedge cost, scenario P&L,
a hedge-ratio comparison and a recommendation. Charts and CSVs are written to
the output directory. Unset flags fall back to the analysis section of the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := analyzeOpts
		if cmd.Flags().Changed("ratio") {
			ratio := analyzeRatio
			opts.HedgeRatio = &ratio
		}
		return getApp().Analyze(cmd.Context(), opts)
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.Pair, "pair", "", "Currency pair, e.g. USD/CAD")
	f.Float64Var(&analyzeOpts.Notional, "notional", 0, "Exposure in base currency units")
	f.StringVar(&analyzeOpts.Tenor, "tenor", "", "Hedge tenor (Spot, 1W, 1M, 2M, 3M, 6M, 9M, 1Y)")
	f.Float64Var(&analyzeRatio, "ratio", 0, "Hedge ratio between 0 and 1")
	f.StringVar(&analyzeOpts.MarketView, "view", "", "Market view: bullish, neutral or bearish")
	f.StringVar(&analyzeOpts.OutputDir, "out", "", "Output directory (defaults to config)")
	f.BoolVar(&analyzeOpts.NoCharts, "no-charts", false, "Skip PNG charts")
	f.BoolVar(&analyzeOpts.NoExport, "no-export", false, "Skip CSV exports")
}
