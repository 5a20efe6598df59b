package cli

import (
	"github.com/spf13/cobra"

	"fxhedge/internal/app"
)

var curvesOpts app.CurvesOptions

var curvesCmd = &cobra.Command{
	Use:   "curves",
	Short: "Print forward curves for every configured pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Curves(cmd.Context(), curvesOpts)
	},
}

func init() {
	curvesCmd.Flags().StringVar(&curvesOpts.OutputDir, "out", "", "Output directory (defaults to config)")
	curvesCmd.Flags().BoolVar(&curvesOpts.Dashboard, "dashboard", false, "Render a multi-pair premium chart")
	curvesCmd.Flags().BoolVar(&curvesOpts.CSV, "csv", false, "Write one CSV per curve")
}
