package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fxhedge/internal/app"
)

var showOpts app.ShowOptions

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent snapshots, analyses or alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showOpts.Limit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}
		return getApp().Show(cmd.Context(), showOpts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showOpts.Kind, "kind", app.ShowSnapshots, "Records to display: snapshots, analyses or alerts")
	showCmd.Flags().StringVar(&showOpts.Pair, "pair", "", "Filter snapshots by pair")
	showCmd.Flags().StringVar(&showOpts.Tenor, "tenor", "", "Filter snapshots by tenor")
	showCmd.Flags().IntVar(&showOpts.Limit, "limit", 20, "Number of records to display")
}
