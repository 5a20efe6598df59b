package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	simulatePair string
	simulateSpot float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Price one pair at a given spot and send any premium alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePair == "" || simulateSpot <= 0 {
			return errors.New("--pair and a positive --spot are required")
		}
		return getApp().SimulateAlert(cmd.Context(), simulatePair, simulateSpot)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePair, "pair", "", "Currency pair, e.g. USD/JPY")
	simulateCmd.Flags().Float64Var(&simulateSpot, "spot", 0, "Spot rate to price the curve from")
}
