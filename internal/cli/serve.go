package cli

import (
	"github.com/spf13/cobra"

	"fxhedge/internal/app"
)

var serveOpts app.ServeOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve curves and hedge analyses over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Serve(cmd.Context(), serveOpts)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", "", "Listen address (defaults to server.addr)")
}
