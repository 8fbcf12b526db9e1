package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/umlpad/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session HTTP API",
	Long: `Starts an editing session and exposes it over HTTP: source updates,
manual generate, viewport control, history, an SSE change stream on /events
and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signalContext()
		defer stop()
		return cli.RunServe(ctx, rt, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
