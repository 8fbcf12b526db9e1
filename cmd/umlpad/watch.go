package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/umlpad"
	"github.com/aretw0/umlpad/internal/cli"
	"github.com/aretw0/umlpad/internal/presentation/tui"
)

var watchOpts cli.WatchOptions

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Live-render a PlantUML file as it changes",
	Long: `Watches a PlantUML file and re-renders it once typing pauses.
On a terminal, single keys control the session: g generate now, r retry the
service, s save to history, + - 0 zoom, q quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watchOpts.Source = args[0]
		if watchOpts.Output == "" {
			watchOpts.Output = strings.TrimSuffix(args[0], ".puml") + ".svg"
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(umlpad.Version))
		ctx, stop := signalContext()
		defer stop()
		return cli.RunWatch(ctx, rt, watchOpts, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchOpts.Output, "out", "o", "", "SVG output file (default <file>.svg)")
	watchCmd.Flags().BoolVar(&watchOpts.Keys, "keys", true, "Enable single-key commands on a terminal")
}
