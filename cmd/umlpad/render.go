package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/umlpad/internal/cli"
)

var renderOpts cli.RenderOptions

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a PlantUML file to SVG",
	Long: `Renders a diagram once. The source is read from the given file or stdin,
and the SVG is written to --out or stdout. The command waits for the render
service to come online, retrying with backoff.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			renderOpts.Input = args[0]
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signalContext()
		defer stop()
		return cli.RunRender(ctx, rt, renderOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOpts.Output, "out", "o", "", "SVG output file (default stdout)")
	renderCmd.Flags().BoolVar(&renderOpts.Save, "save", false, "Also save the source to history")
	renderCmd.Flags().StringVar(&renderOpts.Title, "title", "", "History title (derived from the source when empty)")
}
