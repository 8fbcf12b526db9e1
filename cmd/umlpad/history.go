package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/umlpad/internal/cli"
)

var historyOpts cli.HistoryOptions

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved diagrams",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved diagrams, newest first",
	Args:  cobra.NoArgs,
	RunE: withRuntime(func(ctx context.Context, rt *cli.Runtime, cmd *cobra.Command, args []string) error {
		return cli.RunHistoryList(ctx, rt, historyOpts, cmd.OutOrStdout())
	}),
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved diagram (--raw prints only the source)",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(ctx context.Context, rt *cli.Runtime, cmd *cobra.Command, args []string) error {
		return cli.RunHistoryShow(ctx, rt, args[0], historyOpts, cmd.OutOrStdout())
	}),
}

var historySaveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Save a PlantUML file (or stdin) to history",
	Args:  cobra.MaximumNArgs(1),
	RunE: withRuntime(func(ctx context.Context, rt *cli.Runtime, cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		title, _ := cmd.Flags().GetString("title")
		return cli.RunHistorySave(ctx, rt, path, title, cmd.InOrStdin(), cmd.OutOrStdout())
	}),
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved diagram",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(ctx context.Context, rt *cli.Runtime, cmd *cobra.Command, args []string) error {
		return cli.RunHistoryDelete(ctx, rt, args[0], cmd.OutOrStdout())
	}),
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved diagram",
	Args:  cobra.NoArgs,
	RunE: withRuntime(func(ctx context.Context, rt *cli.Runtime, cmd *cobra.Command, args []string) error {
		return cli.RunHistoryClear(ctx, rt, cmd.OutOrStdout())
	}),
}

func withRuntime(run func(context.Context, *cli.Runtime, *cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()
		return run(context.Background(), rt, cmd, args)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySaveCmd, historyDeleteCmd, historyClearCmd)
	historyCmd.PersistentFlags().BoolVar(&historyOpts.Raw, "raw", false, "Print plain markdown or source")
	historySaveCmd.Flags().String("title", "", "Entry title (derived from the source when empty)")
}
