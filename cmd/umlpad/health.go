package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/umlpad/internal/cli"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the render service",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RunHealth(context.Background(), rt, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
