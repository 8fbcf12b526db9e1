package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/umlpad"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of umlpad",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "umlpad version %s\n", strings.TrimSpace(umlpad.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
