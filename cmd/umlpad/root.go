package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/umlpad/internal/cli"
)

var globalOpts cli.Options

var rootCmd = &cobra.Command{
	Use:           "umlpad",
	Short:         "umlpad is a live PlantUML editor backed by a render service",
	Long:          `umlpad renders PlantUML diagrams through a remote render service, with debounced live preview, zoom and a local history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&globalOpts.ConfigPath, "config", "c", "", "Config file (default ./umlpad.yaml if present)")
	f.StringVar(&globalOpts.APIURL, "api-url", "", "Render service base URL (overrides config and $UMLPAD_API_URL)")
	f.StringVar(&globalOpts.HistoryBackend, "history", "", "History backend: memory, file or redis")
	f.StringVar(&globalOpts.HistoryPath, "history-path", "", "History file for the file backend")
	f.BoolVar(&globalOpts.Debug, "debug", false, "Enable debug logging to stderr")
}

// newRuntime loads the configuration and wires an editor for a command.
func newRuntime() (*cli.Runtime, error) {
	cfg, err := cli.LoadConfig(globalOpts)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return cli.NewRuntime(cfg, logger)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
