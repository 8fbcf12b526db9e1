package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/umlpad/internal/config"
	"github.com/aretw0/umlpad/internal/logging"
)

// Options are the global command-line flags. Set fields override the config file.
type Options struct {
	ConfigPath     string
	APIURL         string
	HistoryBackend string
	HistoryPath    string
	Debug          bool
}

// LoadConfig resolves the configuration and applies flag overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.HistoryBackend != "" {
		cfg.History.Backend = opts.HistoryBackend
	}
	if opts.HistoryPath != "" {
		cfg.History.Path = opts.HistoryPath
	}
	if opts.Debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// NewLogger builds the stderr logger for the configured level.
func NewLogger(level string) (*slog.Logger, error) {
	if level == "" || level == "off" {
		return logging.NewNop(), nil
	}
	l, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(l), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
