package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/umlpad/pkg/domain"
)

// RenderOptions configures a one-shot render.
type RenderOptions struct {
	// Input is the source file; "-" or empty reads stdin.
	Input string
	// Output is the SVG file; "-" or empty writes stdout.
	Output string
	// Save also stores the source in history.
	Save  bool
	Title string
}

// RunRender renders one diagram, waiting for the service to come online first.
func RunRender(ctx context.Context, rt *Runtime, opts RenderOptions, stdin io.Reader, stdout io.Writer) error {
	source, err := readSource(opts.Input, stdin)
	if err != nil {
		return err
	}

	rt.Editor.SetSource(source)
	if err := rt.Editor.Start(ctx); err != nil {
		return fmt.Errorf("render service at %s: %w", rt.Client.BaseURL(), err)
	}

	outcome, issued := rt.Editor.Refresh(ctx)
	if !issued && outcome.Kind == domain.ErrorNone {
		return errors.New("render was not issued")
	}
	if !outcome.Success() {
		msg := outcome.Message
		if msg == "" {
			msg = string(outcome.Kind)
		}
		return fmt.Errorf("render failed: %s", msg)
	}

	if opts.Save {
		entry, err := rt.Editor.SaveHistory(ctx, opts.Title)
		if err != nil {
			return err
		}
		rt.Logger.Info("saved to history", "id", entry.ID, "title", entry.Title)
	}
	return writeImage(opts.Output, outcome.Image, stdout)
}

func readSource(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

func writeImage(path, svg string, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, svg)
		return err
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// RunHealth probes the render service once and prints its status and info.
func RunHealth(ctx context.Context, rt *Runtime, stdout io.Writer) error {
	status, err := rt.Client.Health(ctx)
	if err != nil {
		return fmt.Errorf("render service at %s is unavailable: %w", rt.Client.BaseURL(), err)
	}

	report := map[string]any{
		"url":     rt.Client.BaseURL(),
		"status":  status.Status,
		"message": status.Message,
	}
	if info, err := rt.Client.Info(ctx); err == nil {
		report["info"] = info
	} else {
		rt.Logger.Debug("service info unavailable", "error", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
