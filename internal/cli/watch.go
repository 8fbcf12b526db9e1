package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"

	"github.com/aretw0/umlpad"
	"github.com/aretw0/umlpad/internal/presentation/tui"
	"github.com/aretw0/umlpad/pkg/viewport"
)

// WatchOptions configures watch mode.
type WatchOptions struct {
	// Source is the PlantUML file being edited.
	Source string
	// Output receives the SVG after every successful render. Empty disables it.
	Output string
	// Keys enables single-key commands on a terminal stdin.
	Keys bool
}

const watchHelp = "keys: g generate, r retry, s save, + - 0 zoom, q quit"

// RunWatch feeds every change of the source file into the editor and writes
// each rendered image to the output file until ctx is done or q is pressed.
func RunWatch(ctx context.Context, rt *Runtime, opts WatchOptions, stdin *os.File, stdout io.Writer) error {
	if opts.Source == "" || opts.Source == "-" {
		return errors.New("watch needs a source file")
	}
	source, err := readSource(opts.Source, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt.Editor.SetSource(source)
	changes, err := rt.Editor.Watch(ctx)
	if err != nil {
		return err
	}

	printSystemMessage(stdout, "Watching '%s'.", opts.Source)
	if opts.Keys && stdin != nil && term.IsTerminal(int(stdin.Fd())) {
		restore, err := readKeys(ctx, rt.Editor, stdin, stdout, cancel)
		if err != nil {
			return err
		}
		defer restore()
		printSystemMessage(stdout, watchHelp)
	}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watchFile(ctx, opts.Source, source, func(text string) {
			rt.Logger.Debug("source changed", "path", opts.Source, "length", len(text))
			rt.Editor.Edit(text)
		})
	}()
	rt.StartBackground(ctx)
	if rt.Config.Metrics.Addr != "" {
		go rt.serveMetrics(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			printSystemMessage(stdout, "Stopped.")
			return nil
		case err := <-watchErr:
			return err
		case kind, ok := <-changes:
			if !ok {
				return nil
			}
			reportChange(rt, kind, opts.Output, stdout)
		}
	}
}

func reportChange(rt *Runtime, kind, output string, w io.Writer) {
	st := rt.Editor.Status()
	switch kind {
	case umlpad.ChangeAvailability:
		fmt.Fprintf(w, "%s\r\n", tui.StatusLine(st.Availability, st.Attempt, rt.Config.MaxAttempts))
	case umlpad.ChangeRender:
		if st.Render.Error != "" {
			fmt.Fprintf(w, "%s\r\n", tui.ErrorLine(st.Render.Error))
			return
		}
		if st.Render.Image == "" {
			return
		}
		if output != "" {
			if err := writeImage(output, st.Render.Image, w); err != nil {
				fmt.Fprintf(w, "%s\r\n", tui.ErrorLine(err.Error()))
				return
			}
		}
		fmt.Fprintf(w, ">>> Rendered %d bytes.\r\n", len(st.Render.Image))
	case umlpad.ChangeViewport:
		fmt.Fprintf(w, ">>> Zoom %d%% (%s)\r\n", st.Viewport.Zoom, st.Transform)
	}
}

// watchFile calls onChange with the new content each time path is written
// with text different from the last seen, starting from initial.
// The parent directory is watched so editors that replace the file are seen.
func watchFile(ctx context.Context, path, initial string, onChange func(string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	last := initial
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return err
			}
			if text := string(data); text != last {
				last = text
				onChange(text)
			}
		}
	}
}

// readKeys puts stdin in raw mode and dispatches single-key commands.
func readKeys(ctx context.Context, editor *umlpad.Editor, stdin *os.File, w io.Writer, quit func()) (func(), error) {
	fd := int(stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw mode: %w", err)
	}
	restore := func() { _ = term.Restore(fd, state) }

	go func() {
		buf := make([]byte, 1)
		for ctx.Err() == nil {
			if _, err := stdin.Read(buf); err != nil {
				quit()
				return
			}
			if msg, stop := handleKeyCommand(ctx, editor, buf[0]); stop {
				quit()
				return
			} else if msg != "" {
				fmt.Fprintf(w, ">>> %s\r\n", msg)
			}
		}
	}()
	return restore, nil
}

// handleKeyCommand runs the command bound to key. stop is true for quit keys.
func handleKeyCommand(ctx context.Context, editor *umlpad.Editor, key byte) (msg string, stop bool) {
	switch key {
	case 'q', 0x03, 0x04:
		return "", true
	case 'g':
		if !editor.Generate() {
			return "Generate unavailable (service offline or render in progress).", false
		}
		return "", false
	case 'r':
		if err := editor.Retry(ctx); err != nil {
			return fmt.Sprintf("Retry failed: %v", err), false
		}
		return "Service online.", false
	case 's':
		entry, err := editor.SaveHistory(ctx, "")
		if err != nil {
			return fmt.Sprintf("Save failed: %v", err), false
		}
		return fmt.Sprintf("Saved '%s'.", entry.Title), false
	case '?', 'h':
		return watchHelp, false
	}

	k := viewport.Key{Rune: rune(key)}
	if key == '=' {
		k = viewport.Key{Rune: '=', Ctrl: true}
	}
	editor.HandleKey(k, true)
	return "", false
}
