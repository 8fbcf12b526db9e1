package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/umlpad/internal/presentation/tui"
)

// HistoryOptions controls how history commands print.
type HistoryOptions struct {
	// Raw prints plain markdown or source instead of styled terminal output.
	Raw bool
	Now func() time.Time
}

func (o HistoryOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o HistoryOptions) print(w io.Writer, markdown string) error {
	if !o.Raw {
		if out, err := tui.NewRenderer()(markdown); err == nil {
			markdown = out
		}
	}
	_, err := io.WriteString(w, markdown)
	return err
}

// RunHistoryList prints saved diagrams, newest first.
func RunHistoryList(ctx context.Context, rt *Runtime, opts HistoryOptions, w io.Writer) error {
	entries, err := rt.Editor.History().List(ctx)
	if err != nil {
		return err
	}
	return opts.print(w, tui.HistoryMarkdown(entries, opts.now()))
}

// RunHistoryShow prints one entry. In raw mode only the source is written.
func RunHistoryShow(ctx context.Context, rt *Runtime, id string, opts HistoryOptions, w io.Writer) error {
	entry, err := rt.Editor.History().Get(ctx, id)
	if err != nil {
		return err
	}
	if opts.Raw {
		_, err := io.WriteString(w, entry.Source)
		return err
	}
	return opts.print(w, tui.EntryMarkdown(entry, opts.now()))
}

// RunHistorySave stores the source read from path under title.
func RunHistorySave(ctx context.Context, rt *Runtime, path, title string, stdin io.Reader, w io.Writer) error {
	source, err := readSource(path, stdin)
	if err != nil {
		return err
	}
	entry, err := rt.Editor.History().Save(ctx, source, title)
	if err != nil {
		return err
	}
	printSystemMessage(w, "Saved '%s' (%s).", entry.Title, entry.ID)
	return nil
}

// RunHistoryDelete removes one entry.
func RunHistoryDelete(ctx context.Context, rt *Runtime, id string, w io.Writer) error {
	if err := rt.Editor.History().Delete(ctx, id); err != nil {
		return err
	}
	printSystemMessage(w, "Deleted %s.", id)
	return nil
}

// RunHistoryClear removes every entry.
func RunHistoryClear(ctx context.Context, rt *Runtime, w io.Writer) error {
	if err := rt.Editor.History().Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	printSystemMessage(w, "History cleared.")
	return nil
}
