package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/history"
)

// NewRenderer returns a function that renders markdown using glamour.
// If no terminal renderer can be built the markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// HistoryMarkdown lists entries newest first with their relative age.
func HistoryMarkdown(entries []domain.HistoryEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString("# History\n\n")
	if len(entries) == 0 {
		b.WriteString("_No saved diagrams._\n")
		return b.String()
	}

	b.WriteString("| Title | Saved | ID |\n|---|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | `%s` |\n",
			escapeCell(e.Title), history.FormatAge(e.CreatedAt, now), e.ID)
	}
	return b.String()
}

// EntryMarkdown shows one entry with its full source.
func EntryMarkdown(e domain.HistoryEntry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Title)
	fmt.Fprintf(&b, "Saved %s (`%s`)\n\n", history.FormatAge(e.CreatedAt, now), e.ID)
	b.WriteString("```plantuml\n")
	b.WriteString(strings.TrimRight(e.Source, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
