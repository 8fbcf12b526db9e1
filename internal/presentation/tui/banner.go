package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the umlpad banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                 _                 _ ", "#818cf8"},
		{"  _   _ _ __ ___ | |_ __   __ _  __| |", "#a78bfa"},
		{" | | | | '_ ` _ \\| | '_ \\ / _` |/ _` |", "#c084fc"},
		{" | |_| | | | | | | | |_) | (_| | (_| |", "#e879f9"},
		{"  \\__,_|_| |_| |_|_| .__/ \\__,_|\\__,_|", "#f472b6"},
		{"                   |_|                ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
