package history

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	previewLines = 3
	previewLimit = 100
)

var kindPatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`class\s+(\w+)`), "Class Diagram"},
	{regexp.MustCompile(`participant\s+(\w+)`), "Sequence Diagram"},
	{regexp.MustCompile(`state\s+(\w+)`), "State Diagram"},
	{regexp.MustCompile(`component\s+(\w+)`), "Component Diagram"},
	{regexp.MustCompile(`actor\s+(\w+)`), "Use Case Diagram"},
}

// DeriveTitle picks a display title for source. In order of preference: the
// first "title" directive, the name after @startuml, the first declared
// element of a recognized diagram kind, or a timestamp.
func DeriveTitle(source string, now time.Time) string {
	lines := nonBlank(source)

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "title ") {
			return strings.TrimSpace(strings.Replace(line, "title ", "", 1))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@startuml") {
			if len(trimmed) > len("@startuml") {
				return strings.TrimSpace(strings.Replace(line, "@startuml", "", 1))
			}
			break
		}
	}

	for _, p := range kindPatterns {
		if m := p.re.FindStringSubmatch(source); m != nil {
			return fmt.Sprintf("%s: %s", p.kind, m[1])
		}
	}

	return "Diagram " + now.Format("2006-01-02 15:04")
}

// DerivePreview returns up to three content lines of source, skipping
// directives (@...) and preprocessor lines (!...), capped at 100 characters.
func DerivePreview(source string) string {
	var picked []string
	for _, line := range nonBlank(source) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		picked = append(picked, line)
		if len(picked) == previewLines {
			break
		}
	}

	preview := []rune(strings.Join(picked, "\n"))
	if len(preview) > previewLimit {
		return string(preview[:previewLimit]) + "..."
	}
	return string(preview)
}

// FormatAge renders how long ago t was, relative to now.
// Anything a week or older is shown as a date.
func FormatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return t.Format("2006-01-02")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func nonBlank(source string) []string {
	var out []string
	for _, line := range strings.Split(source, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
