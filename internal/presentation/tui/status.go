package tui

import (
	"fmt"

	"github.com/muesli/termenv"

	"github.com/aretw0/umlpad/pkg/domain"
)

// StatusLine renders the availability indicator shown in watch mode.
// attempt is only shown while checking.
func StatusLine(a domain.Availability, attempt, maxAttempts int) string {
	p := termenv.ColorProfile()
	switch a {
	case domain.AvailabilityOnline:
		return termenv.String("● online").Foreground(p.Color("#22c55e")).String()
	case domain.AvailabilityOffline:
		return termenv.String("● offline").Foreground(p.Color("#ef4444")).String()
	default:
		label := "● checking"
		if attempt > 0 {
			label = fmt.Sprintf("● checking (%d/%d)", attempt, maxAttempts)
		}
		return termenv.String(label).Foreground(p.Color("#eab308")).String()
	}
}

// ErrorLine renders a render failure message.
func ErrorLine(msg string) string {
	p := termenv.ColorProfile()
	return termenv.String("✗ " + msg).Foreground(p.Color("#ef4444")).String()
}
