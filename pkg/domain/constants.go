package domain

import "time"

// Viewport limits. Zoom is an integer percentage.
const (
	MinZoom     = 25
	MaxZoom     = 300
	DefaultZoom = 100
	ZoomStep    = 25
	// WheelStep is the zoom delta applied per wheel notch.
	WheelStep = 10
)

// MaxHistoryItems caps the number of saved history entries.
const MaxHistoryItems = 100

// Timing defaults used by the core components.
const (
	DefaultDebounceWindow = 3 * time.Second
	DefaultRaceTimeout    = 10 * time.Second
	// DefaultTransportTimeout bounds the HTTP call itself. It is longer than
	// DefaultRaceTimeout, so with the defaults it never fires first.
	DefaultTransportTimeout = 15 * time.Second
	DefaultHealthTimeout    = 5 * time.Second
	DefaultGraceDelay       = 300 * time.Millisecond
)

// User-facing messages surfaced by the coordinator.
const (
	MsgServiceUnavailable = "Server is not available. Please make sure the PlantUML server is running."
	MsgConnectionLost     = "Server connection lost. Please check if the PlantUML server is running."
	MsgTimeoutRetry       = "Request timeout. Please try again."
)
