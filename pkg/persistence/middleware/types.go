package middleware

import "github.com/aretw0/umlpad/pkg/ports"

// Middleware allows wrapping a HistoryBackend to add behavior.
type Middleware func(ports.HistoryBackend) ports.HistoryBackend
