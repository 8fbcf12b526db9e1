package domain

import "time"

// ErrorKind classifies how a render attempt failed.
type ErrorKind string

const (
	ErrorNone               ErrorKind = ""
	ErrorEmptySource        ErrorKind = "empty_source"
	ErrorServiceUnavailable ErrorKind = "service_unavailable"
	ErrorTimeout            ErrorKind = "timeout"
	ErrorNetwork            ErrorKind = "network"
	ErrorServiceRejected    ErrorKind = "service_rejected"
	ErrorUnknown            ErrorKind = "unknown"
)

// Connectivity reports whether the failure may be caused by the service
// being unreachable, which warrants a health probe to disambiguate.
func (k ErrorKind) Connectivity() bool {
	return k == ErrorTimeout || k == ErrorNetwork
}

// RenderRequest is a single render attempt.
type RenderRequest struct {
	Source   string    `json:"source"`
	IssuedAt time.Time `json:"issued_at"`
}

// RenderOutcome is the resolution of a RenderRequest.
// A zero Kind means success and Image holds the rendered payload.
type RenderOutcome struct {
	Image   string    `json:"image,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Succeeded builds a successful outcome.
func Succeeded(image string) RenderOutcome {
	return RenderOutcome{Image: image}
}

// Failed builds a failed outcome.
func Failed(kind ErrorKind, message string) RenderOutcome {
	return RenderOutcome{Kind: kind, Message: message}
}

// Success reports whether the outcome carries an image.
func (o RenderOutcome) Success() bool {
	return o.Kind == ErrorNone
}
