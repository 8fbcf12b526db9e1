package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmptySource is returned when an operation needs non-blank diagram source.
var ErrEmptySource = errors.New("empty source")

// ErrServiceUnavailable is returned when the render service is known to be offline.
var ErrServiceUnavailable = errors.New("service unavailable")

// ErrTimeout marks a render or probe that did not complete in time.
var ErrTimeout = errors.New("request timeout")

// ErrNetwork marks a transport failure reaching the render service.
var ErrNetwork = errors.New("network error")

// ErrEntryNotFound is returned when a history entry ID does not exist.
var ErrEntryNotFound = errors.New("history entry not found")

// ErrCorruptHistory is returned by backends whose stored data cannot be decoded.
var ErrCorruptHistory = errors.New("corrupt history data")

// RejectedError is a structured error payload returned by the render service.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("render rejected (http %d)", e.StatusCode)
	}
	return e.Message
}

// Classify maps an error from the render service onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return ErrorServiceRejected
	}
	if errors.Is(err, ErrEmptySource) {
		return ErrorEmptySource
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return ErrorServiceUnavailable
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	if errors.Is(err, ErrNetwork) {
		return ErrorNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTimeout
		}
		return ErrorNetwork
	}
	return ErrorUnknown
}

// Message returns the text surfaced to the user for err.
// Rejections carry the service message verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Error()
	}
	return err.Error()
}
