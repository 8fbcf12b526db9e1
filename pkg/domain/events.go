package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventProbe        EventType = "probe"
	EventAvailability EventType = "availability"
	EventCommit       EventType = "commit"
	EventRenderStart  EventType = "render_start"
	EventRenderDone   EventType = "render_done"
	EventHistory      EventType = "history"
)

// CommitSource tells whether a commit came from the debounce timer or a manual trigger.
type CommitSource string

const (
	CommitDebounced CommitSource = "debounced"
	CommitManual    CommitSource = "manual"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ProbeEvent reports a single health probe.
type ProbeEvent struct {
	EventBase
	Attempt int    `json:"attempt"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// AvailabilityEvent reports a change of the availability signal.
type AvailabilityEvent struct {
	EventBase
	From Availability `json:"from"`
	To   Availability `json:"to"`
}

// CommitEvent reports a commit emitted by the debounce pipeline.
type CommitEvent struct {
	EventBase
	Source CommitSource `json:"source"`
	Length int          `json:"length"`
}

// RenderEvent reports the start or resolution of a render attempt.
type RenderEvent struct {
	EventBase
	Request  RenderRequest `json:"request"`
	Outcome  RenderOutcome `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

// HistoryEvent reports a history mutation.
type HistoryEvent struct {
	EventBase
	Op      string `json:"op"`
	EntryID string `json:"entry_id,omitempty"`
	Size    int    `json:"size"`
}

// LifecycleHooks defines callbacks for observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnProbe        func(context.Context, *ProbeEvent)
	OnAvailability func(context.Context, *AvailabilityEvent)
	OnCommit       func(context.Context, *CommitEvent)
	OnRenderStart  func(context.Context, *RenderEvent)
	OnRenderDone   func(context.Context, *RenderEvent)
	OnHistory      func(context.Context, *HistoryEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnProbe:        chain(h.OnProbe, other.OnProbe),
		OnAvailability: chain(h.OnAvailability, other.OnAvailability),
		OnCommit:       chain(h.OnCommit, other.OnCommit),
		OnRenderStart:  chain(h.OnRenderStart, other.OnRenderStart),
		OnRenderDone:   chain(h.OnRenderDone, other.OnRenderDone),
		OnHistory:      chain(h.OnHistory, other.OnHistory),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
