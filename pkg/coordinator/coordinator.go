// Package coordinator issues render requests and enforces the render policy.
//
// At most one request is in flight. Requests are only issued while the service
// is Online, every call is raced against a timeout, and connectivity failures
// trigger a single health probe so the user sees whether the service is gone or
// merely slow.
package coordinator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/umlpad/internal/logging"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
)

// Availability is the part of the supervisor the coordinator depends on.
type Availability interface {
	State() domain.Availability
	Probe(ctx context.Context) error
}

// Snapshot is the render-facing state shown to the user.
type Snapshot struct {
	Image    string           `json:"image,omitempty"`
	Error    string           `json:"error,omitempty"`
	Kind     domain.ErrorKind `json:"kind,omitempty"`
	InFlight bool             `json:"in_flight"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout sets the race timeout. Defaults to domain.DefaultRaceTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock injects the time source for the race timer.
func WithClock(clock ports.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithHooks registers render lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = c.hooks.Merge(h)
	}
}

// Coordinator serializes render requests against a Renderer.
type Coordinator struct {
	renderer ports.Renderer
	avail    Availability

	mu       sync.Mutex
	image    string
	errMsg   string
	kind     domain.ErrorKind
	inFlight bool
	subs     []func(domain.RenderOutcome)

	timeout time.Duration
	clock   ports.Clock
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

// New creates a coordinator.
func New(renderer ports.Renderer, avail Availability, opts ...Option) *Coordinator {
	c := &Coordinator{
		renderer: renderer,
		avail:    avail,
		timeout:  domain.DefaultRaceTimeout,
		clock:    ports.SystemClock{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to receive the outcome of every issued request.
func (c *Coordinator) Subscribe(fn func(domain.RenderOutcome)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Snapshot returns the current image, error and in-flight flag.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Image: c.image, Error: c.errMsg, Kind: c.kind, InFlight: c.inFlight}
}

// InFlight reports whether a request is outstanding.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Clear drops the displayed image and error.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image, c.errMsg, c.kind = "", "", domain.ErrorNone
}

// RequestRender renders text if policy allows.
// The boolean is false when no request was issued: blank source, service not
// Online, or another request already in flight. It blocks until the request
// resolves or the race timeout elapses.
func (c *Coordinator) RequestRender(ctx context.Context, text string) (domain.RenderOutcome, bool) {
	if strings.TrimSpace(text) == "" {
		c.Clear()
		return domain.Failed(domain.ErrorEmptySource, ""), false
	}

	switch c.avail.State() {
	case domain.AvailabilityChecking:
		c.logger.Debug("render deferred while checking service")
		return domain.RenderOutcome{}, false
	case domain.AvailabilityOffline:
		c.mu.Lock()
		c.errMsg, c.kind = domain.MsgServiceUnavailable, domain.ErrorServiceUnavailable
		c.mu.Unlock()
		return domain.Failed(domain.ErrorServiceUnavailable, domain.MsgServiceUnavailable), false
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("render dropped, request already in flight")
		return domain.RenderOutcome{}, false
	}
	c.inFlight = true
	c.errMsg, c.kind = "", domain.ErrorNone
	c.mu.Unlock()

	req := domain.RenderRequest{Source: text, IssuedAt: c.clock.Now()}
	if c.hooks.OnRenderStart != nil {
		c.hooks.OnRenderStart(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: req.IssuedAt, Type: domain.EventRenderStart},
			Request:   req,
		})
	}

	outcome := c.race(ctx, text)
	if !outcome.Success() && outcome.Kind.Connectivity() {
		if err := c.avail.Probe(ctx); err != nil {
			outcome.Message = domain.MsgConnectionLost
		} else {
			outcome.Message = domain.MsgTimeoutRetry
		}
	}

	c.mu.Lock()
	if outcome.Success() {
		c.image, c.errMsg, c.kind = outcome.Image, "", domain.ErrorNone
	} else {
		c.image, c.errMsg, c.kind = "", outcome.Message, outcome.Kind
	}
	c.inFlight = false
	subs := append([]func(domain.RenderOutcome){}, c.subs...)
	c.mu.Unlock()

	elapsed := c.clock.Now().Sub(req.IssuedAt)
	if outcome.Success() {
		c.logger.Debug("render succeeded", "duration", elapsed, "size", len(outcome.Image))
	} else {
		c.logger.Warn("render failed", "kind", outcome.Kind, "duration", elapsed, "error", outcome.Message)
	}
	if c.hooks.OnRenderDone != nil {
		c.hooks.OnRenderDone(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: c.clock.Now(), Type: domain.EventRenderDone},
			Request:   req,
			Outcome:   outcome,
			Duration:  elapsed,
		})
	}
	for _, fn := range subs {
		fn(outcome)
	}
	return outcome, true
}

// race runs the render call against the timeout. Whichever side resolves
// first wins; a late render result is discarded.
func (c *Coordinator) race(ctx context.Context, text string) domain.RenderOutcome {
	result := make(chan domain.RenderOutcome, 1)
	var once sync.Once
	resolve := func(o domain.RenderOutcome) {
		once.Do(func() { result <- o })
	}

	timer := c.clock.AfterFunc(c.timeout, func() {
		resolve(domain.Failed(domain.ErrorTimeout, domain.ErrTimeout.Error()))
	})
	defer timer.Stop()

	go func() {
		image, err := c.renderer.Render(ctx, text)
		if err != nil {
			resolve(domain.Failed(domain.Classify(err), domain.Message(err)))
			return
		}
		resolve(domain.Succeeded(image))
	}()

	select {
	case o := <-result:
		return o
	case <-ctx.Done():
		return domain.Failed(domain.ErrorUnknown, ctx.Err().Error())
	}
}
