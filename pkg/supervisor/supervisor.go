// Package supervisor tracks whether the render service is reachable.
//
// At startup the Supervisor probes the service with a bounded, linearly growing
// backoff and keeps the availability at Checking until it either succeeds or
// gives up. Afterwards it only probes on demand: when the user retries or when
// the coordinator needs to tell a slow service from a dead one.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/umlpad/internal/logging"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
)

// MaxAttempts is the default number of startup probes.
const MaxAttempts = 10

const (
	backoffBase = 500 * time.Millisecond
	backoffStep = 200 * time.Millisecond
	backoffCap  = 2 * time.Second
)

// Backoff returns the wait after the given number of failed attempts (1-based).
func Backoff(failures int) time.Duration {
	return min(backoffBase+time.Duration(failures)*backoffStep, backoffCap)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithMaxAttempts overrides the number of startup probes.
func WithMaxAttempts(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock injects the time source used for backoff waits.
func WithClock(c ports.Clock) Option {
	return func(s *Supervisor) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// WithHooks registers lifecycle hooks for probes and availability changes.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Supervisor) {
		s.hooks = s.hooks.Merge(h)
	}
}

// Supervisor owns the availability signal.
type Supervisor struct {
	health ports.HealthChecker

	mu      sync.Mutex
	state   domain.Availability
	attempt int
	subs    []func(domain.Availability)

	// stopStartup cancels a running startup loop once another path reaches Online.
	stopStartup context.CancelFunc

	maxAttempts int
	clock       ports.Clock
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
}

// New creates a supervisor in the Checking state.
func New(health ports.HealthChecker, opts ...Option) *Supervisor {
	s := &Supervisor{
		health:      health,
		state:       domain.AvailabilityChecking,
		maxAttempts: MaxAttempts,
		clock:       ports.SystemClock{},
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current availability.
func (s *Supervisor) State() domain.Availability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempt returns the 1-based startup attempt in progress, or 0 when idle.
func (s *Supervisor) Attempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Subscribe registers fn to be called on every availability change.
func (s *Supervisor) Subscribe(fn func(domain.Availability)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Start runs the startup probe loop. It blocks until the service answers,
// the attempts are exhausted or ctx is cancelled.
// It returns nil once Online and domain.ErrServiceUnavailable when giving up.
// A successful Probe or Retry while the loop runs ends it early with nil.
func (s *Supervisor) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.stopStartup = cancel
	s.mu.Unlock()
	defer s.clearStartup()

	s.setState(ctx, domain.AvailabilityChecking)

	for failures := 0; failures < s.maxAttempts; {
		s.setAttempt(failures + 1)
		err := s.check(loopCtx, failures+1)
		if err == nil {
			s.setAttempt(0)
			s.setState(ctx, domain.AvailabilityOnline)
			return nil
		}
		if loopCtx.Err() != nil {
			return s.stopped(ctx)
		}

		failures++
		if failures >= s.maxAttempts {
			break
		}

		wait := Backoff(failures)
		s.logger.Debug("render service not ready", "attempt", failures, "retry_in", wait, "error", err)
		select {
		case <-s.clock.After(wait):
		case <-loopCtx.Done():
			return s.stopped(ctx)
		}
	}

	s.mu.Lock()
	s.attempt = 0
	superseded := loopCtx.Err() != nil
	s.stopStartup = nil
	s.mu.Unlock()
	if superseded {
		return s.stopped(ctx)
	}

	s.setState(ctx, domain.AvailabilityOffline)
	s.logger.Warn("render service unreachable", "attempts", s.maxAttempts)
	return fmt.Errorf("after %d attempts: %w", s.maxAttempts, domain.ErrServiceUnavailable)
}

// stopped reports why the startup loop ended before settling.
func (s *Supervisor) stopped(ctx context.Context) error {
	s.setAttempt(0)
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("startup probing superseded")
	return nil
}

func (s *Supervisor) clearStartup() {
	s.mu.Lock()
	s.stopStartup = nil
	s.mu.Unlock()
}

// Probe performs a single health check and updates the availability directly.
func (s *Supervisor) Probe(ctx context.Context) error {
	err := s.check(ctx, 0)
	if err != nil {
		s.setState(ctx, domain.AvailabilityOffline)
		return err
	}
	s.mu.Lock()
	stop := s.stopStartup
	s.stopStartup = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.setState(ctx, domain.AvailabilityOnline)
	return nil
}

// Retry moves to Checking and probes once.
func (s *Supervisor) Retry(ctx context.Context) error {
	s.setState(ctx, domain.AvailabilityChecking)
	return s.Probe(ctx)
}

func (s *Supervisor) check(ctx context.Context, attempt int) error {
	_, err := s.health.Health(ctx)
	if s.hooks.OnProbe != nil {
		ev := &domain.ProbeEvent{
			EventBase: domain.EventBase{Timestamp: s.clock.Now(), Type: domain.EventProbe},
			Attempt:   attempt,
			OK:        err == nil,
		}
		if err != nil {
			ev.Error = err.Error()
		}
		s.hooks.OnProbe(ctx, ev)
	}
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	return nil
}

func (s *Supervisor) setAttempt(n int) {
	s.mu.Lock()
	s.attempt = n
	s.mu.Unlock()
}

func (s *Supervisor) setState(ctx context.Context, next domain.Availability) {
	s.mu.Lock()
	prev := s.state
	if prev == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	subs := append([]func(domain.Availability){}, s.subs...)
	s.mu.Unlock()

	s.logger.Info("availability changed", "from", prev, "to", next)
	if s.hooks.OnAvailability != nil {
		s.hooks.OnAvailability(ctx, &domain.AvailabilityEvent{
			EventBase: domain.EventBase{Timestamp: s.clock.Now(), Type: domain.EventAvailability},
			From:      prev,
			To:        next,
		})
	}
	for _, fn := range subs {
		fn(next)
	}
}
