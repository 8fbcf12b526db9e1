// Package debounce turns a stream of edits into sparse commit events.
//
// Edits are trailing-edge debounced: every edit restarts a quiet-period timer and
// only the last text seen before the timer elapses is committed. A manual trigger
// bypasses the timer when the gate allows it.
package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/umlpad/internal/logging"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
)

// Gate reports whether a manual trigger may fire right now.
type Gate func() bool

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWindow sets the quiet period. Defaults to domain.DefaultDebounceWindow.
func WithWindow(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.window = d
		}
	}
}

// WithClock injects the time source.
func WithClock(c ports.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithGate sets the condition checked by ManualTrigger.
// Without a gate, manual triggers always fire.
func WithGate(g Gate) Option {
	return func(p *Pipeline) {
		p.gate = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithHooks registers lifecycle hooks; OnCommit is fired for every commit.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(p *Pipeline) {
		p.hooks = p.hooks.Merge(h)
	}
}

// Pipeline holds the latest editor text and emits commits.
type Pipeline struct {
	mu      sync.Mutex
	text    string
	timer   ports.Timer
	pending bool
	seq     uint64 // invalidates stale timer callbacks

	window time.Duration
	clock  ports.Clock
	gate   Gate
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	subs   []func(string)
}

// New creates a pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		window: domain.DefaultDebounceWindow,
		clock:  ports.SystemClock{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers fn to receive committed text.
// Subscribers run on the goroutine that produced the commit.
func (p *Pipeline) Subscribe(fn func(text string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// Text returns the latest edited text.
func (p *Pipeline) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

// Pending reports whether a debounced commit is scheduled.
func (p *Pipeline) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// OnEdit records text and restarts the quiet-period timer.
func (p *Pipeline) OnEdit(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.text = text
	p.pending = true
	p.seq++
	current := p.seq

	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = p.clock.AfterFunc(p.window, func() {
		p.mu.Lock()
		if !p.pending || p.seq != current {
			p.mu.Unlock()
			return
		}
		p.pending = false
		p.timer = nil
		committed := p.text
		p.mu.Unlock()

		p.emit(committed, domain.CommitDebounced)
	})
}

// Replace sets the text without scheduling a commit, cancelling any pending one.
// Used when the source is set programmatically (clear, load from history).
func (p *Pipeline) Replace(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
	p.text = text
}

// ManualTrigger commits the current text immediately if the gate allows.
// A pending debounced commit is cancelled when it fires.
func (p *Pipeline) ManualTrigger() bool {
	if p.gate != nil && !p.gate() {
		p.logger.Debug("manual trigger blocked by gate")
		return false
	}

	p.mu.Lock()
	p.cancelLocked()
	text := p.text
	p.mu.Unlock()

	p.emit(text, domain.CommitManual)
	return true
}

// Flush commits a pending edit now. It returns false if nothing was pending.
func (p *Pipeline) Flush() bool {
	p.mu.Lock()
	if !p.pending {
		p.mu.Unlock()
		return false
	}
	p.cancelLocked()
	text := p.text
	p.mu.Unlock()

	p.emit(text, domain.CommitDebounced)
	return true
}

// Cancel discards any pending commit.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
}

func (p *Pipeline) cancelLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.seq++
	p.pending = false
}

func (p *Pipeline) emit(text string, source domain.CommitSource) {
	p.mu.Lock()
	subs := append([]func(string){}, p.subs...)
	p.mu.Unlock()

	p.logger.Debug("commit", "source", source, "length", len(text))
	if p.hooks.OnCommit != nil {
		p.hooks.OnCommit(context.Background(), &domain.CommitEvent{
			EventBase: domain.EventBase{Timestamp: p.clock.Now(), Type: domain.EventCommit},
			Source:    source,
			Length:    len(text),
		})
	}
	for _, fn := range subs {
		fn(text)
	}
}
