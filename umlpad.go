package umlpad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/umlpad/internal/logging"
	"github.com/aretw0/umlpad/pkg/adapters/memory"
	"github.com/aretw0/umlpad/pkg/coordinator"
	"github.com/aretw0/umlpad/pkg/debounce"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/history"
	"github.com/aretw0/umlpad/pkg/ports"
	"github.com/aretw0/umlpad/pkg/supervisor"
	"github.com/aretw0/umlpad/pkg/viewport"
)

// DefaultSource is the diagram a fresh editor starts with.
const DefaultSource = `@startuml
!theme plain
title Simple Sequence Diagram

Alice -> Bob: Hello Bob, how are you?
Bob --> Alice: I am good thanks!
Alice -> Bob: Can you help me with something?
Bob --> Alice: Sure, what do you need?

@enduml`

// Change kinds delivered by Watch.
const (
	ChangeAvailability = "availability"
	ChangeRender       = "render"
	ChangeViewport     = "viewport"
	ChangeSource       = "source"
)

// Status is a point-in-time view of the editor.
type Status struct {
	Availability domain.Availability  `json:"availability"`
	Attempt      int                  `json:"attempt"`
	Render       coordinator.Snapshot `json:"render"`
	Viewport     domain.ViewportState `json:"viewport"`
	Transform    string               `json:"transform"`
	SourceLength int                  `json:"source_length"`
	Pending      bool                 `json:"pending"`
}

// Editor wires the connectivity supervisor, input pipeline, render
// coordinator, viewport and history into one editing session.
type Editor struct {
	service ports.RenderService

	sup     *supervisor.Supervisor
	coord   *coordinator.Coordinator
	input   *debounce.Pipeline
	view    *viewport.Engine
	history *history.Store

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	grace    ports.Timer
	watchers map[chan string]struct{}

	clock         ports.Clock
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	backend       ports.HistoryBackend
	locker        ports.DistributedLocker
	window        time.Duration
	raceTimeout   time.Duration
	graceDelay    time.Duration
	maxAttempts   int
	initialSource string
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithClock injects the time source shared by every component.
func WithClock(clock ports.Clock) Option {
	return func(e *Editor) {
		e.clock = clock
	}
}

// WithHistoryBackend sets where history is persisted (default: in memory).
func WithHistoryBackend(b ports.HistoryBackend) Option {
	return func(e *Editor) {
		e.backend = b
	}
}

// WithHistoryLocker guards history writes with a distributed lock.
func WithHistoryLocker(l ports.DistributedLocker) Option {
	return func(e *Editor) {
		e.locker = l
	}
}

// WithDebounceWindow sets the quiet period before an edit is committed.
func WithDebounceWindow(d time.Duration) Option {
	return func(e *Editor) {
		e.window = d
	}
}

// WithRaceTimeout sets how long a render may take before it is abandoned.
func WithRaceTimeout(d time.Duration) Option {
	return func(e *Editor) {
		e.raceTimeout = d
	}
}

// WithGraceDelay sets the delay of the render issued when the service comes online.
func WithGraceDelay(d time.Duration) Option {
	return func(e *Editor) {
		e.graceDelay = d
	}
}

// WithMaxAttempts sets the number of startup probes.
func WithMaxAttempts(n int) Option {
	return func(e *Editor) {
		e.maxAttempts = n
	}
}

// WithInitialSource replaces DefaultSource.
func WithInitialSource(src string) Option {
	return func(e *Editor) {
		e.initialSource = src
	}
}

// New creates an editor bound to a render service.
// Call Start to begin probing the service and Close to release timers.
func New(service ports.RenderService, opts ...Option) (*Editor, error) {
	if service == nil {
		return nil, errors.New("render service is required")
	}

	e := &Editor{
		service:       service,
		watchers:      make(map[chan string]struct{}),
		clock:         ports.SystemClock{},
		graceDelay:    domain.DefaultGraceDelay,
		window:        domain.DefaultDebounceWindow,
		raceTimeout:   domain.DefaultRaceTimeout,
		maxAttempts:   supervisor.MaxAttempts,
		initialSource: DefaultSource,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.backend == nil {
		e.backend = memory.NewStore()
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.sup = supervisor.New(service,
		supervisor.WithClock(e.clock),
		supervisor.WithMaxAttempts(e.maxAttempts),
		supervisor.WithLogger(e.logger.With("component", "supervisor")),
		supervisor.WithHooks(e.hooks),
	)
	e.coord = coordinator.New(service, e.sup,
		coordinator.WithClock(e.clock),
		coordinator.WithTimeout(e.raceTimeout),
		coordinator.WithLogger(e.logger.With("component", "coordinator")),
		coordinator.WithHooks(e.hooks),
	)
	e.input = debounce.New(
		debounce.WithClock(e.clock),
		debounce.WithWindow(e.window),
		debounce.WithGate(e.canGenerate),
		debounce.WithLogger(e.logger.With("component", "input")),
		debounce.WithHooks(e.hooks),
	)
	e.view = viewport.New()

	historyOpts := []history.Option{
		history.WithClock(e.clock),
		history.WithLogger(e.logger.With("component", "history")),
		history.WithHooks(e.hooks),
	}
	if e.locker != nil {
		historyOpts = append(historyOpts, history.WithLocker(e.locker))
	}
	e.history = history.New(e.backend, historyOpts...)

	e.input.Replace(e.initialSource)
	e.input.Subscribe(e.onCommit)
	e.coord.Subscribe(e.onOutcome)
	e.sup.Subscribe(e.onAvailability)
	e.view.Subscribe(func(domain.ViewportState) { e.broadcast(ChangeViewport) })

	return e, nil
}

// Start runs the startup probe loop and blocks until it settles.
// It returns nil once the service is online.
func (e *Editor) Start(ctx context.Context) error {
	return e.sup.Start(ctx)
}

// Close stops pending timers and closes every Watch channel.
func (e *Editor) Close() {
	e.cancel()
	e.input.Cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grace != nil {
		e.grace.Stop()
		e.grace = nil
	}
	for ch := range e.watchers {
		close(ch)
		delete(e.watchers, ch)
	}
}

// Edit records new source text; a render follows once typing pauses.
func (e *Editor) Edit(text string) {
	e.input.OnEdit(text)
	e.broadcast(ChangeSource)
}

// SetSource replaces the source without scheduling a render.
func (e *Editor) SetSource(text string) {
	e.input.Replace(text)
	e.broadcast(ChangeSource)
}

// Source returns the current source text.
func (e *Editor) Source() string {
	return e.input.Text()
}

// Generate commits the current source immediately. It returns false when the
// service is not online or a render is already in flight.
func (e *Editor) Generate() bool {
	return e.input.ManualTrigger()
}

// Refresh renders the current source right away, subject to the render policy.
func (e *Editor) Refresh(ctx context.Context) (domain.RenderOutcome, bool) {
	e.input.Cancel()
	return e.coord.RequestRender(ctx, e.input.Text())
}

// Retry re-probes the service and, if it answers, renders the current source.
func (e *Editor) Retry(ctx context.Context) error {
	if err := e.sup.Retry(ctx); err != nil {
		return err
	}
	e.cancelGrace()
	if strings.TrimSpace(e.input.Text()) != "" {
		e.coord.RequestRender(ctx, e.input.Text())
	}
	return nil
}

// Clear empties the source, the image and the error.
func (e *Editor) Clear() {
	e.input.Replace("")
	e.coord.Clear()
	e.broadcast(ChangeSource)
	e.broadcast(ChangeRender)
}

// SaveHistory stores the current source under title (derived when blank).
func (e *Editor) SaveHistory(ctx context.Context, title string) (domain.HistoryEntry, error) {
	return e.history.Save(ctx, e.input.Text(), title)
}

// LoadHistory replaces the source with a saved entry and renders it if the
// service is online.
func (e *Editor) LoadHistory(ctx context.Context, id string) (domain.HistoryEntry, error) {
	entry, err := e.history.Get(ctx, id)
	if err != nil {
		return domain.HistoryEntry{}, err
	}

	e.input.Replace(entry.Source)
	e.broadcast(ChangeSource)
	if e.sup.State() == domain.AvailabilityOnline {
		e.coord.RequestRender(ctx, entry.Source)
	}
	return entry, nil
}

// Status returns a snapshot of every component.
func (e *Editor) Status() Status {
	vs := e.view.State()
	return Status{
		Availability: e.sup.State(),
		Attempt:      e.sup.Attempt(),
		Render:       e.coord.Snapshot(),
		Viewport:     vs,
		Transform:    viewport.CSS(vs),
		SourceLength: len(e.input.Text()),
		Pending:      e.input.Pending(),
	}
}

// Image returns the displayed image, empty if none.
func (e *Editor) Image() string {
	return e.coord.Snapshot().Image
}

// Viewport returns the zoom/pan engine of the displayed image.
func (e *Editor) Viewport() *viewport.Engine {
	return e.view
}

// History returns the history store.
func (e *Editor) History() *history.Store {
	return e.history
}

// Service returns the render service the editor talks to.
func (e *Editor) Service() ports.RenderService {
	return e.service
}

// HandleKey routes a keyboard shortcut to the viewport. Shortcuts only apply
// when the viewport is focused and an image is displayed.
func (e *Editor) HandleKey(k viewport.Key, focused bool) bool {
	return e.view.HandleKey(k, viewport.Focus{Focused: focused, HasImage: e.Image() != ""})
}

// Watch returns a channel receiving the kind of every change until ctx is done.
// Slow readers miss changes rather than block the editor.
func (e *Editor) Watch(ctx context.Context) (<-chan string, error) {
	if e.ctx.Err() != nil {
		return nil, fmt.Errorf("editor closed: %w", e.ctx.Err())
	}

	ch := make(chan string, 16)
	e.mu.Lock()
	e.watchers[ch] = struct{}{}
	e.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-e.ctx.Done():
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.watchers[ch]; ok {
			delete(e.watchers, ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (e *Editor) broadcast(kind string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.watchers {
		select {
		case ch <- kind:
		default:
			e.logger.Debug("watcher buffer full, dropping change", "kind", kind)
		}
	}
}

// canGenerate gates manual triggers.
func (e *Editor) canGenerate() bool {
	return e.sup.State() == domain.AvailabilityOnline && !e.coord.InFlight()
}

func (e *Editor) onCommit(text string) {
	e.coord.RequestRender(e.ctx, text)
}

func (e *Editor) onOutcome(o domain.RenderOutcome) {
	if o.Success() {
		e.view.Reset()
	}
	e.broadcast(ChangeRender)
}

func (e *Editor) onAvailability(a domain.Availability) {
	e.broadcast(ChangeAvailability)
	if a == domain.AvailabilityOnline {
		e.scheduleGrace()
		return
	}
	e.cancelGrace()
}

// scheduleGrace arms the single render issued shortly after the service
// comes online, replacing any grace render still pending.
func (e *Editor) scheduleGrace() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grace != nil {
		e.grace.Stop()
	}
	e.grace = e.clock.AfterFunc(e.graceDelay, e.graceRender)
}

func (e *Editor) cancelGrace() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grace != nil {
		e.grace.Stop()
		e.grace = nil
	}
}

func (e *Editor) graceRender() {
	e.mu.Lock()
	e.grace = nil
	e.mu.Unlock()

	text := e.input.Text()
	snap := e.coord.Snapshot()
	if strings.TrimSpace(text) == "" || snap.Image != "" || snap.InFlight {
		return
	}
	e.logger.Debug("grace render after service came online")
	e.coord.RequestRender(e.ctx, text)
}
