// Package observability exposes Prometheus collectors fed by lifecycle hooks.
package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/umlpad/pkg/domain"
)

// Metrics holds the umlpad collectors.
type Metrics struct {
	Probes       *prometheus.CounterVec
	Availability *prometheus.GaugeVec
	Commits      *prometheus.CounterVec
	Renders      *prometheus.CounterVec
	RenderTime   prometheus.Histogram
	InFlight     prometheus.Gauge
	HistoryOps   *prometheus.CounterVec
	HistorySize  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umlpad_probes_total",
			Help: "Health probes sent to the render service, by result.",
		}, []string{"result"}),
		Availability: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "umlpad_availability",
			Help: "1 for the current availability state of the render service, 0 otherwise.",
		}, []string{"state"}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umlpad_commits_total",
			Help: "Commit events emitted by the input pipeline, by source.",
		}, []string{"source"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umlpad_renders_total",
			Help: "Resolved render requests, by outcome kind.",
		}, []string{"kind"}),
		RenderTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "umlpad_render_duration_seconds",
			Help:    "Time from issuing a render request to its resolution.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "umlpad_render_in_flight",
			Help: "1 while a render request is outstanding.",
		}),
		HistoryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "umlpad_history_operations_total",
			Help: "History mutations, by operation.",
		}, []string{"op"}),
		HistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "umlpad_history_entries",
			Help: "Entries currently stored in history.",
		}),
	}
	reg.MustRegister(m.Probes, m.Availability, m.Commits, m.Renders, m.RenderTime, m.InFlight, m.HistoryOps, m.HistorySize)
	m.setAvailability(domain.AvailabilityChecking)
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnProbe: func(_ context.Context, e *domain.ProbeEvent) {
			result := "ok"
			if !e.OK {
				result = "error"
			}
			m.Probes.WithLabelValues(result).Inc()
		},
		OnAvailability: func(_ context.Context, e *domain.AvailabilityEvent) {
			m.setAvailability(e.To)
		},
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			m.Commits.WithLabelValues(string(e.Source)).Inc()
		},
		OnRenderStart: func(context.Context, *domain.RenderEvent) {
			m.InFlight.Set(1)
		},
		OnRenderDone: func(_ context.Context, e *domain.RenderEvent) {
			m.InFlight.Set(0)
			m.Renders.WithLabelValues(kindLabel(e.Outcome.Kind)).Inc()
			m.RenderTime.Observe(e.Duration.Seconds())
		},
		OnHistory: func(_ context.Context, e *domain.HistoryEvent) {
			m.HistoryOps.WithLabelValues(e.Op).Inc()
			m.HistorySize.Set(float64(e.Size))
		},
	}
}

func (m *Metrics) setAvailability(current domain.Availability) {
	for _, a := range []domain.Availability{domain.AvailabilityChecking, domain.AvailabilityOnline, domain.AvailabilityOffline} {
		v := 0.0
		if a == current {
			v = 1
		}
		m.Availability.WithLabelValues(a.String()).Set(v)
	}
}

func kindLabel(k domain.ErrorKind) string {
	if k == domain.ErrorNone {
		return "success"
	}
	return string(k)
}

// LogHooks returns hooks that write every lifecycle event to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnProbe: func(ctx context.Context, e *domain.ProbeEvent) {
			logger.DebugContext(ctx, "probe", "attempt", e.Attempt, "ok", e.OK, "error", e.Error)
		},
		OnAvailability: func(ctx context.Context, e *domain.AvailabilityEvent) {
			logger.InfoContext(ctx, "availability", "from", e.From, "to", e.To)
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			logger.DebugContext(ctx, "commit", "source", e.Source, "length", e.Length)
		},
		OnRenderStart: func(ctx context.Context, e *domain.RenderEvent) {
			logger.DebugContext(ctx, "render_start", "length", len(e.Request.Source))
		},
		OnRenderDone: func(ctx context.Context, e *domain.RenderEvent) {
			logger.InfoContext(ctx, "render_done", "kind", kindLabel(e.Outcome.Kind), "duration", e.Duration)
		},
		OnHistory: func(ctx context.Context, e *domain.HistoryEvent) {
			logger.DebugContext(ctx, "history", "op", e.Op, "entry_id", e.EntryID, "size", e.Size)
		},
	}
}
