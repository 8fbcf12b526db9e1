package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Availability.WithLabelValues("checking")))

	hooks.OnProbe(ctx, &domain.ProbeEvent{OK: false})
	hooks.OnProbe(ctx, &domain.ProbeEvent{OK: true})
	hooks.OnAvailability(ctx, &domain.AvailabilityEvent{From: domain.AvailabilityChecking, To: domain.AvailabilityOnline})
	hooks.OnCommit(ctx, &domain.CommitEvent{Source: domain.CommitDebounced})
	hooks.OnRenderStart(ctx, &domain.RenderEvent{})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))
	hooks.OnRenderDone(ctx, &domain.RenderEvent{Outcome: domain.Succeeded("<svg/>"), Duration: 200 * time.Millisecond})
	hooks.OnRenderDone(ctx, &domain.RenderEvent{Outcome: domain.Failed(domain.ErrorTimeout, "")})
	hooks.OnHistory(ctx, &domain.HistoryEvent{Op: "save", Size: 4})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Probes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Probes.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Availability.WithLabelValues("checking")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Availability.WithLabelValues("online")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commits.WithLabelValues("debounced")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryOps.WithLabelValues("save")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.HistorySize))

	var pb dto.Metric
	require.NoError(t, m.RenderTime.Write(&pb))
	assert.Equal(t, uint64(2), pb.GetHistogram().GetSampleCount())
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)

	hooks.OnAvailability(context.Background(), &domain.AvailabilityEvent{From: domain.AvailabilityChecking, To: domain.AvailabilityOffline})
	hooks.OnRenderDone(context.Background(), &domain.RenderEvent{Outcome: domain.Failed(domain.ErrorNetwork, "x")})

	out := buf.String()
	assert.Contains(t, out, "to=offline")
	assert.Contains(t, out, "kind=network")
}
