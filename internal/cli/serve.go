package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/aretw0/umlpad/pkg/adapters/http"
	"github.com/aretw0/umlpad/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// RunServe exposes the editor over the session HTTP API on addr until ctx is done.
func RunServe(ctx context.Context, rt *Runtime, addr string) error {
	handler := httpAdapter.NewHandler(rt.Editor,
		httpAdapter.WithLogger(rt.Logger),
		httpAdapter.WithMetricsHandler(rt.metricsHandler()),
	)
	rt.StartBackground(ctx)
	rt.Logger.Info("session API listening", "address", addr, "service", rt.Client.BaseURL())
	return listen(ctx, &http.Server{Addr: addr, Handler: handler})
}

// RunMCP exposes the editor as an MCP server over stdio or SSE.
func RunMCP(ctx context.Context, rt *Runtime, transport, addr string) error {
	srv := mcp.NewServer(rt.Editor, rt.Logger)
	rt.StartBackground(ctx)
	if rt.Config.Metrics.Addr != "" {
		go rt.serveMetrics(ctx)
	}

	switch transport {
	case "stdio":
		rt.Logger.Info("MCP server on stdio")
		return srv.ServeStdio()
	case "sse":
		return srv.ServeSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}

func (rt *Runtime) metricsHandler() http.Handler {
	return promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{})
}

// serveMetrics runs the standalone /metrics endpoint on Config.Metrics.Addr.
func (rt *Runtime) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.metricsHandler())
	rt.Logger.Info("metrics listening", "address", rt.Config.Metrics.Addr)
	if err := listen(ctx, &http.Server{Addr: rt.Config.Metrics.Addr, Handler: mux}); err != nil {
		rt.Logger.Error("metrics server failed", "error", err)
	}
}

func listen(ctx context.Context, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	}
}
