package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/umlpad"
	"github.com/aretw0/umlpad/internal/adapters/file"
	"github.com/aretw0/umlpad/internal/adapters/redis"
	"github.com/aretw0/umlpad/internal/config"
	"github.com/aretw0/umlpad/pkg/adapters/memory"
	"github.com/aretw0/umlpad/pkg/adapters/plantuml"
	"github.com/aretw0/umlpad/pkg/observability"
	"github.com/aretw0/umlpad/pkg/persistence/middleware"
	"github.com/aretw0/umlpad/pkg/ports"
)

// lockPrefix namespaces the history lock keys in Redis.
const lockPrefix = "umlpad:"

// Runtime is an editor wired to its service client, history backend and metrics.
type Runtime struct {
	Config   config.Config
	Logger   *slog.Logger
	Client   *plantuml.Client
	Editor   *umlpad.Editor
	Registry *prometheus.Registry

	closers []func() error
}

// NewRuntime builds a Runtime from cfg. Extra editor options are applied last.
func NewRuntime(cfg config.Config, logger *slog.Logger, opts ...umlpad.Option) (*Runtime, error) {
	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Client: plantuml.New(cfg.APIURL,
			plantuml.WithTimeout(cfg.TransportTimeout),
			plantuml.WithHealthTimeout(cfg.HealthTimeout),
		),
	}
	rt.Registry.MustRegister(collectors.NewGoCollector())

	backend, locker, err := rt.historyBackend(cfg.History)
	if err != nil {
		return nil, err
	}
	if backend, err = encryptHistory(backend, cfg.History); err != nil {
		rt.Close()
		return nil, err
	}

	metrics := observability.NewMetrics(rt.Registry)
	editorOpts := []umlpad.Option{
		umlpad.WithLogger(logger),
		umlpad.WithLifecycleHooks(metrics.Hooks().Merge(observability.LogHooks(logger))),
		umlpad.WithHistoryBackend(backend),
		umlpad.WithDebounceWindow(cfg.DebounceWindow),
		umlpad.WithRaceTimeout(cfg.RaceTimeout),
		umlpad.WithMaxAttempts(cfg.MaxAttempts),
	}
	if locker != nil {
		editorOpts = append(editorOpts, umlpad.WithHistoryLocker(locker))
	}

	editor, err := umlpad.New(rt.Client, append(editorOpts, opts...)...)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("error initializing editor: %w", err)
	}
	rt.Editor = editor
	return rt, nil
}

func (rt *Runtime) historyBackend(hc config.HistoryConfig) (ports.HistoryBackend, ports.DistributedLocker, error) {
	switch hc.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil, nil
	case config.BackendFile, "":
		return file.New(hc.Path), nil, nil
	case config.BackendRedis:
		store := redis.New(hc.RedisAddr, hc.RedisPassword, hc.RedisDB, redis.WithKey(hc.RedisKey))
		rt.closers = append(rt.closers, store.Close)
		if !hc.Locking {
			return store, nil, nil
		}
		return store, redis.NewLocker(store.Client(), lockPrefix), nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", hc.Backend)
	}
}

// encryptHistory wraps backend when an encryption key is configured.
func encryptHistory(backend ports.HistoryBackend, hc config.HistoryConfig) (ports.HistoryBackend, error) {
	if hc.EncryptionKey == "" {
		return backend, nil
	}
	active, err := base64.StdEncoding.DecodeString(hc.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid history encryption key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range hc.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("invalid history fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return mw(backend), nil
}

// StartBackground runs the startup probe loop without blocking the caller.
func (rt *Runtime) StartBackground(ctx context.Context) {
	go func() {
		if err := rt.Editor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			rt.Logger.Warn("render service not reachable", "url", rt.Client.BaseURL(), "error", err)
		}
	}()
}

// Close releases the editor and backend connections.
func (rt *Runtime) Close() error {
	if rt.Editor != nil {
		rt.Editor.Close()
	}
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
