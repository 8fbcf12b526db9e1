// Package config resolves umlpad settings from a config file, the environment
// and built-in defaults. Command-line flags are applied on top by the caller.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/umlpad/pkg/adapters/plantuml"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/supervisor"
)

// DefaultPath is read when no config file is given. It may be absent.
const DefaultPath = "umlpad.yaml"

// History backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// HistoryConfig selects and configures the history backend.
type HistoryConfig struct {
	Backend       string `mapstructure:"backend" json:"backend"`
	Path          string `mapstructure:"path" json:"path"`
	RedisAddr     string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" json:"-"`
	RedisDB       int    `mapstructure:"redis_db" json:"redis_db"`
	RedisKey      string `mapstructure:"redis_key" json:"redis_key"`
	// Locking guards writes with a Redis lock when several processes share the key.
	Locking bool `mapstructure:"locking" json:"locking"`
	// EncryptionKey is a base64 AES-256 key; when set the stored list is encrypted.
	EncryptionKey string   `mapstructure:"encryption_key" json:"-"`
	FallbackKeys  []string `mapstructure:"fallback_keys" json:"-"`
}

// MetricsConfig enables the standalone Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// Config is the resolved configuration.
type Config struct {
	APIURL           string        `mapstructure:"api_url" json:"api_url"`
	DebounceWindow   time.Duration `mapstructure:"debounce_window" json:"debounce_window"`
	RaceTimeout      time.Duration `mapstructure:"race_timeout" json:"race_timeout"`
	TransportTimeout time.Duration `mapstructure:"transport_timeout" json:"transport_timeout"`
	HealthTimeout    time.Duration `mapstructure:"health_timeout" json:"health_timeout"`
	MaxAttempts      int           `mapstructure:"max_attempts" json:"max_attempts"`
	LogLevel         string        `mapstructure:"log_level" json:"log_level"`
	History          HistoryConfig `mapstructure:"history" json:"history"`
	Metrics          MetricsConfig `mapstructure:"metrics" json:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DebounceWindow:   domain.DefaultDebounceWindow,
		RaceTimeout:      domain.DefaultRaceTimeout,
		TransportTimeout: domain.DefaultTransportTimeout,
		HealthTimeout:    domain.DefaultHealthTimeout,
		MaxAttempts:      supervisor.MaxAttempts,
		LogLevel:         "warn",
		History: HistoryConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
		},
	}
}

// Load reads path (YAML, or JSON by extension) over the defaults, then fills
// the service address from $UMLPAD_API_URL if the file did not set one.
// An empty path reads DefaultPath if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = strings.TrimSpace(os.Getenv(plantuml.EnvBaseURL))
	}
	if cfg.APIURL == "" {
		cfg.APIURL = plantuml.DefaultBaseURL
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and the backend name.
func (c Config) Validate() error {
	switch c.History.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	for name, d := range map[string]time.Duration{
		"debounce_window":   c.DebounceWindow,
		"race_timeout":      c.RaceTimeout,
		"transport_timeout": c.TransportTimeout,
		"health_timeout":    c.HealthTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

func decode(path string, data []byte, cfg *Config) error {
	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}
