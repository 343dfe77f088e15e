package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// confMapProvider wraps a plain nested map as a koanf.Provider so every
// Source.Load result can be layered with k.Load the same way as any other
// provider.
func confMapProvider(data map[string]any) *confmap.Confmap {
	return confmap.Provider(data, ".")
}

// envKeyToPath converts an environment variable name into a dot-delimited
// koanf path: it strips envPrefix if present and lowercases the rest, e.g.
// "WDLRUN_TEMPORAL_HOST_PORT" -> "temporal.host_port".
func envKeyToPath(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	switch {
	case strings.HasPrefix(key, "temporal_"):
		return "temporal." + strings.TrimPrefix(key, "temporal_")
	case strings.HasPrefix(key, "file_store_"):
		return "file_store." + strings.TrimPrefix(key, "file_store_")
	case strings.HasPrefix(key, "task_"):
		return "task." + strings.TrimPrefix(key, "task_")
	case strings.HasPrefix(key, "graph_"):
		return "graph." + strings.TrimPrefix(key, "graph_")
	case strings.HasPrefix(key, "retry_"):
		return "retry." + strings.TrimPrefix(key, "retry_")
	case strings.HasPrefix(key, "log_"):
		return "log." + strings.TrimPrefix(key, "log_")
	case strings.HasPrefix(key, "checkpoint_"):
		return "checkpoint." + strings.TrimPrefix(key, "checkpoint_")
	default:
		return strings.ReplaceAll(key, "_", ".")
	}
}

// envPrefix is the environment-variable prefix the engine's config reads
// from, e.g. WDLRUN_TEMPORAL_HOST_PORT maps to Temporal.HostPort.
const envPrefix = "WDLRUN_"

// Manager owns the layered koanf instance and the Config it unmarshals
// into. Layers are applied in order: DefaultProvider, EnvProvider (via
// koanf's own env/v2 provider), then any additional sources passed to
// Load (typically YAMLProvider then CLIProvider), each overriding the
// previous.
type Manager struct {
	mu  sync.RWMutex
	k   *koanf.Koanf
	cfg *Config
}

// NewManager constructs an empty Manager; call Load to populate it.
func NewManager() *Manager {
	return &Manager{k: koanf.New(".")}
}

// Load layers DefaultProvider, the process environment, and extra (in
// order) into a single Config.
func Load(extra ...Source) (*Config, error) {
	m := NewManager()
	if err := m.Load(extra...); err != nil {
		return nil, err
	}
	return m.Config(), nil
}

func (m *Manager) Load(extra ...Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := koanf.New(".")
	defaults, err := NewDefaultProvider().Load()
	if err != nil {
		return fmt.Errorf("loading default config: %w", err)
	}
	if err := k.Load(confMapProvider(defaults), nil); err != nil {
		return fmt.Errorf("applying default config: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyToPath(key), value
		},
	}), nil); err != nil {
		return fmt.Errorf("applying environment config: %w", err)
	}

	for _, src := range extra {
		data, err := src.Load()
		if err != nil {
			return fmt.Errorf("loading %s config: %w", src.Type(), err)
		}
		if len(data) == 0 {
			continue
		}
		if err := k.Load(confMapProvider(data), nil); err != nil {
			return fmt.Errorf("applying %s config: %w", src.Type(), err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}

	m.k = k
	m.cfg = &cfg
	return nil
}

// Config returns the most recently loaded configuration.
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg == nil {
		return Default()
	}
	return m.cfg
}

type ctxKey struct{}

var managerCtxKey = ctxKey{}

// ContextWithManager attaches m to ctx.
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey, m)
}

// FromContext returns the Manager's Config attached to ctx, or package
// defaults if ctx carries none.
func FromContext(ctx context.Context) *Config {
	m, ok := ctx.Value(managerCtxKey).(*Manager)
	if !ok || m == nil {
		return Default()
	}
	return m.Config()
}
