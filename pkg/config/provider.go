package config

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// SourceType names a configuration layer, used for diagnostics and to
// order providers in the Manager's layering.
type SourceType string

const (
	SourceDefault SourceType = "default"
	SourceEnv     SourceType = "env"
	SourceYAML    SourceType = "yaml"
	SourceCLI     SourceType = "cli"
)

// Source is one layer of the configuration provider chain. Load returns
// a nested map keyed by the Config struct's koanf tags; Watch notifies
// cb of changes to the underlying source, or is a no-op for sources that
// never change after Load (env, CLI flags).
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
	Watch(ctx context.Context, cb func()) error
}

// DefaultProvider supplies Default()'s values as the base layer every
// other provider overrides.
type DefaultProvider struct{}

func NewDefaultProvider() *DefaultProvider { return &DefaultProvider{} }

func (p *DefaultProvider) Type() SourceType { return SourceDefault }

func (p *DefaultProvider) Load() (map[string]any, error) {
	return structToMap(Default()), nil
}

func (p *DefaultProvider) Watch(_ context.Context, _ func()) error { return nil }

// EnvProvider is a marker layer: actual environment-variable reading is
// performed by koanf's env/v2 provider inside Manager.Load, since koanf
// owns the WDLRUN_-prefixed key transformation. Load returns an empty
// map; it exists so the provider chain can still report this layer's
// SourceType for diagnostics.
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider { return &EnvProvider{} }

func (p *EnvProvider) Type() SourceType { return SourceEnv }

func (p *EnvProvider) Load() (map[string]any, error) { return map[string]any{}, nil }

func (p *EnvProvider) Watch(_ context.Context, _ func()) error { return nil }

// YAMLProvider loads a YAML config file from Path.
type YAMLProvider struct {
	Path string
}

func NewYAMLProvider(path string) *YAMLProvider { return &YAMLProvider{Path: path} }

func (p *YAMLProvider) Type() SourceType { return SourceYAML }

func (p *YAMLProvider) Load() (map[string]any, error) {
	if p.Path == "" {
		return map[string]any{}, nil
	}
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", p.Path, err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", p.Path, err)
	}
	return data, nil
}

func (p *YAMLProvider) Watch(_ context.Context, _ func()) error { return nil }

// CLIProvider maps parsed CLI flags directly onto the Config struct's
// nested shape.
type CLIProvider struct {
	flags map[string]any
}

func NewCLIProvider(flags map[string]any) *CLIProvider {
	if flags == nil {
		flags = map[string]any{}
	}
	return &CLIProvider{flags: flags}
}

func (p *CLIProvider) Type() SourceType { return SourceCLI }

func (p *CLIProvider) Load() (map[string]any, error) {
	out := map[string]any{}
	if v, ok := p.flags["temporal-host-port"]; ok {
		setNested(out, []string{"temporal", "host_port"}, v)
	}
	if v, ok := p.flags["temporal-namespace"]; ok {
		setNested(out, []string{"temporal", "namespace"}, v)
	}
	if v, ok := p.flags["temporal-task-queue"]; ok {
		setNested(out, []string{"temporal", "task_queue"}, v)
	}
	if v, ok := p.flags["file-store-root"]; ok {
		setNested(out, []string{"file_store", "root"}, v)
	}
	if v, ok := p.flags["log-level"]; ok {
		setNested(out, []string{"log", "level"}, v)
	}
	return out, nil
}

func (p *CLIProvider) Watch(_ context.Context, _ func()) error { return nil }

func setNested(m map[string]any, path []string, v any) {
	cur := m
	for _, p := range path[:len(path)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = v
}
