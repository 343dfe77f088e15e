package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProvider_Load(t *testing.T) {
	t.Run("Should flatten Default() into a nested map", func(t *testing.T) {
		data, err := NewDefaultProvider().Load()
		require.NoError(t, err)
		temporal, ok := data["temporal"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, Default().Temporal.Namespace, temporal["namespace"])
	})
}

func TestEnvProvider(t *testing.T) {
	t.Run("Should report SourceEnv and an empty Load result", func(t *testing.T) {
		p := NewEnvProvider()
		assert.Equal(t, SourceEnv, p.Type())
		data, err := p.Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestYAMLProvider_Load(t *testing.T) {
	t.Run("Should parse a YAML file into a nested map", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("temporal:\n  namespace: from-yaml\n"), 0o600))

		p := NewYAMLProvider(path)
		data, err := p.Load()
		require.NoError(t, err)
		temporal, ok := data["temporal"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "from-yaml", temporal["namespace"])
	})

	t.Run("Should return an empty map for a missing path", func(t *testing.T) {
		p := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml"))
		data, err := p.Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("Should return an empty map when no path is configured", func(t *testing.T) {
		p := NewYAMLProvider("")
		data, err := p.Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestCLIProvider_Load(t *testing.T) {
	t.Run("Should map known flags onto the Config's nested shape", func(t *testing.T) {
		p := NewCLIProvider(map[string]any{
			"temporal-host-port": "localhost:9999",
			"log-level":          "debug",
		})
		data, err := p.Load()
		require.NoError(t, err)
		temporal, ok := data["temporal"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "localhost:9999", temporal["host_port"])
		logCfg, ok := data["log"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "debug", logCfg["level"])
	})

	t.Run("Should handle nil flags gracefully", func(t *testing.T) {
		data, err := NewCLIProvider(nil).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}
