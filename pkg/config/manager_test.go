package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Load(t *testing.T) {
	t.Run("Should populate Config from defaults when no extra sources are given", func(t *testing.T) {
		m := NewManager()
		require.NoError(t, m.Load())
		cfg := m.Config()
		assert.Equal(t, Default().Temporal.Namespace, cfg.Temporal.Namespace)
		assert.Equal(t, Default().FileStore.Root, cfg.FileStore.Root)
	})

	t.Run("Should let a later source override an earlier one", func(t *testing.T) {
		cli := NewCLIProvider(map[string]any{"temporal-namespace": "custom-ns"})
		m := NewManager()
		require.NoError(t, m.Load(cli))
		assert.Equal(t, "custom-ns", m.Config().Temporal.Namespace)
	})

	t.Run("Should return default Config before Load is ever called", func(t *testing.T) {
		m := NewManager()
		assert.Equal(t, Default().Task.DefaultTimeout, m.Config().Task.DefaultTimeout)
	})
}

func TestLoad_Convenience(t *testing.T) {
	t.Run("Should return a Config without requiring a Manager", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, Default().Graph.DependencyCacheSize, cfg.Graph.DependencyCacheSize)
	})
}
