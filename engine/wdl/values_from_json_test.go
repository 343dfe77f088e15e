package wdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdlrun/wdlrun/engine/value"
)

func TestValuesFromJSON(t *testing.T) {
	available := map[string]Type{
		"x": {Kind: value.KindInt},
		"y": {Kind: value.KindString, Optional: true},
	}
	required := map[string]bool{"x": true}

	t.Run("Should bind present inputs under the workflow namespace", func(t *testing.T) {
		raw := []byte(`{"w.x": 5}`)
		got, err := ValuesFromJSON(raw, available, required, "w")
		require.NoError(t, err)
		v, ok := got.Lookup("x")
		require.True(t, ok)
		assert.Equal(t, int64(5), v.Int)
		assert.False(t, got.Has("y"))
	})

	t.Run("Should fail before any unit is submitted when a required input is missing", func(t *testing.T) {
		raw := []byte(`{}`)
		_, err := ValuesFromJSON(raw, available, required, "w")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "w.x")
	})

	t.Run("Should skip an absent optional input without error", func(t *testing.T) {
		raw := []byte(`{"w.x": 1}`)
		got, err := ValuesFromJSON(raw, available, required, "w")
		require.NoError(t, err)
		assert.False(t, got.Has("y"))
	})
}
