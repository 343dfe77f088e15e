package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestETag_Stability(t *testing.T) {
	t.Run("Should generate stable ETag for typed map[string]string", func(t *testing.T) {
		a := map[string]string{"b": "2", "a": "1", "c": "3"}
		b := map[string]string{"c": "3", "b": "2", "a": "1"}
		require.Equal(t, ETagFromAny(a), ETagFromAny(b))
	})
	t.Run("Should generate stable ETag for typed map[string]int", func(t *testing.T) {
		a := map[string]int{"x": 1, "y": 2}
		b := map[string]int{"y": 2, "x": 1}
		require.Equal(t, ETagFromAny(a), ETagFromAny(b))
	})
	t.Run("Should generate stable ETag for nested typed maps", func(t *testing.T) {
		a := map[string]map[string]string{"outer": {"b": "2", "a": "1"}}
		b := map[string]map[string]string{"outer": {"a": "1", "b": "2"}}
		require.Equal(t, ETagFromAny(a), ETagFromAny(b))
	})
}

func TestCallCacheKey(t *testing.T) {
	t.Run("Should be stable regardless of input map iteration order", func(t *testing.T) {
		a := map[string]string{"b": "2", "a": "1"}
		b := map[string]string{"a": "1", "b": "2"}
		require.Equal(t, CallCacheKey("greet", a), CallCacheKey("greet", b))
	})
	t.Run("Should differ for different task names with identical inputs", func(t *testing.T) {
		inputs := map[string]string{"a": "1"}
		require.NotEqual(t, CallCacheKey("greet", inputs), CallCacheKey("farewell", inputs))
	})
	t.Run("Should differ for different inputs with identical task name", func(t *testing.T) {
		require.NotEqual(
			t,
			CallCacheKey("greet", map[string]string{"a": "1"}),
			CallCacheKey("greet", map[string]string{"a": "2"}),
		)
	})
}
