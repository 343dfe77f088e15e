package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_IsVirtualized(t *testing.T) {
	t.Run("Should report true for toilfile: handles", func(t *testing.T) {
		f := File{Handle: "toilfile:abc123=="}
		assert.True(t, f.IsVirtualized())
	})
	t.Run("Should report false for local paths", func(t *testing.T) {
		f := File{LocalPath: "/tmp/out.txt"}
		assert.False(t, f.IsVirtualized())
	})
	t.Run("Should report false for remote URIs", func(t *testing.T) {
		f := File{RemoteURI: "https://example.com/x.txt"}
		assert.False(t, f.IsVirtualized())
	})
}

func TestValue_AsArray(t *testing.T) {
	t.Run("Should return elements for Array values", func(t *testing.T) {
		v := NewArray(NewInt(1), NewInt(2), NewInt(3))
		elems, err := v.AsArray()
		require.NoError(t, err)
		assert.Len(t, elems, 3)
	})
	t.Run("Should fail with a type mismatch for non-Array values", func(t *testing.T) {
		v := NewInt(1)
		_, err := v.AsArray()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type mismatch")
	})
}

func TestValue_Null(t *testing.T) {
	t.Run("Should be optional and report IsNull", func(t *testing.T) {
		n := Null()
		assert.True(t, n.IsNull())
		assert.True(t, n.Optional)
	})
}
