package filestore

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdlrun/wdlrun/engine/value"
)

func newTestStore(t *testing.T) (*LocalStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := NewLocalStore(fs, "/store", "/tmp", 16)
	require.NoError(t, err)
	return store, fs
}

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round-trip content through virtualize and devirtualize (invariant 3)", func(t *testing.T) {
		store, fs := newTestStore(t)
		require.NoError(t, afero.WriteFile(fs, "/in/out.txt", []byte("hello\n"), 0o644))

		handle, err := store.WriteLocal(ctx, "/in/out.txt")
		require.NoError(t, err)
		assert.True(t, value.File{Handle: handle}.IsVirtualized())

		localPath, err := store.ReadLocal(ctx, handle)
		require.NoError(t, err)
		contents, err := afero.ReadFile(fs, localPath)
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(contents))
	})

	t.Run("Should deduplicate identical content to the same handle", func(t *testing.T) {
		store, fs := newTestStore(t)
		require.NoError(t, afero.WriteFile(fs, "/a.txt", []byte("same"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/b.txt", []byte("same"), 0o644))

		h1, err := store.WriteLocal(ctx, "/a.txt")
		require.NoError(t, err)
		h2, err := store.WriteLocal(ctx, "/b.txt")
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("Should fail ReadLocal for an unknown handle", func(t *testing.T) {
		store, _ := newTestStore(t)
		_, err := store.ReadLocal(ctx, "toilfile:deadbeef")
		require.Error(t, err)
	})

	t.Run("Should allocate a fresh temp dir per call", func(t *testing.T) {
		store, _ := newTestStore(t)
		d1, err := store.LocalTempDir()
		require.NoError(t, err)
		d2, err := store.LocalTempDir()
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})
}

func TestVirtualizer(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return an already-virtualized file unchanged", func(t *testing.T) {
		store, _ := newTestStore(t)
		v := NewVirtualizer(store, nil)
		f := value.File{Handle: "toilfile:abc"}
		got, err := v.Virtualize(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	})

	t.Run("Should virtualize a local path into a store handle", func(t *testing.T) {
		store, fs := newTestStore(t)
		require.NoError(t, afero.WriteFile(fs, "/x.txt", []byte("data"), 0o644))
		v := NewVirtualizer(store, nil)
		got, err := v.Virtualize(ctx, value.File{LocalPath: "/x.txt"})
		require.NoError(t, err)
		assert.True(t, got.IsVirtualized())
	})

	t.Run("Should devirtualize a non-prefixed, non-remote path unchanged", func(t *testing.T) {
		store, _ := newTestStore(t)
		v := NewVirtualizer(store, nil)
		path, err := v.Devirtualize(ctx, value.File{LocalPath: "/already/local.txt"})
		require.NoError(t, err)
		assert.Equal(t, "/already/local.txt", path)
	})
}
