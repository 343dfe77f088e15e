package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/value"
)

func TestEngine_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should run a unit with no predecessors immediately", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		_, f, err := e.Submit(ctx, nil, nil, func(_ context.Context, preds []bindings.Bindings, _ filestore.Store) (bindings.Bindings, error) {
			assert.Empty(t, preds)
			return bindings.New().Bind("x", value.NewInt(1)), nil
		})
		require.NoError(t, err)
		got, err := f.Get(ctx)
		require.NoError(t, err)
		v, ok := got.Lookup("x")
		require.True(t, ok)
		assert.Equal(t, int64(1), v.Int)
	})

	t.Run("Should pass already-resolved predecessor bindings to the next unit", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		_, f1, err := e.Submit(ctx, nil, nil, func(_ context.Context, _ []bindings.Bindings, _ filestore.Store) (bindings.Bindings, error) {
			return bindings.New().Bind("a", value.NewInt(1)), nil
		})
		require.NoError(t, err)

		_, f2, err := e.Submit(ctx, nil, []jobengine.Future{f1}, func(_ context.Context, preds []bindings.Bindings, _ filestore.Store) (bindings.Bindings, error) {
			require.Len(t, preds, 1)
			a, _ := preds[0].Lookup("a")
			return bindings.New().Bind("b", value.NewInt(a.Int+1)), nil
		})
		require.NoError(t, err)

		got, err := f2.Get(ctx)
		require.NoError(t, err)
		b, ok := got.Lookup("b")
		require.True(t, ok)
		assert.Equal(t, int64(2), b.Int)
	})

	t.Run("Should surface a run error through the Future, not Submit itself", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		_, f, err := e.Submit(ctx, nil, nil, func(_ context.Context, _ []bindings.Bindings, _ filestore.Store) (bindings.Bindings, error) {
			return bindings.Bindings{}, assert.AnError
		})
		require.NoError(t, err)
		_, err = f.Get(ctx)
		assert.Error(t, err)
	})
}
