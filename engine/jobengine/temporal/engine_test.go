package temporal

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

func TestRegistry(t *testing.T) {
	t.Run("Should recover a RunFunc previously registered under an id", func(t *testing.T) {
		r := newRegistry()
		r.put("u1", func(_ context.Context, _ []bindings.Bindings, _ filestore.Store) (bindings.Bindings, error) {
			return bindings.New().Bind("ran", value.NewBool(true)), nil
		})
		run, ok := r.get("u1")
		require.True(t, ok)
		out, err := run(context.Background(), nil, nil)
		require.NoError(t, err)
		ran, _ := out.Lookup("ran")
		assert.True(t, ran.Bool)
	})

	t.Run("Should report absent for an unknown id", func(t *testing.T) {
		r := newRegistry()
		_, ok := r.get("missing")
		assert.False(t, ok)
	})
}

func TestResolveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Should resolve every predecessor future in order", func(t *testing.T) {
		a := literalFutureForTest(bindings.New().Bind("x", value.NewInt(1)))
		b := literalFutureForTest(bindings.New().Bind("y", value.NewInt(2)))
		out, err := resolveAll(ctx, []jobengine.Future{a, b})
		require.NoError(t, err)
		require.Len(t, out, 2)
		x, _ := out[0].Lookup("x")
		y, _ := out[1].Lookup("y")
		assert.Equal(t, int64(1), x.Int)
		assert.Equal(t, int64(2), y.Int)
	})
}

func TestWorkflowContextRoundTrip(t *testing.T) {
	t.Run("Should report no workflow context on a plain context", func(t *testing.T) {
		_, ok := workflowContextFrom(context.Background())
		assert.False(t, ok)
	})
}

type literalFutureForTest bindings.Bindings

func (f literalFutureForTest) Get(_ context.Context) (bindings.Bindings, error) {
	return bindings.Bindings(f), nil
}
