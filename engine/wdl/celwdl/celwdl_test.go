package celwdl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/value"
)

func TestExpr_Eval(t *testing.T) {
	ctx := context.Background()

	t.Run("Should evaluate a literal arithmetic expression (S1)", func(t *testing.T) {
		v, err := New("1 + 2").Eval(ctx, bindings.New(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), v.Int)
	})

	t.Run("Should evaluate a reference to a bound name (S2)", func(t *testing.T) {
		env := bindings.New().Bind("x", value.NewInt(5))
		v, err := New("x * 2").Eval(ctx, env, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(10), v.Int)
	})

	t.Run("Should chain dependent declarations (S5)", func(t *testing.T) {
		env := bindings.New().Bind("a", value.NewInt(1))
		b, err := New("a + 1").Eval(ctx, env, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), b.Int)

		env = env.Bind("b", b)
		c, err := New("b + a").Eval(ctx, env, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.Int)
	})

	t.Run("Should fail evaluation for an unresolvable reference", func(t *testing.T) {
		_, err := New("missing + 1").Eval(ctx, bindings.New(), nil)
		require.Error(t, err)
	})
}
