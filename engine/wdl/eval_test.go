package wdl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/value"
)

// literalExpr is a test double for Expr that always returns a fixed value.
type literalExpr struct {
	v   value.Value
	err error
}

func (l literalExpr) Eval(_ context.Context, _ bindings.Bindings, _ Stdlib) (value.Value, error) {
	return l.v, l.err
}

func TestEvaluateNamedExpression(t *testing.T) {
	ctx := context.Background()
	env := bindings.New()

	t.Run("Should return Null for an absent expression on an optional type", func(t *testing.T) {
		v, err := EvaluateNamedExpression(ctx, "x", Type{Kind: value.KindInt, Optional: true}, nil, env, nil)
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("Should fail with an evaluation error for an absent expression on a required type", func(t *testing.T) {
		_, err := EvaluateNamedExpression(ctx, "x", Type{Kind: value.KindInt}, nil, env, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no expression")
	})

	t.Run("Should evaluate the expression when present", func(t *testing.T) {
		expr := literalExpr{v: value.NewInt(42)}
		v, err := EvaluateNamedExpression(ctx, "x", Type{Kind: value.KindInt}, expr, env, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v.Int)
	})
}

func TestEvaluateDefaultableDecl(t *testing.T) {
	ctx := context.Background()

	t.Run("Should use the bound value and skip the default when already present", func(t *testing.T) {
		env := bindings.New().Bind("x", value.NewInt(5))
		d := &Decl{Name: "x", Type: Type{Kind: value.KindInt}, Expr: literalExpr{v: value.NewInt(10)}}
		v, err := EvaluateDefaultableDecl(ctx, d, env, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), v.Int)
	})

	t.Run("Should evaluate the default when absent from env", func(t *testing.T) {
		d := &Decl{Name: "x", Type: Type{Kind: value.KindInt}, Expr: literalExpr{v: value.NewInt(10)}}
		v, err := EvaluateDefaultableDecl(ctx, d, bindings.New(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(10), v.Int)
	})
}

func TestEvaluateCallInputs(t *testing.T) {
	t.Run("Should bind each named input expression into a fresh environment", func(t *testing.T) {
		inputs := []CallInput{
			{Name: "a", Expr: literalExpr{v: value.NewInt(1)}},
			{Name: "b", Expr: literalExpr{v: value.NewString("x")}},
		}
		got, err := EvaluateCallInputs(context.Background(), inputs, bindings.New(), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Len())
		v, ok := got.Lookup("a")
		require.True(t, ok)
		assert.Equal(t, int64(1), v.Int)
	})

	t.Run("Should stop and return the first evaluation error", func(t *testing.T) {
		inputs := []CallInput{
			{Name: "a", Expr: literalExpr{err: assert.AnError}},
		}
		_, err := EvaluateCallInputs(context.Background(), inputs, bindings.New(), nil)
		require.Error(t, err)
	})
}
