package wdl

import (
	"context"
	"fmt"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/value"
)

// EvaluateNamedExpression implements the shared rule every declaration
// evaluation reduces to: an absent expression on an optional type yields
// Null; an absent expression on a required type is an evaluation error;
// otherwise the expression is evaluated against env.
func EvaluateNamedExpression(
	ctx context.Context,
	name string,
	expectedType Type,
	expr Expr,
	env bindings.Bindings,
	stdlib Stdlib,
) (value.Value, error) {
	if expr == nil {
		if expectedType.Optional {
			return value.Null(), nil
		}
		return value.Value{}, core.NewError(
			fmt.Errorf("no expression and no default for required declaration %q", name),
			core.ErrEvaluation,
			map[string]any{"name": name},
		)
	}
	v, err := expr.Eval(ctx, env, stdlib)
	if err != nil {
		return value.Value{}, err
	}
	return v, nil
}

// EvaluateDecl evaluates a declaration's own expression (or default rule)
// against env.
func EvaluateDecl(ctx context.Context, d *Decl, env bindings.Bindings, stdlib Stdlib) (value.Value, error) {
	return EvaluateNamedExpression(ctx, d.Name, d.Type, d.Expr, env, stdlib)
}

// EvaluateDefaultableDecl implements input-declaration evaluation: if the
// name is already bound in env (an explicit caller-supplied value), that
// value is used as-is and the declared default is never evaluated;
// otherwise falls back to EvaluateDecl.
func EvaluateDefaultableDecl(
	ctx context.Context,
	d *Decl,
	env bindings.Bindings,
	stdlib Stdlib,
) (value.Value, error) {
	if v, ok := env.Lookup(d.Name); ok {
		return v, nil
	}
	return EvaluateDecl(ctx, d, env, stdlib)
}

// EvaluateCallInputs evaluates each of a call's named input expressions
// against env and binds the results into a fresh Bindings, used as the
// callee's seed environment.
func EvaluateCallInputs(
	ctx context.Context,
	inputs []CallInput,
	env bindings.Bindings,
	stdlib Stdlib,
) (bindings.Bindings, error) {
	result := bindings.New()
	for _, in := range inputs {
		v, err := in.Expr.Eval(ctx, env, stdlib)
		if err != nil {
			return bindings.Bindings{}, err
		}
		result = result.Bind(in.Name, v)
	}
	return result, nil
}
