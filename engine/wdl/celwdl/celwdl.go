// Package celwdl is a reference WDL expression evaluator backing
// engine/wdl.Expr with github.com/google/cel-go. It covers the scalar
// arithmetic, comparison, and variable-reference subset of WDL expression
// syntax exercised by the core's test scenarios (S1, S2, S4, S5); it
// is not a full WDL expression grammar and does not implement the WDL
// standard-library builtins (those are modeled separately by
// engine/stdlib and consulted only through Stdlib.Devirtualize/
// Virtualize/WriteDir, which CEL expressions never call directly).
package celwdl

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/value"
	"github.com/wdlrun/wdlrun/engine/wdl"
)

// Expr adapts a CEL source string to wdl.Expr. The CEL environment is
// (re)built at Eval time from the names actually present in the
// evaluation environment, since WDL bindings are dynamically scoped and
// not known when the expression is parsed out of the document.
type Expr struct {
	source string
}

// New compiles source lazily on first Eval and returns a wdl.Expr wrapping
// it. Compilation is deferred because the set of in-scope names is only
// known once an evaluation environment is supplied.
func New(source string) *Expr {
	return &Expr{source: source}
}

var _ wdl.Expr = (*Expr)(nil)

// Eval implements wdl.Expr.
func (e *Expr) Eval(_ context.Context, env bindings.Bindings, _ wdl.Stdlib) (value.Value, error) {
	names := env.Names()
	decls := make([]cel.EnvOption, 0, len(names))
	for _, name := range names {
		decls = append(decls, cel.Variable(name, cel.DynType))
	}
	celEnv, err := cel.NewEnv(decls...)
	if err != nil {
		return value.Value{}, core.NewError(fmt.Errorf("building CEL environment: %w", err), core.ErrEvaluation, nil)
	}
	ast, issues := celEnv.Compile(e.source)
	if issues != nil && issues.Err() != nil {
		return value.Value{}, core.NewError(
			fmt.Errorf("compiling expression %q: %w", e.source, issues.Err()),
			core.ErrEvaluation,
			map[string]any{"expression": e.source},
		)
	}
	prg, err := celEnv.Program(ast)
	if err != nil {
		return value.Value{}, core.NewError(fmt.Errorf("planning expression %q: %w", e.source, err), core.ErrEvaluation, nil)
	}

	activation := make(map[string]any, len(names))
	for _, name := range names {
		v, _ := env.Lookup(name)
		native, err := toNative(v)
		if err != nil {
			return value.Value{}, err
		}
		activation[name] = native
	}

	out, _, err := prg.Eval(activation)
	if err != nil {
		return value.Value{}, core.NewError(
			fmt.Errorf("evaluating expression %q: %w", e.source, err),
			core.ErrEvaluation,
			map[string]any{"expression": e.source},
		)
	}
	return fromCEL(out)
}

// toNative converts a typed Value into the plain Go value CEL's
// activation expects.
func toNative(v value.Value) (any, error) {
	switch v.Kind {
	case value.KindNull:
		return nil, nil
	case value.KindBool:
		return v.Bool, nil
	case value.KindInt:
		return v.Int, nil
	case value.KindFloat:
		return v.Float, nil
	case value.KindString:
		return v.String, nil
	case value.KindFile:
		return v.File.String(), nil
	case value.KindArray:
		out := make([]any, len(v.Array))
		for i, elem := range v.Array {
			n, err := toNative(elem)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case value.KindObject, value.KindStruct:
		out := make(map[string]any, len(v.Fields))
		for k, elem := range v.Fields {
			n, err := toNative(elem)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, core.NewError(
			fmt.Errorf("celwdl: kind %s has no CEL encoding", v.Kind),
			core.ErrEvaluation,
			nil,
		)
	}
}

// fromCEL converts a CEL evaluation result back into a typed Value.
func fromCEL(val ref.Val) (value.Value, error) {
	native := val.Value()
	switch n := native.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.NewBool(n), nil
	case int64:
		return value.NewInt(n), nil
	case int:
		return value.NewInt(int64(n)), nil
	case uint64:
		return value.NewInt(int64(n)), nil
	case float64:
		return value.NewFloat(n), nil
	case string:
		return value.NewString(n), nil
	case []ref.Val:
		elems := make([]value.Value, len(n))
		for i, e := range n {
			v, err := fromCEL(e)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		return value.NewArray(elems...), nil
	default:
		return value.Value{}, core.NewError(
			fmt.Errorf("celwdl: CEL result of type %T has no Value encoding", native),
			core.ErrEvaluation,
			nil,
		)
	}
}
