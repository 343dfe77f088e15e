package wdl

import (
	"context"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/value"
)

// Type is the minimal static type metadata evaluate_named_expression needs:
// the value kind a declaration is annotated with, and whether it is
// optional (WDL's `Type?` suffix).
type Type struct {
	Kind     value.Kind
	Optional bool
}

// Stdlib is the subset of the Standard-Library Shim (§4.2) an expression
// needs during evaluation: the write directory for builtins that
// materialize files, and the devirtualize/virtualize hooks for File
// values. engine/stdlib.Shim and engine/stdlib.TaskOutputsShim both
// satisfy this.
type Stdlib interface {
	WriteDir() string
	Devirtualize(ctx context.Context, f value.File) (string, error)
	Virtualize(ctx context.Context, localPath string) (value.File, error)
}

// Expr is a WDL expression, as produced by the external parser.
// Eval evaluates it against env using stdlib for any builtin that
// touches the file store.
type Expr interface {
	Eval(ctx context.Context, env bindings.Bindings, stdlib Stdlib) (value.Value, error)
}
