package graph

import (
	"context"

	"github.com/wdlrun/wdlrun/engine/bindings"
)

// literalFuture wraps an already-known Bindings as a jobengine.Future so
// seed environments and pre-evaluated inputs can be threaded into
// Engine.Submit alongside real sub-unit futures.
type literalFuture bindings.Bindings

func (f literalFuture) Get(_ context.Context) (bindings.Bindings, error) {
	return bindings.Bindings(f), nil
}
