package graph

import (
	"context"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

// ConditionalJobRun builds the jobengine.RunFunc for an `if` section: a
// Section Job exactly like Scatter but guarded by a boolean expression
// instead of an array. A false guard yields the incoming environment
// unchanged — an empty subgraph, never submitted.
func ConditionalJobRun(rt *Runtime, n *wdl.Conditional) jobengine.RunFunc {
	return func(ctx context.Context, preds []bindings.Bindings, store filestore.Store) (bindings.Bindings, error) {
		log := logger.FromContext(ctx).With("component", "conditional_job", "workflow_node_id", n.ID())
		env := bindings.CombineSorted(preds...)

		shim, err := rt.newShim(store)
		if err != nil {
			return bindings.Bindings{}, err
		}
		defer shim.Close()

		guard, err := n.Expr.Eval(ctx, env, shim)
		if err != nil {
			return bindings.Bindings{}, err
		}
		ok, err := guard.AsBool()
		if err != nil {
			return bindings.Bindings{}, core.NewError(err, core.ErrTypeMismatch, map[string]any{"workflow_node_id": n.ID()})
		}
		if !ok {
			log.Debug("guard false, skipping body")
			return env, nil
		}

		sink, err := BuildSubgraph(ctx, rt, n.Body, literalFuture(env), "conditional:"+n.ID())
		if err != nil {
			return bindings.Bindings{}, err
		}
		return sink.Get(ctx)
	}
}
