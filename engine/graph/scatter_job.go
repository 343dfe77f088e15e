package graph

import (
	"context"
	"fmt"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/core"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/value"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

// ScatterJobRun builds the jobengine.RunFunc for a scatter section (spec
// §4.7). Per the resolved Open Question (§9, DESIGN.md), output
// aggregation uses the arraying form: every name the body binds (that
// wasn't already present in the seed environment) becomes an Array of
// its per-iteration values, in iteration order, rather than an
// undifferentiated merge.
func ScatterJobRun(rt *Runtime, n *wdl.Scatter) jobengine.RunFunc {
	return func(ctx context.Context, preds []bindings.Bindings, store filestore.Store) (bindings.Bindings, error) {
		log := logger.FromContext(ctx).With("component", "scatter_job", "workflow_node_id", n.ID())
		env := bindings.CombineSorted(preds...)

		shim, err := rt.newShim(store)
		if err != nil {
			return bindings.Bindings{}, err
		}
		defer shim.Close()

		arrVal, err := n.Expr.Eval(ctx, env, shim)
		if err != nil {
			return bindings.Bindings{}, err
		}
		elems, err := arrVal.AsArray()
		if err != nil {
			return bindings.Bindings{}, core.NewError(err, core.ErrTypeMismatch, map[string]any{"workflow_node_id": n.ID()})
		}

		// Submit every iteration's subgraph before awaiting any of them,
		// so independent iterations can run concurrently on the engine
		// rather than being serialized one-at-a-time.
		cacheKey := fmt.Sprintf("scatter:%s", n.ID())
		sinks := make([]jobengine.Future, len(elems))
		for i, elem := range elems {
			seed := env.Bind(n.Variable, elem)
			sink, err := BuildSubgraph(ctx, rt, n.Body, literalFuture(seed), cacheKey)
			if err != nil {
				return bindings.Bindings{}, err
			}
			sinks[i] = sink
		}

		iterResults := make([]bindings.Bindings, len(elems))
		for i, sink := range sinks {
			result, err := sink.Get(ctx)
			if err != nil {
				return bindings.Bindings{}, err
			}
			iterResults[i] = result
			log.Debug("scatter iteration completed", "index", i)
		}

		return arrayIterationResults(env, n.Variable, iterResults), nil
	}
}

// arrayIterationResults implements the arraying aggregation: names bound
// by the body (absent from seed, and not the scatter loop variable
// itself) are collected into an Array across iterations, in order;
// everything inherited from seed passes through unchanged.
func arrayIterationResults(seed bindings.Bindings, loopVar string, iterations []bindings.Bindings) bindings.Bindings {
	bodyNames := map[string]struct{}{}
	for _, it := range iterations {
		for _, name := range it.Names() {
			if name == loopVar || seed.Has(name) {
				continue
			}
			bodyNames[name] = struct{}{}
		}
	}

	result := seed
	for name := range bodyNames {
		elems := make([]value.Value, len(iterations))
		for i, it := range iterations {
			if v, ok := it.Lookup(name); ok {
				elems[i] = v
			} else {
				elems[i] = value.Null()
			}
		}
		result = result.Bind(name, value.NewArray(elems...))
	}
	return result
}
