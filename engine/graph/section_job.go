package graph

import (
	"context"
	"sort"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/wdl"
)

// depShape caches a node list's intra-body dependency shape (deps and
// dependents, keyed by node ID, plus the list's ID order) so repeated
// expansions of the same section — every scatter iteration runs the
// Subgraph Builder over the identical body — skip recomputing it.
type depShape struct {
	order      []string
	deps       map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

var shapeCache, _ = ristretto.NewCache(&ristretto.Config[string, *depShape]{
	NumCounters: 1e4,
	MaxCost:     1 << 20,
	BufferItems: 64,
})

func computeDepShape(nodes []wdl.Node) *depShape {
	idToNode := make(map[string]wdl.Node, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		idToNode[n.ID()] = n
		order = append(order, n.ID())
	}

	deps := make(map[string]map[string]struct{}, len(nodes))
	dependents := make(map[string]map[string]struct{}, len(nodes))
	for id := range idToNode {
		dependents[id] = map[string]struct{}{}
	}
	for _, n := range nodes {
		d := map[string]struct{}{}
		for dep := range n.Dependencies() {
			if _, ok := idToNode[dep]; ok {
				d[dep] = struct{}{}
				dependents[dep][n.ID()] = struct{}{}
			}
		}
		deps[n.ID()] = d
	}
	return &depShape{order: order, deps: deps, dependents: dependents}
}

func depShapeFor(nodes []wdl.Node, cacheKey string) *depShape {
	if cacheKey != "" {
		if cached, ok := shapeCache.Get(cacheKey); ok && len(cached.order) == len(nodes) {
			same := true
			for i, n := range nodes {
				if cached.order[i] != n.ID() {
					same = false
					break
				}
			}
			if same {
				return cached
			}
		}
	}
	shape := computeDepShape(nodes)
	if cacheKey != "" {
		shapeCache.Set(cacheKey, shape, 1)
	}
	return shape
}

// BuildSubgraph implements the Subgraph Builder (spec §4.6): given a node
// list and a seed environment future, it topologically expands the list
// into wired Node/Section Jobs and returns the sink Combine Job's future.
// cacheKey identifies the node list's dependency shape for reuse across
// repeated expansions of the same body (e.g. scatter iterations); pass ""
// to skip caching.
func BuildSubgraph(
	ctx context.Context,
	rt *Runtime,
	nodes []wdl.Node,
	seed jobengine.Future,
	cacheKey string,
) (jobengine.Future, error) {
	if len(nodes) == 0 {
		return seed, nil
	}

	byID := make(map[string]wdl.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}
	shape := depShapeFor(nodes, cacheKey)

	outstanding := make(map[string]int, len(shape.order))
	for id, d := range shape.deps {
		outstanding[id] = len(d)
	}
	ready := make([]string, 0, len(shape.order))
	for _, id := range shape.order {
		if outstanding[id] == 0 {
			ready = append(ready, id)
		}
	}

	emitted := make(map[string]jobengine.Future, len(shape.order))
	var leaves []jobengine.Future
	remaining := len(shape.order)

	for remaining > 0 {
		sort.Strings(ready) // deterministic tie-break for reproducible tests
		id := ready[0]
		ready = ready[1:]
		remaining--

		preds := make([]jobengine.Future, 0, len(shape.deps[id])+1)
		for dep := range shape.deps[id] {
			preds = append(preds, emitted[dep])
		}
		preds = append(preds, seed)

		_, f, err := rt.Engine.Submit(ctx, nil, preds, NodeJobRun(rt, byID[id]))
		if err != nil {
			return nil, err
		}
		emitted[id] = f

		if len(shape.dependents[id]) == 0 {
			leaves = append(leaves, f)
		} else {
			for dependent := range shape.dependents[id] {
				outstanding[dependent]--
				if outstanding[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		}
	}

	sinkPreds := append(leaves, seed)
	_, sink, err := rt.Engine.Submit(ctx, nil, sinkPreds, CombineJobRun())
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// resolveEnv is a small convenience used by Section Jobs to turn their own
// combined predecessor Bindings into a literal seed future for
// BuildSubgraph without an extra unit submission.
func resolveEnv(env bindings.Bindings) jobengine.Future {
	return literalFuture(env)
}
