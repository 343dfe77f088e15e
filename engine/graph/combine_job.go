package graph

import (
	"context"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
)

// CombineJobRun builds the trivial reducer unit of spec §4.9: return the
// merge of its predecessors. Callers are responsible for submitting
// predecessors in ascending-cardinality order (bindings.CombineSorted
// enforces this regardless of submission order).
func CombineJobRun() jobengine.RunFunc {
	return func(_ context.Context, preds []bindings.Bindings, _ filestore.Store) (bindings.Bindings, error) {
		return bindings.CombineSorted(preds...), nil
	}
}

// NamespaceJobRun builds the Namespace Job of spec §4.9: combine
// predecessors, then lift the result under name.
func NamespaceJobRun(name string) jobengine.RunFunc {
	return func(_ context.Context, preds []bindings.Bindings, _ filestore.Store) (bindings.Bindings, error) {
		return bindings.CombineSorted(preds...).WrapNamespace(name), nil
	}
}
