package graph

import (
	"context"

	"github.com/wdlrun/wdlrun/engine/bindings"
	"github.com/wdlrun/wdlrun/engine/filestore"
	"github.com/wdlrun/wdlrun/engine/jobengine"
	"github.com/wdlrun/wdlrun/engine/wdl"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

// WorkflowJobRun builds the jobengine.RunFunc for a (sub)workflow (spec
// §4.8): evaluate input declarations, expand the body via the Subgraph
// Builder, and return the sink's bindings. Output-section evaluation is
// an extension point per spec §4.8/§9; when the workflow declares an
// output section, each output Decl is evaluated in this unit, in order,
// against the sink's bindings and bound into the returned environment.
func WorkflowJobRun(rt *Runtime, wf *wdl.Workflow) jobengine.RunFunc {
	return func(ctx context.Context, preds []bindings.Bindings, store filestore.Store) (bindings.Bindings, error) {
		log := logger.FromContext(ctx).With("component", "workflow_job", "workflow", wf.Name)
		env := bindings.CombineSorted(preds...)

		shim, err := rt.newShim(store)
		if err != nil {
			return bindings.Bindings{}, err
		}
		defer shim.Close()

		for _, d := range wf.Inputs {
			v, err := wdl.EvaluateDefaultableDecl(ctx, d, env, shim)
			if err != nil {
				log.Error("input evaluation failed", "decl", d.Name, "error", err)
				return bindings.Bindings{}, err
			}
			env = env.Bind(d.Name, v)
		}
		for _, d := range wf.Postinputs {
			v, err := wdl.EvaluateDecl(ctx, d, env, shim)
			if err != nil {
				log.Error("postinput evaluation failed", "decl", d.Name, "error", err)
				return bindings.Bindings{}, err
			}
			env = env.Bind(d.Name, v)
		}

		sink, err := BuildSubgraph(ctx, rt, wf.Body, literalFuture(env), "workflow:"+wf.Name)
		if err != nil {
			return bindings.Bindings{}, err
		}
		result, err := sink.Get(ctx)
		if err != nil {
			return bindings.Bindings{}, err
		}

		if len(wf.Outputs) == 0 {
			log.Debug("workflow completed", "bindings", result.Names())
			return result, nil
		}

		outEnv := result
		for _, d := range wf.Outputs {
			v, err := wdl.EvaluateDecl(ctx, d, outEnv, shim)
			if err != nil {
				log.Error("output evaluation failed", "decl", d.Name, "error", err)
				return bindings.Bindings{}, err
			}
			outEnv = outEnv.Bind(d.Name, v)
		}
		log.Debug("workflow completed", "bindings", outEnv.Names())
		return outEnv, nil
	}
}
